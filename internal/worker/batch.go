package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/stepsmith/internal/model"
)

// Processor defines the interface for processing one transcript file
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*model.Report, error)
}

// DocumentJob represents one transcript file to process
type DocumentJob struct {
	Path      string
	Processor Processor
}

// Execute executes the document job
func (j *DocumentJob) Execute(ctx context.Context) Result {
	report, err := j.Processor.ProcessFile(ctx, j.Path)
	if err != nil {
		return &DocumentResult{
			Path:   j.Path,
			Report: nil,
			Error:  err,
		}
	}
	return &DocumentResult{
		Path:   j.Path,
		Report: report,
		Error:  nil,
	}
}

// DocumentResult represents the result of processing one transcript
type DocumentResult struct {
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple transcript files concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessFiles processes multiple transcript files concurrently
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*DocumentResult {
	if len(paths) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		job := &DocumentJob{
			Path:      path,
			Processor: b.processor,
		}
		pool.Submit(job)
	}

	results := pool.Wait()

	docResults := make([]*DocumentResult, len(results))
	for i, result := range results {
		docResults[i] = result.(*DocumentResult)
	}

	return docResults
}

// ProcessList reads transcript paths from a manifest file and processes
// them concurrently
func (b *BatchProcessor) ProcessList(ctx context.Context, listPath string) ([]*DocumentResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessFiles(ctx, paths), nil
}

// ReadPathsFromFile reads transcript paths from a file (one per line)
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate paths
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
