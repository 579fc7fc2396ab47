package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/stepsmith/internal/cache"
	"github.com/ppiankov/stepsmith/internal/ground"
	"github.com/ppiankov/stepsmith/internal/knowledge"
	"github.com/ppiankov/stepsmith/internal/llm"
	"github.com/ppiankov/stepsmith/internal/model"
	"github.com/ppiankov/stepsmith/internal/parse"
	"github.com/ppiankov/stepsmith/internal/qafilter"
	"github.com/ppiankov/stepsmith/internal/rank"
	"github.com/ppiankov/stepsmith/internal/segment"
	"github.com/ppiankov/stepsmith/internal/validate"
	"github.com/ppiankov/stepsmith/internal/worker"
)

var (
	// ErrNoSegments means every segment was removed by the quality gates.
	ErrNoSegments = errors.New("no segments survived filtering")

	// ErrNoValidSteps means step generation produced nothing usable.
	ErrNoValidSteps = errors.New("no valid steps generated")

	// ErrNoGenerator means step generation was requested without a backend.
	ErrNoGenerator = errors.New("step generation requires a configured LLM provider")
)

// Pipeline orchestrates the complete transcript-to-steps process
type Pipeline struct {
	parser    *parse.Parser
	cleaner   *parse.Cleaner
	segmenter *segment.Segmenter
	filter    *qafilter.Filter
	ranker    *rank.Ranker
	validator *validate.Validator
	fetcher   *knowledge.Fetcher
	generator llm.Generator
	scorer    ground.SemanticScorer
	renderer  *Renderer
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	segCfg := segment.DefaultConfig()
	segCfg.BoundaryScoreThreshold = cfg.Pipeline.BoundaryThreshold
	if cfg.Pipeline.MinTotalSegments > 0 {
		segCfg.MinTotalSegments = cfg.Pipeline.MinTotalSegments
	}
	segmenter, err := segment.NewSegmenter(segCfg)
	if err != nil {
		return nil, fmt.Errorf("segmenter: %w", err)
	}

	qaCfg := qafilter.DefaultConfig()
	qaCfg.FilterQASections = cfg.Pipeline.EnableQAFilter
	if cfg.Pipeline.MinQADensity > 0 {
		qaCfg.MinQADensity = cfg.Pipeline.MinQADensity
	}
	filter, err := qafilter.NewFilter(qaCfg)
	if err != nil {
		return nil, fmt.Errorf("qa filter: %w", err)
	}

	rankCfg := rank.DefaultConfig()
	rankCfg.MinImportanceThreshold = cfg.Pipeline.MinImportance
	rankCfg.KeepTopN = cfg.Pipeline.KeepTopN
	ranker, err := rank.NewRanker(rankCfg)
	if err != nil {
		return nil, fmt.Errorf("ranker: %w", err)
	}

	validator, err := validate.NewValidator(validate.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}

	generator, err := llm.NewGenerator(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		fmt.Printf("Warning: Failed to initialize LLM provider: %v\n", err)
	}

	// Embedding-based similarity only runs when requested and an API key is
	// available; everything else degrades to lexical matching.
	var scorer ground.SemanticScorer
	if cfg.Pipeline.UseSemanticSimilarity && cfg.LLM.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.LLM.APIKey)
		if cfg.LLM.BaseURL != "" {
			clientConfig.BaseURL = cfg.LLM.BaseURL
		}
		scorer = ground.NewEmbeddingScorer(openai.NewClientWithConfig(clientConfig), cfg.LLM.EmbeddingModel)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		} else {
			store = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
		}
	}
	fetcher := knowledge.NewFetcher(cfg.HTTP, store, cfg.Cache.DiskTTL, cfg.Concurrency.FetchWorkers)

	return &Pipeline{
		parser:    parse.NewParser(),
		cleaner:   parse.NewCleaner(cfg.Pipeline.CustomFillerWords...),
		segmenter: segmenter,
		filter:    filter,
		ranker:    ranker,
		validator: validator,
		fetcher:   fetcher,
		generator: generator,
		scorer:    scorer,
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		config:    cfg,
	}, nil
}

// SetGenerator replaces the step generation backend. Used by tests and by
// callers that bring their own backend.
func (p *Pipeline) SetGenerator(g llm.Generator) {
	p.generator = g
}

// Process turns one raw transcript into a complete report
func (p *Pipeline) Process(ctx context.Context, raw string, source string) (*model.Report, error) {
	if p.generator == nil {
		return nil, ErrNoGenerator
	}

	// 1. Parse into sentences
	sentences, metadata := p.parser.Parse(raw)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("parse transcript: no sentences found")
	}

	// Classification already ran on the raw text; everything downstream
	// (segmentation keywords, catalog, prompts) sees normalized sentences
	p.normalizeSentences(sentences)

	// 2. Segment by topic
	segments := p.segmenter.Segment(sentences)
	initialCount := len(segments)

	// 3. Remove Q&A-dominant segments
	qaRemoved := 0
	if p.config.Pipeline.EnableQAFilter {
		filtered := p.filter.FilterSegments(segments)
		qaRemoved = len(segments) - len(filtered)
		segments = filtered
	}

	// 4. Remove low-importance segments
	lowValueRemoved := 0
	if p.config.Pipeline.EnableImportanceFilter {
		kept := p.ranker.FilterLowImportance(segments)
		lowValueRemoved = len(segments) - len(kept)
		segments = kept
	}

	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	// 5. Fetch external knowledge sources
	var knowledgeSources []model.KnowledgeSource
	if len(p.config.Pipeline.KnowledgeURLs) > 0 {
		knowledgeSources = p.fetcher.FetchAll(ctx, p.config.Pipeline.KnowledgeURLs)
	}

	// 6. Generate one step per segment, in parallel
	steps, kept := p.generateSteps(ctx, segments, knowledgeSources)
	segments = kept
	if len(steps) == 0 {
		return nil, ErrNoValidSteps
	}

	// 7. Ground every step against the transcript
	session := ground.NewSession(p.groundConfig(), p.scorer)
	session.BuildCatalog(sentenceTexts(sentences))

	for i := range steps {
		data := session.BuildStepSources(ctx, i, steps[i], nil, knowledgeSources)
		steps[i].Confidence = data.OverallConfidence
	}

	// 8. Validate step structure
	validation := p.validator.ValidateSteps(steps)

	// 9. Blend grounding confidence with structural quality
	stepSources := session.AllStepSources()
	for i := range steps {
		steps[i].Confidence = session.EnhanceConfidence(stepSources[i].OverallConfidence, validation[i].QualityScore)
		validation[i].ConfidenceScore = steps[i].Confidence
	}

	report := &model.Report{
		Source:      source,
		ProcessedAt: time.Now().UTC(),
		Metadata:    metadata,
		Segments:    segments,
		Steps:       steps,
		StepSources: stepSources,
		Validation:  validation,
		Knowledge:   knowledgeSources,
	}
	report.Stats = buildStats(len(sentences), initialCount, qaRemoved, lowValueRemoved, steps, validation)

	return report, nil
}

// ProcessFile reads one transcript file and processes it. Implements
// worker.Processor for batch runs.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*model.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	return p.Process(ctx, string(raw), path)
}

// Segments runs only parsing and segmentation, for diagnostics.
func (p *Pipeline) Segments(raw string) ([]model.TopicSegment, model.TranscriptMetadata, error) {
	sentences, metadata := p.parser.Parse(raw)
	if len(sentences) == 0 {
		return nil, metadata, fmt.Errorf("parse transcript: no sentences found")
	}
	p.normalizeSentences(sentences)
	return p.segmenter.Segment(sentences), metadata, nil
}

// normalizeSentences cleans each sentence's text in place.
func (p *Pipeline) normalizeSentences(sentences []model.ParsedSentence) {
	for i := range sentences {
		sentences[i].Text = p.cleaner.Normalize(sentences[i].Text)
	}
}

// genJob generates one step from one segment via the worker pool
type genJob struct {
	generator llm.Generator
	req       llm.GenerateRequest
	index     int
}

type genResult struct {
	index int
	step  *model.Step
	err   error
}

func (r *genResult) GetError() error { return r.err }

func (j *genJob) Execute(ctx context.Context) worker.Result {
	step, err := j.generator.GenerateStep(ctx, j.req)
	return &genResult{index: j.index, step: step, err: err}
}

// generateSteps produces one step per segment in parallel. A failed segment
// is skipped with a warning; the returned segment list matches the steps
// one-to-one.
func (p *Pipeline) generateSteps(ctx context.Context, segments []model.TopicSegment, knowledgeSources []model.KnowledgeSource) ([]model.Step, []model.TopicSegment) {
	workers := p.config.Concurrency.GenerationWorkers
	pool := worker.NewPool(workers)
	pool.Start()

	for i, seg := range segments {
		pool.Submit(&genJob{
			generator: p.generator,
			index:     i,
			req: llm.GenerateRequest{
				SegmentText:   seg.GetText(),
				SegmentIndex:  i + 1,
				TotalSegments: len(segments),
				Tone:          p.config.Pipeline.Tone,
				Audience:      p.config.Pipeline.Audience,
				Knowledge:     knowledgeSources,
				MaxTokens:     p.config.LLM.MaxTokens,
			},
		})
	}

	results := make([]*genResult, 0, len(segments))
	for _, res := range pool.Wait() {
		if gr, ok := res.(*genResult); ok {
			results = append(results, gr)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	var steps []model.Step
	var kept []model.TopicSegment
	for _, gr := range results {
		if gr.err != nil {
			fmt.Printf("Warning: step generation failed for segment %d: %v\n", gr.index+1, gr.err)
			continue
		}
		if gr.step == nil {
			fmt.Printf("Warning: step generation returned nothing for segment %d\n", gr.index+1)
			continue
		}
		steps = append(steps, *gr.step)
		kept = append(kept, segments[gr.index])
	}

	return steps, kept
}

// groundConfig adapts the grounding weights to the available scorer. Without
// embeddings the semantic weight collapses into word overlap.
func (p *Pipeline) groundConfig() ground.Config {
	cfg := ground.DefaultConfig()
	if p.scorer == nil {
		cfg.WeightWord += cfg.WeightSemantic
		cfg.WeightSemantic = 0
	}
	return cfg
}

func sentenceTexts(sentences []model.ParsedSentence) []string {
	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}
	return texts
}

func buildStats(totalSentences, initialSegments, qaRemoved, lowValueRemoved int, steps []model.Step, validation []model.ValidationResult) model.ReportStats {
	stats := model.ReportStats{
		TotalSentences:   totalSentences,
		InitialSegments:  initialSegments,
		FilteredSegments: len(steps),
		QASegmentsRemove: qaRemoved,
		LowValueRemoved:  lowValueRemoved,
		GeneratedSteps:   len(steps),
	}

	var confidenceSum, qualitySum float64
	for i, step := range steps {
		confidenceSum += step.Confidence
		qualitySum += validation[i].QualityScore
		if validation[i].IsValid {
			stats.ValidSteps++
		}
	}
	if len(steps) > 0 {
		stats.AvgConfidence = confidenceSum / float64(len(steps))
		stats.AvgQuality = qualitySum / float64(len(steps))
	}

	return stats
}
