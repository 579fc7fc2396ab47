package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/stepsmith/internal/model"
	"github.com/ppiankov/stepsmith/internal/pipeline"
)

var (
	boundaryThreshold float64
	minSegments       int
)

// segmentCmd represents the segment command
var segmentCmd = &cobra.Command{
	Use:   "segment <transcript>",
	Short: "Show topic segmentation for a transcript (no LLM needed)",
	Long: `Segment parses a transcript and prints the detected topic boundaries
without generating any steps. Useful for tuning the boundary threshold
before running the full pipeline.

Example:
  stepsmith segment session.txt
  stepsmith segment session.txt --boundary-threshold 0.5 --min-segments 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	segmentCmd.Flags().Float64Var(&boundaryThreshold, "boundary-threshold", 0.40, "boundary score needed to split segments")
	segmentCmd.Flags().IntVar(&minSegments, "min-segments", 3, "minimum number of segments to produce")
}

func runSegment(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	cfg := model.DefaultConfig()
	cfg.Pipeline.BoundaryThreshold = boundaryThreshold
	cfg.Pipeline.MinTotalSegments = minSegments
	cfg.Cache.Enabled = false

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	segments, metadata, err := p.Segments(string(raw))
	if err != nil {
		return err
	}

	fmt.Printf("Transcript: %s\n", metadata.String())
	fmt.Printf("Segments:   %d\n\n", len(segments))

	for _, seg := range segments {
		fmt.Println(seg.String())
		if seg.FallbackSplit {
			fmt.Println("  (split to reach minimum segment count)")
		}
		fmt.Printf("  coherence: %.2f", seg.CoherenceScore)
		if seg.QuestionCount > 0 {
			fmt.Printf(", questions: %d", seg.QuestionCount)
		}
		fmt.Println()

		if verbose {
			for _, sent := range seg.Sentences {
				fmt.Printf("    %s\n", sent.String())
			}
		}
		fmt.Println()
	}

	return nil
}
