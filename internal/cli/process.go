package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/stepsmith/internal/model"
	"github.com/ppiankov/stepsmith/internal/pipeline"
)

var (
	outJSON       string
	outMD         string
	timeout       time.Duration
	userAgent     string
	maxBytes      int64
	noCache       bool
	noFooter      bool
	httpProxy     string
	httpsProxy    string
	knowledgeURLs []string
	tone          string
	audience      string
	llmProvider   string
	llmModel      string
	noQAFilter    bool
	noRankFilter  bool
	minImportance float64
	keepTopN      int
	useSemantic   bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <transcript>",
	Short: "Process a transcript into grounded training steps",
	Long: `Process runs the full pipeline on one transcript file:
- Parse sentences with timestamps and speakers
- Segment the session into topics
- Filter out Q&A-dominant and low-importance segments
- Generate one training step per topic
- Ground every step against the transcript and score its confidence
- Validate step structure and report quality

Example:
  stepsmith process session.txt --provider openai
  stepsmith process session.txt --json steps.json --md steps.md
  stepsmith process session.txt --knowledge https://docs.example.com/setup`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	// Output flags
	processCmd.Flags().StringVar(&outJSON, "json", "steps.json", "output JSON path")
	processCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	processCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown output")

	// Pipeline flags
	processCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall processing timeout")
	processCmd.Flags().StringVar(&tone, "tone", "professional", "writing tone for generated steps")
	processCmd.Flags().StringVar(&audience, "audience", "general", "target audience (general, technical)")
	processCmd.Flags().StringSliceVar(&knowledgeURLs, "knowledge", nil, "knowledge source URLs to ground against")
	processCmd.Flags().BoolVar(&noQAFilter, "no-qa-filter", false, "keep Q&A-dominant segments")
	processCmd.Flags().BoolVar(&noRankFilter, "no-importance-filter", false, "keep low-importance segments")
	processCmd.Flags().Float64Var(&minImportance, "min-importance", 0.3, "minimum importance score to keep a segment")
	processCmd.Flags().IntVar(&keepTopN, "top", 0, "keep only the N most important segments (0 = all)")
	processCmd.Flags().BoolVar(&useSemantic, "semantic", false, "use embedding similarity for grounding (needs API key)")

	// HTTP flags
	processCmd.Flags().StringVar(&userAgent, "ua", "Stepsmith/0.1 (+https://github.com/ppiankov/stepsmith)", "HTTP User-Agent for knowledge fetching")
	processCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes per knowledge source")
	processCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable knowledge cache (force fresh fetch)")
	processCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	processCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Generator flags
	processCmd.Flags().StringVar(&llmProvider, "provider", "openai", "step generator provider (openai, azure)")
	processCmd.Flags().StringVar(&llmModel, "model", "gpt-4o-mini", "model or deployment name")
}

func runProcess(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Processing: %s\n", file)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Provider: %s/%s\n", llmProvider, llmModel)
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Parsing and segmenting transcript...\n")
	}

	report, err := p.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Parsed %d sentences\n", report.Stats.TotalSentences)
		fmt.Fprintf(os.Stderr, "✓ Kept %d of %d segments\n", report.Stats.FilteredSegments, report.Stats.InitialSegments)
		fmt.Fprintf(os.Stderr, "✓ Generated %d steps (%d valid)\n", report.Stats.GeneratedSteps, report.Stats.ValidSteps)
		fmt.Fprintf(os.Stderr, "✓ Average confidence: %.2f\n", report.Stats.AvgConfidence)
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildConfig assembles the pipeline configuration from flags and environment
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	cfg.Pipeline.Tone = tone
	cfg.Pipeline.Audience = audience
	cfg.Pipeline.KnowledgeURLs = knowledgeURLs
	cfg.Pipeline.EnableQAFilter = !noQAFilter
	cfg.Pipeline.EnableImportanceFilter = !noRankFilter
	cfg.Pipeline.MinImportance = minImportance
	cfg.Pipeline.KeepTopN = keepTopN
	cfg.Pipeline.UseSemanticSimilarity = useSemantic

	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel

	// Get API key from environment
	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "azure":
		cfg.LLM.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("AZURE_OPENAI_API_KEY environment variable not set")
		}
		cfg.LLM.BaseURL = os.Getenv("AZURE_OPENAI_ENDPOINT")
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("AZURE_OPENAI_ENDPOINT environment variable not set")
		}
	}

	return cfg, nil
}
