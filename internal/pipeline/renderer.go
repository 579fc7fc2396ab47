package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/stepsmith/internal/model"
)

// Renderer writes reports as JSON and as a Markdown training document
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// RenderMarkdown writes the generated steps as a Markdown training document
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	b.WriteString("# Training Steps\n\n")
	if report.Source != "" {
		fmt.Fprintf(&b, "Source: `%s`  \n", report.Source)
	}
	fmt.Fprintf(&b, "Generated: %s  \n", report.ProcessedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Steps: %d (%d valid)  \n\n", report.Stats.GeneratedSteps, report.Stats.ValidSteps)

	for i, step := range report.Steps {
		fmt.Fprintf(&b, "## Step %d: %s\n\n", i+1, step.Title)

		if step.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", step.Summary)
		}
		if step.Details != "" {
			fmt.Fprintf(&b, "%s\n\n", step.Details)
		}

		if len(step.Actions) > 0 {
			b.WriteString("**Key actions:**\n\n")
			for _, action := range step.Actions {
				fmt.Fprintf(&b, "- %s\n", action)
			}
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "*Confidence: %s (%.0f%%)*\n\n", model.ConfidenceLabel(step.Confidence), step.Confidence*100)

		if i < len(report.StepSources) {
			renderSources(&b, report.StepSources[i])
		}
	}

	if failures := failedKnowledge(report.Knowledge); len(failures) > 0 {
		b.WriteString("## Unavailable references\n\n")
		for _, src := range failures {
			fmt.Fprintf(&b, "- %s (%s)\n", src.URL, src.Err)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "Generated by stepsmith from %d transcript sentences across %d segments.\n",
			report.Stats.TotalSentences, report.Stats.InitialSegments)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	return nil
}

// renderSources lists a step's supporting evidence as collapsed detail lines
func renderSources(b *strings.Builder, data model.StepSourceData) {
	if len(data.Sources) == 0 {
		b.WriteString("*No supporting sources found.*\n\n")
		return
	}

	b.WriteString("<details><summary>Sources</summary>\n\n")
	for _, src := range data.Sources {
		excerpt := src.Excerpt
		if len(excerpt) > 160 {
			excerpt = excerpt[:160] + "..."
		}
		fmt.Fprintf(b, "- [%s, %.0f%%] %s\n", src.Type, src.Confidence*100, excerpt)
	}
	b.WriteString("\n</details>\n\n")
}

func failedKnowledge(sources []model.KnowledgeSource) []model.KnowledgeSource {
	var failures []model.KnowledgeSource
	for _, src := range sources {
		if src.Err != "" {
			failures = append(failures, src)
		}
	}
	return failures
}

// RenderSummary prints a compact result summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Stepsmith Report")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Printf("  Source:        %s\n", report.Source)
	fmt.Printf("  Sentences:     %d\n", report.Stats.TotalSentences)
	fmt.Printf("  Segments:      %d initial, %d kept\n", report.Stats.InitialSegments, report.Stats.FilteredSegments)
	fmt.Printf("  Steps:         %d generated, %d valid\n", report.Stats.GeneratedSteps, report.Stats.ValidSteps)
	fmt.Printf("  Confidence:    %.2f avg (%s)\n", report.Stats.AvgConfidence, model.ConfidenceLabel(report.Stats.AvgConfidence))
	fmt.Printf("  Quality:       %.2f avg\n", report.Stats.AvgQuality)
	fmt.Println()

	for i, step := range report.Steps {
		marker := "✓"
		if i < len(report.Validation) && !report.Validation[i].IsValid {
			marker = "✗"
		}
		fmt.Printf("  %s Step %d: %s [%s]\n", marker, i+1, step.Title, model.ConfidenceIndicator(step.Confidence))
	}
	fmt.Println()
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}
