package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/stepsmith/internal/model"
)

// Generator defines the interface for step generation backends
type Generator interface {
	// Name returns the backend name
	Name() string

	// GenerateStep produces one training step from one topic segment
	GenerateStep(ctx context.Context, req GenerateRequest) (*model.Step, error)

	// IsAvailable checks if the backend is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for generating one step
type GenerateRequest struct {
	// SegmentText is the focused transcript chunk for this step
	SegmentText string

	// SegmentIndex is the 1-based position of this step
	SegmentIndex int

	// TotalSegments is the total number of steps being generated
	TotalSegments int

	// Tone adjusts the writing register ("professional", "casual", ...)
	Tone string

	// Audience adjusts specificity ("technical", "general", ...)
	Audience string

	// Knowledge holds fetched external sources to ground the step against
	Knowledge []model.KnowledgeSource

	// Model overrides the configured model for this request
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Config holds generator backend configuration
type Config struct {
	// Provider name: "openai", "azure", ""
	Provider string

	// Model name (deployment name for Azure)
	Model string

	// APIKey for the backend
	APIKey string

	// BaseURL for custom endpoints (Azure resource endpoint)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "gpt-4o-mini",
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}

const stepSystemPrompt = `You are a technical writer turning training session transcripts into step-by-step documentation. You ground every statement in the transcript chunk you are given and never invent UI elements, commands, or values that the chunk does not mention. You respond with a single JSON object and nothing else.`

// BuildStepPrompt constructs the prompt for generating one step from one
// segment. The chunk is already focused, so the prompt asks for exactly one
// step and constrains its shape.
func BuildStepPrompt(req GenerateRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create ONE training step from the transcript chunk below.\n\n")
	fmt.Fprintf(&b, "This is step %d of %d total steps.\n\n", req.SegmentIndex, req.TotalSegments)
	fmt.Fprintf(&b, "TARGET AUDIENCE: %s\nTONE: %s\n\n", req.Audience, req.Tone)

	b.WriteString(`RULES:
1. Quote the chunk directly. Use its exact phrases, button names, URLs, and terminology.
2. "title": action-oriented, 5-10 words, starts with a verb or gerund.
3. "summary": 1-2 sentences on what the reader will accomplish. Do not repeat the title.
4. "details": 2-4 short paragraphs, minimum 50 words, explaining the concept with the chunk's specifics.
5. "actions": 3-6 items, each starting with a strong verb (Configure, Create, Open, Click, Run, Set, Verify, Navigate, Enable, Select, Enter). Never use weak verbs (Learn, Understand, Review, Remember, Consider).

Respond with exactly this JSON shape:
{"title": "...", "summary": "...", "details": "...", "actions": ["...", "..."]}

`)

	fmt.Fprintf(&b, "CHUNK %d:\n%s\n", req.SegmentIndex, req.SegmentText)

	if ctxText := knowledgeContext(req.Knowledge); ctxText != "" {
		b.WriteString("\nREFERENCE MATERIAL (use only where it matches the chunk):\n")
		b.WriteString(ctxText)
	}

	return b.String()
}

// knowledgeContext renders up to three fetched sources as short excerpts.
// Failed fetches are skipped.
func knowledgeContext(sources []model.KnowledgeSource) string {
	var b strings.Builder
	count := 0

	for _, src := range sources {
		if src.Err != "" || src.Content == "" {
			continue
		}
		if count >= 3 {
			break
		}

		excerpt := src.Content
		if len(excerpt) > 500 {
			excerpt = excerpt[:500]
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", src.Title, src.URL, excerpt)
		count++
	}

	return b.String()
}

// DecodeStep parses loosely typed generator output into a model.Step.
// Defaulting happens here, once, so downstream stages never see nil actions
// or untrimmed fields. Code fences around the JSON are tolerated.
func DecodeStep(raw string) (*model.Step, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var loose struct {
		Title   string   `json:"title"`
		Summary string   `json:"summary"`
		Details string   `json:"details"`
		Actions []string `json:"actions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &loose); err != nil {
		return nil, fmt.Errorf("decode step JSON: %w", err)
	}

	step := &model.Step{
		Title:   strings.TrimSpace(loose.Title),
		Summary: strings.TrimSpace(loose.Summary),
		Details: strings.TrimSpace(loose.Details),
		Actions: make([]string, 0, len(loose.Actions)),
	}
	for _, action := range loose.Actions {
		if trimmed := strings.TrimSpace(action); trimmed != "" {
			step.Actions = append(step.Actions, trimmed)
		}
	}

	if step.Title == "" && step.Details == "" && len(step.Actions) == 0 {
		return nil, fmt.Errorf("generator returned an empty step")
	}

	return step, nil
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
