package model

// Step is a candidate training step produced by the step generator.
// Generator output is loosely typed JSON; defaulting happens once at the
// ingestion boundary so scoring logic never deals with missing fields.
type Step struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary,omitempty"`
	Details    string   `json:"details,omitempty"`
	Actions    []string `json:"actions"`
	Confidence float64  `json:"confidence_score"` // Filled in after grounding
}

// SourceType classifies a piece of evidence backing a step
type SourceType string

const (
	SourceTranscript SourceType = "transcript" // Matched transcript sentence
	SourceKnowledge  SourceType = "knowledge"  // Fetched external excerpt
	SourceVisual     SourceType = "visual"     // Screenshot UI-element match
)

// SourceReference is one piece of evidence supporting a generated step.
type SourceReference struct {
	Type          SourceType `json:"type"`
	Excerpt       string     `json:"excerpt"`
	SentenceIndex int        `json:"sentence_index,omitempty"`
	HasSentence   bool       `json:"has_sentence,omitempty"`
	ScreenshotRef string     `json:"screenshot_ref,omitempty"`
	UIElements    []string   `json:"ui_elements,omitempty"`
	Confidence    float64    `json:"confidence"` // 0-1
}

// StepSourceData aggregates the grounding result for one generated step.
type StepSourceData struct {
	StepIndex            int               `json:"step_index"`
	StepContent          string            `json:"step_content"`
	Sources              []SourceReference `json:"sources"`
	OverallConfidence    float64           `json:"overall_confidence"` // 0-1
	HasTranscriptSupport bool              `json:"has_transcript_support"`
	HasVisualSupport     bool              `json:"has_visual_support"`
	ValidationFlags      []string          `json:"validation_flags,omitempty"`
}

// KnowledgeSource is a pre-fetched external excerpt used as extra evidence.
// A failed fetch keeps its record with Err set so callers can report it.
type KnowledgeSource struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"` // "html", "text"
	Err     string `json:"error,omitempty"`
}

// Screenshot holds UI analysis for one captured frame.
type Screenshot struct {
	Filename   string      `json:"filename"`
	Content    string      `json:"content,omitempty"`
	UIElements []UIElement `json:"ui_elements,omitempty"`
}

// UIElement is one detected control in a screenshot.
type UIElement struct {
	Text string `json:"text"`
	Type string `json:"type"` // "button", "menu", "field", ...
}

// IssueSeverity indicates how serious a validation issue is
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
	SeverityInfo    IssueSeverity = "info"
)

// ValidationIssue is one structural problem found in a step. Issues are data,
// not errors: a bad step never aborts processing of the remainder.
type ValidationIssue struct {
	IssueType  string        `json:"issue_type"` // "insufficient_actions", "missing_title", ...
	Severity   IssueSeverity `json:"severity"`
	Message    string        `json:"message"`
	Field      string        `json:"field,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// ValidationResult is the structural quality outcome for one step.
type ValidationResult struct {
	StepIndex    int     `json:"step_index"`
	IsValid      bool    `json:"is_valid"` // True iff no errors
	QualityScore float64 `json:"quality_score"`

	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
	Info     []ValidationIssue `json:"info,omitempty"`

	ActionCount     int     `json:"action_count"`
	TitleLength     int     `json:"title_length"`
	DetailsLength   int     `json:"details_length"`
	ConfidenceScore float64 `json:"confidence_score"`
	HasDuplicates   bool    `json:"has_duplicates"`

	AutoFixAvailable bool     `json:"auto_fix_available"`
	SuggestedFixes   []string `json:"suggested_fixes,omitempty"`
}
