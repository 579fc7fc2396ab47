// Package validate checks generated steps for structural quality, orthogonal
// to grounding: action count, title and details adequacy, confidence, and
// duplicates. Problems become typed issues, never errors, so one bad step
// cannot abort a document.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/stepsmith/internal/model"
)

// Config controls validation thresholds and quality-score weights.
type Config struct {
	MinActions           int
	MaxActions           int
	WarnDuplicateActions bool
	WarnWeakActionVerbs  bool

	MinTitleLength          int
	MaxTitleLength          int
	RequireDescriptiveTitle bool

	MinDetailsLength int
	RequireDetails   bool

	MinConfidenceThreshold float64 // Below this: error
	LowConfidenceThreshold float64 // Below this: warning

	// Quality score weights, must sum to 1.0.
	WeightActions    float64
	WeightTitle      float64
	WeightDetails    float64
	WeightConfidence float64

	EnableAutoFixSuggestions bool
}

// DefaultConfig returns the default validation settings.
func DefaultConfig() Config {
	return Config{
		MinActions:               3,
		MaxActions:               15,
		WarnDuplicateActions:     true,
		WarnWeakActionVerbs:      true,
		MinTitleLength:           10,
		MaxTitleLength:           100,
		RequireDescriptiveTitle:  true,
		MinDetailsLength:         20,
		RequireDetails:           true,
		MinConfidenceThreshold:   0.2,
		LowConfidenceThreshold:   0.4,
		WeightActions:            0.4,
		WeightTitle:              0.2,
		WeightDetails:            0.2,
		WeightConfidence:         0.2,
		EnableAutoFixSuggestions: true,
	}
}

// Validate checks bounds and the weight sum.
func (c Config) Validate() error {
	if c.MinActions < 1 {
		return fmt.Errorf("min actions must be >= 1, got %d", c.MinActions)
	}
	if c.MaxActions < c.MinActions {
		return fmt.Errorf("max actions (%d) must be >= min actions (%d)", c.MaxActions, c.MinActions)
	}
	if c.MinConfidenceThreshold < 0.0 || c.MinConfidenceThreshold > 1.0 {
		return fmt.Errorf("min confidence threshold must be 0.0-1.0, got %.3f", c.MinConfidenceThreshold)
	}
	total := c.WeightActions + c.WeightTitle + c.WeightDetails + c.WeightConfidence
	if math.Abs(total-1.0) > 0.01 {
		return fmt.Errorf("validation weights must sum to 1.0, got %.3f", total)
	}
	return nil
}

// weakActionVerbs are leading verbs that describe intent rather than an
// executable action. An action opening with one reads as advice, not an
// instruction a trainee can perform and check off.
var weakActionVerbs = map[string]struct{}{
	"learn": {}, "understand": {}, "know": {}, "remember": {},
	"recall": {}, "recognize": {}, "comprehend": {}, "grasp": {},
	"appreciate": {}, "realize": {}, "familiarize": {},

	"review": {}, "read": {}, "study": {}, "examine": {},
	"consider": {}, "explore": {}, "look at": {}, "check out": {},
	"be aware": {}, "keep in mind": {}, "note": {}, "observe": {},
	"watch": {}, "see": {}, "view": {},

	"ensure": {}, "make sure": {}, "try": {}, "attempt": {},
	"work on": {}, "deal with": {}, "handle": {}, "manage": {},
	"take care of": {},
}

// weakVerbSuggestions offers a concrete replacement for common weak verbs.
var weakVerbSuggestions = map[string]string{
	"learn":        "Complete the tutorial, then configure",
	"understand":   "Review the documentation, then implement",
	"review":       "Analyze the configuration and update",
	"read":         "Open the file and identify",
	"ensure":       "Verify",
	"make sure":    "Confirm",
	"try":          "Execute",
	"attempt":      "Run",
	"check out":    "Examine",
	"look at":      "Open",
	"be aware":     "Note",
	"keep in mind": "Remember",
	"familiarize":  "Study the documentation, then configure",
}

// genericTitlePatterns match titles that say nothing about the step.
var genericTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^step \d+$`),
	regexp.MustCompile(`^untitled`),
	regexp.MustCompile(`^new step`),
	regexp.MustCompile(`^todo`),
	regexp.MustCompile(`^instructions?$`),
}

// Validator is the structural quality gate for generated steps.
type Validator struct {
	config Config
}

// NewValidator creates a validator, rejecting invalid configurations.
func NewValidator(config Config) (*Validator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid validation config: %w", err)
	}
	return &Validator{config: config}, nil
}

// ValidateStep runs all checks against one step. The step is valid iff no
// error-severity issues were found; warnings and info never block.
func (v *Validator) ValidateStep(step model.Step, stepIndex int) model.ValidationResult {
	result := model.ValidationResult{
		StepIndex:       stepIndex,
		ActionCount:     len(step.Actions),
		TitleLength:     len(step.Title),
		DetailsLength:   len(step.Details),
		ConfidenceScore: step.Confidence,
	}

	v.validateActions(step.Actions, &result)
	v.checkActionVerbs(step.Actions, &result)
	v.validateTitle(step.Title, &result)
	v.validateDetails(step.Details, &result)
	v.validateConfidence(step.Confidence, &result)
	v.checkDuplicates(step.Actions, &result)

	result.QualityScore = v.qualityScore(result)
	result.IsValid = len(result.Errors) == 0

	if v.config.EnableAutoFixSuggestions && !result.IsValid {
		v.suggestFixes(&result)
	}

	return result
}

// ValidateSteps validates a batch, one result per step.
func (v *Validator) ValidateSteps(steps []model.Step) []model.ValidationResult {
	results := make([]model.ValidationResult, 0, len(steps))
	for i, step := range steps {
		results = append(results, v.ValidateStep(step, i))
	}
	return results
}

func (v *Validator) validateActions(actions []string, result *model.ValidationResult) {
	count := len(actions)

	if count < v.config.MinActions {
		result.Errors = append(result.Errors, model.ValidationIssue{
			IssueType:  "insufficient_actions",
			Severity:   model.SeverityError,
			Message:    fmt.Sprintf("Step has %d actions, minimum is %d", count, v.config.MinActions),
			Field:      "actions",
			Suggestion: fmt.Sprintf("Add at least %d more action(s)", v.config.MinActions-count),
		})
	}

	if count > v.config.MaxActions {
		result.Warnings = append(result.Warnings, model.ValidationIssue{
			IssueType:  "too_many_actions",
			Severity:   model.SeverityWarning,
			Message:    fmt.Sprintf("Step has %d actions, which may be too many (max recommended: %d)", count, v.config.MaxActions),
			Field:      "actions",
			Suggestion: "Consider splitting this step into multiple steps",
		})
	}

	var empty []int
	for i, action := range actions {
		if strings.TrimSpace(action) == "" {
			empty = append(empty, i)
		}
	}
	if len(empty) > 0 {
		result.Errors = append(result.Errors, model.ValidationIssue{
			IssueType:  "empty_actions",
			Severity:   model.SeverityError,
			Message:    fmt.Sprintf("Step has %d empty action(s) at indices: %v", len(empty), empty),
			Field:      "actions",
			Suggestion: "Remove empty actions or add descriptive text",
		})
	}
}

func (v *Validator) checkActionVerbs(actions []string, result *model.ValidationResult) {
	if !v.config.WarnWeakActionVerbs {
		return
	}

	for i, action := range actions {
		verb, weak := leadingWeakVerb(action)
		if !weak {
			continue
		}

		suggestion, ok := weakVerbSuggestions[verb]
		if !ok {
			suggestion = fmt.Sprintf("Use a specific action verb instead of %q", verb)
		}
		result.Warnings = append(result.Warnings, model.ValidationIssue{
			IssueType:  "weak_action_verb",
			Severity:   model.SeverityWarning,
			Message:    fmt.Sprintf("Action %d starts with weak verb %q", i+1, verb),
			Field:      "actions",
			Suggestion: suggestion,
		})
	}
}

// leadingWeakVerb extracts the leading verb of an action, preferring the
// longest matching phrase so "make sure" wins over "make".
func leadingWeakVerb(action string) (string, bool) {
	words := strings.Fields(strings.ToLower(action))
	if len(words) == 0 {
		return "", false
	}
	for i := range words {
		words[i] = strings.Trim(words[i], `.,!?;:()[]{}"'`)
	}

	for n := 3; n >= 1; n-- {
		if len(words) < n {
			continue
		}
		phrase := strings.Join(words[:n], " ")
		if _, ok := weakActionVerbs[phrase]; ok {
			return phrase, true
		}
	}
	return words[0], false
}

func (v *Validator) validateTitle(title string, result *model.ValidationResult) {
	if strings.TrimSpace(title) == "" {
		result.Errors = append(result.Errors, model.ValidationIssue{
			IssueType:  "missing_title",
			Severity:   model.SeverityError,
			Message:    "Step has no title",
			Field:      "title",
			Suggestion: "Add a descriptive title for this step",
		})
		return
	}

	length := len(title)
	if length < v.config.MinTitleLength {
		result.Warnings = append(result.Warnings, model.ValidationIssue{
			IssueType:  "short_title",
			Severity:   model.SeverityWarning,
			Message:    fmt.Sprintf("Title is too short (%d chars, minimum %d)", length, v.config.MinTitleLength),
			Field:      "title",
			Suggestion: "Use a more descriptive title",
		})
	}
	if length > v.config.MaxTitleLength {
		result.Warnings = append(result.Warnings, model.ValidationIssue{
			IssueType:  "long_title",
			Severity:   model.SeverityWarning,
			Message:    fmt.Sprintf("Title is too long (%d chars, maximum %d)", length, v.config.MaxTitleLength),
			Field:      "title",
			Suggestion: "Shorten the title or move details to the details field",
		})
	}

	if v.config.RequireDescriptiveTitle && isGenericTitle(title) {
		result.Info = append(result.Info, model.ValidationIssue{
			IssueType:  "generic_title",
			Severity:   model.SeverityInfo,
			Message:    "Title may not be descriptive enough",
			Field:      "title",
			Suggestion: "Use specific action words (e.g., 'Configure', 'Create', 'Navigate')",
		})
	}
}

func (v *Validator) validateDetails(details string, result *model.ValidationResult) {
	if v.config.RequireDetails && strings.TrimSpace(details) == "" {
		result.Errors = append(result.Errors, model.ValidationIssue{
			IssueType:  "missing_details",
			Severity:   model.SeverityError,
			Message:    "Step has no details",
			Field:      "details",
			Suggestion: "Add context or additional information about this step",
		})
		return
	}

	if len(details) < v.config.MinDetailsLength {
		result.Warnings = append(result.Warnings, model.ValidationIssue{
			IssueType:  "insufficient_details",
			Severity:   model.SeverityWarning,
			Message:    fmt.Sprintf("Details are too short (%d chars, minimum %d)", len(details), v.config.MinDetailsLength),
			Field:      "details",
			Suggestion: "Add more context or explanation about this step",
		})
	}
}

func (v *Validator) validateConfidence(confidence float64, result *model.ValidationResult) {
	if confidence < v.config.MinConfidenceThreshold {
		result.Errors = append(result.Errors, model.ValidationIssue{
			IssueType:  "very_low_confidence",
			Severity:   model.SeverityError,
			Message:    fmt.Sprintf("Step has very low confidence (%.2f < %.2f)", confidence, v.config.MinConfidenceThreshold),
			Field:      "confidence_score",
			Suggestion: "Review step quality - may need more source information",
		})
	} else if confidence < v.config.LowConfidenceThreshold {
		result.Warnings = append(result.Warnings, model.ValidationIssue{
			IssueType:  "low_confidence",
			Severity:   model.SeverityWarning,
			Message:    fmt.Sprintf("Step has low confidence (%.2f < %.2f)", confidence, v.config.LowConfidenceThreshold),
			Field:      "confidence_score",
			Suggestion: "Consider adding more context from source material",
		})
	}
}

func (v *Validator) checkDuplicates(actions []string, result *model.ValidationResult) {
	if !v.config.WarnDuplicateActions {
		return
	}

	seen := make(map[string]struct{}, len(actions))
	var duplicates []int
	for i, action := range actions {
		normalized := strings.ToLower(strings.TrimSpace(action))
		if _, ok := seen[normalized]; ok {
			duplicates = append(duplicates, i)
		} else {
			seen[normalized] = struct{}{}
		}
	}

	if len(duplicates) > 0 {
		result.HasDuplicates = true
		result.Warnings = append(result.Warnings, model.ValidationIssue{
			IssueType:  "duplicate_actions",
			Severity:   model.SeverityWarning,
			Message:    fmt.Sprintf("Step has %d duplicate action(s) at indices: %v", len(duplicates), duplicates),
			Field:      "actions",
			Suggestion: "Remove or rephrase duplicate actions",
		})
	}
}

func isGenericTitle(title string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	for _, pattern := range genericTitlePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// qualityScore blends action-count, title-length, details-length, and
// confidence adequacy into one score. Each component scores full credit at
// its minimum and keeps growing to a saturation point past it.
func (v *Validator) qualityScore(result model.ValidationResult) float64 {
	var actionScore float64
	if result.ActionCount >= v.config.MinActions {
		actionScore = math.Min(1.0, float64(result.ActionCount)/float64(v.config.MinActions*2))
	} else {
		actionScore = float64(result.ActionCount) / float64(v.config.MinActions)
	}

	var titleScore float64
	if result.TitleLength >= v.config.MinTitleLength {
		titleScore = math.Min(1.0, float64(result.TitleLength)/float64(v.config.MaxTitleLength))
	} else {
		titleScore = float64(result.TitleLength) / float64(v.config.MinTitleLength)
	}

	var detailsScore float64
	switch {
	case result.DetailsLength >= v.config.MinDetailsLength:
		detailsScore = math.Min(1.0, float64(result.DetailsLength)/float64(v.config.MinDetailsLength*3))
	case v.config.RequireDetails:
		detailsScore = float64(result.DetailsLength) / float64(v.config.MinDetailsLength)
	default:
		detailsScore = 1.0
	}

	score := actionScore*v.config.WeightActions +
		titleScore*v.config.WeightTitle +
		detailsScore*v.config.WeightDetails +
		result.ConfidenceScore*v.config.WeightConfidence

	return math.Min(1.0, math.Max(0.0, score))
}

func (v *Validator) suggestFixes(result *model.ValidationResult) {
	var suggestions []string

	for _, issue := range result.Errors {
		switch issue.IssueType {
		case "insufficient_actions":
			needed := v.config.MinActions - result.ActionCount
			suggestions = append(suggestions, fmt.Sprintf("Add %d more action(s) to meet minimum requirement", needed))
		case "missing_title":
			suggestions = append(suggestions, "Generate title from step actions or context")
		case "missing_details":
			suggestions = append(suggestions, "Generate details from source transcript or knowledge")
		}
	}
	if result.HasDuplicates {
		suggestions = append(suggestions, "Remove duplicate actions automatically")
	}

	if len(suggestions) > 0 {
		result.AutoFixAvailable = true
		result.SuggestedFixes = suggestions
	}
}
