package validate

import (
	"strings"
	"testing"

	"github.com/ppiankov/stepsmith/internal/model"
)

func goodStep() model.Step {
	return model.Step{
		Title:   "Configure the deployment pipeline",
		Details: "Set up the build pipeline so artifacts publish to the registry automatically.",
		Actions: []string{
			"Open the pipeline settings page",
			"Enable the publish stage",
			"Save and run the pipeline",
		},
		Confidence: 0.8,
	}
}

func TestNewValidator_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinActions = 0
	if _, err := NewValidator(cfg); err == nil {
		t.Error("expected error for min actions below 1")
	}

	cfg = DefaultConfig()
	cfg.MaxActions = 2
	if _, err := NewValidator(cfg); err == nil {
		t.Error("expected error for max actions below min actions")
	}

	cfg = DefaultConfig()
	cfg.WeightActions = 0.8
	if _, err := NewValidator(cfg); err == nil {
		t.Error("expected error for weights summing to 1.4")
	}
}

func TestValidator_ValidateStep_GoodStep(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	result := v.ValidateStep(goodStep(), 0)
	if !result.IsValid {
		t.Errorf("good step should be valid, errors: %+v", result.Errors)
	}
	if result.QualityScore <= 0.5 {
		t.Errorf("good step quality = %.3f, expected above 0.5", result.QualityScore)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %+v", result.Errors)
	}
}

func TestValidator_ValidateStep_EmptyStep(t *testing.T) {
	// Empty title, empty details, one action, confidence 0.1: four distinct
	// errors and a quality score below 0.35.
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	step := model.Step{
		Actions:    []string{"Click somewhere"},
		Confidence: 0.1,
	}

	result := v.ValidateStep(step, 0)
	if result.IsValid {
		t.Error("empty step must be invalid")
	}

	wantErrors := []string{
		"missing_title",
		"missing_details",
		"insufficient_actions",
		"very_low_confidence",
	}
	for _, want := range wantErrors {
		found := false
		for _, issue := range result.Errors {
			if issue.IssueType == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing expected error %q", want)
		}
	}

	if result.QualityScore >= 0.35 {
		t.Errorf("quality score = %.3f, want < 0.35", result.QualityScore)
	}
	if !result.AutoFixAvailable {
		t.Error("expected auto-fix suggestions for invalid step")
	}
	if len(result.SuggestedFixes) == 0 {
		t.Error("expected suggested fixes")
	}
}

func TestValidator_ValidateStep_TooManyActions(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	step := goodStep()
	for i := 0; i < 16; i++ {
		step.Actions = append(step.Actions, "Repeat the verification once more with a different input value")
	}

	result := v.ValidateStep(step, 0)
	if !result.IsValid {
		t.Error("over-count is a warning, not an error")
	}

	found := false
	for _, issue := range result.Warnings {
		if issue.IssueType == "too_many_actions" {
			found = true
		}
	}
	if !found {
		t.Error("expected too_many_actions warning")
	}
}

func TestValidator_ValidateStep_EmptyActions(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	step := goodStep()
	step.Actions = append(step.Actions, "   ")

	result := v.ValidateStep(step, 0)
	if result.IsValid {
		t.Error("blank action should make the step invalid")
	}

	found := false
	for _, issue := range result.Errors {
		if issue.IssueType == "empty_actions" {
			found = true
		}
	}
	if !found {
		t.Error("expected empty_actions error")
	}
}

func TestValidator_ValidateStep_GenericTitle(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		title   string
		generic bool
	}{
		{"Step 3", true},
		{"Untitled step", true},
		{"TODO finish later", true},
		{"Instructions", true},
		{"Configure the webhook endpoint", false},
	}

	for _, tt := range tests {
		step := goodStep()
		step.Title = tt.title
		result := v.ValidateStep(step, 0)

		found := false
		for _, issue := range result.Info {
			if issue.IssueType == "generic_title" {
				found = true
			}
		}
		if found != tt.generic {
			t.Errorf("generic_title for %q = %v, want %v", tt.title, found, tt.generic)
		}
	}
}

func TestValidator_ValidateStep_DuplicateActions(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	step := goodStep()
	step.Actions = append(step.Actions, "  open the PIPELINE settings page ")

	result := v.ValidateStep(step, 0)
	if !result.HasDuplicates {
		t.Error("case-insensitive duplicate should be detected")
	}
	if !result.IsValid {
		t.Error("duplicates are a warning, not an error")
	}
}

func TestValidator_ValidateStep_WeakActionVerbs(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	step := goodStep()
	step.Actions = []string{
		"Ensure the firewall is enabled",
		"Make sure the backup job runs",
		"Open the pipeline settings page",
	}

	result := v.ValidateStep(step, 0)
	if !result.IsValid {
		t.Error("weak verbs are a warning, not an error")
	}

	var weak []model.ValidationIssue
	for _, issue := range result.Warnings {
		if issue.IssueType == "weak_action_verb" {
			weak = append(weak, issue)
		}
	}
	if len(weak) != 2 {
		t.Fatalf("expected 2 weak verb warnings, got %d: %+v", len(weak), weak)
	}
	if weak[0].Suggestion != "Verify" {
		t.Errorf("ensure suggestion = %q, want Verify", weak[0].Suggestion)
	}
	if weak[1].Suggestion != "Confirm" {
		t.Errorf("make sure suggestion = %q, want Confirm", weak[1].Suggestion)
	}
}

func TestValidator_ValidateStep_WeakVerbPhraseBeatsWord(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	step := goodStep()
	step.Actions = []string{
		"Keep in mind the quota limits",
		"Enable the publish stage",
		"Save and run the pipeline",
	}

	result := v.ValidateStep(step, 0)
	found := false
	for _, issue := range result.Warnings {
		if issue.IssueType == "weak_action_verb" && strings.Contains(issue.Message, `"keep in mind"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected keep in mind flagged as a phrase, warnings: %+v", result.Warnings)
	}
}

func TestValidator_ValidateStep_WeakVerbsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarnWeakActionVerbs = false
	v, err := NewValidator(cfg)
	if err != nil {
		t.Fatal(err)
	}

	step := goodStep()
	step.Actions[0] = "Ensure the firewall is enabled"

	result := v.ValidateStep(step, 0)
	for _, issue := range result.Warnings {
		if issue.IssueType == "weak_action_verb" {
			t.Errorf("weak verb check should be off, got %+v", issue)
		}
	}
}

func TestValidator_ValidateStep_LowConfidenceWarning(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	step := goodStep()
	step.Confidence = 0.3

	result := v.ValidateStep(step, 0)
	if !result.IsValid {
		t.Error("confidence 0.3 is a warning, not an error")
	}

	found := false
	for _, issue := range result.Warnings {
		if issue.IssueType == "low_confidence" {
			found = true
		}
	}
	if !found {
		t.Error("expected low_confidence warning")
	}
}

func TestValidator_QualityScore_Range(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	steps := []model.Step{
		goodStep(),
		{},
		{Title: "x", Details: "y", Actions: []string{"a"}, Confidence: 1.0},
	}

	for i, result := range v.ValidateSteps(steps) {
		if result.QualityScore < 0 || result.QualityScore > 1 {
			t.Errorf("step %d quality out of range: %v", i, result.QualityScore)
		}
	}
}

func TestBuildReport(t *testing.T) {
	v, err := NewValidator(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	results := v.ValidateSteps([]model.Step{
		goodStep(),
		{Actions: []string{"one"}, Confidence: 0.1},
	})

	report := BuildReport(results)
	if report.TotalSteps != 2 {
		t.Errorf("TotalSteps = %d, want 2", report.TotalSteps)
	}
	if report.ValidSteps != 1 || report.InvalidSteps != 1 {
		t.Errorf("valid/invalid = %d/%d, want 1/1", report.ValidSteps, report.InvalidSteps)
	}
	if report.ValidationRate != 0.5 {
		t.Errorf("ValidationRate = %v, want 0.5", report.ValidationRate)
	}
	if report.IssuesByType["missing_title"] != 1 {
		t.Errorf("missing_title count = %d, want 1", report.IssuesByType["missing_title"])
	}
	if report.ErrorCount == 0 {
		t.Error("expected error count > 0")
	}
	if report.MaxQualityScore < report.MinQualityScore {
		t.Error("max quality below min")
	}
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil)
	if report.TotalSteps != 0 || report.ValidSteps != 0 {
		t.Error("empty input should produce zero counts")
	}
}
