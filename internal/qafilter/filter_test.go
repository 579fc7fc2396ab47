package qafilter

import (
	"math"
	"testing"

	"github.com/ppiankov/stepsmith/internal/model"
)

func makeSegment(index int, texts []string, questions []bool) model.TopicSegment {
	sentences := make([]model.ParsedSentence, len(texts))
	for i, text := range texts {
		sentences[i] = model.ParsedSentence{
			Text:          text,
			SentenceIndex: i,
			IsQuestion:    questions[i],
		}
	}
	return model.NewTopicSegment(index, sentences)
}

func TestFilter_IdentifyQASections_DensityScenario(t *testing.T) {
	// 2 of 3 sentences are questions: density 0.667, above the 0.30 default.
	seg := makeSegment(0,
		[]string{
			"What is a resource group?",
			"It's a logical container.",
			"How do I create one?",
		},
		[]bool{true, false, true},
	)

	f, err := NewFilter(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	sections := f.IdentifyQASections([]model.TopicSegment{seg})
	if len(sections) != 1 {
		t.Fatalf("expected 1 Q&A section, got %d", len(sections))
	}
	if math.Abs(sections[0].QADensity-0.667) > 0.001 {
		t.Errorf("QADensity = %.3f, want 0.667", sections[0].QADensity)
	}
	if !sections[0].IsQADense {
		t.Error("expected IsQADense")
	}
	if sections[0].QuestionCount != 2 {
		t.Errorf("QuestionCount = %d, want 2", sections[0].QuestionCount)
	}
}

func TestFilter_IdentifyQASections_MinQuestionsGate(t *testing.T) {
	// Density 0.5 but only a single question: below min_questions.
	seg := makeSegment(0,
		[]string{"Any questions so far?", "Good, moving on then."},
		[]bool{true, false},
	)

	f, err := NewFilter(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if sections := f.IdentifyQASections([]model.TopicSegment{seg}); len(sections) != 0 {
		t.Errorf("single question should not flag Q&A, got %d sections", len(sections))
	}
}

func TestFilter_FilterSegments_RemovesOnlyDense(t *testing.T) {
	procedural := makeSegment(0,
		[]string{
			"Open the settings panel from the sidebar.",
			"Select the integrations tab at the top.",
			"Enable the webhook toggle and save.",
		},
		[]bool{false, false, false},
	)
	qa := makeSegment(1,
		[]string{
			"What does the webhook do?",
			"It posts events to your endpoint.",
			"Can we filter the events?",
		},
		[]bool{true, false, true},
	)

	f, err := NewFilter(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	filtered := f.FilterSegments([]model.TopicSegment{procedural, qa})
	if len(filtered) != 1 {
		t.Fatalf("expected 1 surviving segment, got %d", len(filtered))
	}
	if filtered[0].SegmentIndex != 0 {
		t.Errorf("wrong segment survived: %d", filtered[0].SegmentIndex)
	}
}

func TestFilter_FilterSegments_NeverRemovesBelowDensity(t *testing.T) {
	// Two questions but density 0.25, below the 0.30 threshold.
	seg := makeSegment(0,
		[]string{
			"Open the console first.",
			"What port does it use?",
			"It listens on 8080 by default.",
			"Does it need TLS?",
			"Not for local development setups.",
			"Restart the console after changes.",
			"The logs confirm the new port.",
			"Check the health endpoint too.",
		},
		[]bool{false, true, false, true, false, false, false, false},
	)

	f, err := NewFilter(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	filtered := f.FilterSegments([]model.TopicSegment{seg})
	if len(filtered) != 1 {
		t.Error("segment below density threshold must never be removed")
	}
}

func TestFilter_FilterSegments_Disabled(t *testing.T) {
	qa := makeSegment(0,
		[]string{"What is this?", "Why is that?", "How come?"},
		[]bool{true, true, true},
	)

	cfg := DefaultConfig()
	cfg.FilterQASections = false
	f, err := NewFilter(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if filtered := f.FilterSegments([]model.TopicSegment{qa}); len(filtered) != 1 {
		t.Error("disabled filter must return all segments")
	}
}

func TestFilter_FilterSegments_KeepInstructorOnly(t *testing.T) {
	instructorSentences := []model.ParsedSentence{
		{Text: "Deploy the service with the release script.", Speaker: "Alice", SpeakerRole: model.RoleInstructor},
		{Text: "The script tags the image automatically.", Speaker: "Alice", SpeakerRole: model.RoleInstructor},
	}
	participantSentences := []model.ParsedSentence{
		{Text: "I tried a different approach on my machine.", Speaker: "Bob", SpeakerRole: model.RoleParticipant},
		{Text: "It mostly worked but needed tweaks.", Speaker: "Bob", SpeakerRole: model.RoleParticipant},
	}

	segments := []model.TopicSegment{
		model.NewTopicSegment(0, instructorSentences),
		model.NewTopicSegment(1, participantSentences),
	}

	cfg := DefaultConfig()
	cfg.KeepInstructorOnly = true
	f, err := NewFilter(cfg)
	if err != nil {
		t.Fatal(err)
	}

	filtered := f.FilterSegments(segments)
	if len(filtered) != 1 {
		t.Fatalf("expected 1 surviving segment, got %d", len(filtered))
	}
	if filtered[0].PrimarySpeaker != "Alice" {
		t.Errorf("instructor segment should survive, got %q", filtered[0].PrimarySpeaker)
	}
}

func TestFilter_KeepInstructorOnly_RoleHeuristic(t *testing.T) {
	// No explicit roles: the primary speaker asks 0 of 4 sentences as
	// questions, under the 20% heuristic cutoff.
	sentences := []model.ParsedSentence{
		{Text: "Start the migration from the admin page.", Speaker: "Carol"},
		{Text: "The progress bar tracks each table.", Speaker: "Carol"},
		{Text: "Errors appear in the activity log.", Speaker: "Carol"},
		{Text: "Retry failed tables individually afterwards.", Speaker: "Carol"},
	}

	cfg := DefaultConfig()
	cfg.KeepInstructorOnly = true
	f, err := NewFilter(cfg)
	if err != nil {
		t.Fatal(err)
	}

	filtered := f.FilterSegments([]model.TopicSegment{model.NewTopicSegment(0, sentences)})
	if len(filtered) != 1 {
		t.Error("low question-rate primary speaker should pass the heuristic")
	}
}

func TestFilter_Statistics(t *testing.T) {
	procedural := makeSegment(0,
		[]string{"Open the panel now.", "Save the configuration changes."},
		[]bool{false, false},
	)
	qa := makeSegment(1,
		[]string{"What changed here?", "Why did it change?"},
		[]bool{true, true},
	)

	f, err := NewFilter(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	stats := f.Statistics([]model.TopicSegment{procedural, qa})
	if stats.TotalSegments != 2 {
		t.Errorf("TotalSegments = %d, want 2", stats.TotalSegments)
	}
	if stats.QASegments != 1 {
		t.Errorf("QASegments = %d, want 1", stats.QASegments)
	}
	if stats.FilteredSegments != 1 {
		t.Errorf("FilteredSegments = %d, want 1", stats.FilteredSegments)
	}
	if stats.RemovedSegments != 1 {
		t.Errorf("RemovedSegments = %d, want 1", stats.RemovedSegments)
	}
	if stats.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", stats.TotalQuestions)
	}
	if math.Abs(stats.OverallQADensity-0.5) > 0.001 {
		t.Errorf("OverallQADensity = %.3f, want 0.5", stats.OverallQADensity)
	}
	if math.Abs(stats.FilterRate-0.5) > 0.001 {
		t.Errorf("FilterRate = %.3f, want 0.5", stats.FilterRate)
	}
}

func TestNewFilter_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinQADensity = 1.5
	if _, err := NewFilter(cfg); err == nil {
		t.Error("expected error for density above 1.0")
	}

	cfg = DefaultConfig()
	cfg.MinQuestions = -1
	if _, err := NewFilter(cfg); err == nil {
		t.Error("expected error for negative min questions")
	}
}
