package segment

import (
	"strings"
	"testing"

	"github.com/ppiankov/stepsmith/internal/model"
	"github.com/ppiankov/stepsmith/internal/parse"
)

func TestConfig_Validate_WeightSum(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	cfg.WeightTimestampGap = 0.50
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for weights summing to 1.15")
	}

	// Within tolerance.
	cfg = DefaultConfig()
	cfg.WeightTimestampGap = 0.355
	if err := cfg.Validate(); err != nil {
		t.Errorf("0.005 deviation should be tolerated: %v", err)
	}
}

func TestConfig_Validate_Threshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoundaryScoreThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for threshold above 1.0")
	}

	cfg = DefaultConfig()
	cfg.TimestampGapThreshold = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero gap threshold")
	}
}

func TestNewSegmenter_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WeightSpeakerTransition = 0.9

	if _, err := NewSegmenter(cfg); err == nil {
		t.Error("expected construction error for invalid weights")
	}
}

func TestSegmenter_Segment_LongPauseCreatesBoundary(t *testing.T) {
	// Three sentences about one topic, a 95s gap, three about another.
	transcript := strings.Join([]string{
		"[00:00:10] Alice: Open the portal from the home page.",
		"[00:00:20] Alice: The portal dashboard shows your subscriptions.",
		"[00:00:30] Alice: Portal navigation lives on the left side.",
		"[00:02:05] Alice: Create a resource group for the project.",
		"[00:02:15] Alice: The resource group holds related resources together.",
		"[00:02:25] Alice: Name the resource group after the team.",
	}, "\n")

	sentences, _ := parse.NewParser().Parse(transcript)
	if len(sentences) != 6 {
		t.Fatalf("expected 6 sentences, got %d", len(sentences))
	}

	cfg := DefaultConfig()
	cfg.MinTotalSegments = 2 // Avoid the fallback splitter masking the boundary
	seg, err := NewSegmenter(cfg)
	if err != nil {
		t.Fatal(err)
	}

	segments := seg.Segment(sentences)
	if len(segments) != 2 {
		t.Fatalf("expected exactly 2 segments, got %d", len(segments))
	}
	if len(segments[0].Sentences) != 3 || len(segments[1].Sentences) != 3 {
		t.Errorf("expected 3+3 split, got %d+%d",
			len(segments[0].Sentences), len(segments[1].Sentences))
	}
	if !segments[1].Sentences[0].FollowsLongPause {
		t.Error("second segment's first sentence should follow a long pause")
	}
}

func TestSegmenter_Segment_PartitionInvariants(t *testing.T) {
	transcript := strings.Join([]string{
		"[00:00:05] Alice: Welcome to the deployment walkthrough today.",
		"[00:00:15] Alice: We cover three main areas this session.",
		"[00:02:10] Alice: First, let's configure the build pipeline.",
		"[00:02:20] Alice: The pipeline definition lives in the repository.",
		"[00:04:30] Bob: How does the rollback process work here",
		"[00:04:40] Alice: Rollback reverts to the previous release automatically.",
		"[00:06:50] Alice: Now let's look at the monitoring dashboards.",
		"[00:07:00] Alice: Dashboards aggregate metrics from every service.",
	}, "\n")

	sentences, _ := parse.NewParser().Parse(transcript)
	seg, err := NewSegmenter(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	segments := seg.Segment(sentences)
	if len(segments) == 0 {
		t.Fatal("expected segments")
	}

	// Contiguous indices and full non-overlapping coverage.
	next := 0
	for i, s := range segments {
		if s.SegmentIndex != i {
			t.Errorf("SegmentIndex = %d, want %d", s.SegmentIndex, i)
		}
		for _, sent := range s.Sentences {
			if sent.SentenceIndex != next {
				t.Fatalf("sentence %d out of order in segment %d (want %d)",
					sent.SentenceIndex, i, next)
			}
			next++
		}
	}
	if next != len(sentences) {
		t.Errorf("covered %d sentences, want %d", next, len(sentences))
	}

	for _, s := range segments {
		if s.CoherenceScore < 0 || s.CoherenceScore > 1 {
			t.Errorf("coherence out of range: %v", s.CoherenceScore)
		}
	}
}

func TestSegmenter_Segment_MinimumSegmentCount(t *testing.T) {
	// Uniform topic with no boundary cues: only the fallback splitter can
	// reach the minimum.
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, "Alice: The service restarts cleanly after configuration changes apply.")
	}
	sentences, _ := parse.NewParser().Parse(strings.Join(lines, "\n"))

	seg, err := NewSegmenter(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	segments := seg.Segment(sentences)
	if len(segments) < 3 {
		t.Fatalf("expected at least 3 segments, got %d", len(segments))
	}

	marked := 0
	for _, s := range segments {
		if s.FallbackSplit {
			marked++
		}
	}
	if marked == 0 {
		t.Error("expected fallback-split segments to be marked")
	}
}

func TestSegmenter_Segment_MergesSmallSegments(t *testing.T) {
	// A transition phrase right after one sentence creates a 1-sentence
	// segment that should merge back, except the introduction.
	transcript := strings.Join([]string{
		"Alice: Welcome everyone to the session.",
		"Alice: Now let's configure the database settings properly.",
		"Alice: The connection string goes in the environment file.",
		"Alice: Credentials come from the secret manager instead.",
	}, "\n")

	sentences, _ := parse.NewParser().Parse(transcript)

	cfg := DefaultConfig()
	cfg.MinTotalSegments = 1
	seg, err := NewSegmenter(cfg)
	if err != nil {
		t.Fatal(err)
	}

	segments := seg.Segment(sentences)
	for i, s := range segments {
		if i == 0 {
			continue
		}
		if len(s.Sentences) < cfg.MinSegmentSentences {
			t.Errorf("segment %d has %d sentences, below minimum %d",
				i, len(s.Sentences), cfg.MinSegmentSentences)
		}
	}
}

func TestSegmenter_Segment_EmptyInput(t *testing.T) {
	seg, err := NewSegmenter(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := seg.Segment(nil); got != nil {
		t.Errorf("expected nil for empty input, got %d segments", len(got))
	}
}

func TestEnsureMinimum_SplitsLargestAndReindexes(t *testing.T) {
	sentences := makeSentences(10)
	segments := []model.TopicSegment{
		model.NewTopicSegment(0, sentences[:2]),
		model.NewTopicSegment(1, sentences[2:]),
	}

	result := EnsureMinimum(segments, 3, 2)
	if len(result) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(result))
	}

	for i, s := range result {
		if s.SegmentIndex != i {
			t.Errorf("SegmentIndex = %d, want %d", s.SegmentIndex, i)
		}
	}

	if result[0].FallbackSplit {
		t.Error("untouched segment should not be marked as fallback split")
	}
	if !result[1].FallbackSplit || !result[2].FallbackSplit {
		t.Error("split parts should be marked as fallback splits")
	}

	// Coverage preserved.
	total := 0
	for _, s := range result {
		total += len(s.Sentences)
	}
	if total != len(sentences) {
		t.Errorf("split lost sentences: %d != %d", total, len(sentences))
	}

	// Input untouched.
	if len(segments) != 2 || segments[1].FallbackSplit {
		t.Error("input slice was mutated")
	}
}

func TestEnsureMinimum_NoopWhenSatisfied(t *testing.T) {
	sentences := makeSentences(6)
	segments := []model.TopicSegment{
		model.NewTopicSegment(0, sentences[:2]),
		model.NewTopicSegment(1, sentences[2:4]),
		model.NewTopicSegment(2, sentences[4:]),
	}

	result := EnsureMinimum(segments, 3, 2)
	if len(result) != 3 {
		t.Errorf("expected unchanged 3 segments, got %d", len(result))
	}
}

func TestSegmenter_Coherence_SingleSentence(t *testing.T) {
	sentences, _ := parse.NewParser().Parse("Alice: Configure the deployment target first.")
	seg := model.NewTopicSegment(0, sentences)
	if got := coherence(seg); got != 1.0 {
		t.Errorf("single-sentence coherence = %v, want 1.0", got)
	}
}

func makeSentences(n int) []model.ParsedSentence {
	sentences := make([]model.ParsedSentence, n)
	for i := range sentences {
		sentences[i] = model.ParsedSentence{
			Text:          "The deployment pipeline publishes artifacts to the registry.",
			SentenceIndex: i,
			Speaker:       "Alice",
		}
	}
	return sentences
}
