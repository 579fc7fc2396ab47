package model

import (
	"fmt"
	"strings"
)

// TopicSegment is a contiguous run of sentences treated as one topic.
// Segments never overlap and together cover the sentence sequence exactly.
type TopicSegment struct {
	SegmentIndex int              `json:"segment_index"`
	Sentences    []ParsedSentence `json:"sentences"`

	StartTimestamp  float64 `json:"start_timestamp,omitempty"`
	EndTimestamp    float64 `json:"end_timestamp,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	HasTimestamps   bool    `json:"has_timestamps"`

	PrimarySpeaker string         `json:"primary_speaker,omitempty"`
	SpeakerCounts  map[string]int `json:"speaker_counts,omitempty"`

	HasTransitionStart bool `json:"has_transition_start"` // First sentence is a transition
	HasQASection       bool `json:"has_qa_section"`       // Contains a participant question
	QuestionCount      int  `json:"question_count"`

	CoherenceScore float64 `json:"coherence_score"` // Mean pairwise keyword similarity, 0-1
	FallbackSplit  bool    `json:"fallback_split"`  // Created by the minimum-count splitter, not a natural boundary
}

// NewTopicSegment builds a segment and derives its metadata from the sentences.
func NewTopicSegment(index int, sentences []ParsedSentence) TopicSegment {
	seg := TopicSegment{
		SegmentIndex: index,
		Sentences:    sentences,
	}
	seg.refreshDerived()
	return seg
}

// refreshDerived recomputes metadata that depends on the sentence list.
func (s *TopicSegment) refreshDerived() {
	if len(s.Sentences) == 0 {
		return
	}

	first := true
	for _, sent := range s.Sentences {
		if !sent.HasTimestamp {
			continue
		}
		if first {
			s.StartTimestamp = sent.Timestamp
			s.EndTimestamp = sent.Timestamp
			first = false
			continue
		}
		if sent.Timestamp < s.StartTimestamp {
			s.StartTimestamp = sent.Timestamp
		}
		if sent.Timestamp > s.EndTimestamp {
			s.EndTimestamp = sent.Timestamp
		}
	}
	s.HasTimestamps = !first
	if s.HasTimestamps {
		s.DurationSeconds = s.EndTimestamp - s.StartTimestamp
	}

	s.SpeakerCounts = make(map[string]int)
	for _, sent := range s.Sentences {
		if sent.Speaker != "" {
			s.SpeakerCounts[sent.Speaker]++
		}
	}
	best := 0
	for name, count := range s.SpeakerCounts {
		if count > best || (count == best && name < s.PrimarySpeaker) {
			s.PrimarySpeaker = name
			best = count
		}
	}

	s.HasTransitionStart = s.Sentences[0].IsTransition
	s.QuestionCount = 0
	s.HasQASection = false
	for _, sent := range s.Sentences {
		if sent.IsQuestion {
			s.QuestionCount++
			if sent.SpeakerRole == RoleParticipant {
				s.HasQASection = true
			}
		}
	}
}

// GetText returns the concatenated text of all sentences in the segment.
func (s TopicSegment) GetText() string {
	parts := make([]string, 0, len(s.Sentences))
	for _, sent := range s.Sentences {
		parts = append(parts, sent.Text)
	}
	return strings.Join(parts, " ")
}

// String renders a compact debug form.
func (s TopicSegment) String() string {
	parts := []string{
		fmt.Sprintf("Segment %d", s.SegmentIndex),
		fmt.Sprintf("%d sentences", len(s.Sentences)),
	}
	if s.HasTimestamps {
		mins := int(s.StartTimestamp) / 60
		secs := int(s.StartTimestamp) % 60
		parts = append(parts, fmt.Sprintf("starts %02d:%02d", mins, secs))
		if s.DurationSeconds > 0 {
			parts = append(parts, fmt.Sprintf("duration %.0fs", s.DurationSeconds))
		}
	}
	if s.PrimarySpeaker != "" {
		parts = append(parts, "speaker: "+s.PrimarySpeaker)
	}
	return strings.Join(parts, " | ")
}

// QASection describes a segment flagged as Q&A-dominant. Derived transiently
// during filtering; not persisted beyond that pass.
type QASection struct {
	SegmentIndex       int      `json:"segment_index"`
	StartSentenceIndex int      `json:"start_sentence_index"`
	EndSentenceIndex   int      `json:"end_sentence_index"`
	QuestionCount      int      `json:"question_count"`
	TotalSentences     int      `json:"total_sentences"`
	QADensity          float64  `json:"qa_density"` // Fraction of sentences that are questions
	IsQADense          bool     `json:"is_qa_dense"`
	PrimarySpeaker     string   `json:"primary_speaker,omitempty"`
	Speakers           []string `json:"speakers,omitempty"`
}

// TopicScore is the importance breakdown for one segment.
type TopicScore struct {
	SegmentIndex    int     `json:"segment_index"`
	ImportanceScore float64 `json:"importance_score"` // Combined score, 0-1
	ProceduralScore float64 `json:"procedural_score"` // How instructional the language is
	ActionDensity   float64 `json:"action_density"`   // Action verbs per sentence, normalized
	CoherenceScore  float64 `json:"coherence_score"`  // From the segmenter

	WeightedProcedural    float64 `json:"weighted_procedural"`
	WeightedActionDensity float64 `json:"weighted_action_density"`
	WeightedCoherence     float64 `json:"weighted_coherence"`
}
