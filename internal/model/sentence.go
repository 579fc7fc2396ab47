package model

import "fmt"

// SpeakerRole classifies who authored a sentence
type SpeakerRole string

const (
	RoleUnknown     SpeakerRole = ""            // No speaker label or role not yet assigned
	RoleInstructor  SpeakerRole = "instructor"  // The transcript's primary speaker
	RoleParticipant SpeakerRole = "participant" // Any other speaker
)

// ParsedSentence is one sentence extracted from the transcript with provenance
// and classification metadata. Sentences are created once by the parser and
// treated as immutable downstream; the speaker role is assigned in a late pass
// once the primary speaker is known.
type ParsedSentence struct {
	Text          string  `json:"text"`                // Cleaned sentence text
	RawText       string  `json:"raw_text"`            // Original line (with timestamp/speaker prefixes)
	SentenceIndex int     `json:"sentence_index"`      // 0-based index in transcript
	Timestamp     float64 `json:"timestamp,omitempty"` // Seconds from start
	HasTimestamp  bool    `json:"has_timestamp"`

	Speaker     string      `json:"speaker,omitempty"`      // e.g. "Speaker 1", "John"
	SpeakerRole SpeakerRole `json:"speaker_role,omitempty"` // instructor or participant

	IsQuestion   bool `json:"is_question"`   // Ends with "?" or starts with a question word
	IsTransition bool `json:"is_transition"` // Contains a transition phrase
	HasEmphasis  bool `json:"has_emphasis"`  // ALL CAPS run or markdown emphasis markers

	FollowsLongPause bool `json:"follows_long_pause"` // >90s gap since previous timestamped sentence
	SpeakerChanged   bool `json:"speaker_changed"`    // Different speaker than previous sentence
}

// String renders a compact debug form.
func (s ParsedSentence) String() string {
	out := fmt.Sprintf("[%d]", s.SentenceIndex)
	if s.HasTimestamp {
		mins := int(s.Timestamp) / 60
		secs := int(s.Timestamp) % 60
		out += fmt.Sprintf(" %02d:%02d", mins, secs)
	}
	if s.Speaker != "" {
		out += " " + s.Speaker
	}
	text := s.Text
	if len(text) > 50 {
		text = text[:50] + "..."
	}
	return out + " " + text
}

// TranscriptMetadata summarizes the whole transcript after parsing.
type TranscriptMetadata struct {
	TotalSentences int      `json:"total_sentences"`
	TotalSpeakers  int      `json:"total_speakers"`
	SpeakerNames   []string `json:"speaker_names,omitempty"`

	DurationSeconds float64 `json:"duration_seconds,omitempty"` // Max timestamp seen
	HasTimestamps   bool    `json:"has_timestamps"`

	PrimarySpeaker      string  `json:"primary_speaker,omitempty"` // Most frequent speaker (likely instructor)
	PrimarySpeakerRatio float64 `json:"primary_speaker_ratio"`     // Fraction of sentences from primary speaker

	HasQASections   bool `json:"has_qa_sections"` // Any participant-authored question
	QuestionCount   int  `json:"question_count"`
	TransitionCount int  `json:"transition_count"`
}

// String renders a compact summary for logging.
func (m TranscriptMetadata) String() string {
	out := fmt.Sprintf("%d sentences, %d speakers", m.TotalSentences, m.TotalSpeakers)
	if m.DurationSeconds > 0 {
		mins := int(m.DurationSeconds) / 60
		secs := int(m.DurationSeconds) % 60
		out += fmt.Sprintf(", %dm %ds", mins, secs)
	}
	if m.PrimarySpeaker != "" {
		out += fmt.Sprintf(", primary: %s (%.0f%%)", m.PrimarySpeaker, m.PrimarySpeakerRatio*100)
	}
	return out
}
