// Package qafilter removes interactive question-and-answer segments so only
// instructional content reaches step generation.
package qafilter

import (
	"fmt"
	"sort"

	"github.com/ppiankov/stepsmith/internal/model"
)

// Config controls Q&A detection thresholds and filtering behavior.
type Config struct {
	MinQADensity float64 // Fraction of questions that marks a segment Q&A-dense
	MinQuestions int     // Minimum absolute question count

	FilterQASections   bool // Remove Q&A-dense segments
	KeepInstructorOnly bool // Additionally drop segments not led by the instructor
}

// DefaultConfig returns the default filter settings.
func DefaultConfig() Config {
	return Config{
		MinQADensity:       0.30,
		MinQuestions:       2,
		FilterQASections:   true,
		KeepInstructorOnly: false,
	}
}

// Validate checks threshold bounds.
func (c Config) Validate() error {
	if c.MinQADensity < 0.0 || c.MinQADensity > 1.0 {
		return fmt.Errorf("min qa density must be 0.0-1.0, got %.3f", c.MinQADensity)
	}
	if c.MinQuestions < 0 {
		return fmt.Errorf("min questions must be >= 0, got %d", c.MinQuestions)
	}
	return nil
}

// Statistics summarizes one filtering pass for diagnostics.
type Statistics struct {
	TotalSegments    int     `json:"total_segments"`
	QASegments       int     `json:"qa_segments"`
	FilteredSegments int     `json:"filtered_segments"` // Surviving count
	RemovedSegments  int     `json:"removed_segments"`
	TotalQuestions   int     `json:"total_questions"`
	TotalSentences   int     `json:"total_sentences"`
	OverallQADensity float64 `json:"overall_qa_density"`
	FilterRate       float64 `json:"filter_rate"`
}

// Filter removes Q&A-dominated segments from a segment list.
type Filter struct {
	config Config
}

// NewFilter creates a filter, rejecting invalid configurations.
func NewFilter(config Config) (*Filter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter config: %w", err)
	}
	return &Filter{config: config}, nil
}

// IdentifyQASections returns a QASection record for every segment flagged
// Q&A-dense: density at or above MinQADensity and at least MinQuestions
// questions.
func (f *Filter) IdentifyQASections(segments []model.TopicSegment) []model.QASection {
	var sections []model.QASection

	for _, seg := range segments {
		density := qaDensity(seg)
		if density < f.config.MinQADensity || seg.QuestionCount < f.config.MinQuestions {
			continue
		}

		section := model.QASection{
			SegmentIndex:   seg.SegmentIndex,
			QuestionCount:  seg.QuestionCount,
			TotalSentences: len(seg.Sentences),
			QADensity:      density,
			IsQADense:      true,
			PrimarySpeaker: seg.PrimarySpeaker,
			Speakers:       speakerNames(seg),
		}
		if len(seg.Sentences) > 0 {
			section.StartSentenceIndex = seg.Sentences[0].SentenceIndex
			section.EndSentenceIndex = seg.Sentences[len(seg.Sentences)-1].SentenceIndex
		}
		sections = append(sections, section)
	}

	return sections
}

// FilterSegments drops Q&A-dense segments and, when configured, segments not
// led by the instructor. Filtering disabled via config returns the input
// unchanged.
func (f *Filter) FilterSegments(segments []model.TopicSegment) []model.TopicSegment {
	if !f.config.FilterQASections {
		return segments
	}

	qaIndices := make(map[int]struct{})
	for _, section := range f.IdentifyQASections(segments) {
		qaIndices[section.SegmentIndex] = struct{}{}
	}

	var filtered []model.TopicSegment
	for _, seg := range segments {
		if _, isQA := qaIndices[seg.SegmentIndex]; isQA {
			continue
		}
		if f.config.KeepInstructorOnly && !isInstructorLed(seg) {
			continue
		}
		filtered = append(filtered, seg)
	}

	return filtered
}

// Statistics reports segment and question counts before and after filtering.
func (f *Filter) Statistics(segments []model.TopicSegment) Statistics {
	qaSections := f.IdentifyQASections(segments)
	filtered := f.FilterSegments(segments)

	stats := Statistics{
		TotalSegments:    len(segments),
		QASegments:       len(qaSections),
		FilteredSegments: len(filtered),
		RemovedSegments:  len(segments) - len(filtered),
	}

	for _, seg := range segments {
		stats.TotalSentences += len(seg.Sentences)
		stats.TotalQuestions += seg.QuestionCount
	}
	if stats.TotalSentences > 0 {
		stats.OverallQADensity = float64(stats.TotalQuestions) / float64(stats.TotalSentences)
	}
	if len(segments) > 0 {
		stats.FilterRate = float64(stats.RemovedSegments) / float64(len(segments))
	}

	return stats
}

// qaDensity is the fraction of sentences in the segment that are questions.
func qaDensity(seg model.TopicSegment) float64 {
	if len(seg.Sentences) == 0 {
		return 0.0
	}
	return float64(seg.QuestionCount) / float64(len(seg.Sentences))
}

func speakerNames(seg model.TopicSegment) []string {
	names := make([]string, 0, len(seg.SpeakerCounts))
	for name := range seg.SpeakerCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isInstructorLed reports whether the segment's primary speaker is the
// instructor. With an explicit role the answer is direct; without one, a
// speaker who asks questions in fewer than 20% of their own sentences is
// treated as the instructor.
func isInstructorLed(seg model.TopicSegment) bool {
	if seg.PrimarySpeaker == "" {
		return false
	}

	primarySentences := 0
	primaryQuestions := 0
	for _, s := range seg.Sentences {
		if s.Speaker != seg.PrimarySpeaker {
			continue
		}
		if s.SpeakerRole == model.RoleInstructor {
			return true
		}
		if s.SpeakerRole == model.RoleParticipant {
			return false
		}
		primarySentences++
		if s.IsQuestion {
			primaryQuestions++
		}
	}

	if primarySentences == 0 {
		return false
	}
	return float64(primaryQuestions)/float64(primarySentences) < 0.2
}
