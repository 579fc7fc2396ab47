// Package rank orders topic segments by procedural importance so low-value
// topics do not consume a generation slot.
package rank

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/stepsmith/internal/model"
)

// defaultActionVerbs cover navigation, interaction, input, configuration,
// creation, management, and verification vocabulary.
var defaultActionVerbs = []string{
	"navigate", "go", "open", "access", "visit", "browse",
	"click", "select", "choose", "press", "tap", "hit",
	"type", "enter", "input", "fill", "write", "paste",
	"configure", "set", "enable", "disable", "change", "modify",
	"adjust", "update", "edit",
	"create", "add", "insert", "make", "build", "generate",
	"delete", "remove", "clear", "reset", "restore", "save",
	"verify", "check", "confirm", "validate", "review", "test",
}

// defaultSequenceIndicators mark ordered, instructional language.
var defaultSequenceIndicators = []string{
	"first", "second", "third", "next", "then", "after", "finally",
	"step", "now", "let's", "we'll", "going to",
}

// Config controls importance scoring weights and filtering thresholds.
type Config struct {
	// Importance weights, must sum to 1.0.
	WeightProcedural    float64
	WeightActionDensity float64
	WeightCoherence     float64

	MinImportanceThreshold float64
	KeepTopN               int // 0 keeps all

	ActionVerbs        []string
	SequenceIndicators []string
}

// DefaultConfig returns the default ranking settings.
func DefaultConfig() Config {
	return Config{
		WeightProcedural:       0.4,
		WeightActionDensity:    0.3,
		WeightCoherence:        0.3,
		MinImportanceThreshold: 0.3,
		KeepTopN:               0,
		ActionVerbs:            defaultActionVerbs,
		SequenceIndicators:     defaultSequenceIndicators,
	}
}

// Validate checks the weight sum.
func (c Config) Validate() error {
	total := c.WeightProcedural + c.WeightActionDensity + c.WeightCoherence
	if math.Abs(total-1.0) > 0.01 {
		return fmt.Errorf("importance weights must sum to 1.0, got %.3f", total)
	}
	if c.KeepTopN < 0 {
		return fmt.Errorf("keep top n must be >= 0, got %d", c.KeepTopN)
	}
	return nil
}

// RankingReport summarizes a scoring pass for diagnostics.
type RankingReport struct {
	TotalSegments int                `json:"total_segments"`
	Scores        []model.TopicScore `json:"scores"`

	AvgImportance float64 `json:"avg_importance"`
	MaxImportance float64 `json:"max_importance"`
	MinImportance float64 `json:"min_importance"`
	StdImportance float64 `json:"std_importance"`

	HighCount   int `json:"high_importance_count"`   // >= 0.7
	MediumCount int `json:"medium_importance_count"` // 0.3 - 0.7
	LowCount    int `json:"low_importance_count"`    // < 0.3
}

// Ranker scores segments by how procedural their language is.
type Ranker struct {
	config Config
}

// NewRanker creates a ranker, rejecting invalid configurations.
func NewRanker(config Config) (*Ranker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking config: %w", err)
	}
	if len(config.ActionVerbs) == 0 {
		config.ActionVerbs = defaultActionVerbs
	}
	if len(config.SequenceIndicators) == 0 {
		config.SequenceIndicators = defaultSequenceIndicators
	}
	return &Ranker{config: config}, nil
}

// ScoreSegments computes an importance breakdown for each segment.
func (r *Ranker) ScoreSegments(segments []model.TopicSegment) []model.TopicScore {
	if len(segments) == 0 {
		return nil
	}

	scores := make([]model.TopicScore, 0, len(segments))
	for _, seg := range segments {
		procedural := r.proceduralScore(seg)
		density := r.actionDensity(seg)
		coherence := seg.CoherenceScore

		score := model.TopicScore{
			SegmentIndex:          seg.SegmentIndex,
			ProceduralScore:       procedural,
			ActionDensity:         density,
			CoherenceScore:        coherence,
			WeightedProcedural:    procedural * r.config.WeightProcedural,
			WeightedActionDensity: density * r.config.WeightActionDensity,
			WeightedCoherence:     coherence * r.config.WeightCoherence,
		}
		score.ImportanceScore = score.WeightedProcedural +
			score.WeightedActionDensity + score.WeightedCoherence

		scores = append(scores, score)
	}

	return scores
}

// RankByImportance returns the segments sorted descending by importance.
// The input slice is not modified.
func (r *Ranker) RankByImportance(segments []model.TopicSegment) []model.TopicSegment {
	if len(segments) == 0 {
		return nil
	}

	scores := r.ScoreSegments(segments)

	ranked := make([]model.TopicSegment, len(segments))
	copy(ranked, segments)

	importance := make(map[int]float64, len(scores))
	for _, s := range scores {
		importance[s.SegmentIndex] = s.ImportanceScore
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return importance[ranked[i].SegmentIndex] > importance[ranked[j].SegmentIndex]
	})

	return ranked
}

// FilterLowImportance drops segments scoring below the threshold and, when
// KeepTopN is set, caps the survivors to the top N after re-ranking. Original
// segment order is preserved unless the cap applies.
func (r *Ranker) FilterLowImportance(segments []model.TopicSegment) []model.TopicSegment {
	if len(segments) == 0 {
		return nil
	}

	scores := r.ScoreSegments(segments)

	var filtered []model.TopicSegment
	for i, seg := range segments {
		if scores[i].ImportanceScore >= r.config.MinImportanceThreshold {
			filtered = append(filtered, seg)
		}
	}

	if r.config.KeepTopN > 0 && len(filtered) > r.config.KeepTopN {
		filtered = r.RankByImportance(filtered)[:r.config.KeepTopN]
	}

	return filtered
}

// Report builds the detailed diagnostics report.
func (r *Ranker) Report(segments []model.TopicSegment) RankingReport {
	scores := r.ScoreSegments(segments)
	report := RankingReport{
		TotalSegments: len(segments),
		Scores:        scores,
	}
	if len(scores) == 0 {
		return report
	}

	report.MinImportance = scores[0].ImportanceScore
	report.MaxImportance = scores[0].ImportanceScore

	var sum float64
	for _, s := range scores {
		v := s.ImportanceScore
		sum += v
		if v > report.MaxImportance {
			report.MaxImportance = v
		}
		if v < report.MinImportance {
			report.MinImportance = v
		}
		switch {
		case v >= 0.7:
			report.HighCount++
		case v >= 0.3:
			report.MediumCount++
		default:
			report.LowCount++
		}
	}
	report.AvgImportance = sum / float64(len(scores))

	var variance float64
	for _, s := range scores {
		d := s.ImportanceScore - report.AvgImportance
		variance += d * d
	}
	report.StdImportance = math.Sqrt(variance / float64(len(scores)))

	return report
}

// proceduralScore blends three signals: action-verb hits (50%, saturating at
// two per sentence), imperative sentences (30%), and sequence indicators
// (20%, saturating at one per three sentences).
func (r *Ranker) proceduralScore(seg model.TopicSegment) float64 {
	if len(seg.Sentences) == 0 {
		return 0.0
	}

	text := strings.ToLower(seg.GetText())
	if strings.TrimSpace(text) == "" {
		return 0.0
	}

	actionCount := 0
	for _, verb := range r.config.ActionVerbs {
		if strings.Contains(text, verb) {
			actionCount++
		}
	}

	sequenceCount := 0
	for _, indicator := range r.config.SequenceIndicators {
		if strings.Contains(text, indicator) {
			sequenceCount++
		}
	}

	imperativeCount := 0
	for _, sentence := range seg.Sentences {
		words := strings.Fields(strings.ToLower(sentence.Text))
		if len(words) > 2 {
			words = words[:2]
		}
		if containsAny(words, r.config.ActionVerbs) {
			imperativeCount++
		}
	}

	n := float64(len(seg.Sentences))
	actionScore := math.Min(1.0, float64(actionCount)/(n*2))
	sequenceScore := math.Min(1.0, float64(sequenceCount)/math.Max(1.0, n/3))
	imperativeScore := float64(imperativeCount) / n

	score := actionScore*0.5 + imperativeScore*0.3 + sequenceScore*0.2
	return math.Min(1.0, score)
}

// actionDensity is action-verb hits per sentence, normalized so three per
// sentence saturates the score.
func (r *Ranker) actionDensity(seg model.TopicSegment) float64 {
	if len(seg.Sentences) == 0 {
		return 0.0
	}

	text := strings.ToLower(seg.GetText())
	actionCount := 0
	for _, verb := range r.config.ActionVerbs {
		if strings.Contains(text, verb) {
			actionCount++
		}
	}

	density := float64(actionCount) / float64(len(seg.Sentences))
	return math.Min(1.0, density/3.0)
}

func containsAny(words []string, verbs []string) bool {
	for _, word := range words {
		for _, verb := range verbs {
			if word == verb {
				return true
			}
		}
	}
	return false
}
