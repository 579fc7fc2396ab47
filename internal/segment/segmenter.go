// Package segment partitions parsed sentences into topic segments using
// multi-signal boundary detection: timestamp gaps, speaker handoffs,
// transition phrases, and optional keyword similarity.
package segment

import (
	"fmt"
	"math"

	"github.com/ppiankov/stepsmith/internal/model"
	"github.com/ppiankov/stepsmith/internal/textutil"
)

// weightTolerance is the allowed deviation of the weight sum from 1.0.
const weightTolerance = 0.01

// Config controls boundary detection and segment post-processing.
type Config struct {
	// Boundary signal weights, must sum to 1.0.
	WeightTimestampGap      float64
	WeightSpeakerTransition float64
	WeightTransitionPhrase  float64
	WeightSemanticSim       float64

	TimestampGapThreshold  float64 // Seconds
	BoundaryScoreThreshold float64

	MinSegmentSentences int
	MinTotalSegments    int

	UseSemanticSimilarity bool
	MergeSmallSegments    bool
}

// DefaultConfig returns the tuned default segmentation settings.
func DefaultConfig() Config {
	return Config{
		WeightTimestampGap:      0.35,
		WeightSpeakerTransition: 0.25,
		WeightTransitionPhrase:  0.30,
		WeightSemanticSim:       0.10,
		TimestampGapThreshold:   90.0,
		BoundaryScoreThreshold:  0.40,
		MinSegmentSentences:     2,
		MinTotalSegments:        3,
		UseSemanticSimilarity:   false,
		MergeSmallSegments:      true,
	}
}

// Validate checks weight and threshold constraints.
func (c Config) Validate() error {
	total := c.WeightTimestampGap + c.WeightSpeakerTransition +
		c.WeightTransitionPhrase + c.WeightSemanticSim
	if math.Abs(total-1.0) > weightTolerance {
		return fmt.Errorf("boundary weights must sum to 1.0, got %.3f", total)
	}
	if c.BoundaryScoreThreshold < 0.0 || c.BoundaryScoreThreshold > 1.0 {
		return fmt.Errorf("boundary score threshold must be 0.0-1.0, got %.3f", c.BoundaryScoreThreshold)
	}
	if c.TimestampGapThreshold <= 0 {
		return fmt.Errorf("timestamp gap threshold must be positive, got %.1f", c.TimestampGapThreshold)
	}
	return nil
}

// Segmenter converts a sentence sequence into non-overlapping topic segments.
type Segmenter struct {
	config Config
}

// NewSegmenter creates a segmenter, rejecting invalid configurations.
func NewSegmenter(config Config) (*Segmenter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid segmentation config: %w", err)
	}
	return &Segmenter{config: config}, nil
}

// Segment identifies topic boundaries, builds segments, merges undersized
// ones, enforces the minimum segment count, and scores coherence. The result
// is a contiguous partition of the input sentences.
func (s *Segmenter) Segment(sentences []model.ParsedSentence) []model.TopicSegment {
	if len(sentences) == 0 {
		return nil
	}

	boundaries := s.identifyBoundaries(sentences)
	segments := s.createSegments(sentences, boundaries)

	if s.config.MergeSmallSegments {
		segments = s.mergeSmallSegments(segments)
	}

	if len(segments) < s.config.MinTotalSegments {
		segments = EnsureMinimum(segments, s.config.MinTotalSegments, s.config.MinSegmentSentences)
	}

	for i := range segments {
		segments[i].CoherenceScore = coherence(segments[i])
	}

	return segments
}

// identifyBoundaries returns the sentence indices that start new topics.
// Index 0 is always a boundary.
func (s *Segmenter) identifyBoundaries(sentences []model.ParsedSentence) []int {
	boundaries := []int{0}

	for i := 1; i < len(sentences); i++ {
		score := s.boundaryScore(sentences[i-1], sentences[i])
		if s.isBoundary(score, sentences[i]) {
			boundaries = append(boundaries, i)
		}
	}

	return boundaries
}

// boundaryScore combines the weighted signals into a single [0,1] score.
func (s *Segmenter) boundaryScore(prev, curr model.ParsedSentence) float64 {
	score := s.config.WeightTimestampGap * s.timestampGapScore(prev, curr)
	score += s.config.WeightSpeakerTransition * speakerTransitionScore(prev, curr)
	score += s.config.WeightTransitionPhrase * transitionPhraseScore(curr)

	if s.config.UseSemanticSimilarity {
		score += s.config.WeightSemanticSim * semanticShiftScore(prev, curr)
	}

	return math.Min(score, 1.0)
}

// timestampGapScore scales the gap linearly up to the threshold; a sentence
// already flagged as following a long pause scores 1.0 outright.
func (s *Segmenter) timestampGapScore(prev, curr model.ParsedSentence) float64 {
	if !prev.HasTimestamp || !curr.HasTimestamp {
		return 0.0
	}
	if curr.FollowsLongPause {
		return 1.0
	}
	gap := curr.Timestamp - prev.Timestamp
	return math.Min(gap/s.config.TimestampGapThreshold, 1.0)
}

// speakerTransitionScore grades speaker changes: a participant-to-instructor
// handoff is the strongest signal (end of Q&A), a change paired with a
// transition phrase is strong, any other change is weak.
func speakerTransitionScore(prev, curr model.ParsedSentence) float64 {
	if prev.Speaker == "" || curr.Speaker == "" {
		return 0.0
	}
	if !curr.SpeakerChanged {
		return 0.0
	}
	if prev.SpeakerRole == model.RoleParticipant && curr.SpeakerRole == model.RoleInstructor {
		return 1.0
	}
	if curr.IsTransition {
		return 0.8
	}
	return 0.3
}

func transitionPhraseScore(curr model.ParsedSentence) float64 {
	if curr.IsTransition {
		return 1.0
	}
	return 0.0
}

// semanticShiftScore inverts keyword Jaccard similarity: dissimilar
// neighboring sentences raise the boundary score. Neutral 0.5 when either
// side has no keywords.
func semanticShiftScore(prev, curr model.ParsedSentence) float64 {
	prevKeywords := textutil.Keywords(prev.Text)
	currKeywords := textutil.Keywords(curr.Text)
	if len(prevKeywords) == 0 || len(currKeywords) == 0 {
		return 0.5
	}
	return 1.0 - textutil.Jaccard(prevKeywords, currKeywords)
}

// isBoundary applies the threshold plus two overrides: a long pause is always
// a boundary, and a transition phrase with a near-threshold score is too.
func (s *Segmenter) isBoundary(score float64, curr model.ParsedSentence) bool {
	if score > s.config.BoundaryScoreThreshold {
		return true
	}
	if curr.FollowsLongPause && curr.HasTimestamp {
		return true
	}
	if curr.IsTransition && score >= 0.30 {
		return true
	}
	return false
}

// createSegments slices the sentence list at the boundary indices.
func (s *Segmenter) createSegments(sentences []model.ParsedSentence, boundaries []int) []model.TopicSegment {
	segments := make([]model.TopicSegment, 0, len(boundaries))

	for i, start := range boundaries {
		end := len(sentences)
		if i < len(boundaries)-1 {
			end = boundaries[i+1]
		}
		segments = append(segments, model.NewTopicSegment(i, sentences[start:end]))
	}

	return segments
}

// mergeSmallSegments folds undersized segments into their predecessor. The
// first segment is exempt so a short introduction survives.
func (s *Segmenter) mergeSmallSegments(segments []model.TopicSegment) []model.TopicSegment {
	if len(segments) <= 1 {
		return segments
	}

	var merged []model.TopicSegment
	for i, current := range segments {
		if i == 0 || len(current.Sentences) >= s.config.MinSegmentSentences {
			merged = append(merged, current)
			continue
		}

		prev := merged[len(merged)-1]
		combined := make([]model.ParsedSentence, 0, len(prev.Sentences)+len(current.Sentences))
		combined = append(combined, prev.Sentences...)
		combined = append(combined, current.Sentences...)
		merged[len(merged)-1] = model.NewTopicSegment(prev.SegmentIndex, combined)
	}

	for i := range merged {
		merged[i].SegmentIndex = i
	}
	return merged
}

// EnsureMinimum returns a new segment list with at least minTotal segments,
// splitting the largest segment evenly into (deficit + 1) parts. Split
// segments are marked FallbackSplit to distinguish heuristic splits from
// natural boundaries. The input is not modified; the result is fully
// re-indexed.
func EnsureMinimum(segments []model.TopicSegment, minTotal, minSegmentSentences int) []model.TopicSegment {
	if len(segments) >= minTotal || len(segments) == 0 {
		return segments
	}

	needed := minTotal - len(segments)

	largest := 0
	for i := range segments {
		if len(segments[i].Sentences) > len(segments[largest].Sentences) {
			largest = i
		}
	}

	sentences := segments[largest].Sentences
	numSplits := needed + 1
	splitSize := len(sentences) / numSplits
	if splitSize < minSegmentSentences {
		splitSize = minSegmentSentences
	}

	var splits []model.TopicSegment
	start := 0
	for i := 0; i < numSplits && start < len(sentences); i++ {
		end := start + splitSize
		if i == numSplits-1 || end > len(sentences) {
			end = len(sentences)
		}
		part := model.NewTopicSegment(-1, sentences[start:end])
		part.FallbackSplit = true
		splits = append(splits, part)
		start = end
	}

	result := make([]model.TopicSegment, 0, len(segments)+len(splits)-1)
	for i := range segments {
		if i == largest {
			result = append(result, splits...)
		} else {
			result = append(result, segments[i])
		}
	}

	for i := range result {
		result[i].SegmentIndex = i
	}
	return result
}

// coherence is the mean pairwise keyword Jaccard similarity across the
// segment's sentences. Single-sentence segments are perfectly coherent;
// segments with no comparable keyword pairs score a neutral 0.5.
func coherence(seg model.TopicSegment) float64 {
	if len(seg.Sentences) < 2 {
		return 1.0
	}

	keywords := make([]map[string]struct{}, len(seg.Sentences))
	for i, s := range seg.Sentences {
		keywords[i] = textutil.Keywords(s.Text)
	}

	var total float64
	count := 0
	for i := 0; i < len(keywords); i++ {
		for j := i + 1; j < len(keywords); j++ {
			if len(keywords[i]) == 0 || len(keywords[j]) == 0 {
				continue
			}
			total += textutil.Jaccard(keywords[i], keywords[j])
			count++
		}
	}

	if count == 0 {
		return 0.5
	}
	return total / float64(count)
}
