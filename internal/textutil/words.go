// Package textutil provides the lexical primitives shared by segmentation and
// grounding: word normalization, stopword filtering, set overlap, and
// character-level sequence similarity.
package textutil

import "strings"

// stopWords are excluded from significant-word sets during matching.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "should": {}, "could": {},
}

// keywordStopWords is the smaller stopword set used for boundary and
// coherence keyword extraction.
var keywordStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
	"from": {}, "will": {}, "have": {}, "your": {},
}

const punctCutset = ".,!?;:()[]{}\"'"

// NormalizeWord lowercases a token and strips surrounding punctuation.
func NormalizeWord(word string) string {
	return strings.Trim(strings.ToLower(word), punctCutset)
}

// SignificantWords returns the set of normalized words longer than two
// characters, excluding stopwords.
func SignificantWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		word := NormalizeWord(raw)
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		words[word] = struct{}{}
	}
	return words
}

// ContentWords returns all normalized words longer than two characters,
// without stopword filtering. Used for the sentence side of overlap scoring.
func ContentWords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		word := NormalizeWord(raw)
		if len(word) > 2 {
			words[word] = struct{}{}
		}
	}
	return words
}

// Keywords returns lowercased words longer than three characters excluding a
// small stopword set. This is the cheaper extraction used for topic boundary
// and coherence scoring.
func Keywords(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if len(word) <= 3 {
			continue
		}
		if _, stop := keywordStopWords[word]; stop {
			continue
		}
		words[word] = struct{}{}
	}
	return words
}

// Jaccard computes intersection-over-union of two word sets. Returns 0 when
// both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for word := range a {
		if _, ok := b[word]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Intersection counts words present in both sets.
func Intersection(a, b map[string]struct{}) int {
	count := 0
	for word := range a {
		if _, ok := b[word]; ok {
			count++
		}
	}
	return count
}

// Clamp01 bounds a score to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
