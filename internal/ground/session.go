// Package ground links generated steps back to the source material they came
// from. Every step gets scored evidence (transcript sentences, knowledge
// excerpts, screenshots) and an aggregate confidence, so hallucinated content
// surfaces as low-confidence rather than passing silently.
package ground

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/stepsmith/internal/model"
	"github.com/ppiankov/stepsmith/internal/textutil"
)

// Config holds the hybrid matching weights and thresholds. Weights that do
// not sum to 1.0 are normalized rather than rejected, because grounding
// should never be the stage that refuses to run.
type Config struct {
	WeightWord     float64
	WeightKeyword  float64
	WeightPhrase   float64
	WeightSemantic float64
	WeightChar     float64

	MinSimilarityThreshold float64
	MaxTranscriptSources   int
	MaxKnowledgeSources    int
	MaxVisualSources       int
}

// DefaultConfig returns the default 50/50 word-overlap/semantic split.
func DefaultConfig() Config {
	return Config{
		WeightWord:             0.50,
		WeightKeyword:          0.00,
		WeightPhrase:           0.00,
		WeightSemantic:         0.50,
		WeightChar:             0.00,
		MinSimilarityThreshold: 0.15,
		MaxTranscriptSources:   5,
		MaxKnowledgeSources:    3,
		MaxVisualSources:       3,
	}
}

// normalize scales the weights so they sum to 1.0.
func (c *Config) normalize() {
	total := c.WeightWord + c.WeightKeyword + c.WeightPhrase + c.WeightSemantic + c.WeightChar
	if total <= 0 {
		c.WeightWord = 1.0
		return
	}
	if total > 0.99 && total < 1.01 {
		return
	}
	c.WeightWord /= total
	c.WeightKeyword /= total
	c.WeightPhrase /= total
	c.WeightSemantic /= total
	c.WeightChar /= total
}

// SemanticScorer computes similarity between two texts. Implementations may
// call out to an embedding API; a nil scorer or a scoring error degrades to
// lexical-only matching.
type SemanticScorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// matchActionVerbs is the verb list used for the shared-action-verb bonus and
// for extracting verb/target pairs from actions.
var matchActionVerbs = []string{
	"click", "open", "navigate", "select", "choose", "enter",
	"type", "create", "delete", "update", "configure", "set", "go",
}

// Session grounds the steps of one document. It holds per-document state:
// the sentence catalog, precomputed technical scores, and sentence reuse
// counts. A Session must not be shared across documents or goroutines; use
// one Session per in-flight document.
type Session struct {
	config Config
	scorer SemanticScorer

	catalog         []string
	technicalScores []float64
	usedSentences   map[int]int

	stepSources map[int]model.StepSourceData
}

// NewSession creates a grounding session. scorer may be nil for lexical-only
// matching.
func NewSession(config Config, scorer SemanticScorer) *Session {
	config.normalize()
	if config.MaxTranscriptSources <= 0 {
		config.MaxTranscriptSources = 5
	}
	if config.MaxKnowledgeSources <= 0 {
		config.MaxKnowledgeSources = 3
	}
	if config.MaxVisualSources <= 0 {
		config.MaxVisualSources = 3
	}
	return &Session{
		config:        config,
		scorer:        scorer,
		usedSentences: make(map[int]int),
		stepSources:   make(map[int]model.StepSourceData),
	}
}

// BuildCatalog indexes the transcript sentences and precomputes a technical
// score for each one. Must be called before any step is grounded.
func (s *Session) BuildCatalog(sentences []string) {
	s.catalog = sentences
	s.technicalScores = make([]float64, len(sentences))
	for i, sentence := range sentences {
		s.technicalScores[i] = technicalScore(sentence)
	}
}

// BuildStepSources finds all evidence for one step, scores its confidence,
// and records the result under the step index. This is the main entry point.
func (s *Session) BuildStepSources(
	ctx context.Context,
	stepIndex int,
	step model.Step,
	screenshots []model.Screenshot,
	knowledge []model.KnowledgeSource,
) model.StepSourceData {
	content := strings.TrimSpace(step.Summary + " " + step.Details)

	sources := s.findTranscriptSources(ctx, content, step.Title, step.Actions)
	if len(screenshots) > 0 {
		sources = append(sources, s.findVisualSources(content, step.Title, step.Actions, screenshots)...)
	}
	if len(knowledge) > 0 {
		sources = append(sources, s.findKnowledgeSources(content, step.Title, step.Actions, knowledge)...)
	}

	data := model.StepSourceData{
		StepIndex:   stepIndex,
		StepContent: content,
		Sources:     sources,
	}
	for _, src := range sources {
		if src.Type == model.SourceTranscript {
			data.HasTranscriptSupport = true
		}
		if src.Type == model.SourceVisual {
			data.HasVisualSupport = true
		}
	}

	data.OverallConfidence = s.CalculateConfidence(data)
	s.ValidateStep(&data)
	s.stepSources[stepIndex] = data

	return data
}

// findTranscriptSources scores every catalog sentence against the step and
// returns the top matches. Matched sentences' reuse counters are incremented
// so the same evidence cannot cheaply ground many steps.
func (s *Session) findTranscriptSources(ctx context.Context, content, title string, actions []string) []model.SourceReference {
	searchText := title + " " + content + " " + strings.Join(actions, " ")
	searchWords := textutil.SignificantWords(searchText)

	var keyWords []string
	for word := range searchWords {
		if len(word) > 4 {
			keyWords = append(keyWords, word)
		}
	}

	phrases := twoWordPhrases(searchWords)

	var sources []model.SourceReference
	for idx, sentence := range s.catalog {
		sentenceLower := strings.ToLower(sentence)
		sentenceWords := textutil.ContentWords(sentence)

		// Exclude sentences sharing too few content words regardless of score.
		if textutil.Intersection(searchWords, sentenceWords) < 3 {
			continue
		}

		wordOverlap := textutil.Jaccard(searchWords, sentenceWords)

		keywordScore := 0.0
		if len(keyWords) > 0 {
			hits := 0
			for _, word := range keyWords {
				if strings.Contains(sentenceLower, word) {
					hits++
				}
			}
			keywordScore = float64(hits) / float64(len(keyWords))
		}

		phraseScore := 0.0
		if len(keyWords) > 0 {
			for _, phrase := range phrases {
				if strings.Contains(sentenceLower, phrase) {
					phraseScore += 0.2
				}
			}
			if phraseScore > 0.6 {
				phraseScore = 0.6
			}
		}

		charScore := 0.0
		if s.config.WeightChar > 0 {
			charScore = textutil.SequenceRatio(strings.ToLower(searchText), sentenceLower)
		}

		semanticScore := 0.0
		if s.scorer != nil && s.config.WeightSemantic > 0 {
			if v, err := s.scorer.Similarity(ctx, searchText, sentence); err == nil {
				semanticScore = v
			}
		}

		score := wordOverlap*s.config.WeightWord +
			keywordScore*s.config.WeightKeyword +
			phraseScore*s.config.WeightPhrase +
			semanticScore*s.config.WeightSemantic +
			charScore*s.config.WeightChar

		if sharesActionVerb(actions, sentenceLower) {
			score += 0.1
		}

		// Reuse penalty applies from the first use: 15% per use, capped at 60%.
		reuse := s.usedSentences[idx]
		penalty := float64(reuse+1) * 0.15
		if penalty > 0.6 {
			penalty = 0.6
		}
		score *= 1.0 - penalty

		// Technical bonus only for scores that are already viable.
		if score >= 0.10 {
			score += s.technicalScores[idx] * 0.2
		}

		score = textutil.Clamp01(score)
		if score < s.config.MinSimilarityThreshold {
			continue
		}

		sources = append(sources, model.SourceReference{
			Type:          model.SourceTranscript,
			Excerpt:       sentence,
			SentenceIndex: idx,
			HasSentence:   true,
			Confidence:    score,
		})
	}

	sortByConfidence(sources)
	if len(sources) > s.config.MaxTranscriptSources {
		sources = sources[:s.config.MaxTranscriptSources]
	}

	for _, src := range sources {
		s.usedSentences[src.SentenceIndex]++
	}

	return sources
}

// findKnowledgeSources matches the step against fetched external excerpts.
// Failed fetches are skipped; scoring is word overlap (60%) plus character
// similarity (40%) with a higher 0.2 threshold.
func (s *Session) findKnowledgeSources(content, title string, actions []string, knowledge []model.KnowledgeSource) []model.SourceReference {
	searchText := strings.ToLower(title + " " + content + " " + strings.Join(actions, " "))
	searchWords := textutil.SignificantWords(searchText)

	var sources []model.SourceReference
	for _, ks := range knowledge {
		if ks.Err != "" || ks.Content == "" {
			continue
		}

		contentLower := strings.ToLower(ks.Content)
		contentWords := textutil.ContentWords(ks.Content)

		wordOverlap := textutil.Jaccard(searchWords, contentWords)

		compare := contentLower
		if len(compare) > 2000 {
			compare = compare[:2000]
		}
		charScore := textutil.SequenceRatio(searchText, compare)

		score := wordOverlap*0.6 + charScore*0.4
		if score < 0.2 {
			continue
		}

		excerpt := ks.Content
		if len(excerpt) > 300 {
			excerpt = excerpt[:300] + "..."
		}
		title := ks.Title
		if title == "" {
			title = "Untitled"
		}

		sources = append(sources, model.SourceReference{
			Type:       model.SourceKnowledge,
			Excerpt:    fmt.Sprintf("[%s](%s)\n%s", title, ks.URL, excerpt),
			Confidence: textutil.Clamp01(score),
		})
	}

	sortByConfidence(sources)
	if len(sources) > s.config.MaxKnowledgeSources {
		sources = sources[:s.config.MaxKnowledgeSources]
	}
	return sources
}

// findVisualSources matches step actions against screenshot UI elements and
// the step text against screenshot content.
func (s *Session) findVisualSources(content, title string, actions []string, screenshots []model.Screenshot) []model.SourceReference {
	patterns := extractActionPatterns(actions)

	var sources []model.SourceReference
	for _, shot := range screenshots {
		for _, element := range shot.UIElements {
			elementText := strings.ToLower(element.Text)
			if elementText == "" {
				continue
			}
			for _, p := range patterns {
				if strings.Contains(elementText, p.target) || strings.Contains(p.target, elementText) {
					sources = append(sources, model.SourceReference{
						Type:          model.SourceVisual,
						Excerpt:       fmt.Sprintf("Screenshot showing %s: '%s'", element.Type, element.Text),
						ScreenshotRef: shot.Filename,
						UIElements:    []string{element.Text},
						Confidence:    0.8,
					})
					break
				}
			}
		}

		if shot.Content == "" {
			continue
		}
		similarity := textutil.SequenceRatio(
			strings.ToLower(title+" "+content),
			strings.ToLower(shot.Content),
		)
		if similarity >= 0.4 {
			excerpt := shot.Content
			if len(excerpt) > 100 {
				excerpt = excerpt[:100] + "..."
			}
			sources = append(sources, model.SourceReference{
				Type:          model.SourceVisual,
				Excerpt:       "Screenshot content: " + excerpt,
				ScreenshotRef: shot.Filename,
				Confidence:    similarity,
			})
		}
	}

	sortByConfidence(sources)
	if len(sources) > s.config.MaxVisualSources {
		sources = sources[:s.config.MaxVisualSources]
	}
	return sources
}

// CalculateConfidence aggregates source confidences into a single trust
// score. Visual evidence is excluded: only transcript and knowledge sources
// speak to whether the text was grounded. The top 3 sources are weighted
// 50/30/20 (60/40 or 100 when fewer exist), then multiplicative bonuses apply
// for source count, transcript+knowledge diversity, and any strong match.
func (s *Session) CalculateConfidence(data model.StepSourceData) float64 {
	var grounded []model.SourceReference
	for _, src := range data.Sources {
		if src.Type == model.SourceTranscript || src.Type == model.SourceKnowledge {
			grounded = append(grounded, src)
		}
	}
	if len(grounded) == 0 {
		return 0.0
	}

	sortByConfidence(grounded)
	top := grounded
	if len(top) > 3 {
		top = top[:3]
	}

	var confidence float64
	switch len(top) {
	case 1:
		confidence = top[0].Confidence
	case 2:
		confidence = top[0].Confidence*0.6 + top[1].Confidence*0.4
	default:
		confidence = top[0].Confidence*0.5 + top[1].Confidence*0.3 + top[2].Confidence*0.2
	}

	switch {
	case len(grounded) >= 4:
		confidence *= 1.25
	case len(grounded) == 3:
		confidence *= 1.15
	case len(grounded) == 2:
		confidence *= 1.08
	}

	hasTranscript := false
	hasKnowledge := false
	hasStrong := false
	for _, src := range grounded {
		if src.Type == model.SourceTranscript {
			hasTranscript = true
		}
		if src.Type == model.SourceKnowledge {
			hasKnowledge = true
		}
		if src.Confidence > 0.5 {
			hasStrong = true
		}
	}
	if hasTranscript && hasKnowledge {
		confidence *= 1.12
	}
	if hasStrong {
		confidence *= 1.10
	}

	return textutil.Clamp01(confidence)
}

// EnhanceConfidence blends source-based confidence (70%) with a validator
// quality score (30%), with a multiplier at the quality extremes.
func (s *Session) EnhanceConfidence(sourceConfidence, qualityScore float64) float64 {
	enhanced := sourceConfidence*0.7 + qualityScore*0.3

	switch {
	case qualityScore >= 0.8:
		enhanced *= 1.10
	case qualityScore >= 0.6:
		enhanced *= 1.05
	case qualityScore < 0.3:
		enhanced *= 0.95
	}

	return textutil.Clamp01(enhanced)
}

// ValidateStep checks a step's grounding against acceptance thresholds. The
// step is valid when confidence is at least 0.4, transcript support exists,
// and there is at least one source. Warnings are attached to the data either
// way.
func (s *Session) ValidateStep(data *model.StepSourceData) (bool, []string) {
	var warnings []string

	switch {
	case data.OverallConfidence < 0.3:
		warnings = append(warnings, fmt.Sprintf("Very low confidence (%.2f) - may be hallucinated", data.OverallConfidence))
	case data.OverallConfidence < 0.5:
		warnings = append(warnings, fmt.Sprintf("Low confidence (%.2f) - verify accuracy", data.OverallConfidence))
	case data.OverallConfidence < 0.7:
		warnings = append(warnings, fmt.Sprintf("Medium confidence (%.2f) - generally reliable", data.OverallConfidence))
	}

	if !data.HasTranscriptSupport {
		warnings = append(warnings, "No transcript support found - verify against source material")
	}

	switch len(data.Sources) {
	case 0:
		warnings = append(warnings, "No source references found - content may be fabricated")
	case 1:
		warnings = append(warnings, "Only one source reference - limited validation")
	}

	valid := data.OverallConfidence >= 0.4 &&
		data.HasTranscriptSupport &&
		len(data.Sources) > 0

	data.ValidationFlags = warnings
	return valid, warnings
}

// AllStepSources returns every recorded step's grounding, ordered by index.
func (s *Session) AllStepSources() []model.StepSourceData {
	indices := make([]int, 0, len(s.stepSources))
	for idx := range s.stepSources {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	result := make([]model.StepSourceData, 0, len(indices))
	for _, idx := range indices {
		result = append(result, s.stepSources[idx])
	}
	return result
}

var (
	numberPattern      = regexp.MustCompile(`\d+`)
	urlPattern         = regexp.MustCompile(`https?://|www\.`)
	percentagePattern  = regexp.MustCompile(`\d+%`)
	measurementPattern = regexp.MustCompile(`\d+\s*(ms|kb|mb|gb|tb|rpm|dpi|px)`)
	structuralPattern  = regexp.MustCompile(`\[screen\s+shows|\[diagram|\[code|\[architecture`)
)

// codeKeywords and technicalTerms feed the technical score: sentences that
// read like code, configuration, or architecture make better evidence.
var codeKeywords = []string{
	"async", "await", "def", "class", "function", "import", "from",
	"return", "if", "else", "for", "while", "try", "except", "const",
	"var", "let", "public", "private", "static", "void",
}

var technicalTerms = []string{
	"api", "endpoint", "database", "cosmos", "blob", "storage",
	"pipeline", "workflow", "microservice", "container", "docker",
	"kubernetes", "deployment", "configuration", "authentication",
	"authorization", "throughput", "latency", "idempotent",
	"scalability", "asynchronous", "synchronous", "event", "trigger",
}

var technicalActionVerbs = []string{
	"click", "select", "open", "navigate", "configure", "create",
	"delete", "update", "install", "deploy", "build", "run", "execute",
}

// technicalScore estimates how technical and specific a sentence is, 0 to 1.
// Code keywords, domain terms, concrete values, quoted spans, and action
// verbs all add; very short sentences are penalized as likely filler.
func technicalScore(sentence string) float64 {
	lower := strings.ToLower(sentence)
	padded := " " + lower + " "
	score := 0.0

	for _, keyword := range codeKeywords {
		if strings.Contains(padded, " "+keyword+" ") {
			score += 0.15
		}
	}

	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			score += 0.10
		}
	}

	if numberPattern.MatchString(sentence) {
		score += 0.05
	}
	if urlPattern.MatchString(lower) {
		score += 0.10
	}
	if percentagePattern.MatchString(sentence) {
		score += 0.08
	}
	if measurementPattern.MatchString(lower) {
		score += 0.12
	}

	quotes := strings.Count(sentence, `"`) + strings.Count(sentence, "'") + strings.Count(sentence, "`")
	quoteBonus := float64(quotes) * 0.05
	if quoteBonus > 0.15 {
		quoteBonus = 0.15
	}
	score += quoteBonus

	for _, verb := range technicalActionVerbs {
		if strings.Contains(lower, verb) {
			score += 0.06
			break
		}
	}

	if structuralPattern.MatchString(lower) {
		score += 0.10
	}

	wordCount := len(strings.Fields(sentence))
	if wordCount < 5 {
		score *= 0.5
	} else if wordCount > 15 {
		score += 0.05
	}

	return textutil.Clamp01(score)
}

// actionPattern is a verb/target pair extracted from an action string, e.g.
// "Click the Create button" yields {click, create button}.
type actionPattern struct {
	verb   string
	target string
}

func extractActionPatterns(actions []string) []actionPattern {
	var patterns []actionPattern
	for _, action := range actions {
		lower := strings.ToLower(action)

		for _, verb := range matchActionVerbs {
			pos := strings.Index(lower, verb)
			if pos < 0 {
				continue
			}
			target := strings.TrimSpace(lower[pos+len(verb):])
			target = strings.ReplaceAll(target, "the ", "")
			target = strings.ReplaceAll(target, "a ", "")
			target = strings.ReplaceAll(target, "an ", "")
			if target != "" {
				patterns = append(patterns, actionPattern{verb: verb, target: target})
			}
			break
		}
	}
	return patterns
}

// sharesActionVerb reports whether any known action verb appears in both the
// step's actions and the candidate sentence.
func sharesActionVerb(actions []string, sentenceLower string) bool {
	for _, verb := range matchActionVerbs {
		if !strings.Contains(sentenceLower, verb) {
			continue
		}
		for _, action := range actions {
			if strings.Contains(strings.ToLower(action), verb) {
				return true
			}
		}
	}
	return false
}

func sortByConfidence(sources []model.SourceReference) {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Confidence > sources[j].Confidence
	})
}

// twoWordPhrases builds the 2-gram phrase list used for phrase-containment
// scoring. Word-set iteration order is not deterministic, so the words are
// sorted first.
func twoWordPhrases(words map[string]struct{}) []string {
	list := make([]string, 0, len(words))
	for word := range words {
		if len(word) > 3 {
			list = append(list, word)
		}
	}
	sort.Strings(list)

	var phrases []string
	for i := 0; i+1 < len(list); i++ {
		phrases = append(phrases, list[i]+" "+list[i+1])
	}
	return phrases
}
