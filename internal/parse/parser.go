// Package parse turns raw transcript text into metadata-enriched sentences.
// It handles the timestamp and speaker label formats produced by common
// meeting tools and classifies each sentence (question, transition, emphasis).
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/stepsmith/internal/model"
)

// longPauseSeconds is the gap after which a sentence is considered to follow
// a long pause.
const longPauseSeconds = 90.0

// timestampPatterns are tried in order; each captures hours, minutes, seconds
// and optionally ignores a millisecond suffix.
var timestampPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\[(\d{1,2}):(\d{2}):(\d{2})(?:\.\d{3})?\]\s*`), // [00:01:05] or [00:01:05.123]
	regexp.MustCompile(`^\((\d{1,2}):(\d{2}):(\d{2})(?:\.\d{3})?\)\s*`), // (00:01:05)
	regexp.MustCompile(`^<(\d{1,2}):(\d{2}):(\d{2})(?:\.\d{3})?>?\s*`),  // <00:01:05>
	regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})(?:\.\d{3})?\s*-\s*`), // 00:01:05 -
	regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})(?:\.\d{3})?\s+`),     // 00:01:05 text
}

// speakerPatterns are tried in order against the line after timestamp removal.
var speakerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(Speaker\s*\d*)\s*:\s*`),                     // Speaker 1: or Speaker:
	regexp.MustCompile(`^([A-Z][a-z]+)\s*:\s*`),                           // John:
	regexp.MustCompile(`(?i)^\[(Speaker\s*\d*|[A-Z][a-z]+)\]\s*:\s*`),     // [Speaker 1]: or [John]:
	regexp.MustCompile(`(?i)^>>\s*(Speaker\s*\d*|[A-Z][a-z]+)\s*:\s*`),    // >> Speaker 1:
	regexp.MustCompile(`(?i)^\*\*(Speaker\s*\d*|[A-Z][a-z]+)\*\*\s*:\s*`), // **Speaker 1**:
}

// transitionPhrases indicate topic changes: explicit cues, ordinal markers,
// and topic-introduction openers.
var transitionPhrases = []string{
	`\b(?:now|next|okay|alright|so),?\s+let'?s\s+`,
	`\bmoving on\b`,
	`\bnow (?:let's|we'll|we will)\b`,
	`\bnext,?\s+(?:we'll|we're|we will|up|step|part|section)\b`,
	`\b(?:first|second|third|finally|lastly)\b`,
	`\bstep \d+\b`,
	`\bpart \d+\b`,
	`\blet's talk about\b`,
	`\blet's discuss\b`,
	`\blet's move (?:on )?to\b`,
	`\bthe next (?:thing|topic|item)\b`,
}

var transitionPattern = regexp.MustCompile(`(?i)` + strings.Join(transitionPhrases, "|"))

// questionWords open interrogative sentences, including inverted auxiliaries.
var questionWords = []string{
	"what", "when", "where", "who", "whom", "whose",
	"why", "how", "which", "can", "could", "would",
	"should", "is", "are", "do", "does", "did",
}

var (
	allCapsPattern  = regexp.MustCompile(`\b[A-Z]{3,}\b`)
	emphasisPattern = regexp.MustCompile(`\*\*[^*]+\*\*|__[^_]+__|[*_][^*_]+[*_]`)
	sentenceEnd     = regexp.MustCompile(`([.!?]+)\s+`)
)

// Parser extracts structured sentences from raw transcript text.
type Parser struct{}

// NewParser creates a new transcript parser.
func NewParser() *Parser {
	return &Parser{}
}

// parsedLine is one transcript line with its stripped prefixes.
type parsedLine struct {
	text         string
	raw          string
	timestamp    float64
	hasTimestamp bool
	speaker      string
}

// Parse splits the transcript into sentences, classifies each, computes
// relational flags, and aggregates transcript-wide metadata. Malformed
// timestamp or speaker tokens are never fatal: the line is kept as plain text.
func (p *Parser) Parse(rawTranscript string) ([]model.ParsedSentence, model.TranscriptMetadata) {
	lines := p.parseLines(rawTranscript)
	if len(lines) == 0 {
		return nil, model.TranscriptMetadata{}
	}

	sentences := p.splitIntoSentences(lines)
	p.computeRelationships(sentences)
	metadata := p.buildMetadata(sentences)

	return sentences, metadata
}

// parseLines strips timestamp and speaker prefixes from each non-empty line.
func (p *Parser) parseLines(rawTranscript string) []parsedLine {
	var lines []parsedLine

	for _, line := range strings.Split(rawTranscript, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		timestamp, hasTimestamp, rest := extractTimestamp(line)
		speaker, text := extractSpeaker(rest)

		lines = append(lines, parsedLine{
			text:         strings.TrimSpace(text),
			raw:          line,
			timestamp:    timestamp,
			hasTimestamp: hasTimestamp,
			speaker:      speaker,
		})
	}

	return lines
}

// extractTimestamp returns (seconds, found, remaining text).
func extractTimestamp(line string) (float64, bool, string) {
	for _, pattern := range timestampPatterns {
		match := pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		hours, _ := strconv.Atoi(match[1])
		minutes, _ := strconv.Atoi(match[2])
		seconds, _ := strconv.Atoi(match[3])

		total := float64(hours*3600 + minutes*60 + seconds)
		return total, true, line[len(match[0]):]
	}
	return 0, false, line
}

// extractSpeaker returns (speaker name, remaining text).
func extractSpeaker(line string) (string, string) {
	for _, pattern := range speakerPatterns {
		match := pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		return match[1], line[len(match[0]):]
	}
	return "", line
}

// splitIntoSentences tokenizes each line's text; every sentence inherits the
// line's timestamp and speaker and is classified in place.
func (p *Parser) splitIntoSentences(lines []parsedLine) []model.ParsedSentence {
	var sentences []model.ParsedSentence

	for _, line := range lines {
		if line.text == "" {
			continue
		}
		for _, text := range tokenizeSentences(line.text) {
			sentences = append(sentences, model.ParsedSentence{
				Text:          text,
				RawText:       line.raw,
				SentenceIndex: len(sentences),
				Timestamp:     line.timestamp,
				HasTimestamp:  line.hasTimestamp,
				Speaker:       line.speaker,
				IsQuestion:    isQuestion(text),
				IsTransition:  transitionPattern.MatchString(text),
				HasEmphasis:   hasEmphasis(text),
			})
		}
	}

	return sentences
}

// tokenizeSentences splits text on terminal punctuation followed by space,
// dropping fragments shorter than four characters.
func tokenizeSentences(text string) []string {
	var sentences []string

	start := 0
	for _, loc := range sentenceEnd.FindAllStringSubmatchIndex(text, -1) {
		// loc[3] is the end of the punctuation group.
		candidate := strings.TrimSpace(text[start:loc[3]])
		if len(candidate) > 3 {
			sentences = append(sentences, candidate)
		}
		start = loc[1]
	}

	if rest := strings.TrimSpace(text[start:]); len(rest) > 3 {
		sentences = append(sentences, rest)
	}

	return sentences
}

// isQuestion checks for a terminal "?" or a leading question word.
func isQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "?") {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, word := range questionWords {
		if lower == word || strings.HasPrefix(lower, word+" ") {
			return true
		}
	}
	return false
}

// hasEmphasis detects ALL-CAPS runs of 3+ letters or markdown emphasis.
func hasEmphasis(text string) bool {
	return allCapsPattern.MatchString(text) || emphasisPattern.MatchString(text)
}

// computeRelationships fills in the flags that depend on the previous
// sentence: long pauses and speaker changes.
func (p *Parser) computeRelationships(sentences []model.ParsedSentence) {
	for i := 1; i < len(sentences); i++ {
		prev := &sentences[i-1]
		curr := &sentences[i]

		if curr.HasTimestamp && prev.HasTimestamp {
			if curr.Timestamp-prev.Timestamp > longPauseSeconds {
				curr.FollowsLongPause = true
			}
		}

		if curr.Speaker != "" && prev.Speaker != "" && curr.Speaker != prev.Speaker {
			curr.SpeakerChanged = true
		}
	}
}

// buildMetadata aggregates transcript-wide statistics and assigns speaker
// roles: the most frequent speaker becomes the instructor, everyone else a
// participant.
func (p *Parser) buildMetadata(sentences []model.ParsedSentence) model.TranscriptMetadata {
	if len(sentences) == 0 {
		return model.TranscriptMetadata{}
	}

	speakerCounts := make(map[string]int)
	var speakerNames []string
	for _, s := range sentences {
		if s.Speaker == "" {
			continue
		}
		if speakerCounts[s.Speaker] == 0 {
			speakerNames = append(speakerNames, s.Speaker)
		}
		speakerCounts[s.Speaker]++
	}

	primary := ""
	best := 0
	for _, name := range speakerNames {
		if speakerCounts[name] > best {
			primary = name
			best = speakerCounts[name]
		}
	}

	primaryRatio := 0.0
	if primary != "" {
		primaryRatio = float64(speakerCounts[primary]) / float64(len(sentences))
	}

	for i := range sentences {
		if sentences[i].Speaker == "" {
			continue
		}
		if sentences[i].Speaker == primary {
			sentences[i].SpeakerRole = model.RoleInstructor
		} else {
			sentences[i].SpeakerRole = model.RoleParticipant
		}
	}

	meta := model.TranscriptMetadata{
		TotalSentences:      len(sentences),
		TotalSpeakers:       len(speakerNames),
		SpeakerNames:        speakerNames,
		PrimarySpeaker:      primary,
		PrimarySpeakerRatio: primaryRatio,
	}

	for _, s := range sentences {
		if s.HasTimestamp {
			meta.HasTimestamps = true
			if s.Timestamp > meta.DurationSeconds {
				meta.DurationSeconds = s.Timestamp
			}
		}
		if s.IsQuestion {
			meta.QuestionCount++
			if s.SpeakerRole == model.RoleParticipant {
				meta.HasQASections = true
			}
		}
		if s.IsTransition {
			meta.TransitionCount++
		}
	}

	return meta
}
