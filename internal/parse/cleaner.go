package parse

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// defaultFillerWords are verbal tics removed from sentence text. Multi-word
// fillers are matched as whole phrases.
var defaultFillerWords = []string{
	"um", "uh", "umm", "uhh", "er", "ah", "like", "you know",
	"i mean", "sort of", "kind of", "basically", "actually",
	"literally", "right", "okay", "ok", "yeah", "yep", "mhm",
}

// transcriberTags are annotations inserted by transcription tools that carry
// no training content.
var transcriberTags = []string{
	"[inaudible]", "[crosstalk]", "[laughter]", "[music]",
	"[applause]", "[silence]", "(inaudible)", "(crosstalk)",
	"(laughter)", "(laughs)", "(music)", "(applause)", "(silence)",
	"[unintelligible]", "(unintelligible)",
}

// repetitiveTemplates are instructor boilerplate phrases that repeat across
// a session and pollute evidence matching when cited.
var repetitiveTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)continuing in our hands[- ]on section`),
	regexp.MustCompile(`(?i)let's continue with (?:the|our) hands[- ]on`),
	regexp.MustCompile(`(?i)moving on to (?:the )?next (?:part|section|topic)`),
	regexp.MustCompile(`(?i)as (?:i|we) mentioned (?:before|earlier)`),
	regexp.MustCompile(`(?i)like (?:i|we) said`),
	regexp.MustCompile(`(?i)(?:so|now),? let's move on`),
	regexp.MustCompile(`(?i)(?:okay|alright),? (?:so|now)`),
	regexp.MustCompile(`(?i)and that's it for (?:this|that) (?:part|section)`),
	regexp.MustCompile(`(?i)we(?:'ll| will) get (?:back )?to (?:this|that) later`),
	regexp.MustCompile(`(?i)we(?:'ll| will) discuss (?:this|that) (?:more )?(?:later|soon)`),
}

// visualMarkerPattern matches structural annotations that must survive
// cleaning: they describe what is on screen and ground visual evidence.
var visualMarkerPattern = regexp.MustCompile(`(?i)\[(?:screen shows|diagram|slide|demo|code|architecture|showing)[^\]]*\]`)

var (
	bracketTagPattern = regexp.MustCompile(`\[[\w\s]+\]`)
	parenTagPattern   = regexp.MustCompile(`\([\w\s]+\)`)
	missingSpaceAfter = regexp.MustCompile(`([.!?,;:])([A-Za-z])`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([.!?,;:])`)
	repeatedPunct     = regexp.MustCompile(`([.!?]){2,}`)
	multiSpace        = regexp.MustCompile(` {2,}`)
)

// Cleaner normalizes sentence text after parsing: transcriber tags, filler
// words, and repeated instructor boilerplate are removed, punctuation and
// whitespace repaired. Timestamps and speaker labels are the parser's job
// and are already gone by the time text reaches the cleaner.
type Cleaner struct {
	fillerPattern *regexp.Regexp
}

// NewCleaner creates a cleaner, optionally extending the filler word list.
func NewCleaner(customFillers ...string) *Cleaner {
	fillers := make([]string, 0, len(defaultFillerWords)+len(customFillers))
	fillers = append(fillers, defaultFillerWords...)
	for _, f := range customFillers {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			fillers = append(fillers, f)
		}
	}

	// Longer fillers first so "you know" wins over any single-word overlap
	sort.Slice(fillers, func(i, j int) bool { return len(fillers[i]) > len(fillers[j]) })
	for i, f := range fillers {
		fillers[i] = regexp.QuoteMeta(f)
	}

	return &Cleaner{
		fillerPattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(fillers, "|") + `)\b`),
	}
}

// Normalize cleans one sentence. Visual markers like [screen shows the
// portal] are preserved; every other bracketed or parenthesized annotation
// is dropped.
func (c *Cleaner) Normalize(text string) string {
	text = c.removeTranscriberTags(text)
	text = c.fillerPattern.ReplaceAllString(text, "")
	for _, pattern := range repetitiveTemplates {
		text = pattern.ReplaceAllString(text, "")
	}
	text = fixPunctuation(text)
	return normalizeWhitespace(text)
}

func (c *Cleaner) removeTranscriberTags(text string) string {
	for _, tag := range transcriberTags {
		text = strings.ReplaceAll(text, tag, "")
	}

	// Shield visual markers behind placeholders, strip the remaining
	// bracketed and parenthesized tags, then restore them
	var preserved []string
	text = visualMarkerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		preserved = append(preserved, marker)
		return "\x00" + strconv.Itoa(len(preserved)-1) + "\x00"
	})

	text = bracketTagPattern.ReplaceAllString(text, "")
	text = parenTagPattern.ReplaceAllString(text, "")

	for i, marker := range preserved {
		text = strings.Replace(text, "\x00"+strconv.Itoa(i)+"\x00", marker, 1)
	}

	return text
}

func fixPunctuation(text string) string {
	text = missingSpaceAfter.ReplaceAllString(text, "$1 $2")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = repeatedPunct.ReplaceAllString(text, "$1")
	return text
}

func normalizeWhitespace(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
