package paragraph

import (
	"regexp"
	"strings"
	"unicode"

	commonregex "github.com/mingrammer/commonregex"
)

var (
	numberRe      = regexp.MustCompile(`\d`)
	specialRe     = regexp.MustCompile(`[^a-zA-Z0-9\s.,!?'"-]`)
	sentenceEndRe = regexp.MustCompile(`[.!?]+(\s|$)`)
	bulletRe      = regexp.MustCompile(`^\s*([-*•‣◦]|[0-9]+[.)]|[a-zA-Z][.)])\s+`)
	titleWordRe   = regexp.MustCompile(`^[A-Z][a-zA-Z'-]*$`)
)

// headingRepeatTracker counts the paragraph texts seen so far in a document,
// compared after trimming and lowercasing, so that a repeated page header is
// flagged likely_heading even though it would not otherwise look like one.
// Every occurrence counts, whether on the same page or on different pages;
// only the third and later occurrences are flagged, the first two keep the
// flag ComputeMetadata gave them.
type headingRepeatTracker struct {
	counts map[string]int
}

func newHeadingRepeatTracker() *headingRepeatTracker {
	return &headingRepeatTracker{counts: make(map[string]int)}
}

func (t *headingRepeatTracker) observe(text string) bool {
	key := strings.TrimSpace(strings.ToLower(text))
	t.counts[key]++
	return t.counts[key] >= 3
}

// ComputeMetadata derives the enrichment fields from text alone (spec
// invariant: enrichment fields are pure functions of text).
func ComputeMetadata(text string) Metadata {
	m := Metadata{}

	words := strings.Fields(text)
	m.SentenceCount = countSentences(text)
	m.AvgWordLength = avgWordLength(words)
	m.HasNumbers = numberRe.MatchString(text)
	m.HasSpecialChars = specialRe.MatchString(text)
	m.StartsWithCapital = startsWithCapital(text)
	m.EndsWithPunct = endsWithPunctuation(text)
	m.IsQuestion = strings.HasSuffix(strings.TrimSpace(text), "?")
	m.LikelyListItem = bulletRe.MatchString(text)
	m.LikelyHeading = looksLikeHeading(text, words, m.EndsWithPunct)
	m.HasDates = len(commonregex.Dates(text)) > 0
	m.HasEmails = len(commonregex.Emails(text)) > 0
	m.HasURLs = len(commonregex.Links(text)) > 0

	return m
}

func countSentences(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	n := len(sentenceEndRe.FindAllString(text, -1))
	if n == 0 {
		return 1
	}
	return n
}

func avgWordLength(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len([]rune(w))
	}
	return float64(total) / float64(len(words))
}

func startsWithCapital(text string) bool {
	for _, r := range text {
		return unicode.IsUpper(r)
	}
	return false
}

func endsWithPunctuation(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	last := rune(text[len(text)-1])
	return last == '.' || last == '!' || last == '?' || last == ':' || last == ';'
}

// looksLikeHeading approximates "short, no terminal punctuation,
// title-case-ish" from spec §3.
func looksLikeHeading(text string, words []string, endsWithPunct bool) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(words) == 0 || len(words) > 12 {
		return false
	}
	if endsWithPunct && !strings.HasSuffix(trimmed, ":") {
		return false
	}
	titleish := 0
	for _, w := range words {
		clean := strings.Trim(w, `"'(),`)
		if clean == "" {
			continue
		}
		if titleWordRe.MatchString(clean) || isStopwordLower(clean) {
			titleish++
		}
	}
	return float64(titleish)/float64(len(words)) >= 0.6
}

var headingStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true, "or": true,
	"in": true, "on": true, "to": true, "for": true, "with": true, "vs": true,
}

func isStopwordLower(word string) bool {
	return headingStopwords[strings.ToLower(word)]
}
