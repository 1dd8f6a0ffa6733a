package analyzer

import (
	"regexp"
	"strings"
)

var sentenceBoundaryRe = regexp.MustCompile(`[.!?]+(\s|$)`)

// computeSummary is a pure-counting digest; it never depends on which
// analyzer mode is active.
func computeSummary(text string) Summary {
	words := strings.Fields(text)
	wordCount := len(words)

	unique := make(map[string]bool, wordCount)
	var totalWordLen int
	for _, w := range words {
		totalWordLen += len([]rune(w))
		unique[strings.ToLower(strings.Trim(w, `.,!?;:"'()`))] = true
	}

	sentenceCount := len(sentenceBoundaryRe.FindAllString(text, -1))
	if sentenceCount == 0 && strings.TrimSpace(text) != "" {
		sentenceCount = 1
	}

	var avgWordLen, avgSentenceLen, diversity float64
	if wordCount > 0 {
		avgWordLen = float64(totalWordLen) / float64(wordCount)
		diversity = float64(len(unique)) / float64(wordCount)
	}
	if sentenceCount > 0 {
		avgSentenceLen = float64(wordCount) / float64(sentenceCount)
	}

	return Summary{
		WordCount:         wordCount,
		CharCount:         len([]rune(text)),
		SentenceCount:     sentenceCount,
		AvgWordLength:     avgWordLen,
		AvgSentenceLength: avgSentenceLen,
		UniqueWords:       len(unique),
		LexicalDiversity:  diversity,
	}
}
