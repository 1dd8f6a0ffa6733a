package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
)

var wordRe = regexp.MustCompile(`[A-Za-z][A-Za-z'-]*`)

// keywordsAdvanced groups adjacent noun/adjective-tagged tokens into
// candidate noun phrases, scores them by frequency, and boosts (1.5x, typed
// as an entity) any phrase whose lowercased text equals a recognized
// entity's text.
func keywordsAdvanced(doc *prose.Document, entities []Entity, topN int) []Keyword {
	phrases := extractNounPhrases(doc)

	counts := make(map[string]int)
	order := make([]string, 0, len(phrases))
	for _, p := range phrases {
		key := strings.ToLower(p)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}

	entityText := make(map[string]bool, len(entities))
	for _, e := range entities {
		entityText[strings.ToLower(e.Text)] = true
	}

	scored := make([]Keyword, 0, len(order))
	for _, key := range order {
		score := float64(counts[key])
		kind := KeywordTypeNounPhrase
		if entityText[key] {
			score *= 1.5
			kind = KeywordTypeEntity
		}
		scored = append(scored, Keyword{Keyword: key, Score: score, Type: kind})
	}
	return topKeywords(scored, order, topN)
}

// extractNounPhrases walks prose's POS tags and merges consecutive
// adjective/noun tokens into a single phrase, the way a shallow chunker
// would without a dedicated chunking model.
func extractNounPhrases(doc *prose.Document) []string {
	var phrases []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			phrases = append(phrases, strings.Join(current, " "))
			current = nil
		}
	}
	for _, tok := range doc.Tokens() {
		if isNounOrAdjTag(tok.Tag) && wordRe.MatchString(tok.Text) {
			current = append(current, tok.Text)
			continue
		}
		flush()
	}
	flush()
	return phrases
}

func isNounOrAdjTag(tag string) bool {
	switch tag {
	case "NN", "NNS", "NNP", "NNPS", "JJ", "JJR", "JJS":
		return true
	default:
		return false
	}
}

// keywordsFallback tokenizes on word boundaries, drops stopwords, and
// scores by raw frequency.
func keywordsFallback(text string, topN int) []Keyword {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, w := range wordRe.FindAllString(text, -1) {
		lw := strings.ToLower(w)
		if len(lw) < 3 || isStopword(lw) {
			continue
		}
		if counts[lw] == 0 {
			order = append(order, lw)
		}
		counts[lw]++
	}
	scored := make([]Keyword, 0, len(order))
	for _, w := range order {
		scored = append(scored, Keyword{Keyword: w, Score: float64(counts[w]), Type: KeywordTypeNounPhrase})
	}
	return topKeywords(scored, order, topN)
}

// topKeywords sorts by descending score, breaking ties by first-appearance
// order (the order slice), and truncates to topN.
func topKeywords(scored []Keyword, order []string, topN int) []Keyword {
	rank := make(map[string]int, len(order))
	for i, w := range order {
		rank[w] = i
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return rank[scored[i].Keyword] < rank[scored[j].Keyword]
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}
