// Package batch implements the Batch Aggregator (spec §4.3): running the
// Text Analyzer over many texts and merging their results.
package batch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adaptive-scale/docmine/pkg/analyzer"
	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/montanaflynn/stats"
)

const (
	minBatchSize = 1
	maxBatchSize = 100
	topEntities  = 50
	topKeywords  = 50
)

// TextResult is one text's per-item outcome: either Result or Error is set,
// never both, and a per-text failure never aborts the rest of the batch.
type TextResult struct {
	Index  int             `json:"index"`
	Result *analyzer.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// EntityAggregate is one (text, label) pair merged across the batch.
type EntityAggregate struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// KeywordAggregate is one keyword merged across the batch.
type KeywordAggregate struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
	Count   int     `json:"count"`
}

// SentimentAggregate summarizes sentiment across the batch.
type SentimentAggregate struct {
	PositiveCount int     `json:"positive_count"`
	NeutralCount  int     `json:"neutral_count"`
	NegativeCount int     `json:"negative_count"`
	AverageScore  float64 `json:"average_score"`
}

// StatisticsAggregate sums totals and averages the per-text averages.
type StatisticsAggregate struct {
	TotalWordCount       int     `json:"total_word_count"`
	TotalCharCount       int     `json:"total_char_count"`
	TotalSentenceCount   int     `json:"total_sentence_count"`
	TotalUniqueWords     int     `json:"total_unique_words"`
	AvgWordLength        float64 `json:"avg_word_length"`
	AvgLexicalDiversity  float64 `json:"avg_lexical_diversity"`
}

// Result is the aggregated outcome of analyzing a batch of texts.
type Result struct {
	TotalTexts int                   `json:"total_texts"`
	Results    []TextResult          `json:"results"`
	Entities   []EntityAggregate     `json:"entities,omitempty"`
	Keywords   []KeywordAggregate    `json:"keywords,omitempty"`
	Sentiment  *SentimentAggregate   `json:"sentiment,omitempty"`
	Statistics *StatisticsAggregate  `json:"statistics,omitempty"`
}

// Analyze runs a.Analyze over every text in order, then aggregates the
// per-text results. texts must have between 1 and 100 entries.
func Analyze(a *analyzer.Analyzer, texts []string, opts analyzer.Options) (*Result, error) {
	if len(texts) < minBatchSize || len(texts) > maxBatchSize {
		return nil, apierr.New(apierr.BatchTooLarge, fmt.Sprintf("batch must contain between %d and %d texts, got %d", minBatchSize, maxBatchSize, len(texts)))
	}

	// The statistics aggregate is computed from each text's Summary
	// subsystem; request it even if the caller didn't, then strip it back
	// out of the per-text results below if they didn't ask for it.
	perTextOpts := opts
	if opts.IncludeStatistics && !opts.IncludeSummary {
		perTextOpts.IncludeSummary = true
	}

	textResults := make([]TextResult, len(texts))
	for i, text := range texts {
		res, err := a.Analyze(text, perTextOpts)
		if err != nil {
			textResults[i] = TextResult{Index: i, Error: err.Error()}
			continue
		}
		textResults[i] = TextResult{Index: i, Result: res}
	}

	statsAgg := mergeStatistics(textResults)
	if !opts.IncludeSummary {
		for i := range textResults {
			if textResults[i].Result != nil {
				textResults[i].Result.Summary = nil
			}
		}
	}

	out := &Result{TotalTexts: len(texts), Results: textResults}
	if opts.IncludeEntities {
		out.Entities = mergeEntities(textResults)
	}
	if opts.IncludeKeywords {
		out.Keywords = mergeKeywords(textResults)
	}
	if opts.IncludeSentiment {
		s := mergeSentiment(textResults)
		out.Sentiment = &s
	}
	if opts.IncludeStatistics {
		out.Statistics = &statsAgg
	}
	return out, nil
}

type entityKey struct {
	text  string
	label string
}

func mergeEntities(results []TextResult) []EntityAggregate {
	counts := make(map[entityKey]int)
	firstSeen := make(map[entityKey]int)
	order := 0
	for _, r := range results {
		if r.Result == nil || r.Result.Entities == nil {
			continue
		}
		seenInText := make(map[entityKey]bool)
		for _, e := range *r.Result.Entities {
			key := entityKey{text: strings.ToLower(e.Text), label: e.Label}
			if seenInText[key] {
				continue
			}
			seenInText[key] = true
			if counts[key] == 0 {
				firstSeen[key] = order
				order++
			}
			counts[key]++
		}
	}

	agg := make([]EntityAggregate, 0, len(counts))
	for key, count := range counts {
		agg = append(agg, EntityAggregate{Text: key.text, Label: key.label, Count: count})
	}
	sort.SliceStable(agg, func(i, j int) bool {
		if agg[i].Count != agg[j].Count {
			return agg[i].Count > agg[j].Count
		}
		ki := entityKey{agg[i].Text, agg[i].Label}
		kj := entityKey{agg[j].Text, agg[j].Label}
		return firstSeen[ki] < firstSeen[kj]
	})
	if len(agg) > topEntities {
		agg = agg[:topEntities]
	}
	return agg
}

func mergeKeywords(results []TextResult) []KeywordAggregate {
	sums := make(map[string]float64)
	docFreq := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, r := range results {
		if r.Result == nil || r.Result.Keywords == nil {
			continue
		}
		seenInText := make(map[string]bool)
		for _, k := range *r.Result.Keywords {
			if docFreq[k.Keyword] == 0 {
				firstSeen[k.Keyword] = order
				order++
			}
			sums[k.Keyword] += k.Score
			if !seenInText[k.Keyword] {
				docFreq[k.Keyword]++
				seenInText[k.Keyword] = true
			}
		}
	}

	agg := make([]KeywordAggregate, 0, len(sums))
	for kw, sum := range sums {
		agg = append(agg, KeywordAggregate{
			Keyword: kw,
			Score:   sum / float64(docFreq[kw]),
			Count:   docFreq[kw],
		})
	}
	sort.SliceStable(agg, func(i, j int) bool {
		if agg[i].Score != agg[j].Score {
			return agg[i].Score > agg[j].Score
		}
		if agg[i].Count != agg[j].Count {
			return agg[i].Count > agg[j].Count
		}
		return firstSeen[agg[i].Keyword] < firstSeen[agg[j].Keyword]
	})
	if len(agg) > topKeywords {
		agg = agg[:topKeywords]
	}
	return agg
}

func mergeSentiment(results []TextResult) SentimentAggregate {
	var agg SentimentAggregate
	var scores []float64
	for _, r := range results {
		if r.Result == nil || r.Result.Sentiment == nil {
			continue
		}
		switch r.Result.Sentiment.Sentiment {
		case analyzer.SentimentPositive:
			agg.PositiveCount++
		case analyzer.SentimentNegative:
			agg.NegativeCount++
		default:
			agg.NeutralCount++
		}
		scores = append(scores, r.Result.Sentiment.Score)
	}
	if len(scores) > 0 {
		mean, err := stats.Mean(scores)
		if err == nil {
			agg.AverageScore = mean
		}
	}
	return agg
}

func mergeStatistics(results []TextResult) StatisticsAggregate {
	var agg StatisticsAggregate
	var wordLens, diversities []float64
	for _, r := range results {
		if r.Result == nil || r.Result.Summary == nil {
			continue
		}
		s := r.Result.Summary
		agg.TotalWordCount += s.WordCount
		agg.TotalCharCount += s.CharCount
		agg.TotalSentenceCount += s.SentenceCount
		agg.TotalUniqueWords += s.UniqueWords
		wordLens = append(wordLens, s.AvgWordLength)
		diversities = append(diversities, s.LexicalDiversity)
	}
	if len(wordLens) > 0 {
		if m, err := stats.Mean(wordLens); err == nil {
			agg.AvgWordLength = m
		}
	}
	if len(diversities) > 0 {
		if m, err := stats.Mean(diversities); err == nil {
			agg.AvgLexicalDiversity = m
		}
	}
	return agg
}
