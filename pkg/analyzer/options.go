// Package analyzer implements the Text Analyzer (spec §4.2): entity
// recognition, keyword extraction, sentiment scoring, statistics, and
// summary over a single text, with a regex/lexicon fallback when the
// advanced NLP model cannot be used.
package analyzer

import "github.com/adaptive-scale/docmine/pkg/apierr"

// Options enumerates which analyzer subsystems to run.
type Options struct {
	IncludeEntities   bool `json:"include_entities"`
	IncludeKeywords   bool `json:"include_keywords"`
	TopKeywords       int  `json:"top_keywords"`
	IncludeSentiment  bool `json:"include_sentiment"`
	IncludeStatistics bool `json:"include_statistics"`
	IncludeSummary    bool `json:"include_summary"`
}

const (
	defaultTopKeywords = 10
	minTopKeywords     = 1
	maxTopKeywords     = 50
)

// Normalize applies the default TopKeywords and validates option ranges,
// returning an apierr.InvalidInput error when TopKeywords is out of bounds.
func (o Options) Normalize() (Options, error) {
	if o.TopKeywords == 0 {
		o.TopKeywords = defaultTopKeywords
	}
	if o.TopKeywords < minTopKeywords || o.TopKeywords > maxTopKeywords {
		return o, apierr.New(apierr.InvalidInput, "top_keywords must be between 1 and 50")
	}
	return o, nil
}
