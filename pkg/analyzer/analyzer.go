// Package analyzer implements the Text Analyzer (spec §4.2): entity
// recognition, keyword extraction, sentiment scoring, statistics, and
// summary over a single text, with a regex/lexicon fallback when the
// advanced NLP model cannot be used.
package analyzer

import (
	"strings"

	"github.com/jdkato/prose/v2"
	log "github.com/sirupsen/logrus"
)

const (
	ModeAdvanced = "advanced"
	ModeFallback = "fallback"
)

// Analyzer runs text analysis, preferring prose's statistical models and
// degrading to regex/lexicon heuristics when they are unavailable. Mode
// selection happens per-call, not once at construction, so a transient
// prose failure on one text never permanently disables advanced mode for
// the next one.
type Analyzer struct {
	// ForceFallback skips the advanced model entirely. Used by tests and by
	// callers that have already determined advanced mode is unhealthy.
	ForceFallback bool
}

// New returns an Analyzer that prefers advanced mode.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze runs every subsystem opts requests and returns their combined
// result. The mode is chosen once per call: when the advanced model cannot
// build a document for text (an error, or a panic recovered in
// tryAdvanced), entities and keywords both use the fallback path and a
// warning is added. A panic inside an individual subsystem is not recovered.
func (a *Analyzer) Analyze(text string, opts Options) (*Result, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	result := &Result{
		TextLength: len([]rune(text)),
		Language:   "en",
	}

	doc, mode := a.tryAdvanced(text)
	if mode == ModeFallback {
		result.Warnings = append(result.Warnings, "advanced NLP model unavailable, used fallback analysis")
	}

	var entities []Entity
	if opts.IncludeEntities || opts.IncludeKeywords {
		if mode == ModeAdvanced {
			entities = entitiesAdvanced(doc, text)
		} else {
			entities = entitiesFallback(text)
		}
	}
	if opts.IncludeEntities {
		e := entities
		if e == nil {
			e = []Entity{}
		}
		result.Entities = &e
	}

	if opts.IncludeKeywords {
		var kws []Keyword
		if mode == ModeAdvanced {
			kws = keywordsAdvanced(doc, entities, opts.TopKeywords)
		} else {
			kws = keywordsFallback(text, opts.TopKeywords)
		}
		if kws == nil {
			kws = []Keyword{}
		}
		result.Keywords = &kws
	}

	if opts.IncludeSentiment {
		words := lowercaseWords(text)
		s := scoreSentiment(words)
		result.Sentiment = &s
	}

	if opts.IncludeStatistics {
		s := computeStatistics(text)
		result.Statistics = &s
	}

	if opts.IncludeSummary {
		s := computeSummary(text)
		result.Summary = &s
	}

	return result, nil
}

// tryAdvanced attempts to build a prose document for text, recovering from
// a model panic (prose's embedded model data can choke on pathological
// input) and reporting fallback mode instead of propagating the panic.
func (a *Analyzer) tryAdvanced(text string) (doc *prose.Document, mode string) {
	if a.ForceFallback || strings.TrimSpace(text) == "" {
		return nil, ModeFallback
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Warn("advanced analyzer model panicked, falling back")
			doc, mode = nil, ModeFallback
		}
	}()
	d, err := prose.NewDocument(text)
	if err != nil {
		log.WithError(err).Warn("advanced analyzer model unavailable, falling back")
		return nil, ModeFallback
	}
	return d, ModeAdvanced
}

func lowercaseWords(text string) []string {
	fields := wordRe.FindAllString(text, -1)
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.ToLower(f)
	}
	return out
}

// Health reports whether the advanced model is currently usable, for the
// mine/health endpoint (spec §6).
func (a *Analyzer) Health() (mode string, ok bool) {
	if a.ForceFallback {
		return ModeFallback, true
	}
	_, mode = a.tryAdvanced("The quick brown fox jumps over the lazy dog.")
	return mode, true
}
