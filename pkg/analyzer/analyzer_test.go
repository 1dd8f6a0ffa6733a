package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_OmitsUnrequestedSubsystems(t *testing.T) {
	a := &Analyzer{ForceFallback: true}
	res, err := a.Analyze("Acme Corp reported $5 million in revenue, up 12%.", Options{
		IncludeSummary: true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Entities)
	assert.Nil(t, res.Keywords)
	assert.Nil(t, res.Sentiment)
	assert.Nil(t, res.Statistics)
	require.NotNil(t, res.Summary)
}

func TestAnalyze_RequestedButEmptySubsystemIsPresentNotNil(t *testing.T) {
	a := &Analyzer{ForceFallback: true}
	res, err := a.Analyze("   ", Options{IncludeEntities: true, IncludeKeywords: true})
	require.NoError(t, err)
	require.NotNil(t, res.Entities)
	require.NotNil(t, res.Keywords)
	assert.Empty(t, *res.Entities)
	assert.Empty(t, *res.Keywords)
}

func TestAnalyze_FallbackModeAddsWarning(t *testing.T) {
	a := &Analyzer{ForceFallback: true}
	res, err := a.Analyze("Some text.", Options{IncludeSummary: true})
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, "advanced NLP model unavailable, used fallback analysis")
}

func TestAnalyze_InvalidTopKeywordsRejected(t *testing.T) {
	a := New()
	_, err := a.Analyze("text", Options{IncludeKeywords: true, TopKeywords: 500})
	require.Error(t, err)
}

func TestEntitiesFallback_FindsMoneyAndPercent(t *testing.T) {
	entities := entitiesFallback("Revenue grew to $5,000 which is up 12% from last year.")
	var gotMoney, gotPercent bool
	for _, e := range entities {
		if e.Label == "MONEY" {
			gotMoney = true
		}
		if e.Label == "PERCENT" {
			gotPercent = true
		}
	}
	assert.True(t, gotMoney)
	assert.True(t, gotPercent)
}

func TestEntitiesFallback_SkipsSentenceStartCapital(t *testing.T) {
	entities := entitiesFallback("The company grew this year.")
	for _, e := range entities {
		assert.NotEqual(t, "The", e.Text)
	}
}

func TestKeywordsFallback_DropsStopwordsAndShortWords(t *testing.T) {
	kws := keywordsFallback("the cat sat on the mat and the cat slept", 5)
	for _, k := range kws {
		assert.NotEqual(t, "the", k.Keyword)
		assert.NotEqual(t, "on", k.Keyword)
	}
	require.NotEmpty(t, kws)
	assert.Equal(t, "cat", kws[0].Keyword)
}

func TestScoreSentiment_ClassifiesPositiveNegativeNeutral(t *testing.T) {
	pos := scoreSentiment(lowercaseWords("This is a great and wonderful success."))
	assert.Equal(t, SentimentPositive, pos.Sentiment)

	neg := scoreSentiment(lowercaseWords("This was a terrible failure with many problems."))
	assert.Equal(t, SentimentNegative, neg.Sentiment)

	neutral := scoreSentiment(lowercaseWords("The meeting is scheduled for Tuesday."))
	assert.Equal(t, SentimentNeutral, neutral.Sentiment)
}

func TestComputeStatistics_SeparatesNumbersFromClaimedSpans(t *testing.T) {
	s := computeStatistics("We grew 12% to $5,000 over 3 quarters, shipping 10kg of product.")
	assert.Contains(t, s.Percentages, "12%")
	assert.Contains(t, s.Currencies, "$5,000")
	require.NotEmpty(t, s.Measurements)
	assert.Contains(t, s.Numbers, float64(3))
	assert.NotContains(t, s.Numbers, float64(12))
}

func TestComputeSummary_CountsWordsAndSentences(t *testing.T) {
	s := computeSummary("One two three. Four five six seven.")
	assert.Equal(t, 7, s.WordCount)
	assert.Equal(t, 2, s.SentenceCount)
	assert.InDelta(t, 3.5, s.AvgSentenceLength, 0.01)
}

func TestNumericSummary_EmptyInputIsZeroNotError(t *testing.T) {
	mean, median, stdDev, err := numericSummary(nil)
	require.NoError(t, err)
	assert.Zero(t, mean)
	assert.Zero(t, median)
	assert.Zero(t, stdDev)
}
