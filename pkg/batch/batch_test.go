package batch

import (
	"testing"

	"github.com/adaptive-scale/docmine/pkg/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_RejectsOutOfRangeBatchSize(t *testing.T) {
	a := &analyzer.Analyzer{ForceFallback: true}
	_, err := Analyze(a, nil, analyzer.Options{})
	require.Error(t, err)

	texts := make([]string, 101)
	for i := range texts {
		texts[i] = "text"
	}
	_, err = Analyze(a, texts, analyzer.Options{})
	require.Error(t, err)
}

func TestAnalyze_PreservesInputOrder(t *testing.T) {
	a := &analyzer.Analyzer{ForceFallback: true}
	texts := []string{"first document here", "second document here", "third document here"}
	res, err := Analyze(a, texts, analyzer.Options{IncludeSummary: true})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	for i, r := range res.Results {
		assert.Equal(t, i, r.Index)
		require.NotNil(t, r.Result)
	}
}

func TestAnalyze_ReportsTotalTexts(t *testing.T) {
	a := &analyzer.Analyzer{ForceFallback: true}
	texts := []string{
		"This is a great and wonderful success.",
		"This was a terrible failure with many problems.",
		"The meeting is scheduled for Tuesday.",
	}
	res, err := Analyze(a, texts, analyzer.Options{IncludeSentiment: true})
	require.NoError(t, err)
	assert.Equal(t, len(texts), res.TotalTexts)
	assert.Equal(t, res.Sentiment.PositiveCount+res.Sentiment.NeutralCount+res.Sentiment.NegativeCount, res.TotalTexts)
}

func TestAnalyze_MergesEntitiesByTextAndLabelWithCount(t *testing.T) {
	a := &analyzer.Analyzer{ForceFallback: true}
	texts := []string{
		"Contact jane@example.com for details.",
		"Reach jane@example.com again tomorrow.",
	}
	res, err := Analyze(a, texts, analyzer.Options{IncludeEntities: true})
	require.NoError(t, err)
	var found bool
	for _, e := range res.Entities {
		if e.Text == "jane@example.com" && e.Label == "EMAIL" {
			found = true
			assert.Equal(t, 2, e.Count)
		}
	}
	assert.True(t, found)
}

func TestAnalyze_SentimentAggregateCountsClasses(t *testing.T) {
	a := &analyzer.Analyzer{ForceFallback: true}
	texts := []string{
		"This is a great and wonderful success.",
		"This was a terrible failure with many problems.",
		"The meeting is scheduled for Tuesday.",
	}
	res, err := Analyze(a, texts, analyzer.Options{IncludeSentiment: true})
	require.NoError(t, err)
	require.NotNil(t, res.Sentiment)
	assert.Equal(t, 1, res.Sentiment.PositiveCount)
	assert.Equal(t, 1, res.Sentiment.NegativeCount)
	assert.Equal(t, 1, res.Sentiment.NeutralCount)
}

func TestAnalyze_StatisticsRequiresNoExplicitSummaryOption(t *testing.T) {
	a := &analyzer.Analyzer{ForceFallback: true}
	texts := []string{"one two three", "four five six seven"}
	res, err := Analyze(a, texts, analyzer.Options{IncludeStatistics: true})
	require.NoError(t, err)
	require.NotNil(t, res.Statistics)
	assert.Equal(t, 7, res.Statistics.TotalWordCount)
	for _, r := range res.Results {
		assert.Nil(t, r.Result.Summary)
	}
}
