package analyzer

const sentimentNeutralBand = 0.2

// scoreSentiment is identical in both analyzer modes: it is always
// lexicon-based, never dependent on the advanced NER model. Score is
// (pos_count - neg_count) / max(1, pos_count + neg_count).
func scoreSentiment(words []string) Sentiment {
	var positiveHits, negativeHits int
	for _, w := range words {
		weight, ok := lexiconScore(w)
		if !ok {
			continue
		}
		if weight > 0 {
			positiveHits++
		} else if weight < 0 {
			negativeHits++
		}
	}

	hits := positiveHits + negativeHits
	denom := hits
	if denom < 1 {
		denom = 1
	}
	score := float64(positiveHits-negativeHits) / float64(denom)

	label := SentimentNeutral
	switch {
	case score > sentimentNeutralBand:
		label = SentimentPositive
	case score < -sentimentNeutralBand:
		label = SentimentNegative
	}

	confidence := minFloat(1.0, float64(hits)/10.0)

	return Sentiment{
		Sentiment:          label,
		Score:              score,
		Confidence:         confidence,
		PositiveIndicators: positiveHits,
		NegativeIndicators: negativeHits,
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
