package analyzer

// sentimentLexicon maps lowercase words to a polarity weight. It is used by
// both analyzer modes, since sentiment scoring in this package is always
// lexicon-based (spec §4.2) rather than model-based.
var sentimentLexicon = map[string]float64{
	"good": 1, "great": 1.5, "excellent": 2, "amazing": 2, "wonderful": 1.8,
	"fantastic": 1.8, "positive": 1, "beneficial": 1, "success": 1.2,
	"successful": 1.2, "happy": 1.2, "pleased": 1, "satisfied": 1,
	"improve": 0.8, "improved": 0.8, "improvement": 0.8, "effective": 1,
	"efficient": 1, "strong": 0.8, "best": 1.5, "better": 0.8, "love": 1.5,
	"impressive": 1.3, "outstanding": 1.8, "superb": 1.8, "valuable": 0.9,
	"advantage": 0.8, "benefit": 0.9, "innovative": 0.9, "reliable": 0.9,

	"bad": -1, "poor": -1, "terrible": -2, "awful": -2, "horrible": -2,
	"negative": -1, "fail": -1.2, "failure": -1.2, "failed": -1.2,
	"unhappy": -1.2, "disappointed": -1.2, "disappointing": -1.2,
	"problem": -0.8, "problems": -0.8, "issue": -0.6, "issues": -0.6,
	"worse": -0.8, "worst": -1.5, "weak": -0.8, "hate": -1.5,
	"difficult": -0.7, "broken": -1, "error": -0.8, "errors": -0.8,
	"risk": -0.5, "risky": -0.7, "concern": -0.5, "concerns": -0.5,
	"inadequate": -1, "inferior": -1, "defective": -1.3, "flawed": -1,
}

func lexiconScore(word string) (float64, bool) {
	v, ok := sentimentLexicon[word]
	return v, ok
}
