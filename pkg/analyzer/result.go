package analyzer

// Entity is a named entity found in text; Start/End are character offsets
// into the source text with 0 <= Start < End <= len(text).
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Keyword is a scored keyword or keyphrase.
type Keyword struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
	Type    string  `json:"type"`
}

const (
	KeywordTypeNounPhrase = "noun_phrase"
	KeywordTypeEntity     = "entity"
)

// Sentiment is a lexicon-scored sentiment classification.
type Sentiment struct {
	Sentiment          string  `json:"sentiment"`
	Score              float64 `json:"score"`
	Confidence         float64 `json:"confidence"`
	PositiveIndicators int     `json:"positive_indicators"`
	NegativeIndicators int     `json:"negative_indicators"`
}

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Statistics holds the numeric/structured facts pulled out of text.
type Statistics struct {
	Numbers      []float64 `json:"numbers"`
	Percentages  []string  `json:"percentages"`
	Currencies   []string  `json:"currencies"`
	Measurements []string  `json:"measurements"`
}

// Summary is a purely-counted digest of the text.
type Summary struct {
	WordCount          int     `json:"word_count"`
	CharCount          int     `json:"char_count"`
	SentenceCount      int     `json:"sentence_count"`
	AvgWordLength      float64 `json:"avg_word_length"`
	AvgSentenceLength  float64 `json:"avg_sentence_length"`
	UniqueWords        int     `json:"unique_words"`
	LexicalDiversity   float64 `json:"lexical_diversity"`
}

// Result is the union of every analyzer subsystem's output. Fields for
// subsystems that were not requested are nil and therefore absent from the
// serialized JSON (omitempty on a nil pointer); a requested-but-empty
// subsystem serializes as a present, empty value.
type Result struct {
	TextLength int         `json:"text_length"`
	Language   string      `json:"language"`
	Entities   *[]Entity   `json:"entities,omitempty"`
	Keywords   *[]Keyword  `json:"keywords,omitempty"`
	Sentiment  *Sentiment  `json:"sentiment,omitempty"`
	Statistics *Statistics `json:"statistics,omitempty"`
	Summary    *Summary    `json:"summary,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
}
