// Package paragraph holds the canonical paragraph record produced by
// extraction and consumed by every downstream component (spec §3).
package paragraph

import "fmt"

// Metadata is the set of deterministic, annotation-free enrichment flags
// computed from a paragraph's text at extraction time.
type Metadata struct {
	SentenceCount      int     `json:"sentence_count"`
	AvgWordLength      float64 `json:"avg_word_length"`
	HasNumbers         bool    `json:"has_numbers"`
	HasSpecialChars    bool    `json:"has_special_chars"`
	StartsWithCapital  bool    `json:"starts_with_capital"`
	EndsWithPunct      bool    `json:"ends_with_punctuation"`
	IsQuestion         bool    `json:"is_question"`
	LikelyHeading      bool    `json:"likely_heading"`
	LikelyListItem     bool    `json:"likely_list_item"`
	HasDates           bool    `json:"has_dates"`
	HasEmails          bool    `json:"has_emails"`
	HasURLs            bool    `json:"has_urls"`
}

// Paragraph is one coherent text fragment extracted from an ingested file.
type Paragraph struct {
	ID             string                 `json:"id"`
	FileID         string                 `json:"file_id"`
	Page           int                    `json:"page"`
	ParagraphIndex int                    `json:"paragraph_index"`
	Text           string                 `json:"text"`
	WordCount      int                    `json:"word_count"`
	CharCount      int                    `json:"char_count"`
	Metadata       Metadata               `json:"metadata"`
	Annotations    map[string]interface{} `json:"annotations,omitempty"`
}

// Header describes the document a set of Paragraphs was extracted from.
type Header struct {
	FileID            string `json:"file_id"`
	Filename          string `json:"filename"`
	TotalPages        int    `json:"total_pages"`
	ExtractionMethod  string `json:"extraction_method"`
}

// Document is the full result of extraction: header plus ordered paragraphs.
type Document struct {
	Header     Header      `json:"header"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Extraction methods recorded in Header.ExtractionMethod.
const (
	MethodPDFText  = "pdf_text"
	MethodPDFOCR   = "pdf_ocr"
	MethodEPUB     = "epub"
	MethodEmpty    = "empty"
)

// MakeID builds the stable, file-scoped paragraph id used throughout the
// system: "<file_id>:p<global_index>".
func MakeID(fileID string, globalIndex int) string {
	return fmt.Sprintf("%s:p%d", fileID, globalIndex)
}

// SetAnnotation appends a caller-owned annotation without touching the
// deterministic metadata computed at extraction time.
func (p *Paragraph) SetAnnotation(key string, value interface{}) {
	if p.Annotations == nil {
		p.Annotations = make(map[string]interface{})
	}
	p.Annotations[key] = value
}
