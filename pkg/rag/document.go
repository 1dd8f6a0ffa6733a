// Package rag implements the RAG Index (spec §4.7): a content-addressable
// per-paragraph vector store with dataset-scoped search and context
// assembly.
package rag

import "github.com/adaptive-scale/docmine/pkg/paragraph"

const (
	IntentHeading  = "heading"
	IntentQuestion = "question"
	IntentListItem = "list_item"
	IntentContent  = "content"
)

// Document is one paragraph projected into the RAG index.
type Document struct {
	ID          string                 `json:"id"`
	DatasetID   string                 `json:"dataset_id"`
	DatasetName string                 `json:"dataset_name"`
	Text        string                 `json:"text"`
	RowIndex    int                    `json:"row_index"`
	Intent      string                 `json:"intent"`
	Category    string                 `json:"category"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// FromParagraph projects a paragraph record into a RAG document under
// datasetID/datasetName. Intent/category are derived from the paragraph's
// enrichment flags (spec §4.7 indexing protocol step 1).
func FromParagraph(p paragraph.Paragraph, datasetID, datasetName string, rowIndex int) Document {
	intent := IntentContent
	switch {
	case p.Metadata.LikelyHeading:
		intent = IntentHeading
	case p.Metadata.IsQuestion:
		intent = IntentQuestion
	case p.Metadata.LikelyListItem:
		intent = IntentListItem
	}

	return Document{
		ID:          p.ID,
		DatasetID:   datasetID,
		DatasetName: datasetName,
		Text:        p.Text,
		RowIndex:    rowIndex,
		Intent:      intent,
		Category:    intent,
		Metadata: map[string]interface{}{
			"page":            p.Page,
			"paragraph_index": p.ParagraphIndex,
			"word_count":      p.WordCount,
			"char_count":      p.CharCount,
		},
	}
}
