package paragraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIntoCandidates_DropsShortFragments(t *testing.T) {
	raw := "Hello world, this is a paragraph.\n\nOk\n\nAnother real paragraph here."
	paras := SplitIntoCandidates(raw)
	require.Len(t, paras, 2)
	assert.Equal(t, "Hello world, this is a paragraph.", paras[0])
	assert.Equal(t, "Another real paragraph here.", paras[1])
}

func TestSplitIntoCandidates_RejoinsHyphenatedBreaks(t *testing.T) {
	raw := "This is a hyphen-\nated word in one paragraph."
	paras := SplitIntoCandidates(raw)
	require.Len(t, paras, 1)
	assert.Contains(t, paras[0], "hyphenated")
}

func TestBuildDocument_AssignsStableIDsAndOrder(t *testing.T) {
	units := []Unit{
		{Page: 1, Text: "First paragraph on page one.\n\nSecond paragraph on page one."},
		{Page: 2, Text: "First paragraph on page two."},
	}
	doc := BuildDocument("file-1", units, MethodPDFText)
	require.Len(t, doc.Paragraphs, 3)
	assert.Equal(t, "file-1:p0", doc.Paragraphs[0].ID)
	assert.Equal(t, "file-1:p1", doc.Paragraphs[1].ID)
	assert.Equal(t, "file-1:p2", doc.Paragraphs[2].ID)
	assert.Equal(t, 1, doc.Paragraphs[0].Page)
	assert.Equal(t, 2, doc.Paragraphs[2].Page)
	assert.Equal(t, 0, doc.Paragraphs[0].ParagraphIndex)
	assert.Equal(t, 2, doc.Paragraphs[2].ParagraphIndex)
}

func TestBuildDocument_CountsAreDeterministicFunctionsOfText(t *testing.T) {
	units := []Unit{{Page: 1, Text: "The quick brown fox jumps over the lazy dog."}}
	doc1 := BuildDocument("f", units, MethodPDFText)
	doc2 := BuildDocument("f", units, MethodPDFText)
	require.Len(t, doc1.Paragraphs, 1)
	assert.Equal(t, doc1.Paragraphs[0], doc2.Paragraphs[0])

	p := doc1.Paragraphs[0]
	assert.Equal(t, len([]rune(p.Text)), p.CharCount)
	assert.Equal(t, len(strings.Fields(p.Text)), p.WordCount)
}

func TestBuildDocument_EmptyInputYieldsNoParagraphs(t *testing.T) {
	doc := BuildDocument("f", nil, MethodEmpty)
	assert.Empty(t, doc.Paragraphs)
	assert.Equal(t, MethodEmpty, doc.Header.ExtractionMethod)
}

func TestComputeMetadata_QuestionAndHeadingFlags(t *testing.T) {
	q := ComputeMetadata("Is this a question?")
	assert.True(t, q.IsQuestion)

	heading := ComputeMetadata("Executive Summary")
	assert.True(t, heading.LikelyHeading)

	listItem := ComputeMetadata("- first bullet item")
	assert.True(t, listItem.LikelyListItem)
}

func TestComputeMetadata_HasDatesEmailsURLs(t *testing.T) {
	m := ComputeMetadata("Contact jane@example.com or visit https://example.com on April 1, 2024.")
	assert.True(t, m.HasDates)
	assert.True(t, m.HasEmails)
	assert.True(t, m.HasURLs)
}

func TestHeadingRepeatTracker_FlagsOnThirdRepeat(t *testing.T) {
	tracker := newHeadingRepeatTracker()
	assert.False(t, tracker.observe("Chapter Header"))
	assert.False(t, tracker.observe("Chapter Header"))
	assert.True(t, tracker.observe("Chapter Header"))
}
