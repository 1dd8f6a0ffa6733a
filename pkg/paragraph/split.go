package paragraph

import (
	"regexp"
	"strings"
)

var (
	hyphenBreakRe = regexp.MustCompile(`(\w)-\n(\w)`)
	blankLineRe   = regexp.MustCompile(`\n\s*\n+`)
	innerSpaceRe  = regexp.MustCompile(`[ \t]+`)
)

// minParagraphLen drops fragments too short to be meaningful (spec §4.1).
const minParagraphLen = 3

// SplitIntoCandidates turns one page/chapter's raw text into candidate
// paragraph strings, already whitespace-normalized, in source order.
func SplitIntoCandidates(rawText string) []string {
	joined := hyphenBreakRe.ReplaceAllString(rawText, "$1$2")

	var out []string
	for _, block := range blankLineRe.Split(joined, -1) {
		collapsed := collapseWhitespace(block)
		if len([]rune(collapsed)) < minParagraphLen {
			continue
		}
		out = append(out, collapsed)
	}
	return out
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(innerSpaceRe.ReplaceAllString(l, " "))
	}
	joined := strings.Join(lines, " ")
	return strings.TrimSpace(innerSpaceRe.ReplaceAllString(joined, " "))
}

// Unit is one page or chapter of raw text prior to paragraph splitting, plus
// the 1-based page number (or chapter index) it came from.
type Unit struct {
	Page int
	Text string
}

// BuildDocument splits every unit into paragraphs, computes enrichment
// metadata, assigns stable ids, and applies the repeated-header tie-break.
func BuildDocument(fileID string, units []Unit, extractionMethod string) Document {
	tracker := newHeadingRepeatTracker()
	doc := Document{
		Header: Header{
			FileID:           fileID,
			TotalPages:       len(units),
			ExtractionMethod: extractionMethod,
		},
	}

	globalIndex := 0
	for _, unit := range units {
		for _, text := range SplitIntoCandidates(unit.Text) {
			meta := ComputeMetadata(text)
			if tracker.observe(text) {
				meta.LikelyHeading = true
			}
			doc.Paragraphs = append(doc.Paragraphs, Paragraph{
				ID:             MakeID(fileID, globalIndex),
				FileID:         fileID,
				Page:           unit.Page,
				ParagraphIndex: globalIndex,
				Text:           text,
				WordCount:      len(strings.Fields(text)),
				CharCount:      len([]rune(text)),
				Metadata:       meta,
			})
			globalIndex++
		}
	}
	return doc
}
