// Package pdf extracts the text layer of a PDF, one string per page.
package pdf

import (
	"bytes"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/adaptive-scale/docmine/pkg/paragraph"
)

// Extractor pulls the text layer out of a PDF's pages.
type Extractor struct{}

// NewExtractor returns a PDF text-layer extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages returns one string per page, in page order.
func (e *Extractor) ExtractPages(data []byte) ([]string, error) {
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, _ := page.GetPlainText(nil)
		pages = append(pages, content)
	}
	return pages, nil
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Method reports the extraction method for a PDF's text layer. The
// orchestrating extractor overrides this to paragraph.MethodPDFOCR when it
// falls through to OCR for pages with no text layer.
func (e *Extractor) Method() string {
	return paragraph.MethodPDFText
}

// HasTextLayer reports whether any page yielded extractable text, used by
// the orchestrating extractor to decide whether to fall through to OCR.
func HasTextLayer(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}
