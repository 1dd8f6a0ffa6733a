// Package extractor dispatches raw file bytes to the right format-specific
// extension package and folds the result into paragraph records (spec §4.1).
package extractor

import (
	"fmt"
	"strings"

	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/adaptive-scale/docmine/pkg/extension/epub"
	"github.com/adaptive-scale/docmine/pkg/extension/pdf"
	"github.com/adaptive-scale/docmine/pkg/ocr"
	"github.com/adaptive-scale/docmine/pkg/paragraph"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.Debug("Initializing default registry with built-in extractors")
	DefaultRegistry.Register(pdf.NewExtractor())
	DefaultRegistry.Register(epub.NewExtractor())
}

// Extractor turns file bytes into a paragraph.Document. OCR is optional: a
// nil engine means the PDF path degrades to extraction_method="empty"
// instead of erroring (spec §4.1 failure modes).
//
// PageImages, when set, supplies a rendered raster image per PDF page for
// OCR to run against (rendering a PDF page to an image is outside this
// package's scope; a caller with a rasterizer wires it in here).
type Extractor struct {
	OCR        ocr.Engine
	PageImages func(data []byte) ([][]byte, error)
}

// New returns an Extractor with no OCR engine configured.
func New() *Extractor {
	return &Extractor{}
}

// Extract dispatches on fileType ("pdf" or "epub") and returns an ordered
// paragraph document. It never errors on empty input; only unreadable bytes
// or an unsupported type produce an error.
func (e *Extractor) Extract(data []byte, fileID string, fileType string) (*paragraph.Document, error) {
	logger := log.WithFields(log.Fields{
		"function": "Extract",
		"file_id":  fileID,
		"type":     fileType,
	})

	ext := normalizeExt(fileType)
	te, method, err := DefaultRegistry.Resolve(ext)
	if err != nil {
		logger.WithError(err).Error("unsupported file type")
		return nil, apierr.Wrap(apierr.UnsupportedFormat, fmt.Sprintf("unsupported file type: %s", fileType), err)
	}

	pages, err := te.ExtractPages(data)
	if err != nil {
		logger.WithError(err).Error("extraction failed")
		return nil, apierr.Wrap(apierr.InvalidInput, "invalid file", err)
	}

	if ext == ".pdf" && !pdf.HasTextLayer(pages) {
		ocrPages, err := e.runOCR(data)
		if err != nil || len(ocrPages) == 0 {
			logger.Debug("no text layer and OCR unavailable, returning empty result")
			doc := paragraph.BuildDocument(fileID, nil, paragraph.MethodEmpty)
			doc.Header.Filename = fileID
			return &doc, nil
		}
		pages = ocrPages
		method = paragraph.MethodPDFOCR
	}

	units := make([]paragraph.Unit, len(pages))
	for i, text := range pages {
		units[i] = paragraph.Unit{Page: i + 1, Text: text}
	}

	doc := paragraph.BuildDocument(fileID, units, method)
	logger.WithFields(log.Fields{
		"paragraphs": len(doc.Paragraphs),
		"method":     method,
	}).Debug("extraction completed")
	return &doc, nil
}

// runOCR is best-effort: without both an engine and a page rasterizer wired
// in, it returns no pages and the caller degrades to extraction_method="empty".
func (e *Extractor) runOCR(data []byte) ([]string, error) {
	if e.OCR == nil || e.PageImages == nil {
		return nil, nil
	}
	images, err := e.PageImages(data)
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, len(images))
	for _, img := range images {
		text, err := e.OCR.ExtractImage(img)
		if err != nil {
			log.WithError(err).Warn("OCR failed for a page, skipping")
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func normalizeExt(fileType string) string {
	ext := strings.ToLower(strings.TrimPrefix(fileType, "."))
	return "." + ext
}

// GetSupportedFormats returns every extension the registry knows about.
func GetSupportedFormats() []string {
	return DefaultRegistry.GetSupportedExtensions()
}
