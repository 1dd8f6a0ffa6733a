// Package ocr provides the best-effort OCR fallback used by the PDF
// extractor (spec §4.1) when a page has no extractable text layer.
package ocr

import (
	"os"

	gosseract "github.com/otiai10/gosseract/v2"
)

// Engine extracts text from a rendered page image. It is deliberately small
// so a caller can stand up a fake in tests without linking Tesseract.
type Engine interface {
	ExtractImage(imageBytes []byte) (string, error)
}

// TesseractEngine runs OCR through gosseract's bindings to the locally
// installed Tesseract library, mirroring the teacher's image extractor.
type TesseractEngine struct {
	Language string
}

// NewTesseractEngine returns an Engine backed by Tesseract OCR.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{Language: "eng"}
}

func (e *TesseractEngine) ExtractImage(imageBytes []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	tmp, err := os.CreateTemp("", "docmine-ocr-*.png")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(imageBytes); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := client.SetImage(tmp.Name()); err != nil {
		return "", err
	}
	lang := e.Language
	if lang == "" {
		lang = "eng"
	}
	client.SetLanguage(lang)
	client.SetConfigFile("preserve_interword_spaces")

	return client.Text()
}
