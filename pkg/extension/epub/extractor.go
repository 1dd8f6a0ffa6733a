// Package epub walks an EPUB's spine and yields one string per chapter.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/adaptive-scale/docmine/pkg/paragraph"
)

// Extractor walks an EPUB container and returns per-chapter plain text.
type Extractor struct{}

// NewExtractor returns an EPUB chapter extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

type container struct {
	XMLName  xml.Name `xml:"container"`
	Rootfile struct {
		Path string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opf struct {
	XMLName xml.Name `xml:"package"`
	Spine   struct {
		Items []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
	Manifest struct {
		Items []struct {
			ID   string `xml:"id,attr"`
			Href string `xml:"href,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
}

// ExtractPages returns one string per spine chapter, in spine order (the
// caller treats each chapter as a "page" for paragraph/page-number purposes).
func (e *Extractor) ExtractPages(data []byte) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	containerFile := findFile(reader.File, "META-INF/container.xml")
	if containerFile == nil {
		return nil, nil
	}

	var c container
	if err := decodeXML(containerFile, &c); err != nil {
		return nil, err
	}

	opfFile := findFile(reader.File, c.Rootfile.Path)
	if opfFile == nil {
		return nil, nil
	}

	var pkg opf
	if err := decodeXML(opfFile, &pkg); err != nil {
		return nil, err
	}

	opfDir := filepath.Dir(c.Rootfile.Path)
	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		hrefByID[item.ID] = item.Href
	}

	var chapters []string
	for _, spineItem := range pkg.Spine.Items {
		href := hrefByID[spineItem.IDRef]
		if href == "" {
			continue
		}
		contentFile := findFile(reader.File, filepath.Join(opfDir, href))
		if contentFile == nil {
			continue
		}
		text, err := extractChapterText(contentFile)
		if err != nil {
			continue
		}
		chapters = append(chapters, text)
	}
	return chapters, nil
}

func (e *Extractor) SupportedExtensions() []string {
	return []string{".epub"}
}

// Method reports the extraction method recorded for EPUB documents.
func (e *Extractor) Method() string {
	return paragraph.MethodEPUB
}

func findFile(files []*zip.File, name string) *zip.File {
	for _, f := range files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func decodeXML(f *zip.File, out interface{}) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(out)
}

func extractChapterText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	doc, err := html.Parse(rc)
	if err != nil {
		return "", err
	}

	var result strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				result.WriteString(text)
				result.WriteString(" ")
			}
		}
		if n.Type == html.ElementNode && (n.Data == "p" || n.Data == "br" || n.Data == "div") {
			result.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}

	extractText(doc)
	return strings.TrimSpace(result.String()), nil
}
