package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adaptive-scale/docmine/pkg/analyzer"
	"github.com/adaptive-scale/docmine/pkg/paragraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *paragraph.Document {
	units := []paragraph.Unit{
		{Page: 1, Text: "This is the first paragraph, it has some content.\n\nA great second paragraph follows here."},
	}
	doc := paragraph.BuildDocument("file-1", units, paragraph.MethodPDFText)
	return &doc
}

func TestExport_CSVHasHeaderAndOneRowPerParagraph(t *testing.T) {
	e, err := New(t.TempDir(), &analyzer.Analyzer{ForceFallback: true})
	require.NoError(t, err)

	doc := sampleDocument()
	artifact, err := e.Export(doc, Options{Format: FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, len(doc.Paragraphs), artifact.RecordCount)

	data, err := os.ReadFile(artifact.DownloadHandle)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, csvColumns, records[0])
	assert.Len(t, records, len(doc.Paragraphs)+1)
}

func TestExport_CSVIncludesAnnotationColumns(t *testing.T) {
	e, err := New(t.TempDir(), &analyzer.Analyzer{ForceFallback: true})
	require.NoError(t, err)

	doc := sampleDocument()
	require.NotEmpty(t, doc.Paragraphs)
	doc.Paragraphs[0].Annotations = map[string]interface{}{"reviewed": true, "label": "finding"}

	artifact, err := e.Export(doc, Options{Format: FormatCSV, IncludeAnnotations: true})
	require.NoError(t, err)

	data, err := os.ReadFile(artifact.DownloadHandle)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)

	header := records[0]
	assert.Equal(t, append(append([]string{}, csvColumns...), "label", "reviewed"), header)

	labelIdx := indexOf(header, "label")
	reviewedIdx := indexOf(header, "reviewed")
	require.GreaterOrEqual(t, labelIdx, 0)
	require.GreaterOrEqual(t, reviewedIdx, 0)
	assert.Equal(t, "finding", records[1][labelIdx])
	assert.Equal(t, "true", records[1][reviewedIdx])

	// Second paragraph has no annotations; its annotation cells are empty.
	assert.Equal(t, "", records[2][labelIdx])
	assert.Equal(t, "", records[2][reviewedIdx])
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestExport_JSONLHasOneObjectPerLine(t *testing.T) {
	e, err := New(t.TempDir(), &analyzer.Analyzer{ForceFallback: true})
	require.NoError(t, err)

	doc := sampleDocument()
	artifact, err := e.Export(doc, Options{Format: FormatJSONL})
	require.NoError(t, err)

	data, err := os.ReadFile(artifact.DownloadHandle)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, len(doc.Paragraphs))
}

func TestExport_NLPEnrichmentAttachesColumns(t *testing.T) {
	e, err := New(t.TempDir(), &analyzer.Analyzer{ForceFallback: true})
	require.NoError(t, err)

	doc := sampleDocument()
	artifact, err := e.Export(doc, Options{Format: FormatJSONL, IncludeNLP: true})
	require.NoError(t, err)

	data, err := os.ReadFile(artifact.DownloadHandle)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nlp_sentiment")
}

func TestExport_WritesSidecarMetadata(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir, &analyzer.Analyzer{ForceFallback: true})
	require.NoError(t, err)

	doc := sampleDocument()
	artifact, err := e.Export(doc, Options{Format: FormatCSV})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, artifact.Filename+"_meta.json"))
	assert.NoError(t, err)
}

func TestExport_RejectsUnsupportedFormat(t *testing.T) {
	e, err := New(t.TempDir(), &analyzer.Analyzer{ForceFallback: true})
	require.NoError(t, err)
	_, err = e.Export(sampleDocument(), Options{Format: "xml"})
	require.Error(t, err)
}
