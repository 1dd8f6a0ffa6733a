package rag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adaptive-scale/docmine/pkg/paragraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc(fileID string) *paragraph.Document {
	units := []paragraph.Unit{
		{Page: 1, Text: "Executive Summary\n\nRevenue grew significantly this quarter, driven by strong demand.\n\nWhat risks remain for next year?"},
	}
	doc := paragraph.BuildDocument(fileID, units, paragraph.MethodPDFText)
	return &doc
}

func TestIndexDocument_DerivesIntentFromMetadata(t *testing.T) {
	idx := New(nil)
	doc := sampleDoc("f1")
	n, err := idx.IndexDocument("ds1", "Dataset One", doc)
	require.NoError(t, err)
	assert.Equal(t, len(doc.Paragraphs), n)

	var sawHeading, sawQuestion bool
	for _, d := range idx.documents {
		if d.Intent == IntentHeading {
			sawHeading = true
		}
		if d.Intent == IntentQuestion {
			sawQuestion = true
		}
	}
	assert.True(t, sawHeading)
	assert.True(t, sawQuestion)
}

func TestSearch_EmptyCorpusReturnsEmptyNotError(t *testing.T) {
	idx := New(nil)
	results, err := idx.Search("anything", 5, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_FindsExactTextWithHighSimilarity(t *testing.T) {
	idx := New(nil)
	_, err := idx.IndexDocument("ds1", "Dataset One", sampleDoc("f1"))
	require.NoError(t, err)

	results, err := idx.Search("Revenue grew significantly this quarter, driven by strong demand.", 5, 0, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestSearch_FiltersByDatasetID(t *testing.T) {
	idx := New(nil)
	_, err := idx.IndexDocument("ds1", "Dataset One", sampleDoc("f1"))
	require.NoError(t, err)
	_, err = idx.IndexDocument("ds2", "Dataset Two", sampleDoc("f2"))
	require.NoError(t, err)

	results, err := idx.Search("Executive Summary", 10, -1, []string{"ds1"})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "ds1", r.Document.DatasetID)
	}
}

func TestBuildContext_CarriesSourceAndContent(t *testing.T) {
	idx := New(nil)
	_, err := idx.IndexDocument("ds1", "Dataset One", sampleDoc("f1"))
	require.NoError(t, err)

	items, err := idx.BuildContext("Executive Summary", 3, -1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Contains(t, items[0].Source, "Dataset One")
	assert.NotEmpty(t, items[0].Content)
}

func TestRemoveDataset_DropsItsDocumentsOnly(t *testing.T) {
	idx := New(nil)
	_, err := idx.IndexDocument("ds1", "Dataset One", sampleDoc("f1"))
	require.NoError(t, err)
	_, err = idx.IndexDocument("ds2", "Dataset Two", sampleDoc("f2"))
	require.NoError(t, err)

	require.NoError(t, idx.RemoveDataset("ds1"))

	stats := idx.GetStats()
	assert.NotContains(t, stats.IndexedDatasets, "ds1")
	for _, d := range idx.documents {
		assert.NotEqual(t, "ds1", d.DatasetID)
	}
}

func TestFlushAndLoad_RoundTripsIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	idx := New(nil)
	idx.PersistPath = path
	_, err := idx.IndexDocument("ds1", "Dataset One", sampleDoc("f1"))
	require.NoError(t, err)

	reloaded := New(nil)
	reloaded.PersistPath = path
	require.NoError(t, reloaded.Load())
	assert.Equal(t, len(idx.documents), len(reloaded.documents))
}

func TestLoad_CorruptFileIsTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	idx := New(nil)
	idx.PersistPath = path
	require.NoError(t, idx.Load())
	assert.Empty(t, idx.documents)
}

func TestFlush_SkipsOverSizeCeilingWithoutError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	idx := New(nil)
	idx.PersistPath = path
	idx.MaxPersistBytes = 1
	_, err := idx.IndexDocument("ds1", "Dataset One", sampleDoc("f1"))
	require.NoError(t, err)
	assert.NoError(t, idx.Flush())
}

func TestEmbeddingCache_EvictsOldestOnOverflow(t *testing.T) {
	c := newEmbeddingCache(2)
	c.put("a", []float64{1})
	c.put("b", []float64{2})
	c.put("c", []float64{3})
	_, ok := c.get("a")
	assert.False(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestHashEmbedder_IsDeterministicAndNormalized(t *testing.T) {
	e := NewHashEmbedder()
	v1, err := e.Embed("hello world")
	require.NoError(t, err)
	v2, err := e.Embed("hello world")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	var sumSquares float64
	for _, x := range v1 {
		sumSquares += x * x
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-6)
}
