package rag

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/adaptive-scale/docmine/pkg/paragraph"
	log "github.com/sirupsen/logrus"
)

// chunkSize bounds how many documents are embedded before Index yields the
// CPU, per spec §4.7 indexing protocol step 5.
const chunkSize = 2000

// defaultMaxPersistBytes is the client-side persistence ceiling from spec
// §4.7; a server deployment can raise it via Index.MaxPersistBytes.
const defaultMaxPersistBytes = 4 * 1024 * 1024

// Index is the per-paragraph vector store (spec §4.7).
type Index struct {
	mu      sync.RWMutex
	Embed   Embedder
	cache   *embeddingCache

	documents       []Document
	embeddings      map[string][]float64
	indexedDatasets map[string]bool
	lastPersistBytes int64

	PersistPath     string
	MaxPersistBytes int64
}

// New returns an empty Index using embedder (HashEmbedder if nil).
func New(embedder Embedder) *Index {
	if embedder == nil {
		embedder = NewHashEmbedder()
	}
	return &Index{
		Embed:           embedder,
		cache:           newEmbeddingCache(defaultCacheCapacity),
		embeddings:      make(map[string][]float64),
		indexedDatasets: make(map[string]bool),
		MaxPersistBytes: defaultMaxPersistBytes,
	}
}

// IndexDocument embeds every paragraph of a parsed document under
// datasetID/datasetName and appends it to the index. A single document's
// embedding failure is logged and skipped, never aborting the batch.
func (idx *Index) IndexDocument(datasetID, datasetName string, doc *paragraph.Document) (indexed int, err error) {
	for i, p := range doc.Paragraphs {
		ragDoc := FromParagraph(p, datasetID, datasetName, i)
		vec, embedErr := idx.embedWithCache(ragDoc.Text)
		if embedErr != nil {
			log.WithError(embedErr).WithField("paragraph_id", ragDoc.ID).Warn("embedding failed, skipping document")
			continue
		}

		idx.mu.Lock()
		idx.embeddings[ragDoc.ID] = vec
		idx.documents = append(idx.documents, ragDoc)
		idx.indexedDatasets[datasetID] = true
		idx.mu.Unlock()

		indexed++
		if (i+1)%chunkSize == 0 {
			runtime.Gosched()
		}
	}

	if flushErr := idx.Flush(); flushErr != nil {
		log.WithError(flushErr).Warn("failed to persist RAG index after indexing")
	}
	return indexed, nil
}

func (idx *Index) embedWithCache(text string) ([]float64, error) {
	if v, ok := idx.cache.get(text); ok {
		return v, nil
	}
	v, err := idx.Embed.Embed(text)
	if err != nil {
		return nil, err
	}
	idx.cache.put(text, v)
	return v, nil
}

// SearchResult is one ranked match.
type SearchResult struct {
	Document       Document `json:"document"`
	Similarity     float64  `json:"similarity"`
	RelevanceScore float64  `json:"relevance_score"`
}

// Search embeds query and ranks every candidate document (optionally
// filtered by datasetIDs) by cosine similarity, returning the top K above
// threshold. An empty corpus yields an empty list, not an error.
func (idx *Index) Search(query string, topK int, threshold float64, datasetIDs []string) ([]SearchResult, error) {
	queryVec, err := idx.Embed.Embed(query)
	if err != nil {
		return nil, apierr.Wrap(apierr.DependencyUnavailable, "failed to embed query", err)
	}

	allowed := toSet(datasetIDs)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]SearchResult, 0, len(idx.documents))
	for _, d := range idx.documents {
		if allowed != nil && !allowed[d.DatasetID] {
			continue
		}
		vec, ok := idx.embeddings[d.ID]
		if !ok {
			continue
		}
		sim := dot(queryVec, vec)
		if sim < threshold {
			continue
		}
		results = append(results, SearchResult{Document: d, Similarity: sim, RelevanceScore: sim})
	}

	sortResults(results)
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if results[i].Document.DatasetID != results[j].Document.DatasetID {
			return results[i].Document.DatasetID < results[j].Document.DatasetID
		}
		return results[i].Document.ID < results[j].Document.ID
	})
}

// ContextItem is one ranked item assembled for a RAG context window.
type ContextItem struct {
	Source         string                 `json:"source"`
	Content        string                 `json:"content"`
	RelevanceScore float64                `json:"relevance_score"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// BuildContext runs the same ranking as Search but projects results into
// the context-assembly shape (spec §4.7).
func (idx *Index) BuildContext(query string, topK int, threshold float64, datasetIDs []string) ([]ContextItem, error) {
	results, err := idx.Search(query, topK, threshold, datasetIDs)
	if err != nil {
		return nil, err
	}
	items := make([]ContextItem, len(results))
	for i, r := range results {
		items[i] = ContextItem{
			Source:         r.Document.DatasetName + ":" + r.Document.ID,
			Content:        r.Document.Text,
			RelevanceScore: r.RelevanceScore,
			Metadata:       r.Document.Metadata,
		}
	}
	return items, nil
}

// RemoveDataset drops every document and embedding belonging to
// datasetID, then re-flushes persistence.
func (idx *Index) RemoveDataset(datasetID string) error {
	idx.mu.Lock()
	kept := idx.documents[:0]
	for _, d := range idx.documents {
		if d.DatasetID == datasetID {
			delete(idx.embeddings, d.ID)
			continue
		}
		kept = append(kept, d)
	}
	idx.documents = kept
	delete(idx.indexedDatasets, datasetID)
	idx.mu.Unlock()

	return idx.Flush()
}

// Stats reports basic index sizing for the /rag/stats endpoint.
type Stats struct {
	DocumentCount      int      `json:"total_documents"`
	IndexedDatasets    []string `json:"indexed_datasets"`
	CacheSize          int      `json:"cache_size"`
	EmbeddingDim       int      `json:"embedding_dimension"`
	EmbeddingCacheSize int      `json:"embedding_cache_size"`
	IndexBytes         int64    `json:"index_bytes"`
}

func (idx *Index) GetStats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	datasets := make([]string, 0, len(idx.indexedDatasets))
	for id := range idx.indexedDatasets {
		datasets = append(datasets, id)
	}
	sort.Strings(datasets)
	return Stats{
		DocumentCount:      len(idx.documents),
		IndexedDatasets:    datasets,
		CacheSize:          idx.cache.len(),
		EmbeddingDim:       Dimension,
		EmbeddingCacheSize: idx.cache.len(),
		IndexBytes:         idx.lastPersistBytes,
	}
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// persistedIndex is the on-disk shape of the index.
type persistedIndex struct {
	Documents       []Document            `json:"documents"`
	Embeddings      map[string][]float64  `json:"embeddings"`
	IndexedDatasets []string              `json:"indexed_datasets"`
}

// Flush serializes the index to PersistPath. Writes above
// MaxPersistBytes are skipped with a warning rather than truncated, since
// the index is not tracked by version control and a truncated blob would
// be unrecoverable.
func (idx *Index) Flush() error {
	if idx.PersistPath == "" {
		return nil
	}

	idx.mu.RLock()
	datasets := make([]string, 0, len(idx.indexedDatasets))
	for id := range idx.indexedDatasets {
		datasets = append(datasets, id)
	}
	snapshot := persistedIndex{
		Documents:       append([]Document(nil), idx.documents...),
		Embeddings:      idx.embeddings,
		IndexedDatasets: datasets,
	}
	idx.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to marshal RAG index", err)
	}
	if int64(len(data)) > idx.MaxPersistBytes {
		log.WithField("size_bytes", len(data)).Warn("RAG index exceeds persistence size ceiling, skipping flush")
		return nil
	}

	idx.mu.Lock()
	idx.lastPersistBytes = int64(len(data))
	idx.mu.Unlock()

	dir := filepath.Dir(idx.PersistPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apierr.Wrap(apierr.Internal, "failed to create RAG index persistence directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-rag-index-*")
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to create temp RAG index file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to write temp RAG index file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to close temp RAG index file", err)
	}
	if err := os.Rename(tmpPath, idx.PersistPath); err != nil {
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to rename RAG index file into place", err)
	}
	return nil
}

// Load reads PersistPath into the index. A missing file is not an error;
// a corrupt blob is logged and treated as an empty index.
func (idx *Index) Load() error {
	if idx.PersistPath == "" {
		return nil
	}
	data, err := os.ReadFile(idx.PersistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apierr.Wrap(apierr.Internal, "failed to read RAG index file", err)
	}

	var snapshot persistedIndex
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.WithError(err).Warn("corrupt RAG index file, starting empty")
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.lastPersistBytes = int64(len(data))
	idx.documents = snapshot.Documents
	idx.embeddings = snapshot.Embeddings
	if idx.embeddings == nil {
		idx.embeddings = make(map[string][]float64)
	}
	idx.indexedDatasets = make(map[string]bool, len(snapshot.IndexedDatasets))
	for _, id := range snapshot.IndexedDatasets {
		idx.indexedDatasets[id] = true
	}
	return nil
}
