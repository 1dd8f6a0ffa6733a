package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/adaptive-scale/docmine/pkg/analyzer"
	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/adaptive-scale/docmine/pkg/batch"
	"github.com/adaptive-scale/docmine/pkg/cache"
	"github.com/adaptive-scale/docmine/pkg/export"
	"github.com/adaptive-scale/docmine/pkg/extractor"
	"github.com/adaptive-scale/docmine/pkg/paragraph"
	"github.com/adaptive-scale/docmine/pkg/rag"
	"github.com/adaptive-scale/docmine/pkg/template"
	log "github.com/sirupsen/logrus"
)

type server struct {
	files     *fileStore
	extractor *extractor.Extractor
	cache     *cache.Cache
	analyzer  *analyzer.Analyzer
	exporter  *export.Exporter
	index     *rag.Index

	mu         sync.Mutex
	datasetIDs map[string]string // file_id -> dataset_id, for RAG indexing
}

func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/parse", s.handleParse)
	mux.HandleFunc("/mine/analyze", s.handleAnalyze)
	mux.HandleFunc("/mine/batch-analyze", s.handleBatchAnalyze)
	mux.HandleFunc("/mine/health", s.handleAnalyzerHealth)
	mux.HandleFunc("/dataset/templates/validate", s.handleValidateTemplate)
	mux.HandleFunc("/export", s.handleExport)
	mux.HandleFunc("/rag/index-dataset-file", s.handleRAGIndex)
	mux.HandleFunc("/rag/search", s.handleRAGSearch)
	mux.HandleFunc("/rag/context", s.handleRAGContext)
	mux.HandleFunc("/rag/stats", s.handleRAGStats)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, err error) {
	if apiErr, ok := apierr.As(err); ok {
		writeJSON(w, apiErr.Status, map[string]string{"error": string(apiErr.Kind), "message": apiErr.Message})
		return
	}
	log.WithError(err).Error("unhandled internal error")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "INTERNAL", "message": "internal error"})
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{"handler": "upload", "remote": r.RemoteAddr})
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		logger.WithError(err).Warn("failed to parse multipart form")
		writeError(w, apierr.Wrap(apierr.InvalidInput, "failed to parse upload form", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "missing file field", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apierr.Wrap(apierr.Internal, "failed to read upload", err))
		return
	}

	fileID, err := s.files.Put(header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	logger.WithFields(log.Fields{"file_id": fileID, "filename": header.Filename, "size": len(data)}).Info("file uploaded")
	writeJSON(w, http.StatusOK, map[string]string{"file_id": fileID, "filename": header.Filename})
}

// resolveDocument reads the parsed document from cache, falling back to
// extraction on a cache miss (spec §4.6 step 1).
func (s *server) resolveDocument(fileID string) (*paragraph.Document, error) {
	var doc paragraph.Document
	found, err := s.cache.Get(fileID, &doc)
	if err != nil {
		return nil, err
	}
	if found {
		return &doc, nil
	}

	f, err := s.files.Get(fileID)
	if err != nil {
		return nil, err
	}
	ext := fileTypeFromName(f.Filename)
	parsed, err := s.extractor.Extract(f.Data, fileID, ext)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(fileID, parsed); err != nil {
		log.WithError(err).WithField("file_id", fileID).Warn("failed to cache parsed document")
	}
	return parsed, nil
}

func fileTypeFromName(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

func (s *server) handleParse(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("file_id")
	if fileID == "" {
		writeError(w, apierr.New(apierr.InvalidInput, "file_id is required"))
		return
	}
	doc, err := s.resolveDocument(fileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type analyzeRequest struct {
	Text    string           `json:"text"`
	Options analyzer.Options `json:"options"`
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "invalid request body", err))
		return
	}
	res, err := s.analyzer.Analyze(req.Text, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchAnalyzeRequest struct {
	Texts   []string         `json:"texts"`
	Options analyzer.Options `json:"options"`
}

func (s *server) handleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	var req batchAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "invalid request body", err))
		return
	}
	res, err := batch.Analyze(s.analyzer, req.Texts, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleAnalyzerHealth(w http.ResponseWriter, r *http.Request) {
	mode, ok := s.analyzer.Health()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"model_available": mode == analyzer.ModeAdvanced,
		"healthy":         ok,
		"mode":            mode,
		"features": map[string]string{
			"entities":   mode,
			"keywords":   mode,
			"sentiment":  "lexicon",
			"statistics": mode,
			"summary":    mode,
		},
	})
}

func (s *server) handleValidateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "invalid request body", err))
		return
	}
	writeJSON(w, http.StatusOK, template.Validate(tmpl))
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("file_id")
	if fileID == "" {
		writeError(w, apierr.New(apierr.InvalidInput, "file_id is required"))
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatJSONL
	}
	opts := export.Options{
		Format:             format,
		IncludeAnnotations: r.URL.Query().Get("include_annotations") == "true",
		IncludeNLP:         r.URL.Query().Get("include_nlp") == "true",
	}

	doc, err := s.resolveDocument(fileID)
	if err != nil {
		writeError(w, err)
		return
	}
	artifact, err := s.exporter.Export(doc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

type ragIndexRequest struct {
	FileID      string `json:"file_id"`
	DatasetID   string `json:"dataset_id"`
	DatasetName string `json:"dataset_name"`
}

func (s *server) handleRAGIndex(w http.ResponseWriter, r *http.Request) {
	var req ragIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "invalid request body", err))
		return
	}
	doc, err := s.resolveDocument(req.FileID)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := s.index.IndexDocument(req.DatasetID, req.DatasetName, doc)
	if err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	s.datasetIDs[req.FileID] = req.DatasetID
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"indexed": n})
}

type ragSearchRequest struct {
	Query      string   `json:"query"`
	TopK       int      `json:"top_k"`
	Threshold  float64  `json:"threshold"`
	DatasetIDs []string `json:"dataset_ids"`
}

func (s *server) handleRAGSearch(w http.ResponseWriter, r *http.Request) {
	var req ragSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "invalid request body", err))
		return
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}
	results, err := s.index.Search(req.Query, req.TopK, req.Threshold, req.DatasetIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *server) handleRAGContext(w http.ResponseWriter, r *http.Request) {
	var req ragSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "invalid request body", err))
		return
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}
	items, err := s.index.BuildContext(req.Query, req.TopK, req.Threshold, req.DatasetIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleRAGStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.index.GetStats())
}
