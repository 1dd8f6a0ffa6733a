// Package export implements the Export Engine (spec §4.6): materializing
// parsed paragraphs, optionally NLP-enriched, into CSV or JSONL files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/adaptive-scale/docmine/pkg/analyzer"
	"github.com/adaptive-scale/docmine/pkg/apierr"
	"github.com/adaptive-scale/docmine/pkg/paragraph"
	log "github.com/sirupsen/logrus"
)

const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

var csvColumns = []string{
	"id", "file_id", "page", "paragraph_index", "text", "word_count", "char_count",
	"nlp_entities", "nlp_entities_count", "nlp_keywords",
	"nlp_sentiment", "nlp_sentiment_score", "nlp_sentiment_confidence",
}

// Row is one exported paragraph record (spec §3 "Export record").
type Row struct {
	ID             string                 `json:"id"`
	FileID         string                 `json:"file_id"`
	Page           int                    `json:"page"`
	ParagraphIndex int                    `json:"paragraph_index"`
	Text           string                 `json:"text"`
	WordCount      int                    `json:"word_count"`
	CharCount      int                    `json:"char_count"`
	Annotations    map[string]interface{} `json:"annotations,omitempty"`

	NLPEntities            *[]analyzer.Entity `json:"nlp_entities,omitempty"`
	NLPEntitiesCount       *int               `json:"nlp_entities_count,omitempty"`
	NLPKeywords            *[]analyzer.Keyword `json:"nlp_keywords,omitempty"`
	NLPSentiment           *string            `json:"nlp_sentiment,omitempty"`
	NLPSentimentScore      *float64           `json:"nlp_sentiment_score,omitempty"`
	NLPSentimentConfidence *float64           `json:"nlp_sentiment_confidence,omitempty"`
}

// Artifact describes the exported file.
type Artifact struct {
	Filename      string `json:"filename"`
	RecordCount   int    `json:"record_count"`
	DownloadHandle string `json:"download_handle"`
}

// Options controls what an export includes.
type Options struct {
	Format            string
	IncludeAnnotations bool
	IncludeNLP        bool
}

// Exporter writes export artifacts under Dir.
type Exporter struct {
	Dir      string
	Analyzer *analyzer.Analyzer
}

// New returns an Exporter rooted at dir.
func New(dir string, a *analyzer.Analyzer) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apierr.Wrap(apierr.Internal, "failed to create exports directory", err)
	}
	return &Exporter{Dir: dir, Analyzer: a}, nil
}

// Export projects doc's paragraphs to rows, optionally enriching each with
// NLP fields, and atomically writes the result plus a sidecar metadata file.
func (e *Exporter) Export(doc *paragraph.Document, opts Options) (*Artifact, error) {
	if opts.Format != FormatCSV && opts.Format != FormatJSONL {
		return nil, apierr.New(apierr.InvalidInput, fmt.Sprintf("unsupported export format: %s", opts.Format))
	}

	rows := make([]Row, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		rows[i] = e.buildRow(p, opts)
	}

	filename := fmt.Sprintf("%s_%s.%s", doc.Header.FileID, nlpModeSuffix(opts.IncludeNLP), opts.Format)
	path := filepath.Join(e.Dir, filename)

	var err error
	switch opts.Format {
	case FormatCSV:
		err = writeCSVAtomic(path, rows, annotationColumns(rows, opts))
	case FormatJSONL:
		err = writeJSONLAtomic(path, rows)
	}
	if err != nil {
		return nil, err
	}

	if err := writeSidecarMeta(path, doc.Header.FileID, opts, len(rows)); err != nil {
		log.WithError(err).Warn("failed to write export sidecar metadata")
	}

	return &Artifact{
		Filename:       filename,
		RecordCount:    len(rows),
		DownloadHandle: path,
	}, nil
}

func nlpModeSuffix(includeNLP bool) string {
	if includeNLP {
		return "enriched"
	}
	return "plain"
}

func (e *Exporter) buildRow(p paragraph.Paragraph, opts Options) Row {
	row := Row{
		ID:             p.ID,
		FileID:         p.FileID,
		Page:           p.Page,
		ParagraphIndex: p.ParagraphIndex,
		Text:           p.Text,
		WordCount:      p.WordCount,
		CharCount:      p.CharCount,
	}
	if opts.IncludeAnnotations && len(p.Annotations) > 0 {
		row.Annotations = p.Annotations
	}
	if opts.IncludeNLP {
		e.attachNLP(&row, p.Text)
	}
	return row
}

// attachNLP runs the full analyzer over one paragraph's text. Any failure
// leaves the corresponding field nil rather than aborting the row, per
// spec §4.6 step 3.
func (e *Exporter) attachNLP(row *Row, text string) {
	res, err := e.Analyzer.Analyze(text, analyzer.Options{
		IncludeEntities:   true,
		IncludeKeywords:   true,
		IncludeSentiment:  true,
		IncludeStatistics: true,
		IncludeSummary:    true,
	})
	if err != nil {
		log.WithError(err).WithField("paragraph_id", row.ID).Warn("NLP enrichment failed for export row")
		return
	}
	if res.Entities != nil {
		row.NLPEntities = res.Entities
		count := len(*res.Entities)
		row.NLPEntitiesCount = &count
	}
	if res.Keywords != nil {
		row.NLPKeywords = res.Keywords
	}
	if res.Sentiment != nil {
		label := res.Sentiment.Sentiment
		score := res.Sentiment.Score
		confidence := res.Sentiment.Confidence
		row.NLPSentiment = &label
		row.NLPSentimentScore = &score
		row.NLPSentimentConfidence = &confidence
	}
}

// annotationColumns returns the sorted union of annotation keys across rows,
// the CSV schema's trailing "<annotation_keys...>" columns (spec §6). Empty
// when annotations weren't requested, so the schema is unchanged for plain
// exports.
func annotationColumns(rows []Row, opts Options) []string {
	if !opts.IncludeAnnotations {
		return nil
	}
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r.Annotations {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeCSVAtomic(path string, rows []Row, annotationKeys []string) error {
	return atomicWrite(path, func(f *os.File) error {
		w := csv.NewWriter(f)
		header := append(append([]string{}, csvColumns...), annotationKeys...)
		if err := w.Write(header); err != nil {
			return err
		}
		for _, r := range rows {
			record, err := csvRecord(r, annotationKeys)
			if err != nil {
				return err
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

func csvRecord(r Row, annotationKeys []string) ([]string, error) {
	entitiesJSON, entitiesCount := "", ""
	if r.NLPEntities != nil {
		b, err := json.Marshal(*r.NLPEntities)
		if err != nil {
			return nil, err
		}
		entitiesJSON = string(b)
	}
	if r.NLPEntitiesCount != nil {
		entitiesCount = strconv.Itoa(*r.NLPEntitiesCount)
	}
	keywordsJSON := ""
	if r.NLPKeywords != nil {
		b, err := json.Marshal(*r.NLPKeywords)
		if err != nil {
			return nil, err
		}
		keywordsJSON = string(b)
	}
	sentiment, sentimentScore, sentimentConfidence := "", "", ""
	if r.NLPSentiment != nil {
		sentiment = *r.NLPSentiment
	}
	if r.NLPSentimentScore != nil {
		sentimentScore = strconv.FormatFloat(*r.NLPSentimentScore, 'f', -1, 64)
	}
	if r.NLPSentimentConfidence != nil {
		sentimentConfidence = strconv.FormatFloat(*r.NLPSentimentConfidence, 'f', -1, 64)
	}

	record := []string{
		r.ID, r.FileID, strconv.Itoa(r.Page), strconv.Itoa(r.ParagraphIndex), r.Text,
		strconv.Itoa(r.WordCount), strconv.Itoa(r.CharCount),
		entitiesJSON, entitiesCount, keywordsJSON,
		sentiment, sentimentScore, sentimentConfidence,
	}
	for _, key := range annotationKeys {
		val, ok := r.Annotations[key]
		if !ok {
			record = append(record, "")
			continue
		}
		s, err := annotationCellValue(val)
		if err != nil {
			return nil, err
		}
		record = append(record, s)
	}
	return record, nil
}

// annotationCellValue renders an opaque annotation value as a CSV cell:
// strings pass through unquoted (the csv.Writer quotes as needed), everything
// else round-trips through JSON so numbers, bools, and nested values survive.
func annotationCellValue(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeJSONLAtomic(path string, rows []Row) error {
	return atomicWrite(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func atomicWrite(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-export-*")
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to create temp export file", err)
	}
	tmpPath := tmp.Name()
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to write export file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to close export file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apierr.Wrap(apierr.Internal, "failed to rename export file into place", err)
	}
	return nil
}

type sidecarMeta struct {
	FileID      string `json:"file_id"`
	Format      string `json:"format"`
	IncludeNLP  bool   `json:"include_nlp"`
	IncludeAnnotations bool `json:"include_annotations"`
	RecordCount int    `json:"record_count"`
}

func writeSidecarMeta(exportPath, fileID string, opts Options, recordCount int) error {
	meta := sidecarMeta{
		FileID:             fileID,
		Format:             opts.Format,
		IncludeNLP:         opts.IncludeNLP,
		IncludeAnnotations: opts.IncludeAnnotations,
		RecordCount:        recordCount,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	sidecarPath := exportPath + "_meta.json"
	return atomicWrite(sidecarPath, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}
