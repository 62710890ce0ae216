package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docstruct/internal/doc"
	"github.com/dgallion1/docstruct/internal/segment"
	"github.com/dgallion1/docstruct/internal/structure"
)

// Envelope is the per-document summary written next to the paragraph
// array. Sections and references are present only for structure-derived
// results.
type Envelope struct {
	DocID          string                `json:"doc_id"`
	Strategy       string                `json:"strategy_used"`
	Metadata       doc.DocumentMetadata  `json:"metadata"`
	PageCount      int                   `json:"page_count"`
	ParagraphCount int                   `json:"paragraph_count"`
	Sections       []*structure.Section  `json:"sections,omitempty"`
	References     []structure.Reference `json:"references,omitempty"`
	Warnings       []string              `json:"warnings,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// Writer lands parse results as JSON files under one output directory,
// two per document: <doc_id>.json and <doc_id>.paragraphs.json.
type Writer struct {
	dir string
	log *slog.Logger
}

func NewWriter(dir string, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{dir: dir, log: log}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// EnvelopePath returns where a document's envelope lands.
func (w *Writer) EnvelopePath(docID string) string {
	return filepath.Join(w.dir, docID+".json")
}

// ParagraphsPath returns where a document's paragraph array lands.
func (w *Writer) ParagraphsPath(docID string) string {
	return filepath.Join(w.dir, docID+".paragraphs.json")
}

// WriteResult writes the envelope and paragraph array for one document and
// returns the two paths written. Each file is written atomically, so a
// crash mid-write never leaves a truncated result behind.
func (w *Writer) WriteResult(env Envelope, paragraphs []*segment.Paragraph) (string, string, error) {
	if env.DocID == "" {
		return "", "", fmt.Errorf("empty doc id")
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}
	if paragraphs == nil {
		paragraphs = []*segment.Paragraph{}
	}

	envPath := w.EnvelopePath(env.DocID)
	if err := writeJSON(envPath, env); err != nil {
		return "", "", err
	}
	paraPath := w.ParagraphsPath(env.DocID)
	if err := writeJSON(paraPath, paragraphs); err != nil {
		return "", "", err
	}

	w.log.Debug("wrote result", "doc_id", env.DocID, "paragraphs", len(paragraphs), "dir", w.dir)
	return envPath, paraPath, nil
}

// ReadEnvelope loads a previously written document envelope.
func (w *Writer) ReadEnvelope(docID string) (*Envelope, error) {
	data, err := os.ReadFile(w.EnvelopePath(docID))
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	return &env, nil
}

// ReadParagraphs loads a previously written paragraph array.
func (w *Writer) ReadParagraphs(docID string) ([]*segment.Paragraph, error) {
	data, err := os.ReadFile(w.ParagraphsPath(docID))
	if err != nil {
		return nil, fmt.Errorf("read paragraphs: %w", err)
	}
	var paragraphs []*segment.Paragraph
	if err := json.Unmarshal(data, &paragraphs); err != nil {
		return nil, fmt.Errorf("parse paragraphs: %w", err)
	}
	return paragraphs, nil
}

// writeJSON marshals v and moves it into place with a temp file and rename
// in the target directory.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
