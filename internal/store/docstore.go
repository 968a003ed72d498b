// Package store implements the read-only document store backing retrieval.
// The persisted form is a two-part structure: documents keyed by id plus a
// position-to-id map mirroring the vector index layout. Both parts are
// validated strictly at load; queries never mutate the store.
package store

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/entity"
)

// FileName is the fixed name of the document store artifact inside the
// artifacts directory.
const FileName = "docstore.bin"

const (
	previewChars  = 200
	ellipsisMark  = "..."
	unknownField  = "Unknown"
	storeFilePerm = 0o644
)

// storedDocument is the on-disk form of one document. Metadata fields may
// be empty on disk; they are backfilled at load time.
type storedDocument struct {
	Text        string
	IssueNumber string
	URL         string
	Title       string
}

// storeFile is the on-disk shape: documents keyed by id and the
// position-to-id map aligning store entries with index rows.
type storeFile struct {
	Documents map[int64]storedDocument
	IndexToID []int64
}

// DocStore is an immutable, id-keyed collection of documents. Safe for
// concurrent readers without locking.
type DocStore struct {
	docs  map[int64]entity.Document
	order []int64
}

// Load reads and validates the document store artifact. A missing file or a
// structure that does not match the expected two-part shape is a LoadError.
// Metadata normalization (backfilling "Unknown", computing previews) happens
// here, once, never per query.
func Load(dir string, logger *zap.Logger) (*DocStore, error) {
	path := filepath.Join(dir, FileName)

	f, err := os.Open(path)
	if err != nil {
		return nil, &entity.LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var raw storeFile
	if err := gob.NewDecoder(f).Decode(&raw); err != nil {
		return nil, &entity.LoadError{Path: path, Err: fmt.Errorf("decode document store: %w", err)}
	}

	if raw.Documents == nil || raw.IndexToID == nil {
		return nil, &entity.LoadError{Path: path, Err: errors.New("store must contain both documents-by-id and position-to-id parts")}
	}
	if len(raw.Documents) != len(raw.IndexToID) {
		return nil, &entity.LoadError{Path: path, Err: fmt.Errorf(
			"documents-by-id has %d entries but position-to-id map has %d", len(raw.Documents), len(raw.IndexToID))}
	}

	docs := make(map[int64]entity.Document, len(raw.Documents))
	for pos, id := range raw.IndexToID {
		sd, ok := raw.Documents[id]
		if !ok {
			return nil, &entity.LoadError{Path: path, Err: fmt.Errorf("position %d references unknown document id %d", pos, id)}
		}
		docs[id] = normalize(id, sd)
	}

	order := make([]int64, len(raw.IndexToID))
	copy(order, raw.IndexToID)

	logger.Info("document store loaded", zap.Int("documents", len(docs)))

	return &DocStore{docs: docs, order: order}, nil
}

// Save writes the documents as a store artifact, preserving slice order as
// the position-to-id map. Used only by the offline ingestion pipeline.
func Save(dir string, docs []entity.Document) error {
	raw := storeFile{
		Documents: make(map[int64]storedDocument, len(docs)),
		IndexToID: make([]int64, 0, len(docs)),
	}
	for _, d := range docs {
		if _, exists := raw.Documents[d.ID]; exists {
			return fmt.Errorf("duplicate document id %d", d.ID)
		}
		raw.Documents[d.ID] = storedDocument{
			Text:        d.Text,
			IssueNumber: d.Metadata.IssueNumber,
			URL:         d.Metadata.URL,
			Title:       d.Metadata.Title,
		}
		raw.IndexToID = append(raw.IndexToID, d.ID)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifacts dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, storeFilePerm)
	if err != nil {
		return fmt.Errorf("create document store file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(&raw); err != nil {
		return fmt.Errorf("encode document store: %w", err)
	}
	return nil
}

// Get returns the document for the given id.
func (s *DocStore) Get(id int64) (entity.Document, bool) {
	doc, ok := s.docs[id]
	return doc, ok
}

// Count returns the number of documents in the store.
func (s *DocStore) Count() int {
	return len(s.docs)
}

// AllIDs returns the position-ordered document ids, for integrity checks
// against the vector index.
func (s *DocStore) AllIDs() []int64 {
	out := make([]int64, len(s.order))
	copy(out, s.order)
	return out
}

func normalize(id int64, sd storedDocument) entity.Document {
	md := entity.DocumentMetadata{
		IssueNumber: sd.IssueNumber,
		URL:         sd.URL,
		Title:       sd.Title,
	}
	if md.IssueNumber == "" {
		md.IssueNumber = unknownField
	}
	if md.URL == "" {
		md.URL = unknownField
	}
	if md.Title == "" {
		md.Title = unknownField
	}
	return entity.Document{
		ID:       id,
		Text:     sd.Text,
		Metadata: md,
		Preview:  Preview(sd.Text),
	}
}

// Preview returns a bounded prefix of text with an ellipsis marker when
// truncation happened.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewChars {
		return text
	}
	return string(r[:previewChars]) + ellipsisMark
}
