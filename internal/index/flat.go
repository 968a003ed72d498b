// Package index implements a flat (brute-force) nearest-neighbor index over
// fixed-dimension embedding vectors, using Euclidean (L2) distance. The
// index is built once by the offline ingestion pipeline and is read-only at
// query time, so concurrent searches need no locking.
package index

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/entity"
)

// FileName is the fixed name of the index artifact inside the artifacts
// directory.
const FileName = "index.bin"

// Hit is one search result: a document id and its L2 distance to the query
// vector. Lower distance means more similar.
type Hit struct {
	ID       int64
	Distance float32
}

// indexFile is the on-disk shape of the index.
type indexFile struct {
	Dimension int
	IDs       []int64
	Vectors   [][]float32
}

// Flat is a brute-force L2 index. Rows are position-aligned: IDs[i]
// identifies the document embedded as Vectors[i].
type Flat struct {
	dim     int
	ids     []int64
	vectors [][]float32
}

// New creates an empty index for vectors of the given dimension. Used by
// the ingestion pipeline; the query path always starts from Load.
func New(dimension int) (*Flat, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("invalid index dimension %d", dimension)
	}
	return &Flat{dim: dimension}, nil
}

// Add appends one (id, vector) row.
func (f *Flat) Add(id int64, vector []float32) error {
	if len(vector) != f.dim {
		return fmt.Errorf("vector for id %d has dimension %d, index expects %d", id, len(vector), f.dim)
	}
	f.ids = append(f.ids, id)
	f.vectors = append(f.vectors, vector)
	return nil
}

// Load reads and validates the index artifact. A missing file, a corrupt
// encoding or internally inconsistent dimensions are a LoadError.
func Load(dir string, logger *zap.Logger) (*Flat, error) {
	path := filepath.Join(dir, FileName)

	file, err := os.Open(path)
	if err != nil {
		return nil, &entity.LoadError{Path: path, Err: err}
	}
	defer file.Close()

	var raw indexFile
	if err := gob.NewDecoder(file).Decode(&raw); err != nil {
		return nil, &entity.LoadError{Path: path, Err: fmt.Errorf("decode index: %w", err)}
	}

	if raw.Dimension < 1 {
		return nil, &entity.LoadError{Path: path, Err: fmt.Errorf("invalid index dimension %d", raw.Dimension)}
	}
	if len(raw.IDs) != len(raw.Vectors) {
		return nil, &entity.LoadError{Path: path, Err: fmt.Errorf(
			"index has %d ids but %d vectors", len(raw.IDs), len(raw.Vectors))}
	}
	for i, vec := range raw.Vectors {
		if len(vec) != raw.Dimension {
			return nil, &entity.LoadError{Path: path, Err: fmt.Errorf(
				"vector at position %d has dimension %d, header says %d", i, len(vec), raw.Dimension)}
		}
	}

	logger.Info("vector index loaded",
		zap.Int("vectors", len(raw.IDs)),
		zap.Int("dimension", raw.Dimension),
	)

	return &Flat{dim: raw.Dimension, ids: raw.IDs, vectors: raw.Vectors}, nil
}

// Save writes the index artifact. Used only by the ingestion pipeline.
func (f *Flat) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifacts dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer file.Close()

	raw := indexFile{Dimension: f.dim, IDs: f.ids, Vectors: f.vectors}
	if err := gob.NewEncoder(file).Encode(&raw); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Dimension returns the fixed vector dimension of the index.
func (f *Flat) Dimension() int {
	return f.dim
}

// Count returns the number of indexed vectors.
func (f *Flat) Count() int {
	return len(f.ids)
}

// IDs returns the position-ordered document ids, for integrity checks
// against the document store.
func (f *Flat) IDs() []int64 {
	out := make([]int64, len(f.ids))
	copy(out, f.ids)
	return out
}

// Search returns up to k hits ordered by ascending L2 distance. Ties keep
// the original index order (stable sort). Search is side-effect-free and
// safe for concurrent callers.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query vector has dimension %d, index expects %d", len(query), f.dim)
	}
	if k < 1 {
		return nil, errors.New("k must be at least 1")
	}

	hits := make([]Hit, len(f.vectors))
	for i, vec := range f.vectors {
		hits[i] = Hit{ID: f.ids[i], Distance: l2Distance(query, vec)}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func l2Distance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
