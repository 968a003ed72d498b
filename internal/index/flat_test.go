package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/entity"
)

func buildIndex(t *testing.T, dim int, rows map[int64][]float32, order []int64) *Flat {
	t.Helper()
	idx, err := New(dim)
	require.NoError(t, err)
	for _, id := range order {
		require.NoError(t, idx.Add(id, rows[id]))
	}
	return idx
}

func TestNew(t *testing.T) {
	t.Run("rejects non-positive dimension", func(t *testing.T) {
		_, err := New(0)
		assert.Error(t, err)
	})
}

func TestAdd(t *testing.T) {
	t.Run("rejects mismatched vector dimension", func(t *testing.T) {
		idx, err := New(3)
		require.NoError(t, err)

		err = idx.Add(1, []float32{1, 2})
		assert.Error(t, err)
		assert.Equal(t, 0, idx.Count())
	})
}

func TestSaveLoad(t *testing.T) {
	logger := zap.NewNop()

	t.Run("round trip preserves rows", func(t *testing.T) {
		dir := t.TempDir()
		idx := buildIndex(t, 2, map[int64][]float32{
			10: {1, 0},
			20: {0, 1},
		}, []int64{10, 20})
		require.NoError(t, idx.Save(dir))

		loaded, err := Load(dir, logger)
		require.NoError(t, err)

		assert.Equal(t, 2, loaded.Dimension())
		assert.Equal(t, 2, loaded.Count())
		assert.Equal(t, []int64{10, 20}, loaded.IDs())

		hits, err := loaded.Search([]float32{1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, int64(10), hits[0].ID)
	})

	t.Run("missing file is a LoadError", func(t *testing.T) {
		_, err := Load(t.TempDir(), logger)
		var loadErr *entity.LoadError
		require.ErrorAs(t, err, &loadErr)
	})

	t.Run("corrupt encoding is a LoadError", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("garbage"), 0o644))

		_, err := Load(dir, logger)
		var loadErr *entity.LoadError
		require.ErrorAs(t, err, &loadErr)
	})

	t.Run("vector not matching declared dimension is a LoadError", func(t *testing.T) {
		dir := t.TempDir()
		idx := &Flat{dim: 3, ids: []int64{1}, vectors: [][]float32{{1, 2}}}
		require.NoError(t, idx.Save(dir))

		_, err := Load(dir, logger)
		var loadErr *entity.LoadError
		require.ErrorAs(t, err, &loadErr)
	})

	t.Run("id and vector count mismatch is a LoadError", func(t *testing.T) {
		dir := t.TempDir()
		idx := &Flat{dim: 1, ids: []int64{1, 2}, vectors: [][]float32{{0.5}}}
		require.NoError(t, idx.Save(dir))

		_, err := Load(dir, logger)
		var loadErr *entity.LoadError
		require.ErrorAs(t, err, &loadErr)
	})
}

func TestSearch(t *testing.T) {
	idx := buildIndex(t, 2, map[int64][]float32{
		1: {0, 0},
		2: {3, 4},
		3: {1, 0},
	}, []int64{1, 2, 3})

	t.Run("results are ordered by ascending distance", func(t *testing.T) {
		hits, err := idx.Search([]float32{0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)

		assert.Equal(t, []int64{1, 3, 2}, []int64{hits[0].ID, hits[1].ID, hits[2].ID})
		assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
		assert.InDelta(t, 1.0, hits[1].Distance, 1e-6)
		assert.InDelta(t, 5.0, hits[2].Distance, 1e-6)
		for i := 1; i < len(hits); i++ {
			assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
		}
	})

	t.Run("k larger than the index clamps to the vector count", func(t *testing.T) {
		hits, err := idx.Search([]float32{0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, hits, 3)
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		tied := buildIndex(t, 1, map[int64][]float32{
			7: {2},
			8: {2},
			9: {2},
		}, []int64{7, 8, 9})

		hits, err := tied.Search([]float32{0}, 3)
		require.NoError(t, err)
		assert.Equal(t, []int64{7, 8, 9}, []int64{hits[0].ID, hits[1].ID, hits[2].ID})
	})

	t.Run("query dimension mismatch fails", func(t *testing.T) {
		_, err := idx.Search([]float32{0}, 1)
		assert.Error(t, err)
	})

	t.Run("k below one fails", func(t *testing.T) {
		_, err := idx.Search([]float32{0, 0}, 0)
		assert.Error(t, err)
	})

	t.Run("empty index returns no hits", func(t *testing.T) {
		empty, err := New(2)
		require.NoError(t, err)

		hits, err := empty.Search([]float32{0, 0}, 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}
