package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/config"
	"github.com/avoskr/issueqa-backend/internal/entity"
	pkgretry "github.com/avoskr/issueqa-backend/internal/pkg/retry"
)

func testEmbeddingConfig(url string, dimension int) config.EmbeddingConnectorConfig {
	return config.EmbeddingConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			URL:            url,
			RequestTimeout: 5 * time.Second,
			ConnTimeout:    time.Second,
		},
		Model:     "test-model",
		Dimension: dimension,
		CacheTTL:  time.Minute,
		Retry: pkgretry.Config{
			Attempts: 2,
			Delay:    time.Millisecond,
			MaxDelay: 5 * time.Millisecond,
		},
	}
}

func TestEmbedBatch(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("preserves input order using response indices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req entity.EmbeddingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "/embeddings", r.URL.Path)
			assert.Equal(t, "test-model", req.Model)
			require.Len(t, req.Input, 2)

			// Shuffled on purpose: the connector must reorder by index.
			resp := entity.EmbeddingResponse{Data: []entity.EmbeddingData{
				{Index: 1, Embedding: []float32{0, 1}},
				{Index: 0, Embedding: []float32{1, 0}},
			}}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		c := NewConnector(testEmbeddingConfig(server.URL, 2), logger)

		vectors, err := c.EmbedBatch(ctx, []string{"first", "second"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{1, 0}, vectors[0])
		assert.Equal(t, []float32{0, 1}, vectors[1])
	})

	t.Run("rejects vectors of the wrong dimension", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := entity.EmbeddingResponse{Data: []entity.EmbeddingData{
				{Index: 0, Embedding: []float32{1, 0, 0}},
			}}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		c := NewConnector(testEmbeddingConfig(server.URL, 2), logger)

		_, err := c.EmbedBatch(ctx, []string{"text"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension")
	})

	t.Run("rejects responses with missing vectors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := entity.EmbeddingResponse{Data: []entity.EmbeddingData{
				{Index: 0, Embedding: []float32{1, 0}},
			}}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		c := NewConnector(testEmbeddingConfig(server.URL, 2), logger)

		_, err := c.EmbedBatch(ctx, []string{"one", "two"})
		require.Error(t, err)
	})

	t.Run("retries server errors up to the configured attempts", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewConnector(testEmbeddingConfig(server.URL, 2), logger)

		_, err := c.EmbedBatch(ctx, []string{"text"})
		require.Error(t, err)
		assert.Equal(t, 2, calls)
	})
}

func TestEmbed(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("caches single-text embeddings", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			resp := entity.EmbeddingResponse{Data: []entity.EmbeddingData{
				{Index: 0, Embedding: []float32{0.5, 0.5}},
			}}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		c := NewConnector(testEmbeddingConfig(server.URL, 2), logger)

		first, err := c.Embed(ctx, "same question")
		require.NoError(t, err)
		second, err := c.Embed(ctx, "same question")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)
	})
}

func TestMockConnector(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	m := NewMockConnector(64, logger)

	t.Run("deterministic for identical input", func(t *testing.T) {
		a, err := m.Embed(ctx, "pod scheduling")
		require.NoError(t, err)
		b, err := m.Embed(ctx, "pod scheduling")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("vectors have the configured dimension", func(t *testing.T) {
		vec, err := m.Embed(ctx, "anything at all")
		require.NoError(t, err)
		assert.Len(t, vec, 64)
		assert.Equal(t, 64, m.Dimension())
	})

	t.Run("token overlap means smaller distance", func(t *testing.T) {
		q, _ := m.Embed(ctx, "pod scheduling issue")
		near, _ := m.Embed(ctx, "pod scheduling failures")
		far, _ := m.Embed(ctx, "configmap mount guide")

		assert.Less(t, l2(q, near), l2(q, far))
	})
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
