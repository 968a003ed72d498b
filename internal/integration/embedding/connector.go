package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/config"
	"github.com/avoskr/issueqa-backend/internal/entity"
	"github.com/avoskr/issueqa-backend/internal/integration/common"
	pkghttp "github.com/avoskr/issueqa-backend/pkg/http"
)

// Connector calls an OpenAI-compatible embeddings endpoint. Embed results
// for identical input are deterministic for a fixed model, so single-text
// embeddings are cached with a TTL to spare repeated queries the network
// round trip.
type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	cache     *gocache.Cache
	logger    *zap.Logger
}

func NewConnector(cfg config.EmbeddingConnectorConfig, logger *zap.Logger) *Connector {
	return &Connector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig),
		cache:     gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:    logger,
	}
}

// Embed returns the embedding vector for a single text.
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := c.cache.Get(text); ok {
		return cached.([]float32), nil
	}

	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	c.cache.Set(text, vectors[0], gocache.DefaultExpiration)
	return vectors[0], nil
}

// EmbedBatch embeds several texts in one request, preserving input order.
// Used by the offline ingestion pipeline.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := entity.EmbeddingRequest{
		Model: c.config.Model,
		Input: texts,
	}

	var resp entity.EmbeddingResponse
	err := retry.Do(
		func() error {
			return c.connector.DoRequest(ctx, http.MethodPost, "/embeddings", &req, &resp)
		},
		append(c.config.Retry.ToOptions(), retry.Context(ctx))...,
	)
	if err != nil {
		ctxzap.Error(ctx, "embedding request failed", zap.Error(err), zap.Int("texts", len(texts)))
		return nil, fmt.Errorf("embeddings request: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings response index %d out of range", d.Index)
		}
		if len(d.Embedding) != c.config.Dimension {
			return nil, fmt.Errorf("embedding has dimension %d, expected %d", len(d.Embedding), c.config.Dimension)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embeddings response missing vector for input %d", i)
		}
	}

	ctxzap.Debug(ctx, "texts embedded",
		zap.Int("texts", len(texts)),
		zap.Int("dimension", c.config.Dimension),
	)
	return vectors, nil
}

// Dimension returns the configured output dimension.
func (c *Connector) Dimension() int {
	return c.config.Dimension
}
