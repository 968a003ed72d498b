package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector produces embeddings without an external service: a hashed
// bag-of-words projection, L2-normalized. Deterministic for identical
// input, and texts sharing tokens land close together, which is enough for
// offline development and tests.
type MockConnector struct {
	dimension int
	logger    *zap.Logger
}

func NewMockConnector(dimension int, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		dimension: dimension,
		logger:    logger,
	}
}

func (m *MockConnector) Embed(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding text", zap.Int("length", len(text)))
	return m.vector(text), nil
}

func (m *MockConnector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding batch", zap.Int("texts", len(texts)))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *MockConnector) Dimension() int {
	return m.dimension
}

func (m *MockConnector) vector(text string) []float32 {
	vec := make([]float32, m.dimension)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?:;\"'()[]")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32()%uint32(m.dimension))]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
