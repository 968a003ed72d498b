// Package retrieval orchestrates similarity search: embedding the question,
// searching the vector index, joining hits with the document store and
// assembling the bounded context block for generation.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/entity"
	"github.com/avoskr/issueqa-backend/internal/index"
)

// Embedder maps text to a fixed-dimension vector. Implementations are
// external services; calls may be slow and must respect ctx.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the nearest-neighbor search the retriever depends on.
type Index interface {
	Search(query []float32, k int) ([]index.Hit, error)
}

// DocStore resolves document ids produced by the index.
type DocStore interface {
	Get(id int64) (entity.Document, bool)
}

// Retriever joins the embedder, the vector index and the document store
// into one retrieval operation.
type Retriever struct {
	embedder Embedder
	index    Index
	store    DocStore
	logger   *zap.Logger
}

func NewRetriever(embedder Embedder, idx Index, store DocStore, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    idx,
		store:    store,
		logger:   logger,
	}
}

// Retrieve embeds the question, over-fetches max(k, fetchK) candidates from
// the index, resolves them against the document store and returns the k
// nearest results ordered by ascending distance.
//
// An unresolved candidate id is logged and dropped; if every candidate
// fails to resolve the index and store are out of sync and the call fails
// with RetrievalError. k=0 returns an empty result without touching the
// index. The question text is not validated here: embedding a degenerate
// string is the embedder's business.
func (r *Retriever) Retrieve(ctx context.Context, question string, k, fetchK int) ([]entity.RetrievalResult, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &entity.RetrievalError{Err: fmt.Errorf("embed question: %w", err)}
	}

	n := k
	if fetchK > n {
		n = fetchK
	}

	hits, err := r.index.Search(queryVec, n)
	if err != nil {
		return nil, &entity.RetrievalError{Err: fmt.Errorf("index search: %w", err)}
	}

	results := make([]entity.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		doc, ok := r.store.Get(hit.ID)
		if !ok {
			ctxzap.Warn(ctx, "dropping candidate: id not in document store",
				zap.Int64("document_id", hit.ID),
				zap.Float32("distance", hit.Distance),
			)
			continue
		}
		results = append(results, entity.RetrievalResult{
			Document: doc,
			Distance: float64(hit.Distance),
		})
	}

	if len(hits) > 0 && len(results) == 0 {
		return nil, &entity.RetrievalError{Err: fmt.Errorf(
			"none of %d candidates resolved in document store: index and store are out of sync", len(hits))}
	}

	// Hits arrive ordered, but dropping unresolved candidates must not
	// disturb the ascending-distance guarantee. Stable sort keeps index
	// order on ties.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
