package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/entity"
	"github.com/avoskr/issueqa-backend/internal/index"
	"github.com/avoskr/issueqa-backend/internal/store"
)

const embedBatchSize = 32

// BatchEmbedder is the embedding capability the pipeline needs.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Pipeline builds the persisted artifacts from fetched issues.
type Pipeline struct {
	fetcher  *Fetcher
	embedder BatchEmbedder
	logger   *zap.Logger
}

func NewPipeline(fetcher *Fetcher, embedder BatchEmbedder, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		embedder: embedder,
		logger:   logger,
	}
}

// Run fetches, preprocesses, embeds and persists the corpus into dir.
// Returns the number of indexed documents.
func (p *Pipeline) Run(ctx context.Context, dir string) (int, error) {
	raw, err := p.fetcher.FetchIssues(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch issues: %w", err)
	}
	if len(raw) == 0 {
		return 0, errors.New("no issues fetched, nothing to index")
	}

	docs := Preprocess(raw)
	p.logger.Info("issues preprocessed", zap.Int("documents", len(docs)))

	idx, err := index.New(p.embedder.Dimension())
	if err != nil {
		return 0, err
	}

	if err := p.embedAll(ctx, docs, idx); err != nil {
		return 0, err
	}

	if err := idx.Save(dir); err != nil {
		return 0, fmt.Errorf("save index: %w", err)
	}
	if err := store.Save(dir, docs); err != nil {
		return 0, fmt.Errorf("save document store: %w", err)
	}

	p.logger.Info("artifacts written",
		zap.String("dir", dir),
		zap.Int("documents", len(docs)),
		zap.Int("dimension", p.embedder.Dimension()),
	)
	return len(docs), nil
}

func (p *Pipeline) embedAll(ctx context.Context, docs []entity.Document, idx *index.Flat) error {
	for start := 0; start < len(docs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch starting at %d: %w", start, err)
		}

		for i, vec := range vectors {
			if err := idx.Add(docs[start+i].ID, vec); err != nil {
				return err
			}
		}
		p.logger.Info("batch embedded", zap.Int("done", end), zap.Int("total", len(docs)))
	}
	return nil
}
