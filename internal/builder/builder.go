package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/api"
	queryapi "github.com/avoskr/issueqa-backend/internal/api/query"
	"github.com/avoskr/issueqa-backend/internal/config"
	"github.com/avoskr/issueqa-backend/internal/entity"
	"github.com/avoskr/issueqa-backend/internal/index"
	"github.com/avoskr/issueqa-backend/internal/ingest"
	"github.com/avoskr/issueqa-backend/internal/integration/embedding"
	"github.com/avoskr/issueqa-backend/internal/integration/llm"
	"github.com/avoskr/issueqa-backend/internal/retrieval"
	"github.com/avoskr/issueqa-backend/internal/store"
	"github.com/avoskr/issueqa-backend/internal/usecase/query"
)

// Build wires the full HTTP application: configuration, logging, persisted
// artifacts, external-service connectors and the query session. Any
// LoadError or ConfigError here aborts startup; the process never serves
// queries with partial wiring.
func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	queryUC, err := buildQueryUsecase(cfg, logger)
	if err != nil {
		return nil, err
	}

	queryHandler := queryapi.NewHandler(queryUC)
	router := api.SetupRouter(queryHandler, logger)
	logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		logger: logger,
	}, nil
}

// BuildQueryService wires the query session without the HTTP layer, for the
// CLI front-ends.
func BuildQueryService() (*query.Usecase, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	uc, err := buildQueryUsecase(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return uc, logger, nil
}

// BuildIngestPipeline wires the offline ingestion pipeline for
// issueqa-ingest. It does not load the artifacts; it produces them.
func BuildIngestPipeline(ctx context.Context) (*ingest.Pipeline, *config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	var embedder ingest.BatchEmbedder
	if cfg.EnableMocks {
		logger.Info("Using mock embedding connector")
		embedder = embedding.NewMockConnector(cfg.EmbeddingCfg.Dimension, logger)
	} else {
		embedder = embedding.NewConnector(cfg.EmbeddingCfg, logger)
	}

	fetcher := ingest.NewFetcher(ctx, cfg.GitHubCfg, logger)
	return ingest.NewPipeline(fetcher, embedder, logger), cfg, logger, nil
}

func buildQueryUsecase(cfg *config.Config, logger *zap.Logger) (*query.Usecase, error) {
	docStore, err := store.Load(cfg.ArtifactsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("load document store: %w", err)
	}

	idx, err := index.Load(cfg.ArtifactsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("load vector index: %w", err)
	}

	if err := checkAlignment(idx, docStore, cfg); err != nil {
		return nil, err
	}

	var embedder retrieval.Embedder
	var generator query.Generator

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(cfg.EmbeddingCfg.Dimension, logger)
		generator = llm.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		embedder = embedding.NewConnector(cfg.EmbeddingCfg, logger)
		generator = llm.NewConnector(cfg.LLMCfg, logger)
	}

	retriever := retrieval.NewRetriever(embedder, idx, docStore, logger)
	logger.Info("Retriever initialized",
		zap.Int("top_k", cfg.RetrievalCfg.TopK),
		zap.Int("fetch_k", cfg.RetrievalCfg.FetchK),
	)

	return query.NewUsecase(retriever, generator, cfg.RetrievalCfg, logger), nil
}

// checkAlignment validates the index/store pairing eagerly, before the
// first query: matching counts, every indexed id resolvable, and the index
// dimension equal to the configured embedding dimension.
func checkAlignment(idx *index.Flat, docStore *store.DocStore, cfg *config.Config) error {
	if idx.Count() != docStore.Count() {
		return &entity.LoadError{
			Path: cfg.ArtifactsDir,
			Err:  fmt.Errorf("index has %d vectors but store has %d documents", idx.Count(), docStore.Count()),
		}
	}
	for _, id := range idx.IDs() {
		if _, ok := docStore.Get(id); !ok {
			return &entity.LoadError{
				Path: cfg.ArtifactsDir,
				Err:  fmt.Errorf("index references document id %d missing from store", id),
			}
		}
	}
	if idx.Dimension() != cfg.EmbeddingCfg.Dimension {
		return &entity.ConfigError{Reason: fmt.Sprintf(
			"index dimension %d does not match EMBEDDING_DIMENSION %d", idx.Dimension(), cfg.EmbeddingCfg.Dimension)}
	}
	return nil
}
