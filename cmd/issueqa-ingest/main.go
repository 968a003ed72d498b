// issueqa-ingest builds the persisted artifacts consumed by the backend:
// it fetches issues from GitHub, preprocesses and embeds them, and writes
// the vector index and document store into the artifacts directory.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/builder"
)

func main() {
	ctx := context.Background()

	pipeline, cfg, logger, err := builder.BuildIngestPipeline(ctx)
	if err != nil {
		log.Fatal("Failed to build ingestion pipeline:", err)
	}
	defer logger.Sync()

	count, err := pipeline.Run(ctx, cfg.ArtifactsDir)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion completed",
		zap.Int("documents", count),
		zap.String("artifacts_dir", cfg.ArtifactsDir),
	)
}
