package query

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/config"
	"github.com/avoskr/issueqa-backend/internal/entity"
	"github.com/avoskr/issueqa-backend/internal/retrieval"
)

const (
	emptyQuestionAnswer = "Please provide a question. I have no information to answer an empty query."
	fallbackAnswer      = "I encountered an error while processing your question."
)

// Usecase is the query session: the single entry point tying retrieval,
// context assembly and generation together. Each call is independent; the
// index and store behind the retriever are immutable, so concurrent calls
// need no coordination.
type Usecase struct {
	retriever Retriever
	generator Generator
	cfg       config.RetrievalConfig
	logger    *zap.Logger
}

func NewUsecase(retriever Retriever, generator Generator, cfg config.RetrievalConfig, logger *zap.Logger) *Usecase {
	return &Usecase{
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Query answers a question over the issue corpus. It never returns an
// error: retrieval and generation failures are converted into a
// well-formed response with an apologetic answer and the Error field set,
// so callers need no special-case handling for the failure path.
func (uc *Usecase) Query(ctx context.Context, question string) *entity.QueryResponse {
	start := time.Now()
	resp := &entity.QueryResponse{
		ID:        uuid.New().String(),
		Sources:   []entity.Source{},
		Timestamp: time.Now().UTC(),
	}

	if strings.TrimSpace(question) == "" {
		ctxzap.Info(ctx, "empty question, returning degenerate response")
		resp.Answer = emptyQuestionAnswer
		resp.ProcessingTime = time.Since(start).Seconds()
		return resp
	}

	ctxzap.Info(ctx, "processing question", zap.Int("question_length", len(question)))

	results, err := uc.retriever.Retrieve(ctx, question, uc.cfg.TopK, uc.cfg.FetchK)
	if err != nil {
		ctxzap.Error(ctx, "retrieval failed", zap.Error(err))
		resp.Answer = fallbackAnswer
		resp.Error = err.Error()
		resp.ProcessingTime = time.Since(start).Seconds()
		return resp
	}

	contextBlock := retrieval.BuildContext(results, uc.cfg.PerDocChars, uc.cfg.TotalChars)

	// Sources reflect the full retrieved set even when the context budget
	// excluded some of them from generation input.
	resp.Sources = toSources(results)
	resp.Metrics = buildMetrics(results)

	answer, err := uc.generator.Generate(ctx, contextBlock, question)
	if err != nil {
		genErr := &entity.GenerationError{Err: err}
		ctxzap.Error(ctx, "generation failed", zap.Error(genErr))
		resp.Answer = fallbackAnswer
		resp.Error = genErr.Error()
		resp.ProcessingTime = time.Since(start).Seconds()
		return resp
	}

	resp.Answer = answer
	resp.ProcessingTime = time.Since(start).Seconds()

	ctxzap.Info(ctx, "question answered",
		zap.Int("sources", len(resp.Sources)),
		zap.Float64("processing_seconds", resp.ProcessingTime),
	)
	return resp
}

func toSources(results []entity.RetrievalResult) []entity.Source {
	out := make([]entity.Source, 0, len(results))
	for _, res := range results {
		out = append(out, entity.Source{
			IssueNumber:     res.Document.Metadata.IssueNumber,
			Title:           res.Document.Metadata.Title,
			URL:             res.Document.Metadata.URL,
			Content:         res.Document.Preview,
			SimilarityScore: res.Distance,
		})
	}
	return out
}

func buildMetrics(results []entity.RetrievalResult) entity.QueryMetrics {
	m := entity.QueryMetrics{NumSources: len(results)}
	if len(results) == 0 {
		return m
	}
	var sum float64
	for _, res := range results {
		sum += res.Distance
	}
	m.AvgSimilarityScore = sum / float64(len(results))
	return m
}
