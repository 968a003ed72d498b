package query

import (
	"context"

	"github.com/avoskr/issueqa-backend/internal/entity"
)

// Retriever produces the ordered result set for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k, fetchK int) ([]entity.RetrievalResult, error)
}

// Generator turns (context block, question) into a free-text answer.
type Generator interface {
	Generate(ctx context.Context, contextBlock, question string) (string, error)
}
