package llm

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is the offline stand-in for the generation service.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Generate(ctx context.Context, contextBlock, question string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating answer",
		zap.Int("context_length", len(contextBlock)),
		zap.Int("question_length", len(question)),
	)

	if contextBlock == "" {
		return "I could not find relevant issues for this question in the corpus.", nil
	}
	return fmt.Sprintf("Based on the retrieved issues, here is a summary relevant to %q:\n\n%s", question, contextBlock), nil
}
