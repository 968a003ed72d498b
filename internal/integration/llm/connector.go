package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/config"
	"github.com/avoskr/issueqa-backend/internal/entity"
	"github.com/avoskr/issueqa-backend/internal/integration/common"
	pkghttp "github.com/avoskr/issueqa-backend/pkg/http"
)

// promptTemplate is the fixed generation prompt. The two slots are the
// assembled context block and the user question, in that order.
const promptTemplate = `You are a Kubernetes expert assistant. Answer based on the provided GitHub issues.

Context:
%s

Question: %s

Instructions:
1. Use ONLY the provided context
2. If context is insufficient, say so
3. Include issue numbers when relevant
4. Be concise and clear

Answer:`

// Connector calls an OpenAI-compatible chat completions endpoint to
// generate the final answer.
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(cfg config.LLMConnectorConfig, logger *zap.Logger) *Connector {
	return &Connector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig),
		logger:    logger,
	}
}

// Generate produces an answer for the question given the context block.
// It is a single blocking call; the configured request timeout bounds it.
func (c *Connector) Generate(ctx context.Context, contextBlock, question string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, contextBlock, question)

	req := entity.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []entity.ChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	var resp entity.ChatCompletionResponse
	err := retry.Do(
		func() error {
			return c.connector.DoRequest(ctx, http.MethodPost, "/chat/completions", &req, &resp)
		},
		append(c.config.Retry.ToOptions(), retry.Context(ctx))...,
	)
	if err != nil {
		ctxzap.Error(ctx, "completion request failed", zap.Error(err))
		return "", fmt.Errorf("chat completion request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	ctxzap.Debug(ctx, "answer generated", zap.Int("answer_length", len(answer)))
	return answer, nil
}
