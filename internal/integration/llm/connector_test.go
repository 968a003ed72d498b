package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/config"
	"github.com/avoskr/issueqa-backend/internal/entity"
	pkgretry "github.com/avoskr/issueqa-backend/internal/pkg/retry"
)

func testLLMConfig(url string) config.LLMConnectorConfig {
	return config.LLMConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			URL:            url,
			RequestTimeout: 5 * time.Second,
			ConnTimeout:    time.Second,
		},
		Model:       "test-model",
		MaxTokens:   100,
		Temperature: 0,
		Retry: pkgretry.Config{
			Attempts: 2,
			Delay:    time.Millisecond,
			MaxDelay: 5 * time.Millisecond,
		},
	}
}

func TestGenerate(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("sends the prompt with context and question and trims the answer", func(t *testing.T) {
		var captured entity.ChatCompletionRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			assert.Equal(t, "/chat/completions", r.URL.Path)

			resp := entity.ChatCompletionResponse{Choices: []entity.ChatCompletionChoice{
				{Message: entity.ChatMessage{Role: "assistant", Content: "  use kubectl describe  \n"}},
			}}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		c := NewConnector(testLLMConfig(server.URL), logger)

		answer, err := c.Generate(ctx, "Issue #1: scheduler crashes\n---\n", "why do pods stay pending?")
		require.NoError(t, err)
		assert.Equal(t, "use kubectl describe", answer)

		assert.Equal(t, "test-model", captured.Model)
		assert.Equal(t, 100, captured.MaxTokens)
		require.Len(t, captured.Messages, 1)
		assert.Equal(t, "user", captured.Messages[0].Role)
		assert.Contains(t, captured.Messages[0].Content, "Issue #1: scheduler crashes")
		assert.Contains(t, captured.Messages[0].Content, "why do pods stay pending?")
		assert.Contains(t, captured.Messages[0].Content, "Use ONLY the provided context")
	})

	t.Run("no choices is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(entity.ChatCompletionResponse{})
		}))
		defer server.Close()

		c := NewConnector(testLLMConfig(server.URL), logger)

		_, err := c.Generate(ctx, "context", "question")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})

	t.Run("server errors are retried then surfaced", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		c := NewConnector(testLLMConfig(server.URL), logger)

		_, err := c.Generate(ctx, "context", "question")
		require.Error(t, err)
		assert.Equal(t, 2, calls)
	})
}

func TestMockGenerate(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	m := NewMockConnector(logger)

	t.Run("empty context produces a no-results answer", func(t *testing.T) {
		answer, err := m.Generate(ctx, "", "anything")
		require.NoError(t, err)
		assert.Contains(t, answer, "could not find")
	})

	t.Run("non-empty context is echoed into the answer", func(t *testing.T) {
		answer, err := m.Generate(ctx, "Issue #5: kubelet restarts\n---\n", "why?")
		require.NoError(t, err)
		assert.Contains(t, answer, "Issue #5")
	})
}
