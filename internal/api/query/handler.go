package query

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/entity"
	"github.com/avoskr/issueqa-backend/internal/pkg/logger"
	"github.com/avoskr/issueqa-backend/internal/pkg/response"
)

// QueryUsecase is the query session the handler delegates to.
type QueryUsecase interface {
	Query(ctx context.Context, question string) *entity.QueryResponse
}

type Handler struct {
	usecase QueryUsecase
}

func NewHandler(usecase QueryUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Query handles POST /query. Per-query failures still return 200 with a
// well-formed body carrying the error indicator; only a malformed request
// body is a client error.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")

	var req entity.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := h.usecase.Query(ctx, req.Question)
	response.Success(w, resp)
}
