package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/avoskr/issueqa-backend/internal/api/middleware"
	queryapi "github.com/avoskr/issueqa-backend/internal/api/query"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(queryHandler *queryapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	queryapi.RegisterRoutes(r, queryHandler)

	return r
}
