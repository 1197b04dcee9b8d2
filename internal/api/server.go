package api

import (
	"net/http"
	"time"

	interviewapi "github.com/futig/interview-engine/internal/api/interview"
	"github.com/futig/interview-engine/internal/api/middleware"
	"github.com/futig/interview-engine/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router. A nil metricsHandler
// leaves /metrics unregistered.
func SetupRouter(interviewHandler *interviewapi.Handler, metricsHandler http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                 // Recover from panics
	r.Use(chimiddleware.RequestID)                 // Add request ID
	r.Use(middleware.Logger(logger))               // Log requests
	r.Use(middleware.Tracing)                      // Trace requests
	r.Use(middleware.CORS)                         // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	interviewapi.RegisterRoutes(r, interviewHandler)

	return r
}
