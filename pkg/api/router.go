package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/parkwarden/parkwarden/internal/logger"
	"github.com/parkwarden/parkwarden/pkg/api/handlers"
)

// Services are the domain components the API serves. Optional fields may be
// nil; the corresponding endpoints answer 503.
type Services struct {
	Health      *handlers.HealthHandler
	Ingest      *handlers.IngestHandler
	Reviews     *handlers.ReviewHandler
	Suspensions *handlers.SuspensionHandler
	Decisions   *handlers.DecisionHandler
	Sites       *handlers.SiteHandler

	// Metrics serves GET /metrics when set (promhttp handler).
	Metrics http.Handler
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
func NewRouter(services Services) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", services.Health.Liveness)
		r.Get("/ready", services.Health.Readiness)
	})

	if services.Metrics != nil {
		r.Handle("/metrics", services.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Ingestion feeds
		r.Post("/movements", services.Ingest.Movements)
		r.Post("/payments", services.Ingest.Payments)
		r.Post("/permits", services.Ingest.Permits)

		// Plate-review workflow
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", services.Reviews.List)
			r.Post("/bulk-discard", services.Reviews.BulkDiscard)
			r.Post("/{id}/approve", services.Reviews.Approve)
			r.Post("/{id}/correct", services.Reviews.Correct)
			r.Post("/{id}/discard", services.Reviews.Discard)
		})

		// Enforcement suspensions
		r.Route("/suspensions", func(r chi.Router) {
			r.Get("/", services.Suspensions.List)
			r.Post("/", services.Suspensions.Create)
			r.Post("/{id}/end", services.Suspensions.End)
		})

		// Compliance decisions
		r.Route("/decisions", func(r chi.Router) {
			r.Get("/", services.Decisions.List)
			r.Get("/{id}", services.Decisions.Get)
			r.Post("/{id}/review", services.Decisions.Review)
		})

		// Sites, exports and manual reconciliation
		r.Route("/sites", func(r chi.Router) {
			r.Get("/", services.Sites.List)
			r.Get("/{id}", services.Sites.Get)
			r.Get("/{id}/snapshot", services.Sites.Snapshot)
			r.Post("/{id}/export", services.Sites.Publish)
			r.Post("/{id}/reconcile", services.Sites.Reconcile)
		})
		r.Get("/export/schema", handlers.ExportSchema)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)
	})
}
