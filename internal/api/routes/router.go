package routes

import (
	"net/http"

	"github.com/vitalloop/insight-engine/internal/api/handlers"
	"github.com/vitalloop/insight-engine/internal/api/middleware"
	"github.com/vitalloop/insight-engine/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	insightHandler      *handlers.InsightHandler
	feedbackHandler     *handlers.FeedbackHandler
	telemetryHandler    *handlers.TelemetryHandler
	optimizationHandler *handlers.OptimizationHandler
	sseHandler          *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	insightHandler *handlers.InsightHandler,
	feedbackHandler *handlers.FeedbackHandler,
	telemetryHandler *handlers.TelemetryHandler,
	optimizationHandler *handlers.OptimizationHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		insightHandler:      insightHandler,
		feedbackHandler:     feedbackHandler,
		telemetryHandler:    telemetryHandler,
		optimizationHandler: optimizationHandler,
		sseHandler:          sseHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Insight generation endpoints
	r.mux.HandleFunc("POST /api/insights", r.insightHandler.GenerateInsight)
	r.mux.HandleFunc("POST /api/insights/persona", r.insightHandler.GeneratePersonaInsight)

	// Feedback endpoints
	r.mux.HandleFunc("POST /api/feedback", r.feedbackHandler.SubmitFeedback)
	r.mux.HandleFunc("GET /api/insights/{id}/feedback", r.feedbackHandler.GetInsightFeedback)
	r.mux.HandleFunc("GET /api/insights/{id}/feedback/stats", r.feedbackHandler.GetFeedbackStats)
	r.mux.HandleFunc("GET /api/users/{id}/feedback", r.feedbackHandler.GetUserFeedbackHistory)
	r.mux.HandleFunc("PATCH /api/feedback/{id}/annotations", r.feedbackHandler.UpdateAnnotations)
	r.mux.HandleFunc("POST /api/feedback/{id}/enrich", r.feedbackHandler.EnrichFeedback)

	// Prompt optimization endpoint
	r.mux.HandleFunc("POST /api/insights/{id}/optimize", r.optimizationHandler.OptimizePrompt)

	// Telemetry endpoints
	r.mux.HandleFunc("GET /api/telemetry", r.telemetryHandler.GetSnapshot)
	r.mux.HandleFunc("GET /api/telemetry/providers", r.telemetryHandler.GetProviderHealth)
	r.mux.HandleFunc("GET /api/telemetry/errors", r.telemetryHandler.GetErrorStats)
	r.mux.HandleFunc("GET /api/telemetry/cache", r.telemetryHandler.GetCacheStats)
	r.mux.HandleFunc("GET /api/telemetry/comparison", r.telemetryHandler.GetProviderComparison)
	r.mux.HandleFunc("GET /api/telemetry/usage", r.telemetryHandler.GetUsagePatterns)

	// Event stream endpoint
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/insights", r.sseHandler.StreamInsightEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
