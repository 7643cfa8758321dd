package handlers

import (
	"net/http"

	"github.com/vitalloop/insight-engine/internal/application/services"
)

// TelemetryHandler exposes the engine's read-only telemetry projections.
type TelemetryHandler struct {
	service *services.InsightService
}

// NewTelemetryHandler creates a new telemetry handler.
func NewTelemetryHandler(service *services.InsightService) *TelemetryHandler {
	return &TelemetryHandler{service: service}
}

// GetSnapshot handles GET /api/telemetry
func (h *TelemetryHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.GetTelemetrySnapshot())
}

// GetProviderHealth handles GET /api/telemetry/providers
func (h *TelemetryHandler) GetProviderHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.GetProviderHealth())
}

// GetErrorStats handles GET /api/telemetry/errors
func (h *TelemetryHandler) GetErrorStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.GetErrorStats())
}

// GetCacheStats handles GET /api/telemetry/cache
func (h *TelemetryHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.GetCacheStats())
}

// GetProviderComparison handles GET /api/telemetry/comparison
func (h *TelemetryHandler) GetProviderComparison(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.GetProviderComparison())
}

// GetUsagePatterns handles GET /api/telemetry/usage
func (h *TelemetryHandler) GetUsagePatterns(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.GetUsagePatterns())
}
