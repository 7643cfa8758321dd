package handlers

import (
	"net/http"

	"github.com/vitalloop/insight-engine/internal/application/services"
)

// OptimizationHandler exposes prompt optimization over feedback data.
type OptimizationHandler struct {
	service *services.PromptOptimizerService
}

// NewOptimizationHandler creates a new optimization handler.
func NewOptimizationHandler(service *services.PromptOptimizerService) *OptimizationHandler {
	return &OptimizationHandler{service: service}
}

// OptimizePrompt handles POST /api/insights/{id}/optimize
func (h *OptimizationHandler) OptimizePrompt(w http.ResponseWriter, r *http.Request) {
	insightID := r.PathValue("id")
	if insightID == "" {
		respondWithError(w, http.StatusBadRequest, "insight ID is required")
		return
	}

	optimizations, err := h.service.OptimizePrompt(r.Context(), insightID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"insight_id":    insightID,
		"optimizations": optimizations,
	})
}
