package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vitalloop/insight-engine/internal/application/services"
	"github.com/vitalloop/insight-engine/internal/domain/entities"
)

// InsightHandler handles insight generation requests.
type InsightHandler struct {
	service *services.InsightService
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(service *services.InsightService) *InsightHandler {
	return &InsightHandler{service: service}
}

// GenerateInsight handles POST /api/insights
func (h *InsightHandler) GenerateInsight(w http.ResponseWriter, r *http.Request) {
	var req entities.InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	insight, err := h.service.GenerateInsight(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, insight)
}

// GeneratePersonaInsight handles POST /api/insights/persona
func (h *InsightHandler) GeneratePersonaInsight(w http.ResponseWriter, r *http.Request) {
	var req entities.PersonaInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	insight, err := h.service.GenerateInsightForPersona(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, insight)
}
