package handlers

import (
	"net/http"

	"starquest/internal/service"
)

// RecommendationHandler handles module suggestion HTTP requests
type RecommendationHandler struct {
	recommendations *service.RecommendationService
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommendations *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendations: recommendations}
}

// ForUser returns module suggestions for the caller
func (h *RecommendationHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	recs, err := h.recommendations.ForUser(principal.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, recs)
}
