package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"nexus-backend/internal/services"
	"nexus-backend/pkg/httputil"
)

// CatalogHandlers exposes the read-only expert catalog.
type CatalogHandlers struct {
	Service *services.CatalogService
}

func NewCatalogHandlers(cs *services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{Service: cs}
}

// ListExperts handles GET /v1/experts.
func (h *CatalogHandlers) ListExperts(w http.ResponseWriter, r *http.Request) {
	experts, err := h.Service.ListExperts(r.Context())
	if err != nil {
		respondServiceError(w, "CatalogHandlers.ListExperts", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, experts)
}

// ListSubExperts handles GET /v1/experts/{expertID}/sub-experts.
func (h *CatalogHandlers) ListSubExperts(w http.ResponseWriter, r *http.Request) {
	expertID, err := uuid.Parse(chi.URLParam(r, "expertID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid expert ID format")
		return
	}

	subExperts, err := h.Service.ListSubExperts(r.Context(), expertID)
	if err != nil {
		respondServiceError(w, "CatalogHandlers.ListSubExperts", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, subExperts)
}

// GetSubExpert handles GET /v1/sub-experts/{subExpertID}.
func (h *CatalogHandlers) GetSubExpert(w http.ResponseWriter, r *http.Request) {
	subExpertID, err := uuid.Parse(chi.URLParam(r, "subExpertID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid sub-expert ID format")
		return
	}

	subExpert, err := h.Service.GetSubExpert(r.Context(), subExpertID)
	if err != nil {
		respondServiceError(w, "CatalogHandlers.GetSubExpert", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, subExpert)
}

// ListSubExpertQuestions handles GET /v1/sub-experts/{subExpertID}/questions.
func (h *CatalogHandlers) ListSubExpertQuestions(w http.ResponseWriter, r *http.Request) {
	subExpertID, err := uuid.Parse(chi.URLParam(r, "subExpertID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid sub-expert ID format")
		return
	}

	questions, err := h.Service.ListQuestions(r.Context(), subExpertID)
	if err != nil {
		respondServiceError(w, "CatalogHandlers.ListSubExpertQuestions", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, questions)
}
