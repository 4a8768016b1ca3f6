package handlers

import (
	"net/http"

	"nexus-backend/internal/models"
	"nexus-backend/internal/services"
	"nexus-backend/pkg/httputil"
)

type QuestionnaireHandlers struct {
	Service *services.QuestionnaireService
}

func NewQuestionnaireHandlers(qs *services.QuestionnaireService) *QuestionnaireHandlers {
	return &QuestionnaireHandlers{Service: qs}
}

// ListQuestions handles GET /v1/questions.
func (h *QuestionnaireHandlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.Service.ListQuestions(r.Context())
	if err != nil {
		respondServiceError(w, "QuestionnaireHandlers.ListQuestions", err)
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}
	httputil.RespondJSON(w, http.StatusOK, questions)
}

// SaveResponses handles POST /v1/questionnaire/responses.
func (h *QuestionnaireHandlers) SaveResponses(w http.ResponseWriter, r *http.Request) {
	var req models.SaveResponsesRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	saved, err := h.Service.SaveResponses(r.Context(), req.RespondentName, req.Answers)
	if err != nil {
		respondServiceError(w, "QuestionnaireHandlers.SaveResponses", err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.SaveResponsesResponse{Message: "Responses saved", Data: saved})
}

// Recommend handles POST /v1/questionnaire/recommendation.
func (h *QuestionnaireHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	reply, err := h.Service.Recommend(r.Context(), req.Answers)
	if err != nil {
		respondServiceError(w, "QuestionnaireHandlers.Recommend", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}
