package handlers

import (
	"net/http"

	"nexus-backend/internal/models"
	"nexus-backend/internal/services"
	"nexus-backend/pkg/httputil"
)

// ChatHandlers serves the conversation endpoints.
type ChatHandlers struct {
	Service *services.ChatService
	status  models.StatusResponse
}

// NewChatHandlers creates a new ChatHandlers. status is reported as-is by HandleStatus.
func NewChatHandlers(cs *services.ChatService, status models.StatusResponse) *ChatHandlers {
	return &ChatHandlers{Service: cs, status: status}
}

// HandleChat completes a client-held conversation.
// POST /v1/chat
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	reply, err := h.Service.Chat(r.Context(), req.SystemPrompt, req.Messages)
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleChat", err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

// HandleSaveMessages appends turns to a (project, sub-expert) conversation.
// POST /v1/chat/messages
func (h *ChatHandlers) HandleSaveMessages(w http.ResponseWriter, r *http.Request) {
	var req models.SaveMessagesRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	projectID, err := parseOptionalUUID("project_id", req.ProjectID)
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleSaveMessages", err)
		return
	}
	subExpertID, err := parseOptionalUUID("sub_expert_id", req.SubExpertID)
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleSaveMessages", err)
		return
	}

	saved, err := h.Service.SaveMessages(r.Context(), projectID, subExpertID, callerID(r), req.Messages)
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleSaveMessages", err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.SaveMessagesResponse{
		Message: "Messages saved",
		Data:    saved,
	})
}

// HandleListMessages returns a conversation oldest first.
// GET /v1/chat/messages?project_id=&expert_id=
func (h *ChatHandlers) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseOptionalUUID("project_id", firstQueryValue(r, "project_id", "projectId"))
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleListMessages", err)
		return
	}
	subExpertID, err := parseOptionalUUID("sub_expert_id",
		firstQueryValue(r, "sub_expert_id", "subExpertId", "expert_id", "expertId"))
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleListMessages", err)
		return
	}

	items, err := h.Service.ListMessages(r.Context(), projectID, subExpertID, callerID(r))
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleListMessages", err)
		return
	}
	if items == nil {
		items = []models.Message{}
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}

// HandleExecute asks a sub-expert for a deliverable.
// POST /v1/chat/execute
func (h *ChatHandlers) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req models.ExecuteRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	in := services.ExecuteInput{CallerID: callerID(r), Message: req.Message, Answers: req.Answers}
	var err error
	if in.ProjectID, err = parseOptionalUUID("project_id", req.ProjectID); err != nil {
		respondServiceError(w, "ChatHandlers.HandleExecute", err)
		return
	}
	if in.SubExpertID, err = parseOptionalUUID("sub_expert_id", req.SubExpertID); err != nil {
		respondServiceError(w, "ChatHandlers.HandleExecute", err)
		return
	}
	if in.UserID, err = resolveUserID(r, req.UserID); err != nil {
		respondServiceError(w, "ChatHandlers.HandleExecute", err)
		return
	}

	result, err := h.Service.Execute(r.Context(), in)
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleExecute", err)
		return
	}
	saved := result.HistorySaved
	httputil.RespondJSON(w, http.StatusOK, models.ChatResponse{
		OK:           true,
		Reply:        result.Reply,
		HistorySaved: &saved,
	})
}

// HandleSend answers a single question from a sub-expert.
// POST /v1/chat/send
func (h *ChatHandlers) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req models.SendRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	in := services.SendInput{CallerID: callerID(r), Message: req.Message}
	var err error
	if in.ProjectID, err = parseOptionalUUID("project_id", req.ProjectID); err != nil {
		respondServiceError(w, "ChatHandlers.HandleSend", err)
		return
	}
	if in.SubExpertID, err = parseOptionalUUID("sub_expert_id", req.SubExpertID); err != nil {
		respondServiceError(w, "ChatHandlers.HandleSend", err)
		return
	}

	result, err := h.Service.Send(r.Context(), in)
	if err != nil {
		respondServiceError(w, "ChatHandlers.HandleSend", err)
		return
	}
	saved := result.HistorySaved
	httputil.RespondJSON(w, http.StatusOK, models.ChatResponse{Reply: result.Reply, HistorySaved: &saved})
}

// HandleStatus reports which configuration values are present.
// GET /v1/chat/status
func (h *ChatHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.status)
}
