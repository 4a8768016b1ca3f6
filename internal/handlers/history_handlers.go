package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"nexus-backend/internal/models"
	"nexus-backend/internal/services"
	"nexus-backend/internal/store"
	"nexus-backend/pkg/httputil"
)

// HistoryHandlers serves the deliverable history dashboard.
type HistoryHandlers struct {
	Service *services.HistoryService
}

func NewHistoryHandlers(hs *services.HistoryService) *HistoryHandlers {
	return &HistoryHandlers{Service: hs}
}

// ListEntries handles GET /v1/history?user_id=&include_archived=.
func (h *HistoryHandlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUserID(r, firstQueryValue(r, "user_id", "userId"))
	if err != nil {
		respondServiceError(w, "HistoryHandlers.ListEntries", err)
		return
	}
	includeArchived, _ := strconv.ParseBool(firstQueryValue(r, "include_archived"))

	entries, err := h.Service.ListEntries(r.Context(), userID, includeArchived)
	if err != nil {
		respondServiceError(w, "HistoryHandlers.ListEntries", err)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	httputil.RespondJSON(w, http.StatusOK, entries)
}

// CreateEntry handles POST /v1/history.
func (h *HistoryHandlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req models.CreateHistoryEntryRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID, err := resolveUserID(r, req.UserID)
	if err != nil {
		respondServiceError(w, "HistoryHandlers.CreateEntry", err)
		return
	}
	params := store.CreateHistoryEntryParams{
		UserID:         userID,
		ProjectName:    req.ProjectName,
		SubExpertTitle: req.SubExpertTitle,
		Content:        req.Content,
	}
	projectID, err := parseOptionalUUID("project_id", req.ProjectID)
	if err != nil {
		respondServiceError(w, "HistoryHandlers.CreateEntry", err)
		return
	}
	if projectID != uuid.Nil {
		params.ProjectID = &projectID
	}
	if req.Date != nil {
		params.Date = *req.Date
	}

	entry, err := h.Service.CreateEntry(r.Context(), params)
	if err != nil {
		respondServiceError(w, "HistoryHandlers.CreateEntry", err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.HistoryEntryResponse{Message: "History entry created", Entry: entry})
}

// ArchiveEntry handles POST /v1/history/{entryID}/archive.
func (h *HistoryHandlers) ArchiveEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid entry ID format")
		return
	}
	userID, err := resolveUserID(r, firstQueryValue(r, "user_id", "userId"))
	if err != nil {
		respondServiceError(w, "HistoryHandlers.ArchiveEntry", err)
		return
	}

	if err := h.Service.ArchiveEntry(r.Context(), entryID, userID); err != nil {
		respondServiceError(w, "HistoryHandlers.ArchiveEntry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
