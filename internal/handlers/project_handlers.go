package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"nexus-backend/internal/auth"
	"nexus-backend/internal/models"
	"nexus-backend/internal/services"
	"nexus-backend/internal/store"
	"nexus-backend/pkg/httputil"
)

// ProjectHandlers serves the per-user project endpoints.
type ProjectHandlers struct {
	Service *services.ProjectService
}

func NewProjectHandlers(ps *services.ProjectService) *ProjectHandlers {
	return &ProjectHandlers{Service: ps}
}

// CreateProject handles POST /v1/projects.
func (h *ProjectHandlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID, err := resolveUserID(r, req.UserID)
	if err != nil {
		respondServiceError(w, "ProjectHandlers.CreateProject", err)
		return
	}

	project, err := h.Service.CreateProject(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		respondServiceError(w, "ProjectHandlers.CreateProject", err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, models.ProjectResponse{Message: "Project created", Project: project})
}

// ListProjects handles GET /v1/projects?user_id=.
func (h *ProjectHandlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUserID(r, firstQueryValue(r, "user_id", "userId"))
	if err != nil {
		respondServiceError(w, "ProjectHandlers.ListProjects", err)
		return
	}

	projects, err := h.Service.ListProjects(r.Context(), userID)
	if err != nil {
		respondServiceError(w, "ProjectHandlers.ListProjects", err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	httputil.RespondJSON(w, http.StatusOK, projects)
}

// GetProject handles GET /v1/projects/{projectID}.
// Authenticated callers only see their own projects.
func (h *ProjectHandlers) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid project ID format")
		return
	}

	project, err := h.Service.GetProject(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, "ProjectHandlers.GetProject", err)
		return
	}
	if userID, ok := auth.GetUserIDFromContext(r.Context()); ok && project.UserID != userID {
		respondServiceError(w, "ProjectHandlers.GetProject", store.ErrNotFound)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, project)
}
