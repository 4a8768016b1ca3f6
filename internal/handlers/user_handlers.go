package handlers

import (
	"net/http"

	"nexus-backend/internal/models"
	"nexus-backend/internal/services"
	"nexus-backend/pkg/httputil"
)

type UserHandlers struct {
	Service *services.UserService
}

func NewUserHandlers(us *services.UserService) *UserHandlers {
	return &UserHandlers{Service: us}
}

// FindOrCreateUser handles POST /v1/users.
// Responds 201 when a user was created and 200 when an existing one matched.
func (h *UserHandlers) FindOrCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.FindOrCreateUserRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, created, err := h.Service.FindOrCreate(r.Context(), req.Name, req.Email)
	if err != nil {
		respondServiceError(w, "UserHandlers.FindOrCreateUser", err)
		return
	}
	if created {
		httputil.RespondJSON(w, http.StatusCreated, models.UserResponse{Message: "User created", User: user})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.UserResponse{Message: "User found", User: user})
}
