package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"nexus-backend/internal/conversation"
	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// ProjectService handles business logic related to projects.
type ProjectService struct {
	store store.ProjectStore
}

func NewProjectService(store store.ProjectStore) *ProjectService {
	return &ProjectService{store: store}
}

// CreateProject creates a project owned by userID.
func (s *ProjectService) CreateProject(ctx context.Context, userID uuid.UUID, title string, description *string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if userID == uuid.Nil || title == "" {
		return nil, fmt.Errorf("%w: user_id and name are required", conversation.ErrInvalidRequest)
	}
	if description != nil {
		trimmed := strings.TrimSpace(*description)
		description = &trimmed
		if trimmed == "" {
			description = nil
		}
	}

	project, err := s.store.CreateProject(ctx, store.CreateProjectParams{
		UserID:      userID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project in store: %w", err)
	}
	return project, nil
}

// GetProject retrieves a project by id.
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.store.GetProjectByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return project, nil
}

// ListProjects returns a user's projects, most recently updated first.
func (s *ProjectService) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", conversation.ErrInvalidRequest)
	}
	projects, err := s.store.ListProjectsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}
