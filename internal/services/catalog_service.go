package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// CatalogService exposes the read-only expert catalog.
type CatalogService struct {
	store store.CatalogStore
}

func NewCatalogService(store store.CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) ListExperts(ctx context.Context) ([]models.Expert, error) {
	experts, err := s.store.ListExperts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list experts: %w", err)
	}
	return experts, nil
}

// ListSubExperts returns the active sub-experts of an expert.
// An expert with none is reported as store.ErrNotFound.
func (s *CatalogService) ListSubExperts(ctx context.Context, expertID uuid.UUID) ([]models.SubExpert, error) {
	items, err := s.store.ListSubExpertsByExpert(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-experts: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no sub-experts for expert %s: %w", expertID, store.ErrNotFound)
	}
	return items, nil
}

func (s *CatalogService) GetSubExpert(ctx context.Context, id uuid.UUID) (*models.SubExpert, error) {
	d, err := s.store.GetSubExpertByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sub-expert %s: %w", id, err)
	}
	return d, nil
}

// ListQuestions returns the intake questions of a sub-expert, in display order.
func (s *CatalogService) ListQuestions(ctx context.Context, subExpertID uuid.UUID) ([]models.SubExpertQuestion, error) {
	if _, err := s.GetSubExpert(ctx, subExpertID); err != nil {
		return nil, err
	}
	items, err := s.store.ListSubExpertQuestions(ctx, subExpertID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-expert questions: %w", err)
	}
	return items, nil
}
