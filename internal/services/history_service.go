package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"nexus-backend/internal/conversation"
	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// HistoryService manages the dashboard's history of deliverables.
type HistoryService struct {
	store store.HistoryStore
}

func NewHistoryService(store store.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// CreateEntry records a deliverable. A zero Date means now.
func (s *HistoryService) CreateEntry(ctx context.Context, arg store.CreateHistoryEntryParams) (*models.HistoryEntry, error) {
	arg.Content = strings.TrimSpace(arg.Content)
	if arg.UserID == uuid.Nil || arg.Content == "" {
		return nil, fmt.Errorf("%w: user_id and content are required", conversation.ErrInvalidRequest)
	}
	if arg.Date.IsZero() {
		arg.Date = time.Now()
	}
	entry, err := s.store.CreateHistoryEntry(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to create history entry: %w", err)
	}
	return entry, nil
}

func (s *HistoryService) ListEntries(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.HistoryEntry, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", conversation.ErrInvalidRequest)
	}
	entries, err := s.store.ListHistoryByUser(ctx, userID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// ArchiveEntry hides an entry from the default listing. Entries are never deleted.
func (s *HistoryService) ArchiveEntry(ctx context.Context, id, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", conversation.ErrInvalidRequest)
	}
	if err := s.store.ArchiveHistoryEntry(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to archive history entry %s: %w", id, err)
	}
	return nil
}
