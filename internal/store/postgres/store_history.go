package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// --- User History Methods ---

const createHistoryEntry = `-- name: CreateHistoryEntry :one
INSERT INTO user_history (
    id, user_id, project_id, project_name, sub_expert_title, content, date
) VALUES (
    $1, $2, $3, $4, $5, $6, $7
)
RETURNING id, user_id, project_id, project_name, sub_expert_title, content, date, is_archived;
`

func (s *PostgresStore) CreateHistoryEntry(ctx context.Context, arg store.CreateHistoryEntryParams) (*models.HistoryEntry, error) {
	h := &models.HistoryEntry{}
	err := s.db.QueryRow(ctx, createHistoryEntry,
		uuid.New(),
		arg.UserID,
		arg.ProjectID, // pgx handles *uuid.UUID to NULL
		arg.ProjectName,
		arg.SubExpertTitle,
		arg.Content,
		arg.Date,
	).Scan(&h.ID, &h.UserID, &h.ProjectID, &h.ProjectName, &h.SubExpertTitle, &h.Content, &h.Date, &h.IsArchived)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] CreateHistoryEntry: insert failed for user %s: %v", arg.UserID, err)
		return nil, fmt.Errorf("error creating history entry: %w", err)
	}
	return h, nil
}

func (s *PostgresStore) ListHistoryByUser(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.HistoryEntry, error) {
	rows, err := s.db.Query(ctx, `-- name: ListHistoryByUser :many
SELECT id, user_id, project_id, project_name, sub_expert_title, content, date, is_archived
FROM user_history
WHERE user_id = $1 AND ($2 OR is_archived = FALSE)
ORDER BY date DESC;`, userID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("error querying history: %w", err)
	}
	defer rows.Close()

	items := []models.HistoryEntry{}
	for rows.Next() {
		var h models.HistoryEntry
		if err := rows.Scan(&h.ID, &h.UserID, &h.ProjectID, &h.ProjectName, &h.SubExpertTitle, &h.Content, &h.Date, &h.IsArchived); err != nil {
			return nil, fmt.Errorf("error scanning history row: %w", err)
		}
		items = append(items, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return items, nil
}

const archiveHistoryEntry = `-- name: ArchiveHistoryEntry :exec
UPDATE user_history
SET is_archived = TRUE
WHERE id = $1 AND user_id = $2;
`

func (s *PostgresStore) ArchiveHistoryEntry(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, archiveHistoryEntry, id, userID)
	if err != nil {
		return fmt.Errorf("error executing archive history entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Wrong id, or the entry belongs to someone else
		return store.ErrNotFound
	}
	return nil
}
