package postgres

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// --- Message Methods ---

const listMessages = `-- name: ListMessages :many
SELECT id, project_id, sub_expert_id, role, content, created_at
FROM messages
WHERE project_id = $1 AND sub_expert_id = $2
ORDER BY created_at ASC;
`

// AppendMessages inserts all turns with one multi-row INSERT.
func (s *PostgresStore) AppendMessages(ctx context.Context, projectID, subExpertID uuid.UUID, turns []models.Turn) ([]models.Message, error) {
	if projectID == uuid.Nil || subExpertID == uuid.Nil {
		return nil, store.ErrMissingScope
	}
	if len(turns) == 0 {
		return []models.Message{}, nil
	}

	stamps := store.MessageTimestamps(time.Now(), len(turns))
	values := make([]string, 0, len(turns))
	args := make([]interface{}, 0, len(turns)*6)
	argID := 1
	for i, t := range turns {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", argID, argID+1, argID+2, argID+3, argID+4, argID+5))
		args = append(args, uuid.New(), projectID, subExpertID, t.Role, t.Content, stamps[i])
		argID += 6
	}

	query := fmt.Sprintf(`-- name: AppendMessages :many
		INSERT INTO messages (id, project_id, sub_expert_id, role, content, created_at)
		VALUES %s
		RETURNING id, project_id, sub_expert_id, role, content, created_at;`,
		strings.Join(values, ", "),
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, appendError(projectID, subExpertID, err)
	}
	defer rows.Close()

	// pgx reports constraint failures of the INSERT while iterating RETURNING rows.
	items, err := scanMessages(rows)
	if err != nil {
		return nil, appendError(projectID, subExpertID, err)
	}
	// RETURNING order is not guaranteed.
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })

	log.Printf("[PostgresStore] AppendMessages: stored %d messages for project %s / sub-expert %s", len(items), projectID, subExpertID)
	return items, nil
}

// appendError maps a failed insert to store.ErrNotFound when the project or sub-expert is unknown.
func appendError(projectID, subExpertID uuid.UUID, err error) error {
	if isForeignKeyViolation(err) {
		log.Printf("WARN [PostgresStore] AppendMessages: unknown project %s or sub-expert %s", projectID, subExpertID)
		return store.ErrNotFound
	}
	log.Printf("ERROR [PostgresStore] AppendMessages: insert failed for project %s / sub-expert %s: %v", projectID, subExpertID, err)
	return fmt.Errorf("error inserting messages: %w", err)
}

func (s *PostgresStore) ListMessages(ctx context.Context, projectID, subExpertID uuid.UUID) ([]models.Message, error) {
	if projectID == uuid.Nil || subExpertID == uuid.Nil {
		return nil, store.ErrMissingScope
	}
	rows, err := s.db.Query(ctx, listMessages, projectID, subExpertID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanMessages(rows rowScanner) ([]models.Message, error) {
	items := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SubExpertID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return items, nil
}
