package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// --- Catalog Methods (read-only) ---

const listExperts = `-- name: ListExperts :many
SELECT id, key, name, description, is_active
FROM experts
WHERE is_active = TRUE
ORDER BY name ASC;
`

func (s *PostgresStore) ListExperts(ctx context.Context) ([]models.Expert, error) {
	rows, err := s.db.Query(ctx, listExperts)
	if err != nil {
		return nil, fmt.Errorf("error querying experts: %w", err)
	}
	defer rows.Close()

	items := []models.Expert{}
	for rows.Next() {
		var e models.Expert
		if err := rows.Scan(&e.ID, &e.Key, &e.Name, &e.Description, &e.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning expert row: %w", err)
		}
		items = append(items, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expert rows: %w", err)
	}
	return items, nil
}

const subExpertColumns = `id, expert_id, title, description, prompt_base, is_active, created_at`

func scanSubExpert(row pgx.Row, d *models.SubExpert) error {
	return row.Scan(&d.ID, &d.ExpertID, &d.Title, &d.Description, &d.PromptBase, &d.IsActive, &d.CreatedAt)
}

func (s *PostgresStore) ListSubExpertsByExpert(ctx context.Context, expertID uuid.UUID) ([]models.SubExpert, error) {
	rows, err := s.db.Query(ctx, `-- name: ListSubExpertsByExpert :many
SELECT `+subExpertColumns+`
FROM sub_experts
WHERE expert_id = $1 AND is_active = TRUE
ORDER BY created_at ASC;`, expertID)
	if err != nil {
		return nil, fmt.Errorf("error querying sub-experts: %w", err)
	}
	defer rows.Close()

	items := []models.SubExpert{}
	for rows.Next() {
		var d models.SubExpert
		if err := scanSubExpert(rows, &d); err != nil {
			return nil, fmt.Errorf("error scanning sub-expert row: %w", err)
		}
		items = append(items, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sub-expert rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetSubExpertByID(ctx context.Context, id uuid.UUID) (*models.SubExpert, error) {
	var d models.SubExpert
	err := scanSubExpert(s.db.QueryRow(ctx, `-- name: GetSubExpertByID :one
SELECT `+subExpertColumns+`
FROM sub_experts
WHERE id = $1;`, id), &d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning sub-expert: %w", err)
	}
	return &d, nil
}

const listSubExpertQuestions = `-- name: ListSubExpertQuestions :many
SELECT id, sub_expert_id, question, help_text, order_index, is_active
FROM sub_expert_questions
WHERE sub_expert_id = $1 AND is_active = TRUE
ORDER BY order_index ASC;
`

func (s *PostgresStore) ListSubExpertQuestions(ctx context.Context, subExpertID uuid.UUID) ([]models.SubExpertQuestion, error) {
	rows, err := s.db.Query(ctx, listSubExpertQuestions, subExpertID)
	if err != nil {
		return nil, fmt.Errorf("error querying sub-expert questions: %w", err)
	}
	defer rows.Close()

	items := []models.SubExpertQuestion{}
	for rows.Next() {
		var q models.SubExpertQuestion
		if err := rows.Scan(&q.ID, &q.SubExpertID, &q.Question, &q.HelpText, &q.OrderIndex, &q.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning sub-expert question row: %w", err)
		}
		items = append(items, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sub-expert question rows: %w", err)
	}
	return items, nil
}
