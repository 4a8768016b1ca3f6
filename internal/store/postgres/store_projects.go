package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// --- Project Methods ---

const createProject = `-- name: CreateProject :one
INSERT INTO projects (
    id, user_id, title, description
) VALUES (
    $1, $2, $3, $4
)
RETURNING id, user_id, title, description, created_at, updated_at;
`

func (s *PostgresStore) CreateProject(ctx context.Context, arg store.CreateProjectParams) (*models.Project, error) {
	log.Printf("[PostgresStore] CreateProject called for UserID: %s, Title: %s", arg.UserID, arg.Title)
	p := &models.Project{}
	err := s.db.QueryRow(ctx, createProject, uuid.New(), arg.UserID, arg.Title, arg.Description).Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) { // user_id
			log.Printf("WARN [PostgresStore] CreateProject: unknown user %s", arg.UserID)
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] CreateProject: Failed to insert project: %v", err)
		return nil, fmt.Errorf("error creating project: %w", err)
	}
	return p, nil
}

const getProjectByID = `-- name: GetProjectByID :one
SELECT id, user_id, title, description, created_at, updated_at
FROM projects
WHERE id = $1;
`

func (s *PostgresStore) GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p := &models.Project{}
	err := s.db.QueryRow(ctx, getProjectByID, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning project: %w", err)
	}
	return p, nil
}

const listProjectsByUser = `-- name: ListProjectsByUser :many
SELECT id, user_id, title, description, created_at, updated_at
FROM projects
WHERE user_id = $1
ORDER BY updated_at DESC;
`

func (s *PostgresStore) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	rows, err := s.db.Query(ctx, listProjectsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying projects: %w", err)
	}
	defer rows.Close()

	items := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning project row: %w", err)
		}
		items = append(items, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return items, nil
}
