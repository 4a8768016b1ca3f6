package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// --- Questionnaire Methods ---

const listQuestions = `-- name: ListQuestions :many
SELECT id, text, COALESCE(options, '{}')
FROM questions
ORDER BY id ASC;
`

func (s *PostgresStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.Query(ctx, listQuestions)
	if err != nil {
		return nil, fmt.Errorf("error querying questions: %w", err)
	}
	defer rows.Close()

	items := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Options); err != nil {
			return nil, fmt.Errorf("error scanning question row: %w", err)
		}
		items = append(items, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}
	return items, nil
}

const createResponse = `-- name: CreateResponse :one
INSERT INTO responses (id, question_id, answer_text, respondent_name)
VALUES ($1, $2, $3, $4)
RETURNING id, question_id, answer_text, respondent_name, created_at;
`

// CreateResponses stores all answers in one transaction.
func (s *PostgresStore) CreateResponses(ctx context.Context, respondentName string, answers []models.ResponseAnswer) ([]models.Response, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	batch := &pgx.Batch{}
	for _, a := range answers {
		batch.Queue(createResponse, uuid.New(), a.QuestionID, a.Answer, respondentName)
	}
	results := tx.SendBatch(ctx, batch)

	items := make([]models.Response, 0, len(answers))
	for range answers {
		var r models.Response
		if err := results.QueryRow().Scan(&r.ID, &r.QuestionID, &r.AnswerText, &r.RespondentName, &r.CreatedAt); err != nil {
			results.Close()
			if isForeignKeyViolation(err) { // question_id
				return nil, store.ErrNotFound
			}
			log.Printf("ERROR [PostgresStore] CreateResponses: insert failed: %v", err)
			return nil, fmt.Errorf("error inserting response: %w", err)
		}
		items = append(items, r)
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("error closing response batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("error committing responses: %w", err)
	}
	return items, nil
}
