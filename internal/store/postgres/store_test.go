package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

type fakeRows struct {
	rows [][]interface{}
	next int
	err  error
}

func (f *fakeRows) Next() bool {
	if f.next >= len(f.rows) {
		return false
	}
	f.next++
	return true
}

func (f *fakeRows) Scan(dest ...interface{}) error {
	row := f.rows[f.next-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d columns, got %d", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *string:
			*d = v.(string)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported column type %T", dest[i])
		}
	}
	return nil
}

func (f *fakeRows) Err() error { return f.err }

func TestIsForeignKeyViolation(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", Message: "insert or update on table \"messages\" violates foreign key constraint"}

	require.True(t, isForeignKeyViolation(fk))
	require.True(t, isForeignKeyViolation(fmt.Errorf("error inserting messages: %w", fk)))
	require.False(t, isForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, isForeignKeyViolation(errors.New("connection reset by peer")))
	require.False(t, isForeignKeyViolation(nil))
}

func TestAppendError_UnknownScopeIsNotFound(t *testing.T) {
	projectID, subExpertID := uuid.New(), uuid.New()

	// The violation surfaces while draining RETURNING rows.
	_, err := scanMessages(&fakeRows{err: &pgconn.PgError{Code: "23503"}})
	require.Error(t, err)
	require.ErrorIs(t, appendError(projectID, subExpertID, err), store.ErrNotFound)

	err = appendError(projectID, subExpertID, &pgconn.PgError{Code: "23503"})
	require.ErrorIs(t, err, store.ErrNotFound)

	cause := &pgconn.PgError{Code: "57014"}
	err = appendError(projectID, subExpertID, cause)
	require.NotErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, err, cause)
}

func TestScanMessages(t *testing.T) {
	items, err := scanMessages(&fakeRows{})
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)

	projectID, subExpertID := uuid.New(), uuid.New()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	id := uuid.New()
	items, err = scanMessages(&fakeRows{rows: [][]interface{}{
		{id, projectID, subExpertID, "assistant", "Try a loyalty card.", at},
	}})
	require.NoError(t, err)
	require.Equal(t, []models.Message{{
		ID:          id,
		ProjectID:   projectID,
		SubExpertID: subExpertID,
		Role:        "assistant",
		Content:     "Try a loyalty card.",
		CreatedAt:   at,
	}}, items)
}

func TestAppendMessages_RejectsMissingScope(t *testing.T) {
	s := &PostgresStore{}
	_, err := s.AppendMessages(context.Background(), uuid.Nil, uuid.New(), []models.Turn{{Role: "user", Content: "hi"}})
	require.ErrorIs(t, err, store.ErrMissingScope)

	items, err := s.AppendMessages(context.Background(), uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	require.Empty(t, items)
}
