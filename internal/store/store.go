package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"nexus-backend/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrMissingScope is returned when a conversation operation lacks its project or sub-expert id.
var ErrMissingScope = errors.New("project id and sub-expert id are required")

// CreateProjectParams contains parameters for creating a project.
type CreateProjectParams struct {
	UserID      uuid.UUID
	Title       string
	Description *string
}

// CreateUserParams contains parameters for creating a user. At least one field is set.
type CreateUserParams struct {
	Name  *string
	Email *string
}

// CreateHistoryEntryParams contains parameters for recording a deliverable.
type CreateHistoryEntryParams struct {
	UserID         uuid.UUID
	ProjectID      *uuid.UUID // nil when the deliverable was produced outside a project
	ProjectName    string
	SubExpertTitle string
	Content        string
	Date           time.Time
}

// MessageStore persists conversation turns scoped by (project, sub-expert).
type MessageStore interface {
	// AppendMessages inserts turns in order and returns the stored rows.
	// Rows inserted by one call carry strictly increasing created_at values.
	AppendMessages(ctx context.Context, projectID, subExpertID uuid.UUID, turns []models.Turn) ([]models.Message, error)
	// ListMessages returns the conversation ordered by created_at ascending.
	ListMessages(ctx context.Context, projectID, subExpertID uuid.UUID) ([]models.Message, error)
}

// ProjectStore manages per-user projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, arg CreateProjectParams) (*models.Project, error)
	GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
}

// UserStore manages users.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error)
}

// CatalogStore reads the expert catalog. The catalog is reference data and is never written here.
type CatalogStore interface {
	ListExperts(ctx context.Context) ([]models.Expert, error)
	ListSubExpertsByExpert(ctx context.Context, expertID uuid.UUID) ([]models.SubExpert, error)
	GetSubExpertByID(ctx context.Context, id uuid.UUID) (*models.SubExpert, error)
	ListSubExpertQuestions(ctx context.Context, subExpertID uuid.UUID) ([]models.SubExpertQuestion, error)
}

// QuestionnaireStore holds the global questionnaire and its answers.
type QuestionnaireStore interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
	CreateResponses(ctx context.Context, respondentName string, answers []models.ResponseAnswer) ([]models.Response, error)
}

// HistoryStore records generated deliverables for the dashboard.
type HistoryStore interface {
	CreateHistoryEntry(ctx context.Context, arg CreateHistoryEntryParams) (*models.HistoryEntry, error)
	ListHistoryByUser(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.HistoryEntry, error)
	// ArchiveHistoryEntry sets is_archived on an entry owned by userID.
	ArchiveHistoryEntry(ctx context.Context, id, userID uuid.UUID) error
}

// Store defines the interface for database operations.
// This allows for mocking in tests and switching between Postgres and SQLite.
type Store interface {
	MessageStore
	ProjectStore
	UserStore
	CatalogStore
	QuestionnaireStore
	HistoryStore

	Ping(ctx context.Context) error
}

// MessageTimestamps returns n strictly increasing timestamps starting at base,
// one microsecond apart (the resolution Postgres keeps).
func MessageTimestamps(base time.Time, n int) []time.Time {
	base = base.UTC().Truncate(time.Microsecond)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Microsecond)
	}
	return out
}
