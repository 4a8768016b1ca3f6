// Package sqlite implements store.Store on SQLite for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

var _ store.Store = (*SQLiteStore)(nil)

// SQLiteStore implements store.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn, enables foreign keys and applies the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is its own database.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT,
			email TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id, updated_at)`,
		`CREATE TABLE IF NOT EXISTS experts (
			id TEXT PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS sub_experts (
			id TEXT PRIMARY KEY,
			expert_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			prompt_base TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (expert_id) REFERENCES experts(id)
		)`,
		`CREATE TABLE IF NOT EXISTS sub_expert_questions (
			id TEXT PRIMARY KEY,
			sub_expert_id TEXT NOT NULL,
			question TEXT NOT NULL,
			help_text TEXT,
			order_index INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY (sub_expert_id) REFERENCES sub_experts(id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			sub_expert_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id),
			FOREIGN KEY (sub_expert_id) REFERENCES sub_experts(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_scope ON messages(project_id, sub_expert_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			options TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS responses (
			id TEXT PRIMARY KEY,
			question_id INTEGER NOT NULL,
			answer_text TEXT NOT NULL,
			respondent_name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (question_id) REFERENCES questions(id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_history (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			project_id TEXT,
			project_name TEXT NOT NULL DEFAULT '',
			sub_expert_title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			date DATETIME NOT NULL,
			is_archived INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_history_user ON user_history(user_id, date)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isForeignKeyViolation reports whether err is a SQLite foreign key failure.
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// --- Users ---

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE `+where+` ORDER BY created_at ASC LIMIT 1`, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *SQLiteStore) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	return s.getUser(ctx, "name = ?", name)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, arg store.CreateUserParams) (*models.User, error) {
	u := &models.User{ID: uuid.New(), Name: arg.Name, Email: arg.Email, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.CreatedAt)
	if err != nil {
		log.Printf("ERROR [SQLiteStore] CreateUser: insert failed: %v", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, arg store.CreateProjectParams) (*models.Project, error) {
	now := time.Now().UTC()
	p := &models.Project{
		ID:          uuid.New(),
		UserID:      arg.UserID,
		Title:       arg.Title,
		Description: arg.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, created_at, updated_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, created_at, updated_at FROM projects
		 WHERE user_id = ? ORDER BY updated_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	items := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// --- Messages ---

// AppendMessages inserts turns in one transaction.
func (s *SQLiteStore) AppendMessages(ctx context.Context, projectID, subExpertID uuid.UUID, turns []models.Turn) ([]models.Message, error) {
	if projectID == uuid.Nil || subExpertID == uuid.Nil {
		return nil, store.ErrMissingScope
	}
	items := make([]models.Message, 0, len(turns))
	if len(turns) == 0 {
		return items, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (id, project_id, sub_expert_id, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	stamps := store.MessageTimestamps(time.Now(), len(turns))
	for i, t := range turns {
		m := models.Message{
			ID:          uuid.New(),
			ProjectID:   projectID,
			SubExpertID: subExpertID,
			Role:        t.Role,
			Content:     t.Content,
			CreatedAt:   stamps[i],
		}
		if _, err := stmt.ExecContext(ctx, m.ID, m.ProjectID, m.SubExpertID, m.Role, m.Content, m.CreatedAt); err != nil {
			if isForeignKeyViolation(err) {
				return nil, store.ErrNotFound
			}
			log.Printf("ERROR [SQLiteStore] AppendMessages: insert failed for project %s: %v", projectID, err)
			return nil, fmt.Errorf("failed to insert message: %w", err)
		}
		items = append(items, m)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit messages: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, projectID, subExpertID uuid.UUID) ([]models.Message, error) {
	if projectID == uuid.Nil || subExpertID == uuid.Nil {
		return nil, store.ErrMissingScope
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, sub_expert_id, role, content, created_at FROM messages
		 WHERE project_id = ? AND sub_expert_id = ?
		 ORDER BY created_at ASC, rowid ASC`, projectID, subExpertID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	items := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SubExpertID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// --- Catalog ---

func (s *SQLiteStore) ListExperts(ctx context.Context) ([]models.Expert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, name, description, is_active FROM experts WHERE is_active = 1 ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query experts: %w", err)
	}
	defer rows.Close()

	items := []models.Expert{}
	for rows.Next() {
		var e models.Expert
		if err := rows.Scan(&e.ID, &e.Key, &e.Name, &e.Description, &e.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan expert: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const subExpertColumns = `id, expert_id, title, description, prompt_base, is_active, created_at`

func (s *SQLiteStore) ListSubExpertsByExpert(ctx context.Context, expertID uuid.UUID) ([]models.SubExpert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subExpertColumns+` FROM sub_experts WHERE expert_id = ? AND is_active = 1 ORDER BY created_at ASC, rowid ASC`, expertID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-experts: %w", err)
	}
	defer rows.Close()

	items := []models.SubExpert{}
	for rows.Next() {
		var d models.SubExpert
		if err := rows.Scan(&d.ID, &d.ExpertID, &d.Title, &d.Description, &d.PromptBase, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sub-expert: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) GetSubExpertByID(ctx context.Context, id uuid.UUID) (*models.SubExpert, error) {
	var d models.SubExpert
	err := s.db.QueryRowContext(ctx, `SELECT `+subExpertColumns+` FROM sub_experts WHERE id = ?`, id).
		Scan(&d.ID, &d.ExpertID, &d.Title, &d.Description, &d.PromptBase, &d.IsActive, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-expert: %w", err)
	}
	return &d, nil
}

func (s *SQLiteStore) ListSubExpertQuestions(ctx context.Context, subExpertID uuid.UUID) ([]models.SubExpertQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sub_expert_id, question, help_text, order_index, is_active FROM sub_expert_questions
		 WHERE sub_expert_id = ? AND is_active = 1 ORDER BY order_index ASC`, subExpertID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-expert questions: %w", err)
	}
	defer rows.Close()

	items := []models.SubExpertQuestion{}
	for rows.Next() {
		var q models.SubExpertQuestion
		if err := rows.Scan(&q.ID, &q.SubExpertID, &q.Question, &q.HelpText, &q.OrderIndex, &q.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan sub-expert question: %w", err)
		}
		items = append(items, q)
	}
	return items, rows.Err()
}

// --- Questionnaire ---

// ListQuestions decodes options from their JSON text column.
func (s *SQLiteStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, options FROM questions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	items := []models.Question{}
	for rows.Next() {
		var q models.Question
		var options sql.NullString
		if err := rows.Scan(&q.ID, &q.Text, &options); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Options = []string{}
		if options.Valid && options.String != "" {
			if err := json.Unmarshal([]byte(options.String), &q.Options); err != nil {
				return nil, fmt.Errorf("failed to decode options of question %d: %w", q.ID, err)
			}
		}
		items = append(items, q)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) CreateResponses(ctx context.Context, respondentName string, answers []models.ResponseAnswer) ([]models.Response, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC()
	items := make([]models.Response, 0, len(answers))
	for _, a := range answers {
		r := models.Response{
			ID:             uuid.New(),
			QuestionID:     a.QuestionID,
			AnswerText:     a.Answer,
			RespondentName: respondentName,
			CreatedAt:      now,
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO responses (id, question_id, answer_text, respondent_name, created_at) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.QuestionID, r.AnswerText, r.RespondentName, r.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, store.ErrNotFound
			}
			return nil, fmt.Errorf("failed to insert response: %w", err)
		}
		items = append(items, r)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit responses: %w", err)
	}
	return items, nil
}

// --- User history ---

func (s *SQLiteStore) CreateHistoryEntry(ctx context.Context, arg store.CreateHistoryEntryParams) (*models.HistoryEntry, error) {
	h := &models.HistoryEntry{
		ID:             uuid.New(),
		UserID:         arg.UserID,
		ProjectID:      arg.ProjectID,
		ProjectName:    arg.ProjectName,
		SubExpertTitle: arg.SubExpertTitle,
		Content:        arg.Content,
		Date:           arg.Date.UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_history (id, user_id, project_id, project_name, sub_expert_title, content, date, is_archived)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		h.ID, h.UserID, h.ProjectID, h.ProjectName, h.SubExpertTitle, h.Content, h.Date)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to create history entry: %w", err)
	}
	return h, nil
}

func (s *SQLiteStore) ListHistoryByUser(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, project_id, project_name, sub_expert_title, content, date, is_archived
		 FROM user_history WHERE user_id = ? AND (? OR is_archived = 0)
		 ORDER BY date DESC, rowid DESC`, userID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	items := []models.HistoryEntry{}
	for rows.Next() {
		var h models.HistoryEntry
		if err := rows.Scan(&h.ID, &h.UserID, &h.ProjectID, &h.ProjectName, &h.SubExpertTitle, &h.Content, &h.Date, &h.IsArchived); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) ArchiveHistoryEntry(ctx context.Context, id, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_history SET is_archived = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to archive history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to archive history entry: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
