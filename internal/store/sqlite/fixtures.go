package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"nexus-backend/internal/models"
)

// Fixtures is reference data for a local database: the expert catalog and
// the global questionnaire. Production catalogs are managed in Supabase.
type Fixtures struct {
	Experts            []models.Expert            `json:"experts"`
	SubExperts         []models.SubExpert         `json:"sub_experts"`
	SubExpertQuestions []models.SubExpertQuestion `json:"sub_expert_questions"`
	Questions          []models.Question          `json:"questions"`
}

// LoadFixturesFile reads fixtures from a JSON file and loads them.
func (s *SQLiteStore) LoadFixturesFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixtures: %w", err)
	}
	var f Fixtures
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode fixtures %s: %w", path, err)
	}
	return s.LoadFixtures(ctx, f)
}

// LoadFixtures upserts the given rows in one transaction. Rows without an id get one.
func (s *SQLiteStore) LoadFixtures(ctx context.Context, f Fixtures) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, e := range f.Experts {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO experts (id, key, name, description, is_active) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET key = excluded.key, name = excluded.name,
			 description = excluded.description, is_active = excluded.is_active`,
			e.ID, e.Key, e.Name, e.Description, e.IsActive); err != nil {
			return fmt.Errorf("failed to load expert %q: %w", e.Key, err)
		}
	}

	now := time.Now().UTC()
	for i, d := range f.SubExperts {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		if d.CreatedAt.IsZero() {
			// keep file order as display order
			d.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sub_experts (id, expert_id, title, description, prompt_base, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET expert_id = excluded.expert_id, title = excluded.title,
			 description = excluded.description, prompt_base = excluded.prompt_base, is_active = excluded.is_active`,
			d.ID, d.ExpertID, d.Title, d.Description, d.PromptBase, d.IsActive, d.CreatedAt); err != nil {
			return fmt.Errorf("failed to load sub-expert %q: %w", d.Title, err)
		}
	}

	for _, q := range f.SubExpertQuestions {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sub_expert_questions (id, sub_expert_id, question, help_text, order_index, is_active) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET sub_expert_id = excluded.sub_expert_id, question = excluded.question,
			 help_text = excluded.help_text, order_index = excluded.order_index, is_active = excluded.is_active`,
			q.ID, q.SubExpertID, q.Question, q.HelpText, q.OrderIndex, q.IsActive); err != nil {
			return fmt.Errorf("failed to load sub-expert question: %w", err)
		}
	}

	for _, q := range f.Questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("failed to encode options: %w", err)
		}
		if q.ID > 0 {
			_, err = tx.ExecContext(ctx, `INSERT INTO questions (id, text, options) VALUES (?, ?, ?) ON CONFLICT(id) DO UPDATE SET text = excluded.text, options = excluded.options`, q.ID, q.Text, string(options))
		} else {
			_, err = tx.ExecContext(ctx, `INSERT INTO questions (text, options) VALUES (?, ?)`, q.Text, string(options))
		}
		if err != nil {
			return fmt.Errorf("failed to load question %q: %w", q.Text, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fixtures: %w", err)
	}
	return nil
}
