package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the database.
// Either Name or Email may be empty, but not both.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      *string   `json:"name" db:"name"`
	Email     *string   `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Project represents a user's project (shown as a "product" in the dashboard).
type Project struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"` // Use pointer for nullable text
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Expert is a top-level persona grouping sub-experts.
type Expert struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Key         string    `json:"key" db:"key"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// SubExpert is the descriptor consumed by the prompt composer.
// It is read-only reference data.
type SubExpert struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ExpertID    uuid.UUID `json:"expert_id" db:"expert_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	PromptBase  *string   `json:"prompt_base" db:"prompt_base"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// SubExpertQuestion is one question of a sub-expert's intake form.
type SubExpertQuestion struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SubExpertID uuid.UUID `json:"sub_expert_id" db:"sub_expert_id"`
	Question    string    `json:"question" db:"question"`
	HelpText    *string   `json:"help_text" db:"help_text"`
	OrderIndex  int       `json:"order_index" db:"order_index"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// Question is an entry of the global questionnaire.
type Question struct {
	ID      int64    `json:"id" db:"id"`
	Text    string   `json:"text" db:"text"`
	Options []string `json:"options" db:"options"` // Postgres text[]
}

// Response is one stored questionnaire answer.
type Response struct {
	ID             uuid.UUID `json:"id" db:"id"`
	QuestionID     int64     `json:"question_id" db:"question_id"`
	AnswerText     string    `json:"answer_text" db:"answer_text"`
	RespondentName string    `json:"respondent_name" db:"respondent_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// HistoryEntry is a generated deliverable shown on the history dashboard.
// Entries are never deleted, only archived.
type HistoryEntry struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	ProjectID      *uuid.UUID `json:"project_id" db:"project_id"`
	ProjectName    string     `json:"project_name" db:"project_name"`
	SubExpertTitle string     `json:"sub_expert_title" db:"sub_expert_title"`
	Content        string     `json:"content" db:"content"`
	Date           time.Time  `json:"date" db:"date"`
	IsArchived     bool       `json:"is_archived" db:"is_archived"`
}
