package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles accepted on a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is one message in a conversation as exchanged with the completion engine.
type Turn struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // never empty after trimming
}

// Message is a persisted Turn, scoped by project and sub-expert.
// Rows are append-only; nothing updates them after insertion.
type Message struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ProjectID   uuid.UUID `json:"project_id" db:"project_id"`
	SubExpertID uuid.UUID `json:"sub_expert_id" db:"sub_expert_id"`
	Role        string    `json:"role" db:"role"`
	Content     string    `json:"content" db:"content"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Turn returns the role/content pair of a persisted message.
func (m Message) Turn() Turn {
	return Turn{Role: m.Role, Content: m.Content}
}
