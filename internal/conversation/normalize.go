// Package conversation turns client-supplied chat turns into the message list
// sent to the completion engine.
package conversation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nexus-backend/internal/models"
)

var (
	// ErrInvalidRequest marks malformed or missing client input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMissingSystemPrompt is returned when no system prompt can be resolved.
	ErrMissingSystemPrompt = errors.New("missing system prompt")
)

// Normalize coerces a loosely-typed JSON array of turns into validated Turns.
//
// Roles are lower-cased; anything other than user/assistant/system becomes
// "user". Content is coerced to text and trimmed, and entries left empty are
// dropped. A missing (nil or null) payload yields an empty slice; any other
// non-array payload fails with ErrInvalidRequest.
func Normalize(raw json.RawMessage) ([]models.Turn, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Turn{}, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: messages must be an array", ErrInvalidRequest)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: messages must be an array: %v", ErrInvalidRequest, err)
	}

	turns := make([]models.Turn, 0, len(items))
	for _, item := range items {
		turn, ok := normalizeTurn(item)
		if ok {
			turns = append(turns, turn)
		}
	}
	return turns, nil
}

// NormalizeTurns applies the same rules to already-typed turns.
func NormalizeTurns(in []models.Turn) []models.Turn {
	out := make([]models.Turn, 0, len(in))
	for _, t := range in {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		out = append(out, models.Turn{Role: NormalizeRole(t.Role), Content: content})
	}
	return out
}

// NormalizeRole maps a client-supplied role onto user/assistant/system.
func NormalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case models.RoleUser, models.RoleAssistant, models.RoleSystem:
		return r
	default:
		return models.RoleUser
	}
}

func normalizeTurn(item json.RawMessage) (models.Turn, bool) {
	item = bytes.TrimSpace(item)
	if len(item) == 0 || item[0] != '{' {
		return models.Turn{}, false
	}
	var fields struct {
		Role    json.RawMessage `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(item, &fields); err != nil {
		return models.Turn{}, false
	}

	content := strings.TrimSpace(models.CoerceText(fields.Content))
	if content == "" {
		return models.Turn{}, false
	}

	role := ""
	if r := bytes.TrimSpace(fields.Role); len(r) > 0 && r[0] == '"' {
		role = models.CoerceText(r)
	}
	return models.Turn{Role: NormalizeRole(role), Content: content}, true
}
