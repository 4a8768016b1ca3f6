package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Request decoders accept both snake_case (canonical) and camelCase field
// names; older frontend screens send either spelling.

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Chat DTOs ---

// ChatRequest is the body of POST /v1/chat.
// Messages stays raw so the normalizer can reject non-array payloads itself.
type ChatRequest struct {
	SystemPrompt string          `json:"system_prompt"`
	Messages     json.RawMessage `json:"messages"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var aux struct {
		SystemPrompt      json.RawMessage `json:"system_prompt"`
		SystemPromptCamel json.RawMessage `json:"systemPrompt"`
		Messages          json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.SystemPrompt = firstNonEmpty(CoerceText(aux.SystemPrompt), CoerceText(aux.SystemPromptCamel))
	r.Messages = aux.Messages
	return nil
}

// ChatResponse is returned by the completion endpoints.
// HistorySaved is omitted when the exchange does not persist anything.
type ChatResponse struct {
	OK           bool   `json:"ok,omitempty"`
	Reply        string `json:"reply"`
	HistorySaved *bool  `json:"history_saved,omitempty"`
}

// SaveMessagesRequest is the body of POST /v1/chat/messages.
type SaveMessagesRequest struct {
	ProjectID   string          `json:"project_id"`
	SubExpertID string          `json:"sub_expert_id"`
	Messages    json.RawMessage `json:"messages"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *SaveMessagesRequest) UnmarshalJSON(data []byte) error {
	var aux struct {
		scopeFields
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ProjectID, r.SubExpertID = aux.project(), aux.subExpert()
	r.Messages = aux.Messages
	return nil
}

// SaveMessagesResponse echoes the inserted rows.
type SaveMessagesResponse struct {
	Message string    `json:"message"`
	Data    []Message `json:"data"`
}

// ExecuteRequest is the body of POST /v1/chat/execute.
type ExecuteRequest struct {
	ProjectID   string  `json:"project_id"`
	SubExpertID string  `json:"sub_expert_id"`
	UserID      string  `json:"user_id"`
	Message     string  `json:"message"`
	Answers     Answers `json:"answers"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ExecuteRequest) UnmarshalJSON(data []byte) error {
	var aux struct {
		scopeFields
		UserID      json.RawMessage `json:"user_id"`
		UserIDCamel json.RawMessage `json:"userId"`
		Message     json.RawMessage `json:"message"`
		Answers     Answers         `json:"answers"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ProjectID, r.SubExpertID = aux.project(), aux.subExpert()
	r.UserID = firstNonEmpty(CoerceText(aux.UserID), CoerceText(aux.UserIDCamel))
	r.Message = CoerceText(aux.Message)
	r.Answers = aux.Answers
	return nil
}

// SendRequest is the body of POST /v1/chat/send: a single question to a sub-expert.
type SendRequest struct {
	ProjectID   string `json:"project_id"`
	SubExpertID string `json:"sub_expert_id"`
	Message     string `json:"message"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *SendRequest) UnmarshalJSON(data []byte) error {
	var aux struct {
		scopeFields
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ProjectID, r.SubExpertID = aux.project(), aux.subExpert()
	r.Message = CoerceText(aux.Message)
	return nil
}

// StatusResponse reports which configuration values are present ("OK"/"NO").
type StatusResponse struct {
	OpenAI       string `json:"openai"`
	Database     string `json:"database"`
	AnonKey      string `json:"anon_key"`
	JWTSecret    string `json:"jwt_secret"`
	CatalogCache string `json:"catalog_cache"`
}

// --- Project DTOs ---

// CreateProjectRequest defines the payload for creating a project.
// "name" and "title" are both accepted for the project title.
type CreateProjectRequest struct {
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *CreateProjectRequest) UnmarshalJSON(data []byte) error {
	var aux struct {
		UserID      json.RawMessage `json:"user_id"`
		UserIDCamel json.RawMessage `json:"userId"`
		Name        json.RawMessage `json:"name"`
		Title       json.RawMessage `json:"title"`
		Description *string         `json:"description"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.UserID = firstNonEmpty(CoerceText(aux.UserID), CoerceText(aux.UserIDCamel))
	r.Name = firstNonEmpty(CoerceText(aux.Name), CoerceText(aux.Title))
	r.Description = aux.Description
	return nil
}

// ProjectResponse wraps a created project.
type ProjectResponse struct {
	Message string   `json:"message"`
	Project *Project `json:"project"`
}

// --- User DTOs ---

// FindOrCreateUserRequest defines the body for POST /v1/users.
type FindOrCreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse wraps a found or created user.
type UserResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// --- Questionnaire DTOs ---

// ResponseAnswer is one answer submitted for a global question.
type ResponseAnswer struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

// SaveResponsesRequest is the body of POST /v1/questionnaire/responses.
type SaveResponsesRequest struct {
	RespondentName string           `json:"respondent_name"`
	Answers        []ResponseAnswer `json:"answers"`
}

// SaveResponsesResponse echoes the stored answers.
type SaveResponsesResponse struct {
	Message string     `json:"message"`
	Data    []Response `json:"data"`
}

// RecommendationRequest is the body of POST /v1/questionnaire/recommendation.
type RecommendationRequest struct {
	Answers Answers `json:"answers"`
}

// --- History DTOs ---

// CreateHistoryEntryRequest defines the body for POST /v1/history.
type CreateHistoryEntryRequest struct {
	UserID         string     `json:"user_id"`
	ProjectID      string     `json:"project_id"`
	ProjectName    string     `json:"project_name"`
	SubExpertTitle string     `json:"sub_expert_title"`
	Content        string     `json:"content"`
	Date           *time.Time `json:"date,omitempty"`
}

// HistoryEntryResponse wraps a recorded deliverable.
type HistoryEntryResponse struct {
	Message string        `json:"message"`
	Entry   *HistoryEntry `json:"entry"`
}

// scopeFields collects every spelling the clients use for the conversation scope.
type scopeFields struct {
	ProjectID        json.RawMessage `json:"project_id"`
	ProjectIDCamel   json.RawMessage `json:"projectId"`
	ExpertID         json.RawMessage `json:"expert_id"`
	ExpertIDCamel    json.RawMessage `json:"expertId"`
	SubExpertID      json.RawMessage `json:"sub_expert_id"`
	SubExpertIDCamel json.RawMessage `json:"subExpertId"`
}

func (s scopeFields) project() string {
	return firstNonEmpty(CoerceText(s.ProjectID), CoerceText(s.ProjectIDCamel))
}

func (s scopeFields) subExpert() string {
	return firstNonEmpty(
		CoerceText(s.SubExpertID),
		CoerceText(s.SubExpertIDCamel),
		CoerceText(s.ExpertID),
		CoerceText(s.ExpertIDCamel),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
