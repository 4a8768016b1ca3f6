package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"nexus-backend/internal/conversation"
	"nexus-backend/internal/integrations/openai"
	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// ErrUnknownSubExpert is returned by Execute when the requested descriptor does not exist.
var ErrUnknownSubExpert = errors.New("sub-expert not found")

const (
	sendTemperature    = 0.7
	sendMaxTokens      = 500
	executeTemperature = 0.6

	defaultExecuteMessage = "Generate the deliverable."
)

// Completer is the completion engine the chat flows call.
type Completer interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (string, error)
}

// ExchangeResult is the outcome of a persisted exchange. HistorySaved is
// false when the reply was produced but the turns could not be stored.
type ExchangeResult struct {
	Reply        string
	HistorySaved bool
}

// SendInput is a single question to a sub-expert.
type SendInput struct {
	ProjectID   uuid.UUID // optional; the exchange is stored only when set
	SubExpertID uuid.UUID
	CallerID    uuid.UUID // authenticated user; uuid.Nil skips the ownership check
	Message     string
}

// ExecuteInput asks a sub-expert for a deliverable built from the prompt context.
type ExecuteInput struct {
	ProjectID   uuid.UUID // optional
	SubExpertID uuid.UUID
	UserID      uuid.UUID // optional; enables the user history entry
	CallerID    uuid.UUID // authenticated user; uuid.Nil skips the ownership check
	Message     string
	Answers     models.Answers
}

// ChatService runs every chat-like exchange:
// normalize, compose, complete, then persist.
type ChatService struct {
	messages  store.MessageStore
	projects  store.ProjectStore
	history   store.HistoryStore
	catalog   store.CatalogStore
	completer Completer
}

// NewChatService creates a new ChatService. catalog may be a caching wrapper around st.
func NewChatService(st store.Store, catalog store.CatalogStore, completer Completer) *ChatService {
	if catalog == nil {
		catalog = st
	}
	return &ChatService{
		messages:  st,
		projects:  st,
		history:   st,
		catalog:   catalog,
		completer: completer,
	}
}

// Chat completes a client-held conversation. Nothing is persisted.
func (s *ChatService) Chat(ctx context.Context, systemPrompt string, rawMessages json.RawMessage) (string, error) {
	turns, err := conversation.Normalize(rawMessages)
	if err != nil {
		return "", err
	}
	messages, err := conversation.Compose(systemPrompt, turns)
	if err != nil {
		return "", err
	}

	reply, err := s.completer.Complete(ctx, openai.CompletionRequest{Messages: messages})
	if err != nil {
		log.Printf("ERROR [ChatService] Chat: completion failed: %v", err)
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}
	return reply, nil
}

// Send answers one question with the sub-expert's base prompt.
func (s *ChatService) Send(ctx context.Context, in SendInput) (*ExchangeResult, error) {
	message := strings.TrimSpace(in.Message)
	if in.SubExpertID == uuid.Nil || message == "" {
		return nil, fmt.Errorf("%w: sub_expert_id and message are required", conversation.ErrInvalidRequest)
	}

	if err := s.checkOwner(ctx, in.ProjectID, in.CallerID); err != nil {
		return nil, err
	}

	descriptor, err := s.catalog.GetSubExpertByID(ctx, in.SubExpertID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sub-expert %s: %w", in.SubExpertID, err)
	}
	systemPrompt, err := conversation.BasePrompt(descriptor)
	if err != nil {
		return nil, err
	}

	userTurn := models.Turn{Role: models.RoleUser, Content: message}
	messages, err := conversation.Compose(systemPrompt, []models.Turn{userTurn})
	if err != nil {
		return nil, err
	}

	temperature, maxTokens := sendTemperature, sendMaxTokens
	reply, err := s.completer.Complete(ctx, openai.CompletionRequest{
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		log.Printf("ERROR [ChatService] Send: completion failed for sub-expert %s: %v", in.SubExpertID, err)
		return nil, fmt.Errorf("failed to complete send: %w", err)
	}

	result := &ExchangeResult{Reply: reply}
	if in.ProjectID != uuid.Nil {
		result.HistorySaved = s.persistExchange(ctx, in.ProjectID, descriptor.ID, userTurn, reply)
	}
	return result, nil
}

// Execute produces a deliverable for a sub-expert from the project and answers.
// A missing or unknown project only drops the project block; persistence
// failures are reported through HistorySaved.
func (s *ChatService) Execute(ctx context.Context, in ExecuteInput) (*ExchangeResult, error) {
	if in.SubExpertID == uuid.Nil {
		return nil, fmt.Errorf("%w: sub_expert_id is required", conversation.ErrInvalidRequest)
	}

	descriptor, err := s.catalog.GetSubExpertByID(ctx, in.SubExpertID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSubExpert, in.SubExpertID)
		}
		return nil, fmt.Errorf("failed to load sub-expert %s: %w", in.SubExpertID, err)
	}

	var project *models.Project
	if in.ProjectID != uuid.Nil {
		project, err = s.projects.GetProjectByID(ctx, in.ProjectID)
		if err != nil {
			log.Printf("WARN [ChatService] Execute: project %s unavailable, continuing without it: %v", in.ProjectID, err)
			project = nil
		} else if in.CallerID != uuid.Nil && project.UserID != in.CallerID {
			log.Printf("WARN [ChatService] Execute: project %s is not owned by user %s", in.ProjectID, in.CallerID)
			return nil, fmt.Errorf("failed to load project %s: %w", in.ProjectID, store.ErrNotFound)
		}
	}

	systemPrompt, err := conversation.BuildSystemPrompt(descriptor, conversation.PromptContext{
		Project: project,
		Answers: in.Answers,
	})
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(in.Message)
	if message == "" {
		message = defaultExecuteMessage
	}
	userTurn := models.Turn{Role: models.RoleUser, Content: message}
	messages, err := conversation.Compose(systemPrompt, []models.Turn{userTurn})
	if err != nil {
		return nil, err
	}

	temperature := executeTemperature
	reply, err := s.completer.Complete(ctx, openai.CompletionRequest{
		Messages:    messages,
		Temperature: &temperature,
	})
	if err != nil {
		log.Printf("ERROR [ChatService] Execute: completion failed for sub-expert %s: %v", in.SubExpertID, err)
		return nil, fmt.Errorf("failed to execute sub-expert: %w", err)
	}

	result := &ExchangeResult{
		Reply:        reply,
		HistorySaved: s.persistExchange(ctx, in.ProjectID, descriptor.ID, userTurn, reply),
	}
	if in.UserID != uuid.Nil {
		s.recordDeliverable(ctx, in.UserID, project, descriptor, reply)
	}
	return result, nil
}

// SaveMessages normalizes and appends client-supplied turns.
// A non-nil callerID must own the project.
func (s *ChatService) SaveMessages(ctx context.Context, projectID, subExpertID, callerID uuid.UUID, rawMessages json.RawMessage) ([]models.Message, error) {
	if projectID == uuid.Nil || subExpertID == uuid.Nil {
		return nil, store.ErrMissingScope
	}
	if err := s.checkOwner(ctx, projectID, callerID); err != nil {
		return nil, err
	}
	turns, err := conversation.Normalize(rawMessages)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("%w: no messages with content", conversation.ErrInvalidRequest)
	}

	saved, err := s.messages.AppendMessages(ctx, projectID, subExpertID, turns)
	if err != nil {
		return nil, fmt.Errorf("failed to save messages: %w", err)
	}
	return saved, nil
}

// ListMessages returns a conversation in chronological order.
// A non-nil callerID must own the project.
func (s *ChatService) ListMessages(ctx context.Context, projectID, subExpertID, callerID uuid.UUID) ([]models.Message, error) {
	if projectID == uuid.Nil || subExpertID == uuid.Nil {
		return nil, store.ErrMissingScope
	}
	if err := s.checkOwner(ctx, projectID, callerID); err != nil {
		return nil, err
	}
	items, err := s.messages.ListMessages(ctx, projectID, subExpertID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return items, nil
}

// checkOwner hides projects owned by someone else behind store.ErrNotFound.
func (s *ChatService) checkOwner(ctx context.Context, projectID, callerID uuid.UUID) error {
	if projectID == uuid.Nil || callerID == uuid.Nil {
		return nil
	}
	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to load project %s: %w", projectID, err)
	}
	if project.UserID != callerID {
		log.Printf("WARN [ChatService] project %s is not owned by user %s", projectID, callerID)
		return fmt.Errorf("failed to load project %s: %w", projectID, store.ErrNotFound)
	}
	return nil
}

func (s *ChatService) persistExchange(ctx context.Context, projectID, subExpertID uuid.UUID, userTurn models.Turn, reply string) bool {
	turns := []models.Turn{userTurn, {Role: models.RoleAssistant, Content: reply}}
	if _, err := s.messages.AppendMessages(ctx, projectID, subExpertID, turns); err != nil {
		log.Printf("WARN [ChatService] could not store exchange for project %s / sub-expert %s: %v", projectID, subExpertID, err)
		return false
	}
	return true
}

func (s *ChatService) recordDeliverable(ctx context.Context, userID uuid.UUID, project *models.Project, descriptor *models.SubExpert, reply string) {
	params := store.CreateHistoryEntryParams{
		UserID:         userID,
		SubExpertTitle: descriptor.Title,
		Content:        reply,
		Date:           time.Now(),
	}
	if project != nil {
		params.ProjectID = &project.ID
		params.ProjectName = project.Title
	}
	if _, err := s.history.CreateHistoryEntry(ctx, params); err != nil {
		log.Printf("WARN [ChatService] could not record history entry for user %s: %v", userID, err)
	}
}
