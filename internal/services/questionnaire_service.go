package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"nexus-backend/internal/conversation"
	"nexus-backend/internal/integrations/openai"
	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// QuestionnaireService serves the global questionnaire and its recommendation.
type QuestionnaireService struct {
	store     store.QuestionnaireStore
	completer Completer
}

func NewQuestionnaireService(store store.QuestionnaireStore, completer Completer) *QuestionnaireService {
	return &QuestionnaireService{store: store, completer: completer}
}

func (s *QuestionnaireService) ListQuestions(ctx context.Context) ([]models.Question, error) {
	questions, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// SaveResponses stores one respondent's answers. Blank answers are skipped.
func (s *QuestionnaireService) SaveResponses(ctx context.Context, respondentName string, answers []models.ResponseAnswer) ([]models.Response, error) {
	respondentName = strings.TrimSpace(respondentName)
	if respondentName == "" {
		return nil, fmt.Errorf("%w: respondent_name is required", conversation.ErrInvalidRequest)
	}

	kept := make([]models.ResponseAnswer, 0, len(answers))
	for _, a := range answers {
		if a.QuestionID <= 0 {
			return nil, fmt.Errorf("%w: question_id must be positive", conversation.ErrInvalidRequest)
		}
		if text := strings.TrimSpace(a.Answer); text != "" {
			kept = append(kept, models.ResponseAnswer{QuestionID: a.QuestionID, Answer: text})
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: at least one answer is required", conversation.ErrInvalidRequest)
	}

	saved, err := s.store.CreateResponses(ctx, respondentName, kept)
	if err != nil {
		return nil, fmt.Errorf("failed to save responses: %w", err)
	}
	return saved, nil
}

// Recommend asks the completion engine for a recommendation based on answers.
func (s *QuestionnaireService) Recommend(ctx context.Context, answers models.Answers) (string, error) {
	messages, err := conversation.BuildRecommendationTurns(answers)
	if err != nil {
		return "", err
	}
	reply, err := s.completer.Complete(ctx, openai.CompletionRequest{Messages: messages})
	if err != nil {
		log.Printf("ERROR [QuestionnaireService] Recommend: completion failed: %v", err)
		return "", fmt.Errorf("failed to generate recommendation: %w", err)
	}
	return reply, nil
}
