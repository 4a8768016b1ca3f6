// Package storetest provides a seeded in-memory store for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
	"nexus-backend/internal/store/sqlite"
)

// Seed holds the ids of the rows created by NewSeededStore.
type Seed struct {
	User         *models.User
	Project      *models.Project
	ExpertID     uuid.UUID
	SubExpert    models.SubExpert
	NoPromptBase models.SubExpert // a sub-expert that relies on the synthesized prompt
	EmptyExpert  uuid.UUID        // an expert with no sub-experts
	QuestionID   int64
}

func strPtr(s string) *string { return &s }

// NewSQLiteStore opens an in-memory SQLite store closed at test cleanup.
func NewSQLiteStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	s, err := sqlite.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// NewSeededStore returns an in-memory store holding one user, one project and a small catalog.
func NewSeededStore(t *testing.T) (*sqlite.SQLiteStore, Seed) {
	t.Helper()
	ctx := context.Background()
	s := NewSQLiteStore(t)

	seed := Seed{ExpertID: uuid.New(), EmptyExpert: uuid.New(), QuestionID: 1}
	seed.SubExpert = models.SubExpert{
		ID:          uuid.New(),
		ExpertID:    seed.ExpertID,
		Title:       "Branding",
		Description: strPtr("Brand strategy for small businesses"),
		PromptBase:  strPtr("You are a senior brand strategist."),
		IsActive:    true,
	}
	seed.NoPromptBase = models.SubExpert{
		ID:       uuid.New(),
		ExpertID: seed.ExpertID,
		Title:    "Pricing",
		IsActive: true,
	}

	err := s.LoadFixtures(ctx, sqlite.Fixtures{
		Experts: []models.Expert{
			{ID: seed.ExpertID, Key: "marketing", Name: "Marketing", IsActive: true},
			{ID: seed.EmptyExpert, Key: "legal", Name: "Legal", IsActive: true},
		},
		SubExperts: []models.SubExpert{seed.SubExpert, seed.NoPromptBase},
		SubExpertQuestions: []models.SubExpertQuestion{
			{SubExpertID: seed.SubExpert.ID, Question: "Who is your audience?", OrderIndex: 1, IsActive: true},
			{SubExpertID: seed.SubExpert.ID, Question: "What tone fits?", OrderIndex: 2, IsActive: true},
		},
		Questions: []models.Question{
			{ID: seed.QuestionID, Text: "Favourite subject?", Options: []string{"Maths", "Art"}},
		},
	})
	if err != nil {
		t.Fatalf("failed to load fixtures: %v", err)
	}

	name := "Ada"
	seed.User, err = s.CreateUser(ctx, store.CreateUserParams{Name: &name})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	seed.Project, err = s.CreateProject(ctx, store.CreateProjectParams{
		UserID:      seed.User.ID,
		Title:       "Coffee shop",
		Description: strPtr("Specialty coffee in Lisbon"),
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return s, seed
}
