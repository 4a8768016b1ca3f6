package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"nexus-backend/internal/conversation"
	"nexus-backend/internal/integrations/openai"
	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
	"nexus-backend/internal/store/storetest"
)

func TestProjectService(t *testing.T) {
	ctx := context.Background()
	st, seed := storetest.NewSeededStore(t)
	svc := NewProjectService(st)

	blank := "   "
	p, err := svc.CreateProject(ctx, seed.User.ID, " Bakery ", &blank)
	require.NoError(t, err)
	require.Equal(t, "Bakery", p.Title)
	require.Nil(t, p.Description)

	list, err := svc.ListProjects(ctx, seed.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := svc.GetProject(ctx, seed.Project.ID)
	require.NoError(t, err)
	require.Equal(t, "Coffee shop", got.Title)

	_, err = svc.GetProject(ctx, uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.CreateProject(ctx, seed.User.ID, " ", nil)
	require.ErrorIs(t, err, conversation.ErrInvalidRequest)

	_, err = svc.ListProjects(ctx, uuid.Nil)
	require.ErrorIs(t, err, conversation.ErrInvalidRequest)
}

func TestUserService_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(storetest.NewSQLiteStore(t))

	created, isNew, err := svc.FindOrCreate(ctx, "Grace", "Grace@Example.com ")
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, "grace@example.com", *created.Email)

	found, isNew, err := svc.FindOrCreate(ctx, "", "grace@example.com")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, created.ID, found.ID)

	byName, isNew, err := svc.FindOrCreate(ctx, "Grace", "")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, created.ID, byName.ID)

	_, _, err = svc.FindOrCreate(ctx, " ", "")
	require.ErrorIs(t, err, conversation.ErrInvalidRequest)
}

func TestUserService_FindOrCreateFallsBackToName(t *testing.T) {
	ctx := context.Background()
	st, seed := storetest.NewSeededStore(t)
	svc := NewUserService(st)

	found, isNew, err := svc.FindOrCreate(ctx, "Ada", "ada@example.com")
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, seed.User.ID, found.ID)

	other, isNew, err := svc.FindOrCreate(ctx, "", "someone@example.com")
	require.NoError(t, err)
	require.True(t, isNew)
	require.NotEqual(t, seed.User.ID, other.ID)
}

func TestCatalogService(t *testing.T) {
	ctx := context.Background()
	st, seed := storetest.NewSeededStore(t)
	svc := NewCatalogService(st)

	experts, err := svc.ListExperts(ctx)
	require.NoError(t, err)
	require.Len(t, experts, 2)

	subs, err := svc.ListSubExperts(ctx, seed.ExpertID)
	require.NoError(t, err)
	require.Equal(t, []string{"Branding", "Pricing"}, []string{subs[0].Title, subs[1].Title})

	_, err = svc.ListSubExperts(ctx, seed.EmptyExpert)
	require.ErrorIs(t, err, store.ErrNotFound)

	questions, err := svc.ListQuestions(ctx, seed.SubExpert.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, "Who is your audience?", questions[0].Question)

	_, err = svc.ListQuestions(ctx, uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestQuestionnaireService(t *testing.T) {
	ctx := context.Background()
	st, seed := storetest.NewSeededStore(t)
	completer := &fakeCompleter{reply: "Consider engineering."}
	svc := NewQuestionnaireService(st, completer)

	questions, err := svc.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	saved, err := svc.SaveResponses(ctx, "Ada", []models.ResponseAnswer{
		{QuestionID: seed.QuestionID, Answer: " Maths "},
		{QuestionID: seed.QuestionID, Answer: ""},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, "Maths", saved[0].AnswerText)

	_, err = svc.SaveResponses(ctx, "", []models.ResponseAnswer{{QuestionID: 1, Answer: "x"}})
	require.ErrorIs(t, err, conversation.ErrInvalidRequest)
	_, err = svc.SaveResponses(ctx, "Ada", []models.ResponseAnswer{{QuestionID: 0, Answer: "x"}})
	require.ErrorIs(t, err, conversation.ErrInvalidRequest)

	reply, err := svc.Recommend(ctx, models.Answers{{Question: "Favourite subject?", Answer: "Maths"}})
	require.NoError(t, err)
	require.Equal(t, "Consider engineering.", reply)
	require.Equal(t, models.RoleSystem, completer.calls[0].Messages[0].Role)

	_, err = svc.Recommend(ctx, nil)
	require.ErrorIs(t, err, conversation.ErrInvalidRequest)

	failing := NewQuestionnaireService(st, &fakeCompleter{err: openai.ErrUpstreamUnavailable})
	_, err = failing.Recommend(ctx, models.Answers{{Answer: "x"}})
	require.ErrorIs(t, err, openai.ErrUpstreamUnavailable)
}

func TestHistoryService(t *testing.T) {
	ctx := context.Background()
	st, seed := storetest.NewSeededStore(t)
	svc := NewHistoryService(st)

	entry, err := svc.CreateEntry(ctx, store.CreateHistoryEntryParams{UserID: seed.User.ID, Content: " plan "})
	require.NoError(t, err)
	require.Equal(t, "plan", entry.Content)
	require.WithinDuration(t, time.Now(), entry.Date, time.Minute)

	_, err = svc.CreateEntry(ctx, store.CreateHistoryEntryParams{UserID: seed.User.ID})
	require.ErrorIs(t, err, conversation.ErrInvalidRequest)

	require.NoError(t, svc.ArchiveEntry(ctx, entry.ID, seed.User.ID))
	require.ErrorIs(t, svc.ArchiveEntry(ctx, uuid.New(), seed.User.ID), store.ErrNotFound)

	active, err := svc.ListEntries(ctx, seed.User.ID, false)
	require.NoError(t, err)
	require.Empty(t, active)

	all, err := svc.ListEntries(ctx, seed.User.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].IsArchived)
}
