package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLoadFixturesFile_DevCatalog(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.LoadFixturesFile(ctx, filepath.Join("..", "..", "..", "fixtures", "catalog.json")))

	experts, err := s.ListExperts(ctx)
	require.NoError(t, err)
	require.Len(t, experts, 2)

	marketing := uuid.MustParse("0b6f5c8e-3c1a-4f7e-9a51-2f7d0c1e8a01")
	subExperts, err := s.ListSubExpertsByExpert(ctx, marketing)
	require.NoError(t, err)
	require.Len(t, subExperts, 2)
	require.Equal(t, "Branding", subExperts[0].Title)
	require.Nil(t, subExperts[1].PromptBase)

	questions, err := s.ListSubExpertQuestions(ctx, subExperts[0].ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, 1, questions[0].OrderIndex)

	global, err := s.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, global, 2)
	require.Equal(t, []string{"Maths", "Languages", "Art", "Science"}, global[0].Options)

	// Loading twice updates rows with known ids instead of duplicating them.
	require.NoError(t, s.LoadFixturesFile(ctx, filepath.Join("..", "..", "..", "fixtures", "catalog.json")))
	experts, err = s.ListExperts(ctx)
	require.NoError(t, err)
	require.Len(t, experts, 2)
}

func TestLoadFixturesFile_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.Error(t, s.LoadFixturesFile(ctx, filepath.Join(t.TempDir(), "missing.json")))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"experts": "nope"}`), 0o600))
	require.Error(t, s.LoadFixturesFile(ctx, bad))

	// A sub-expert pointing at an unknown expert violates the foreign key and rolls back.
	orphan := filepath.Join(t.TempDir(), "orphan.json")
	require.NoError(t, os.WriteFile(orphan, []byte(`{
		"experts": [{"key": "ops", "name": "Ops", "is_active": true}],
		"sub_experts": [{"expert_id": "`+uuid.NewString()+`", "title": "Logistics", "is_active": true}]
	}`), 0o600))
	require.Error(t, s.LoadFixturesFile(ctx, orphan))

	experts, err := s.ListExperts(ctx)
	require.NoError(t, err)
	require.Empty(t, experts)
}
