package conversation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nexus-backend/internal/models"
)

func TestNormalize_DropsBlankContent(t *testing.T) {
	turns, err := Normalize(json.RawMessage(`[{"content":"  "}]`))
	require.NoError(t, err)
	require.Empty(t, turns)
	require.NotNil(t, turns)
}

func TestNormalize_RolesAndCoercion(t *testing.T) {
	raw := json.RawMessage(`[
		{"role":"USER","content":" hi "},
		{"role":"Assistant","content":"hello"},
		{"role":"system","content":"rules"},
		{"role":"robot","content":"beep"},
		{"role":42,"content":7},
		{"content":true},
		{"role":"user","content":{"k":"v"}},
		{"role":"user"},
		{"role":"user","content":null},
		"just a string",
		null
	]`)
	turns, err := Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, []models.Turn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "beep"},
		{Role: "user", Content: "7"},
		{Role: "user", Content: "true"},
		{Role: "user", Content: `{"k":"v"}`},
	}, turns)
}

func TestNormalize_NeverEmitsEmptyContent(t *testing.T) {
	raw := json.RawMessage(`[{"content":""},{"content":"\n\t"},{"content":"x"},{"role":"assistant","content":"   "}]`)
	turns, err := Normalize(raw)
	require.NoError(t, err)
	for _, turn := range turns {
		require.NotEmpty(t, strings.TrimSpace(turn.Content))
	}
	require.Len(t, turns, 1)
}

func TestNormalize_NotAnArray(t *testing.T) {
	for _, in := range []string{`{"role":"user"}`, `"hi"`, `12`, `[1,`} {
		_, err := Normalize(json.RawMessage(in))
		require.ErrorIs(t, err, ErrInvalidRequest, "input=%s", in)
	}
}

func TestNormalize_MissingIsEmpty(t *testing.T) {
	for _, in := range []string{``, `null`} {
		turns, err := Normalize(json.RawMessage(in))
		require.NoError(t, err)
		require.Empty(t, turns)
	}
}

func TestNormalizeTurns(t *testing.T) {
	out := NormalizeTurns([]models.Turn{
		{Role: "ASSISTANT", Content: " ok "},
		{Role: "", Content: "q"},
		{Role: "user", Content: " "},
	})
	require.Equal(t, []models.Turn{
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "q"},
	}, out)
}
