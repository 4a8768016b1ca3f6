package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"nexus-backend/internal/auth"
	"nexus-backend/internal/config"
	"nexus-backend/internal/handlers"
	"nexus-backend/internal/integrations/openai"
	"nexus-backend/internal/models"
	"nexus-backend/internal/services"
	"nexus-backend/internal/store/storetest"
)

const testJWTSecret = "test-supabase-jwt-secret-with-32-chars!"

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(context.Context, openai.CompletionRequest) (string, error) {
	s.calls++
	return s.reply, s.err
}

type testServer struct {
	handler   http.Handler
	seed      storetest.Seed
	completer *stubCompleter
}

func newTestServer(t *testing.T, jwtSecret string) *testServer {
	t.Helper()
	st, seed := storetest.NewSeededStore(t)
	completer := &stubCompleter{reply: "Here is your plan."}
	cfg := &config.Config{
		DatabaseURL:        "sqlite::memory:",
		JWTSecret:          jwtSecret,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}

	router := NewRouter(RouterDependencies{
		ChatHandler:          handlers.NewChatHandlers(services.NewChatService(st, nil, completer), cfg.Status(false)),
		ProjectHandler:       handlers.NewProjectHandlers(services.NewProjectService(st)),
		UserHandler:          handlers.NewUserHandlers(services.NewUserService(st)),
		CatalogHandler:       handlers.NewCatalogHandlers(services.NewCatalogService(st)),
		QuestionnaireHandler: handlers.NewQuestionnaireHandlers(services.NewQuestionnaireService(st, completer)),
		HistoryHandler:       handlers.NewHistoryHandlers(services.NewHistoryService(st)),
		Config:               cfg,
	})
	return &testServer{handler: router, seed: seed, completer: completer}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "")
	rec := srv.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestChat_MissingSystemPrompt(t *testing.T) {
	srv := newTestServer(t, "")
	rec := srv.do(t, http.MethodPost, "/v1/chat", `{"system_prompt":"","messages":[{"role":"user","content":"hi"}]}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"missing system prompt"}`, rec.Body.String())
	require.Zero(t, srv.completer.calls)
}

func TestChat_Reply(t *testing.T) {
	srv := newTestServer(t, "")
	rec := srv.do(t, http.MethodPost, "/v1/chat", `{"systemPrompt":"be brief","messages":[{"role":"user","content":"hi"}]}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"reply":"Here is your plan."}`, rec.Body.String())
}

func TestChat_MessagesNotAnArray(t *testing.T) {
	srv := newTestServer(t, "")
	rec := srv.do(t, http.MethodPost, "/v1/chat", `{"system_prompt":"sys","messages":{"role":"user"}}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessages_SaveThenList(t *testing.T) {
	srv := newTestServer(t, "")
	projectID, subExpertID := srv.seed.Project.ID, srv.seed.SubExpert.ID

	rec := srv.do(t, http.MethodPost, "/v1/chat/messages", map[string]interface{}{
		"projectId": projectID,
		"expertId":  subExpertID,
		"messages":  []map[string]string{{"role": "user", "content": "hello"}, {"content": "   "}},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[models.SaveMessagesResponse](t, rec)
	require.Len(t, saved.Data, 1)

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/v1/chat/messages?project_id=%s&expert_id=%s", projectID, subExpertID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]models.Message](t, rec)
	require.Len(t, items, 1)
	require.Equal(t, models.Turn{Role: "user", Content: "hello"}, items[0].Turn())
}

func TestMessages_EmptyScopeAndMissingScope(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodGet, fmt.Sprintf("/v1/chat/messages?projectId=%s&subExpertId=%s", srv.seed.Project.ID, uuid.New()), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/v1/chat/messages?project_id="+srv.seed.Project.ID.String(), nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/chat/messages?project_id=nope&expert_id=nope", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecute(t *testing.T) {
	srv := newTestServer(t, "")
	rec := srv.do(t, http.MethodPost, "/v1/chat/execute", map[string]interface{}{
		"project_id":    srv.seed.Project.ID,
		"sub_expert_id": srv.seed.SubExpert.ID,
		"user_id":       srv.seed.User.ID,
		"answers":       map[string]string{"audience": "Young adults"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"ok":true,"reply":"Here is your plan.","history_saved":true}`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/v1/history?user_id="+srv.seed.User.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]models.HistoryEntry](t, rec)
	require.Len(t, entries, 1)
	require.Equal(t, "Coffee shop", entries[0].ProjectName)
}

func TestExecute_UnknownSubExpert(t *testing.T) {
	srv := newTestServer(t, "")
	rec := srv.do(t, http.MethodPost, "/v1/chat/execute", map[string]interface{}{"sub_expert_id": uuid.New()}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, srv.completer.calls)
}

func TestExecute_UpstreamFailureStoresNothing(t *testing.T) {
	srv := newTestServer(t, "")
	srv.completer.err = fmt.Errorf("%w: connection refused", openai.ErrUpstreamUnavailable)

	rec := srv.do(t, http.MethodPost, "/v1/chat/execute", map[string]interface{}{
		"project_id":    srv.seed.Project.ID,
		"sub_expert_id": srv.seed.SubExpert.ID,
	}, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"could not reach the assistant right now"}`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/v1/chat/messages?project_id=%s&sub_expert_id=%s", srv.seed.Project.ID, srv.seed.SubExpert.ID), nil, "")
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestSend(t *testing.T) {
	srv := newTestServer(t, "")
	rec := srv.do(t, http.MethodPost, "/v1/chat/send", map[string]interface{}{
		"sub_expert_id": srv.seed.NoPromptBase.ID,
		"message":       "How should I price espresso?",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"reply":"Here is your plan.","history_saved":false}`, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/v1/chat/send", map[string]interface{}{"sub_expert_id": uuid.New(), "message": "hi"}, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t, "")
	rec := srv.do(t, http.MethodGet, "/v1/chat/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[models.StatusResponse](t, rec)
	require.Equal(t, "NO", status.OpenAI)
	require.Equal(t, "OK", status.Database)
}

func TestCatalogRoutes(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodGet, "/v1/experts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.Expert](t, rec), 2)

	rec = srv.do(t, http.MethodGet, "/v1/experts/"+srv.seed.ExpertID.String()+"/sub-experts", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.SubExpert](t, rec), 2)

	rec = srv.do(t, http.MethodGet, "/v1/experts/"+srv.seed.EmptyExpert.String()+"/sub-experts", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/sub-experts/"+srv.seed.SubExpert.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Branding", decode[models.SubExpert](t, rec).Title)

	rec = srv.do(t, http.MethodGet, "/v1/sub-experts/"+srv.seed.SubExpert.ID.String()+"/questions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.SubExpertQuestion](t, rec), 2)

	rec = srv.do(t, http.MethodGet, "/v1/sub-experts/not-a-uuid", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectAndUserRoutes(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodPost, "/v1/users", map[string]string{"email": "Grace@Example.com"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decode[models.UserResponse](t, rec).User

	rec = srv.do(t, http.MethodPost, "/v1/users", map[string]string{"email": "grace@example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, user.ID, decode[models.UserResponse](t, rec).User.ID)

	rec = srv.do(t, http.MethodPost, "/v1/projects", map[string]interface{}{"user_id": user.ID, "title": "Bakery"}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[models.ProjectResponse](t, rec).Project
	require.Equal(t, "Bakery", project.Title)

	rec = srv.do(t, http.MethodGet, "/v1/projects/"+project.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/projects/"+uuid.NewString(), nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/projects?user_id="+user.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.Project](t, rec), 1)

	rec = srv.do(t, http.MethodGet, "/v1/projects", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuestionnaireRoutes(t *testing.T) {
	srv := newTestServer(t, "")

	rec := srv.do(t, http.MethodGet, "/v1/questions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.Question](t, rec), 1)

	rec = srv.do(t, http.MethodPost, "/v1/questionnaire/responses", map[string]interface{}{
		"respondent_name": "Ada",
		"answers":         []map[string]interface{}{{"question_id": srv.seed.QuestionID, "answer": "Maths"}},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, decode[models.SaveResponsesResponse](t, rec).Data, 1)

	rec = srv.do(t, http.MethodPost, "/v1/questionnaire/recommendation", `{"answers":[{"question":"Favourite subject?","answer":"Maths"}]}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"reply":"Here is your plan."}`, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/v1/questionnaire/recommendation", `{"answers":[]}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryArchive(t *testing.T) {
	srv := newTestServer(t, "")
	userID := srv.seed.User.ID.String()

	rec := srv.do(t, http.MethodPost, "/v1/history", map[string]interface{}{
		"user_id":          userID,
		"sub_expert_title": "Branding",
		"content":          "Brand book",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decode[models.HistoryEntryResponse](t, rec).Entry

	rec = srv.do(t, http.MethodPost, "/v1/history/"+entry.ID.String()+"/archive?user_id="+userID, nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/v1/history?user_id="+userID, nil, "")
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/v1/history?include_archived=true&user_id="+userID, nil, "")
	require.Len(t, decode[[]models.HistoryEntry](t, rec), 1)

	rec = srv.do(t, http.MethodPost, "/v1/history/"+uuid.NewString()+"/archive?user_id="+userID, nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJWTAuth(t *testing.T) {
	srv := newTestServer(t, testJWTSecret)
	userID := srv.seed.User.ID

	rec := srv.do(t, http.MethodGet, "/v1/projects", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	expired, err := auth.NewAccessToken(userID, "", testJWTSecret, -time.Minute)
	require.NoError(t, err)
	rec = srv.do(t, http.MethodGet, "/v1/projects", nil, expired)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Token has expired"}`, rec.Body.String())

	token, err := auth.NewAccessToken(userID, "ada@example.com", testJWTSecret, time.Hour)
	require.NoError(t, err)

	rec = srv.do(t, http.MethodGet, "/v1/projects", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.Project](t, rec), 1)

	rec = srv.do(t, http.MethodGet, "/v1/projects?user_id="+uuid.NewString(), nil, token)
	require.Equal(t, http.StatusForbidden, rec.Code)

	other, err := auth.NewAccessToken(uuid.New(), "", testJWTSecret, time.Hour)
	require.NoError(t, err)
	rec = srv.do(t, http.MethodGet, "/v1/projects/"+srv.seed.Project.ID.String(), nil, other)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat_ProjectsOwnedByOthersAreHidden(t *testing.T) {
	srv := newTestServer(t, testJWTSecret)
	projectID, subExpertID := srv.seed.Project.ID, srv.seed.SubExpert.ID
	messagesPath := fmt.Sprintf("/v1/chat/messages?project_id=%s&sub_expert_id=%s", projectID, subExpertID)

	owner, err := auth.NewAccessToken(srv.seed.User.ID, "", testJWTSecret, time.Hour)
	require.NoError(t, err)
	stranger, err := auth.NewAccessToken(uuid.New(), "", testJWTSecret, time.Hour)
	require.NoError(t, err)

	save := map[string]interface{}{
		"project_id":    projectID,
		"sub_expert_id": subExpertID,
		"messages":      []map[string]string{{"role": "user", "content": "secret plan"}},
	}
	rec := srv.do(t, http.MethodPost, "/v1/chat/messages", save, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, messagesPath, nil, stranger)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/v1/chat/messages", save, stranger)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/v1/chat/execute", map[string]interface{}{
		"project_id":    projectID,
		"sub_expert_id": subExpertID,
	}, stranger)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/v1/chat/send", map[string]interface{}{
		"project_id":    projectID,
		"sub_expert_id": subExpertID,
		"message":       "what did they plan?",
	}, stranger)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	require.Zero(t, srv.completer.calls)

	rec = srv.do(t, http.MethodGet, messagesPath, nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.Message](t, rec), 1)

	rec = srv.do(t, http.MethodPost, "/v1/chat/execute", map[string]interface{}{
		"project_id":    projectID,
		"sub_expert_id": subExpertID,
	}, owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"ok":true,"reply":"Here is your plan.","history_saved":true}`, rec.Body.String())
}
