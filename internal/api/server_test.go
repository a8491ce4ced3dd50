package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmate/internal/api"
	"taskmate/internal/model"
	"taskmate/internal/repository"
	"taskmate/internal/service"
	"taskmate/internal/testutil"
)

type harness struct {
	t       *testing.T
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenDB(t)
	taskRepo := repository.NewTaskRepository(db)
	srv := api.NewServer(
		service.NewTaskService(taskRepo),
		service.NewStatsService(taskRepo),
		service.NewAuthService(repository.NewUserRepository(db), "test-secret", time.Hour),
		zerolog.Nop(),
		api.Options{CORSOrigins: []string{"http://localhost:3000", "*.vercel.app"}},
	)
	return &harness{t: t, handler: srv.Handler()}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func (h *harness) register(email string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Test User", "email": email, "password": "secret123",
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(h.t, resp.Token)
	return resp.Token
}

type taskEnvelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Task    model.Task `json:"task"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"OK"`)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Route not found")
}

func TestTasksRequireToken(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodGet, "/api/tasks", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestTaskCRUD(t *testing.T) {
	h := newHarness(t)
	token := h.register("crud@example.com")

	w := h.do(http.MethodPost, "/api/tasks", token, map[string]any{
		"title":              "Water plants",
		"priority":           "High",
		"status":             "To-Do",
		"dueDate":            "2025-07-01",
		"isRecurring":        true,
		"recurringFrequency": "weekly",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[taskEnvelope](t, w)
	assert.True(t, created.Success)
	assert.Equal(t, model.PriorityHigh, created.Task.Priority)
	assert.Equal(t, model.StatusTodo, created.Task.Status)
	assert.Equal(t, model.FrequencyWeekly, created.Task.RecurringFrequency)
	require.NotNil(t, created.Task.DueDate)
	id := created.Task.ID

	w = h.do(http.MethodPut, "/api/tasks/"+id, token, map[string]any{"status": "completed", "dueDate": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[taskEnvelope](t, w)
	assert.Equal(t, model.StatusCompleted, updated.Task.Status)
	assert.Nil(t, updated.Task.DueDate)
	assert.Equal(t, "Water plants", updated.Task.Title)

	w = h.do(http.MethodGet, "/api/tasks/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Count int          `json:"count"`
		Tasks []model.Task `json:"tasks"`
	}](t, w)
	assert.Equal(t, 1, list.Count)

	w = h.do(http.MethodGet, "/api/tasks/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[struct {
		Stats service.Stats `json:"stats"`
	}](t, w)
	assert.Equal(t, 1, stats.Stats.Completed)

	w = h.do(http.MethodDelete, "/api/tasks/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodDelete, "/api/tasks/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTaskValidation(t *testing.T) {
	h := newHarness(t)
	token := h.register("valid@example.com")

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"description": "x"}},
		{name: "unknown status", body: map[string]any{"title": "x", "status": "someday"}},
		{name: "recurring without frequency", body: map[string]any{"title": "x", "isRecurring": true}},
		{name: "bad due date", body: map[string]any{"title": "x", "dueDate": "next tuesday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/api/tasks", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestTasksAreIsolatedPerUser(t *testing.T) {
	h := newHarness(t)
	alice := h.register("alice@example.com")
	bob := h.register("bob@example.com")

	w := h.do(http.MethodPost, "/api/tasks", alice, map[string]any{"title": "alice only"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[taskEnvelope](t, w).Task.ID

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/tasks/"+id, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/api/tasks/"+id, bob, map[string]any{"title": "bob"}).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/tasks/"+id, bob, nil).Code)

	w = h.do(http.MethodGet, "/api/tasks", bob, nil)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestAuthEndpoints(t *testing.T) {
	h := newHarness(t)
	h.register("me@example.com")

	w := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Again", "email": "me@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "me@example.com", "password": "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "me@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[struct {
		Token string `json:"token"`
	}](t, w).Token

	w = h.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "me@example.com")
	assert.NotContains(t, w.Body.String(), "PasswordHash")
}

func TestCORS(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "https://taskmate.vercel.app")
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://taskmate.vercel.app", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
