package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/TRIADBLUE/consoleblue/internal/assembly"
	"github.com/TRIADBLUE/consoleblue/internal/audit"
	"github.com/TRIADBLUE/consoleblue/internal/db"
	"github.com/TRIADBLUE/consoleblue/internal/fragment"
	"github.com/TRIADBLUE/consoleblue/internal/generator"
	"github.com/TRIADBLUE/consoleblue/internal/notification"
	"github.com/TRIADBLUE/consoleblue/internal/operator"
	"github.com/TRIADBLUE/consoleblue/internal/project"
	"github.com/TRIADBLUE/consoleblue/internal/publish"
	"github.com/TRIADBLUE/consoleblue/internal/pushlog"
	"github.com/TRIADBLUE/consoleblue/internal/server/events"
	"github.com/TRIADBLUE/consoleblue/internal/template"
	"github.com/TRIADBLUE/consoleblue/internal/vcs/vcstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv      *httptest.Server
	client   *vcstest.Fake
	operator *operator.Operator
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	rec := audit.NewService(database, nil)
	projects := project.NewService(database, rec)
	fragments := fragment.NewService(database, rec)
	history := pushlog.NewService(database, pushlog.Limits{})
	notifications := notification.NewService(database)
	ops := operator.NewService(database)
	client := vcstest.New()
	asm := assembly.New(fragments)

	op, err := ops.Create(context.Background(), "ops@triadblue.com", "Ops")
	require.NoError(t, err)

	pub := publish.New(projects, asm, client, history, publish.Options{Owner: "triadblue", Audit: rec})
	gen := generator.NewService(projects, fragments, template.NewGenerator(template.Options{}), pub,
		notification.NewBroadcaster(ops, notifications, nil, nil), generator.Options{AutoPush: true})

	s := NewServer(Config{}, Deps{
		DB:            database,
		Projects:      projects,
		Fragments:     fragments,
		Assembler:     asm,
		Publisher:     pub,
		Generator:     gen,
		Notifications: notifications,
		Events:        events.NewPublisher(nil),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, client: client, operator: op}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(OperatorHeader, strconv.FormatInt(e.operator.ID, 10))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["vcsConfigured"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCreateProjectGeneratesAndPushes(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodPost, "/api/projects", map[string]any{
		"slug":        "acme",
		"displayName": "Acme",
		"githubRepo":  "acme-web",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	gen := body["generation"].(map[string]any)
	assert.Greater(t, gen["docsCreated"].(float64), float64(0))
	assert.Equal(t, true, gen["autoPushed"])

	resp, body = env.do(t, http.MethodGet, "/api/projects/acme/docs/push/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])
	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "success", entries[0].(map[string]any)["status"])

	resp, body = env.do(t, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["unreadCount"])
}

func TestDuplicateProjectConflict(t *testing.T) {
	env := setupServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/projects", map[string]any{"slug": "acme", "displayName": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/projects", map[string]any{"slug": "acme", "displayName": "Acme"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "E_CONFLICT", body["code"])
}

func TestPreviewAssemblesSharedThenProject(t *testing.T) {
	env := setupServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/projects", map[string]any{"slug": "acme", "displayName": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/docs/shared", map[string]any{"slug": "brand", "title": "Brand", "content": "Blue."})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "brand", body["slug"])

	resp, body = env.do(t, http.MethodGet, "/api/projects/acme/docs/push/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	content := body["assembledContent"].(string)
	assert.True(t, bytes.HasPrefix([]byte(content), []byte("# Brand\n\nBlue.")))
	assert.Len(t, body["sharedDocs"].([]any), 1)
	assert.NotEmpty(t, body["projectDocs"].([]any))
}

func TestPushWithoutRepo(t *testing.T) {
	env := setupServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/projects", map[string]any{"slug": "acme", "displayName": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/projects/acme/docs/push", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "E_NOT_CONFIGURED", body["code"])

	_, body = env.do(t, http.MethodGet, "/api/projects/acme/docs/push/history", nil)
	assert.Equal(t, float64(0), body["total"])
}

func TestPushFailureIsBadGateway(t *testing.T) {
	env := setupServer(t)
	env.client.Err = fmt.Errorf("409 conflict on CLAUDE.md")

	resp, _ := env.do(t, http.MethodPost, "/api/projects", map[string]any{"slug": "acme", "displayName": "Acme", "githubRepo": "acme-web"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/projects/acme/docs/push", map[string]any{"commitMessage": "manual sync"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "E_PUBLISH_FAILED", body["code"])
	assert.Equal(t, "409 conflict on CLAUDE.md", body["error"])

	_, body = env.do(t, http.MethodGet, "/api/projects/acme/docs/push/history?limit=1", nil)
	assert.Equal(t, float64(2), body["total"])
	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	newest := entries[0].(map[string]any)
	assert.Equal(t, "error", newest["status"])
	assert.Equal(t, "manual", newest["trigger"])
	assert.Nil(t, newest["commitSha"])
}

func TestGenerateConflictThenForce(t *testing.T) {
	env := setupServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/projects", map[string]any{"slug": "acme", "displayName": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/projects/acme/docs/generate", map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "E_CONFLICT", body["code"])

	resp, body = env.do(t, http.MethodPost, "/api/projects/acme/docs/generate", map[string]any{"force": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "acme", body["projectSlug"])
	assert.Greater(t, body["docsUpdated"].(float64), float64(0))

	resp, body = env.do(t, http.MethodPost, "/api/projects/acme/docs/generate/regenerate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Greater(t, body["docsUpdated"].(float64), float64(0))
}

func TestProjectDocValidationAndNotFound(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodGet, "/api/projects/missing/docs", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "E_NOT_FOUND", body["code"])

	resp, _ = env.do(t, http.MethodPost, "/api/projects", map[string]any{"slug": "acme", "displayName": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/projects/acme/docs", map[string]any{"slug": "Bad Slug", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "E_VALIDATION", body["code"])
	assert.Equal(t, "slug", body["details"].(map[string]any)["field"])

	resp, _ = env.do(t, http.MethodGet, "/api/projects/acme/docs/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProjectDocCRUD(t *testing.T) {
	env := setupServer(t)

	resp, _ := env.do(t, http.MethodPost, "/api/projects", map[string]any{"slug": "acme", "displayName": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/projects/acme/docs", map[string]any{"slug": "deploy", "title": "Deploy", "content": "ship"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int64(body["id"].(float64))
	path := fmt.Sprintf("/api/projects/acme/docs/%d", id)

	resp, body = env.do(t, http.MethodPut, path, map[string]any{"content": "ship carefully"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ship carefully", body["content"])

	resp, _ = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTemplates(t *testing.T) {
	env := setupServer(t)

	resp, body := env.do(t, http.MethodGet, "/api/doc-generator/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["templates"].([]any), len(template.List()))
}

func TestNotificationsNeedOperator(t *testing.T) {
	env := setupServer(t)

	resp, err := http.Get(env.srv.URL + "/api/notifications")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventsDisabledWithoutHub(t *testing.T) {
	env := setupServer(t)

	resp, err := http.Get(env.srv.URL + "/api/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
