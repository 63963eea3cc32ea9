package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/matt-ortiz/PyScheduler/internal/config"
	"github.com/matt-ortiz/PyScheduler/internal/environment"
	"github.com/matt-ortiz/PyScheduler/internal/fanout"
	"github.com/matt-ortiz/PyScheduler/internal/queue"
	"github.com/matt-ortiz/PyScheduler/internal/scheduler"
	"github.com/matt-ortiz/PyScheduler/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	env := environment.NewManager(t.TempDir())
	bus := fanout.New(8)
	q := queue.New(8)
	sched := scheduler.New(s, q, bus)
	cfg := config.Config{SecretKey: "test-secret"}

	return New(s, env, bus, q, sched, cfg), s
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointReportsOK(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(s.Router(), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateScriptRequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(s.Router(), http.MethodPost, "/api/scripts", map[string]any{"name": "hello"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndFetchScriptWithAuthToken(t *testing.T) {
	s, _ := newTestServer(t)
	token, err := generateJWT(s.cfg.SecretKey, 1, "admin", true)
	require.NoError(t, err)

	r := s.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/scripts", bytes.NewBufferString(`{"name":"Hello World","content":"print('hi')"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "hello-world", created["slug"])

	getReq := httptest.NewRequest(http.MethodGet, "/api/scripts/hello-world", nil)
	getReq.Header.Set("Authorization", "Bearer "+token)
	getRec := httptest.NewRecorder()
	r.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
}

func TestTriggerByURLKeyRejectsWrongKey(t *testing.T) {
	s, st := newTestServer(t)
	require.NoError(t, st.SetSetting(context.Background(), "api_key", "correct-key", ""))

	rec := doJSON(s.Router(), http.MethodGet, "/api/scripts/missing/trigger?api_key=wrong", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
