package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func doJSONAuthed(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDeleteScriptRemovesItsDirectoryTree(t *testing.T) {
	s, st := newTestServer(t)
	token, err := generateJWT(s.cfg.SecretKey, 1, "admin", true)
	require.NoError(t, err)
	r := s.Router()

	rec := doJSONAuthed(r, http.MethodPost, "/api/scripts", map[string]any{"name": "Cleanup Me", "content": "print(1)"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	script, err := st.GetScriptBySlug(context.Background(), "cleanup-me")
	require.NoError(t, err)
	layout := s.env.PathsFor(script.Slug, "")
	require.NoError(t, os.MkdirAll(layout.ScriptDir, 0o755))
	_, err = os.Stat(layout.ScriptDir)
	require.NoError(t, err)

	delRec := doJSONAuthed(r, http.MethodDelete, "/api/scripts/cleanup-me", nil, token)
	require.Equal(t, http.StatusOK, delRec.Code)

	_, err = os.Stat(layout.ScriptDir)
	require.True(t, os.IsNotExist(err))
}
