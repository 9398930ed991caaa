package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/pipeline"
	"github.com/dgallion1/longform/internal/store"
	"github.com/dgallion1/longform/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server  *Server
	history *store.Store
	orch    *pipeline.Orchestrator
}

func newTestEnv(t *testing.T, apiKey string) *testEnv {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Paper.md": "# Intro\n\nSee [[B#^eq:1]].\n\n![[B]]\n",
		"B.md":     "$$\nE = mc^2\n$$\n^eq:1\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	v, err := vault.NewDirVault(root)
	require.NoError(t, err)

	history, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	cfg := config.Config{
		APIKey:       apiKey,
		OutputDir:    t.TempDir(),
		WorkerCount:  1,
		MaxQueueSize: 10,
		JobTTL:       time.Hour,
		Settings:     config.DefaultSettings(),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, v, history, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return &testEnv{
		server:  NewServer(orch, history, v, log, cfg),
		history: history,
		orch:    orch,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "secret")
	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, "secret")

	rec := env.do(t, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stats", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stats", "", "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10, decode(t, rec)["max_queue_size"])
}

func TestExportLifecycle(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/export", `{"root":"Paper"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	body := decode(t, rec)
	jobID, _ := body["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "/api/export/"+jobID+"/status", body["poll_url"])

	var status map[string]any
	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/api/export/"+jobID+"/status", "")
		if rec.Code != http.StatusOK {
			return false
		}
		status = decode(t, rec)
		return status["status"] == string(pipeline.StatusCompleted)
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Paper", status["root"])
	assert.NotEmpty(t, status["output_file"])

	require.Eventually(t, func() bool {
		_, err := env.history.Get(context.Background(), jobID)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	rec = env.do(t, http.MethodGet, "/api/exports?root=Paper.md", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exports := decode(t, rec)["exports"].([]any)
	require.Len(t, exports, 1)
	assert.Equal(t, jobID, exports[0].(map[string]any)["id"])

	rec = env.do(t, http.MethodGet, "/api/exports/"+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["labels"])
}

func TestExportValidation(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing root", `{}`, http.StatusBadRequest},
		{"bad backend", `{"root":"Paper","backend":"html"}`, http.StatusBadRequest},
		{"unknown root", `{"root":"Nope"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/export", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestExportStatusNotFound(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodGet, "/api/export/missing/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/exports/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchExport(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/export/batch", `{"roots":["Paper","Nope"],"backend":"latex"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	jobs := decode(t, rec)["jobs"].([]any)
	require.Len(t, jobs, 2)
	assert.NotEmpty(t, jobs[0].(map[string]any)["job_id"])
	assert.Equal(t, "root note not found", jobs[1].(map[string]any)["error"])
}

func TestRender(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/render", `{"relative_to":"Paper.md","markdown":"![[B]]\n"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "$ E = mc^2 $ <eq:1>\n", body["output"])
	assert.Equal(t, "typst", body["backend"])

	rec = env.do(t, http.MethodPost, "/api/render", `{"relative_to":"Paper.md","markdown":"![[B]]\n","backend":"latex"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\\begin{equation}\\label{eq:1}\nE = mc^2\n\\end{equation}\n", decode(t, rec)["output"])

	rec = env.do(t, http.MethodPost, "/api/render", `{"relative_to":"Nope.md","markdown":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/render", `{"markdown":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
