package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imsgen/internal/config"
	"imsgen/internal/logger"
	"imsgen/internal/services"
	"imsgen/internal/storage"
)

type testEnv struct {
	srv       *Server
	handler   http.Handler
	outputDir string
	profile   string
}

func newTestEnv(t *testing.T, historySize int) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return newTestEnvWithOutput(t, historySize, filepath.Join(dir, "scripts"))
}

func newTestEnvWithOutput(t *testing.T, historySize int, outputDir string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "config.json")

	profiles := config.NewProfileStore(profilePath, outputDir, nil)
	writer := storage.NewScriptStore(outputDir)
	metrics := NewMetrics()
	log := logger.Discard()

	seq := 0
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	scripts := services.NewScriptService(profiles, writer, log,
		services.WithObserver(metrics),
		services.WithClock(
			func() time.Time { return now },
			func() string { seq++; return fmt.Sprintf("gen-%d", seq) },
		),
	)

	srv := New(config.ServerConfig{
		Addr:         ":0",
		WriteTimeout: 5 * time.Second,
		HistorySize:  historySize,
	}, outputDir, scripts, metrics, log)

	return &testEnv{srv: srv, handler: srv.Handler(), outputDir: outputDir, profile: profilePath}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func generateBody(start string, count int) map[string]any {
	return map[string]any{
		"start_number": start,
		"count":        count,
		"params": map[string]string{
			"domain":   "dra.ims.sdt",
			"cfn":      "cg.dra.ims.sdt",
			"password": "123456",
			"sifc_id":  "100",
			"scscf":    "scscfpool01",
			"cc":       "86",
			"lata":     "10",
		},
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGenerateScript(t *testing.T) {
	env := newTestEnv(t, 10)

	w := env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 3))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode[ScriptBody](t, w)
	assert.Equal(t, "gen-1", body.ID)
	assert.Equal(t, []string{"+861088889001", "+861088889002", "+861088889003"}, body.Numbers)
	require.Len(t, body.Sections, 3)
	assert.Equal(t, "uspp", body.Sections[0].Element)
	assert.Equal(t, "enum", body.Sections[1].Element)
	assert.Equal(t, "sss", body.Sections[2].Element)
	assert.Contains(t, body.Script, "PVI=+861088889003@dra.ims.sdt")
	assert.Equal(t, "/scripts/gen-1.txt", body.DownloadURL)

	// 成功產生後記住參數
	raw, err := os.ReadFile(env.profile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"last_count": 3`)
}

func TestGenerateScript_ElementFilter(t *testing.T) {
	env := newTestEnv(t, 10)

	req := generateBody("13800000000", 1)
	req["elements"] = []string{"sss"}
	w := env.do(t, http.MethodPost, "/api/v1/scripts", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode[ScriptBody](t, w)
	require.Len(t, body.Sections, 1)
	assert.Equal(t, "sss", body.Sections[0].Element)
	assert.NotContains(t, body.Script, "USPP")
}

func TestGenerateScript_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]any)
		location string
	}{
		{
			name:     "short start number",
			mutate:   func(b map[string]any) { b["start_number"] = "123" },
			location: "body.start_number",
		},
		{
			name:     "count above limit",
			mutate:   func(b map[string]any) { b["count"] = 10001 },
			location: "body.count",
		},
		{
			name:     "count zero",
			mutate:   func(b map[string]any) { b["count"] = 0 },
			location: "body.count",
		},
		{
			name: "non numeric lata",
			mutate: func(b map[string]any) {
				b["params"].(map[string]string)["lata"] = "ten"
			},
			location: "body.params.lata",
		},
		{
			name:     "unknown element",
			mutate:   func(b map[string]any) { b["elements"] = []string{"uspp", "hss"} },
			location: "body.elements[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 10)
			req := generateBody("+861088889001", 3)
			tt.mutate(req)

			w := env.do(t, http.MethodPost, "/api/v1/scripts", req)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

			model := decode[huma.ErrorModel](t, w)
			var locations []string
			for _, d := range model.Errors {
				locations = append(locations, d.Location)
			}
			assert.Contains(t, locations, tt.location)
			assert.Equal(t, 0, env.srv.history.len())
		})
	}
}

func TestGenerateScript_UnsupportedMediaType(t *testing.T) {
	env := newTestEnv(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scripts", strings.NewReader("start=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestGetScript(t *testing.T) {
	env := newTestEnv(t, 10)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 2)).Code)

	w := env.do(t, http.MethodGet, "/api/v1/scripts/gen-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gen-1", decode[ScriptBody](t, w).ID)

	w = env.do(t, http.MethodGet, "/api/v1/scripts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadScript(t *testing.T) {
	env := newTestEnv(t, 10)
	created := env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 2))
	require.Equal(t, http.StatusCreated, created.Code)
	script := decode[ScriptBody](t, created).Script

	w := env.do(t, http.MethodGet, "/scripts/gen-1.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ims_script_20260301_093000.txt")
	assert.Equal(t, script, w.Body.String())

	w = env.do(t, http.MethodGet, "/scripts/missing.txt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveScript(t *testing.T) {
	env := newTestEnv(t, 10)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 2)).Code)

	// 路徑部分會被去掉，只留檔名
	w := env.do(t, http.MethodPost, "/api/v1/scripts/gen-1/save", map[string]string{"file_name": "../../etc/batch.txt"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode[struct {
		ID    string `json:"id"`
		Path  string `json:"path"`
		Bytes int    `json:"bytes"`
	}](t, w)
	assert.Equal(t, filepath.Join(env.outputDir, "batch.txt"), out.Path)

	content, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, out.Bytes, len(content))
}

func TestSaveScript_DefaultName(t *testing.T) {
	env := newTestEnv(t, 10)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 1)).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scripts/gen-1/save", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entries, err := os.ReadDir(env.outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "ims_script_"))
}

func TestSaveScript_FailureKeepsResult(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	env := newTestEnvWithOutput(t, 10, filepath.Join(blocker, "scripts"))

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 1)).Code)

	w := env.do(t, http.MethodPost, "/api/v1/scripts/gen-1/save", map[string]string{"file_name": "a.txt"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// 結果仍保留，可重試或下載
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/scripts/gen-1", nil).Code)
}

func TestSaveScript_NotFound(t *testing.T) {
	env := newTestEnv(t, 10)
	w := env.do(t, http.MethodPost, "/api/v1/scripts/missing/save", map[string]string{"file_name": "a.txt"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryEviction(t *testing.T) {
	env := newTestEnv(t, 2)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 1)).Code)
	}

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/scripts/gen-1", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/scripts/gen-2", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/scripts/gen-3", nil).Code)
}

func TestProfileAPI(t *testing.T) {
	env := newTestEnv(t, 10)

	w := env.do(t, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[ProfileBody](t, w)
	assert.Equal(t, "dra.ims.sdt", got.Domain)
	assert.Equal(t, env.outputDir, got.LastSaveDir)

	got.Domain = "ims.example.com"
	got.LATA = "21"
	w = env.do(t, http.MethodPut, "/api/v1/profile", got)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reloaded := decode[ProfileBody](t, w)
	assert.Equal(t, "ims.example.com", reloaded.Domain)
	assert.Equal(t, "21", reloaded.LATA)
}

func TestProfileAPI_Invalid(t *testing.T) {
	env := newTestEnv(t, 10)

	body := profileBody(config.DefaultProfile(env.outputDir))
	body.CC = "8x"
	body.LastCount = 20000

	w := env.do(t, http.MethodPut, "/api/v1/profile", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	model := decode[huma.ErrorModel](t, w)
	require.NotEmpty(t, model.Errors)
	assert.Equal(t, "body.cc", model.Errors[0].Location)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, 10)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 3)).Code)
	require.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("12", 3)).Code)

	w := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Status          string                   `json:"status"`
		RetainedScripts int                      `json:"retained_scripts"`
		Generations     logger.GenerationMetrics `json:"generations"`
	}](t, w)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.RetainedScripts)
	assert.Equal(t, int64(2), body.Generations.TotalGenerations)
	assert.Equal(t, int64(1), body.Generations.SuccessfulGenerations)
	assert.Equal(t, int64(1), body.Generations.ValidationFailures)
	assert.Equal(t, int64(3), body.Generations.NumbersGenerated)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 10)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("+861088889001", 4)).Code)
	require.Equal(t, http.StatusUnprocessableEntity, env.do(t, http.MethodPost, "/api/v1/scripts", generateBody("12", 4)).Code)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	text := w.Body.String()
	assert.Contains(t, text, `imsgen_generations_total{status="success"} 1`)
	assert.Contains(t, text, `imsgen_generations_total{status="invalid"} 1`)
	assert.Contains(t, text, "imsgen_numbers_generated_total 4")
	assert.Contains(t, text, "imsgen_retained_scripts 1")
	assert.Contains(t, text, `imsgen_http_requests_total{code="201",method="POST",route="/api/v1/scripts"} 1`)
}
