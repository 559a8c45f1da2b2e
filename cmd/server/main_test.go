package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-tutorial/internal/platform/config"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		Server:         config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Store:          config.StoreConfig{Backend: backend, Path: filepath.Join(t.TempDir(), "progress.db"), KeyPrefix: "test"},
		Log:            config.LogConfig{Level: "info", Format: "json"},
		Locale:         "en",
		MetricsEnabled: true,
	}
}

func TestHealthEndpoints(t *testing.T) {
	a, err := newApp(t.Context(), testConfig(t, config.BackendMemory))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			a.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestNewApp_SQLitePersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)

	first, err := newApp(t.Context(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	if err := first.engine.StartModule(1); err != nil {
		t.Fatalf("StartModule(1) error = %v", err)
	}
	if err := first.engine.JumpToStep(4); err != nil {
		t.Fatalf("JumpToStep(4) error = %v", err)
	}
	if err := first.engine.NextStep(); err != nil {
		t.Fatalf("NextStep() error = %v", err)
	}
	for _, option := range []int{1, 2, 1} {
		if err := first.engine.SelectAnswer(option); err != nil {
			t.Fatalf("SelectAnswer() error = %v", err)
		}
		if _, _, err := first.engine.Activate(); err != nil {
			t.Fatalf("Activate() submit error = %v", err)
		}
		if _, _, err := first.engine.Activate(); err != nil {
			t.Fatalf("Activate() advance error = %v", err)
		}
	}
	first.close()

	second, err := newApp(t.Context(), cfg)
	if err != nil {
		t.Fatalf("newApp() after restart error = %v", err)
	}
	defer second.close()

	if got := second.engine.Progress().CompletedModules; len(got) != 1 || got[0] != 1 {
		t.Errorf("CompletedModules after restart = %v, want [1]", got)
	}
}

func TestNewApp_MetricsToggle(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		wantStatus int
	}{
		{"enabled", true, http.StatusOK},
		{"disabled", false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, config.BackendMemory)
			cfg.MetricsEnabled = tt.enabled
			a, err := newApp(t.Context(), cfg)
			if err != nil {
				t.Fatalf("newApp() error = %v", err)
			}
			defer a.close()

			rec := httptest.NewRecorder()
			a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("GET /metrics status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestNewApp_LocalizedView(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Locale = "ms"
	a, err := newApp(t.Context(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/view", nil))

	var vm struct {
		Progress struct {
			Text string `json:"text"`
		} `json:"progress"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&vm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if vm.Progress.Text != "0% Selesai" {
		t.Errorf("Progress.Text = %q, want 0%% Selesai", vm.Progress.Text)
	}
}

func TestLoadCatalog(t *testing.T) {
	cat, err := loadCatalog("")
	if err != nil {
		t.Fatalf("loadCatalog(\"\") error = %v", err)
	}
	if cat.Len() < 2 {
		t.Errorf("embedded catalog has %d modules, want at least 2", cat.Len())
	}

	if _, err := loadCatalog(t.TempDir()); err == nil {
		t.Error("loadCatalog() on an empty directory should fail")
	}

	dir := t.TempDir()
	doc := "id: 1\ntitle: \"Only\"\nsteps:\n  - title: \"S\"\nquiz:\n  - question: \"Q\"\n    options: [\"a\", \"b\"]\n    correct: 0\n"
	if err := os.WriteFile(filepath.Join(dir, "01.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}
	cat, err = loadCatalog(dir)
	if err != nil {
		t.Fatalf("loadCatalog(dir) error = %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cat.Len())
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", `"msg":"hello"`},
		{"text", "msg=hello"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(config.LogConfig{Level: "warn", Format: tt.format}, &buf)

			logger.Info("dropped")
			logger.Warn("hello")

			out := buf.String()
			if strings.Contains(out, "dropped") {
				t.Error("info message should be filtered at warn level")
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output %q missing %q", out, tt.want)
			}
		})
	}
}

func TestOpenStorage_UnknownBackend(t *testing.T) {
	if _, err := openStorage(t.Context(), testConfig(t, "localstorage")); err == nil {
		t.Error("openStorage() should reject an unknown backend")
	}
}
