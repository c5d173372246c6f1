package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"

	"github.com/five82/marquee/internal/app"
	"github.com/five82/marquee/internal/config"
)

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fakeBackend struct {
	mu       sync.Mutex
	tested   map[string]string
	validate string
}

func (b *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": "healthy", "apply_enabled": false, "config_dir": "/config"})
	})
	r.Get("/api/run/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]any{"running": true, "run_id": "run-42", "status": "running", "dry_run": true})
	})
	r.Get("/api/scheduler/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	})
	r.Get("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]any{"runs": []map[string]any{{
			"id": "run-41", "status": "completed", "dry_run": true,
			"started_at": "2024-01-01T10:00:00", "completed_at": "2024-01-01T10:05:00",
			"libraries": []string{"Movies"},
		}}})
	})
	r.Get("/api/runs/{id}/diff", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "run-41" {
			writeJSONResponse(w, http.StatusNotFound, map[string]string{"detail": "Run not found"})
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"run_id": "run-41", "is_dry_run": true,
			"summary": map[string]any{
				"total_operations": 3, "collections_affected": 1, "total_added": 2, "total_removed": 1,
				"operations_by_type": map[string]int{"add": 2, "remove": 1},
			},
			"collections": []map[string]any{{"name": "Top Rated", "items_added": 2, "items_removed": 1}},
		})
	})
	r.Post("/api/config/validate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.validate = body.Content
		b.mu.Unlock()
		if strings.Contains(body.Content, "libraries") {
			writeJSONResponse(w, http.StatusOK, map[string]any{"valid": true, "warnings": []string{"no collections"}})
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]any{"valid": false, "errors": []string{"libraries is required"}})
	})
	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"exists":  true,
			"content": "plex:\n  url: http://plex:32400/\n  token: from-config\n",
		})
	})
	r.Post("/api/test/{service}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.tested = body
		b.mu.Unlock()
		writeJSONResponse(w, http.StatusOK, map[string]any{"success": true, "server_name": "Basement"})
	})
	return r
}

// runCLI executes args against a fake backend with an isolated home.
func runCLI(t *testing.T, args ...string) (*fakeBackend, string, error) {
	t.Helper()
	backend := &fakeBackend{}
	server := httptest.NewServer(backend.router())
	t.Cleanup(server.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvAPIURL, server.URL)
	t.Setenv("MARQUEE_CONFIG", filepath.Join(home, "missing.toml"))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return backend, out.String(), err
}

func TestStatusPrintsHealthAndRun(t *testing.T) {
	_, out, err := runCLI(t, "status")
	if err != nil {
		t.Fatalf("status returned error: %v", err)
	}
	for _, want := range []string{"healthy", "dry run only", "run-42", "/config"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Scheduler") {
		t.Fatalf("status printed a scheduler line for a backend without one:\n%s", out)
	}
}

func TestStatusJSON(t *testing.T) {
	_, out, err := runCLI(t, "status", "--json")
	if err != nil {
		t.Fatalf("status --json returned error: %v", err)
	}
	var report struct {
		Health struct {
			Status string `json:"status"`
		} `json:"health"`
		Run struct {
			RunID string `json:"run_id"`
		} `json:"run"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.Health.Status != "healthy" || report.Run.RunID != "run-42" {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunsListsHistory(t *testing.T) {
	_, out, err := runCLI(t, "runs", "--limit", "5")
	if err != nil {
		t.Fatalf("runs returned error: %v", err)
	}
	if !strings.Contains(out, "run-41") || !strings.Contains(out, "Movies") || !strings.Contains(out, "5m0s") {
		t.Fatalf("runs output = %q", out)
	}
}

func TestDiffSummaryAndMissingRun(t *testing.T) {
	_, out, err := runCLI(t, "diff", "run-41")
	if err != nil {
		t.Fatalf("diff returned error: %v", err)
	}
	if !strings.Contains(out, "Top Rated") || !strings.Contains(out, "+2 -1") {
		t.Fatalf("diff output = %q", out)
	}

	_, out, err = runCLI(t, "diff", "nope")
	if err != nil {
		t.Fatalf("diff of unknown run returned error: %v", err)
	}
	if !strings.Contains(out, "No diff recorded") {
		t.Fatalf("diff output = %q", out)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(good, []byte("libraries:\n  Movies: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	backend, out, err := runCLI(t, "validate", good)
	if err != nil {
		t.Fatalf("validate returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "valid") || !strings.Contains(out, "warning: no collections") {
		t.Fatalf("validate output = %q", out)
	}
	if !strings.Contains(backend.validate, "Movies") {
		t.Fatalf("backend received %q", backend.validate)
	}

	invalid := filepath.Join(dir, "empty.yml")
	if err := os.WriteFile(invalid, []byte("plex: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, out, err := runCLI(t, "validate", invalid); !errors.Is(err, errInvalid) {
		t.Fatalf("validate(invalid) err = %v, want errInvalid\n%s", err, out)
	}
}

func TestValidateStopsOnSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	if err := os.WriteFile(path, []byte("a: [1, 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	backend, out, err := runCLI(t, "validate", path)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("err = %v, want errInvalid", err)
	}
	if backend.validate != "" {
		t.Fatalf("backend was called for a file with a syntax error")
	}
	if !strings.Contains(out, "broken.yml") {
		t.Fatalf("output = %q", out)
	}
}

func TestConnectionTestUsesConfigAndOverrides(t *testing.T) {
	backend, out, err := runCLI(t, "test", "plex", "--field", "token=override")
	if err != nil {
		t.Fatalf("test returned error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Connected to Basement") {
		t.Fatalf("test output = %q", out)
	}
	if backend.tested["url"] != "http://plex:32400" || backend.tested["token"] != "override" {
		t.Fatalf("payload = %v", backend.tested)
	}
}

func TestConnectionTestRejectsUnknownInput(t *testing.T) {
	if _, _, err := runCLI(t, "test", "jellyfin"); err == nil || !strings.Contains(err.Error(), "unknown service") {
		t.Fatalf("err = %v, want unknown service", err)
	}
	if _, _, err := runCLI(t, "test", "plex", "--field", "colour=blue"); err == nil || !strings.Contains(err.Error(), "no field") {
		t.Fatalf("err = %v, want unknown field", err)
	}
}

func TestLogsTailsLogFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	logFile := filepath.Join(home, "marquee.log")
	t.Setenv(config.EnvLogFile, logFile)
	t.Setenv("MARQUEE_CONFIG", filepath.Join(home, "missing.toml"))
	if err := os.WriteFile(logFile, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"logs", "-n", "2"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("logs returned error: %v", err)
	}
	if out.String() != "two\nthree\n" {
		t.Fatalf("logs output = %q", out.String())
	}
}

func TestRootWithoutSubcommandRunsConsole(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "http://from-env:8080")
	t.Setenv(config.EnvPoll, "7")

	var got app.Options
	a := &cliApp{
		v:     viper.New(),
		setup: app.Setup,
		run: func(ctx context.Context, opts app.Options) error {
			got = opts
			return nil
		},
	}
	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"--url", "http://from-flag:8080", "--config", "/tmp/marquee.toml"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("root returned error: %v", err)
	}
	if got.APIURL != "http://from-flag:8080" {
		t.Fatalf("APIURL = %q, want the flag value", got.APIURL)
	}
	if got.PollEvery != 7 {
		t.Fatalf("PollEvery = %d, want 7 from %s", got.PollEvery, config.EnvPoll)
	}
	if got.ConfigPath != "/tmp/marquee.toml" {
		t.Fatalf("ConfigPath = %q", got.ConfigPath)
	}
}
