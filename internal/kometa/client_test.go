package kometa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, r http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultAPIURL {
		t.Fatalf("default url = %q, want %q", u.String(), defaultAPIURL)
	}

	u, err = parseBaseURL("kometa.lan:8080")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "kometa.lan:8080" {
		t.Fatalf("url = %q, want http://kometa.lan:8080", u.String())
	}

	u, err = parseBaseURL("https://example.com:1234/ui?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func TestClient_EncodesQueriesAndBodies(t *testing.T) {
	t.Parallel()

	var (
		mu          sync.Mutex
		browseQuery url.Values
		runsQuery   url.Values
		savedBody   map[string]string
		testBody    map[string]string
		userAgent   string
		runBody     RunRequest
	)

	r := chi.NewRouter()
	r.Get("/api/metadata/browse/{library}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		browseQuery = r.URL.Query()
		userAgent = r.Header.Get("User-Agent")
		mu.Unlock()
		if chi.URLParam(r, "library") != "TV Shows" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, 200, map[string]any{
			"items": []map[string]any{{"rating_key": "123", "title": "Severance", "year": 2022, "thumb_url": "/t/123"}},
			"total": 1, "page": 2, "total_pages": 3,
		})
	})
	r.Get("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		runsQuery = r.URL.Query()
		mu.Unlock()
		writeJSON(w, 200, map[string]any{"runs": []Run{{ID: "r1", Status: "completed", DryRun: true}}})
	})
	r.Post("/api/collections/file/save", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&savedBody)
		mu.Unlock()
		writeJSON(w, 200, SaveResult{Success: true, Message: "File saved: Movies.yml"})
	})
	r.Post("/api/test/{service}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&testBody)
		mu.Unlock()
		writeJSON(w, 200, TestResult{Success: true, ServerName: "Home"})
	})
	r.Post("/api/run", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&runBody)
		mu.Unlock()
		writeJSON(w, 200, Run{ID: "r2", Status: "running", DryRun: true})
	})

	c := newTestClient(t, r)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	page, err := c.BrowseMetadata(ctx, BrowseQuery{Library: "TV Shows", Page: 2, PerPage: 24, Search: " sev ", Type: "show", Sort: "year"})
	if err != nil {
		t.Fatalf("BrowseMetadata returned error: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].RatingKey != "123" || page.Items[0].ThumbURL != "/t/123" || page.TotalPages != 3 {
		t.Fatalf("BrowseMetadata = %+v, want remapped item and total_pages", page)
	}
	if page.Items[0].Label() != "Severance (2022)" {
		t.Fatalf("Label = %q", page.Items[0].Label())
	}

	if _, err := c.Runs(ctx, 25, 50); err != nil {
		t.Fatalf("Runs returned error: %v", err)
	}

	if _, err := c.SaveCollectionFile(ctx, "Movies.yml", "collections: {}\n", "collection"); err != nil {
		t.Fatalf("SaveCollectionFile returned error: %v", err)
	}

	res, err := c.TestConnection(ctx, "Plex", map[string]string{"url": "http://plex:32400", "token": "abc"})
	if err != nil {
		t.Fatalf("TestConnection returned error: %v", err)
	}
	if res.Text() != "Connected to Home" {
		t.Fatalf("TestResult.Text = %q", res.Text())
	}

	run, err := c.StartRun(ctx, RunRequest{DryRun: false, Libraries: []string{"Movies"}, Confirmation: "x"})
	if err != nil {
		t.Fatalf("StartRun returned error: %v", err)
	}
	if run.ID != "r2" {
		t.Fatalf("StartRun id = %q", run.ID)
	}

	mu.Lock()
	defer mu.Unlock()
	if browseQuery.Get("page") != "2" || browseQuery.Get("per_page") != "24" ||
		browseQuery.Get("search") != "sev" || browseQuery.Get("type") != "show" || browseQuery.Get("sort") != "year" {
		t.Fatalf("browse query = %v", browseQuery)
	}
	if runsQuery.Get("limit") != "25" || runsQuery.Get("offset") != "50" {
		t.Fatalf("runs query = %v", runsQuery)
	}
	if savedBody["filename"] != "Movies.yml" || savedBody["file_type"] != "collection" || savedBody["content"] == "" {
		t.Fatalf("save body = %v", savedBody)
	}
	if testBody["url"] != "http://plex:32400" || testBody["token"] != "abc" {
		t.Fatalf("test body = %v", testBody)
	}
	if !runBody.DryRun || runBody.Confirmation != "" {
		t.Fatalf("StartRun body = %+v, want forced dry run without confirmation", runBody)
	}
	if !strings.HasPrefix(userAgent, "marquee/") {
		t.Fatalf("User-Agent = %q, want marquee/*", userAgent)
	}
}

func TestClient_ApplyRunRequiresConfirmation(t *testing.T) {
	called := false
	r := chi.NewRouter()
	r.Post("/api/run/apply", func(w http.ResponseWriter, r *http.Request) {
		called = true
		var req RunRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Confirmation != ApplyConfirmation || req.DryRun {
			writeJSON(w, 400, map[string]string{"detail": "bad confirmation"})
			return
		}
		writeJSON(w, 200, Run{ID: "apply-1"})
	})
	c := newTestClient(t, r)

	_, err := c.ApplyRun(context.Background(), RunRequest{Confirmation: "apply changes"})
	if !errors.Is(err, ErrConfirmation) {
		t.Fatalf("ApplyRun error = %v, want ErrConfirmation", err)
	}
	if called {
		t.Fatalf("ApplyRun contacted backend without confirmation")
	}

	run, err := c.ApplyRun(context.Background(), RunRequest{DryRun: true, Confirmation: ApplyConfirmation})
	if err != nil {
		t.Fatalf("ApplyRun returned error: %v", err)
	}
	if run.ID != "apply-1" {
		t.Fatalf("ApplyRun id = %q", run.ID)
	}
}

func TestClient_APIErrorDetail(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/api/run", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"detail": "A run is already in progress"})
	})
	r.Get("/api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Run not found"})
	})
	r.Post("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "field required"}}})
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not-json"))
	})
	r.Get("/api/libraries", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	_, err := c.StartRun(ctx, RunRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("StartRun error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Detail != "A run is already in progress" {
		t.Fatalf("APIError = %+v", apiErr)
	}

	_, err = c.Run(ctx, "missing")
	if !IsNotFound(err) {
		t.Fatalf("Run error = %v, want not found", err)
	}

	_, err = c.SaveConfig(ctx, "x: 1")
	if !errors.As(err, &apiErr) || !strings.Contains(apiErr.Detail, "field required") {
		t.Fatalf("SaveConfig error = %v, want raw detail list", err)
	}

	_, err = c.Health(ctx)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Health error = %v, want decode response error", err)
	}

	_, err = c.Libraries(ctx)
	if err == nil || !strings.Contains(err.Error(), "returned status 502: upstream exploded") {
		t.Fatalf("Libraries error = %v, want status 502 with body", err)
	}
}

func TestClient_EscapesPathSegments(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		writeJSON(w, 200, FileContent{Exists: true, Filename: "My Movies.yml", Content: "a: 1"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	file, err := c.CollectionFile(context.Background(), "My Movies.yml")
	if err != nil {
		t.Fatalf("CollectionFile returned error: %v", err)
	}
	if gotPath != "/api/collections/file/My%20Movies.yml" {
		t.Fatalf("path = %q, want escaped segment", gotPath)
	}
	if !file.Exists || file.Content != "a: 1" {
		t.Fatalf("CollectionFile = %+v", file)
	}
}

func TestClient_BasicAuthWhenPasswordSet(t *testing.T) {
	var user, pass string
	var ok bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
		writeJSON(w, 200, Health{Status: "healthy", ApplyEnabled: true})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithPassword("s3cret"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if !h.ApplyEnabled {
		t.Fatalf("Health = %+v", h)
	}
	if !ok || user != "kometa" || pass != "s3cret" {
		t.Fatalf("basic auth = %q/%q (%v)", user, pass, ok)
	}
}

func TestClient_SchedulerAndDiff(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/scheduler/configure", func(w http.ResponseWriter, r *http.Request) {
		var cfg SchedulerConfig
		_ = json.NewDecoder(r.Body).Decode(&cfg)
		writeJSON(w, 200, map[string]any{
			"success": true,
			"status":  SchedulerStatus{Enabled: cfg.Enabled, Schedule: cfg.Schedule, DryRunOnly: cfg.DryRunOnly, NextRun: "2024-05-01T00:00:00"},
		})
	})
	r.Get("/api/runs/{id}/diff", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"run_id":     chi.URLParam(r, "id"),
			"is_dry_run": true,
			"summary": map[string]any{
				"total_operations": 3, "collections_affected": 1,
				"operations_by_type": map[string]int{"add_item": 2, "update": 1},
				"total_added":        2, "total_removed": 0, "total_updated": 1,
			},
			"collections": []map[string]any{{"name": "Marvel", "items_added": 2, "items_removed": 0, "items_updated": 1}},
			"operations":  []Operation{{Operation: "add_item", Target: "Marvel", Details: "Iron Man"}},
		})
	})
	c := newTestClient(t, r)

	st, err := c.ConfigureScheduler(context.Background(), SchedulerConfig{Enabled: true, Schedule: "weekly(sunday)", DryRunOnly: true})
	if err != nil {
		t.Fatalf("ConfigureScheduler returned error: %v", err)
	}
	if !st.Enabled || st.Schedule != "weekly(sunday)" || st.NextRunAt().IsZero() {
		t.Fatalf("ConfigureScheduler status = %+v", st)
	}

	diff, err := c.RunDiff(context.Background(), "abc")
	if err != nil {
		t.Fatalf("RunDiff returned error: %v", err)
	}
	if diff.RunID != "abc" || diff.Summary == nil || diff.Summary.TotalAdded != 2 || diff.Summary.OperationsByType["add_item"] != 2 {
		t.Fatalf("RunDiff = %+v", diff)
	}
	if len(diff.Collections) != 1 || diff.Collections[0].Added != 2 || diff.Collections[0].Updated != 1 {
		t.Fatalf("RunDiff collections = %+v", diff.Collections)
	}
}

func TestClient_RequiresIDs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := c.Run(ctx, " "); err == nil {
		t.Fatalf("Run with empty id returned nil error")
	}
	if _, err := c.RunDiff(ctx, ""); err == nil {
		t.Fatalf("RunDiff with empty id returned nil error")
	}
	if err := c.DeleteRun(ctx, ""); err == nil {
		t.Fatalf("DeleteRun with empty id returned nil error")
	}
	if _, err := c.BrowseMetadata(ctx, BrowseQuery{}); err == nil {
		t.Fatalf("BrowseMetadata without library returned nil error")
	}
}

func TestRunDuration(t *testing.T) {
	r := Run{StartedAt: "2024-01-01T10:00:00", CompletedAt: "2024-01-01T10:05:30"}
	if got := r.Duration(time.Now()); got != 5*time.Minute+30*time.Second {
		t.Fatalf("Duration = %v", got)
	}
	if got := (Run{}).Duration(time.Now()); got != 0 {
		t.Fatalf("Duration of empty run = %v", got)
	}
}

func TestClient_PreviewOverlay(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	var body map[string]string
	r := chi.NewRouter()
	r.Post("/api/overlays/preview/simple", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, 200, map[string]any{
			"success": true,
			"image":   "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
			"width":   1000,
			"canvas":  map[string]any{"type": "portrait"},
		})
	})
	c := newTestClient(t, r)

	got, err := c.PreviewOverlay(context.Background(), OverlayPreviewRequest{OverlayName: " ratings ", MediaID: "42", Library: "Movies"})
	if err != nil {
		t.Fatalf("PreviewOverlay returned error: %v", err)
	}
	if string(got.Image) != string(png) {
		t.Fatalf("Image = %q, want %q", got.Image, png)
	}
	if got.Meta["width"] != "1000" || got.Meta["success"] != "true" || got.Meta["canvas.type"] != "portrait" {
		t.Fatalf("Meta = %v", got.Meta)
	}
	if _, ok := got.Meta["image"]; ok {
		t.Fatalf("Meta should not carry the image")
	}
	if body["overlay_name"] != "ratings" || body["media_id"] != "42" || body["poster_source"] != PosterTMDb || body["library"] != "Movies" {
		t.Fatalf("request body = %v", body)
	}
	if _, ok := body["config_content"]; ok {
		t.Fatalf("empty config_content should be omitted: %v", body)
	}
}

func TestClient_PreviewOverlayErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/overlays/preview/simple", func(w http.ResponseWriter, r *http.Request) {
		var req OverlayPreviewRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.OverlayName == "missing" {
			writeJSON(w, 404, map[string]string{"detail": "Overlay 'missing' not found"})
			return
		}
		writeJSON(w, 200, map[string]any{"success": false, "error": "no poster"})
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	if _, err := c.PreviewOverlay(ctx, OverlayPreviewRequest{OverlayName: "ratings"}); err == nil {
		t.Fatalf("PreviewOverlay without media id returned nil error")
	}
	_, err := c.PreviewOverlay(ctx, OverlayPreviewRequest{OverlayName: "missing", MediaID: "1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 404 || !strings.Contains(apiErr.Detail, "not found") {
		t.Fatalf("PreviewOverlay(missing) error = %v", err)
	}
	if _, err := c.PreviewOverlay(ctx, OverlayPreviewRequest{OverlayName: "ratings", MediaID: "1"}); err == nil || !strings.Contains(err.Error(), "no poster") {
		t.Fatalf("PreviewOverlay without image error = %v", err)
	}
}

func TestClient_Playlists(t *testing.T) {
	var saved PlaylistSave
	r := chi.NewRouter()
	r.Get("/api/playlists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"playlists": []map[string]any{{
			"name":        "Marvel",
			"source_file": "playlists.yml",
			"libraries":   "Movies, TV Shows",
			"builders":    []map[string]any{{"source": "trakt_list", "config": map[string]any{"list_url": "x"}}, {"source": "plex_all", "config": map[string]any{}}},
		}}})
	})
	r.Post("/api/playlists/save", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&saved)
		writeJSON(w, 200, map[string]any{"success": true, "message": "Playlist 'Weekend' saved to playlists-weekend.yml", "path": "/config/playlists-weekend.yml"})
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	lists, err := c.Playlists(ctx)
	if err != nil {
		t.Fatalf("Playlists returned error: %v", err)
	}
	if len(lists) != 1 || strings.Join(lists[0].BuilderNames(), ",") != "trakt_list,plex_all" {
		t.Fatalf("Playlists = %+v", lists)
	}

	if _, err := c.SavePlaylist(ctx, PlaylistSave{Name: "Weekend"}); err == nil {
		t.Fatalf("SavePlaylist without builders returned nil error")
	}
	builders := []PlaylistBuilder{{Source: "tmdb_popular"}}
	res, err := c.SavePlaylist(ctx, PlaylistSave{Name: " Weekend ", Libraries: "Movies", Builders: builders})
	if err != nil {
		t.Fatalf("SavePlaylist returned error: %v", err)
	}
	if !res.Success || res.Path != "/config/playlists-weekend.yml" {
		t.Fatalf("SavePlaylist = %+v", res)
	}
	if saved.Name != "Weekend" || saved.Libraries != "Movies" || len(saved.Builders) != 1 || saved.Builders[0].Source != "tmdb_popular" || saved.Builders[0].Config == nil {
		t.Fatalf("saved body = %+v", saved)
	}
	if builders[0].Config != nil {
		t.Fatalf("SavePlaylist modified the caller's builders")
	}
}
