package kometa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StatusFetcher is the subset of the API the background poller needs.
type StatusFetcher interface {
	Health(ctx context.Context) (*Health, error)
	RunStatus(ctx context.Context) (*RunStatus, error)
	SchedulerStatus(ctx context.Context) (*SchedulerStatus, error)
}

// Ensure Client implements StatusFetcher at compile time.
var _ StatusFetcher = (*Client)(nil)

// Client talks to the Kometa Web UI HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	password  string
}

const (
	defaultAPIURL    = "http://127.0.0.1:8080"
	defaultUserAgent = "marquee/0.1"
	requestTimeout   = 15 * time.Second
	maxErrorBody     = 64 * 1024
)

// ErrConfirmation is returned when an apply run lacks the confirmation phrase.
var ErrConfirmation = errors.New("apply runs require the confirmation " + strconv.Quote(ApplyConfirmation))

// APIError is a non-2xx response. Detail carries the backend's "detail" field
// when present, or the raw body otherwise.
type APIError struct {
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Detail)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Option customizes a Client.
type Option func(*Client)

// WithPassword sends HTTP basic auth with the given password.
func WithPassword(password string) Option {
	return func(c *Client) { c.password = password }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the backend at apiURL (host:port or full URL).
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: NewLoggingTransport(nil),
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var payload Health
	if err := c.get(ctx, apiPath("health"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Settings returns Web UI settings.
func (c *Client) Settings(ctx context.Context) (*Settings, error) {
	var payload Settings
	if err := c.get(ctx, apiPath("settings"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SetApplyEnabled toggles whether apply runs are allowed.
func (c *Client) SetApplyEnabled(ctx context.Context, enabled bool) error {
	return c.send(ctx, http.MethodPut, apiPath("settings"), SettingsUpdate{ApplyEnabled: &enabled}, nil)
}

// Config returns config.yml.
func (c *Client) Config(ctx context.Context) (*ConfigFile, error) {
	var payload ConfigFile
	if err := c.get(ctx, apiPath("config"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type contentBody struct {
	Content string `json:"content"`
}

// SaveConfig replaces config.yml. The backend keeps a backup of the old file.
func (c *Client) SaveConfig(ctx context.Context, content string) (*SaveResult, error) {
	var payload SaveResult
	if err := c.send(ctx, http.MethodPost, apiPath("config"), contentBody{Content: content}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ValidateConfig asks the backend to validate content without saving it.
func (c *Client) ValidateConfig(ctx context.Context, content string) (*Validation, error) {
	var payload Validation
	if err := c.send(ctx, http.MethodPost, apiPath("config", "validate"), contentBody{Content: content}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Backups lists config.yml backups, newest first.
func (c *Client) Backups(ctx context.Context) ([]Backup, error) {
	var payload struct {
		Backups []Backup `json:"backups"`
	}
	if err := c.get(ctx, apiPath("config", "backups"), &payload); err != nil {
		return nil, err
	}
	return payload.Backups, nil
}

// CreateBackup snapshots config.yml.
func (c *Client) CreateBackup(ctx context.Context) (*SaveResult, error) {
	var payload SaveResult
	if err := c.send(ctx, http.MethodPost, apiPath("config", "backup"), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// RestoreBackup replaces config.yml with the named backup.
func (c *Client) RestoreBackup(ctx context.Context, name string) error {
	return c.send(ctx, http.MethodPost, apiPath("config", "restore", name), nil, nil)
}

// DeleteBackup removes the named backup.
func (c *Client) DeleteBackup(ctx context.Context, name string) error {
	return c.send(ctx, http.MethodDelete, apiPath("config", "backups", name), nil, nil)
}

// Libraries lists the libraries declared in config.yml.
func (c *Client) Libraries(ctx context.Context) ([]Library, error) {
	var payload struct {
		Libraries []Library `json:"libraries"`
	}
	if err := c.get(ctx, apiPath("libraries"), &payload); err != nil {
		return nil, err
	}
	return payload.Libraries, nil
}

// RunPlan describes what the next run would do.
func (c *Client) RunPlan(ctx context.Context) (RunPlan, error) {
	var payload RunPlan
	if err := c.get(ctx, apiPath("run", "plan"), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// StartRun starts a dry run.
func (c *Client) StartRun(ctx context.Context, req RunRequest) (*Run, error) {
	req.DryRun = true
	req.Confirmation = ""
	var payload Run
	if err := c.send(ctx, http.MethodPost, apiPath("run"), req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ApplyRun starts a run that writes changes. req.Confirmation must equal
// ApplyConfirmation.
func (c *Client) ApplyRun(ctx context.Context, req RunRequest) (*Run, error) {
	if req.Confirmation != ApplyConfirmation {
		return nil, ErrConfirmation
	}
	req.DryRun = false
	var payload Run
	if err := c.send(ctx, http.MethodPost, apiPath("run", "apply"), req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// RunStatus returns the state of the current run.
func (c *Client) RunStatus(ctx context.Context) (*RunStatus, error) {
	var payload RunStatus
	if err := c.get(ctx, apiPath("run", "status"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// StopRun stops the current run.
func (c *Client) StopRun(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, apiPath("run", "stop"), nil, nil)
}

// Runs lists run history.
func (c *Client) Runs(ctx context.Context, limit, offset int) ([]Run, error) {
	rel := apiPath("runs")
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		values.Set("offset", strconv.Itoa(offset))
	}
	rel.RawQuery = values.Encode()

	var payload struct {
		Runs []Run `json:"runs"`
	}
	if err := c.get(ctx, rel, &payload); err != nil {
		return nil, err
	}
	return payload.Runs, nil
}

// Run fetches one run record.
func (c *Client) Run(ctx context.Context, id string) (*Run, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("run id required")
	}
	var payload Run
	if err := c.get(ctx, apiPath("runs", id), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// RunLogs returns the last tail lines of a run's log.
func (c *Client) RunLogs(ctx context.Context, id string, tail int) ([]string, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("run id required")
	}
	rel := apiPath("logs", id)
	if tail > 0 {
		rel.RawQuery = url.Values{"tail": {strconv.Itoa(tail)}}.Encode()
	}
	var payload struct {
		Logs []string `json:"logs"`
	}
	if err := c.get(ctx, rel, &payload); err != nil {
		return nil, err
	}
	return payload.Logs, nil
}

// RunDiff returns the parsed dry-run changes for a run.
func (c *Client) RunDiff(ctx context.Context, id string) (*RunDiff, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("run id required")
	}
	var payload RunDiff
	if err := c.get(ctx, apiPath("runs", id, "diff"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteRun removes a run and its logs.
func (c *Client) DeleteRun(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("run id required")
	}
	return c.send(ctx, http.MethodDelete, apiPath("runs", id), nil, nil)
}

// CollectionFiles lists collection and overlay YAML files.
func (c *Client) CollectionFiles(ctx context.Context) ([]CollectionFile, error) {
	var payload struct {
		Files []CollectionFile `json:"files"`
	}
	if err := c.get(ctx, apiPath("collections", "files"), &payload); err != nil {
		return nil, err
	}
	return payload.Files, nil
}

// CollectionFile loads a file's raw YAML. Missing files come back with Exists=false.
func (c *Client) CollectionFile(ctx context.Context, name string) (*FileContent, error) {
	var payload FileContent
	if err := c.get(ctx, apiPath("collections", "file", name), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SaveCollectionFile writes raw YAML. fileType is "collection" or "overlay".
func (c *Client) SaveCollectionFile(ctx context.Context, name, content, fileType string) (*SaveResult, error) {
	body := struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
		FileType string `json:"file_type"`
	}{name, content, fileType}
	var payload SaveResult
	if err := c.send(ctx, http.MethodPost, apiPath("collections", "file", "save"), body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// BrowseMetadata pages through a library.
func (c *Client) BrowseMetadata(ctx context.Context, q BrowseQuery) (*BrowsePage, error) {
	if strings.TrimSpace(q.Library) == "" {
		return nil, fmt.Errorf("library required")
	}
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		values.Set("search", s)
	}
	if t := strings.TrimSpace(q.Type); t != "" {
		values.Set("type", t)
	}
	if s := strings.TrimSpace(q.Sort); s != "" {
		values.Set("sort", s)
	}
	rel := apiPath("metadata", "browse", q.Library)
	rel.RawQuery = values.Encode()

	var payload BrowsePage
	if err := c.get(ctx, rel, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MetadataItem returns the full metadata for one item.
func (c *Client) MetadataItem(ctx context.Context, ratingKey string) (*ItemMetadata, error) {
	var payload ItemMetadata
	if err := c.get(ctx, apiPath("metadata", "item", ratingKey), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GenerateMetadataYAML renders a Kometa metadata file for the given items.
func (c *Client) GenerateMetadataYAML(ctx context.Context, items []MediaItem) (string, error) {
	body := make([]map[string]any, 0, len(items))
	for _, it := range items {
		entry := map[string]any{"title": it.Title}
		if it.Year > 0 {
			entry["year"] = it.Year
		}
		if it.Summary != "" {
			entry["summary"] = it.Summary
		}
		body = append(body, entry)
	}
	var payload struct {
		YAML string `json:"yaml"`
	}
	if err := c.send(ctx, http.MethodPost, apiPath("metadata", "generate-yaml"), body, &payload); err != nil {
		return "", err
	}
	return payload.YAML, nil
}

// Overlays describes default and config overlay locations.
func (c *Client) Overlays(ctx context.Context) (*OverlaySources, error) {
	var payload OverlaySources
	if err := c.get(ctx, apiPath("overlays"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// OverlayImages lists images available to overlays.
func (c *Client) OverlayImages(ctx context.Context) ([]OverlayImage, error) {
	var payload struct {
		Images []OverlayImage `json:"images"`
	}
	if err := c.get(ctx, apiPath("overlays", "images"), &payload); err != nil {
		return nil, err
	}
	return payload.Images, nil
}

// DefaultOverlays summarizes Kometa's built-in overlay files.
func (c *Client) DefaultOverlays(ctx context.Context) ([]DefaultOverlay, error) {
	var payload struct {
		Defaults []DefaultOverlay `json:"defaults"`
	}
	if err := c.get(ctx, apiPath("overlays", "defaults"), &payload); err != nil {
		return nil, err
	}
	return payload.Defaults, nil
}

// PreviewOverlay renders an overlay file onto a library item's poster.
func (c *Client) PreviewOverlay(ctx context.Context, req OverlayPreviewRequest) (*OverlayPreview, error) {
	req.OverlayName = strings.TrimSpace(req.OverlayName)
	req.MediaID = strings.TrimSpace(req.MediaID)
	if req.OverlayName == "" || req.MediaID == "" {
		return nil, fmt.Errorf("overlay name and media id required")
	}
	if req.PosterSource == "" {
		req.PosterSource = PosterTMDb
	}
	var payload OverlayPreview
	if err := c.send(ctx, http.MethodPost, apiPath("overlays", "preview", "simple"), req, &payload); err != nil {
		return nil, err
	}
	if len(payload.Image) == 0 {
		if msg := payload.Meta["error"]; msg != "" {
			return nil, fmt.Errorf("preview failed: %s", msg)
		}
		return nil, fmt.Errorf("preview response has no image")
	}
	return &payload, nil
}

// SchedulerStatus returns the automated scheduler's state.
func (c *Client) SchedulerStatus(ctx context.Context) (*SchedulerStatus, error) {
	var payload SchedulerStatus
	if err := c.get(ctx, apiPath("scheduler", "status"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ConfigureScheduler enables, disables or reschedules automated runs.
func (c *Client) ConfigureScheduler(ctx context.Context, cfg SchedulerConfig) (*SchedulerStatus, error) {
	var payload struct {
		Status SchedulerStatus `json:"status"`
	}
	if err := c.send(ctx, http.MethodPost, apiPath("scheduler", "configure"), cfg, &payload); err != nil {
		return nil, err
	}
	return &payload.Status, nil
}

// StopScheduler halts automated runs.
func (c *Client) StopScheduler(ctx context.Context) (*SchedulerStatus, error) {
	var payload struct {
		Status SchedulerStatus `json:"status"`
	}
	if err := c.send(ctx, http.MethodPost, apiPath("scheduler", "stop"), nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Status, nil
}

// ScheduleSettings returns the schedule keys stored in config.yml.
func (c *Client) ScheduleSettings(ctx context.Context) (*ScheduleSettings, error) {
	var payload ScheduleSettings
	if err := c.get(ctx, apiPath("settings", "schedule"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SaveScheduleSettings writes the schedule keys to config.yml.
func (c *Client) SaveScheduleSettings(ctx context.Context, s ScheduleSettings) error {
	return c.send(ctx, http.MethodPost, apiPath("settings", "schedule"), s, nil)
}

// NotificationSettings returns webhook routing from config.yml.
func (c *Client) NotificationSettings(ctx context.Context) (*NotificationSettings, error) {
	var payload NotificationSettings
	if err := c.get(ctx, apiPath("settings", "notifications"), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SaveNotificationSettings writes webhook routing to config.yml.
func (c *Client) SaveNotificationSettings(ctx context.Context, s NotificationSettings) error {
	return c.send(ctx, http.MethodPost, apiPath("settings", "notifications"), s, nil)
}

// TestConnection runs /api/test/{service} with the given credential fields.
func (c *Client) TestConnection(ctx context.Context, service string, fields map[string]string) (*TestResult, error) {
	service = strings.ToLower(strings.TrimSpace(service))
	if service == "" {
		return nil, fmt.Errorf("service required")
	}
	var payload TestResult
	if err := c.send(ctx, http.MethodPost, apiPath("test", service), fields, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// TestWebhook sends a test notification.
func (c *Client) TestWebhook(ctx context.Context, req WebhookTest) (*TestResult, error) {
	if req.Event == "" {
		req.Event = "test"
	}
	if req.Service == "" {
		req.Service = "custom"
	}
	var payload TestResult
	if err := c.send(ctx, http.MethodPost, apiPath("webhooks", "test"), req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Playlists lists playlist definitions.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var payload struct {
		Playlists []Playlist `json:"playlists"`
	}
	if err := c.get(ctx, apiPath("playlists"), &payload); err != nil {
		return nil, err
	}
	return payload.Playlists, nil
}

// SavePlaylist writes a playlist definition file under the config directory.
func (c *Client) SavePlaylist(ctx context.Context, p PlaylistSave) (*SaveResult, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("playlist name required")
	}
	if len(p.Builders) == 0 {
		return nil, fmt.Errorf("playlist %q needs at least one builder", p.Name)
	}
	builders := make([]PlaylistBuilder, len(p.Builders))
	for i, b := range p.Builders {
		if b.Config == nil {
			b.Config = map[string]any{}
		}
		builders[i] = b
	}
	p.Builders = builders
	var payload SaveResult
	if err := c.send(ctx, http.MethodPost, apiPath("playlists", "save"), p, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// BuilderSources lists collection builders keyed by builder id.
func (c *Client) BuilderSources(ctx context.Context) (map[string]BuilderSource, error) {
	var payload struct {
		Sources map[string]BuilderSource `json:"sources"`
	}
	if err := c.get(ctx, apiPath("builders", "sources"), &payload); err != nil {
		return nil, err
	}
	return payload.Sources, nil
}

func (c *Client) get(ctx context.Context, rel *url.URL, dest any) error {
	return c.doURL(ctx, http.MethodGet, rel, nil, dest)
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.password != "" {
		req.SetBasicAuth("kometa", c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newAPIError(rel.Path, resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(path string, resp *http.Response) error {
	apiErr := &APIError{Path: path, Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &envelope) == nil && len(envelope.Detail) > 0 {
		var text string
		if json.Unmarshal(envelope.Detail, &text) == nil {
			apiErr.Detail = text
		} else {
			apiErr.Detail = string(envelope.Detail)
		}
		return apiErr
	}
	apiErr.Detail = strings.TrimSpace(string(raw))
	return apiErr
}

// apiPath joins escaped segments under /api.
func apiPath(segments ...string) *url.URL {
	raw := make([]string, len(segments))
	for i, s := range segments {
		raw[i] = url.PathEscape(s)
	}
	return &url.URL{
		Path:    "/api/" + strings.Join(segments, "/"),
		RawPath: "/api/" + strings.Join(raw, "/"),
	}
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
