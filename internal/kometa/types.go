package kometa

import (
	"strconv"
	"strings"
	"time"
)

// Health is the payload of GET /api/health.
type Health struct {
	Status       string `json:"status"`
	ApplyEnabled bool   `json:"apply_enabled"`
	ConfigDir    string `json:"config_dir"`
	Timestamp    string `json:"timestamp"`
}

// Settings is the payload of GET /api/settings.
type Settings struct {
	ApplyEnabled     bool   `json:"apply_enabled"`
	PasswordRequired bool   `json:"password_required"`
	UIMode           string `json:"ui_mode"`
	Version          string `json:"version"`
}

// SettingsUpdate is the body of PUT /api/settings.
type SettingsUpdate struct {
	ApplyEnabled *bool `json:"apply_enabled,omitempty"`
}

// Validation is the backend's verdict on config content.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ConfigFile is the payload of GET /api/config.
type ConfigFile struct {
	Exists     bool        `json:"exists"`
	Content    string      `json:"content"`
	Path       string      `json:"path"`
	Message    string      `json:"message"`
	Validation *Validation `json:"validation"`
}

// SaveResult is returned by config and file saves.
type SaveResult struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Path       string      `json:"path"`
	BackupPath string      `json:"backup_path"`
	Validation *Validation `json:"validation"`
}

// Backup is one config.yml backup.
type Backup struct {
	Filename string `json:"filename"`
	Created  string `json:"created"`
	Size     int64  `json:"size"`
}

// Library is a library declared in config.yml.
type Library struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	HasOverlays bool   `json:"has_overlays"`
}

// RunRequest starts a run. Apply runs additionally carry Confirmation.
type RunRequest struct {
	DryRun       bool     `json:"dry_run"`
	Libraries    []string `json:"libraries,omitempty"`
	Collections  []string `json:"collections,omitempty"`
	RunType      string   `json:"run_type,omitempty"`
	Confirmation string   `json:"confirmation,omitempty"`
}

// ApplyConfirmation is the literal phrase the backend requires for apply runs.
const ApplyConfirmation = "APPLY CHANGES"

// Run types accepted by RunRequest.RunType.
var RunTypes = []string{"", "collections", "metadata", "overlays", "operations", "playlists"}

// Run is a run history record.
type Run struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	DryRun      bool     `json:"dry_run"`
	StartedAt   string   `json:"started_at"`
	CompletedAt string   `json:"completed_at"`
	ExitCode    *int     `json:"exit_code"`
	Libraries   []string `json:"libraries"`
	RunType     string   `json:"run_type"`
	Error       string   `json:"error"`
}

// Started parses StartedAt.
func (r Run) Started() time.Time { return parseTime(r.StartedAt) }

// Completed parses CompletedAt.
func (r Run) Completed() time.Time { return parseTime(r.CompletedAt) }

// Duration returns the run's elapsed time, measured to now while it is running.
func (r Run) Duration(now time.Time) time.Duration {
	start := r.Started()
	if start.IsZero() {
		return 0
	}
	end := r.Completed()
	if end.IsZero() {
		end = now
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// RunStatus is the payload of GET /api/run/status and the /ws/status stream.
type RunStatus struct {
	Running   bool   `json:"running"`
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	DryRun    bool   `json:"dry_run"`
	StartedAt string `json:"started_at"`
	Message   string `json:"message"`
}

// Started parses StartedAt.
func (r RunStatus) Started() time.Time { return parseTime(r.StartedAt) }

// RunPlan is the backend's description of what a run would do. Its shape is
// open-ended, so it is kept as decoded JSON.
type RunPlan map[string]any

// RunDiff is the payload of GET /api/runs/{id}/diff.
type RunDiff struct {
	RunID       string           `json:"run_id"`
	IsDryRun    bool             `json:"is_dry_run"`
	Message     string           `json:"message"`
	Summary     *DiffSummary     `json:"summary"`
	Collections []CollectionDiff `json:"collections"`
	Operations  []Operation      `json:"operations"`
}

// DiffSummary aggregates a dry-run diff.
type DiffSummary struct {
	TotalOperations     int            `json:"total_operations"`
	OperationsByType    map[string]int `json:"operations_by_type"`
	CollectionsAffected int            `json:"collections_affected"`
	TotalAdded          int            `json:"total_added"`
	TotalRemoved        int            `json:"total_removed"`
	TotalUpdated        int            `json:"total_updated"`
}

// CollectionDiff counts per-collection changes.
type CollectionDiff struct {
	Name    string `json:"name"`
	Added   int    `json:"items_added"`
	Removed int    `json:"items_removed"`
	Updated int    `json:"items_updated"`
}

// Operation is a single "[DRY RUN] Would ..." line.
type Operation struct {
	Operation string `json:"operation"`
	Target    string `json:"target"`
	Details   string `json:"details"`
}

// CollectionFile is a YAML file under the config directory.
type CollectionFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // "collection" or "overlay"
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// ModifiedAt parses Modified.
func (f CollectionFile) ModifiedAt() time.Time { return parseTime(f.Modified) }

// FileContent is the payload of GET /api/collections/file/{name}.
type FileContent struct {
	Exists   bool   `json:"exists"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Content  string `json:"content"`
}

// MediaItem is a library item as returned by metadata browse.
type MediaItem struct {
	RatingKey string `json:"rating_key"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Type      string `json:"type"`
	ThumbURL  string `json:"thumb_url"`
	Summary   string `json:"summary"`
}

// Label is "Title (Year)" when the year is known.
func (m MediaItem) Label() string {
	if m.Year > 0 {
		return m.Title + " (" + strconv.Itoa(m.Year) + ")"
	}
	return m.Title
}

// BrowseQuery configures GET /api/metadata/browse/{library}.
type BrowseQuery struct {
	Library string
	Page    int
	PerPage int
	Search  string
	Type    string
	Sort    string
}

// BrowsePage is one page of library items. A non-empty Error is a soft
// failure reported in a 200 response.
type BrowsePage struct {
	Items      []MediaItem `json:"items"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Error      string      `json:"error"`
}

// ItemMetadata is the payload of GET /api/metadata/item/{id}.
type ItemMetadata struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata"`
}

// OverlaySources describes where overlay definitions live.
type OverlaySources struct {
	DefaultsDir          string        `json:"defaults_dir"`
	DefaultsExists       bool          `json:"defaults_exists"`
	ConfigDir            string        `json:"config_dir"`
	ConfigOverlaysDir    string        `json:"config_overlays_dir"`
	ConfigOverlaysExists bool          `json:"config_overlays_exists"`
	Files                []OverlayFile `json:"files"`
}

// OverlayFile is an overlay definition file and where it came from.
type OverlayFile struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Source string `json:"source"` // "default" or "config"
}

// OverlayImage is an image usable by overlays.
type OverlayImage struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DefaultOverlay summarizes a built-in overlay file.
type DefaultOverlay struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	OverlayCount int    `json:"overlay_count"`
	QueueCount   int    `json:"queue_count"`
	Error        string `json:"error"`
}

// SchedulerStatus is the payload of GET /api/scheduler/status.
type SchedulerStatus struct {
	Enabled    bool   `json:"enabled"`
	Schedule   string `json:"schedule"`
	DryRunOnly bool   `json:"dry_run_only"`
	NextRun    string `json:"next_run"`
	LastRun    string `json:"last_run"`
	RunCount   int    `json:"run_count"`
}

// NextRunAt parses NextRun.
func (s SchedulerStatus) NextRunAt() time.Time { return parseTime(s.NextRun) }

// LastRunAt parses LastRun.
func (s SchedulerStatus) LastRunAt() time.Time { return parseTime(s.LastRun) }

// SchedulerConfig is the body of POST /api/scheduler/configure.
type SchedulerConfig struct {
	Enabled    bool   `json:"enabled"`
	Schedule   string `json:"schedule,omitempty"`
	DryRunOnly bool   `json:"dry_run_only"`
}

// ScheduleSettings mirrors the schedule keys kept in config.yml.
type ScheduleSettings struct {
	RunOrder         []string          `json:"run_order"`
	GlobalSchedule   string            `json:"global_schedule"`
	LibrarySchedules map[string]string `json:"library_schedules"`
}

// NotificationSettings maps webhook events to URLs.
type NotificationSettings struct {
	EnabledEvents []string          `json:"enabled_events"`
	Webhooks      map[string]string `json:"webhooks"`
}

// TestResult is the response of every /api/test/{service} call.
type TestResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Error      string `json:"error"`
	ServerName string `json:"server_name"`
}

// Text returns the human-readable outcome.
func (r TestResult) Text() string {
	if r.Success {
		if r.Message != "" {
			return r.Message
		}
		if r.ServerName != "" {
			return "Connected to " + r.ServerName
		}
		return "Connection successful"
	}
	if r.Error != "" {
		return r.Error
	}
	if r.Message != "" {
		return r.Message
	}
	return "Connection failed"
}

// WebhookTest is the body of POST /api/webhooks/test.
type WebhookTest struct {
	URL     string `json:"url"`
	Event   string `json:"event"`
	Service string `json:"service"`
}

// Playlist is a playlist definition found in playlist files.
type Playlist struct {
	Name        string            `json:"name"`
	SourceFile  string            `json:"source_file"`
	Library     string            `json:"library"`
	Libraries   any               `json:"libraries"`
	SyncToUsers any               `json:"sync_to_users"`
	Builders    []PlaylistBuilder `json:"builders"`
}

// BuilderNames lists the playlist's builder sources in file order.
func (p Playlist) BuilderNames() []string {
	names := make([]string, 0, len(p.Builders))
	for _, b := range p.Builders {
		names = append(names, b.Source)
	}
	return names
}

// PlaylistBuilder is one builder of a playlist. An empty Config is written
// as "source: true".
type PlaylistBuilder struct {
	Source string         `json:"source"`
	Config map[string]any `json:"config"`
}

// PlaylistSave is the body of POST /api/playlists/save.
type PlaylistSave struct {
	Name        string            `json:"name"`
	Libraries   string            `json:"libraries,omitempty"`
	SyncToUsers string            `json:"sync_to_users,omitempty"`
	Builders    []PlaylistBuilder `json:"builders"`
}

// BuilderSource describes a collection builder the UI can offer.
type BuilderSource struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Fields   []string `json:"fields"`
}

// Timestamp formats emitted by the backend.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
