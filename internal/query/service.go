package query

import (
	"context"
	"strconv"

	"github.com/five82/marquee/internal/kometa"
)

// Cache keys. Nested keys are invalidated with their parent.
const (
	KeySettings      = "settings"
	KeyConfig        = "config"
	KeyBackups       = "config/backups"
	KeyLibraries     = "libraries"
	KeyRun           = "run"
	KeyRunPlan       = "run/plan"
	KeyRuns          = "runs"
	KeyFiles         = "files"
	KeyMetadata      = "metadata"
	KeyOverlays      = "overlays"
	KeyScheduler     = "scheduler"
	KeySchedule      = "schedule"
	KeyNotifications = "notifications"
	KeyPlaylists     = "playlists"
	KeyBuilders      = "builders"
)

// FileKey is the key of one collection or overlay file.
func FileKey(name string) string { return Key(KeyFiles, name) }

// BrowseKey is the key of one metadata browse page.
func BrowseKey(q kometa.BrowseQuery) string {
	return Key(KeyMetadata, q.Library, strconv.Itoa(q.Page), q.Search, q.Type, q.Sort)
}

// RunKey is the key of one run record.
func RunKey(id string) string { return Key(KeyRuns, id) }

// Service pairs the backend client with a Cache. Reads go through the cache
// and each write invalidates the keys it can change.
type Service struct {
	client *kometa.Client
	cache  *Cache
}

// NewService wraps client with cache.
func NewService(client *kometa.Client, cache *Cache) *Service {
	return &Service{client: client, cache: cache}
}

// Client exposes the uncached client for streams and polling.
func (s *Service) Client() *kometa.Client { return s.client }

// Cache exposes the underlying cache.
func (s *Service) Cache() *Cache { return s.cache }

func (s *Service) Settings(ctx context.Context) (*kometa.Settings, error) {
	return Get(ctx, s.cache, KeySettings, s.client.Settings)
}

func (s *Service) SetApplyEnabled(ctx context.Context, enabled bool) error {
	return Mutate(ctx, s.cache, func(ctx context.Context) error {
		return s.client.SetApplyEnabled(ctx, enabled)
	}, KeySettings)
}

func (s *Service) Config(ctx context.Context) (*kometa.ConfigFile, error) {
	return Get(ctx, s.cache, KeyConfig, s.client.Config)
}

// SaveConfig writes config.yml. Everything derived from it is refetched.
func (s *Service) SaveConfig(ctx context.Context, content string) (*kometa.SaveResult, error) {
	return Run(ctx, s.cache, func(ctx context.Context) (*kometa.SaveResult, error) {
		return s.client.SaveConfig(ctx, content)
	}, KeyConfig, KeyLibraries, KeyRunPlan, KeySchedule, KeyNotifications, KeyPlaylists)
}

func (s *Service) ValidateConfig(ctx context.Context, content string) (*kometa.Validation, error) {
	return s.client.ValidateConfig(ctx, content)
}

func (s *Service) Backups(ctx context.Context) ([]kometa.Backup, error) {
	return Get(ctx, s.cache, KeyBackups, s.client.Backups)
}

func (s *Service) CreateBackup(ctx context.Context) (*kometa.SaveResult, error) {
	return Run(ctx, s.cache, s.client.CreateBackup, KeyBackups)
}

func (s *Service) RestoreBackup(ctx context.Context, name string) error {
	return Mutate(ctx, s.cache, func(ctx context.Context) error {
		return s.client.RestoreBackup(ctx, name)
	}, KeyConfig, KeyLibraries, KeyRunPlan, KeySchedule, KeyNotifications)
}

func (s *Service) DeleteBackup(ctx context.Context, name string) error {
	return Mutate(ctx, s.cache, func(ctx context.Context) error {
		return s.client.DeleteBackup(ctx, name)
	}, KeyBackups)
}

func (s *Service) Libraries(ctx context.Context) ([]kometa.Library, error) {
	return Get(ctx, s.cache, KeyLibraries, s.client.Libraries)
}

func (s *Service) RunPlan(ctx context.Context) (kometa.RunPlan, error) {
	return Get(ctx, s.cache, KeyRunPlan, s.client.RunPlan)
}

// StartRun starts a dry run.
func (s *Service) StartRun(ctx context.Context, req kometa.RunRequest) (*kometa.Run, error) {
	return Run(ctx, s.cache, func(ctx context.Context) (*kometa.Run, error) {
		return s.client.StartRun(ctx, req)
	}, KeyRun, KeyRuns)
}

// ApplyRun starts a run that writes to the media server.
func (s *Service) ApplyRun(ctx context.Context, req kometa.RunRequest) (*kometa.Run, error) {
	return Run(ctx, s.cache, func(ctx context.Context) (*kometa.Run, error) {
		return s.client.ApplyRun(ctx, req)
	}, KeyRun, KeyRuns)
}

func (s *Service) StopRun(ctx context.Context) error {
	return Mutate(ctx, s.cache, s.client.StopRun, KeyRun, KeyRuns)
}

func (s *Service) Runs(ctx context.Context, limit, offset int) ([]kometa.Run, error) {
	key := Key(KeyRuns, "list", strconv.Itoa(limit), strconv.Itoa(offset))
	return Get(ctx, s.cache, key, func(ctx context.Context) ([]kometa.Run, error) {
		return s.client.Runs(ctx, limit, offset)
	})
}

func (s *Service) RunDiff(ctx context.Context, id string) (*kometa.RunDiff, error) {
	return Get(ctx, s.cache, Key(RunKey(id), "diff"), func(ctx context.Context) (*kometa.RunDiff, error) {
		return s.client.RunDiff(ctx, id)
	})
}

// RunLogs is never cached; logs of an active run keep growing.
func (s *Service) RunLogs(ctx context.Context, id string, tail int) ([]string, error) {
	return s.client.RunLogs(ctx, id, tail)
}

func (s *Service) DeleteRun(ctx context.Context, id string) error {
	return Mutate(ctx, s.cache, func(ctx context.Context) error {
		return s.client.DeleteRun(ctx, id)
	}, KeyRuns)
}

func (s *Service) CollectionFiles(ctx context.Context) ([]kometa.CollectionFile, error) {
	return Get(ctx, s.cache, Key(KeyFiles, "list"), s.client.CollectionFiles)
}

func (s *Service) CollectionFile(ctx context.Context, name string) (*kometa.FileContent, error) {
	return Get(ctx, s.cache, FileKey(name), func(ctx context.Context) (*kometa.FileContent, error) {
		return s.client.CollectionFile(ctx, name)
	})
}

func (s *Service) SaveCollectionFile(ctx context.Context, name, content, fileType string) (*kometa.SaveResult, error) {
	return Run(ctx, s.cache, func(ctx context.Context) (*kometa.SaveResult, error) {
		return s.client.SaveCollectionFile(ctx, name, content, fileType)
	}, KeyFiles, KeyRunPlan, KeyOverlays, KeyPlaylists)
}

func (s *Service) Browse(ctx context.Context, q kometa.BrowseQuery) (*kometa.BrowsePage, error) {
	return Get(ctx, s.cache, BrowseKey(q), func(ctx context.Context) (*kometa.BrowsePage, error) {
		return s.client.BrowseMetadata(ctx, q)
	})
}

// MetadataItem caches one item's full metadata.
func (s *Service) MetadataItem(ctx context.Context, ratingKey string) (*kometa.ItemMetadata, error) {
	return Get(ctx, s.cache, Key(KeyMetadata, "items", ratingKey), func(ctx context.Context) (*kometa.ItemMetadata, error) {
		return s.client.MetadataItem(ctx, ratingKey)
	})
}

func (s *Service) GenerateMetadataYAML(ctx context.Context, items []kometa.MediaItem) (string, error) {
	return s.client.GenerateMetadataYAML(ctx, items)
}

func (s *Service) Overlays(ctx context.Context) (*kometa.OverlaySources, error) {
	return Get(ctx, s.cache, KeyOverlays, s.client.Overlays)
}

func (s *Service) DefaultOverlays(ctx context.Context) ([]kometa.DefaultOverlay, error) {
	return Get(ctx, s.cache, Key(KeyOverlays, "defaults"), s.client.DefaultOverlays)
}

func (s *Service) OverlayImages(ctx context.Context) ([]kometa.OverlayImage, error) {
	return Get(ctx, s.cache, Key(KeyOverlays, "images"), s.client.OverlayImages)
}

// PreviewOverlay is never cached; posters and overlay files change under it.
func (s *Service) PreviewOverlay(ctx context.Context, req kometa.OverlayPreviewRequest) (*kometa.OverlayPreview, error) {
	return s.client.PreviewOverlay(ctx, req)
}

func (s *Service) SchedulerStatus(ctx context.Context) (*kometa.SchedulerStatus, error) {
	return Get(ctx, s.cache, KeyScheduler, s.client.SchedulerStatus)
}

func (s *Service) ConfigureScheduler(ctx context.Context, cfg kometa.SchedulerConfig) (*kometa.SchedulerStatus, error) {
	return Run(ctx, s.cache, func(ctx context.Context) (*kometa.SchedulerStatus, error) {
		return s.client.ConfigureScheduler(ctx, cfg)
	}, KeyScheduler)
}

func (s *Service) StopScheduler(ctx context.Context) (*kometa.SchedulerStatus, error) {
	return Run(ctx, s.cache, s.client.StopScheduler, KeyScheduler)
}

func (s *Service) ScheduleSettings(ctx context.Context) (*kometa.ScheduleSettings, error) {
	return Get(ctx, s.cache, KeySchedule, s.client.ScheduleSettings)
}

func (s *Service) SaveScheduleSettings(ctx context.Context, settings kometa.ScheduleSettings) error {
	return Mutate(ctx, s.cache, func(ctx context.Context) error {
		return s.client.SaveScheduleSettings(ctx, settings)
	}, KeySchedule, KeyConfig, KeyRunPlan)
}

func (s *Service) NotificationSettings(ctx context.Context) (*kometa.NotificationSettings, error) {
	return Get(ctx, s.cache, KeyNotifications, s.client.NotificationSettings)
}

func (s *Service) SaveNotificationSettings(ctx context.Context, settings kometa.NotificationSettings) error {
	return Mutate(ctx, s.cache, func(ctx context.Context) error {
		return s.client.SaveNotificationSettings(ctx, settings)
	}, KeyNotifications, KeyConfig)
}

func (s *Service) Playlists(ctx context.Context) ([]kometa.Playlist, error) {
	return Get(ctx, s.cache, KeyPlaylists, s.client.Playlists)
}

// SavePlaylist writes a new playlist file, which also shows up as a file.
func (s *Service) SavePlaylist(ctx context.Context, p kometa.PlaylistSave) (*kometa.SaveResult, error) {
	return Run(ctx, s.cache, func(ctx context.Context) (*kometa.SaveResult, error) {
		return s.client.SavePlaylist(ctx, p)
	}, KeyPlaylists, KeyFiles)
}

func (s *Service) BuilderSources(ctx context.Context) (map[string]kometa.BuilderSource, error) {
	return Get(ctx, s.cache, KeyBuilders, s.client.BuilderSources)
}

// TestConnection is never cached.
func (s *Service) TestConnection(ctx context.Context, service string, fields map[string]string) (*kometa.TestResult, error) {
	return s.client.TestConnection(ctx, service, fields)
}

func (s *Service) TestWebhook(ctx context.Context, req kometa.WebhookTest) (*kometa.TestResult, error) {
	return s.client.TestWebhook(ctx, req)
}
