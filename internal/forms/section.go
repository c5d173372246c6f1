// Package forms models config.yml sections as immutable form state driven by
// a pure reducer, and binds that state to the YAML document.
package forms

import "github.com/five82/marquee/internal/connstatus"

// Kind selects how a field is edited and encoded.
type Kind int

const (
	KindText Kind = iota
	KindSecret
	KindURL
	KindBool
	KindInt
	KindChoice
)

// Field is one scalar key of a section.
type Field struct {
	Key      string
	Label    string
	Kind     Kind
	Default  string
	Choices  []string
	Help     string
	TestKey  string // request field for connection tests; empty if not sent
	Required bool   // required to run a connection test
}

// Section is a top-level config.yml block.
type Section struct {
	ID      string
	Title   string
	Path    []string
	Fields  []Field
	Service connstatus.Service // empty when the section has no connection test
}

// Field returns the field with key.
func (s Section) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Testable reports whether the section supports a connection test.
func (s Section) Testable() bool {
	return s.Service != ""
}

var (
	boolChoices = []string{"true", "false"}
)

func urlField(label string) Field {
	return Field{Key: "url", Label: label, Kind: KindURL, TestKey: "url", Required: true}
}

func tokenField(label string) Field {
	return Field{Key: "token", Label: label, Kind: KindSecret, TestKey: "token", Required: true}
}

func apikeyField() Field {
	return Field{Key: "apikey", Label: "API Key", Kind: KindSecret, TestKey: "apikey", Required: true}
}

func boolField(key, label, def string) Field {
	return Field{Key: key, Label: label, Kind: KindBool, Default: def}
}

func intField(key, label, def string) Field {
	return Field{Key: key, Label: label, Kind: KindInt, Default: def}
}

func cacheExpiration() Field {
	return intField("cache_expiration", "Cache Expiration (days)", "60")
}

var catalog = []Section{
	{
		ID: "plex", Title: "Plex", Path: []string{"plex"}, Service: connstatus.Plex,
		Fields: []Field{
			urlField("Server URL"),
			tokenField("Token"),
			intField("timeout", "Timeout (s)", "60"),
			boolField("db_cache", "DB Cache", "false"),
			boolField("clean_bundles", "Clean Bundles", "false"),
			boolField("empty_trash", "Empty Trash", "false"),
			boolField("optimize", "Optimize", "false"),
			boolField("verify_ssl", "Verify SSL", "true"),
		},
	},
	{
		ID: "tmdb", Title: "TMDb", Path: []string{"tmdb"}, Service: connstatus.TMDb,
		Fields: []Field{
			apikeyField(),
			{Key: "language", Label: "Language", Kind: KindText, Default: "en"},
			{Key: "region", Label: "Region", Kind: KindText},
			cacheExpiration(),
		},
	},
	{
		ID: "radarr", Title: "Radarr", Path: []string{"radarr"}, Service: connstatus.Radarr,
		Fields: []Field{
			urlField("URL"),
			tokenField("API Token"),
			boolField("add_missing", "Add Missing", "false"),
			boolField("add_existing", "Add Existing", "false"),
			{Key: "root_folder_path", Label: "Root Folder", Kind: KindText},
			{Key: "monitor", Label: "Monitor", Kind: KindBool, Default: "true"},
			{Key: "availability", Label: "Availability", Kind: KindChoice, Default: "announced",
				Choices: []string{"announced", "cinemas", "released", "db"}},
			{Key: "quality_profile", Label: "Quality Profile", Kind: KindText},
			{Key: "tag", Label: "Tag", Kind: KindText},
			boolField("search", "Search", "false"),
		},
	},
	{
		ID: "sonarr", Title: "Sonarr", Path: []string{"sonarr"}, Service: connstatus.Sonarr,
		Fields: []Field{
			urlField("URL"),
			tokenField("API Token"),
			boolField("add_missing", "Add Missing", "false"),
			boolField("add_existing", "Add Existing", "false"),
			{Key: "root_folder_path", Label: "Root Folder", Kind: KindText},
			{Key: "monitor", Label: "Monitor", Kind: KindChoice, Default: "all",
				Choices: []string{"all", "future", "missing", "existing", "pilot", "first", "latest", "none"}},
			{Key: "quality_profile", Label: "Quality Profile", Kind: KindText},
			{Key: "series_type", Label: "Series Type", Kind: KindChoice, Default: "standard",
				Choices: []string{"standard", "daily", "anime"}},
			boolField("season_folder", "Season Folder", "true"),
			{Key: "tag", Label: "Tag", Kind: KindText},
			boolField("search", "Search", "false"),
		},
	},
	{
		ID: "tautulli", Title: "Tautulli", Path: []string{"tautulli"}, Service: connstatus.Tautulli,
		Fields: []Field{urlField("URL"), apikeyField()},
	},
	{
		ID: "mdblist", Title: "MDBList", Path: []string{"mdblist"}, Service: connstatus.MDBList,
		Fields: []Field{apikeyField(), cacheExpiration()},
	},
	{
		ID: "omdb", Title: "OMDb", Path: []string{"omdb"}, Service: connstatus.OMDb,
		Fields: []Field{apikeyField(), cacheExpiration()},
	},
	{
		ID: "trakt", Title: "Trakt", Path: []string{"trakt"}, Service: connstatus.Trakt,
		Fields: []Field{
			{Key: "client_id", Label: "Client ID", Kind: KindSecret, TestKey: "client_id", Required: true},
			{Key: "client_secret", Label: "Client Secret", Kind: KindSecret, TestKey: "client_secret"},
			{Key: "pin", Label: "PIN", Kind: KindText},
		},
	},
	{
		ID: "mal", Title: "MyAnimeList", Path: []string{"mal"}, Service: connstatus.MAL,
		Fields: []Field{
			{Key: "client_id", Label: "Client ID", Kind: KindSecret, TestKey: "client_id", Required: true},
			{Key: "client_secret", Label: "Client Secret", Kind: KindSecret},
			{Key: "localhost_url", Label: "Localhost URL", Kind: KindURL},
		},
	},
	{
		ID: "anidb", Title: "AniDB", Path: []string{"anidb"}, Service: connstatus.AniDB,
		Fields: []Field{
			{Key: "username", Label: "Username", Kind: KindText},
			{Key: "password", Label: "Password", Kind: KindSecret},
			{Key: "client", Label: "Client Name", Kind: KindText, TestKey: "client", Required: true,
				Help: "Lowercase client name registered with AniDB"},
			{Key: "version", Label: "Client Version", Kind: KindInt, TestKey: "version", Required: true},
			{Key: "language", Label: "Language", Kind: KindText, Default: "en"},
		},
	},
	{
		ID: "github", Title: "GitHub", Path: []string{"github"}, Service: connstatus.GitHub,
		Fields: []Field{tokenField("Personal Access Token")},
	},
	{
		ID: "notifiarr", Title: "Notifiarr", Path: []string{"notifiarr"}, Service: connstatus.Notifiarr,
		Fields: []Field{apikeyField()},
	},
	{
		ID: "gotify", Title: "Gotify", Path: []string{"gotify"}, Service: connstatus.Gotify,
		Fields: []Field{urlField("URL"), tokenField("App Token")},
	},
	{
		ID: "ntfy", Title: "ntfy", Path: []string{"ntfy"}, Service: connstatus.Ntfy,
		Fields: []Field{
			urlField("URL"),
			{Key: "topic", Label: "Topic", Kind: KindText, TestKey: "topic", Required: true},
			{Key: "token", Label: "Access Token", Kind: KindSecret},
		},
	},
	{
		ID: "webhooks", Title: "Webhooks", Path: []string{"webhooks"}, Service: connstatus.Webhook,
		Fields: []Field{
			{Key: "error", Label: "Error", Kind: KindText, Help: "URL or notifiarr/gotify/ntfy"},
			{Key: "version", Label: "Version", Kind: KindText},
			{Key: "run_start", Label: "Run Start", Kind: KindText},
			{Key: "run_end", Label: "Run End", Kind: KindText},
			{Key: "changes", Label: "Changes", Kind: KindText},
			{Key: "delete", Label: "Delete", Kind: KindText},
		},
	},
	{
		ID: "settings", Title: "Settings", Path: []string{"settings"},
		Fields: []Field{
			boolField("cache", "Cache", "true"),
			intField("cache_expiration", "Cache Expiration (days)", "60"),
			intField("run_again_delay", "Run Again Delay", "2"),
			boolField("missing_only_released", "Missing Only Released", "false"),
			boolField("show_unmanaged", "Show Unmanaged", "true"),
			boolField("show_filtered", "Show Filtered", "false"),
			boolField("show_missing", "Show Missing", "true"),
			boolField("save_report", "Save Report", "false"),
			{Key: "sync_mode", Label: "Sync Mode", Kind: KindChoice, Default: "append",
				Choices: []string{"append", "sync"}},
			intField("minimum_items", "Minimum Items", "1"),
			boolField("delete_below_minimum", "Delete Below Minimum", "true"),
			intField("item_refresh_delay", "Item Refresh Delay", "0"),
			boolField("playlist_report", "Playlist Report", "false"),
			boolField("verify_ssl", "Verify SSL", "true"),
		},
	},
}

// Catalog returns every section in display order.
func Catalog() []Section {
	out := make([]Section, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the section with id.
func Lookup(id string) (Section, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}
