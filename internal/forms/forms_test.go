package forms

import (
	"strings"
	"testing"
)

const sampleConfig = `# Kometa config
libraries:
  Movies:
    collection_files:
      - file: config/Movies.yml
      - default: imdb
    overlay_files:
      - default: ribbon
  TV Shows:
    operations:
      mass_genre_update: tmdb
plex:
  url: http://192.168.1.12:32400 # local server
  token: abc123
  timeout: 60
  verify_ssl: true
tmdb:
  apikey: "12345"
settings:
  sync_mode: append
`

func mustSection(t *testing.T, id string) Section {
	t.Helper()
	sec, ok := Lookup(id)
	if !ok {
		t.Fatalf("section %q missing from catalog", id)
	}
	return sec
}

func TestCatalogOrderAndServices(t *testing.T) {
	want := []string{"plex", "tmdb", "radarr", "sonarr", "tautulli", "mdblist", "omdb", "trakt",
		"mal", "anidb", "github", "notifiarr", "gotify", "ntfy", "webhooks", "settings"}
	got := Catalog()
	if len(got) != len(want) {
		t.Fatalf("catalog has %d sections, want %d", len(got), len(want))
	}
	for i, sec := range got {
		if sec.ID != want[i] {
			t.Fatalf("section %d = %q, want %q", i, sec.ID, want[i])
		}
		if sec.ID != "settings" && !sec.Testable() {
			t.Fatalf("section %q has no connection-status service", sec.ID)
		}
	}
}

func TestReduceIsPure(t *testing.T) {
	sec := mustSection(t, "plex")
	st := NewState(map[string]string{"url": "http://a"})

	next := Reduce(sec, st, SetField{Key: "url", Value: "http://b"})
	if st.Value("url") != "http://a" {
		t.Fatalf("original state mutated: %q", st.Value("url"))
	}
	if next.Value("url") != "http://b" || !next.Dirty() {
		t.Fatalf("next = %q dirty=%v", next.Value("url"), next.Dirty())
	}
	if st.Dirty() {
		t.Fatalf("original state became dirty")
	}
}

func TestReduceIgnoresUnknownKeys(t *testing.T) {
	sec := mustSection(t, "plex")
	st := NewState(nil)
	if next := Reduce(sec, st, SetField{Key: "nope", Value: "x"}); next.Dirty() {
		t.Fatalf("unknown key changed state")
	}
}

func TestReduceToggle(t *testing.T) {
	plex := mustSection(t, "plex")
	st := Reduce(plex, NewState(nil), ToggleField{Key: "verify_ssl"})
	if got := st.Value("verify_ssl"); got != "false" {
		t.Fatalf("toggle default true -> %q, want false", got)
	}
	st = Reduce(plex, st, ToggleField{Key: "verify_ssl"})
	if got := st.Value("verify_ssl"); got != "true" {
		t.Fatalf("second toggle -> %q, want true", got)
	}

	settings := mustSection(t, "settings")
	st = Reduce(settings, NewState(map[string]string{"sync_mode": "sync"}), ToggleField{Key: "sync_mode"})
	if got := st.Value("sync_mode"); got != "append" {
		t.Fatalf("choice cycle wrapped to %q, want append", got)
	}

	if next := Reduce(plex, st, ToggleField{Key: "url"}); next.Value("url") != "" {
		t.Fatalf("toggle on text field changed value")
	}
}

func TestReduceResetAndMarkSaved(t *testing.T) {
	sec := mustSection(t, "tmdb")
	st := NewState(map[string]string{"apikey": "old"})
	st = Reduce(sec, st, SetField{Key: "apikey", Value: "new"})
	st = Reduce(sec, st, SetField{Key: "region", Value: "US"})
	if keys := st.DirtyKeys(); strings.Join(keys, ",") != "apikey,region" {
		t.Fatalf("dirty keys = %v", keys)
	}

	st = Reduce(sec, st, ResetField{Key: "region"})
	if st.Value("region") != "" {
		t.Fatalf("reset left region = %q", st.Value("region"))
	}
	st = Reduce(sec, st, MarkSaved{})
	if st.Dirty() {
		t.Fatalf("state dirty after MarkSaved")
	}
	st = Reduce(sec, st, ResetField{Key: "apikey"})
	if st.Value("apikey") != "new" {
		t.Fatalf("reset after save restored %q, want new", st.Value("apikey"))
	}
}

func TestReduceRestoreKeepsBaseline(t *testing.T) {
	sec := mustSection(t, "tmdb")
	st := NewState(map[string]string{"apikey": "saved"})
	edited := Reduce(sec, st, SetField{Key: "apikey", Value: "typed"})

	back := Reduce(sec, edited, Restore{Values: st.Values()})
	if back.Value("apikey") != "saved" || back.Dirty() {
		t.Fatalf("restore to baseline = %q dirty=%v", back.Value("apikey"), back.Dirty())
	}
	forward := Reduce(sec, back, Restore{Values: map[string]string{"apikey": "typed", "bogus": "x"}})
	if forward.Value("apikey") != "typed" || !forward.Dirty() {
		t.Fatalf("restore forward = %q dirty=%v", forward.Value("apikey"), forward.Dirty())
	}
	if _, ok := forward.Values()["bogus"]; ok {
		t.Fatalf("restore kept unknown key")
	}
}

func TestValidate(t *testing.T) {
	sec := mustSection(t, "plex")
	st := NewState(map[string]string{"url": "192.168.1.12", "timeout": "soon", "verify_ssl": "maybe"})
	errs := Validate(sec, st)
	for _, key := range []string{"url", "timeout", "verify_ssl"} {
		if errs[key] == "" {
			t.Fatalf("expected error for %s, got %v", key, errs)
		}
	}
	ok := NewState(map[string]string{"url": "http://plex:32400", "timeout": "30"})
	if errs := Validate(sec, ok); len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
}

func TestDocumentReadApplyPreservesComments(t *testing.T) {
	doc, err := Parse(sampleConfig)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	plex := mustSection(t, "plex")
	st := doc.Read(plex)
	if st.Value("url") != "http://192.168.1.12:32400" || st.Value("token") != "abc123" {
		t.Fatalf("read plex = %v", st.Values())
	}
	if st.Dirty() {
		t.Fatalf("freshly read state is dirty")
	}

	st = Reduce(plex, st, SetField{Key: "token", Value: "xyz789"})
	st = Reduce(plex, st, ToggleField{Key: "db_cache"})
	if err := doc.Apply(plex, st); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	tmdb := mustSection(t, "tmdb")
	tst := Reduce(tmdb, doc.Read(tmdb), SetField{Key: "apikey", Value: "67890"})
	if err := doc.Apply(tmdb, tst); err != nil {
		t.Fatalf("Apply tmdb: %v", err)
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	text := string(out)
	for _, want := range []string{"# Kometa config", "# local server", "token: xyz789", "db_cache: true", `apikey: "67890"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "libraries:") > strings.Index(text, "plex:") {
		t.Fatalf("key order changed:\n%s", text)
	}

	again, err := Parse(text)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if got := again.Read(tmdb).Value("apikey"); got != "67890" {
		t.Fatalf("apikey round trip = %q", got)
	}
}

func TestDocumentApplyCreatesSection(t *testing.T) {
	doc, err := Parse("")
	if err != nil {
		t.Fatalf("Parse empty: %v", err)
	}
	sec := mustSection(t, "gotify")
	st := Reduce(sec, NewState(nil), SetField{Key: "url", Value: "http://gotify:80"})
	if err := doc.Apply(sec, st); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	out, _ := doc.Bytes()
	if !strings.Contains(string(out), "gotify:\n  url: http://gotify:80") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(string(out), "token") {
		t.Fatalf("unset key written:\n%s", out)
	}
}

func TestDocumentApplyRejectsNonMapping(t *testing.T) {
	doc, err := Parse("plex:\n  - a\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sec := mustSection(t, "plex")
	if err := doc.Apply(sec, NewState(map[string]string{"url": "http://x"})); err == nil {
		t.Fatalf("Apply over a list returned nil error")
	}
}

func TestParseRejectsScalarTopLevel(t *testing.T) {
	if _, err := Parse("just a string"); err == nil {
		t.Fatalf("Parse accepted scalar document")
	}
}

func TestLibraries(t *testing.T) {
	doc, err := Parse(sampleConfig)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	libs := doc.Libraries()
	if len(libs) != 2 {
		t.Fatalf("libraries = %d, want 2", len(libs))
	}
	if libs[0].Name != "Movies" || len(libs[0].CollectionFiles) != 2 || libs[0].CollectionFiles[0] != "file: config/Movies.yml" {
		t.Fatalf("movies = %+v", libs[0])
	}
	if libs[1].Name != "TV Shows" || !libs[1].Operations || len(libs[1].OverlayFiles) != 0 {
		t.Fatalf("tv = %+v", libs[1])
	}
}

func TestTestPayload(t *testing.T) {
	sec := mustSection(t, "plex")
	if _, err := TestPayload(sec, NewState(map[string]string{"url": "http://plex"})); err == nil {
		t.Fatalf("missing token accepted")
	}
	payload, err := TestPayload(sec, NewState(map[string]string{"url": "http://plex:32400/", "token": "t", "timeout": "5"}))
	if err != nil {
		t.Fatalf("TestPayload: %v", err)
	}
	if payload["url"] != "http://plex:32400" || payload["token"] != "t" || len(payload) != 2 {
		t.Fatalf("payload = %v", payload)
	}

	trakt := mustSection(t, "trakt")
	payload, err = TestPayload(trakt, NewState(map[string]string{"client_id": "cid"}))
	if err != nil || payload["client_id"] != "cid" {
		t.Fatalf("trakt payload = %v, %v", payload, err)
	}

	if _, err := TestPayload(mustSection(t, "settings"), NewState(nil)); err == nil {
		t.Fatalf("settings accepted a connection test")
	}
}

func TestMask(t *testing.T) {
	if got := Mask("abcdefgh"); got != "••••efgh" {
		t.Fatalf("Mask = %q", got)
	}
	if got := Mask("abc"); got != "•••" {
		t.Fatalf("Mask short = %q", got)
	}
}
