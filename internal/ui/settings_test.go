package ui

import (
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/kometa"
)

const plexConfig = "plex:\n  url: http://old:32400\n  token: abc\nlibraries:\n  Movies:\n    collection_files:\n      - default: imdb\n"

func settingsModel(t *testing.T) Model {
	t.Helper()
	m := newTestModel(t, http.NotFoundHandler())
	m, _ = send(t, m, runes("2"), settingsConfigMsg{cfg: &kometa.ConfigFile{Exists: true, Content: plexConfig}})
	if m.tabs.Active() != tabSettings {
		t.Fatalf("active tab = %v, want Settings", m.tabs.Active())
	}
	return m
}

func TestSettingsEditUndoRedo(t *testing.T) {
	m := settingsModel(t)
	if got := m.settings.state("plex").Value("url"); got != "http://old:32400" {
		t.Fatalf("loaded url = %q", got)
	}

	m, _ = send(t, m,
		tea.KeyMsg{Type: tea.KeyEnter},
		tea.KeyMsg{Type: tea.KeyCtrlU},
		runes("http://new:32400"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	st := m.settings.state("plex")
	if st.Value("url") != "http://new:32400" || !st.Dirty() {
		t.Fatalf("after edit url=%q dirty=%v", st.Value("url"), st.Dirty())
	}
	if m.editor.dirtyCount() != 0 {
		t.Fatalf("settings edits leaked into the editor")
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	st = m.settings.state("plex")
	if st.Value("url") != "http://old:32400" || st.Dirty() {
		t.Fatalf("after undo url=%q dirty=%v", st.Value("url"), st.Dirty())
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if got := m.settings.state("plex").Value("url"); got != "http://new:32400" {
		t.Fatalf("after redo url = %q", got)
	}
}

func TestSettingsEscCancelsEdit(t *testing.T) {
	m := settingsModel(t)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("garbage"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.settings.editing {
		t.Fatalf("esc left edit mode on")
	}
	if m.settings.state("plex").Dirty() {
		t.Fatalf("cancelled edit changed the state")
	}
}

func TestSettingsEditingCapturesGlobalKeys(t *testing.T) {
	m := settingsModel(t)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("3"))
	if m.tabs.Active() != tabSettings {
		t.Fatalf("typing a digit while editing switched tabs")
	}
	if !strings.HasSuffix(m.settings.input.Value(), "3") {
		t.Fatalf("digit did not reach the input: %q", m.settings.input.Value())
	}
}

func TestSettingsSaveWithoutChanges(t *testing.T) {
	m := settingsModel(t)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.modal != nil || cmd != nil {
		t.Fatalf("saving a clean form opened a modal or issued a command")
	}
}

func TestSettingsReadsLibraries(t *testing.T) {
	m := settingsModel(t)
	if len(m.settings.libraries) != 1 || m.settings.libraries[0].Name != "Movies" {
		t.Fatalf("libraries = %+v", m.settings.libraries)
	}
}
