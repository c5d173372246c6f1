package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

func TestDialogClosedRendersNothing(t *testing.T) {
	d := newDialog("x", "Confirm", 40).Close()
	if got := d.Render(GetTheme("Nightfox"), "body", 100, 30); got != "" {
		t.Fatalf("closed dialog rendered %q", got)
	}
}

func TestDialogOpenRendersOneFrame(t *testing.T) {
	d := newDialog("x", "Save config.yml", 50)
	out := ansi.Strip(d.Render(GetTheme("Kanagawa"), "line one\nline two", 100, 30))
	if n := strings.Count(out, "┌"); n != 1 {
		t.Fatalf("found %d frames, want 1", n)
	}
	if !strings.Contains(out, "Save config.yml") || !strings.Contains(out, "line two") {
		t.Fatalf("dialog missing title or body:\n%s", out)
	}
}

func TestPromptModalValidates(t *testing.T) {
	keys := DefaultKeyMap()
	var submitted string
	p := newPromptModal("new", "New file", "Name", "", validateNewFilename(nil), func(v string) tea.Cmd {
		submitted = v
		return nil
	})

	p.Update(runes("Movies.txt"), keys)
	if _, _, closed := p.Update(tea.KeyMsg{Type: tea.KeyEnter}, keys); closed {
		t.Fatalf("invalid name closed the prompt")
	}
	if p.err == "" {
		t.Fatalf("invalid name shows no error")
	}
	if submitted != "" {
		t.Fatalf("invalid name was submitted")
	}
}

func TestValidateNewFilename(t *testing.T) {
	existing := []editorFile{{name: "Movies.yml"}}
	check := validateNewFilename(existing)
	for _, bad := range []string{"", "dir/Shows.yml", "Shows.txt", "config.yml", "Movies.yml"} {
		if check(bad) == nil {
			t.Fatalf("validateNewFilename accepted %q", bad)
		}
	}
	for _, good := range []string{"Shows.yml", "Anime.yaml"} {
		if err := check(good); err != nil {
			t.Fatalf("validateNewFilename(%q) = %v", good, err)
		}
	}
}

func TestEditorFilterIsFuzzy(t *testing.T) {
	e := newEditorState()
	e.files = []editorFile{{name: "config.yml"}, {name: "Movies.yml"}, {name: "TV Shows.yml"}}
	e.filter = "mvs"
	vis := e.visible()
	if len(vis) != 1 || vis[0].name != "Movies.yml" {
		t.Fatalf("visible = %+v, want only Movies.yml", vis)
	}
	e.filter = ""
	if len(e.visible()) != 3 {
		t.Fatalf("empty filter hides files")
	}
}
