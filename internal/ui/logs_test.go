package ui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/logger"
)

func TestLogPaneSearchAndStep(t *testing.T) {
	theme := GetTheme("Nightfox")
	keys := DefaultKeyMap()
	p := newLogPane()
	p.resize(80, 10)
	p.SetLines([]string{
		"[2024-05-01 10:00:00,123] [meta.py:512] [INFO] | Processing Movies |",
		"[2024-05-01 10:00:01,000] [meta.py:520] [ERROR] | Plex timeout |",
		"[2024-05-01 10:00:02,000] [meta.py:530] [INFO] | Processing Shows |",
	})

	if _, handled := p.handleKey(runes("/"), keys, theme); !handled || !p.searchActive {
		t.Fatalf("/ did not start a search")
	}
	p.handleKey(runes("processing"), keys, theme)
	p.handleKey(tea.KeyMsg{Type: tea.KeyEnter}, keys, theme)

	if p.searchActive {
		t.Fatalf("search input still active after enter")
	}
	if len(p.searchMatches) != 2 || p.searchMatches[0] != 0 || p.searchMatches[1] != 2 {
		t.Fatalf("matches = %v, want [0 2] (case-insensitive)", p.searchMatches)
	}

	p.handleKey(runes("n"), keys, theme)
	if p.searchMatchIdx != 1 {
		t.Fatalf("n moved to %d, want 1", p.searchMatchIdx)
	}
	p.handleKey(runes("n"), keys, theme)
	if p.searchMatchIdx != 0 {
		t.Fatalf("n did not wrap, idx = %d", p.searchMatchIdx)
	}

	if _, handled := p.handleKey(tea.KeyMsg{Type: tea.KeyEsc}, keys, theme); !handled || p.searchRegex != nil {
		t.Fatalf("esc did not clear the search")
	}
	if _, handled := p.handleKey(tea.KeyMsg{Type: tea.KeyEsc}, keys, theme); handled {
		t.Fatalf("esc without a search should fall through to the view")
	}
}

func TestLogPaneInvalidPatternKeepsInput(t *testing.T) {
	theme := GetTheme("Nightfox")
	keys := DefaultKeyMap()
	p := newLogPane()
	p.SetLines([]string{"a", "b"})
	p.handleKey(runes("/"), keys, theme)
	p.handleKey(runes("(unclosed"), keys, theme)
	p.handleKey(tea.KeyMsg{Type: tea.KeyEnter}, keys, theme)
	if !p.searchActive || p.searchErr == "" {
		t.Fatalf("invalid pattern accepted: active=%v err=%q", p.searchActive, p.searchErr)
	}
}

func TestLogPaneAppendTrims(t *testing.T) {
	p := newLogPane()
	lines := make([]string, LogBufferLimit)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	p.SetLines(lines)
	p.Append("newest")
	if len(p.lines) != LogBufferLimit {
		t.Fatalf("len = %d, want %d", len(p.lines), LogBufferLimit)
	}
	if p.lines[0] != "line 1" || p.lines[len(p.lines)-1] != "newest" {
		t.Fatalf("buffer window = %q..%q", p.lines[0], p.lines[len(p.lines)-1])
	}
}

func TestColorizeLogLineStripsSourceAndPipes(t *testing.T) {
	theme := GetTheme("Nightfox")
	styles := theme.Styles().WithBackground(theme.FocusBg)
	bg := NewBgStyle(theme.FocusBg)

	got := ansi.Strip(colorizeLogLine("[2024-05-01 10:00:00,123] [meta.py:512] [INFO] | Processing Movies |", styles, bg))
	if got != "2024-05-01 10:00:00 INFO Processing Movies" {
		t.Fatalf("colorized = %q", got)
	}
	if got := colorizeLogLine("   ", styles, bg); got != "   " {
		t.Fatalf("blank line changed to %q", got)
	}
	entry := logger.Entry{Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Level: logger.LevelWarn, Message: "slow poll"}
	got = ansi.Strip(colorizeLogLine(formatConsoleEntry(entry), styles, bg))
	if got != "2024-05-01 10:00:00 WARN slow poll" {
		t.Fatalf("console entry colorized = %q", got)
	}
}

func TestConsoleUnchanged(t *testing.T) {
	if !consoleUnchanged(nil, nil) {
		t.Fatalf("empty buffers differ")
	}
	if consoleUnchanged([]string{"a", "b"}, []string{"b", "c"}) {
		t.Fatalf("shifted buffer reported unchanged")
	}
	if consoleUnchanged([]string{"a"}, []string{"a", "b"}) {
		t.Fatalf("grown buffer reported unchanged")
	}
}

func TestClassifyConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&kometa.APIError{Status: 401}, "Unauthorized"},
		{fmt.Errorf("get health: %w", &kometa.APIError{Status: 500}), "Backend error"},
		{errors.New("dial tcp 127.0.0.1:8080: connect: connection refused"), "Backend not running"},
		{errors.New("dial tcp: lookup kometa.lan: no such host"), "Host not found"},
		{errors.New("context deadline exceeded"), "Connection timeout"},
		{errors.New("EOF"), "Connection error"},
	}
	for _, tt := range tests {
		if got := classifyConnectionError(tt.err); got != tt.want {
			t.Fatalf("classifyConnectionError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorText(t *testing.T) {
	if got := errorText(&kometa.APIError{Status: 422, Detail: "invalid yaml"}); got != "invalid yaml" {
		t.Fatalf("errorText(detail) = %q", got)
	}
	if got := errorText(errors.New("connection refused")); got != "Backend not running" {
		t.Fatalf("errorText(refused) = %q", got)
	}
	if got := errorText(errors.New("boom")); got != "boom" {
		t.Fatalf("errorText(plain) = %q", got)
	}
}
