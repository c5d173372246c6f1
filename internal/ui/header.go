package ui

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/kometa"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if !m.snapshot.HasHealth {
		return m.renderConnectingHeader(styles, bg)
	}

	content := m.buildStatusContent(styles, bg)
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(content)
}

// renderConnectingHeader shows the connecting/error state before the first
// successful poll.
func (m Model) renderConnectingHeader(styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)

	if m.snapshot.LastError != nil {
		last := "soon"
		if !m.lastUpdated.IsZero() {
			last = m.lastUpdated.Format("15:04:05")
		}
		parts := []string{
			bg.Render("marquee", styles.Logo),
			bg.Render("KOMETA "+classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
			bg.Render(last, styles.MutedText),
		}
		if m.svc != nil {
			parts = append(parts, bg.Render(truncateMiddle(m.svc.Client().BaseURL(), 40), styles.FaintText))
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
	}

	return styles.Header.Width(m.width).Render(
		bg.Render("marquee", styles.Logo) + sep +
			bg.Render("Connecting to Kometa...", styles.WarningText.Bold(true)),
	)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot
	now := m.now()

	var parts []string
	parts = append(parts, bg.Render("marquee", styles.Logo))

	// Connection
	switch {
	case snap.IsOffline():
		parts = append(parts,
			bg.Render("● OFFLINE", styles.DangerText)+bg.Space()+
				bg.Render(classifyConnectionError(snap.LastError), styles.MutedText))
	case strings.EqualFold(snap.Health.Status, "healthy"), snap.Health.Status == "":
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	default:
		parts = append(parts, bg.Render("● "+strings.ToUpper(snap.Health.Status), styles.WarningText))
	}

	// Apply mode
	if snap.Health.ApplyEnabled {
		parts = append(parts, bg.Render("APPLY", styles.DangerText))
	} else {
		parts = append(parts, bg.Render("DRY RUN ONLY", styles.InfoText))
	}

	// Run
	if snap.Running() {
		run := snap.Run
		label := "Running"
		if run.DryRun {
			label = "Dry run"
		}
		elapsed := ""
		if started := run.Started(); !started.IsZero() {
			elapsed = bg.Space() + bg.Render(formatDuration(now.Sub(started)), styles.MutedText)
		}
		parts = append(parts, bg.Render(label, styles.AccentText)+elapsed)
	} else if snap.HasRun && snap.Run.Status != "" && !compact {
		parts = append(parts,
			bg.Render("Last:", styles.MutedText)+bg.Space()+
				bg.Render(snap.Run.Status, lipgloss.NewStyle().
					Foreground(lipgloss.Color(m.theme.StatusColor(snap.Run.Status))).
					Background(lipgloss.Color(m.theme.Surface))))
	}

	// Scheduler
	if snap.HasScheduler && snap.Scheduler.Enabled && !compact {
		next := "-"
		if at := snap.Scheduler.NextRunAt(); !at.IsZero() {
			next = relTime(at, now)
		}
		parts = append(parts,
			bg.Render("Next:", styles.MutedText)+bg.Space()+bg.Render(next, styles.Text))
	}

	if m.editor.dirtyCount() > 0 {
		parts = append(parts, bg.Render("● unsaved", styles.WarningText))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.FaintText))
	}

	return bg.Join(parts, "  ")
}

// formatTimestamp formats the last update time with relative indicator.
func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}
	now := m.now()
	ts := m.lastUpdated.Format("15:04:05")
	if now.Sub(m.lastUpdated) >= 30*time.Second {
		ts += " (" + relTime(m.lastUpdated, now) + ")"
	}
	return ts
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *kometa.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized {
			return "Unauthorized"
		}
		return "Backend error"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Backend not running"
	case strings.Contains(msg, "no such host"):
		return "Host not found"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "Connection timeout"
	default:
		return "Connection error"
	}
}

// errorText is the message shown for a failed request.
func errorText(err error) string {
	var apiErr *kometa.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if c := classifyConnectionError(err); c != "Connection error" && c != "Backend error" {
		return c
	}
	return err.Error()
}

type command struct{ key, desc string }

// renderCommandBar renders the command hints for the active tab.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	commands := m.tabCommands()

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if q := m.activeSearch(); q != "" {
		segments = append(segments, bg.Render("/"+truncate(q, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(truncate(strings.Join(segments, sep), m.width-2))
}

// tabCommands lists the hints for the active tab.
func (m Model) tabCommands() []command {
	switch m.tabs.Active() {
	case tabDashboard:
		cmds := []command{{"r", "Dry run"}, {"a", "Apply"}, {"s", "Stop"}, {"M", "Apply mode"}}
		return append(cmds, command{"?", "More"})
	case tabSettings:
		if m.settings.editing {
			return []command{{"enter", "Set"}, {"esc", "Cancel"}}
		}
		return []command{{"j/k", "Field"}, {"h/l", "Section"}, {"enter", "Edit"}, {"space", "Toggle"}, {"t", "Test"}, {"ctrl+s", "Save"}, {"ctrl+z", "Undo"}, {"?", "More"}}
	case tabEditor:
		if m.editor.focus == editorFocusBuffer {
			return []command{{"esc", "Files"}, {"ctrl+s", "Save"}, {"ctrl+z/y", "Undo/Redo"}}
		}
		return []command{{"enter", "Open"}, {"/", "Filter"}, {"n", "New"}, {"v", "Validate"}, {"b", "Backups"}, {"X", "Discard"}, {"?", "More"}}
	case tabLibrary:
		return []command{{"enter", "Metadata"}, {"space", "Mark"}, {"y", "YAML"}, {"/", "Search"}, {"[/]", "Page"}, {"h/l", "Pane"}, {"?", "More"}}
	case tabOverlays:
		switch m.overlays.section {
		case overlayFiles:
			return []command{{"h/l", "Section"}, {"p", "Preview"}, {"o", "Poster: " + m.overlays.poster()}, {"?", "More"}}
		case overlayBuilders:
			return []command{{"h/l", "Section"}, {"space", "Pick"}, {"n", "New playlist"}, {"?", "More"}}
		case overlayPlaylists:
			return []command{{"h/l", "Section"}, {"n", "New playlist"}, {"?", "More"}}
		}
		return []command{{"h/l", "Section"}, {"j/k", "Navigate"}, {"?", "More"}}
	case tabRuns:
		if m.runs.showLogs {
			follow := "Pause"
			if !m.runs.logs.follow {
				follow = "Follow"
			}
			return []command{{"f", follow}, {"/", "Search"}, {"n/N", "Next/Prev"}, {"esc", "Back"}}
		}
		return []command{{"enter", "Diff"}, {"L", "Logs"}, {"d", "Delete"}, {"[/]", "Page"}, {"?", "More"}}
	case tabScheduler:
		return []command{{"e", "Enable"}, {"x", "Schedule"}, {"D", "Dry-run only"}, {"ctrl+s", "Apply"}, {"S", "Stop"}, {"W", "Write"}, {"space", "Event"}, {"t", "Test hook"}, {"?", "More"}}
	case tabConsole:
		follow := "Pause"
		if !m.console.pane.follow {
			follow = "Follow"
		}
		return []command{{"f", follow}, {"/", "Search"}, {"n/N", "Next/Prev"}, {"?", "More"}}
	}
	return nil
}

// activeSearch returns the search pattern shown in the command bar.
func (m Model) activeSearch() string {
	switch m.tabs.Active() {
	case tabRuns:
		if m.runs.showLogs {
			return m.runs.logs.searchQuery
		}
	case tabConsole:
		return m.console.pane.searchQuery
	case tabLibrary:
		return m.library.query.Search
	case tabEditor:
		return m.editor.filter
	}
	return ""
}
