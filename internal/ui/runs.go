package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/logger"
)

type runsMsg struct {
	offset int
	runs   []kometa.Run
	err    error
}

type runDiffMsg struct {
	run  kometa.Run
	diff *kometa.RunDiff
	err  error
}

type runLogsMsg struct {
	runID string
	lines []string
	err   error
}

type logStreamOpenMsg struct {
	runID  string
	events <-chan kometa.Event
}

type logStreamMsg struct {
	runID  string
	event  kometa.Event
	events <-chan kometa.Event
}

type logStreamClosedMsg struct {
	runID string
	err   error
}

// runsState is the Runs tab: history list plus the run log pane.
type runsState struct {
	runs   []kometa.Run
	err    error
	loaded bool
	cursor int
	offset int

	showLogs   bool
	logRunID   string
	logs       logPane
	streaming  bool
	stopStream context.CancelFunc
	streamErr  error
}

func newRunsState() runsState {
	return runsState{logs: newLogPane()}
}

func (r runsState) selected() (kometa.Run, bool) {
	if r.cursor < 0 || r.cursor >= len(r.runs) {
		return kometa.Run{}, false
	}
	return r.runs[r.cursor], true
}

func (m Model) loadRuns() tea.Cmd {
	svc, offset := m.svc, m.runs.offset
	return load(m.ctx, func(ctx context.Context) ([]kometa.Run, error) {
		return svc.Runs(ctx, RunsPageSize, offset)
	}, func(runs []kometa.Run, err error) tea.Msg {
		return runsMsg{offset: offset, runs: runs, err: err}
	})
}

func (m Model) updateRuns(msg tea.Msg) (tea.Model, tea.Cmd) {
	r := &m.runs
	switch msg := msg.(type) {
	case runsMsg:
		if msg.offset != r.offset {
			return m, nil
		}
		r.loaded = true
		r.err = msg.err
		if msg.err == nil {
			r.runs = msg.runs
		}
		r.cursor = clampIndex(r.cursor, len(r.runs))

	case runDiffMsg:
		if msg.err != nil && !kometa.IsNotFound(msg.err) {
			m.toasts.Error("Load diff failed: " + errorText(msg.err))
			return m, nil
		}
		width := min(m.width-8, 90)
		body := renderMarkdown(runMarkdown(msg.run, m.now())+"\n\n"+diffMarkdown(msg.diff), width)
		m.modal = newTextModal("run-detail", "Run "+shortID(msg.run.ID), body)

	case runLogsMsg:
		if msg.runID != r.logRunID {
			return m, nil
		}
		if msg.err != nil {
			r.logs.SetLines([]string{"Could not load logs: " + errorText(msg.err)})
		} else {
			r.logs.SetLines(msg.lines)
		}
		r.logs.sync(m.theme)
		if m.snapshot.Running() && m.snapshot.Run.RunID == msg.runID && !r.streaming {
			return m, m.followRunLogs(msg.runID)
		}

	case logStreamOpenMsg:
		if msg.runID != r.logRunID || !r.streaming {
			return m, nil
		}
		return m, waitLogEvent(msg.runID, msg.events)

	case logStreamMsg:
		if msg.runID != r.logRunID || !r.streaming {
			return m, nil
		}
		switch msg.event.Type {
		case kometa.EventLog:
			r.logs.Append(msg.event.Line)
		case kometa.EventError:
			r.logs.Append("ERROR " + msg.event.Line)
		}
		r.logs.sync(m.theme)
		return m, waitLogEvent(msg.runID, msg.events)

	case logStreamClosedMsg:
		if msg.runID != r.logRunID {
			return m, nil
		}
		r.streaming = false
		r.streamErr = msg.err
		if msg.err != nil {
			logger.Warn("log stream for %s: %v", msg.runID, msg.err)
		}
	}
	return m, nil
}

// followRunLogs opens the log websocket for the active run.
func (m *Model) followRunLogs(runID string) tea.Cmd {
	m.stopLogStream()
	ctx, cancel := context.WithCancel(m.ctx)
	m.runs.stopStream = cancel
	m.runs.streaming = true
	m.runs.streamErr = nil
	client := m.svc.Client()
	return func() tea.Msg {
		events, err := client.StreamLogs(ctx)
		if err != nil {
			return logStreamClosedMsg{runID: runID, err: err}
		}
		return logStreamOpenMsg{runID: runID, events: events}
	}
}

func (m *Model) stopLogStream() {
	if m.runs.stopStream != nil {
		m.runs.stopStream()
		m.runs.stopStream = nil
	}
	m.runs.streaming = false
}

func waitLogEvent(runID string, events <-chan kometa.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return logStreamClosedMsg{runID: runID}
		}
		return logStreamMsg{runID: runID, event: evt, events: events}
	}
}

func (m Model) handleRunsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r := &m.runs
	if m.svc == nil {
		return m, nil
	}

	if r.showLogs {
		if cmd, handled := r.logs.handleKey(msg, m.keys, m.theme); handled {
			return m, cmd
		}
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Logs) {
			r.showLogs = false
			m.stopLogStream()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		r.cursor = clampIndex(r.cursor-1, len(r.runs))
	case key.Matches(msg, m.keys.Down):
		r.cursor = clampIndex(r.cursor+1, len(r.runs))
	case key.Matches(msg, m.keys.Top):
		r.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		r.cursor = clampIndex(len(r.runs)-1, len(r.runs))

	case key.Matches(msg, m.keys.NextPage):
		if len(r.runs) == RunsPageSize {
			r.offset += RunsPageSize
			r.cursor = 0
			return m, m.loadRuns()
		}
	case key.Matches(msg, m.keys.PrevPage):
		if r.offset > 0 {
			r.offset = max(r.offset-RunsPageSize, 0)
			r.cursor = 0
			return m, m.loadRuns()
		}

	case key.Matches(msg, m.keys.Confirm):
		run, ok := r.selected()
		if !ok {
			return m, nil
		}
		svc := m.svc
		return m, load(m.ctx, func(ctx context.Context) (*kometa.RunDiff, error) {
			return svc.RunDiff(ctx, run.ID)
		}, func(d *kometa.RunDiff, err error) tea.Msg {
			return runDiffMsg{run: run, diff: d, err: err}
		})

	case key.Matches(msg, m.keys.Logs):
		run, ok := r.selected()
		if !ok {
			return m, nil
		}
		m.stopLogStream()
		r.showLogs = true
		r.logRunID = run.ID
		r.logs.Reset()
		r.logs.SetLines([]string{"Loading logs..."})
		r.logs.sync(m.theme)
		svc, tail := m.svc, m.runTail
		return m, load(m.ctx, func(ctx context.Context) ([]string, error) {
			return svc.RunLogs(ctx, run.ID, tail)
		}, func(lines []string, err error) tea.Msg {
			return runLogsMsg{runID: run.ID, lines: lines, err: err}
		})

	case key.Matches(msg, m.keys.Delete):
		run, ok := r.selected()
		if !ok {
			return m, nil
		}
		if m.snapshot.Running() && m.snapshot.Run.RunID == run.ID {
			m.toasts.Warn("Stop the run before deleting it")
			return m, nil
		}
		svc, ctx := m.svc, m.ctx
		m.modal = newConfirmModal("delete-run", "Delete run",
			fmt.Sprintf("Delete run %s and its logs?", shortID(run.ID)), "delete",
			func() tea.Cmd {
				return mutate(ctx, "delete run", "Deleted run "+shortID(run.ID), func(ctx context.Context) error {
					return svc.DeleteRun(ctx, run.ID)
				})
			})
	}
	return m, nil
}

func (m Model) renderRuns(width, height int) string {
	r := m.runs
	if r.showLogs {
		title := "Logs · " + shortID(r.logRunID)
		if r.streaming {
			title += " · live"
		}
		return r.logs.View(m.theme, title, width, height)
	}

	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	now := m.now()
	var lines []string
	switch {
	case !r.loaded:
		lines = append(lines, styles.MutedText.Render("Loading..."))
	case r.err != nil && len(r.runs) == 0:
		lines = append(lines, styles.DangerText.Render(errorText(r.err)))
	case len(r.runs) == 0:
		lines = append(lines, styles.MutedText.Render("No runs yet. Start a dry run from the dashboard."))
	default:
		lines = append(lines, styles.FaintText.Render(fmt.Sprintf("%-10s %-11s %-7s %-16s %-9s %s",
			"ID", "STATUS", "KIND", "STARTED", "DURATION", "LIBRARIES")))
		visible := height - 3
		start := 0
		if r.cursor >= visible {
			start = r.cursor - visible + 1
		}
		for i := start; i < len(r.runs) && i-start < visible; i++ {
			lines = append(lines, m.runRow(r.runs[i], i == r.cursor, width-2, now))
		}
	}
	title := "Runs"
	if r.offset > 0 {
		title += fmt.Sprintf(" · from %d", r.offset+1)
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}

func (m Model) runRow(run kometa.Run, selected bool, width int, now time.Time) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	kind := "apply"
	if run.DryRun {
		kind = "dry"
	}
	libs := strings.Join(run.Libraries, ", ")
	if libs == "" {
		libs = "all"
	}
	if run.RunType != "" {
		libs += " (" + run.RunType + ")"
	}
	started := "—"
	if t := run.Started(); !t.IsZero() {
		started = t.Local().Format("01-02 15:04:05")
	}
	rest := fmt.Sprintf(" %-7s %-16s %-9s %s", kind, started, formatDuration(run.Duration(now)), libs)
	status := padRight(run.Status, 11)
	if selected {
		return styles.Selected.Render(truncate(padRight(shortID(run.ID), 10)+" "+status+rest, width))
	}
	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.StatusColor(run.Status))).
		Background(lipgloss.Color(m.theme.FocusBg))
	return truncate(styles.Text.Render(padRight(shortID(run.ID), 10)+" ")+statusStyle.Render(status)+styles.Text.Render(rest), width)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
