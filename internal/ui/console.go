package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/logger"
)

// consoleMsg carries the formatted in-process log buffer.
type consoleMsg []string

type consoleState struct {
	pane logPane
}

func newConsoleState() consoleState {
	return consoleState{pane: newLogPane()}
}

func refreshConsoleCmd() tea.Cmd {
	return func() tea.Msg {
		entries := logger.GetLogs()
		lines := make([]string, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, formatConsoleEntry(e))
		}
		return consoleMsg(lines)
	}
}

// formatConsoleEntry renders an entry in the bracketed layout colorizeLogLine
// understands.
func formatConsoleEntry(e logger.Entry) string {
	return fmt.Sprintf("[%s] [%s] | %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Level, e.Message)
}

func (m Model) updateConsole(msg tea.Msg) (tea.Model, tea.Cmd) {
	lines, ok := msg.(consoleMsg)
	if !ok {
		return m, nil
	}
	p := &m.console.pane
	if consoleUnchanged(p.lines, lines) {
		return m, nil
	}
	p.SetLines(lines)
	p.sync(m.theme)
	return m, nil
}

// consoleUnchanged compares lengths and the newest line. The logger drops
// its oldest entries when full, so counts alone miss new lines.
func consoleUnchanged(have, next []string) bool {
	if len(have) != len(next) {
		return false
	}
	return len(have) == 0 || have[len(have)-1] == next[len(next)-1]
}

func (m Model) handleConsoleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, _ := m.console.pane.handleKey(msg, m.keys, m.theme)
	return m, cmd
}

func (m Model) renderConsole(width, height int) string {
	title := fmt.Sprintf("Console · %d lines", len(m.console.pane.lines))
	return m.console.pane.View(m.theme, title, width, height)
}
