package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// logPane is a scrollable, searchable log buffer. Run logs and the console
// both render through it.
type logPane struct {
	lines  []string
	follow bool
	vp     viewport.Model
	theme  string

	// Search
	searchActive   bool
	searchQuery    string
	searchRegex    *regexp.Regexp
	searchInput    textinput.Model
	searchMatches  []int // Line indices that match
	searchMatchIdx int   // Current match index
	searchErr      string

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

func newLogPane() logPane {
	ti := textinput.New()
	ti.Placeholder = "Search logs..."
	ti.CharLimit = 100
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle()
	return logPane{follow: true, vp: vp, searchInput: ti}
}

func (p *logPane) resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	p.vp.Width = width
	p.vp.Height = height
	p.contentVersion++
}

// SetLines replaces the buffer.
func (p *logPane) SetLines(lines []string) {
	p.lines = trimLogBuffer(lines, LogBufferLimit)
	p.refreshMatches()
	p.contentVersion++
}

// Append adds lines to the end of the buffer.
func (p *logPane) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	p.lines = trimLogBuffer(append(p.lines, lines...), LogBufferLimit)
	p.refreshMatches()
	p.contentVersion++
}

// Reset clears the buffer and search.
func (p *logPane) Reset() {
	p.lines = nil
	p.follow = true
	p.clearSearch()
}

// sync re-renders the viewport content when the buffer, search or theme
// changed since the last render.
func (p *logPane) sync(theme Theme) {
	if theme.Name != p.theme {
		p.theme = theme.Name
		p.contentVersion++
	}
	if p.lastRendered == 0 || p.contentVersion != p.lastRendered {
		p.vp.Style = lipgloss.NewStyle().Background(lipgloss.Color(theme.FocusBg))
		p.vp.SetContent(p.renderContent(theme))
		p.lastRendered = p.contentVersion
		if p.lastRendered == 0 {
			p.lastRendered = 1
		}
	}
	if p.follow {
		p.vp.GotoBottom()
	}
}

// handleKey processes keyboard input. It reports whether the key was used.
func (p *logPane) handleKey(msg tea.KeyMsg, keys keyMap, theme Theme) (tea.Cmd, bool) {
	if p.searchActive {
		return p.handleSearchInput(msg, keys, theme), true
	}

	handled := true
	switch {
	case key.Matches(msg, keys.ToggleFollow):
		p.follow = !p.follow

	case key.Matches(msg, keys.Search):
		p.searchActive = true
		p.searchErr = ""
		p.searchInput.SetValue("")
		p.searchInput.Focus()
		return textinput.Blink, true

	case key.Matches(msg, keys.NextMatch):
		p.stepMatch(1)

	case key.Matches(msg, keys.PrevMatch):
		p.stepMatch(-1)

	case key.Matches(msg, keys.Escape):
		if p.searchRegex == nil {
			return nil, false
		}
		p.clearSearch()

	case key.Matches(msg, keys.Top):
		p.vp.GotoTop()
		p.follow = false

	case key.Matches(msg, keys.Bottom):
		p.vp.GotoBottom()
		p.follow = true

	case key.Matches(msg, keys.Down):
		p.vp.ScrollDown(1)
		p.follow = false

	case key.Matches(msg, keys.Up):
		p.vp.ScrollUp(1)
		p.follow = false

	case key.Matches(msg, keys.HalfPageDown):
		p.vp.HalfPageDown()
		p.follow = false

	case key.Matches(msg, keys.HalfPageUp):
		p.vp.HalfPageUp()
		p.follow = false

	case key.Matches(msg, keys.PageDown):
		p.vp.PageDown()
		p.follow = false

	case key.Matches(msg, keys.PageUp):
		p.vp.PageUp()
		p.follow = false

	default:
		handled = false
	}
	if handled {
		p.sync(theme)
	}
	return nil, handled
}

func (p *logPane) handleSearchInput(msg tea.KeyMsg, keys keyMap, theme Theme) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Confirm):
		query := p.searchInput.Value()
		if query == "" {
			p.searchActive = false
			p.searchInput.Blur()
			return nil
		}
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			// Invalid regex - stay in search mode
			p.searchErr = "invalid pattern"
			return nil
		}
		p.searchRegex = re
		p.searchQuery = query
		p.searchActive = false
		p.searchErr = ""
		p.searchInput.Blur()
		p.refreshMatches()
		if len(p.searchMatches) > 0 {
			p.searchMatchIdx = 0
			p.scrollToMatch()
		}
		p.contentVersion++
		p.sync(theme)
		return nil

	case key.Matches(msg, keys.Escape):
		p.searchActive = false
		p.searchErr = ""
		p.searchInput.Blur()
		p.searchInput.SetValue("")
		return nil
	}

	var cmd tea.Cmd
	p.searchInput, cmd = p.searchInput.Update(msg)
	return cmd
}

func (p *logPane) clearSearch() {
	p.searchRegex = nil
	p.searchQuery = ""
	p.searchMatches = nil
	p.searchMatchIdx = 0
	p.contentVersion++
}

func (p *logPane) refreshMatches() {
	p.searchMatches = nil
	if p.searchRegex == nil {
		return
	}
	for i, line := range p.lines {
		if p.searchRegex.MatchString(line) {
			p.searchMatches = append(p.searchMatches, i)
		}
	}
	if p.searchMatchIdx >= len(p.searchMatches) {
		p.searchMatchIdx = 0
	}
}

func (p *logPane) stepMatch(dir int) {
	n := len(p.searchMatches)
	if n == 0 {
		return
	}
	p.searchMatchIdx = (p.searchMatchIdx + dir + n) % n
	p.contentVersion++
	p.scrollToMatch()
}

// scrollToMatch centers the current match when possible.
func (p *logPane) scrollToMatch() {
	if p.searchMatchIdx >= len(p.searchMatches) {
		return
	}
	target := p.searchMatches[p.searchMatchIdx]
	p.follow = false
	p.vp.SetYOffset(max(target-p.vp.Height/2, 0))
}

// View renders the pane in a titled box with a status line below.
func (p logPane) View(theme Theme, title string, width, height int) string {
	box := renderTitledBox(theme, title, p.vp.View(), width, height-1, true)
	return box + "\n" + p.renderStatus(theme)
}

func (p logPane) renderStatus(theme Theme) string {
	styles := theme.Styles().WithBackground(theme.FocusBg)
	bg := NewBgStyle(theme.FocusBg)

	if p.searchActive {
		line := bg.Render("search: ", styles.AccentText) + p.searchInput.View()
		if p.searchErr != "" {
			line += bg.Space() + bg.Render(p.searchErr, styles.DangerText)
		}
		return line
	}

	if p.searchRegex != nil {
		if len(p.searchMatches) == 0 {
			return bg.Render("Pattern not found: "+p.searchQuery, styles.DangerText)
		}
		return bg.Render("/"+p.searchQuery, styles.AccentText) +
			bg.Render(" - ", styles.FaintText) +
			bg.Render(fmt.Sprintf("%d/%d", p.searchMatchIdx+1, len(p.searchMatches)), styles.WarningText) +
			bg.Render(" - Press ", styles.FaintText) +
			bg.Render("n", styles.AccentText) +
			bg.Render(" for next, ", styles.FaintText) +
			bg.Render("N", styles.AccentText) +
			bg.Render(" for previous, ", styles.FaintText) +
			bg.Render("Esc", styles.AccentText) +
			bg.Render(" to clear", styles.FaintText)
	}

	autoTail := "off"
	if p.follow {
		autoTail = "on"
	}
	return bg.Render(fmt.Sprintf("%s lines  auto-tail %s", count(len(p.lines)), autoTail), styles.FaintText)
}

// renderContent renders the colorized log lines.
func (p *logPane) renderContent(theme Theme) string {
	bg := NewBgStyle(theme.FocusBg)
	styles := theme.Styles()
	width := p.vp.Width

	if len(p.lines) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	matchSet := make(map[int]bool, len(p.searchMatches))
	for _, idx := range p.searchMatches {
		matchSet[idx] = true
	}
	activeMatchLine := -1
	if p.searchMatchIdx < len(p.searchMatches) {
		activeMatchLine = p.searchMatches[p.searchMatchIdx]
	}

	var b strings.Builder
	for i, line := range p.lines {
		gutter := fmt.Sprintf("%4d │ ", i+1)
		var content string
		switch {
		case i == activeMatchLine:
			hl := lipgloss.NewStyle().
				Background(lipgloss.Color(theme.Warning)).
				Foreground(lipgloss.Color(theme.Background))
			content = hl.Render(gutter + line)
		case matchSet[i]:
			content = bg.Render(gutter, styles.AccentText) + bg.Render(line, styles.AccentText)
		default:
			content = bg.Render(gutter, styles.FaintText) + colorizeLogLine(line, styles, bg)
		}
		b.WriteString(bg.FillLine(truncate(content, width), width))
		if i < len(p.lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Kometa log lines look like
// "[2024-05-01 10:00:00,123] [meta.py:512] [INFO] | Processing Movies |".
var (
	timestampRe = regexp.MustCompile(`^\[?(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2})(?:[,.]\d+)?\]?`)
	levelRe     = regexp.MustCompile(`\[?\b(DEBUG|INFO|WARNING|WARN|ERROR|CRITICAL)\b\]?`)
	sourceRe    = regexp.MustCompile(`^\s*\[[\w./-]+:\d+\]`)
)

// colorizeLogLine styles the timestamp and level of a log line.
func colorizeLogLine(line string, styles Styles, bg BgStyle) string {
	if strings.TrimSpace(line) == "" {
		return line
	}

	var result strings.Builder
	remaining := line

	if loc := timestampRe.FindStringSubmatchIndex(remaining); loc != nil {
		result.WriteString(bg.Render(remaining[loc[2]:loc[3]], styles.FaintText))
		remaining = remaining[loc[1]:]
	}
	if loc := sourceRe.FindStringIndex(remaining); loc != nil {
		remaining = remaining[loc[1]:]
	}
	if loc := levelRe.FindStringSubmatchIndex(remaining); loc != nil && loc[0] <= 2 {
		level := remaining[loc[2]:loc[3]]
		result.WriteString(bg.Space())
		result.WriteString(bg.Render(level, levelStyle(level, styles).Bold(true)))
		remaining = remaining[loc[1]:]
	}

	msg := strings.TrimSpace(strings.Trim(strings.TrimSpace(remaining), "|"))
	if result.Len() > 0 {
		result.WriteString(bg.Space())
	}
	result.WriteString(bg.Render(msg, styles.Text))
	return result.String()
}

// levelStyle returns the style for a log level.
func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN", "WARNING":
		return styles.WarningText
	case "ERROR", "CRITICAL":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// trimLogBuffer trims the log buffer to the limit by removing oldest entries.
func trimLogBuffer(lines []string, limit int) []string {
	if overflow := len(lines) - limit; overflow > 0 {
		return append([]string(nil), lines[overflow:]...)
	}
	return lines
}
