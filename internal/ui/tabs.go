package ui

import (
	"strconv"
	"strings"
)

// tabID identifies a top-level view.
type tabID int

const (
	tabDashboard tabID = iota
	tabSettings
	tabEditor
	tabLibrary
	tabOverlays
	tabRuns
	tabScheduler
	tabConsole
)

func (t tabID) String() string {
	switch t {
	case tabDashboard:
		return "Dashboard"
	case tabSettings:
		return "Settings"
	case tabEditor:
		return "Editor"
	case tabLibrary:
		return "Library"
	case tabOverlays:
		return "Overlays"
	case tabRuns:
		return "Runs"
	case tabScheduler:
		return "Scheduler"
	case tabConsole:
		return "Console"
	default:
		return "Tab " + strconv.Itoa(int(t))
	}
}

func parseTabID(name string) (tabID, bool) {
	for _, t := range allTabs() {
		if strings.EqualFold(t.String(), name) {
			return t, true
		}
	}
	return 0, false
}

func allTabs() []tabID {
	return []tabID{tabDashboard, tabSettings, tabEditor, tabLibrary, tabOverlays, tabRuns, tabScheduler, tabConsole}
}

type tab struct {
	id       tabID
	disabled bool
}

// tabBar is an ordered set of tabs with one active. Navigation wraps at both
// ends and skips disabled tabs.
type tabBar struct {
	tabs   []tab
	active int
}

func newTabBar(ids ...tabID) tabBar {
	b := tabBar{tabs: make([]tab, len(ids))}
	for i, id := range ids {
		b.tabs[i] = tab{id: id}
	}
	return b
}

// Active returns the active tab's ID.
func (b tabBar) Active() tabID {
	if len(b.tabs) == 0 {
		return tabDashboard
	}
	return b.tabs[b.active].id
}

// Next moves to the next enabled tab, wrapping. With every tab disabled the
// active tab is unchanged.
func (b tabBar) Next() tabBar {
	return b.step(1)
}

// Prev moves to the previous enabled tab, wrapping.
func (b tabBar) Prev() tabBar {
	return b.step(-1)
}

func (b tabBar) step(dir int) tabBar {
	n := len(b.tabs)
	for i := 1; i <= n; i++ {
		idx := ((b.active+dir*i)%n + n) % n
		if !b.tabs[idx].disabled {
			b.active = idx
			return b
		}
	}
	return b
}

// Select activates the tab at position idx unless it is disabled or out of range.
func (b tabBar) Select(idx int) tabBar {
	if idx < 0 || idx >= len(b.tabs) || b.tabs[idx].disabled {
		return b
	}
	b.active = idx
	return b
}

// SelectID activates id when present and enabled.
func (b tabBar) SelectID(id tabID) tabBar {
	for i, t := range b.tabs {
		if t.id == id {
			return b.Select(i)
		}
	}
	return b
}

// SetDisabled marks id disabled. Disabling the active tab moves to the next
// enabled one.
func (b tabBar) SetDisabled(id tabID, disabled bool) tabBar {
	tabs := make([]tab, len(b.tabs))
	copy(tabs, b.tabs)
	b.tabs = tabs
	for i := range b.tabs {
		if b.tabs[i].id == id {
			b.tabs[i].disabled = disabled
		}
	}
	if len(b.tabs) > 0 && b.tabs[b.active].disabled {
		b = b.Next()
	}
	return b
}

// Disabled reports whether id is disabled.
func (b tabBar) Disabled(id tabID) bool {
	for _, t := range b.tabs {
		if t.id == id {
			return t.disabled
		}
	}
	return false
}

// View renders the bar as "1 Dashboard  2 Settings ..." on a Surface line.
func (b tabBar) View(theme Theme, width int) string {
	styles := theme.Styles().WithBackground(theme.Surface)
	bg := NewBgStyle(theme.Surface)

	parts := make([]string, 0, len(b.tabs))
	for i, t := range b.tabs {
		label := strconv.Itoa(i+1) + " " + t.id.String()
		switch {
		case i == b.active:
			parts = append(parts, styles.Selected.Bold(true).Padding(0, 1).Render(label))
		case t.disabled:
			parts = append(parts, bg.Spaces(1)+bg.Render(label, styles.FaintText.Strikethrough(true))+bg.Spaces(1))
		default:
			parts = append(parts, bg.Spaces(1)+bg.Render(label, styles.MutedText)+bg.Spaces(1))
		}
	}
	return bg.FillLine(truncate(bg.Join(parts, " "), width), width)
}
