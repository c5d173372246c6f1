package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Navigation",
			items: []helpItem{
				{"tab/S-tab", "Next/prev tab"},
				{"1-8", "Jump to tab"},
				{"j/k", "Move up/down"},
				{"h/l", "Switch pane"},
				{"g/G", "Go to top/bottom"},
				{"ctrl+d/u", "Half page down/up"},
				{"[/]", "Prev/next page"},
				{"R", "Refresh"},
			},
		},
		{
			title: "Runs",
			items: []helpItem{
				{"r", "Dry run"},
				{"a", "Apply run"},
				{"s", "Stop run"},
				{"M", "Toggle apply mode"},
				{"L", "Run logs"},
			},
		},
		{
			title: "Editing",
			items: []helpItem{
				{"enter", "Edit/open"},
				{"ctrl+s", "Save"},
				{"ctrl+z/y", "Undo/redo"},
				{"t", "Test connection"},
				{"X", "Discard draft"},
			},
		},
		{
			title: "Overlays",
			items: []helpItem{
				{"p", "Preview on a library item"},
				{"o", "Poster source"},
				{"space", "Pick builder"},
				{"n", "New playlist"},
			},
		},
		{
			title: "Scheduler",
			items: []helpItem{
				{"e/x/D", "Enable/schedule/dry-run only"},
				{"ctrl+s", "Apply scheduler"},
				{"S", "Stop scheduler"},
				{"W", "Write schedule to config.yml"},
				{"space/t", "Toggle/test webhook"},
			},
		},
		{
			title: "Logs",
			items: []helpItem{
				{"f", "Toggle follow mode"},
				{"/", "Search"},
				{"n/N", "Next/prev match"},
			},
		},
		{
			title: "General",
			items: []helpItem{
				{"T", "Cycle theme"},
				{"?", "Toggle help"},
				{"ctrl+c", "Quit"},
			},
		},
	}

	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}
