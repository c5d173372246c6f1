package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// dialog is the frame every modal renders into. A closed dialog renders
// nothing; an open one renders a single bordered box labelled by Title.
type dialog struct {
	id    string
	title string
	open  bool
	width int
}

func newDialog(id, title string, width int) dialog {
	return dialog{id: id, title: title, open: true, width: width}
}

func (d dialog) ID() string    { return d.id }
func (d dialog) Title() string { return d.title }
func (d dialog) IsOpen() bool  { return d.open }

// Close returns a closed copy.
func (d dialog) Close() dialog {
	d.open = false
	return d
}

// Render frames body and centers it in width x height.
func (d dialog) Render(theme Theme, body string, width, height int) string {
	if !d.open {
		return ""
	}
	w := d.width
	if w <= 0 || w > width-4 {
		w = width - 4
	}
	if w < 20 {
		w = 20
	}
	lines := strings.Split(body, "\n")
	h := len(lines) + 2
	if maxH := height - 2; h > maxH && maxH > 2 {
		h = maxH
	}
	box := renderTitledBox(theme, d.title, body, w, h, true)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// modalHints renders "enter: Confirm  esc: Cancel" style footers.
func modalHints(theme Theme, pairs ...string) string {
	styles := theme.Styles().WithBackground(theme.FocusBg)
	bg := NewBgStyle(theme.FocusBg)
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, bg.Render(pairs[i], styles.AccentText)+bg.Sep(":")+bg.Render(pairs[i+1], styles.MutedText))
	}
	return bg.Join(parts, "  ")
}
