package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// renderTitledBox renders content in a box with the title embedded in the top
// border: ┌─── Title ───┐. Focused boxes use BorderFocus and FocusBg.
// Content lines are clipped to the box.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	return renderTitledBox(m.theme, title, content, width, height, focused)
}

func renderTitledBox(theme Theme, title, content string, width, height int, focused bool) string {
	if width < 4 || height < 2 {
		return ""
	}
	borderColorStr, bgColorStr := theme.Border, theme.SurfaceAlt
	if focused {
		borderColorStr, bgColorStr = theme.BorderFocus, theme.FocusBg
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.Text))

	innerWidth := width - 2
	title = truncate(title, innerWidth-4)
	titleLen := ansi.StringWidth(title)
	leftPad := (innerWidth - titleLen - 2) / 2
	rightPad := innerWidth - titleLen - 2 - leftPad
	if leftPad < 0 {
		leftPad = 0
	}
	if rightPad < 0 {
		rightPad = 0
	}

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	lineStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))
	lines := strings.Split(content, "\n")
	rows := make([]string, 0, height-2)
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = truncate(lines[i], innerWidth)
		}
		rows = append(rows, bg.Render("│", borderStyle)+lineStyle.Render(line)+bg.Render("│", borderStyle))
	}
	if len(rows) == 0 {
		return top + "\n" + bottom
	}
	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}

// splitWidths divides width into a list pane and a detail pane.
func splitWidths(width int) (left, right int) {
	left = LayoutListWidth
	if width < LayoutSplitWidth {
		left = width / 3
	}
	return left, width - left
}

// joinColumns places two rendered boxes side by side.
func joinColumns(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
