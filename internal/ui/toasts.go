package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/toast"
)

var toastIcons = map[toast.Level]string{
	toast.Info:    "ℹ",
	toast.Success: "✓",
	toast.Warning: "!",
	toast.Error:   "✗",
}

// renderToasts stacks the active toasts below the content, newest last.
func (m Model) renderToasts() string {
	active := m.toasts.Active(m.now())
	if len(active) == 0 {
		return ""
	}
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	lines := make([]string, 0, len(active))
	for _, t := range active {
		style := toastStyle(styles, t.Level)
		text := bg.Render(" "+toastIcons[t.Level]+" ", style.Bold(true)) +
			bg.Render(truncate(t.Message, m.width-6), style)
		lines = append(lines, bg.FillLine(text, m.width))
	}
	return strings.Join(lines, "\n")
}

func toastStyle(styles Styles, level toast.Level) lipgloss.Style {
	switch level {
	case toast.Success:
		return styles.SuccessText
	case toast.Warning:
		return styles.WarningText
	case toast.Error:
		return styles.DangerText
	default:
		return styles.InfoText
	}
}
