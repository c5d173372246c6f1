package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/yamlview"
)

// highlightYAML colors text line by line with a gutter of line numbers.
// errLine, when positive, marks the line a syntax error points at.
func highlightYAML(theme Theme, text string, errLine int) []string {
	styles := theme.Styles()
	keyStyle := styles.AccentText
	valueStyle := styles.Text
	commentStyle := styles.FaintText.Italic(true)
	markerStyle := styles.WarningText
	gutter := styles.FaintText
	errGutter := styles.DangerText

	tokens := yamlview.Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, ln := range tokens {
		num := gutter.Render(fmt.Sprintf("%4d │ ", ln.Number))
		if ln.Number == errLine {
			num = errGutter.Render(fmt.Sprintf("%4d ▶ ", ln.Number))
		}
		indent := strings.Repeat(" ", ln.Indent)

		var body string
		switch ln.Kind {
		case yamlview.Empty:
			body = ""
		case yamlview.Comment:
			body = indent + commentStyle.Render(ln.Comment)
		case yamlview.KeyValue:
			body = indent + keyStyle.Render(ln.Key) + styles.MutedText.Render(":")
			if ln.Value != "" {
				body += " " + scalarStyle(styles, valueStyle, ln.Value).Render(ln.Value)
			}
		case yamlview.ListItem:
			body = indent + markerStyle.Render("-")
			if ln.Key != "" {
				body += " " + keyStyle.Render(ln.Key) + styles.MutedText.Render(":")
			}
			if ln.Value != "" {
				body += " " + scalarStyle(styles, valueStyle, ln.Value).Render(ln.Value)
			}
		default:
			body = indent + valueStyle.Render(ln.Value)
		}
		if ln.Comment != "" && ln.Kind != yamlview.Comment {
			body += " " + commentStyle.Render(ln.Comment)
		}
		out = append(out, num+body)
	}
	return out
}

// scalarStyle picks a color for a scalar value by its apparent type.
func scalarStyle(styles Styles, fallback lipgloss.Style, value string) lipgloss.Style {
	switch {
	case value == "true" || value == "false":
		return styles.WarningText
	case strings.HasPrefix(value, `"`) || strings.HasPrefix(value, "'"):
		return styles.SuccessText.Bold(false)
	case strings.HasPrefix(value, "<<") || strings.HasPrefix(value, "&") || strings.HasPrefix(value, "*"):
		return styles.InfoText
	case isNumeric(value):
		return styles.InfoText
	default:
		return fallback
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '-' && i == 0:
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return s != "-" && s != "."
}
