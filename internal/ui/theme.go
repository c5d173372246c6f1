package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors the console paints with.
type Theme struct {
	Name string

	Background string
	Surface    string // header, command bar and panels
	SurfaceAlt string // unfocused boxes
	FocusBg    string // focused boxes and dialogs

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StatusColors is keyed by lowercase run or health status.
	StatusColors map[string]string
}

// StatusColor returns the color for status, falling back to Muted.
func (t Theme) StatusColor(status string) string {
	if c, ok := t.StatusColors[normalizeStatus(status)]; ok {
		return c
	}
	return t.Muted
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header: fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:   fg(t.Warning).Bold(true),
		Selected: fg(t.SelectionText).
			Background(lipgloss.Color(t.SelectionBg)),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	statusColors map[string]string
	background   string
	muted        string
}

// StatusStyle returns a badge style for the given status.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.statusColors[normalizeStatus(status)]
	if color == "" {
		color = s.muted
	}
	return fg(s.background).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy of Styles with every style painted on
// bgColor, so text inside a box never falls through to the terminal
// background.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Logo, &out.Selected,
	} {
		*st = st.Background(bg)
	}
	return out
}

// statusPalette maps every run and health status onto seven colors.
func statusPalette(pending, running, dryRun, apply, good, stopped, bad string) map[string]string {
	return map[string]string{
		"pending":   pending,
		"running":   running,
		"dry_run":   dryRun,
		"apply":     apply,
		"completed": good,
		"success":   good,
		"healthy":   good,
		"stopped":   stopped,
		"cancelled": stopped,
		"failed":    bad,
		"error":     bad,
		"offline":   bad,
		"unhealthy": bad,
	}
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

// https://github.com/EdenEast/nightfox.nvim
func nightfoxTheme() Theme {
	const (
		blue   = "#719cd6"
		cyan   = "#63cdcf"
		green  = "#81b29a"
		yellow = "#dbc074"
		red    = "#c94f6d"
		muted  = "#738091"
	)
	return Theme{
		Name:          "Nightfox",
		Background:    "#131a24",
		Surface:       "#192330",
		SurfaceAlt:    "#212e3f",
		FocusBg:       "#29394f",
		SelectionBg:   "#2b3b51",
		SelectionText: "#cdcecf",
		Border:        "#39506d",
		BorderFocus:   blue,
		Text:          "#cdcecf",
		Muted:         muted,
		Faint:         "#71839b",
		Accent:        blue,
		Success:       green,
		Warning:       yellow,
		Danger:        red,
		Info:          cyan,
		StatusColors:  statusPalette(muted, blue, cyan, "#f4a261", green, yellow, red),
	}
}

// https://github.com/rebelot/kanagawa.nvim
func kanagawaTheme() Theme {
	const (
		crystalBlue = "#7E9CD8"
		springBlue  = "#7FB4CA"
		springGreen = "#98BB6C"
		carpYellow  = "#E6C384"
		waveRed     = "#E46876"
		fujiGray    = "#727169"
		sumiInk4    = "#2A2A37"
	)
	return Theme{
		Name:          "Kanagawa",
		Background:    "#16161D",
		Surface:       "#1F1F28",
		SurfaceAlt:    sumiInk4,
		FocusBg:       sumiInk4,
		SelectionBg:   "#2D4F67",
		SelectionText: "#DCD7BA",
		Border:        "#54546D",
		BorderFocus:   crystalBlue,
		Text:          "#DCD7BA",
		Muted:         "#C8C093",
		Faint:         fujiGray,
		Accent:        crystalBlue,
		Success:       springGreen,
		Warning:       carpYellow,
		Danger:        waveRed,
		Info:          springBlue,
		StatusColors:  statusPalette(fujiGray, crystalBlue, springBlue, "#FFA066", springGreen, carpYellow, waveRed),
	}
}

// Tailwind slate and sky: https://tailwindcss.com/docs/colors
func slateTheme() Theme {
	const (
		sky400   = "#38bdf8"
		slate500 = "#64748b"
		amber500 = "#f59e0b"
	)
	return Theme{
		Name:          "Slate",
		Background:    "#020617",
		Surface:       "#0f172a",
		SurfaceAlt:    "#1e293b",
		FocusBg:       "#283548",
		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",
		Border:        "#334155",
		BorderFocus:   sky400,
		Text:          "#f1f5f9",
		Muted:         "#94a3b8",
		Faint:         slate500,
		Accent:        sky400,
		Success:       "#22c55e",
		Warning:       amber500,
		Danger:        "#ef4444",
		Info:          "#06b6d4",
		StatusColors:  statusPalette(slate500, "#0ea5e9", "#22d3ee", "#f97316", "#16a34a", amber500, "#dc2626"),
	}
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
