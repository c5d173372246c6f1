package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// truncate shortens value to limit display cells, adding an ellipsis if needed.
// Styled input is measured without its escape sequences.
func truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if ansi.StringWidth(value) <= limit {
		return value
	}
	if limit == 1 {
		return ansi.Truncate(value, 1, "")
	}
	return ansi.Truncate(value, limit, "…")
}

// truncateMiddle keeps both ends of value, which suits paths.
func truncateMiddle(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	keep := limit - 1
	head := keep / 3
	tail := keep - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}

// padRight pads value with spaces to width display cells.
func padRight(value string, width int) string {
	w := ansi.StringWidth(value)
	if w >= width {
		return value
	}
	return value + strings.Repeat(" ", width-w)
}

// relTime renders t relative to now ("3 minutes ago", "2 hours from now").
func relTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// formatSize renders a byte count ("4.2 kB").
func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// formatDuration renders an elapsed time compactly ("1h 02m", "4m 10s").
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "—"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// count renders n with thousands separators.
func count(n int) string {
	return humanize.Comma(int64(n))
}

// yesNo renders a bool for detail panes.
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// clampIndex keeps i within [0, n).
func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
