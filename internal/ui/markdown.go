package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/five82/marquee/internal/kometa"
)

var (
	mdRendererMu sync.Mutex
	// Renderers are cached per style and wrap width. WithAutoStyle would query
	// the terminal, which can block while Bubble Tea owns stdin.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

const markdownStyle = "dark"

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	key := markdownStyle + ":" + strconv.Itoa(width)
	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(markdownStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// planMarkdown renders the backend's run plan. The plan is free-form JSON, so
// top-level keys become sections and nested values become lists.
func planMarkdown(plan kometa.RunPlan) string {
	if len(plan) == 0 {
		return "_No run plan available._"
	}
	var b strings.Builder
	keys := sortedKeys(plan)
	for _, k := range keys {
		v := plan[k]
		switch v.(type) {
		case map[string]any, []any:
			fmt.Fprintf(&b, "## %s\n\n", titleCase(k))
			writeMarkdownValue(&b, v, 0)
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "- **%s**: %s\n", titleCase(k), scalarText(v))
		}
	}
	return b.String()
}

func writeMarkdownValue(b *strings.Builder, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch val := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(val) {
			switch child := val[k].(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s- **%s**\n", indent, k)
				writeMarkdownValue(b, child, depth+1)
			default:
				fmt.Fprintf(b, "%s- **%s**: %s\n", indent, k, scalarText(child))
			}
		}
	case []any:
		if len(val) == 0 {
			fmt.Fprintf(b, "%s- _none_\n", indent)
		}
		for _, item := range val {
			switch child := item.(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s-\n", indent)
				writeMarkdownValue(b, child, depth+1)
			default:
				fmt.Fprintf(b, "%s- %s\n", indent, scalarText(child))
			}
		}
	default:
		fmt.Fprintf(b, "%s- %s\n", indent, scalarText(val))
	}
}

// runMarkdown describes a run history record.
func runMarkdown(r kometa.Run, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", r.ID)
	kind := "apply"
	if r.DryRun {
		kind = "dry run"
	}
	fmt.Fprintf(&b, "- **Status**: %s\n", scalarText(r.Status))
	fmt.Fprintf(&b, "- **Kind**: %s\n", kind)
	if r.RunType != "" {
		fmt.Fprintf(&b, "- **Run type**: %s\n", r.RunType)
	}
	if len(r.Libraries) > 0 {
		fmt.Fprintf(&b, "- **Libraries**: %s\n", strings.Join(r.Libraries, ", "))
	}
	if t := r.Started(); !t.IsZero() {
		fmt.Fprintf(&b, "- **Started**: %s (%s)\n", t.Local().Format("2006-01-02 15:04:05"), relTime(t, now))
	}
	fmt.Fprintf(&b, "- **Duration**: %s\n", formatDuration(r.Duration(now)))
	if r.ExitCode != nil {
		fmt.Fprintf(&b, "- **Exit code**: %d\n", *r.ExitCode)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "\n> %s\n", r.Error)
	}
	return b.String()
}

// diffMarkdown summarizes a dry-run diff.
func diffMarkdown(d *kometa.RunDiff) string {
	if d == nil {
		return "_No diff recorded for this run._"
	}
	var b strings.Builder
	b.WriteString("## Changes\n\n")
	if d.Message != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Message)
	}
	if s := d.Summary; s != nil {
		b.WriteString("## Summary\n\n")
		fmt.Fprintf(&b, "- **Operations**: %s\n", count(s.TotalOperations))
		fmt.Fprintf(&b, "- **Collections affected**: %s\n", count(s.CollectionsAffected))
		fmt.Fprintf(&b, "- **Items added / removed / updated**: %s / %s / %s\n",
			count(s.TotalAdded), count(s.TotalRemoved), count(s.TotalUpdated))
		for _, k := range sortedKeys(s.OperationsByType) {
			fmt.Fprintf(&b, "  - %s: %s\n", k, count(s.OperationsByType[k]))
		}
		b.WriteString("\n")
	}
	if len(d.Collections) > 0 {
		b.WriteString("## Collections\n\n| Collection | Added | Removed | Updated |\n|---|---:|---:|---:|\n")
		for _, c := range d.Collections {
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", escapeTable(c.Name), c.Added, c.Removed, c.Updated)
		}
		b.WriteString("\n")
	}
	if len(d.Operations) > 0 {
		b.WriteString("## Operations\n\n")
		for _, op := range d.Operations {
			line := fmt.Sprintf("- **%s** %s", op.Operation, op.Target)
			if op.Details != "" {
				line += " — " + op.Details
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarText(v any) string {
	switch val := v.(type) {
	case nil:
		return "—"
	case string:
		if val == "" {
			return "—"
		}
		return val
	case bool:
		return yesNo(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func escapeTable(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// titleCase turns "apply_enabled" into "Apply Enabled".
func titleCase(value string) string {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
