package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/yamlview"
)

// confirmModal requires the user to type phrase before onConfirm runs.
type confirmModal struct {
	dialog
	message   string
	phrase    string
	input     textinput.Model
	err       string
	onConfirm func() tea.Cmd
}

func newConfirmModal(id, title, message, phrase string, onConfirm func() tea.Cmd) *confirmModal {
	ti := textinput.New()
	ti.Placeholder = phrase
	ti.CharLimit = len(phrase) + 8
	ti.Width = len(phrase) + 2
	ti.Focus()
	return &confirmModal{
		dialog:    newDialog(id, title, 60),
		message:   message,
		phrase:    phrase,
		input:     ti,
		onConfirm: onConfirm,
	}
}

func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return c, nil, true
		case key.Matches(km, keys.Confirm):
			if strings.TrimSpace(c.input.Value()) != c.phrase {
				c.err = fmt.Sprintf("Type %q to confirm", c.phrase)
				return c, nil, false
			}
			return c, c.onConfirm(), true
		}
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	c.err = ""
	return c, cmd, false
}

func (c *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	lines := []string{
		styles.Text.Render(c.message),
		"",
		styles.MutedText.Render("Type ") + styles.WarningText.Render(c.phrase) + styles.MutedText.Render(" to continue:"),
		c.input.View(),
	}
	if c.err != "" {
		lines = append(lines, styles.DangerText.Render(c.err))
	}
	lines = append(lines, "", modalHints(theme, "enter", "Confirm", "esc", "Cancel"))
	return c.Render(theme, strings.Join(lines, "\n"), width, height)
}

// promptModal asks for one value. validate may reject it with a message.
type promptModal struct {
	dialog
	label    string
	input    textinput.Model
	err      string
	validate func(string) error
	onSubmit func(string) tea.Cmd
}

func newPromptModal(id, title, label, placeholder string, validate func(string) error, onSubmit func(string) tea.Cmd) *promptModal {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Width = 40
	ti.Focus()
	return &promptModal{
		dialog:   newDialog(id, title, 56),
		label:    label,
		input:    ti,
		validate: validate,
		onSubmit: onSubmit,
	}
}

func (p *promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return p, nil, true
		case key.Matches(km, keys.Confirm):
			value := strings.TrimSpace(p.input.Value())
			if p.validate != nil {
				if err := p.validate(value); err != nil {
					p.err = err.Error()
					return p, nil, false
				}
			}
			return p, p.onSubmit(value), true
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

func (p *promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	lines := []string{styles.MutedText.Render(p.label), p.input.View()}
	if p.err != "" {
		lines = append(lines, styles.DangerText.Render(p.err))
	}
	lines = append(lines, "", modalHints(theme, "enter", "Create", "esc", "Cancel"))
	return p.Render(theme, strings.Join(lines, "\n"), width, height)
}

// textModal shows read-only, scrollable text.
type textModal struct {
	dialog
	lines  []string
	offset int
}

func newTextModal(id, title, body string) *textModal {
	return &textModal{
		dialog: newDialog(id, title, 90),
		lines:  strings.Split(strings.TrimRight(body, "\n"), "\n"),
	}
}

func (t *textModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil, false
	}
	switch {
	case key.Matches(km, keys.Escape), key.Matches(km, keys.Confirm):
		return t, nil, true
	case key.Matches(km, keys.Down):
		t.offset = clampIndex(t.offset+1, len(t.lines))
	case key.Matches(km, keys.Up):
		t.offset = clampIndex(t.offset-1, len(t.lines))
	case key.Matches(km, keys.HalfPageDown), key.Matches(km, keys.PageDown):
		t.offset = clampIndex(t.offset+10, len(t.lines))
	case key.Matches(km, keys.HalfPageUp), key.Matches(km, keys.PageUp):
		t.offset = clampIndex(t.offset-10, len(t.lines))
	case key.Matches(km, keys.Top):
		t.offset = 0
	}
	return t, nil, false
}

func (t *textModal) View(theme Theme, width, height int) string {
	visible := height - 6
	if visible < 1 {
		visible = 1
	}
	end := t.offset + visible
	if end > len(t.lines) {
		end = len(t.lines)
	}
	body := strings.Join(t.lines[t.offset:end], "\n")
	body += "\n\n" + modalHints(theme, "j/k", "Scroll", "esc", "Close")
	return t.Render(theme, body, width, height)
}

// diffModal previews a save as a line diff and runs onConfirm on enter.
type diffModal struct {
	dialog
	lines     []yamlview.DiffLine
	stat      yamlview.DiffStat
	offset    int
	onConfirm func() tea.Cmd
}

func newDiffModal(filename, before, after string, onConfirm func() tea.Cmd) *diffModal {
	lines := yamlview.LineDiff(before, after)
	return &diffModal{
		dialog:    newDialog("save-diff", "Save "+filename+"?", 100),
		lines:     lines,
		stat:      yamlview.Stat(lines),
		onConfirm: onConfirm,
	}
}

func (d *diffModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil, false
	}
	switch {
	case key.Matches(km, keys.Escape):
		return d, nil, true
	case key.Matches(km, keys.Confirm):
		return d, d.onConfirm(), true
	case key.Matches(km, keys.Down):
		d.offset = clampIndex(d.offset+1, len(d.lines))
	case key.Matches(km, keys.Up):
		d.offset = clampIndex(d.offset-1, len(d.lines))
	case key.Matches(km, keys.HalfPageDown), key.Matches(km, keys.PageDown):
		d.offset = clampIndex(d.offset+10, len(d.lines))
	case key.Matches(km, keys.HalfPageUp), key.Matches(km, keys.PageUp):
		d.offset = clampIndex(d.offset-10, len(d.lines))
	}
	return d, nil, false
}

func (d *diffModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	if !d.stat.Changed() {
		b.WriteString(styles.MutedText.Render("No changes."))
		b.WriteString("\n")
	} else {
		b.WriteString(styles.SuccessText.Render(fmt.Sprintf("+%d", d.stat.Added)))
		b.WriteString(" ")
		b.WriteString(styles.DangerText.Render(fmt.Sprintf("-%d", d.stat.Removed)))
		b.WriteString("\n")
	}
	visible := height - 8
	if visible < 1 {
		visible = 1
	}
	end := d.offset + visible
	if end > len(d.lines) {
		end = len(d.lines)
	}
	for _, l := range d.lines[d.offset:end] {
		switch l.Op {
		case yamlview.Insert:
			b.WriteString(styles.SuccessText.Render("+ " + l.Text))
		case yamlview.Delete:
			b.WriteString(styles.DangerText.Render("- " + l.Text))
		default:
			b.WriteString(styles.FaintText.Render("  " + l.Text))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(modalHints(theme, "enter", "Save", "j/k", "Scroll", "esc", "Cancel"))
	return d.Render(theme, b.String(), width, height)
}

// itemPickerModal picks one media item and runs onPick with it.
type itemPickerModal struct {
	dialog
	items  []kometa.MediaItem
	cursor int
	onPick func(kometa.MediaItem) tea.Cmd
}

func newItemPickerModal(id, title string, items []kometa.MediaItem, cursor int, onPick func(kometa.MediaItem) tea.Cmd) *itemPickerModal {
	return &itemPickerModal{
		dialog: newDialog(id, title, 70),
		items:  items,
		cursor: clampIndex(cursor, len(items)),
		onPick: onPick,
	}
}

func (p *itemPickerModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	switch {
	case key.Matches(km, keys.Escape):
		return p, nil, true
	case key.Matches(km, keys.Confirm):
		if len(p.items) == 0 {
			return p, nil, true
		}
		return p, p.onPick(p.items[p.cursor]), true
	case key.Matches(km, keys.Down):
		p.cursor = clampIndex(p.cursor+1, len(p.items))
	case key.Matches(km, keys.Up):
		p.cursor = clampIndex(p.cursor-1, len(p.items))
	case key.Matches(km, keys.Top):
		p.cursor = 0
	case key.Matches(km, keys.Bottom):
		p.cursor = clampIndex(len(p.items)-1, len(p.items))
	}
	return p, nil, false
}

func (p *itemPickerModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	visible := height - 8
	if visible < 1 {
		visible = 1
	}
	start := 0
	if p.cursor >= visible {
		start = p.cursor - visible + 1
	}
	var lines []string
	for i := start; i < len(p.items) && i-start < visible; i++ {
		line := truncate(p.items[i].Label(), 64)
		if i == p.cursor {
			line = styles.Selected.Render(padRight(line, 64))
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", modalHints(theme, "enter", "Pick", "j/k", "Move", "esc", "Cancel"))
	return p.Render(theme, strings.Join(lines, "\n"), width, height)
}
