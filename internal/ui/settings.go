package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/connstatus"
	"github.com/five82/marquee/internal/forms"
	"github.com/five82/marquee/internal/history"
	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/logger"
)

type settingsConfigMsg struct {
	cfg *kometa.ConfigFile
	err error
}

type settingsSavedMsg struct {
	content string
	result  *kometa.SaveResult
	err     error
}

type connTestMsg struct {
	service connstatus.Service
	result  *kometa.TestResult
	err     error
}

// settingsState is the Settings tab: one reducer-driven form state and one
// undo history per config section.
type settingsState struct {
	sections  []forms.Section
	states    map[string]forms.State
	histories map[string]*history.History[string]

	cfg       *kometa.ConfigFile
	loadErr   error
	parseErr  error
	libraries []forms.Library
	saving    bool

	section int // index into sections; len(sections) is the libraries page
	field   int
	editing bool
	reveal  bool
	input   textinput.Model
}

func newSettingsState() settingsState {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 48
	return settingsState{
		sections:  forms.Catalog(),
		states:    map[string]forms.State{},
		histories: map[string]*history.History[string]{},
		input:     ti,
	}
}

func (s settingsState) current() (forms.Section, bool) {
	if s.section < 0 || s.section >= len(s.sections) {
		return forms.Section{}, false
	}
	return s.sections[s.section], true
}

func (s settingsState) state(id string) forms.State {
	if st, ok := s.states[id]; ok {
		return st
	}
	return forms.NewState(nil)
}

// dirtySections lists sections with unsaved edits in catalog order.
func (s settingsState) dirtySections() []forms.Section {
	var out []forms.Section
	for _, sec := range s.sections {
		if s.state(sec.ID).Dirty() {
			out = append(out, sec)
		}
	}
	return out
}

// encodeValues gives each form state a comparable snapshot for history.
// json.Marshal sorts map keys, so equal values encode identically.
func encodeValues(values map[string]string) string {
	b, err := json.Marshal(values)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeValues(s string) map[string]string {
	values := map[string]string{}
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		logger.Warn("decode settings history: %v", err)
	}
	return values
}

// loadConfig replaces clean section states with values from content. Dirty
// sections keep their edits.
func (s *settingsState) loadConfig(cfg *kometa.ConfigFile) {
	s.cfg = cfg
	s.parseErr = nil
	if cfg == nil {
		return
	}
	doc, err := forms.Parse(cfg.Content)
	if err != nil {
		s.parseErr = err
		return
	}
	s.libraries = doc.Libraries()
	for _, sec := range s.sections {
		if s.state(sec.ID).Dirty() {
			continue
		}
		st := doc.Read(sec)
		s.states[sec.ID] = st
		s.historyFor(sec.ID).Reset(encodeValues(st.Values()))
	}
}

func (s *settingsState) historyFor(id string) *history.History[string] {
	h, ok := s.histories[id]
	if !ok {
		h = history.New(encodeValues(s.state(id).Values()), history.Options{})
		s.histories[id] = h
	}
	return h
}

// dispatch runs evt through the reducer and records the result for undo.
func (s *settingsState) dispatch(sec forms.Section, evt forms.Event) forms.State {
	prev := s.state(sec.ID)
	next := forms.Reduce(sec, prev, evt)
	s.states[sec.ID] = next
	s.historyFor(sec.ID).SetValueImmediate(encodeValues(next.Values()))
	return next
}

func (m Model) loadSettings() tea.Cmd {
	return load(m.ctx, m.svc.Config, func(cfg *kometa.ConfigFile, err error) tea.Msg {
		return settingsConfigMsg{cfg: cfg, err: err}
	})
}

func (m Model) updateSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsConfigMsg:
		m.settings.loadErr = msg.err
		if msg.err == nil {
			m.settings.loadConfig(msg.cfg)
		}
		// The editor shares config.yml.
		m.editor.configLoaded(msg.cfg, msg.err)

	case settingsSavedMsg:
		m.settings.saving = false
		if msg.err != nil {
			m.toasts.Error("Save failed: " + errorText(msg.err))
			return m, nil
		}
		for _, sec := range m.settings.sections {
			m.settings.states[sec.ID] = forms.Reduce(sec, m.settings.state(sec.ID), forms.MarkSaved{})
		}
		if m.settings.cfg != nil {
			cfg := *m.settings.cfg
			cfg.Content = msg.content
			m.settings.loadConfig(&cfg)
		}
		m.toasts.Success("config.yml saved")
		if v := msg.result; v != nil && v.Validation != nil && len(v.Validation.Warnings) > 0 {
			m.toasts.Warn(fmt.Sprintf("%d validation warning(s): %s", len(v.Validation.Warnings), v.Validation.Warnings[0]))
		}
		return m, m.loadSettings()

	case connTestMsg:
		if msg.err != nil {
			m.conn.Record(msg.service, false, errorText(msg.err))
			m.toasts.Error(fmt.Sprintf("%s test failed: %s", msg.service, errorText(msg.err)))
			return m, nil
		}
		st := m.conn.Record(msg.service, msg.result.Success, msg.result.Text())
		if st.Success {
			m.toasts.Success(fmt.Sprintf("%s: %s", msg.service, st.Message))
		} else {
			m.toasts.Error(fmt.Sprintf("%s: %s", msg.service, st.Message))
		}
	}
	return m, nil
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &m.settings
	sec, onSection := s.current()

	if s.editing {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			f := sec.Fields[s.field]
			m.setField(sec, f, s.input.Value())
			s.editing = false
			s.input.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Escape):
			s.editing = false
			s.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return m, cmd
	}

	if onSection {
		if v, ok := s.historyFor(sec.ID).HandleKey(msg); ok {
			s.states[sec.ID] = forms.Reduce(sec, s.state(sec.ID), forms.Restore{Values: decodeValues(v)})
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		s.section = clampIndex(s.section-1, len(s.sections)+1)
		s.field = 0
	case key.Matches(msg, m.keys.Right):
		s.section = clampIndex(s.section+1, len(s.sections)+1)
		s.field = 0
	case key.Matches(msg, m.keys.Up):
		s.field = clampIndex(s.field-1, len(sec.Fields))
	case key.Matches(msg, m.keys.Down):
		s.field = clampIndex(s.field+1, len(sec.Fields))
	case key.Matches(msg, m.keys.Top):
		s.field = 0
	case key.Matches(msg, m.keys.Bottom):
		s.field = clampIndex(len(sec.Fields)-1, len(sec.Fields))
	case key.Matches(msg, m.keys.ShowValue):
		s.reveal = !s.reveal

	case !onSection || len(sec.Fields) == 0:
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		f := sec.Fields[s.field]
		if f.Kind == forms.KindBool || f.Kind == forms.KindChoice {
			m.toggleField(sec, f)
			return m, nil
		}
		s.input.SetValue(s.state(sec.ID).Value(f.Key))
		s.input.Placeholder = f.Default
		s.input.EchoMode = textinput.EchoNormal
		if f.Kind == forms.KindSecret && !s.reveal {
			s.input.EchoMode = textinput.EchoPassword
		}
		s.input.CursorEnd()
		s.editing = true
		return m, s.input.Focus()

	case key.Matches(msg, m.keys.Toggle):
		m.toggleField(sec, sec.Fields[s.field])

	case key.Matches(msg, m.keys.Revert):
		f := sec.Fields[s.field]
		s.dispatch(sec, forms.ResetField{Key: f.Key})

	case key.Matches(msg, m.keys.Test):
		return m, m.testConnection(sec)

	case key.Matches(msg, m.keys.Save):
		return m.saveSettings()
	}
	return m, nil
}

func (m *Model) setField(sec forms.Section, f forms.Field, value string) {
	before := m.settings.state(sec.ID)
	after := m.settings.dispatch(sec, forms.SetField{Key: f.Key, Value: value})
	if f.TestKey != "" && sec.Testable() && before.Value(f.Key) != after.Value(f.Key) {
		m.conn.Reset(sec.Service)
	}
}

func (m *Model) toggleField(sec forms.Section, f forms.Field) {
	m.settings.dispatch(sec, forms.ToggleField{Key: f.Key})
}

// testConnection posts the section's test payload and records the outcome.
func (m Model) testConnection(sec forms.Section) tea.Cmd {
	if !sec.Testable() {
		m.toasts.Info(sec.Title + " has no connection test")
		return nil
	}
	payload, err := forms.TestPayload(sec, m.settings.state(sec.ID))
	if err != nil {
		m.conn.Record(sec.Service, false, err.Error())
		m.toasts.Warn(err.Error())
		return nil
	}
	if m.svc == nil {
		return nil
	}
	svc, service := m.svc, sec.Service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, RequestTimeout)
		defer cancel()
		res, err := svc.TestConnection(ctx, string(service), payload)
		if err != nil {
			logger.LogError("test "+string(service), err)
		}
		return connTestMsg{service: service, result: res, err: err}
	}
}

// saveSettings validates dirty sections, applies them to a fresh parse of
// the saved config and previews the result before writing it.
func (m Model) saveSettings() (tea.Model, tea.Cmd) {
	s := &m.settings
	if s.cfg == nil || m.svc == nil {
		m.toasts.Warn("config.yml is not loaded")
		return m, nil
	}
	if s.saving {
		return m, nil
	}
	dirty := s.dirtySections()
	if len(dirty) == 0 {
		m.toasts.Info("No unsaved settings")
		return m, nil
	}
	for _, sec := range dirty {
		if errs := forms.Validate(sec, s.state(sec.ID)); len(errs) > 0 {
			for _, f := range sec.Fields {
				if msg, ok := errs[f.Key]; ok {
					m.toasts.Error(fmt.Sprintf("%s %s %s", sec.Title, f.Label, msg))
					return m, nil
				}
			}
		}
	}

	doc, err := forms.Parse(s.cfg.Content)
	if err != nil {
		m.toasts.Error("config.yml: " + err.Error())
		return m, nil
	}
	for _, sec := range dirty {
		if err := doc.Apply(sec, s.state(sec.ID)); err != nil {
			m.toasts.Error(err.Error())
			return m, nil
		}
	}
	out, err := doc.Bytes()
	if err != nil {
		m.toasts.Error(err.Error())
		return m, nil
	}
	content := string(out)
	svc := m.svc
	m.modal = newDiffModal("config.yml", s.cfg.Content, content, func() tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(m.ctx, RequestTimeout)
			defer cancel()
			res, err := svc.SaveConfig(ctx, content)
			if err != nil {
				logger.LogError("save config", err)
			} else {
				logger.Log("saved config.yml from settings")
			}
			return settingsSavedMsg{content: content, result: res, err: err}
		}
	})
	return m, nil
}

func (m Model) renderSettings(width, height int) string {
	s := m.settings
	if s.loadErr != nil && s.cfg == nil {
		return m.renderTitledBox("Settings", "Could not load config.yml: "+errorText(s.loadErr), width, height, true)
	}
	left, right := splitWidths(width)
	return joinColumns(
		m.renderTitledBox("Sections", m.settingsSectionList(height-2), left, height, false),
		m.renderTitledBox(m.settingsTitle(), m.settingsDetail(right-2), right, height, true),
	)
}

func (m Model) settingsTitle() string {
	sec, ok := m.settings.current()
	if !ok {
		return "Libraries"
	}
	title := sec.Title
	if m.settings.state(sec.ID).Dirty() {
		title += " ●"
	}
	return title
}

func (m Model) settingsSectionList(rows int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	s := m.settings
	conn := m.conn.Snapshot()

	names := make([]string, 0, len(s.sections)+1)
	for _, sec := range s.sections {
		label := sec.Title
		if st, ok := conn[sec.Service]; ok && sec.Testable() {
			if st.Success {
				label += " ✓"
			} else {
				label += " ✗"
			}
		}
		if s.state(sec.ID).Dirty() {
			label += " ●"
		}
		names = append(names, label)
	}
	names = append(names, fmt.Sprintf("Libraries (%d)", len(s.libraries)))

	start := 0
	if s.section >= rows {
		start = s.section - rows + 1
	}
	var lines []string
	for i := start; i < len(names) && len(lines) < rows; i++ {
		if i == s.section {
			lines = append(lines, styles.Selected.Render("› "+names[i]))
			continue
		}
		lines = append(lines, styles.Text.Render("  "+names[i]))
	}
	return strings.Join(lines, "\n")
}

func (m Model) settingsDetail(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	s := m.settings

	if s.parseErr != nil {
		return styles.DangerText.Render("config.yml does not parse: " + s.parseErr.Error())
	}

	sec, ok := s.current()
	if !ok {
		return m.renderLibrarySummary(styles)
	}

	st := s.state(sec.ID)
	errs := forms.Validate(sec, st)
	labelWidth := 0
	for _, f := range sec.Fields {
		labelWidth = max(labelWidth, len(f.Label))
	}
	labelWidth += 2

	var lines []string
	for i, f := range sec.Fields {
		value := st.Value(f.Key)
		display := value
		switch {
		case value == "" && f.Default != "":
			display = styles.FaintText.Render(f.Default + " (default)")
		case value == "":
			display = styles.FaintText.Render("—")
		case f.Kind == forms.KindSecret && !s.reveal:
			display = forms.Mask(value)
		}
		if i == s.field && s.editing {
			display = s.input.View()
		}

		marker := "  "
		if i == s.field {
			marker = "› "
		}
		label := padRight(f.Label, labelWidth)
		line := marker + label + display
		if slices.Contains(st.DirtyKeys(), f.Key) {
			line += styles.WarningText.Render(" ●")
		}
		if msg, bad := errs[f.Key]; bad {
			line += styles.DangerText.Render("  " + msg)
		}
		if i == s.field && !s.editing {
			line = styles.Selected.Render(truncate(line, width))
		}
		lines = append(lines, line)
	}

	if s.field < len(sec.Fields) {
		if help := sec.Fields[s.field].Help; help != "" {
			lines = append(lines, "", styles.MutedText.Render(truncate(help, width)))
		}
	}

	if sec.Testable() {
		lines = append(lines, "")
		if st, ok := m.conn.Get(sec.Service); ok {
			style := styles.DangerText
			mark := "✗"
			if st.Success {
				style, mark = styles.SuccessText, "✓"
			}
			lines = append(lines, style.Render(mark+" "+truncate(st.Message, width-4))+
				styles.FaintText.Render("  "+relTime(st.TestedAt, m.now())))
		} else {
			lines = append(lines, styles.FaintText.Render("Not tested. Press t to test the connection."))
		}
	}

	if v := s.cfgValidation(); v != nil && !v.Valid {
		lines = append(lines, "", styles.DangerText.Render("Backend validation:"))
		for _, e := range v.Errors {
			lines = append(lines, styles.DangerText.Render("  "+truncate(e, width-2)))
		}
	}
	return strings.Join(lines, "\n")
}

func (s settingsState) cfgValidation() *kometa.Validation {
	if s.cfg == nil {
		return nil
	}
	return s.cfg.Validation
}

func (m Model) renderLibrarySummary(styles Styles) string {
	libs := m.settings.libraries
	if len(libs) == 0 {
		return styles.MutedText.Render("No libraries in config.yml")
	}
	var lines []string
	for _, lib := range libs {
		lines = append(lines, styles.AccentText.Render(lib.Name))
		for _, f := range lib.CollectionFiles {
			lines = append(lines, styles.Text.Render("  collection  "+f))
		}
		for _, f := range lib.OverlayFiles {
			lines = append(lines, styles.Text.Render("  overlay     "+f))
		}
		if lib.Operations {
			lines = append(lines, styles.Text.Render("  operations"))
		}
	}
	return strings.Join(lines, "\n")
}
