package ui

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/five82/marquee/internal/drafts"
	"github.com/five82/marquee/internal/history"
	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/logger"
	"github.com/five82/marquee/internal/yamlview"
)

const configFilename = "config.yml"

type editorFocus int

const (
	editorFocusList editorFocus = iota
	editorFocusBuffer
)

// editorFile is one entry of the file list.
type editorFile struct {
	name     string
	fileType string // "config", "collection" or "overlay"
	size     int64
	modified string
}

type editorFilesMsg struct {
	files  []kometa.CollectionFile
	drafts map[string]bool
	err    error
}

type editorFileMsg struct {
	name     string
	fileType string
	content  string
	isNew    bool
	draft    *drafts.Draft
	err      error
}

type editorNewFileMsg struct {
	name string
}

type editorValidateMsg struct {
	name   string
	result *kometa.Validation
	err    error
}

type editorSavedMsg struct {
	name    string
	content string
	result  *kometa.SaveResult
	err     error
}

type editorBackupsMsg struct {
	backups []kometa.Backup
	err     error
}

type draftSavedMsg struct {
	name    string
	deleted bool
	err     error
}

// openFile is the buffer being edited.
type openFile struct {
	name     string
	fileType string
	saved    string // content as last loaded or saved
	hist     *history.History[string]
	syntax   error
	backend  *kometa.Validation
	notice   string
}

// editorState is the Editor tab.
type editorState struct {
	files     []editorFile
	drafts    map[string]bool
	filesErr  error
	cfgText   string
	cfgLoaded bool

	cursor      int
	filter      string
	filtering   bool
	filterInput textinput.Model

	focus   editorFocus
	open    *openFile
	loading string
	buffer  textarea.Model

	width, height int
}

func newEditorState() editorState {
	fi := textinput.New()
	fi.Placeholder = "Filter files..."
	fi.CharLimit = 64
	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""
	return editorState{
		drafts:      map[string]bool{},
		filterInput: fi,
		buffer:      ta,
	}
}

func (e *editorState) resize(width, height int) {
	e.width, e.height = width, height
	left, bufWidth := splitWidths(width)
	if width >= 2*LayoutCompactWidth-40 {
		bufWidth = (width - left) / 2
	}
	e.buffer.SetWidth(max(bufWidth-2, 10))
	e.buffer.SetHeight(max(height-4, 3))
}

// dirty reports whether the open buffer differs from the saved content.
func (e editorState) dirty() bool {
	return e.open != nil && e.buffer.Value() != e.open.saved
}

func (e editorState) dirtyCount() int {
	if e.dirty() {
		return 1
	}
	return 0
}

// visible returns the file list after the fuzzy filter, best match first.
func (e editorState) visible() []editorFile {
	if e.filter == "" {
		return e.files
	}
	names := make([]string, len(e.files))
	for i, f := range e.files {
		names[i] = f.name
	}
	matches := fuzzy.Find(e.filter, names)
	out := make([]editorFile, 0, len(matches))
	for _, match := range matches {
		out = append(out, e.files[match.Index])
	}
	return out
}

func (e editorState) selected() (editorFile, bool) {
	vis := e.visible()
	if e.cursor < 0 || e.cursor >= len(vis) {
		return editorFile{}, false
	}
	return vis[e.cursor], true
}

// configLoaded tracks config.yml as fetched for the settings tab and
// refreshes a clean open buffer.
func (e *editorState) configLoaded(cfg *kometa.ConfigFile, err error) {
	if err != nil || cfg == nil {
		return
	}
	e.cfgText = cfg.Content
	e.cfgLoaded = true
	if e.open != nil && e.open.name == configFilename && !e.dirty() && e.open.saved != cfg.Content {
		e.open.saved = cfg.Content
		e.buffer.SetValue(cfg.Content)
		e.open.hist.Reset(cfg.Content)
		e.open.syntax = yamlview.Validate(cfg.Content)
	}
}

func (m Model) loadEditorFiles() tea.Cmd {
	svc, store := m.svc, m.drafts
	files := load(m.ctx, svc.CollectionFiles, func(files []kometa.CollectionFile, err error) tea.Msg {
		msg := editorFilesMsg{files: files, err: err, drafts: map[string]bool{}}
		if store != nil {
			list, derr := store.List(context.Background())
			if derr != nil {
				logger.Warn("list drafts: %v", derr)
			}
			for _, d := range list {
				msg.drafts[d.Filename] = true
			}
		}
		return msg
	})
	return tea.Batch(files, m.loadSettings())
}

// openFileCmd fetches name from the backend together with any stored draft.
func (m Model) openFileCmd(f editorFile) tea.Cmd {
	svc, store := m.svc, m.drafts
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, RequestTimeout)
		defer cancel()
		msg := editorFileMsg{name: f.name, fileType: f.fileType}
		if f.fileType == "config" {
			cfg, err := svc.Config(ctx)
			if err != nil {
				msg.err = err
				return msg
			}
			msg.content = cfg.Content
		} else {
			fc, err := svc.CollectionFile(ctx, f.name)
			switch {
			case kometa.IsNotFound(err):
				msg.isNew = true
			case err != nil:
				msg.err = err
				return msg
			default:
				msg.content = fc.Content
				msg.isNew = !fc.Exists
			}
		}
		msg.draft = lookupDraft(ctx, store, f.name)
		return msg
	}
}

func lookupDraft(ctx context.Context, store *drafts.Store, name string) *drafts.Draft {
	if store == nil {
		return nil
	}
	d, err := store.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, drafts.ErrNotFound) {
			logger.Warn("load draft %s: %v", name, err)
		}
		return nil
	}
	return d
}

// saveDraftCmd stores the open buffer as a draft when it has unsaved
// changes, and drops a leftover draft when it does not.
func (m Model) saveDraftCmd() tea.Cmd {
	e := m.editor
	if m.drafts == nil || e.open == nil {
		return nil
	}
	store := m.drafts
	d := drafts.Draft{
		Filename: e.open.name,
		FileType: e.open.fileType,
		Content:  e.buffer.Value(),
		BaseHash: drafts.Hash(e.open.saved),
	}
	dirty := e.dirty()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		if !dirty {
			return draftSavedMsg{name: d.Filename, deleted: true, err: store.Delete(ctx, d.Filename)}
		}
		err := store.Save(ctx, d)
		if err != nil {
			logger.LogError("save draft", err)
		}
		return draftSavedMsg{name: d.Filename, err: err}
	}
}

func (m Model) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	e := &m.editor
	switch msg := msg.(type) {
	case editorFilesMsg:
		e.filesErr = msg.err
		if msg.err != nil {
			return m, nil
		}
		files := []editorFile{{name: configFilename, fileType: "config"}}
		for _, f := range msg.files {
			ft := f.Type
			if ft == "" {
				ft = "collection"
			}
			files = append(files, editorFile{name: f.Name, fileType: ft, size: f.Size, modified: f.Modified})
		}
		e.files = files
		e.drafts = msg.drafts
		e.cursor = clampIndex(e.cursor, len(e.visible()))

	case editorFileMsg:
		if msg.name != e.loading {
			return m, nil
		}
		e.loading = ""
		if msg.err != nil {
			m.toasts.Error(fmt.Sprintf("Open %s failed: %s", msg.name, errorText(msg.err)))
			return m, nil
		}
		m.openBuffer(msg)
		return m, e.buffer.Focus()

	case editorNewFileMsg:
		var cmds []tea.Cmd
		if e.open != nil {
			cmds = append(cmds, m.saveDraftCmd())
		}
		ft := newFileType(msg.name)
		e.files = append(e.files, editorFile{name: msg.name, fileType: ft})
		e.loading = ""
		m.openBuffer(editorFileMsg{name: msg.name, fileType: ft, isNew: true})
		cmds = append(cmds, e.buffer.Focus())
		return m, tea.Batch(cmds...)

	case editorValidateMsg:
		if e.open == nil || e.open.name != msg.name {
			return m, nil
		}
		if msg.err != nil {
			m.toasts.Error("Validate failed: " + errorText(msg.err))
			return m, nil
		}
		e.open.backend = msg.result
		if msg.result.Valid {
			m.toasts.Success(msg.name + " is valid")
		} else {
			m.toasts.Error(fmt.Sprintf("%s has %d error(s)", msg.name, len(msg.result.Errors)))
		}

	case editorSavedMsg:
		if msg.err != nil {
			m.toasts.Error(fmt.Sprintf("Save %s failed: %s", msg.name, errorText(msg.err)))
			return m, nil
		}
		if e.open != nil && e.open.name == msg.name {
			e.open.saved = msg.content
			e.open.notice = ""
			if msg.result != nil {
				e.open.backend = msg.result.Validation
			}
		}
		delete(e.drafts, msg.name)
		m.toasts.Success(msg.name + " saved")
		cmds := []tea.Cmd{m.loadEditorFiles()}
		if m.drafts != nil {
			store, name := m.drafts, msg.name
			cmds = append(cmds, func() tea.Msg {
				return draftSavedMsg{name: name, deleted: true, err: store.Delete(context.Background(), name)}
			})
		}
		return m, tea.Batch(cmds...)

	case editorBackupsMsg:
		if msg.err != nil {
			m.toasts.Error("Load backups failed: " + errorText(msg.err))
			return m, nil
		}
		m.modal = m.newBackupsModal(msg.backups)

	case draftSavedMsg:
		if msg.err != nil {
			m.toasts.Error("Draft not saved: " + msg.err.Error())
			return m, nil
		}
		if msg.deleted {
			delete(e.drafts, msg.name)
		} else {
			e.drafts[msg.name] = true
		}
	}
	return m, nil
}

// openBuffer loads a fetched file into the textarea, restoring a draft
// when one exists.
func (m *Model) openBuffer(msg editorFileMsg) {
	e := &m.editor
	content := msg.content
	if msg.isNew && content == "" {
		content = newFileTemplate(msg.fileType)
	}
	f := &openFile{name: msg.name, fileType: msg.fileType, saved: msg.content}
	if msg.draft != nil && msg.draft.Content != msg.content {
		content = msg.draft.Content
		f.notice = "Restored unsaved draft from " + relTime(msg.draft.UpdatedAt, m.now())
		if msg.draft.Stale(msg.content) {
			f.notice += ". The file changed on the server since."
		}
		m.toasts.Info("Restored draft of " + msg.name)
	}
	f.hist = history.New(content, history.Options{})
	f.syntax = yamlview.Validate(content)
	e.open = f
	e.buffer.SetValue(content)
	e.buffer.CursorStart()
	e.focus = editorFocusBuffer
}

func newFileTemplate(fileType string) string {
	if fileType == "overlay" {
		return "overlays:\n"
	}
	return "collections:\n"
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := &m.editor

	if e.filtering {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			e.filtering = false
			e.filterInput.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Escape):
			e.filtering = false
			e.filter = ""
			e.filterInput.SetValue("")
			e.filterInput.Blur()
			e.cursor = 0
			return m, nil
		}
		var cmd tea.Cmd
		e.filterInput, cmd = e.filterInput.Update(msg)
		e.filter = strings.TrimSpace(e.filterInput.Value())
		e.cursor = 0
		return m, cmd
	}

	if e.focus == editorFocusBuffer && e.open != nil {
		return m.handleBufferKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		e.cursor = clampIndex(e.cursor-1, len(e.visible()))
	case key.Matches(msg, m.keys.Down):
		e.cursor = clampIndex(e.cursor+1, len(e.visible()))
	case key.Matches(msg, m.keys.Top):
		e.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		e.cursor = clampIndex(len(e.visible())-1, len(e.visible()))

	case key.Matches(msg, m.keys.Search):
		e.filtering = true
		e.filterInput.SetValue(e.filter)
		return m, e.filterInput.Focus()

	case key.Matches(msg, m.keys.Confirm):
		f, ok := e.selected()
		if !ok || m.svc == nil {
			return m, nil
		}
		if e.open != nil && e.open.name == f.name {
			e.focus = editorFocusBuffer
			return m, e.buffer.Focus()
		}
		var cmds []tea.Cmd
		if e.open != nil {
			cmds = append(cmds, m.saveDraftCmd())
		}
		e.loading = f.name
		cmds = append(cmds, m.openFileCmd(f))
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Right):
		if e.open != nil {
			e.focus = editorFocusBuffer
			return m, e.buffer.Focus()
		}

	case key.Matches(msg, m.keys.NewFile):
		m.modal = newPromptModal("new-file", "New collection or overlay file", "File name (overlay files contain \"overlay\")", "Movies.yml",
			validateNewFilename(e.files),
			func(name string) tea.Cmd {
				return func() tea.Msg { return editorNewFileMsg{name: name} }
			})
		return m, nil

	case key.Matches(msg, m.keys.Validate):
		return m, m.validateBufferCmd()

	case key.Matches(msg, m.keys.Save):
		return m.confirmSave()

	case key.Matches(msg, m.keys.Backups):
		if m.svc == nil {
			return m, nil
		}
		return m, load(m.ctx, m.svc.Backups, func(b []kometa.Backup, err error) tea.Msg {
			return editorBackupsMsg{backups: b, err: err}
		})

	case key.Matches(msg, m.keys.DiscardDraft):
		if e.open == nil {
			return m, nil
		}
		e.buffer.SetValue(e.open.saved)
		e.open.hist.Reset(e.open.saved)
		e.open.syntax = yamlview.Validate(e.open.saved)
		e.open.notice = ""
		m.toasts.Info("Discarded changes to " + e.open.name)
		return m, m.saveDraftCmd()
	}
	return m, nil
}

func (m Model) handleBufferKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := &m.editor
	switch {
	case key.Matches(msg, m.keys.Escape):
		e.focus = editorFocusList
		e.buffer.Blur()
		return m, m.saveDraftCmd()
	case key.Matches(msg, m.keys.Save):
		return m.confirmSave()
	}

	if v, ok := e.open.hist.HandleKey(msg); ok {
		if v != e.buffer.Value() {
			e.buffer.SetValue(v)
			e.open.syntax = yamlview.Validate(v)
		}
		return m, nil
	}

	before := e.buffer.Value()
	var cmd tea.Cmd
	e.buffer, cmd = e.buffer.Update(msg)
	if after := e.buffer.Value(); after != before {
		e.open.hist.SetValue(after)
		e.open.syntax = yamlview.Validate(after)
	}
	return m, cmd
}

// updateEditorInput forwards non-key messages such as cursor blinks.
func (m Model) updateEditorInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	e := &m.editor
	var cmd tea.Cmd
	switch {
	case e.filtering:
		e.filterInput, cmd = e.filterInput.Update(msg)
	case e.focus == editorFocusBuffer:
		e.buffer, cmd = e.buffer.Update(msg)
	}
	return m, cmd
}

// newFileType classifies a new file the way the backend lists existing ones:
// names mentioning "overlay" are saved under config/overlays.
func newFileType(name string) string {
	if strings.Contains(strings.ToLower(name), "overlay") {
		return "overlay"
	}
	return "collection"
}

// validateNewFilename rejects paths, duplicates and non-YAML names.
func validateNewFilename(existing []editorFile) func(string) error {
	return func(name string) error {
		switch {
		case name == "":
			return errors.New("name is required")
		case strings.ContainsAny(name, `/\`) || path.Base(name) != name:
			return errors.New("name must not contain a path")
		case !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml"):
			return errors.New("name must end in .yml or .yaml")
		case name == configFilename:
			return errors.New("config.yml already exists")
		}
		for _, f := range existing {
			if f.name == name {
				return fmt.Errorf("%s already exists", name)
			}
		}
		return nil
	}
}

// validateBufferCmd checks syntax locally and asks the backend to validate
// config.yml.
func (m Model) validateBufferCmd() tea.Cmd {
	e := m.editor
	if e.open == nil {
		return nil
	}
	content := e.buffer.Value()
	if err := yamlview.Validate(content); err != nil {
		m.toasts.Error(err.Error())
		return nil
	}
	if e.open.fileType != "config" || m.svc == nil {
		m.toasts.Success(e.open.name + " is valid YAML")
		return nil
	}
	name := e.open.name
	return load(m.ctx, func(ctx context.Context) (*kometa.Validation, error) {
		return m.svc.ValidateConfig(ctx, content)
	}, func(v *kometa.Validation, err error) tea.Msg {
		return editorValidateMsg{name: name, result: v, err: err}
	})
}

// confirmSave opens the diff preview for the open buffer.
func (m Model) confirmSave() (tea.Model, tea.Cmd) {
	e := m.editor
	if e.open == nil || m.svc == nil {
		return m, nil
	}
	content := e.buffer.Value()
	if content == e.open.saved {
		m.toasts.Info("No changes to save")
		return m, nil
	}
	if err := yamlview.Validate(content); err != nil {
		m.toasts.Warn("Saving with a YAML error: " + err.Error())
	}
	svc := m.svc
	name, fileType := e.open.name, e.open.fileType
	parent := m.ctx
	m.modal = newDiffModal(name, e.open.saved, content, func() tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(parent, RequestTimeout)
			defer cancel()
			var (
				res *kometa.SaveResult
				err error
			)
			if fileType == "config" {
				res, err = svc.SaveConfig(ctx, content)
			} else {
				res, err = svc.SaveCollectionFile(ctx, name, content, fileType)
			}
			if err != nil {
				logger.LogError("save "+name, err)
			} else {
				logger.Log("saved %s", name)
			}
			return editorSavedMsg{name: name, content: content, result: res, err: err}
		}
	})
	return m, nil
}

func (m Model) renderEditor(width, height int) string {
	e := m.editor
	left, right := splitWidths(width)
	list := m.renderTitledBox("Files", m.editorFileList(left-2, height-2), left, height, e.focus == editorFocusList)

	if e.open == nil {
		hint := "Select a file and press enter to edit."
		if e.loading != "" {
			hint = "Loading " + e.loading + "..."
		}
		if e.filesErr != nil {
			hint = "Could not list files: " + errorText(e.filesErr)
		}
		return joinColumns(list, m.renderTitledBox("Editor", hint, right, height, false))
	}

	title := e.open.name
	if e.dirty() {
		title += " ●"
	}
	status := m.editorStatus(right - 2)
	paneHeight := height - lipgloss.Height(status)

	split := width >= 2*LayoutCompactWidth-40
	if split {
		bufWidth := (width - left) / 2
		prevWidth := width - left - bufWidth
		buffer := m.renderTitledBox(title, e.buffer.View(), bufWidth, paneHeight, e.focus == editorFocusBuffer)
		preview := m.renderTitledBox("Preview", m.editorPreview(paneHeight-2), prevWidth, paneHeight, false)
		return joinColumns(list, joinColumns(buffer, preview)+"\n"+status)
	}

	var body string
	if e.focus == editorFocusBuffer {
		body = m.renderTitledBox(title, e.buffer.View(), right, paneHeight, true)
	} else {
		body = m.renderTitledBox(title, m.editorPreview(paneHeight-2), right, paneHeight, false)
	}
	return joinColumns(list, body+"\n"+status)
}

func (m Model) editorFileList(width, rows int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	e := m.editor
	var lines []string
	if e.filtering || e.filter != "" {
		lines = append(lines, styles.AccentText.Render("/")+e.filterInput.View())
		rows--
	}
	vis := e.visible()
	if len(vis) == 0 {
		return strings.Join(append(lines, styles.MutedText.Render("No files")), "\n")
	}
	start := 0
	if e.cursor >= rows {
		start = e.cursor - rows + 1
	}
	for i := start; i < len(vis) && i-start < rows; i++ {
		f := vis[i]
		tag := "  "
		switch {
		case e.open != nil && e.open.name == f.name && e.dirty():
			tag = styles.WarningText.Render("● ")
		case e.drafts[f.name]:
			tag = styles.InfoText.Render("◆ ")
		}
		label := truncate(f.name, width-10)
		meta := f.fileType
		if f.fileType == "config" {
			meta = ""
		}
		line := tag + padRight(label, width-10) + styles.FaintText.Render(truncate(meta, 8))
		if i == e.cursor {
			line = styles.Selected.Render(tag + padRight(label, width-10) + truncate(meta, 8))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// editorPreview highlights the buffer around the cursor line.
func (m Model) editorPreview(rows int) string {
	e := m.editor
	errLine := 0
	var syn *yamlview.SyntaxError
	if e.open != nil && errors.As(e.open.syntax, &syn) {
		errLine = syn.Line
	}
	lines := highlightYAML(m.theme, e.buffer.Value(), errLine)
	start := max(e.buffer.Line()-rows/2, 0)
	if start > len(lines) {
		start = len(lines)
	}
	end := min(start+rows, len(lines))
	return strings.Join(lines[start:end], "\n")
}

// editorStatus is the line under the buffer: syntax state, backend
// validation and the draft notice.
func (m Model) editorStatus(width int) string {
	styles := m.theme.Styles()
	e := m.editor
	var parts []string
	if e.open.syntax != nil {
		parts = append(parts, styles.DangerText.Render(truncate(e.open.syntax.Error(), width)))
	} else {
		parts = append(parts, styles.SuccessText.Render("✓ YAML ok")+
			styles.FaintText.Render(fmt.Sprintf("  ln %d  %s lines", e.buffer.Line()+1, count(e.buffer.LineCount()))))
	}
	if v := e.open.backend; v != nil {
		for _, msg := range v.Errors {
			parts = append(parts, styles.DangerText.Render(truncate("✗ "+msg, width)))
		}
		for _, msg := range v.Warnings {
			parts = append(parts, styles.WarningText.Render(truncate("! "+msg, width)))
		}
	}
	if e.open.notice != "" {
		parts = append(parts, styles.InfoText.Render(truncate(e.open.notice, width)))
	}
	if len(parts) > 4 {
		parts = append(parts[:3], styles.FaintText.Render(fmt.Sprintf("… %d more", len(parts)-3)))
	}
	return strings.Join(parts, "\n")
}

// backupsModal lists config.yml backups.
type backupsModal struct {
	dialog
	backups   []kometa.Backup
	cursor    int
	onCreate  func() tea.Cmd
	onRestore func(string) tea.Cmd
	onDelete  func(string) tea.Cmd
}

func (m Model) newBackupsModal(backups []kometa.Backup) *backupsModal {
	svc, ctx := m.svc, m.ctx
	return &backupsModal{
		dialog:  newDialog("backups", "config.yml backups", 70),
		backups: backups,
		onCreate: func() tea.Cmd {
			return mutate(ctx, "create backup", "Backup created", func(ctx context.Context) error {
				_, err := svc.CreateBackup(ctx)
				return err
			})
		},
		onRestore: func(name string) tea.Cmd {
			return mutate(ctx, "restore backup", "Restored "+name, func(ctx context.Context) error {
				return svc.RestoreBackup(ctx, name)
			})
		},
		onDelete: func(name string) tea.Cmd {
			return mutate(ctx, "delete backup", "Deleted "+name, func(ctx context.Context) error {
				return svc.DeleteBackup(ctx, name)
			})
		},
	}
}

func (b *backupsModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil, false
	}
	switch {
	case key.Matches(km, keys.Escape):
		return b, nil, true
	case key.Matches(km, keys.Up):
		b.cursor = clampIndex(b.cursor-1, len(b.backups))
	case key.Matches(km, keys.Down):
		b.cursor = clampIndex(b.cursor+1, len(b.backups))
	case key.Matches(km, keys.NewFile):
		return b, b.onCreate(), true
	case key.Matches(km, keys.Confirm):
		if len(b.backups) > 0 {
			return b, b.onRestore(b.backups[b.cursor].Filename), true
		}
	case key.Matches(km, keys.Delete):
		if len(b.backups) > 0 {
			return b, b.onDelete(b.backups[b.cursor].Filename), true
		}
	}
	return b, nil, false
}

func (b *backupsModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var lines []string
	if len(b.backups) == 0 {
		lines = append(lines, styles.MutedText.Render("No backups yet."))
	}
	for i, bk := range b.backups {
		line := fmt.Sprintf("%-36s %10s  %s", truncate(bk.Filename, 36), formatSize(bk.Size), bk.Created)
		if i == b.cursor {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", modalHints(theme, "enter", "Restore", "n", "New backup", "d", "Delete", "esc", "Close"))
	return b.Render(theme, strings.Join(lines, "\n"), width, height)
}
