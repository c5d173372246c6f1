package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/connstatus"
	"github.com/five82/marquee/internal/drafts"
	"github.com/five82/marquee/internal/logger"
	"github.com/five82/marquee/internal/prefs"
	"github.com/five82/marquee/internal/query"
	"github.com/five82/marquee/internal/state"
	"github.com/five82/marquee/internal/toast"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Service   *query.Service
	Store     *state.Store
	Conn      *connstatus.Store
	Drafts    *drafts.Store // nil disables drafts
	Toasts    *toast.Queue
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	svc       *query.Service
	store     *state.Store
	conn      *connstatus.Store
	drafts    *drafts.Store
	toasts    *toast.Queue
	prefsPath string
	runTail   int
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme    Theme
	tabs     tabBar
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal
	now      func() time.Time

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Per-tab state
	dashboard dashboardState
	settings  settingsState
	editor    editorState
	library   libraryState
	overlays  overlaysState
	runs      runsState
	scheduler schedulerState
	console   consoleState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	conn := opts.Conn
	if conn == nil {
		conn = &connstatus.Store{}
	}
	toasts := opts.Toasts
	if toasts == nil {
		toasts = toast.NewQueue()
	}
	runTail := opts.Prefs.RunTail
	if runTail <= 0 {
		runTail = 500
	}

	tabs := newTabBar(allTabs()...)
	if id, ok := parseTabID(opts.Prefs.LastTab); ok {
		tabs = tabs.SelectID(id)
	}

	return Model{
		ctx:       ctx,
		svc:       opts.Service,
		store:     store,
		conn:      conn,
		drafts:    opts.Drafts,
		toasts:    toasts,
		prefsPath: prefsPath,
		runTail:   runTail,
		pollTick:  pollTick,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		tabs:      tabs,
		now:       time.Now,
		settings:  newSettingsState(),
		editor:    newEditorState(),
		library:   newLibraryState(),
		runs:      newRunsState(),
		scheduler: newSchedulerState(),
		console:   newConsoleState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.store),
		m.enterTab(m.tabs.Active()),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		wasRunning := m.snapshot.Running()
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.now()
		// The scheduler endpoint is optional; hide its tab once the backend
		// answers without it.
		m.tabs = m.tabs.SetDisabled(tabScheduler, m.snapshot.HasHealth && !m.snapshot.HasScheduler)
		if wasRunning != m.snapshot.Running() && m.svc != nil {
			m.svc.Cache().Invalidate(query.KeyRuns, query.KeyRun)
			if m.tabs.Active() == tabRuns || m.tabs.Active() == tabDashboard {
				return m, m.reloadTab(m.tabs.Active())
			}
		}
		return m, nil

	case mutationMsg:
		if msg.err != nil {
			m.toasts.Error(msg.op + " failed: " + errorText(msg.err))
		} else if msg.success != "" {
			m.toasts.Success(msg.success)
		}
		return m, m.reloadTab(m.tabs.Active())
	}

	return m.updateViews(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		m.persistOnQuit()
		return m, tea.Quit
	}

	// Text entry owns every other key.
	if m.capturingInput() {
		return m.handleViewKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.syncPanes()
		name := m.theme.Name
		if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			logger.Warn("save prefs: %v", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab(m.tabs.Next())

	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab(m.tabs.Prev())

	case key.Matches(msg, m.keys.SelectTab):
		idx := int(msg.String()[0] - '1')
		return m.switchTab(m.tabs.Select(idx))

	case key.Matches(msg, m.keys.Refresh):
		if m.svc != nil {
			m.svc.Cache().Invalidate(tabCacheKeys(m.tabs.Active())...)
		}
		return m, m.reloadTab(m.tabs.Active())
	}

	return m.handleViewKey(msg)
}

// switchTab activates next and loads its data. Leaving the editor with
// unsaved changes stores a draft.
func (m Model) switchTab(next tabBar) (tea.Model, tea.Cmd) {
	if next.Active() == m.tabs.Active() {
		m.tabs = next
		return m, nil
	}
	var cmds []tea.Cmd
	if m.tabs.Active() == tabEditor {
		cmds = append(cmds, m.saveDraftCmd())
	}
	m.tabs = next
	cmds = append(cmds, m.enterTab(next.Active()))
	return m, tea.Batch(cmds...)
}

// handleViewKey dispatches to the active tab.
func (m Model) handleViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.tabs.Active() {
	case tabDashboard:
		return m.handleDashboardKey(msg)
	case tabSettings:
		return m.handleSettingsKey(msg)
	case tabEditor:
		return m.handleEditorKey(msg)
	case tabLibrary:
		return m.handleLibraryKey(msg)
	case tabOverlays:
		return m.handleOverlaysKey(msg)
	case tabRuns:
		return m.handleRunsKey(msg)
	case tabScheduler:
		return m.handleSchedulerKey(msg)
	case tabConsole:
		return m.handleConsoleKey(msg)
	}
	return m, nil
}

// capturingInput reports whether the active tab has a focused text field.
func (m Model) capturingInput() bool {
	switch m.tabs.Active() {
	case tabSettings:
		return m.settings.editing
	case tabEditor:
		return m.editor.focus == editorFocusBuffer || m.editor.filtering
	case tabLibrary:
		return m.library.searching
	case tabRuns:
		return m.runs.logs.searchActive
	case tabConsole:
		return m.console.pane.searchActive
	}
	return false
}

// enterTab loads what a tab needs when it becomes active.
func (m Model) enterTab(id tabID) tea.Cmd {
	if m.svc == nil {
		return nil
	}
	switch id {
	case tabDashboard:
		return m.loadDashboard()
	case tabSettings:
		return m.loadSettings()
	case tabEditor:
		return m.loadEditorFiles()
	case tabLibrary:
		return m.loadLibraries()
	case tabOverlays:
		return m.loadOverlays()
	case tabRuns:
		return m.loadRuns()
	case tabScheduler:
		return m.loadScheduler()
	case tabConsole:
		return refreshConsoleCmd()
	}
	return nil
}

// reloadTab refetches the active tab after a write. Reads go through the
// query cache, so only invalidated keys hit the backend.
func (m Model) reloadTab(id tabID) tea.Cmd {
	return m.enterTab(id)
}

// tabCacheKeys lists the cache prefixes a manual refresh drops.
func tabCacheKeys(id tabID) []string {
	switch id {
	case tabDashboard:
		return []string{query.KeySettings, query.KeyRunPlan}
	case tabSettings:
		return []string{query.KeyConfig}
	case tabEditor:
		return []string{query.KeyFiles, query.KeyConfig}
	case tabLibrary:
		return []string{query.KeyLibraries, query.KeyMetadata}
	case tabOverlays:
		return []string{query.KeyOverlays, query.KeyPlaylists, query.KeyBuilders}
	case tabRuns:
		return []string{query.KeyRuns}
	case tabScheduler:
		return []string{query.KeyScheduler, query.KeySchedule}
	}
	return nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{fetchSnapshotCmd(m.store)}
	m.toasts.Prune(m.now())
	if m.tabs.Active() == tabConsole {
		cmds = append(cmds, refreshConsoleCmd())
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// updateViews routes non-key messages to the tab that issued them.
func (m Model) updateViews(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardSettingsMsg, dashboardPlanMsg:
		return m.updateDashboard(msg)
	case settingsConfigMsg, settingsSavedMsg, connTestMsg:
		return m.updateSettings(msg)
	case editorFilesMsg, editorFileMsg, editorNewFileMsg, editorValidateMsg, editorSavedMsg, editorBackupsMsg, draftSavedMsg:
		return m.updateEditor(msg)
	case librariesMsg, browseMsg, itemMetadataMsg, metadataYAMLMsg:
		return m.updateLibrary(msg)
	case overlaysMsg, overlayPreviewRequestMsg, overlayPreviewMsg, playlistSubmitMsg:
		return m.updateOverlays(msg)
	case runsMsg, runDiffMsg, runLogsMsg, logStreamOpenMsg, logStreamMsg, logStreamClosedMsg:
		return m.updateRuns(msg)
	case schedulerMsg:
		return m.updateScheduler(msg)
	case consoleMsg:
		return m.updateConsole(msg)
	}
	if m.tabs.Active() == tabEditor {
		return m.updateEditorInput(msg)
	}
	return m, nil
}

// resize propagates the window size to tabs with sized widgets.
func (m *Model) resize() {
	h := m.contentHeight()
	m.dashboard.resize(m.width, h)
	m.editor.resize(m.width, h)
	m.runs.logs.resize(m.width-2, h-3)
	m.console.pane.resize(m.width-2, h-3)
	m.syncPanes()
}

// syncPanes re-renders the log panes after a size or theme change.
func (m *Model) syncPanes() {
	m.runs.logs.sync(m.theme)
	m.console.pane.sync(m.theme)
}

// contentHeight is the space below the header, tab bar and command bar.
func (m Model) contentHeight() int {
	h := m.height - chromeRows - len(m.toasts.Active(m.now()))
	if h < 3 {
		h = 3
	}
	return h
}

// persistOnQuit stores the editor draft and the active tab.
func (m Model) persistOnQuit() {
	if cmd := m.saveDraftCmd(); cmd != nil {
		_ = cmd()
	}
	last := m.tabs.Active().String()
	if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.LastTab = last }); err != nil {
		logger.Warn("save prefs: %v", err)
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.tabs.View(m.theme, m.width))
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	if t := m.renderToasts(); t != "" {
		b.WriteString("\n")
		b.WriteString(t)
	}
	return b.String()
}

// renderContent renders the active tab.
func (m Model) renderContent() string {
	w, h := m.width, m.contentHeight()
	switch m.tabs.Active() {
	case tabDashboard:
		return m.renderDashboard(w, h)
	case tabSettings:
		return m.renderSettings(w, h)
	case tabEditor:
		return m.renderEditor(w, h)
	case tabLibrary:
		return m.renderLibrary(w, h)
	case tabOverlays:
		return m.renderOverlays(w, h)
	case tabRuns:
		return m.renderRuns(w, h)
	case tabScheduler:
		return m.renderScheduler(w, h)
	case tabConsole:
		return m.renderConsole(w, h)
	}
	return ""
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	if err == tea.ErrProgramKilled {
		return nil
	}
	return err
}
