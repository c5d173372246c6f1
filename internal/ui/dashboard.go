package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/marquee/internal/kometa"
)

type dashboardSettingsMsg struct {
	settings *kometa.Settings
	err      error
}

type dashboardPlanMsg struct {
	plan kometa.RunPlan
	err  error
}

// dashboardState holds the settings and run plan shown on the dashboard.
type dashboardState struct {
	settings    *kometa.Settings
	settingsErr error
	plan        kometa.RunPlan
	planErr     error
	planLoaded  bool
	vp          viewport.Model
}

func (d *dashboardState) resize(width, height int) {
	_, right := splitWidths(width)
	if width < LayoutSplitWidth {
		right = width
		height = height / 2
	}
	d.vp.Width = max(right-2, 1)
	d.vp.Height = max(height-2, 1)
	d.renderPlan()
}

func (d *dashboardState) renderPlan() {
	if d.vp.Width == 0 {
		return
	}
	switch {
	case d.planErr != nil:
		d.vp.SetContent("Run plan unavailable: " + errorText(d.planErr))
	case !d.planLoaded:
		d.vp.SetContent("Loading run plan...")
	default:
		d.vp.SetContent(renderMarkdown(planMarkdown(d.plan), d.vp.Width))
	}
}

func (m Model) loadDashboard() tea.Cmd {
	return tea.Batch(
		load(m.ctx, m.svc.Settings, func(s *kometa.Settings, err error) tea.Msg {
			return dashboardSettingsMsg{settings: s, err: err}
		}),
		load(m.ctx, m.svc.RunPlan, func(p kometa.RunPlan, err error) tea.Msg {
			return dashboardPlanMsg{plan: p, err: err}
		}),
	)
}

func (m Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardSettingsMsg:
		m.dashboard.settings, m.dashboard.settingsErr = msg.settings, msg.err
	case dashboardPlanMsg:
		m.dashboard.plan, m.dashboard.planErr = msg.plan, msg.err
		m.dashboard.planLoaded = true
		m.dashboard.renderPlan()
	}
	return m, nil
}

// applyEnabled prefers the settings endpoint and falls back to health.
func (m Model) applyEnabled() bool {
	if m.dashboard.settings != nil {
		return m.dashboard.settings.ApplyEnabled
	}
	return m.snapshot.Health.ApplyEnabled
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.svc == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.DryRun):
		if m.snapshot.Running() {
			m.toasts.Warn("A run is already in progress")
			return m, nil
		}
		return m, m.startRunCmd(kometa.RunRequest{DryRun: true})

	case key.Matches(msg, m.keys.ApplyRun):
		if m.snapshot.Running() {
			m.toasts.Warn("A run is already in progress")
			return m, nil
		}
		if !m.applyEnabled() {
			m.toasts.Warn("Apply mode is off. Press M to enable it first.")
			return m, nil
		}
		m.modal = newConfirmModal("apply-run", "Apply changes",
			"This run writes changes to your Plex server.",
			kometa.ApplyConfirmation,
			func() tea.Cmd {
				return m.startRunCmd(kometa.RunRequest{Confirmation: kometa.ApplyConfirmation})
			})
		return m, nil

	case key.Matches(msg, m.keys.StopRun):
		if !m.snapshot.Running() {
			m.toasts.Info("No run in progress")
			return m, nil
		}
		svc := m.svc
		return m, mutate(m.ctx, "stop run", "Stop requested", svc.StopRun)

	case key.Matches(msg, m.keys.ApplyToggle):
		enable := !m.applyEnabled()
		success := "Apply mode disabled"
		if enable {
			success = "Apply mode enabled"
		}
		svc := m.svc
		return m, mutate(m.ctx, "set apply mode", success, func(ctx context.Context) error {
			return svc.SetApplyEnabled(ctx, enable)
		})

	case key.Matches(msg, m.keys.Down):
		m.dashboard.vp.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.dashboard.vp.ScrollUp(1)
	case key.Matches(msg, m.keys.HalfPageDown), key.Matches(msg, m.keys.PageDown):
		m.dashboard.vp.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp), key.Matches(msg, m.keys.PageUp):
		m.dashboard.vp.HalfPageUp()
	case key.Matches(msg, m.keys.Top):
		m.dashboard.vp.GotoTop()
	}
	return m, nil
}

// startRunCmd starts a dry or apply run and records the returned status so
// the header updates before the next poll.
func (m Model) startRunCmd(req kometa.RunRequest) tea.Cmd {
	svc, store := m.svc, m.store
	op, success := "dry run", "Dry run started"
	start := svc.StartRun
	if !req.DryRun {
		op, success = "apply run", "Apply run started"
		start = svc.ApplyRun
	}
	return mutate(m.ctx, op, success, func(ctx context.Context) error {
		run, err := start(ctx, req)
		if err != nil {
			return err
		}
		store.SetRun(kometa.RunStatus{
			Running:   true,
			RunID:     run.ID,
			Status:    run.Status,
			DryRun:    run.DryRun,
			StartedAt: run.StartedAt,
		})
		return nil
	})
}

func (m Model) renderDashboard(width, height int) string {
	status := m.dashboardStatusLines()
	plan := m.dashboard.vp.View()

	if width < LayoutSplitWidth {
		top := height - height/2
		return m.renderTitledBox("Status", status, width, top, false) + "\n" +
			m.renderTitledBox("Run Plan", plan, width, height-top, true)
	}
	left, right := splitWidths(width)
	return joinColumns(
		m.renderTitledBox("Status", status, left, height, false),
		m.renderTitledBox("Run Plan", plan, right, height, true),
	)
}

func (m Model) dashboardStatusLines() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	snap := m.snapshot
	now := m.now()

	var lines []string
	add := func(label, value string, style lipgloss.Style) {
		lines = append(lines, styles.MutedText.Render(padRight(label, 10))+style.Render(value))
	}

	switch {
	case !snap.HasHealth && snap.LastError != nil:
		add("Backend", classifyConnectionError(snap.LastError), styles.DangerText)
	case !snap.HasHealth:
		add("Backend", "connecting...", styles.WarningText)
	case snap.IsOffline():
		add("Backend", "offline", styles.DangerText)
	default:
		add("Backend", snap.Health.Status, styles.SuccessText)
	}
	if s := m.dashboard.settings; s != nil {
		if s.Version != "" {
			add("Version", s.Version, styles.Text)
		}
		if s.UIMode != "" {
			add("UI mode", s.UIMode, styles.Text)
		}
	}
	if snap.Health.ConfigDir != "" {
		add("Config", truncateMiddle(snap.Health.ConfigDir, 20), styles.Text)
	}
	if m.applyEnabled() {
		add("Mode", "APPLY ENABLED", styles.DangerText)
	} else {
		add("Mode", "dry run only", styles.InfoText)
	}

	lines = append(lines, "")
	if snap.HasRun {
		run := snap.Run
		statusText := run.Status
		if statusText == "" {
			statusText = "idle"
		}
		add("Run", statusText, styles.StatusStyle(statusText))
		if run.RunID != "" {
			add("Run ID", truncateMiddle(run.RunID, 20), styles.Text)
		}
		if run.Running {
			started := (kometa.Run{StartedAt: run.StartedAt}).Started()
			add("Elapsed", formatDuration(now.Sub(started)), styles.Text)
			kind := "apply"
			if run.DryRun {
				kind = "dry run"
			}
			add("Kind", kind, styles.Text)
		}
		if run.Message != "" {
			lines = append(lines, styles.FaintText.Render(run.Message))
		}
	} else {
		add("Run", "unknown", styles.MutedText)
	}

	lines = append(lines, "")
	switch {
	case !snap.HasScheduler:
		add("Scheduler", "unavailable", styles.MutedText)
	case snap.Scheduler.Enabled:
		add("Scheduler", snap.Scheduler.Schedule, styles.SuccessText)
		add("Next run", relTime(snap.Scheduler.NextRunAt(), now), styles.Text)
	default:
		add("Scheduler", "disabled", styles.MutedText)
	}

	if m.dashboard.settingsErr != nil {
		lines = append(lines, "", styles.DangerText.Render(errorText(m.dashboard.settingsErr)))
	}
	return strings.Join(lines, "\n")
}
