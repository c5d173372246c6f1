package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/logger"
	"github.com/five82/marquee/internal/query"
)

// schedulePresets are the expressions x cycles through.
var schedulePresets = []string{"daily", "hourly", "hourly(03)", "weekly(sunday)", "monthly(1)"}

// webhookEvents are the Kometa webhook events shown even when unset.
var webhookEvents = []string{"error", "version", "run_start", "run_end", "changes", "delete"}

type schedulerMsg struct {
	status      *kometa.SchedulerStatus
	statusErr   error
	schedule    *kometa.ScheduleSettings
	scheduleErr error
	notify      *kometa.NotificationSettings
	notifyErr   error
}

type schedulerState struct {
	data   schedulerMsg
	loaded bool

	draft      kometa.SchedulerConfig
	draftDirty bool

	eventCursor int
}

func newSchedulerState() schedulerState {
	return schedulerState{draft: kometa.SchedulerConfig{Schedule: schedulePresets[0], DryRunOnly: true}}
}

// events lists webhook events in display order.
func (s schedulerState) events() []string {
	out := slices.Clone(webhookEvents)
	if n := s.data.notify; n != nil {
		var extra []string
		for ev := range n.Webhooks {
			if !slices.Contains(out, ev) {
				extra = append(extra, ev)
			}
		}
		sort.Strings(extra)
		out = append(out, extra...)
	}
	return out
}

func (m Model) loadScheduler() tea.Cmd {
	svc := m.svc
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, RequestTimeout)
		defer cancel()
		var msg schedulerMsg
		msg.status, msg.statusErr = svc.SchedulerStatus(ctx)
		msg.schedule, msg.scheduleErr = svc.ScheduleSettings(ctx)
		msg.notify, msg.notifyErr = svc.NotificationSettings(ctx)
		return msg
	}
}

func (m Model) updateScheduler(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(schedulerMsg); ok {
		s := &m.scheduler
		s.data = msg
		s.loaded = true
		if msg.status != nil && !s.draftDirty {
			s.draft = kometa.SchedulerConfig{
				Enabled:    msg.status.Enabled,
				Schedule:   msg.status.Schedule,
				DryRunOnly: msg.status.DryRunOnly,
			}
			if s.draft.Schedule == "" {
				s.draft.Schedule = schedulePresets[0]
			}
		}
		s.eventCursor = clampIndex(s.eventCursor, len(s.events()))
	}
	return m, nil
}

func (m Model) handleSchedulerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &m.scheduler
	if m.svc == nil {
		return m, nil
	}
	svc, ctx := m.svc, m.ctx

	switch {
	case key.Matches(msg, m.keys.Enable):
		s.draft.Enabled = !s.draft.Enabled
		s.draftDirty = true
	case key.Matches(msg, m.keys.CycleSchedule):
		i := slices.Index(schedulePresets, s.draft.Schedule)
		s.draft.Schedule = schedulePresets[(i+1)%len(schedulePresets)]
		s.draftDirty = true
	case key.Matches(msg, m.keys.DryRunOnly):
		s.draft.DryRunOnly = !s.draft.DryRunOnly
		s.draftDirty = true

	case key.Matches(msg, m.keys.Save):
		cfg := s.draft
		s.draftDirty = false
		return m, mutate(ctx, "configure scheduler", "Scheduler updated", func(ctx context.Context) error {
			_, err := svc.ConfigureScheduler(ctx, cfg)
			return err
		})

	case key.Matches(msg, m.keys.StopScheduler):
		s.draftDirty = false
		return m, mutate(ctx, "stop scheduler", "Scheduler stopped", func(ctx context.Context) error {
			_, err := svc.StopScheduler(ctx)
			return err
		})

	case key.Matches(msg, m.keys.WriteSchedule):
		cur := s.data.schedule
		if cur == nil {
			m.toasts.Warn("config.yml schedule settings are not loaded")
			return m, nil
		}
		next := *cur
		next.GlobalSchedule = s.draft.Schedule
		return m, mutate(ctx, "save schedule", "config.yml schedule set to "+next.GlobalSchedule, func(ctx context.Context) error {
			return svc.SaveScheduleSettings(ctx, next)
		})

	case key.Matches(msg, m.keys.Escape):
		if s.draftDirty {
			s.draftDirty = false
			return m.updateScheduler(s.data)
		}

	case key.Matches(msg, m.keys.Up):
		s.eventCursor = clampIndex(s.eventCursor-1, len(s.events()))
	case key.Matches(msg, m.keys.Down):
		s.eventCursor = clampIndex(s.eventCursor+1, len(s.events()))

	case key.Matches(msg, m.keys.Toggle):
		n := s.data.notify
		events := s.events()
		if n == nil || len(events) == 0 {
			return m, nil
		}
		ev := events[s.eventCursor]
		next := kometa.NotificationSettings{Webhooks: n.Webhooks}
		if slices.Contains(n.EnabledEvents, ev) {
			next.EnabledEvents = slices.DeleteFunc(slices.Clone(n.EnabledEvents), func(e string) bool { return e == ev })
		} else {
			next.EnabledEvents = append(slices.Clone(n.EnabledEvents), ev)
		}
		return m, mutate(ctx, "save notifications", "Notifications updated", func(ctx context.Context) error {
			return svc.SaveNotificationSettings(ctx, next)
		})

	case key.Matches(msg, m.keys.Test):
		n := s.data.notify
		events := s.events()
		if n == nil || len(events) == 0 {
			return m, nil
		}
		ev := events[s.eventCursor]
		url := n.Webhooks[ev]
		if url == "" {
			m.toasts.Info("No webhook configured for " + ev)
			return m, nil
		}
		req := kometa.WebhookTest{URL: url, Event: ev}
		return m, testWebhookCmd(ctx, svc, req)
	}
	return m, nil
}

// testWebhookCmd reports the backend's verdict as a mutationMsg so the
// outcome lands in a toast.
func testWebhookCmd(ctx context.Context, svc *query.Service, req kometa.WebhookTest) tea.Cmd {
	op := "test webhook " + req.Event
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		res, err := svc.TestWebhook(ctx, req)
		if err == nil && !res.Success {
			err = errors.New(res.Text())
		}
		if err != nil {
			logger.LogError(op, err)
			return mutationMsg{op: op, err: err}
		}
		logger.Log("%s: %s", op, res.Text())
		return mutationMsg{op: op, success: res.Text()}
	}
}

func (m Model) renderScheduler(width, height int) string {
	left := width / 2
	right := width - left
	return joinColumns(
		m.renderTitledBox("Scheduler", m.schedulerLines(), left, height, true),
		m.renderTitledBox("Notifications", m.notificationLines(right-2), right, height, false),
	)
}

func (m Model) schedulerLines() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	s := m.scheduler
	now := m.now()
	var lines []string
	add := func(label, value string) {
		lines = append(lines, styles.MutedText.Render(padRight(label, 14))+styles.Text.Render(value))
	}

	switch {
	case !s.loaded:
		return styles.MutedText.Render("Loading...")
	case s.data.statusErr != nil:
		lines = append(lines, styles.DangerText.Render("Scheduler unavailable: "+errorText(s.data.statusErr)))
	case s.data.status == nil:
		lines = append(lines, styles.MutedText.Render("No scheduler status"))
	default:
		st := s.data.status
		state := styles.MutedText.Render("disabled")
		if st.Enabled {
			state = styles.SuccessText.Render("enabled")
		}
		lines = append(lines, styles.MutedText.Render(padRight("Status", 14))+state)
		add("Schedule", st.Schedule)
		add("Dry run only", yesNo(st.DryRunOnly))
		add("Next run", relTime(st.NextRunAt(), now))
		add("Last run", relTime(st.LastRunAt(), now))
		add("Runs", count(st.RunCount))
	}

	lines = append(lines, "", styles.AccentText.Render("Pending changes"))
	d := s.draft
	add("Enabled", yesNo(d.Enabled))
	add("Schedule", d.Schedule)
	add("Dry run only", yesNo(d.DryRunOnly))
	if s.draftDirty {
		lines = append(lines, styles.WarningText.Render("ctrl+s to apply, esc to discard"))
	}

	lines = append(lines, "", styles.AccentText.Render("config.yml schedule"))
	switch {
	case s.data.scheduleErr != nil:
		lines = append(lines, styles.DangerText.Render(errorText(s.data.scheduleErr)))
	case s.data.schedule != nil:
		sch := s.data.schedule
		add("Global", orDash(sch.GlobalSchedule))
		if len(sch.RunOrder) > 0 {
			add("Run order", strings.Join(sch.RunOrder, " → "))
		}
		for _, lib := range sortedKeys(sch.LibrarySchedules) {
			add("  "+lib, sch.LibrarySchedules[lib])
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) notificationLines(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	s := m.scheduler
	if s.data.notifyErr != nil {
		return styles.DangerText.Render(errorText(s.data.notifyErr))
	}
	n := s.data.notify
	if n == nil {
		return styles.MutedText.Render("Loading...")
	}
	lines := []string{styles.FaintText.Render("space toggles an event, t sends a test"), ""}
	for i, ev := range s.events() {
		mark := "○"
		if slices.Contains(n.EnabledEvents, ev) {
			mark = "●"
		}
		url := n.Webhooks[ev]
		if url == "" {
			url = "—"
		}
		line := fmt.Sprintf("%s %-10s %s", mark, ev, truncateMiddle(url, max(width-14, 8)))
		if i == s.eventCursor {
			line = styles.Selected.Render(padRight(line, width))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
