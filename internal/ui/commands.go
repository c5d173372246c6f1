package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/logger"
	"github.com/five82/marquee/internal/state"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// mutationMsg reports the outcome of a write. The model turns it into a
// toast and reloads the active tab.
type mutationMsg struct {
	op      string
	success string
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// load runs fn with a request timeout and wraps the result with wrap.
func load[T any](ctx context.Context, fn func(context.Context) (T, error), wrap func(T, error) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		v, err := fn(ctx)
		return wrap(v, err)
	}
}

// mutate runs a write and reports it as a mutationMsg. Failures are logged.
func mutate(ctx context.Context, op, success string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		err := fn(ctx)
		if err != nil {
			logger.LogError(op, err)
		} else {
			logger.Log("%s: %s", op, success)
		}
		return mutationMsg{op: op, success: success, err: err}
	}
}
