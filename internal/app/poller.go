package app

import (
	"context"
	"errors"
	"time"

	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/logger"
	"github.com/five82/marquee/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
	pollTimeout         = 5 * time.Second
)

// calculateBackoff doubles base once per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// StartPoller launches a background goroutine that refreshes the store. It
// polls at interval while the backend answers and backs off while it does not.
// It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client kometa.StatusFetcher, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, client)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, client kometa.StatusFetcher) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		store.Update(state.Poll{}, err)
		logger.Warn("health poll failed: %v", err)
		return
	}
	run, err := client.RunStatus(ctx)
	if err != nil {
		store.Update(state.Poll{}, err)
		logger.Warn("run status poll failed: %v", err)
		return
	}
	poll := state.Poll{Health: health, Run: run}

	// The scheduler is optional; a 404 or 500 here should not mark the
	// backend offline.
	if sched, err := client.SchedulerStatus(ctx); err == nil {
		poll.Scheduler = sched
	} else {
		var apiErr *kometa.APIError
		if !errors.As(err, &apiErr) {
			store.Update(state.Poll{}, err)
			logger.Warn("scheduler poll failed: %v", err)
			return
		}
	}
	store.Update(poll, nil)
}

type statusStreamer interface {
	StreamStatus(ctx context.Context) (<-chan kometa.Event, error)
}

// followStatus applies run status pushed over the status websocket until ctx
// ends, reconnecting with backoff when the stream drops.
func followStatus(ctx context.Context, store *state.Store, client statusStreamer, base time.Duration) {
	failures := 0
	for {
		events, err := client.StreamStatus(ctx)
		if err == nil {
			failures = 0
			for evt := range events {
				if evt.Type == kometa.EventStatus && evt.Status != nil {
					store.SetRun(*evt.Status)
				}
			}
		} else {
			failures++
			logger.Warn("status stream: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(calculateBackoff(failures, base)):
		}
	}
}
