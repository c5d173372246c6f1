package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeFetcher struct {
	healthErr error
	schedErr  error
}

func (f fakeFetcher) Health(context.Context) (*kometa.Health, error) {
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &kometa.Health{Status: "healthy"}, nil
}

func (f fakeFetcher) RunStatus(context.Context) (*kometa.RunStatus, error) {
	return &kometa.RunStatus{Running: true, RunID: "r1"}, nil
}

func (f fakeFetcher) SchedulerStatus(context.Context) (*kometa.SchedulerStatus, error) {
	if f.schedErr != nil {
		return nil, f.schedErr
	}
	return &kometa.SchedulerStatus{Enabled: true}, nil
}

func TestRefresh_Success(t *testing.T) {
	var store state.Store
	refresh(context.Background(), &store, fakeFetcher{})

	snap := store.Snapshot()
	if !snap.HasHealth || !snap.Running() || !snap.HasScheduler {
		t.Fatalf("snapshot = %+v, want health, run and scheduler", snap)
	}
}

func TestRefresh_SchedulerAPIErrorTolerated(t *testing.T) {
	var store state.Store
	refresh(context.Background(), &store, fakeFetcher{
		schedErr: &kometa.APIError{Path: "/api/scheduler/status", Status: http.StatusNotFound},
	})

	snap := store.Snapshot()
	if snap.LastError != nil || snap.HasScheduler || !snap.HasHealth {
		t.Fatalf("snapshot = %+v, want health without scheduler and no error", snap)
	}
}

func TestRefresh_HealthFailureCounts(t *testing.T) {
	var store state.Store
	f := fakeFetcher{healthErr: errors.New("dial tcp: connection refused")}
	refresh(context.Background(), &store, f)
	refresh(context.Background(), &store, f)

	snap := store.Snapshot()
	if !snap.IsOffline() {
		t.Fatalf("IsOffline = false after two failures")
	}
}

type fakeStreamer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeStreamer) StreamStatus(ctx context.Context) (<-chan kometa.Event, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	ch := make(chan kometa.Event, 2)
	ch <- kometa.Event{Type: kometa.EventHeartbeat}
	ch <- kometa.Event{Type: kometa.EventStatus, Status: &kometa.RunStatus{Running: true, RunID: "ws1"}}
	close(ch)
	return ch, nil
}

func TestFollowStatus_AppliesPushedStatus(t *testing.T) {
	var store state.Store
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		followStatus(ctx, &store, &fakeStreamer{}, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.Snapshot().Run.RunID != "ws1" {
		select {
		case <-deadline:
			t.Fatalf("status from stream never applied")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("followStatus did not stop after cancel")
	}
}
