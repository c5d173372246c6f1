package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/marquee/internal/kometa"
)

// Snapshot is the latest backend state available to the UI.
type Snapshot struct {
	Health              kometa.Health
	HasHealth           bool
	Run                 kometa.RunStatus
	HasRun              bool
	Scheduler           kometa.SchedulerStatus
	HasScheduler        bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Running reports whether a Kometa run is in progress.
func (s Snapshot) Running() bool {
	return s.HasRun && s.Run.Running
}

// Poll is the result of one poll cycle. Nil fields leave the previous value
// in place; the scheduler endpoint is optional on older backends.
type Poll struct {
	Health    *kometa.Health
	Run       *kometa.RunStatus
	Scheduler *kometa.SchedulerStatus
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records a poll. When err is non-nil the previous data is kept but
// the error is recorded for visibility.
func (s *Store) Update(p Poll, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if p.Health != nil {
		s.snapshot.Health = *p.Health
		s.snapshot.HasHealth = true
	}
	if p.Run != nil {
		s.snapshot.Run = *p.Run
		s.snapshot.HasRun = true
	}
	if p.Scheduler != nil {
		s.snapshot.Scheduler = *p.Scheduler
		s.snapshot.HasScheduler = true
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetRun applies a run status pushed over the status websocket. It does not
// touch the failure counter.
func (s *Store) SetRun(run kometa.RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Run = run
	s.snapshot.HasRun = true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
