package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/marquee/internal/kometa"
)

func TestStore_UpdateAndSnapshot(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(Poll{
		Health:    &kometa.Health{Status: "healthy", ApplyEnabled: true},
		Run:       &kometa.RunStatus{Running: true, RunID: "r1", DryRun: true},
		Scheduler: &kometa.SchedulerStatus{Enabled: true, Schedule: "daily"},
	}, nil)

	snap := s.Snapshot()
	if !snap.HasHealth || snap.Health.Status != "healthy" {
		t.Fatalf("snapshot health = %#v, want healthy", snap.Health)
	}
	if !snap.Running() || snap.Run.RunID != "r1" {
		t.Fatalf("snapshot run = %#v, want running r1", snap.Run)
	}
	if !snap.HasScheduler || snap.Scheduler.Schedule != "daily" {
		t.Fatalf("snapshot scheduler = %#v", snap.Scheduler)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}
}

func TestStore_PartialPollKeepsOtherFields(t *testing.T) {
	var s Store
	s.Update(Poll{Scheduler: &kometa.SchedulerStatus{Schedule: "weekly(sunday)"}}, nil)
	s.Update(Poll{Health: &kometa.Health{Status: "healthy"}}, nil)

	snap := s.Snapshot()
	if snap.Scheduler.Schedule != "weekly(sunday)" || !snap.HasHealth {
		t.Fatalf("partial poll dropped data: %#v", snap)
	}
	if snap.HasRun {
		t.Fatalf("HasRun = true without a run status")
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(Poll{Health: &kometa.Health{Status: "healthy"}}, nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.Update(Poll{}, origErr)

	snap := s.Snapshot()
	if snap.HasHealth != prev.HasHealth || snap.Health.Status != prev.Health.Status {
		t.Fatalf("health changed on error: got %#v want %#v", snap.Health, prev.Health)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	s.Update(Poll{}, errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(Poll{}, errors.New("fail 2"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.SetRun(kometa.RunStatus{Running: false, Status: "completed"})
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 {
		t.Fatalf("SetRun reset failures to %d", snap.ConsecutiveFailures)
	}

	s.Update(Poll{Health: &kometa.Health{Status: "healthy"}}, nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
