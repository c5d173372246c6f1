package toast

import (
	"fmt"
	"testing"
	"time"
)

func testQueue(start time.Time) *Queue {
	q := NewQueue()
	q.now = func() time.Time { return start }
	return q
}

func TestPushAssignsUniqueIDs(t *testing.T) {
	q := NewQueue()
	a := q.Info("one")
	b := q.Info("two")
	if a == "" || a == b {
		t.Fatalf("ids %q and %q should be unique and non-empty", a, b)
	}
}

func TestActiveCapsAndExpires(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := testQueue(start)
	for i := 0; i < 7; i++ {
		q.Push(Info, fmt.Sprintf("toast %d", i), time.Second)
	}
	active := q.Active(start)
	if len(active) != MaxVisible {
		t.Fatalf("active = %d, want %d", len(active), MaxVisible)
	}
	if active[0].Message != "toast 2" || active[4].Message != "toast 6" {
		t.Fatalf("active window = %q..%q", active[0].Message, active[4].Message)
	}
	if got := q.Active(start.Add(2 * time.Second)); len(got) != 0 {
		t.Fatalf("expired toasts still active: %d", len(got))
	}
}

func TestErrorTTLDefault(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := testQueue(start)
	q.Error("save failed")
	q.Success("saved")
	active := q.Active(start.Add(DefaultTTL))
	if len(active) != 1 || active[0].Level != Error {
		t.Fatalf("after default TTL active = %+v, want only the error", active)
	}
}

func TestDismissAndPrune(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := testQueue(start)
	id := q.Push(Warning, "keep?", time.Minute)
	q.Push(Info, "short", time.Second)

	if !q.Dismiss(id) {
		t.Fatalf("Dismiss returned false for existing id")
	}
	if q.Dismiss(id) {
		t.Fatalf("Dismiss returned true twice")
	}
	if n := q.Prune(start.Add(time.Hour)); n != 0 {
		t.Fatalf("Prune left %d", n)
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d after prune", q.Len())
	}
}

func TestLevelString(t *testing.T) {
	if Error.String() != "error" || Info.String() != "info" || Success.String() != "success" || Warning.String() != "warning" {
		t.Fatalf("unexpected level names")
	}
}
