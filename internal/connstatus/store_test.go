package connstatus

import (
	"sync"
	"testing"
	"time"
)

func TestStore_RecordGetReset(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &Store{now: func() time.Time { return fixed }}

	if _, ok := s.Get(Plex); ok {
		t.Fatalf("Get(Plex) ok = true before any test")
	}

	s.Record(Plex, true, "Connected to Plex server: Home")
	st, ok := s.Get(Plex)
	if !ok || !st.Tested || !st.Success {
		t.Fatalf("Get(Plex) = %+v, %v; want tested success", st, ok)
	}
	if st.Message != "Connected to Plex server: Home" || !st.TestedAt.Equal(fixed) {
		t.Fatalf("Get(Plex) = %+v, want message and fixed time", st)
	}

	s.Record(Plex, false, "Invalid token")
	st, _ = s.Get(Plex)
	if st.Success || st.Message != "Invalid token" {
		t.Fatalf("overwrite = %+v, want failure", st)
	}

	s.Reset(Plex)
	if _, ok := s.Get(Plex); ok {
		t.Fatalf("Get(Plex) ok = true after Reset")
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	var s Store
	s.Record(TMDb, true, "ok")
	snap := s.Snapshot()
	snap[TMDb] = Status{Message: "mutated"}
	delete(snap, TMDb)

	if st, ok := s.Get(TMDb); !ok || st.Message != "ok" {
		t.Fatalf("store changed through snapshot: %+v %v", st, ok)
	}

	s.ResetAll()
	if len(s.Snapshot()) != 0 {
		t.Fatalf("Snapshot after ResetAll is not empty")
	}
}

func TestStore_ConcurrentRecord(t *testing.T) {
	var s Store
	var wg sync.WaitGroup
	for _, svc := range Services() {
		wg.Add(1)
		go func(svc Service) {
			defer wg.Done()
			s.Record(svc, true, string(svc))
		}(svc)
	}
	wg.Wait()
	if got := len(s.Snapshot()); got != len(Services()) {
		t.Fatalf("Snapshot has %d entries, want %d", got, len(Services()))
	}
}

func TestParseService(t *testing.T) {
	if svc, ok := ParseService(" Radarr "); !ok || svc != Radarr {
		t.Fatalf("ParseService(Radarr) = %q, %v", svc, ok)
	}
	if _, ok := ParseService("jellyfin"); ok {
		t.Fatalf("ParseService(jellyfin) ok = true, want false")
	}
}
