// Package connstatus records the outcome of integration connection tests.
// Results are process-local and are lost on restart.
package connstatus

import (
	"strings"
	"sync"
	"time"
)

// Service identifies an external integration that can be connection-tested.
type Service string

const (
	Plex      Service = "plex"
	TMDb      Service = "tmdb"
	Radarr    Service = "radarr"
	Sonarr    Service = "sonarr"
	Tautulli  Service = "tautulli"
	MDBList   Service = "mdblist"
	OMDb      Service = "omdb"
	Trakt     Service = "trakt"
	MAL       Service = "mal"
	AniDB     Service = "anidb"
	GitHub    Service = "github"
	Notifiarr Service = "notifiarr"
	Gotify    Service = "gotify"
	Ntfy      Service = "ntfy"
	Webhook   Service = "webhook"
)

// Services lists every known service in display order.
func Services() []Service {
	return []Service{
		Plex, TMDb, Radarr, Sonarr, Tautulli, MDBList, OMDb, Trakt,
		MAL, AniDB, GitHub, Notifiarr, Gotify, Ntfy, Webhook,
	}
}

// ParseService maps a name to a known Service.
func ParseService(name string) (Service, bool) {
	s := Service(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Services() {
		if known == s {
			return s, true
		}
	}
	return "", false
}

// Status is the last recorded test result for a service.
type Status struct {
	Tested   bool
	Success  bool
	Message  string
	TestedAt time.Time
}

// Store maps services to their latest status. The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	statuses map[Service]Status
	now      func() time.Time
}

// Record stores the outcome of a test.
func (s *Store) Record(svc Service, success bool, message string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statuses == nil {
		s.statuses = make(map[Service]Status)
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	st := Status{Tested: true, Success: success, Message: message, TestedAt: now()}
	s.statuses[svc] = st
	return st
}

// Get returns the status for svc; ok is false when it was never tested.
func (s *Store) Get(svc Service) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[svc]
	return st, ok
}

// Reset forgets the result for svc.
func (s *Store) Reset(svc Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, svc)
}

// ResetAll forgets every result.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = nil
}

// Snapshot returns a copy of all recorded results.
func (s *Store) Snapshot() map[Service]Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Service]Status, len(s.statuses))
	for k, v := range s.statuses {
		out[k] = v
	}
	return out
}
