// Package toast holds short-lived notifications shown over the console.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is a toast's severity.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

const (
	// MaxVisible caps how many toasts Active returns.
	MaxVisible = 5
	// DefaultTTL applies when Push is given a zero TTL.
	DefaultTTL = 4 * time.Second
	// ErrorTTL is the default lifetime of error toasts.
	ErrorTTL = 8 * time.Second
)

// Toast is one notification.
type Toast struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether t should no longer be shown at now.
func (t Toast) Expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.TTL
}

// Queue is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	now    func() time.Time
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Push adds a toast and returns its ID.
func (q *Queue) Push(level Level, message string, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = DefaultTTL
		if level == Error {
			ttl = ErrorTTL
		}
	}
	t := Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: q.clock(),
		TTL:       ttl,
	}
	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	q.mu.Unlock()
	return t.ID
}

// Info pushes with the default TTL. Success, Warn and Error do the same at
// their levels.
func (q *Queue) Info(message string) string    { return q.Push(Info, message, 0) }
func (q *Queue) Success(message string) string { return q.Push(Success, message, 0) }
func (q *Queue) Warn(message string) string    { return q.Push(Warning, message, 0) }
func (q *Queue) Error(message string) string   { return q.Push(Error, message, 0) }

// Dismiss removes the toast with id. It reports whether one was removed.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// DismissAll clears the queue.
func (q *Queue) DismissAll() {
	q.mu.Lock()
	q.toasts = nil
	q.mu.Unlock()
}

// Active returns the newest unexpired toasts, at most MaxVisible, oldest first.
func (q *Queue) Active(now time.Time) []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	var live []Toast
	for _, t := range q.toasts {
		if !t.Expired(now) {
			live = append(live, t)
		}
	}
	if len(live) > MaxVisible {
		live = live[len(live)-MaxVisible:]
	}
	return live
}

// Prune drops expired toasts and returns how many remain.
func (q *Queue) Prune(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.toasts[:0]
	for _, t := range q.toasts {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	q.toasts = kept
	return len(kept)
}

// Len returns the number of queued toasts, expired or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

func (q *Queue) clock() time.Time {
	if q.now == nil {
		return time.Now()
	}
	return q.now()
}
