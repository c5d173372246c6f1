// Package history implements a bounded undo/redo stack for editable values.
//
// Rapid edits made through SetValue are coalesced: the value before a burst of
// edits is committed to the undo stack only after the debounce window passes
// without further changes. SetValueImmediate commits synchronously.
package history

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultMaxHistory = 50
	DefaultDebounce   = 500 * time.Millisecond
)

// Options tune a History. Zero values use the defaults.
type Options struct {
	MaxHistory int
	Debounce   time.Duration
}

// History tracks a current value plus past and future stacks.
// It is safe for concurrent use; the debounce timer commits on its own goroutine.
type History[T comparable] struct {
	mu       sync.Mutex
	current  T
	past     []T
	future   []T
	max      int
	debounce time.Duration

	timer   *time.Timer
	pending bool
	base    T // value before the pending burst of edits
}

// New creates a History holding initial.
func New[T comparable](initial T, opts Options) *History[T] {
	maxHistory := opts.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &History[T]{
		current:  initial,
		max:      maxHistory,
		debounce: debounce,
	}
}

// Value returns the current value.
func (h *History[T]) Value() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// SetValue replaces the current value and schedules a debounced snapshot.
func (h *History[T]) SetValue(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if v == h.current {
		return
	}
	if !h.pending {
		h.base = h.current
		h.pending = true
	}
	h.current = v

	if h.timer == nil {
		h.timer = time.AfterFunc(h.debounce, h.onTimer)
		return
	}
	h.timer.Reset(h.debounce)
}

// SetValueImmediate commits any pending snapshot, then records v right away.
func (h *History[T]) SetValueImmediate(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.flushLocked()
	if v == h.current {
		return
	}
	h.pushLocked(h.current)
	h.current = v
}

// Flush commits a pending debounced snapshot now.
func (h *History[T]) Flush() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushLocked()
}

// Undo steps back one entry. With an empty past it returns the current value and false.
func (h *History[T]) Undo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.flushLocked()
	if len(h.past) == 0 {
		return h.current, false
	}
	last := len(h.past) - 1
	h.future = append(h.future, h.current)
	h.current = h.past[last]
	h.past = h.past[:last]
	return h.current, true
}

// Redo steps forward one entry. With an empty future it returns the current value and false.
func (h *History[T]) Redo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.flushLocked()
	if len(h.future) == 0 {
		return h.current, false
	}
	last := len(h.future) - 1
	h.past = append(h.past, h.current)
	h.current = h.future[last]
	h.future = h.future[:last]
	return h.current, true
}

// Reset replaces the current value and clears both stacks.
func (h *History[T]) Reset(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.timer != nil {
		h.timer.Stop()
	}
	h.pending = false
	h.past = nil
	h.future = nil
	h.current = v
}

// CanUndo reports whether Undo would change the value.
func (h *History[T]) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past) > 0 || (h.pending && h.base != h.current)
}

// CanRedo reports whether Redo would change the value.
func (h *History[T]) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.future) > 0 && !h.pending
}

// Len returns the number of undoable entries.
func (h *History[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past)
}

// HandleKey applies the undo/redo shortcuts. It returns the resulting value and
// whether the key was consumed; a consumed key must not reach the text widget.
func (h *History[T]) HandleKey(msg tea.KeyMsg) (T, bool) {
	switch {
	case key.Matches(msg, Keys.Redo):
		v, _ := h.Redo()
		return v, true
	case key.Matches(msg, Keys.Undo):
		v, _ := h.Undo()
		return v, true
	}
	var zero T
	return zero, false
}

func (h *History[T]) onTimer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushLocked()
}

func (h *History[T]) flushLocked() {
	if !h.pending {
		return
	}
	h.pending = false
	if h.timer != nil {
		h.timer.Stop()
	}
	if h.base != h.current {
		h.pushLocked(h.base)
	}
}

func (h *History[T]) pushLocked(v T) {
	if n := len(h.past); n > 0 && h.past[n-1] == v {
		h.future = nil
		return
	}
	h.past = append(h.past, v)
	if over := len(h.past) - h.max; over > 0 {
		h.past = append(h.past[:0:0], h.past[over:]...)
	}
	h.future = nil
}
