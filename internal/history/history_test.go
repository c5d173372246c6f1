package history

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestUndoRedoSymmetry(t *testing.T) {
	h := New("v0", Options{})
	for i := 1; i <= 5; i++ {
		h.SetValueImmediate(fmt.Sprintf("v%d", i))
	}
	require.Equal(t, "v5", h.Value())
	require.Equal(t, 5, h.Len())

	for i := 0; i < 5; i++ {
		_, ok := h.Undo()
		require.True(t, ok)
	}
	require.Equal(t, "v0", h.Value())
	require.False(t, h.CanUndo())

	for i := 0; i < 5; i++ {
		_, ok := h.Redo()
		require.True(t, ok)
	}
	require.Equal(t, "v5", h.Value())
	require.False(t, h.CanRedo())
}

func TestUndoRedoEmptyAreNoOps(t *testing.T) {
	h := New(7, Options{})

	v, ok := h.Undo()
	require.False(t, ok)
	require.Equal(t, 7, v)

	v, ok = h.Redo()
	require.False(t, ok)
	require.Equal(t, 7, v)
}

func TestPushClearsFuture(t *testing.T) {
	h := New("a", Options{})
	h.SetValueImmediate("b")
	h.SetValueImmediate("c")
	h.Undo()
	require.True(t, h.CanRedo())

	h.SetValueImmediate("d")
	require.False(t, h.CanRedo())
	require.Equal(t, "d", h.Value())

	v, _ := h.Undo()
	require.Equal(t, "b", v)
}

func TestConsecutiveDuplicatesSkipped(t *testing.T) {
	h := New("a", Options{})
	h.SetValueImmediate("a")
	h.SetValueImmediate("b")
	h.SetValueImmediate("b")
	h.SetValueImmediate("b")
	require.Equal(t, 1, h.Len())
}

func TestHistoryIsCapped(t *testing.T) {
	h := New(0, Options{MaxHistory: 10})
	for i := 1; i <= 25; i++ {
		h.SetValueImmediate(i)
	}
	require.Equal(t, 10, h.Len())

	// Oldest entries go first: the furthest undo reaches 15.
	var v int
	for h.CanUndo() {
		v, _ = h.Undo()
	}
	require.Equal(t, 15, v)
}

func TestSetValueCoalescesBurst(t *testing.T) {
	h := New("", Options{Debounce: time.Hour})
	h.SetValue("h")
	h.SetValue("he")
	h.SetValue("hel")
	require.Equal(t, "hel", h.Value())
	require.Equal(t, 0, h.Len())

	h.Flush()
	require.Equal(t, 1, h.Len())

	v, ok := h.Undo()
	require.True(t, ok)
	require.Equal(t, "", v)
}

func TestSetValueCommitsAfterDebounce(t *testing.T) {
	h := New("start", Options{Debounce: 10 * time.Millisecond})
	h.SetValue("x")
	h.SetValue("xy")

	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "xy", h.Value())
}

func TestUndoFlushesPendingEdit(t *testing.T) {
	h := New("a", Options{Debounce: time.Hour})
	h.SetValue("ab")
	require.True(t, h.CanUndo())

	v, ok := h.Undo()
	require.True(t, ok)
	require.Equal(t, "a", v)

	v, ok = h.Redo()
	require.True(t, ok)
	require.Equal(t, "ab", v)
}

func TestResetClearsStacks(t *testing.T) {
	h := New("a", Options{Debounce: time.Hour})
	h.SetValueImmediate("b")
	h.SetValue("bc")
	h.Reset("z")

	require.Equal(t, "z", h.Value())
	require.Equal(t, 0, h.Len())
	require.False(t, h.CanUndo())
	require.False(t, h.CanRedo())
}

func TestHandleKey(t *testing.T) {
	h := New("a", Options{})
	h.SetValueImmediate("b")

	v, handled := h.HandleKey(tea.KeyMsg{Type: tea.KeyCtrlZ})
	require.True(t, handled)
	require.Equal(t, "a", v)

	v, handled = h.HandleKey(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.True(t, handled)
	require.Equal(t, "b", v)

	v, handled = h.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}, Alt: true})
	require.True(t, handled)
	require.Equal(t, "a", v)

	v, handled = h.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'Z'}, Alt: true})
	require.True(t, handled)
	require.Equal(t, "b", v)

	// Empty stacks still consume the shortcut.
	_, handled = h.HandleKey(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.True(t, handled)

	_, handled = h.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}})
	require.False(t, handled)
}
