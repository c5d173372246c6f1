package history

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the undo/redo bindings. Terminals deliver Cmd as alt when
// "use option as meta" is enabled, so both ctrl and alt variants are bound.
type KeyMap struct {
	Undo key.Binding
	Redo key.Binding
}

// Keys is the binding set HandleKey consults.
var Keys = KeyMap{
	Undo: key.NewBinding(
		key.WithKeys("ctrl+z", "alt+z"),
		key.WithHelp("ctrl+z", "Undo"),
	),
	Redo: key.NewBinding(
		key.WithKeys("ctrl+y", "alt+Z", "alt+y"),
		key.WithHelp("ctrl+y", "Redo"),
	),
}
