package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	SelectTab  key.Binding
	Escape     key.Binding
	Refresh    key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding
	Left         key.Binding
	Right        key.Binding

	// Shared actions
	Confirm      key.Binding
	Save         key.Binding
	Search       key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding
	ToggleFollow key.Binding

	// Dashboard
	DryRun      key.Binding
	StopRun     key.Binding
	ApplyRun    key.Binding
	ApplyToggle key.Binding

	// Settings
	Toggle    key.Binding
	Test      key.Binding
	Revert    key.Binding
	ShowValue key.Binding

	// Editor
	Validate     key.Binding
	NewFile      key.Binding
	Backups      key.Binding
	DiscardDraft key.Binding

	// Library
	Mark         key.Binding
	GenerateYAML key.Binding

	// Overlays
	Preview      key.Binding
	PosterSource key.Binding
	NewPlaylist  key.Binding

	// Runs
	Logs   key.Binding
	Delete key.Binding

	// Scheduler
	Enable        key.Binding
	CycleSchedule key.Binding
	DryRunOnly    key.Binding
	StopScheduler key.Binding
	WriteSchedule key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous tab"),
		),
		SelectTab: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8"),
			key.WithHelp("1-8", "Jump to tab"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back/cancel"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Refresh"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous page"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Focus left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Focus right"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle follow"),
		),

		DryRun: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Dry run"),
		),
		StopRun: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Stop run"),
		),
		ApplyRun: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Apply run"),
		),
		ApplyToggle: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "Toggle apply mode"),
		),

		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle"),
		),
		Test: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Test connection"),
		),
		Revert: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Revert field"),
		),
		ShowValue: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Show secrets"),
		),

		Validate: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Validate"),
		),
		NewFile: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New file"),
		),
		Backups: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Config backups"),
		),
		DiscardDraft: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Discard draft"),
		),

		Mark: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Mark item"),
		),
		GenerateYAML: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Metadata YAML"),
		),

		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Preview overlay"),
		),
		PosterSource: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Poster source"),
		),
		NewPlaylist: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New playlist"),
		),

		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Run logs"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete"),
		),

		Enable: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Toggle enabled"),
		),
		CycleSchedule: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Cycle schedule"),
		),
		DryRunOnly: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Dry-run only"),
		),
		StopScheduler: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Stop scheduler"),
		),
		WriteSchedule: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "Write schedule to config.yml"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.SelectTab, k.Escape, k.Refresh},
		{k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp},
		{k.DryRun, k.StopRun, k.ApplyRun, k.ApplyToggle},
		{k.Toggle, k.Test, k.Revert, k.Save},
		{k.Validate, k.NewFile, k.Backups, k.DiscardDraft},
		{k.Logs, k.Delete, k.Mark, k.GenerateYAML},
		{k.Preview, k.PosterSource, k.NewPlaylist},
		{k.Enable, k.CycleSchedule, k.DryRunOnly, k.StopScheduler, k.WriteSchedule},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
