package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutSplitWidth is the minimum width for side-by-side panes.
	LayoutSplitWidth = 90

	// LayoutListWidth is the width of left-hand list panes.
	LayoutListWidth = 32
)

// Chrome rows above the content: header, tab bar and command bar.
const chromeRows = 3

// Timing and sizing constants.
const (
	// DefaultUIInterval is the default snapshot refresh interval.
	DefaultUIInterval = 2 * time.Second

	// RequestTimeout bounds every request issued from a view.
	RequestTimeout = 15 * time.Second

	// RunsPageSize is how many runs the Runs tab lists.
	RunsPageSize = 50

	// LibraryPageSize is how many items the Library tab fetches per page.
	LibraryPageSize = 50

	// LogBufferLimit caps the lines kept for the run log view.
	LogBufferLimit = 5000
)
