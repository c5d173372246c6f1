// Package ui provides the terminal console for a Kometa WebUI backend.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model owns every tab's state and follows
// the usual Init/Update/View cycle; backend calls run as tea.Cmds through
// query.Service and come back as typed messages.
//
// # Package Structure
//
//   - app.go: Model, message routing, tab switching and Run
//   - header.go: status bar, command bar and connection error classification
//   - tabs.go: tab bar with disabled tabs skipped during navigation
//   - modal.go, modals.go: dialog frame plus confirm, prompt, text and diff dialogs
//   - logs.go: searchable log pane shared by run logs and the console
//   - toasts.go: toast stack rendered under the active tab
//   - dashboard.go, settings.go, editor.go, library.go, overlays.go,
//     runs.go, scheduler.go, console.go: one file per tab
//   - playlists.go: playlist form opened from the Overlays tab
//
// # Tabs
//
//   - Dashboard: apply mode, run controls and the rendered run plan
//   - Settings: form sections over config.yml with connection tests
//   - Editor: config.yml, collection and overlay files with drafts and diff-on-save
//   - Library: media browsing, item metadata and metadata YAML generation
//   - Overlays: overlay sources, defaults, images, previews and playlists
//   - Runs: run history, change diffs and live logs
//   - Scheduler: scheduled runs plus schedule and notification settings
//   - Console: the console's own log buffer
//
// # Event Flow
//
//  1. Run builds the Model and starts the program on the alternate screen
//  2. tickMsg re-reads state.Store, which the poller keeps current
//  3. Entering a tab issues its loads; results arrive as typed messages
//  4. Writes return mutationMsg, which raises a toast and reloads the tab
//  5. Context cancellation cleanly shuts down the UI
package ui
