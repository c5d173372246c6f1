// Package state shares the latest backend health, run status and scheduler
// status between the background poller and the UI.
//
// # Update Semantics
//
// The poller calls Update once per cycle with whatever it fetched:
//
//	store.Update(state.Poll{Health: h, Run: r, Scheduler: s}, nil)
//	→ non-nil fields replace the stored values
//	→ LastError = nil, ConsecutiveFailures = 0
//
//	store.Update(state.Poll{}, err)
//	→ stored values unchanged
//	→ LastError = err, ConsecutiveFailures++
//
// The header shows the last good values with an OFFLINE badge once
// IsOffline reports two consecutive failures.
//
// The status websocket feeds SetRun between polls so run transitions show
// up without waiting for the next tick.
//
// # Concurrency
//
// Update and SetRun take the write lock; Snapshot takes the read lock and
// returns a value copy with its own error instance. The zero Store is ready
// to use.
package state
