// Package app is the composition root for marquee.
//
// Run loads configuration, opens the log file and the drafts database,
// builds the Kometa client behind the query cache, and starts two background
// goroutines that keep state.Store current:
//
//   - StartPoller fetches health, run status and scheduler status on an
//     interval, backing off exponentially while the backend is unreachable.
//   - followStatus applies run status pushed over /ws/status between polls.
//
// It then blocks in ui.Run until the user quits or the context is cancelled.
//
// Setup performs only the configuration and client steps so the one-shot
// CLI commands can share them without starting the TUI.
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//	if err := app.Run(ctx, app.Options{}); err != nil {
//		log.Fatal(err)
//	}
package app
