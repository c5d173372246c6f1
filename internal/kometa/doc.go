// Package kometa provides an HTTP and websocket client for the Kometa Web UI
// backend.
//
// # Overview
//
// The backend exposes a JSON API under /api for editing config.yml and the
// collection/overlay files next to it, starting and inspecting Kometa runs,
// browsing library metadata, configuring the run scheduler and testing
// credentials for external services. Two websockets, /ws/status and /ws/logs,
// push run status and live log lines.
//
// # Client Usage
//
//	client, err := kometa.NewClient("127.0.0.1:8080", kometa.WithPassword(pw))
//	if err != nil {
//		return err
//	}
//	cfg, err := client.Config(ctx)
//	...
//	run, err := client.StartRun(ctx, kometa.RunRequest{Libraries: []string{"Movies"}})
//
// StartRun always requests a dry run. ApplyRun requires the literal
// confirmation phrase (ApplyConfirmation) and returns ErrConfirmation without
// contacting the backend when it is missing.
//
// # Error Handling
//
// Every method returns wrapped errors in the same shape:
//
//   - "create request: ..." / "encode request: ..." for local failures
//   - "execute request: ..." for network failures
//   - *APIError for responses with status >= 400; Detail carries the
//     backend's {"detail": ...} message
//   - "decode response: ..." for malformed JSON
//
// Some endpoints report soft failures inside a 200 response (BrowsePage.Error,
// TestResult.Success=false). Callers check those fields explicitly.
//
// # Field Mapping
//
// Types in this package mirror the backend's JSON. Names are mapped to Go
// conventions at the JSON tag level (rating_key to RatingKey, thumb_url to
// ThumbURL, total_pages to TotalPages); nothing outside this package sees the
// wire names. Timestamps stay strings on the wire and are parsed by helper
// methods (Run.Started, SchedulerStatus.NextRunAt) that accept RFC3339 and
// the backend's naive ISO format.
//
// # Logging
//
// The default http.Client routes through LoggingTransport, which writes one
// line per request to the marquee log with sensitive headers redacted.
package kometa
