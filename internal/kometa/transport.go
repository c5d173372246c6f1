package kometa

import (
	"net/http"
	"strings"
	"time"

	"github.com/five82/marquee/internal/logger"
)

// LoggingTransport records each request's method, path, status and latency.
type LoggingTransport struct {
	Transport http.RoundTripper
	// Slow marks requests at or above this latency as warnings.
	Slow time.Duration
}

// NewLoggingTransport wraps transport; nil uses http.DefaultTransport.
func NewLoggingTransport(transport http.RoundTripper) *LoggingTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &LoggingTransport{Transport: transport, Slow: 2 * time.Second}
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Transport.RoundTrip(req)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		logger.LogError("http "+req.Method+" "+req.URL.Path, err)
		return nil, err
	}

	line := req.Method + " " + req.URL.Path + " -> " + resp.Status + " in " + elapsed.String()
	if auth := redactedHeaders(req.Header); auth != "" {
		line += " [" + auth + "]"
	}
	switch {
	case resp.StatusCode >= 400:
		logger.Warn("http %s", line)
	case t.Slow > 0 && elapsed >= t.Slow:
		logger.Warn("http slow %s", line)
	default:
		logger.Log("http %s", line)
	}
	return resp, nil
}

var sensitiveHeaders = []string{"Authorization", "X-Plex-Token", "X-Api-Key", "Cookie"}

// redactedHeaders names the sensitive headers present without their values.
func redactedHeaders(h http.Header) string {
	var present []string
	for _, name := range sensitiveHeaders {
		if h.Get(name) != "" {
			present = append(present, name+": [REDACTED]")
		}
	}
	return strings.Join(present, ", ")
}
