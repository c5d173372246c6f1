package kometa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStreamStatusAndLogs(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/status", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(map[string]any{"type": "heartbeat", "timestamp": "2024-01-01T00:00:00"})
		_ = conn.WriteJSON(map[string]any{"type": "status", "running": true, "run_id": "r9", "status": "running", "dry_run": true})
		_ = conn.WriteJSON(map[string]any{"type": "unknown"})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("garbage"))
	})
	mux.HandleFunc("/ws/logs", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(map[string]any{"type": "log", "data": "[DRY RUN] Would add_item on 'Marvel': Iron Man"})
		_ = conn.WriteJSON(map[string]any{"type": "error", "data": "stream closed"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	events, err := c.StreamStatus(ctx)
	if err != nil {
		t.Fatalf("StreamStatus returned error: %v", err)
	}
	var got []Event
	for evt := range events {
		got = append(got, evt)
	}
	if len(got) != 2 {
		t.Fatalf("status events = %d, want 2 (heartbeat, status)", len(got))
	}
	if got[0].Type != EventHeartbeat || got[0].At.Year() != 2024 {
		t.Fatalf("first event = %+v, want heartbeat", got[0])
	}
	if got[1].Status == nil || !got[1].Status.Running || got[1].Status.RunID != "r9" {
		t.Fatalf("status event = %+v", got[1])
	}

	logs, err := c.StreamLogs(ctx)
	if err != nil {
		t.Fatalf("StreamLogs returned error: %v", err)
	}
	var lines []Event
	for evt := range logs {
		lines = append(lines, evt)
	}
	if len(lines) != 2 || lines[0].Type != EventLog || lines[1].Type != EventError || lines[1].Line != "stream closed" {
		t.Fatalf("log events = %+v", lines)
	}
}

func TestStreamDialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.StreamLogs(context.Background()); err == nil {
		t.Fatalf("StreamLogs returned nil error against non-websocket endpoint")
	}
}
