package kometa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Stream event types sent by the backend websockets.
const (
	EventLog       = "log"
	EventError     = "error"
	EventStatus    = "status"
	EventHeartbeat = "heartbeat"
)

// Event is one websocket message.
type Event struct {
	Type   string
	Line   string     // EventLog and EventError
	Status *RunStatus // EventStatus
	At     time.Time
}

const handshakeTimeout = 5 * time.Second

// StreamLogs follows /ws/logs. The channel closes when ctx is cancelled or the
// connection drops.
func (c *Client) StreamLogs(ctx context.Context) (<-chan Event, error) {
	return c.stream(ctx, "/ws/logs")
}

// StreamStatus follows /ws/status.
func (c *Client) StreamStatus(ctx context.Context) (<-chan Event, error) {
	return c.stream(ctx, "/ws/status")
}

func (c *Client) stream(ctx context.Context, path string) (<-chan Event, error) {
	wsURL := *c.baseURL
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = path

	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	if c.password != "" {
		req, _ := http.NewRequest(http.MethodGet, wsURL.String(), nil)
		req.SetBasicAuth("kometa", c.password)
		header.Set("Authorization", req.Header.Get("Authorization"))
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", path, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}

	events := make(chan Event, 64)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(events)
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			evt, ok := decodeEvent(data)
			if !ok {
				continue
			}
			select {
			case events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func decodeEvent(data []byte) (Event, bool) {
	var envelope struct {
		Type      string `json:"type"`
		Data      string `json:"data"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Event{}, false
	}
	evt := Event{Type: envelope.Type, At: parseTime(envelope.Timestamp)}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	switch envelope.Type {
	case EventLog, EventError:
		evt.Line = envelope.Data
	case EventStatus:
		var st RunStatus
		if err := json.Unmarshal(data, &st); err != nil {
			return Event{}, false
		}
		evt.Status = &st
	case EventHeartbeat:
	default:
		return Event{}, false
	}
	return evt, true
}
