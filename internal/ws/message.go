package ws

import "time"

// Message is the envelope for all WebSocket messages on the event feed.
// Type carries the telemetry event kind.
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
