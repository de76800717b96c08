// ABOUTME: Wire frames exchanged over the engine websocket.
package transport

import "encoding/json"

// PingEvent is the keepalive frame name sent by the client.
const PingEvent = "ping"

// Frame is an inbound websocket message. Payload is left undecoded.
type Frame struct {
	EventName string          `json:"event_name"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type outboundFrame struct {
	EventName string `json:"event_name"`
	Payload   any    `json:"payload,omitempty"`
}
