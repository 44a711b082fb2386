// Package notify fans watcher activity out to interested listeners, such as
// UI clients connected to the daemon over websockets.
package notify

// Message is one notification emitted after an event was handled.
type Message struct {
	// Type names what happened, e.g. "session/created", "session/closed",
	// "delta/recorded", "file/indexed", "session/indexed".
	Type      string      `json:"type"`
	ProjectID string      `json:"projectId"`
	Data      interface{} `json:"data,omitempty"`
}

// Notification types.
const (
	TypeSessionCreated = "session/created"
	TypeSessionClosed  = "session/closed"
	TypeDeltaRecorded  = "delta/recorded"
	TypeFileIndexed    = "file/indexed"
	TypeSessionIndexed = "session/indexed"
)

// Sender delivers notifications. Implementations must not block the caller
// on slow consumers.
type Sender interface {
	Send(msg Message)
}

// Discard is a Sender that drops every message.
type Discard struct{}

func (Discard) Send(Message) {}
