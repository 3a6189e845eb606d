package schema

import "context"

// InboundMessage is one utterance delivered by an I/O adapter.
type InboundMessage struct {
	Channel  string
	SenderID string
	ChatID   string
	Content  string
	Metadata map[string]any
}

// SessionKey identifies the conversation the message belongs to.
func (m InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// OutboundMessage is a reply rendered by an I/O adapter.
type OutboundMessage struct {
	Channel  string
	ChatID   string
	Content  string
	Progress bool
	Metadata map[string]any
}

// Channel is the interface every I/O adapter must implement.
type Channel interface {
	// Name returns the unique channel identifier (e.g. "telegram").
	Name() string
	// Start begins listening for incoming messages; it blocks until ctx is cancelled.
	Start(ctx context.Context) error
	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error
}
