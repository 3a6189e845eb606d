// Package channels connects chat surfaces to the agent through the bus.
package channels

import (
	"context"
	"log/slog"
	"strings"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/schema"
)

// Base holds the state shared by every channel.
type Base struct {
	name      bus.Channel
	bus       bus.Bus
	allowFrom []string // empty = allow all
}

// NewBase creates a Base with the given channel name, bus, and allowlist.
func NewBase(name bus.Channel, b bus.Bus, allowFrom []string) Base {
	return Base{name: name, bus: b, allowFrom: allowFrom}
}

func (b *Base) Name() string { return string(b.name) }

// IsAllowed checks whether senderID is on the allowlist.
// senderID may be "id|username" (Telegram) or a plain string.
func (b *Base) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	for _, part := range strings.Split(senderID, "|") {
		if part == "" {
			continue
		}
		for _, allowed := range b.allowFrom {
			if allowed == part || allowed == senderID {
				return true
			}
		}
	}
	return false
}

// HandleMessage checks the sender and publishes the utterance to the agent.
// Blank content is dropped.
func (b *Base) HandleMessage(ctx context.Context, senderID, chatID, content string, metadata map[string]any) error {
	if !b.IsAllowed(senderID) {
		slog.Warn("Access denied", "channel", b.name, "sender", senderID)
		return nil
	}
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return b.bus.PublishInbound(ctx, schema.InboundMessage{
		Channel:  string(b.name),
		SenderID: senderID,
		ChatID:   chatID,
		Content:  content,
		Metadata: metadata,
	})
}

// splitMessage splits content into chunks of at most maxLen bytes,
// preferring newline breaks, then space breaks, then a hard cut on a rune
// boundary.
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}
	var chunks []string
	for len(content) > 0 {
		if len(content) <= maxLen {
			chunks = append(chunks, content)
			break
		}
		cut := content[:maxLen]
		pos := strings.LastIndex(cut, "\n")
		if pos <= 0 {
			pos = strings.LastIndex(cut, " ")
		}
		if pos <= 0 {
			pos = maxLen
			for pos > 0 && !isRuneStart(content[pos]) {
				pos--
			}
			if pos == 0 {
				pos = maxLen
			}
		}
		chunks = append(chunks, content[:pos])
		content = strings.TrimLeft(content[pos:], " \t\n")
	}
	return chunks
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
