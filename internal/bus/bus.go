// Package bus carries utterances from I/O adapters to the agent and replies
// back to the adapters.
package bus

import (
	"context"

	"github.com/voxagent/voxagent/internal/schema"
)

// Bus is the contract between chat channels and the agent core.
type Bus interface {
	// PublishInbound delivers a message from a channel to the agent.
	PublishInbound(ctx context.Context, msg schema.InboundMessage) error
	// PublishOutbound delivers a reply from the agent to a channel.
	PublishOutbound(ctx context.Context, msg schema.OutboundMessage) error
	// InboundChan returns a receive-only channel for the agent to consume.
	InboundChan() <-chan schema.InboundMessage
	// OutboundChan returns a receive-only channel for the channel manager to consume.
	OutboundChan() <-chan schema.OutboundMessage
}

// MessageBus is the in-process Bus backed by buffered Go channels.
type MessageBus struct {
	inbound  chan schema.InboundMessage  // channels -> agent
	outbound chan schema.OutboundMessage // agent -> channels
}

func NewMessageBus(bufSize int) *MessageBus {
	return &MessageBus{
		inbound:  make(chan schema.InboundMessage, bufSize),
		outbound: make(chan schema.OutboundMessage, bufSize),
	}
}

// PublishInbound blocks while the buffer is full, until ctx is cancelled.
func (b *MessageBus) PublishInbound(ctx context.Context, msg schema.InboundMessage) error {
	select {
	case b.inbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishOutbound blocks while the buffer is full, until ctx is cancelled.
func (b *MessageBus) PublishOutbound(ctx context.Context, msg schema.OutboundMessage) error {
	select {
	case b.outbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MessageBus) InboundChan() <-chan schema.InboundMessage { return b.inbound }

func (b *MessageBus) OutboundChan() <-chan schema.OutboundMessage { return b.outbound }

func (b *MessageBus) InboundSize() int { return len(b.inbound) }

func (b *MessageBus) OutboundSize() int { return len(b.outbound) }
