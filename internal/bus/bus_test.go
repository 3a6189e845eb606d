package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/voxagent/voxagent/internal/schema"
)

func TestMessageBus_RoundTrip(t *testing.T) {
	b := NewMessageBus(1)
	ctx := context.Background()

	in := schema.InboundMessage{Channel: "cli", ChatID: "direct", Content: "hi"}
	if err := b.PublishInbound(ctx, in); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if b.InboundSize() != 1 {
		t.Fatalf("expected 1 queued message, got %d", b.InboundSize())
	}
	if got := <-b.InboundChan(); got.Content != "hi" {
		t.Errorf("unexpected message %+v", got)
	}
}

func TestMessageBus_PublishHonoursCancel(t *testing.T) {
	b := NewMessageBus(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.PublishOutbound(ctx, schema.OutboundMessage{Content: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRoutingKey(t *testing.T) {
	key := RoutingKey(ChannelTelegram, "42")
	if key != "telegram:42" {
		t.Fatalf("got %q", key)
	}
	ch, id := ParseRoutingKey(key)
	if ch != ChannelTelegram || id != "42" {
		t.Errorf("parsed %q %q", ch, id)
	}
	if ch, id := ParseRoutingKey("heartbeat"); ch != ChannelHeartbeat || id != "" {
		t.Errorf("parsed %q %q", ch, id)
	}
	if ChannelCron.Interactive() || !ChannelSlack.Interactive() {
		t.Error("unexpected Interactive result")
	}
}
