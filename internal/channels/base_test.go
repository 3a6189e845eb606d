package channels

import (
	"context"
	"strings"
	"testing"

	"github.com/voxagent/voxagent/internal/bus"
)

// ─── Allowlist ─────────────────────────────────────────────────────────────

func TestIsAllowed(t *testing.T) {
	open := NewBase(bus.ChannelTelegram, bus.NewMessageBus(1), nil)
	if !open.IsAllowed("anyone") {
		t.Error("empty allowlist should allow everyone")
	}

	b := NewBase(bus.ChannelTelegram, bus.NewMessageBus(1), []string{"42", "alice"})
	cases := map[string]bool{
		"42":         true,
		"42|bob":     true,
		"7|alice":    true,
		"7|mallory":  false,
		"":           false,
		"alice|":     true,
		"1234567890": false,
	}
	for sender, want := range cases {
		if got := b.IsAllowed(sender); got != want {
			t.Errorf("IsAllowed(%q) = %v, want %v", sender, got, want)
		}
	}
}

func TestHandleMessage_PublishesAllowedOnly(t *testing.T) {
	mb := bus.NewMessageBus(4)
	b := NewBase(bus.ChannelTelegram, mb, []string{"42"})
	ctx := context.Background()

	if err := b.HandleMessage(ctx, "99", "chat", "hi", nil); err != nil {
		t.Fatal(err)
	}
	if err := b.HandleMessage(ctx, "42", "chat", "   ", nil); err != nil {
		t.Fatal(err)
	}
	if mb.InboundSize() != 0 {
		t.Fatalf("denied or blank messages must not be published, got %d", mb.InboundSize())
	}

	if err := b.HandleMessage(ctx, "42", "chat", "hello", map[string]any{"k": 1}); err != nil {
		t.Fatal(err)
	}
	msg := <-mb.InboundChan()
	if msg.Channel != "telegram" || msg.ChatID != "chat" || msg.Content != "hello" || msg.SessionKey() != "telegram:chat" {
		t.Errorf("unexpected inbound %+v", msg)
	}
}

// ─── splitMessage ──────────────────────────────────────────────────────────

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("short message split: %q", got)
	}

	got := splitMessage("line one\nline two\nline three", 12)
	for _, c := range got {
		if len(c) > 12 {
			t.Errorf("chunk too long: %q", c)
		}
	}
	if strings.Join(got, " ") != "line one line two line three" {
		t.Errorf("content lost: %q", got)
	}

	runes := strings.Repeat("é", 10) // 2 bytes each
	for _, c := range splitMessage(runes, 5) {
		if !strings.HasPrefix(c, "é") || len(c)%2 != 0 {
			t.Errorf("chunk split inside a rune: %q", c)
		}
	}
}
