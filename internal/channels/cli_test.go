package channels

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/schema"
)

// echoAgent answers every inbound message with one progress line and a reply.
func echoAgent(ctx context.Context, b bus.Bus) {
	for {
		select {
		case msg := <-b.InboundChan():
			_ = b.PublishOutbound(ctx, schema.OutboundMessage{Channel: msg.Channel, ChatID: msg.ChatID, Content: "thinking", Progress: true})
			_ = b.PublishOutbound(ctx, schema.OutboundMessage{Channel: msg.Channel, ChatID: msg.ChatID, Content: "echo: " + msg.Content})
		case <-ctx.Done():
			return
		}
	}
}

func runCLI(t *testing.T, input string) string {
	t.Helper()
	mb := bus.NewMessageBus(8)
	var out bytes.Buffer
	cli := NewCLIChannelIO(mb, strings.NewReader(input), &out)

	m := NewManager(mb)
	m.Register(cli)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = m.Dispatch(ctx) }()
	go echoAgent(ctx, mb)

	if err := cli.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return out.String()
}

func TestCLI_RoundTripAndExitWord(t *testing.T) {
	out := runCLI(t, "what time is it\n\n  bye  \nnot sent\n")

	if !strings.Contains(out, "↳ thinking") {
		t.Errorf("progress line missing:\n%s", out)
	}
	if !strings.Contains(out, "echo: what time is it") {
		t.Errorf("reply missing:\n%s", out)
	}
	if strings.Contains(out, "not sent") {
		t.Errorf("input after exit word was processed:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "Goodbye!") {
		t.Errorf("expected goodbye, got:\n%s", out)
	}
}

func TestCLI_EOFEndsSession(t *testing.T) {
	out := runCLI(t, "hello")
	if !strings.Contains(out, "echo: hello") || !strings.Contains(out, "Goodbye!") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestIsExitCommand(t *testing.T) {
	for _, w := range []string{"exit", "QUIT", "bye", "Goodbye", "stop", "/exit", ":q", "  exit  "} {
		if !IsExitCommand(w) {
			t.Errorf("%q should exit", w)
		}
	}
	for _, w := range []string{"", "exiting", "stop the timer", "hello"} {
		if IsExitCommand(w) {
			t.Errorf("%q should not exit", w)
		}
	}
}
