package channels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/config/gateway"
	"github.com/voxagent/voxagent/internal/schema"
)

func newWSServer(t *testing.T, cfg gateway.GatewayConfig) (*WebSocketChannel, *bus.MessageBus, string) {
	t.Helper()
	mb := bus.NewMessageBus(8)
	ch := NewWebSocketChannel(cfg, mb)
	srv := httptest.NewServer(ch)
	t.Cleanup(srv.Close)
	return ch, mb, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWebSocket_MessageRoundTrip(t *testing.T) {
	ch, mb, url := newWSServer(t, gateway.DefaultGatewayConfig())
	conn := dial(t, url+"?chat_id=kitchen", nil)

	ready := readFrame(t, conn)
	if ready.Type != FrameReady || ready.ChatID != "kitchen" {
		t.Fatalf("unexpected ready frame %+v", ready)
	}

	if err := conn.WriteJSON(Frame{Type: FrameMessage, Content: "what's 25 times 47?"}); err != nil {
		t.Fatal(err)
	}
	var in schema.InboundMessage
	select {
	case in = <-mb.InboundChan():
	case <-time.After(2 * time.Second):
		t.Fatal("no inbound message")
	}
	if in.Channel != "websocket" || in.ChatID != "kitchen" || in.Content != "what's 25 times 47?" {
		t.Errorf("unexpected inbound %+v", in)
	}

	ctx := context.Background()
	if err := ch.Send(ctx, schema.OutboundMessage{ChatID: "kitchen", Content: "calculate", Progress: true}); err != nil {
		t.Fatal(err)
	}
	if err := ch.Send(ctx, schema.OutboundMessage{ChatID: "kitchen", Content: "25 times 47 is 1175"}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn); f.Type != FrameProgress || f.Content != "calculate" {
		t.Errorf("unexpected progress frame %+v", f)
	}
	if f := readFrame(t, conn); f.Type != FrameReply || f.Content != "25 times 47 is 1175" {
		t.Errorf("unexpected reply frame %+v", f)
	}
}

func TestWebSocket_PlainTextAndBadFrames(t *testing.T) {
	_, mb, url := newWSServer(t, gateway.DefaultGatewayConfig())
	conn := dial(t, url, nil)

	ready := readFrame(t, conn)
	if ready.ChatID == "" {
		t.Fatal("expected a generated chat id")
	}

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`))
	if f := readFrame(t, conn); f.Type != FrameError {
		t.Errorf("expected error frame, got %+v", f)
	}

	_ = conn.WriteMessage(websocket.TextMessage, []byte("hello there"))
	select {
	case in := <-mb.InboundChan():
		if in.Content != "hello there" || in.ChatID != ready.ChatID {
			t.Errorf("unexpected inbound %+v", in)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("plain text frame not published")
	}
}

func TestWebSocket_SendToUnknownChat(t *testing.T) {
	ch := NewWebSocketChannel(gateway.DefaultGatewayConfig(), bus.NewMessageBus(1))
	if err := ch.Send(context.Background(), schema.OutboundMessage{ChatID: "ghost", Content: "x"}); err == nil {
		t.Error("expected error for a chat with no connection")
	}
}

func TestWebSocket_DisconnectDetaches(t *testing.T) {
	ch, _, url := newWSServer(t, gateway.DefaultGatewayConfig())
	conn := dial(t, url+"?chat_id=a", nil)
	readFrame(t, conn)
	if ch.Connected() != 1 {
		t.Fatalf("connected = %d", ch.Connected())
	}
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for ch.Connected() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ch.Connected() != 0 {
		t.Error("closed connection still attached")
	}
}

func TestWebSocket_CheckOrigin(t *testing.T) {
	cfg := gateway.DefaultGatewayConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com", "localhost:3000"}
	ch := NewWebSocketChannel(cfg, bus.NewMessageBus(1))

	cases := map[string]bool{
		"":                         true,
		"https://app.example.com":  true,
		"https://app.example.com/": true,
		"http://localhost:3000":    true,
		"https://evil.example.com": false,
		"http://app.example.com":   false,
	}
	for origin, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		if got := ch.checkOrigin(r); got != want {
			t.Errorf("checkOrigin(%q) = %v, want %v", origin, got, want)
		}
	}
}
