package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/config/gateway"
	"github.com/voxagent/voxagent/internal/schema"
)

// Frame types exchanged with websocket clients.
const (
	FrameReady    = "ready"
	FrameMessage  = "message"
	FrameProgress = "progress"
	FrameReply    = "reply"
	FrameError    = "error"
)

// Frame is the JSON envelope of every websocket message.
type Frame struct {
	Type    string `json:"type"`
	ChatID  string `json:"chat_id,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 32
)

// WebSocketChannel serves the gateway endpoint. Each connection is one chat;
// clients reconnecting with ?chat_id= resume the same conversation.
type WebSocketChannel struct {
	Base
	cfg      gateway.GatewayConfig
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*wsConn
}

// NewWebSocketChannel creates a WebSocketChannel.
func NewWebSocketChannel(cfg gateway.GatewayConfig, b bus.Bus) *WebSocketChannel {
	w := &WebSocketChannel{
		Base:  NewBase(bus.ChannelWebSocket, b, nil),
		cfg:   cfg,
		conns: make(map[string]*wsConn),
	}
	w.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     w.checkOrigin,
	}
	return w
}

// Addr is the listen address.
func (w *WebSocketChannel) Addr() string {
	return net.JoinHostPort(w.cfg.Host, strconv.Itoa(w.cfg.Port))
}

// Start serves HTTP until ctx is cancelled.
func (w *WebSocketChannel) Start(ctx context.Context) error {
	path := w.cfg.Path
	if path == "" {
		path = "/ws"
	}
	mux := http.NewServeMux()
	mux.Handle(path, w)
	mux.HandleFunc("/health", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              w.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		w.closeAll()
	}()

	slog.Info("WebSocket gateway listening", "addr", w.Addr(), "path", path)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket: %w", err)
	}
	return ctx.Err()
}

// ServeHTTP upgrades the request and pumps frames for the connection.
func (w *WebSocketChannel) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ws, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Debug("WebSocket upgrade failed", "err", err)
		return
	}

	chatID := strings.TrimSpace(r.URL.Query().Get("chat_id"))
	if chatID == "" {
		chatID = uuid.NewString()
	}
	conn := newWSConn(ws)
	w.attach(chatID, conn)
	defer w.detach(chatID, conn)

	go conn.writeLoop()
	_ = conn.enqueue(Frame{Type: FrameReady, ChatID: chatID})
	slog.Info("WebSocket client connected", "chat_id", chatID, "remote", r.RemoteAddr)

	ws.SetReadLimit(64 << 10)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("WebSocket read failed", "chat_id", chatID, "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		content, ok := decodeClientFrame(data)
		if !ok {
			_ = conn.enqueue(Frame{Type: FrameError, Error: "expected a message frame"})
			continue
		}
		if err := w.HandleMessage(r.Context(), chatID, chatID, content, nil); err != nil {
			_ = conn.enqueue(Frame{Type: FrameError, Error: err.Error()})
		}
	}
}

// decodeClientFrame accepts {"type":"message","content":...} or plain text.
func decodeClientFrame(data []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, trimmed != ""
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return "", false
	}
	if f.Type != "" && f.Type != FrameMessage {
		return "", false
	}
	return f.Content, strings.TrimSpace(f.Content) != ""
}

// Send writes a reply or progress frame to the chat's connection.
func (w *WebSocketChannel) Send(_ context.Context, msg schema.OutboundMessage) error {
	w.mu.Lock()
	conn, ok := w.conns[msg.ChatID]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("websocket: chat %s is not connected", msg.ChatID)
	}
	typ := FrameReply
	if msg.Progress {
		typ = FrameProgress
	}
	return conn.enqueue(Frame{Type: typ, ChatID: msg.ChatID, Content: msg.Content})
}

// Connected returns the number of open connections.
func (w *WebSocketChannel) Connected() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.conns)
}

func (w *WebSocketChannel) attach(chatID string, conn *wsConn) {
	w.mu.Lock()
	old := w.conns[chatID]
	w.conns[chatID] = conn
	w.mu.Unlock()
	if old != nil {
		_ = old.close()
	}
}

func (w *WebSocketChannel) detach(chatID string, conn *wsConn) {
	w.mu.Lock()
	if w.conns[chatID] == conn {
		delete(w.conns, chatID)
	}
	w.mu.Unlock()
	_ = conn.close()
}

func (w *WebSocketChannel) closeAll() {
	w.mu.Lock()
	conns := w.conns
	w.conns = make(map[string]*wsConn)
	w.mu.Unlock()
	for _, c := range conns {
		_ = c.close()
	}
}

// checkOrigin allows requests without an Origin header and, when an
// allowlist is configured, origins on it. Entries may be full origins or
// bare hosts.
func (w *WebSocketChannel) checkOrigin(r *http.Request) bool {
	origin := strings.TrimRight(strings.TrimSpace(r.Header.Get("Origin")), "/")
	if origin == "" || len(w.cfg.AllowedOrigins) == 0 {
		return true
	}
	originHost := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	for _, allowed := range w.cfg.AllowedOrigins {
		a := strings.TrimRight(strings.TrimSpace(allowed), "/")
		if a == "" {
			continue
		}
		if strings.Contains(a, "://") {
			if strings.EqualFold(a, origin) {
				return true
			}
		} else if strings.EqualFold(a, originHost) {
			return true
		}
	}
	return false
}

// wsConn serializes writes to one websocket.
type wsConn struct {
	ws     *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	closed atomic.Bool
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws, sendCh: make(chan []byte, wsSendBuffer), done: make(chan struct{})}
}

func (c *wsConn) enqueue(f Frame) error {
	if c.closed.Load() {
		return errors.New("websocket: connection closed")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case c.sendCh <- data:
		return nil
	case <-c.done:
		return errors.New("websocket: connection closed")
	default:
		return errors.New("websocket: send buffer full")
	}
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data := <-c.sendCh:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	return c.ws.Close()
}
