package channels

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/config"
	"github.com/voxagent/voxagent/internal/schema"
)

// Manager owns the registered channels and routes outbound messages to them.
type Manager struct {
	bus bus.Bus

	mu       sync.RWMutex
	channels map[string]schema.Channel
}

// NewManager creates an empty Manager.
func NewManager(b bus.Bus) *Manager {
	return &Manager{bus: b, channels: make(map[string]schema.Channel)}
}

// FromConfig creates a Manager with every channel enabled in cfg.
func FromConfig(cfg *config.Config, b bus.Bus) *Manager {
	m := NewManager(b)
	if cfg.Gateway.Enabled {
		m.Register(NewWebSocketChannel(cfg.Gateway, b))
	}
	if cfg.Channels.Telegram.Enabled {
		m.Register(NewTelegramChannel(cfg.Channels.Telegram, b))
	}
	if cfg.Channels.Slack.Enabled {
		m.Register(NewSlackChannel(cfg.Channels.Slack, b))
	}
	return m
}

// Register adds ch, replacing any channel with the same name.
func (m *Manager) Register(ch schema.Channel) {
	m.mu.Lock()
	m.channels[ch.Name()] = ch
	m.mu.Unlock()
	slog.Info("Channel enabled", "name", ch.Name())
}

// Channel returns the channel registered under name.
func (m *Manager) Channel(name string) (schema.Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

// EnabledChannels returns the registered channel names, sorted.
func (m *Manager) EnabledChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StartAll runs every channel and the outbound dispatcher until ctx is
// cancelled. A channel that fails is logged; the others keep running.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.RLock()
	chans := make([]schema.Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		chans = append(chans, ch)
	}
	m.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Dispatch(gctx) })
	for _, ch := range chans {
		ch := ch
		g.Go(func() error {
			slog.Info("Starting channel", "name", ch.Name())
			if err := ch.Start(gctx); err != nil && gctx.Err() == nil {
				slog.Error("Channel exited with error", "name", ch.Name(), "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Dispatch delivers outbound messages to their channel until ctx is cancelled.
func (m *Manager) Dispatch(ctx context.Context) error {
	for {
		select {
		case msg := <-m.bus.OutboundChan():
			if err := m.deliver(ctx, msg); err != nil {
				slog.Error("Send failed", "channel", msg.Channel, "err", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) deliver(ctx context.Context, msg schema.OutboundMessage) error {
	ch, ok := m.Channel(msg.Channel)
	if !ok {
		return fmt.Errorf("no channel named %q", msg.Channel)
	}
	return ch.Send(ctx, msg)
}
