package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/schema"
	"github.com/voxagent/voxagent/internal/session"
	"github.com/voxagent/voxagent/internal/shared/llmutils"
	"github.com/voxagent/voxagent/internal/shared/stringutils"
	"github.com/voxagent/voxagent/internal/tools"
)

const helpText = "voxagent commands:\n" +
	"/reset - Start a new conversation (also /new)\n" +
	"/tools - List the tools I can use\n" +
	"/help - Show available commands"

// Agent routes utterances to their session and runs one Loop turn per
// utterance. Turns on the same session are serialized.
type Agent struct {
	loop     *Loop
	sessions *session.Manager
	registry *tools.Registry
}

func NewAgent(loop *Loop, sessions *session.Manager, registry *tools.Registry) *Agent {
	return &Agent{loop: loop, sessions: sessions, registry: registry}
}

// Handle runs one turn for msg and persists the session. Blank content
// returns an empty result without touching the session.
func (a *Agent) Handle(ctx context.Context, msg schema.InboundMessage, onProgress func(string)) TurnResult {
	return a.handle(ctx, msg, msg.SessionKey(), onProgress)
}

// ProcessDirect handles a message outside the bus (CLI, cron, heartbeat).
// sessionKey overrides the channel:chat key when non-empty.
func (a *Agent) ProcessDirect(ctx context.Context, content, sessionKey, channel, chatID string) TurnResult {
	msg := schema.InboundMessage{Channel: channel, SenderID: "user", ChatID: chatID, Content: content}
	key := stringutils.OrDefault(sessionKey, msg.SessionKey())
	return a.handle(ctx, msg, key, nil)
}

func (a *Agent) handle(ctx context.Context, msg schema.InboundMessage, key string, onProgress func(string)) TurnResult {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return TurnResult{}
	}

	slog.Info(
		"Processing message",
		"sender", msg.SenderID,
		"channel", msg.Channel,
		"content", stringutils.Truncate(content, 80),
	)

	sess := a.sessions.GetOrCreate(key)
	unlock := sess.LockTurn()
	defer unlock()

	if res, ok := a.handleSlashCommand(sess, content); ok {
		return res
	}

	ctx = tools.WithTurn(ctx, tools.TurnContext{Channel: msg.Channel, ChatID: msg.ChatID, SessionKey: key})
	res := a.loop.Run(ctx, sess.History, content, onProgress)

	slog.Info("Response",
		"channel", msg.Channel,
		"sender", msg.SenderID,
		"rounds", res.Rounds,
		"tools", len(res.ToolInvocations),
		"length", len(res.FinalText),
		"err", res.Err,
	)

	sess.Touch()
	if err := a.sessions.Save(sess); err != nil {
		slog.Error("Failed to save session", "key", key, "err", err)
	}
	return res
}

// handleSlashCommand handles a known slash command. ok is false when content
// is an ordinary utterance.
func (a *Agent) handleSlashCommand(sess *session.Session, content string) (TurnResult, bool) {
	switch strings.ToLower(content) {
	case "/reset", "/new":
		sess.Clear()
		if err := a.sessions.Save(sess); err != nil {
			slog.Error("Failed to save session", "key", sess.Key, "err", err)
		}
		return TurnResult{FinalText: "New conversation started. How can I help?"}, true
	case "/help":
		return TurnResult{FinalText: helpText}, true
	case "/tools":
		return TurnResult{FinalText: "Available tools:\n" + llmutils.ToolList(a.registry.Definitions())}, true
	}
	return TurnResult{}, false
}

// Run reads from the inbound bus. Each session gets one worker that handles
// its messages in arrival order; different sessions run concurrently. Blocks
// until ctx is cancelled and in-flight turns finish.
func (a *Agent) Run(ctx context.Context, b bus.Bus) error {
	slog.Info("Agent loop started")

	var wg sync.WaitGroup
	defer wg.Wait()

	queue := newTurnQueue()
	for {
		select {
		case msg := <-b.InboundChan():
			key := msg.SessionKey()
			if !queue.push(key, msg) {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					next, ok := queue.pop(key)
					if !ok {
						return
					}
					a.dispatch(ctx, b, next)
				}
			}()
		case <-ctx.Done():
			slog.Info("Agent loop stopping")
			return ctx.Err()
		}
	}
}

func (a *Agent) dispatch(ctx context.Context, b bus.Bus, msg schema.InboundMessage) {
	interactive := bus.Channel(msg.Channel).Interactive()

	var progress func(string)
	if interactive {
		progress = func(content string) {
			out := schema.OutboundMessage{
				Channel:  msg.Channel,
				ChatID:   msg.ChatID,
				Content:  content,
				Progress: true,
				Metadata: msg.Metadata,
			}
			if err := b.PublishOutbound(ctx, out); err != nil {
				slog.Debug("Dropped progress update", "err", err)
			}
		}
	}

	res := a.Handle(ctx, msg, progress)
	if !interactive || res.FinalText == "" {
		return
	}
	out := schema.OutboundMessage{
		Channel:  msg.Channel,
		ChatID:   msg.ChatID,
		Content:  res.FinalText,
		Metadata: msg.Metadata,
	}
	if err := b.PublishOutbound(ctx, out); err != nil {
		slog.Warn("Failed to publish reply", "channel", msg.Channel, "err", err)
	}
}
