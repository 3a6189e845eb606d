package channels

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/config/channel"
	"github.com/voxagent/voxagent/internal/schema"
)

// SlackChannel talks to Slack over Socket Mode.
type SlackChannel struct {
	Base
	cfg       channel.SlackConfig
	webClient *slackgo.Client
	smClient  *socketmode.Client
	botUserID string
	mention   *regexp.Regexp
}

func NewSlackChannel(cfg channel.SlackConfig, b bus.Bus) *SlackChannel {
	return &SlackChannel{
		Base: NewBase(bus.ChannelSlack, b, nil), // Slack uses its own allow logic
		cfg:  cfg,
	}
}

func (s *SlackChannel) Start(ctx context.Context) error {
	if s.cfg.BotToken == "" || s.cfg.AppToken == "" {
		return errors.New("slack: bot/app token not configured")
	}

	s.webClient = slackgo.New(s.cfg.BotToken, slackgo.OptionAppLevelToken(s.cfg.AppToken))
	if resp, err := s.webClient.AuthTestContext(ctx); err == nil {
		s.botUserID = resp.UserID
		s.mention = regexp.MustCompile(`<@` + regexp.QuoteMeta(resp.UserID) + `>\s*`)
		slog.Info("Slack connected", "bot_user_id", s.botUserID)
	} else {
		slog.Warn("Slack auth test failed", "err", err)
	}

	s.smClient = socketmode.New(s.webClient)
	go func() {
		if err := s.smClient.RunContext(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Slack socket mode stopped", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-s.smClient.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, evt)
		}
	}
}

func (s *SlackChannel) handleEvent(ctx context.Context, evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}
	if evt.Request != nil {
		s.smClient.Ack(*evt.Request)
	}
	cb, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}

	switch ev := cb.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// Mentions arrive twice; the app_mention event handles them.
		if s.isMentioned(ev.Text) {
			return
		}
		s.handleInbound(ctx, "message", ev.User, ev.Channel, ev.ChannelType, ev.Text, ev.SubType, ev.TimeStamp, ev.ThreadTimeStamp)
	case *slackevents.AppMentionEvent:
		s.handleInbound(ctx, "app_mention", ev.User, ev.Channel, "channel", ev.Text, "", ev.TimeStamp, ev.ThreadTimeStamp)
	}
}

func (s *SlackChannel) handleInbound(ctx context.Context, evType, user, ch, channelType, text, subtype, ts, threadTS string) {
	if subtype != "" || user == "" || ch == "" || user == s.botUserID {
		return
	}
	if !s.isAllowedSlack(user, ch, channelType) {
		return
	}
	if channelType != "im" && !s.shouldRespond(evType, text, ch) {
		return
	}

	if s.mention != nil {
		text = strings.TrimSpace(s.mention.ReplaceAllString(text, ""))
	}
	if s.cfg.ReplyInThread && threadTS == "" {
		threadTS = ts
	}

	if s.cfg.ReactEmoji != "" && ts != "" {
		_ = s.webClient.AddReactionContext(ctx, s.cfg.ReactEmoji, slackgo.ItemRef{Channel: ch, Timestamp: ts})
	}

	metadata := map[string]any{"thread_ts": threadTS, "channel_type": channelType}
	if err := s.HandleMessage(ctx, user, ch, text, metadata); err != nil {
		slog.Warn("Slack message dropped", "err", err)
	}
}

func (s *SlackChannel) isMentioned(text string) bool {
	return s.botUserID != "" && strings.Contains(text, "<@"+s.botUserID+">")
}

func (s *SlackChannel) isAllowedSlack(user, ch, channelType string) bool {
	if channelType == "im" {
		if !s.cfg.DM.Enabled {
			return false
		}
		return s.cfg.DM.Policy != "allowlist" || slices.Contains(s.cfg.DM.AllowFrom, user)
	}
	return s.cfg.GroupPolicy != "allowlist" || slices.Contains(s.cfg.GroupAllowFrom, ch)
}

func (s *SlackChannel) shouldRespond(evType, text, ch string) bool {
	switch s.cfg.GroupPolicy {
	case "open":
		return true
	case "mention":
		return evType == "app_mention" || s.isMentioned(text)
	case "allowlist":
		return slices.Contains(s.cfg.GroupAllowFrom, ch)
	}
	return false
}

// Send posts a reply, threading it when the inbound message was threaded.
func (s *SlackChannel) Send(ctx context.Context, msg schema.OutboundMessage) error {
	if s.webClient == nil || msg.Progress || msg.Content == "" {
		return nil
	}
	threadTS, _ := msg.Metadata["thread_ts"].(string)
	channelType, _ := msg.Metadata["channel_type"].(string)

	options := []slackgo.MsgOption{slackgo.MsgOptionText(msg.Content, false)}
	if threadTS != "" && channelType != "im" {
		options = append(options, slackgo.MsgOptionTS(threadTS))
	}
	_, _, err := s.webClient.PostMessageContext(ctx, msg.ChatID, options...)
	return err
}
