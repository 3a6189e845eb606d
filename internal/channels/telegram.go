package channels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/config/channel"
	"github.com/voxagent/voxagent/internal/schema"
)

const telegramMaxMessage = 4000

// TelegramChannel talks to a Telegram bot via long polling.
type TelegramChannel struct {
	Base
	cfg channel.TelegramConfig
	bot *tgbotapi.BotAPI
}

// NewTelegramChannel creates a TelegramChannel.
func NewTelegramChannel(cfg channel.TelegramConfig, b bus.Bus) *TelegramChannel {
	return &TelegramChannel{
		Base: NewBase(bus.ChannelTelegram, b, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (t *TelegramChannel) Start(ctx context.Context) error {
	if t.cfg.Token == "" {
		return errors.New("telegram: bot token not configured")
	}

	client := &http.Client{Timeout: 60 * time.Second}
	if t.cfg.Proxy != "" {
		proxy, err := url.Parse(t.cfg.Proxy)
		if err != nil {
			return fmt.Errorf("telegram: invalid proxy: %w", err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(t.cfg.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	slog.Info("Telegram connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go t.handleUpdate(ctx, update)
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (t *TelegramChannel) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	senderID := strconv.FormatInt(msg.From.ID, 10)
	if msg.From.UserName != "" {
		senderID += "|" + msg.From.UserName
	}

	content := msg.Text
	if content == "" {
		content = msg.Caption
	}
	if msg.IsCommand() && msg.Command() == "start" {
		content = "/help"
	}

	typingCtx, cancelTyping := context.WithCancel(ctx)
	defer cancelTyping()
	go t.sendTypingLoop(typingCtx, msg.Chat.ID)

	metadata := map[string]any{
		"message_id": msg.MessageID,
		"username":   msg.From.UserName,
		"is_group":   !msg.Chat.IsPrivate(),
	}
	if err := t.HandleMessage(ctx, senderID, strconv.FormatInt(msg.Chat.ID, 10), content, metadata); err != nil {
		slog.Warn("Telegram message dropped", "err", err)
	}
}

func (t *TelegramChannel) sendTypingLoop(ctx context.Context, chatID int64) {
	for {
		if t.bot != nil {
			_, _ = t.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
		}
		select {
		case <-time.After(4 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

// Send posts a reply. Progress updates are not forwarded to Telegram.
func (t *TelegramChannel) Send(_ context.Context, msg schema.OutboundMessage) error {
	if t.bot == nil {
		return errors.New("telegram: bot not running")
	}
	if msg.Progress || msg.Content == "" {
		return nil
	}
	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q", msg.ChatID)
	}

	replyTo := 0
	if t.cfg.ReplyToMessage {
		replyTo = intFromMeta(msg.Metadata, "message_id")
	}

	for _, chunk := range splitMessage(msg.Content, telegramMaxMessage) {
		m := tgbotapi.NewMessage(chatID, markdownToTelegramHTML(chunk))
		m.ParseMode = tgbotapi.ModeHTML
		m.ReplyToMessageID = replyTo
		if _, err := t.bot.Send(m); err != nil {
			plain := tgbotapi.NewMessage(chatID, chunk)
			plain.ReplyToMessageID = replyTo
			if _, err := t.bot.Send(plain); err != nil {
				return fmt.Errorf("telegram: send: %w", err)
			}
		}
	}
	return nil
}

func intFromMeta(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// ─── Markdown → Telegram HTML ──────────────────────────────────────────────

var (
	reTGCodeBlock  = regexp.MustCompile("(?s)```[\\w]*\\n?(.*?)```")
	reTGInlineCode = regexp.MustCompile("`([^`]+)`")
	reTGHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	reTGLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reTGBold       = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	reTGStrike     = regexp.MustCompile(`~~(.+?)~~`)
	reTGBullet     = regexp.MustCompile(`(?m)^[-*]\s+`)
)

// markdownToTelegramHTML converts the markdown subset models usually emit
// into Telegram's HTML parse mode.
func markdownToTelegramHTML(text string) string {
	if text == "" {
		return ""
	}

	var blocks []string
	stash := func(re *regexp.Regexp, tag string) {
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			blocks = append(blocks, tag+htmlEscape(re.FindStringSubmatch(m)[1])+closeTag(tag))
			return fmt.Sprintf("\x00%d\x00", len(blocks)-1)
		})
	}
	stash(reTGCodeBlock, "<pre><code>")
	stash(reTGInlineCode, "<code>")

	text = reTGHeader.ReplaceAllString(text, "$1")
	text = htmlEscape(text)
	text = reTGLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = reTGBold.ReplaceAllString(text, "<b>$1$2</b>")
	text = reTGStrike.ReplaceAllString(text, "<s>$1</s>")
	text = reTGBullet.ReplaceAllString(text, "• ")

	for i, b := range blocks {
		text = strings.Replace(text, fmt.Sprintf("\x00%d\x00", i), b, 1)
	}
	return text
}

func closeTag(open string) string {
	if open == "<pre><code>" {
		return "</code></pre>"
	}
	return "</code>"
}

func htmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
