package bus

type Channel string

const (
	ChannelCLI       Channel = "cli"
	ChannelWebSocket Channel = "websocket"
	ChannelTelegram  Channel = "telegram"
	ChannelSlack     Channel = "slack"
	ChannelCron      Channel = "cron"
	ChannelHeartbeat Channel = "heartbeat"
)

// Interactive reports whether replies on c are delivered to a live user.
// Cron and heartbeat turns run for their side effects.
func (c Channel) Interactive() bool {
	return c != ChannelCron && c != ChannelHeartbeat
}
