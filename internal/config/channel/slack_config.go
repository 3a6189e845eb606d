package channel

// SlackDMConfig controls direct-message behaviour in Slack.
type SlackDMConfig struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
	Policy    string   `mapstructure:"policy" yaml:"policy"` // "open" or "allowlist"
	AllowFrom []string `mapstructure:"allow_from" yaml:"allow_from"`
}

func DefaultSlackDMConfig() SlackDMConfig {
	return SlackDMConfig{Enabled: true, Policy: "open", AllowFrom: []string{}}
}

// SlackConfig configures the Slack channel (Socket Mode only).
type SlackConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	BotToken       string        `mapstructure:"bot_token" yaml:"bot_token"`
	AppToken       string        `mapstructure:"app_token" yaml:"app_token"`
	ReplyInThread  bool          `mapstructure:"reply_in_thread" yaml:"reply_in_thread"`
	ReactEmoji     string        `mapstructure:"react_emoji" yaml:"react_emoji"`
	GroupPolicy    string        `mapstructure:"group_policy" yaml:"group_policy"` // "mention", "open" or "allowlist"
	GroupAllowFrom []string      `mapstructure:"group_allow_from" yaml:"group_allow_from"`
	DM             SlackDMConfig `mapstructure:"dm" yaml:"dm"`
}

func DefaultSlackConfig() SlackConfig {
	return SlackConfig{
		ReplyInThread:  true,
		ReactEmoji:     "eyes",
		GroupPolicy:    "mention",
		GroupAllowFrom: []string{},
		DM:             DefaultSlackDMConfig(),
	}
}
