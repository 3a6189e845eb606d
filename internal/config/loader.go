package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// envBindings maps the environment variables the assistant has always
// honoured onto config keys. VOXAGENT_<SECTION>_<KEY> works for every key.
var envBindings = map[string][]string{
	"agent.model":                  {"OPENAI_MODEL"},
	"agent.max_history":            {"MAX_CONVERSATION_HISTORY"},
	"agent.max_rounds":             {"MAX_AGENT_ITERATIONS"},
	"agent.system_prompt":          {"SYSTEM_PROMPT"},
	"providers.openai.api_key":     {"OPENAI_API_KEY"},
	"providers.gemini.api_key":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"providers.openrouter.api_key": {"OPENROUTER_API_KEY"},
	"providers.groq.api_key":       {"GROQ_API_KEY"},
	"providers.deepseek.api_key":   {"DEEPSEEK_API_KEY"},
	"channels.telegram.token":      {"TELEGRAM_BOT_TOKEN"},
	"channels.slack.bot_token":     {"SLACK_BOT_TOKEN"},
	"channels.slack.app_token":     {"SLACK_APP_TOKEN"},
}

// ConfigPath returns the default configuration file path: ~/.voxagent/config.yaml.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns the voxagent data directory: ~/.voxagent.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".voxagent"
	}
	return filepath.Join(home, ".voxagent")
}

// Load reads the config file at path (ConfigPath() when empty), overlays the
// environment and validates the result. A missing file is not an error; a
// file that cannot be parsed is reported and defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yaml")
	}
	setDefaults(v)

	v.SetEnvPrefix("VOXAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			slog.Debug("No config file, using defaults", "path", path)
		default:
			slog.Warn("Failed to parse config, using defaults", "path", path, "err", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// setDefaults registers every default so that environment variables can
// override keys absent from the file.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("agent.workspace", def.Agent.Workspace)
	v.SetDefault("agent.provider", def.Agent.Provider)
	v.SetDefault("agent.model", def.Agent.Model)
	v.SetDefault("agent.max_tokens", def.Agent.MaxTokens)
	v.SetDefault("agent.temperature", def.Agent.Temperature)
	v.SetDefault("agent.max_rounds", def.Agent.MaxRounds)
	v.SetDefault("agent.max_history", def.Agent.MaxHistory)
	v.SetDefault("agent.parallel_tools", def.Agent.ParallelTools)
	v.SetDefault("agent.system_prompt", def.Agent.SystemPrompt)

	v.SetDefault("providers.timeout_seconds", def.Providers.TimeoutSeconds)
	v.SetDefault("providers.retry.max_attempts", def.Providers.Retry.MaxAttempts)
	v.SetDefault("providers.retry.base_delay_ms", def.Providers.Retry.BaseDelayMs)
	v.SetDefault("providers.retry.max_delay_ms", def.Providers.Retry.MaxDelayMs)
	v.SetDefault("providers.retry.jitter", def.Providers.Retry.Jitter)

	v.SetDefault("tools.search.max_results", def.Tools.Search.MaxResults)
	v.SetDefault("tools.fetch.timeout_seconds", def.Tools.Fetch.TimeoutSeconds)
	v.SetDefault("tools.fetch.max_chars", def.Tools.Fetch.MaxChars)
	v.SetDefault("tools.exec.enabled", def.Tools.Exec.Enabled)
	v.SetDefault("tools.exec.timeout_seconds", def.Tools.Exec.TimeoutSeconds)

	v.SetDefault("channels.telegram.enabled", false)
	v.SetDefault("channels.slack.enabled", false)
	v.SetDefault("channels.slack.reply_in_thread", def.Channels.Slack.ReplyInThread)
	v.SetDefault("channels.slack.react_emoji", def.Channels.Slack.ReactEmoji)
	v.SetDefault("channels.slack.group_policy", def.Channels.Slack.GroupPolicy)
	v.SetDefault("channels.slack.dm.enabled", def.Channels.Slack.DM.Enabled)
	v.SetDefault("channels.slack.dm.policy", def.Channels.Slack.DM.Policy)

	v.SetDefault("gateway.enabled", def.Gateway.Enabled)
	v.SetDefault("gateway.host", def.Gateway.Host)
	v.SetDefault("gateway.port", def.Gateway.Port)
	v.SetDefault("gateway.path", def.Gateway.Path)

	v.SetDefault("heartbeat.enabled", def.Heartbeat.Enabled)
	v.SetDefault("heartbeat.interval_minutes", def.Heartbeat.IntervalMinutes)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.add_source", def.Logging.AddSource)
}

// Save writes cfg to path as YAML. If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
