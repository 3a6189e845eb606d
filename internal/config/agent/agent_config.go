package agent

// AgentConfig holds the agent loop and session settings.
type AgentConfig struct {
	Workspace     string  `mapstructure:"workspace" yaml:"workspace"`
	Provider      string  `mapstructure:"provider" yaml:"provider"`
	Model         string  `mapstructure:"model" yaml:"model"`
	MaxTokens     int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature   float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxRounds     int     `mapstructure:"max_rounds" yaml:"max_rounds"`
	MaxHistory    int     `mapstructure:"max_history" yaml:"max_history"`
	ParallelTools bool    `mapstructure:"parallel_tools" yaml:"parallel_tools"`
	SystemPrompt  string  `mapstructure:"system_prompt" yaml:"system_prompt,omitempty"`
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Workspace:   "~/.voxagent/workspace",
		Model:       "gpt-4o-mini",
		MaxTokens:   1024,
		Temperature: 0.7,
		MaxRounds:   5,
		MaxHistory:  20,
	}
}

// HeartbeatConfig configures the periodic HEARTBEAT.md check-in.
type HeartbeatConfig struct {
	Enabled         bool `mapstructure:"enabled" yaml:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes" yaml:"interval_minutes"`
}

func DefaultHeartbeatConfig() HeartbeatConfig {
	return HeartbeatConfig{IntervalMinutes: 30}
}
