// Package config defines the configuration schema for voxagent and loads it
// from ~/.voxagent/config.yaml, the environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voxagent/voxagent/internal/config/agent"
	"github.com/voxagent/voxagent/internal/config/channel"
	"github.com/voxagent/voxagent/internal/config/gateway"
	"github.com/voxagent/voxagent/internal/config/provider"
	"github.com/voxagent/voxagent/internal/config/tool"
	"github.com/voxagent/voxagent/internal/providers"
)

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level     string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format    string `mapstructure:"format" yaml:"format"` // text or json
	AddSource bool   `mapstructure:"add_source" yaml:"add_source"`
}

// Config is the root configuration object.
type Config struct {
	Agent     agent.AgentConfig        `mapstructure:"agent" yaml:"agent"`
	Providers provider.ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Tools     tool.ToolsConfig         `mapstructure:"tools" yaml:"tools"`
	Channels  channel.ChannelsConfig   `mapstructure:"channels" yaml:"channels"`
	Gateway   gateway.GatewayConfig    `mapstructure:"gateway" yaml:"gateway"`
	Heartbeat agent.HeartbeatConfig    `mapstructure:"heartbeat" yaml:"heartbeat"`
	Logging   LoggingConfig            `mapstructure:"logging" yaml:"logging"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Agent:     agent.DefaultAgentConfig(),
		Providers: provider.DefaultProvidersConfig(),
		Tools:     tool.DefaultToolsConfig(),
		Channels:  channel.DefaultChannelsConfig(),
		Gateway:   gateway.DefaultGatewayConfig(),
		Heartbeat: agent.DefaultHeartbeatConfig(),
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if c.Agent.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("agent.max_rounds must be at least 1, got %d", c.Agent.MaxRounds))
	}
	if c.Agent.MaxHistory < 0 {
		errs = append(errs, fmt.Errorf("agent.max_history must not be negative, got %d", c.Agent.MaxHistory))
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		errs = append(errs, fmt.Errorf("agent.temperature must be within [0, 2], got %g", c.Agent.Temperature))
	}
	if c.Agent.Provider != "" && providers.FindByName(c.Agent.Provider) == nil {
		errs = append(errs, fmt.Errorf("agent.provider %q is not a known provider", c.Agent.Provider))
	}
	if c.Heartbeat.Enabled && c.Heartbeat.IntervalMinutes <= 0 {
		errs = append(errs, errors.New("heartbeat.interval_minutes must be positive when the heartbeat is enabled"))
	}
	if c.Gateway.Enabled && (c.Gateway.Port <= 0 || c.Gateway.Port > 65535) {
		errs = append(errs, fmt.Errorf("gateway.port %d is out of range", c.Gateway.Port))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// WorkspacePath returns the expanded absolute path to the agent workspace.
func (c *Config) WorkspacePath() string {
	ws := c.Agent.Workspace
	if ws == "" {
		ws = filepath.Join(DataDir(), "workspace")
	}
	return expandHome(ws)
}

// ProviderByName returns the ProviderConfig for a registry name, or nil.
func (c *Config) ProviderByName(name string) *provider.ProviderConfig {
	return c.Providers.ByName(name)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
