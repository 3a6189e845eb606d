package gateway

// GatewayConfig holds the websocket gateway server settings.
type GatewayConfig struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	Path           string   `mapstructure:"path" yaml:"path"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{Enabled: true, Host: "127.0.0.1", Port: 18790, Path: "/ws", AllowedOrigins: []string{}}
}
