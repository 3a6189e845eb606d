package tool

// SearchConfig configures the search_web tool.
type SearchConfig struct {
	MaxResults int `mapstructure:"max_results" yaml:"max_results"`
}

// FetchConfig configures the read_webpage tool.
type FetchConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxChars       int `mapstructure:"max_chars" yaml:"max_chars"`
}

// ExecConfig configures the execute_system_command tool.
type ExecConfig struct {
	Enabled        bool `mapstructure:"enabled" yaml:"enabled"`
	TimeoutSeconds int  `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ToolsConfig groups all tool-level settings.
type ToolsConfig struct {
	Search SearchConfig `mapstructure:"search" yaml:"search"`
	Fetch  FetchConfig  `mapstructure:"fetch" yaml:"fetch"`
	Exec   ExecConfig   `mapstructure:"exec" yaml:"exec"`
}

func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		Search: SearchConfig{MaxResults: 3},
		Fetch:  FetchConfig{TimeoutSeconds: 15, MaxChars: 8000},
		Exec:   ExecConfig{TimeoutSeconds: 30},
	}
}
