package provider

const (
	ProviderCustom     = "custom"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderGroq       = "groq"
	ProviderDeepSeek   = "deepseek"
	ProviderOllama     = "ollama"
)

// ProviderConfig holds credentials for one LLM provider.
type ProviderConfig struct {
	APIKey       string            `mapstructure:"api_key" yaml:"api_key"`
	APIBase      string            `mapstructure:"api_base" yaml:"api_base,omitempty"`
	ExtraHeaders map[string]string `mapstructure:"extra_headers" yaml:"extra_headers,omitempty"`
}

// RetryConfig controls retries of rate-limited or unavailable providers.
type RetryConfig struct {
	MaxAttempts int     `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseDelayMs int     `mapstructure:"base_delay_ms" yaml:"base_delay_ms"`
	MaxDelayMs  int     `mapstructure:"max_delay_ms" yaml:"max_delay_ms"`
	Jitter      float64 `mapstructure:"jitter" yaml:"jitter"`
}

// ProvidersConfig holds credentials for all supported LLM providers.
type ProvidersConfig struct {
	Custom         ProviderConfig `mapstructure:"custom" yaml:"custom"`
	OpenAI         ProviderConfig `mapstructure:"openai" yaml:"openai"`
	Gemini         ProviderConfig `mapstructure:"gemini" yaml:"gemini"`
	OpenRouter     ProviderConfig `mapstructure:"openrouter" yaml:"openrouter"`
	Groq           ProviderConfig `mapstructure:"groq" yaml:"groq"`
	DeepSeek       ProviderConfig `mapstructure:"deepseek" yaml:"deepseek"`
	Ollama         ProviderConfig `mapstructure:"ollama" yaml:"ollama"`
	TimeoutSeconds int            `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Retry          RetryConfig    `mapstructure:"retry" yaml:"retry"`
}

func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		TimeoutSeconds: 120,
		Retry:          RetryConfig{MaxAttempts: 3, BaseDelayMs: 500, MaxDelayMs: 8000, Jitter: 0.2},
	}
}

// ByName returns a pointer to the ProviderConfig field matching the given
// registry name. Returns nil if the name is unknown.
func (p *ProvidersConfig) ByName(name string) *ProviderConfig {
	switch name {
	case ProviderCustom:
		return &p.Custom
	case ProviderOpenAI:
		return &p.OpenAI
	case ProviderGemini:
		return &p.Gemini
	case ProviderOpenRouter:
		return &p.OpenRouter
	case ProviderGroq:
		return &p.Groq
	case ProviderDeepSeek:
		return &p.DeepSeek
	case ProviderOllama:
		return &p.Ollama
	}
	return nil
}
