package providers

import (
	"fmt"
	"time"

	"github.com/voxagent/voxagent/internal/schema"
)

// Params are the raw values needed to construct any schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
	DefaultModel string
	ProviderName string // registry name, e.g. "openrouter", "gemini"
	Timeout      time.Duration
	Retry        *RetryConfig // nil disables retries
}

// New creates the schema.LLMProvider for the resolved provider spec.
//
//   - gemini  → GeminiProvider (generateContent API)
//   - offline → OfflineProvider (keyword intents, no network)
//   - other   → OpenAIProvider (any OpenAI-compatible endpoint)
//
// Hosted providers are wrapped in a RetryProvider when p.Retry is set.
func New(p Params) (schema.LLMProvider, error) {
	spec := Resolve(p.ProviderName, p.DefaultModel, p.APIKey, p.APIBase)
	if spec.Kind == KindOffline {
		return NewOfflineProvider(), nil
	}
	if spec.NeedsKey() && p.APIKey == "" && !(spec.Name == "custom" && p.APIBase != "") {
		return nil, fmt.Errorf("%w for provider %s", ErrNoAPIKey, spec.Label())
	}

	model := p.DefaultModel
	if model == "" {
		model = spec.DefaultModel
	}

	var provider schema.LLMProvider
	switch spec.Kind {
	case KindGemini:
		provider = NewGeminiProvider(p.APIKey, p.APIBase, model, p.Timeout)
	default:
		provider = NewOpenAIProvider(p.APIKey, p.APIBase, model, spec, p.ExtraHeaders, p.Timeout)
	}
	if p.Retry != nil {
		provider = NewRetryProvider(provider, *p.Retry)
	}
	return provider, nil
}
