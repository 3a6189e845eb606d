package config

import (
	"strings"
	"time"

	"github.com/voxagent/voxagent/internal/config/provider"
	"github.com/voxagent/voxagent/internal/providers"
)

// MatchResult is the resolved LLM provider config and registry name for a model.
type MatchResult struct {
	Provider *provider.ProviderConfig
	Name     string // e.g. "openrouter", "gemini"
}

// MatchProvider resolves which provider config and registry entry to use.
// If model is empty, agent.model is used.
//
// Priority order:
//  1. agent.provider when set
//  2. Explicit provider prefix in the model string ("gemini/gemini-2.5-flash")
//  3. Keyword match in the model name, among providers with a key
//  4. Fallback: the first provider with a key, in registry order
func (c *Config) MatchProvider(model string) MatchResult {
	if model == "" {
		model = c.Agent.Model
	}

	if name := c.Agent.Provider; name != "" {
		return MatchResult{Provider: c.ProviderByName(name), Name: name}
	}

	modelLower := strings.ToLower(model)
	modelPrefix, _, hasPrefix := strings.Cut(modelLower, "/")

	// 1. Explicit provider prefix wins.
	if hasPrefix {
		if p := c.ProviderByName(modelPrefix); p != nil {
			return MatchResult{Provider: p, Name: modelPrefix}
		}
	}

	// 2. Keyword match.
	for _, spec := range providers.PROVIDERS {
		p := c.ProviderByName(spec.Name)
		if p == nil || (spec.NeedsKey() && p.APIKey == "") {
			continue
		}
		for _, kw := range spec.Keywords {
			if strings.Contains(modelLower, kw) {
				return MatchResult{Provider: p, Name: spec.Name}
			}
		}
	}

	// 3. Fallback: first configured provider.
	for _, spec := range providers.PROVIDERS {
		p := c.ProviderByName(spec.Name)
		if p != nil && p.APIKey != "" {
			return MatchResult{Provider: p, Name: spec.Name}
		}
	}

	return MatchResult{}
}

// ProviderParams builds the constructor parameters for the configured
// provider. The caller passes them to providers.New.
func (c *Config) ProviderParams() providers.Params {
	m := c.MatchProvider("")
	params := providers.Params{
		ProviderName: m.Name,
		DefaultModel: c.Agent.Model,
		Timeout:      time.Duration(c.Providers.TimeoutSeconds) * time.Second,
	}
	if m.Provider != nil {
		params.APIKey = m.Provider.APIKey
		params.APIBase = m.Provider.APIBase
		params.ExtraHeaders = m.Provider.ExtraHeaders
	}
	if r := c.Providers.Retry; r.MaxAttempts > 1 {
		params.Retry = &providers.RetryConfig{
			MaxAttempts: r.MaxAttempts,
			BaseDelay:   time.Duration(r.BaseDelayMs) * time.Millisecond,
			MaxDelay:    time.Duration(r.MaxDelayMs) * time.Millisecond,
			Jitter:      r.Jitter,
		}
	}
	return params
}
