package providers

import "strings"

// Wire families understood by New.
const (
	KindOpenAI  = "openai"
	KindGemini  = "gemini"
	KindOffline = "offline"
)

// ProviderSpec is the metadata record for one LLM provider.
type ProviderSpec struct {
	Name        string   // config field name, e.g. "openrouter"
	Keywords    []string // model-name keywords for matching (lowercase)
	EnvKey      string   // env var holding the API key
	DisplayName string   // shown in `voxagent status`
	Kind        string   // wire family

	IsGateway           bool   // routes any model (OpenRouter)
	IsLocal             bool   // local deployment, no key needed
	DetectByKeyPrefix   string // match api_key prefix to identify gateway
	DetectByBaseKeyword string // match substring in api_base URL
	DefaultAPIBase      string
	DefaultModel        string
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

// NeedsKey reports whether the provider requires an API key.
func (s ProviderSpec) NeedsKey() bool {
	return !s.IsLocal && s.Kind != KindOffline
}

// PROVIDERS is the registry. Order = match priority.
var PROVIDERS = []ProviderSpec{
	{
		Name:        "custom",
		DisplayName: "Custom",
		Kind:        KindOpenAI,
	},
	{
		Name:                "openrouter",
		Keywords:            []string{"openrouter"},
		EnvKey:              "OPENROUTER_API_KEY",
		DisplayName:         "OpenRouter",
		Kind:                KindOpenAI,
		IsGateway:           true,
		DetectByKeyPrefix:   "sk-or-",
		DetectByBaseKeyword: "openrouter",
		DefaultAPIBase:      "https://openrouter.ai/api/v1",
	},
	{
		Name:           "openai",
		Keywords:       []string{"gpt", "o1", "o3", "o4"},
		EnvKey:         "OPENAI_API_KEY",
		DisplayName:    "OpenAI",
		Kind:           KindOpenAI,
		DefaultAPIBase: "https://api.openai.com/v1",
		DefaultModel:   "gpt-4o-mini",
	},
	{
		Name:           "gemini",
		Keywords:       []string{"gemini"},
		EnvKey:         "GEMINI_API_KEY",
		DisplayName:    "Gemini",
		Kind:           KindGemini,
		DefaultAPIBase: "https://generativelanguage.googleapis.com",
		DefaultModel:   "gemini-2.5-flash",
	},
	{
		Name:           "groq",
		Keywords:       []string{"groq", "llama"},
		EnvKey:         "GROQ_API_KEY",
		DisplayName:    "Groq",
		Kind:           KindOpenAI,
		DefaultAPIBase: "https://api.groq.com/openai/v1",
	},
	{
		Name:           "deepseek",
		Keywords:       []string{"deepseek"},
		EnvKey:         "DEEPSEEK_API_KEY",
		DisplayName:    "DeepSeek",
		Kind:           KindOpenAI,
		DefaultAPIBase: "https://api.deepseek.com/v1",
	},
	{
		Name:                "ollama",
		Keywords:            []string{"ollama"},
		DisplayName:         "Ollama",
		Kind:                KindOpenAI,
		IsLocal:             true,
		DetectByBaseKeyword: "11434",
		DefaultAPIBase:      "http://localhost:11434/v1",
	},
	{
		Name:        "offline",
		DisplayName: "Offline",
		Kind:        KindOffline,
		IsLocal:     true,
	},
}

// FindByModel matches a standard provider by model-name prefix or keyword
// (case-insensitive). Gateways and local providers are matched by
// FindGateway instead.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	modelPrefix, _, _ := strings.Cut(modelLower, "/")

	var std []*ProviderSpec
	for i := range PROVIDERS {
		if !PROVIDERS[i].IsGateway && !PROVIDERS[i].IsLocal {
			std = append(std, &PROVIDERS[i])
		}
	}

	for _, spec := range std {
		if modelPrefix != modelLower && modelPrefix == spec.Name {
			return spec
		}
	}
	for _, spec := range std {
		for _, kw := range spec.Keywords {
			if strings.Contains(modelLower, kw) {
				return spec
			}
		}
	}
	return nil
}

// FindGateway detects the gateway or local provider.
// Priority: (1) explicit provider name, (2) api_key prefix, (3) api_base keyword.
func FindGateway(providerName, apiKey, apiBase string) *ProviderSpec {
	if providerName != "" {
		if s := FindByName(providerName); s != nil && (s.IsGateway || s.IsLocal) {
			return s
		}
	}
	for i := range PROVIDERS {
		spec := &PROVIDERS[i]
		if spec.DetectByKeyPrefix != "" && strings.HasPrefix(apiKey, spec.DetectByKeyPrefix) {
			return spec
		}
		if spec.DetectByBaseKeyword != "" && apiBase != "" && strings.Contains(apiBase, spec.DetectByBaseKeyword) {
			return spec
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}

// Resolve picks the spec for an explicit provider name or, failing that, for
// the model name. It falls back to the OpenAI spec.
func Resolve(providerName, model, apiKey, apiBase string) *ProviderSpec {
	if providerName != "" {
		if s := FindByName(providerName); s != nil {
			return s
		}
	}
	if s := FindGateway("", apiKey, apiBase); s != nil {
		return s
	}
	if s := FindByModel(model); s != nil {
		return s
	}
	return FindByName("openai")
}
