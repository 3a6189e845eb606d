package providers

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		provider, model, key, base string
		want                       string
	}{
		{"gemini", "", "", "", "gemini"},
		{"", "gemini-2.5-flash", "", "", "gemini"},
		{"", "gpt-4o-mini", "", "", "openai"},
		{"", "anything", "sk-or-abc", "", "openrouter"},
		{"", "llama3", "", "http://localhost:11434/v1", "ollama"},
		{"", "unknown-model", "", "", "openai"},
		{"offline", "", "", "", "offline"},
	}
	for _, tc := range cases {
		got := Resolve(tc.provider, tc.model, tc.key, tc.base)
		if got == nil || got.Name != tc.want {
			t.Errorf("Resolve(%q,%q,%q,%q) = %v; want %s", tc.provider, tc.model, tc.key, tc.base, got, tc.want)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Params{ProviderName: "openai"}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}

	p, err := New(Params{ProviderName: "offline"})
	if err != nil {
		t.Fatalf("offline: %v", err)
	}
	if _, ok := p.(*OfflineProvider); !ok {
		t.Errorf("expected OfflineProvider, got %T", p)
	}

	p, err = New(Params{ProviderName: "gemini", APIKey: "k"})
	if err != nil {
		t.Fatalf("gemini: %v", err)
	}
	if p.DefaultModel() != "gemini-2.5-flash" {
		t.Errorf("unexpected default model %q", p.DefaultModel())
	}

	p, err = New(Params{APIKey: "sk-x", DefaultModel: "gpt-4o", Retry: &RetryConfig{}})
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Errorf("expected retry wrapper, got %T", p)
	}

	if _, err := New(Params{ProviderName: "ollama", DefaultModel: "llama3"}); err != nil {
		t.Errorf("local provider should not need a key: %v", err)
	}
}
