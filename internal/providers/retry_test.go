package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voxagent/voxagent/internal/schema"
)

type scriptedProvider struct {
	errs  []error
	calls int
}

func (s *scriptedProvider) DefaultModel() string { return "scripted" }

func (s *scriptedProvider) Chat(context.Context, []schema.Message, []schema.ToolSchema, schema.ChatOptions) (schema.LLMResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return schema.LLMResponse{}, s.errs[i]
	}
	return schema.LLMResponse{Content: "ok", FinishReason: "stop"}, nil
}

func noSleep(time.Duration) {}

func TestRetryProvider_RetriesTransient(t *testing.T) {
	inner := &scriptedProvider{errs: []error{ErrRateLimited, ErrUnavailable}}
	p := NewRetryProvider(inner, RetryConfig{MaxAttempts: 3, Sleep: noSleep})

	resp, err := p.Chat(context.Background(), nil, nil, schema.ChatOptions{})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if resp.Content != "ok" || inner.calls != 3 {
		t.Errorf("content=%q calls=%d", resp.Content, inner.calls)
	}
}

func TestRetryProvider_DoesNotRetryAuth(t *testing.T) {
	inner := &scriptedProvider{errs: []error{ErrUnauthorized}}
	p := NewRetryProvider(inner, RetryConfig{MaxAttempts: 3, Sleep: noSleep})

	_, err := p.Chat(context.Background(), nil, nil, schema.ChatOptions{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected a single attempt, got %d", inner.calls)
	}
}

func TestRetryProvider_GivesUp(t *testing.T) {
	inner := &scriptedProvider{errs: []error{ErrUnavailable, ErrUnavailable}}
	p := NewRetryProvider(inner, RetryConfig{MaxAttempts: 2, Sleep: noSleep})

	_, err := p.Chat(context.Background(), nil, nil, schema.ChatOptions{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected wrapped ErrUnavailable, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", inner.calls)
	}
}

func TestBackoffDelay_Capped(t *testing.T) {
	if d := backoffDelay(time.Second, 3*time.Second, 0, 5, nil); d != 3*time.Second {
		t.Errorf("expected cap, got %v", d)
	}
	if d := backoffDelay(time.Second, 10*time.Second, 0, 2, nil); d != 4*time.Second {
		t.Errorf("expected 4s, got %v", d)
	}
}
