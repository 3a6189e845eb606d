package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/voxagent/voxagent/internal/schema"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
	IsRetryable func(error) bool
	Sleep       func(time.Duration)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 8 * time.Second
	}
	if c.IsRetryable == nil {
		c.IsRetryable = DefaultIsRetryable
	}
	return c
}

// RetryProvider retries transient provider failures with exponential backoff.
// Credential and request errors are returned immediately.
type RetryProvider struct {
	inner schema.LLMProvider
	cfg   RetryConfig
	rnd   *rand.Rand
}

func NewRetryProvider(inner schema.LLMProvider, cfg RetryConfig) *RetryProvider {
	return &RetryProvider{
		inner: inner,
		cfg:   cfg.withDefaults(),
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RetryProvider) DefaultModel() string { return r.inner.DefaultModel() }

func (r *RetryProvider) Chat(
	ctx context.Context,
	messages []schema.Message,
	tools []schema.ToolSchema,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return schema.LLMResponse{}, err
		}
		attempts++
		resp, err := r.inner.Chat(ctx, messages, tools, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !r.cfg.IsRetryable(err) || attempt == r.cfg.MaxAttempts-1 {
			break
		}

		delay := backoffDelay(r.cfg.BaseDelay, r.cfg.MaxDelay, r.cfg.Jitter, attempt, r.rnd)
		slog.Debug("provider call failed, retrying", "attempt", attempt+1, "delay", delay, "err", err)
		if r.cfg.Sleep != nil {
			r.cfg.Sleep(delay)
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return schema.LLMResponse{}, ctx.Err()
		case <-timer.C:
		}
	}
	if attempts == 1 {
		return schema.LLMResponse{}, lastErr
	}
	return schema.LLMResponse{}, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// DefaultIsRetryable retries rate limits and upstream outages only.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

func backoffDelay(base, max time.Duration, jitter float64, attempt int, r *rand.Rand) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > max {
		d = max
	}
	if jitter > 0 {
		return d + time.Duration(float64(d)*jitter*r.Float64())
	}
	return d
}
