// Package providers adapts hosted LLM APIs (OpenAI-compatible chat
// completions, Google Gemini) and an offline intent matcher to
// schema.LLMProvider.
package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("provider rejected credentials")
	ErrRateLimited  = errors.New("provider rate limit exceeded")
	ErrUnavailable  = errors.New("provider unavailable")
	ErrBadRequest   = errors.New("provider rejected request")
	ErrBadResponse  = errors.New("malformed provider response")
	ErrNoAPIKey     = errors.New("no API key configured")
)

// classifyStatus maps a non-2xx HTTP status to a sentinel error carrying a
// short excerpt of the body.
func classifyStatus(code int, body []byte) error {
	var kind error
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = ErrUnauthorized
	case code == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case code >= 500:
		kind = ErrUnavailable
	default:
		kind = ErrBadRequest
	}
	return fmt.Errorf("%w: HTTP %d: %s", kind, code, excerpt(body))
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
