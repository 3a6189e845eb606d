package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOrphanToolResult = errors.New("tool result has no matching tool call")
	ErrMalformedHistory = errors.New("malformed history")
)

// MalformedHistoryError reports tool calls without a following result, or
// results without a preceding call.
type MalformedHistoryError struct {
	DanglingCalls []string // tool call IDs with no result
	OrphanResults []string // tool result IDs with no call
}

func (e *MalformedHistoryError) Error() string {
	var parts []string
	if len(e.DanglingCalls) > 0 {
		parts = append(parts, "dangling tool calls "+strings.Join(e.DanglingCalls, ","))
	}
	if len(e.OrphanResults) > 0 {
		parts = append(parts, "orphan tool results "+strings.Join(e.OrphanResults, ","))
	}
	return fmt.Sprintf("%s: %s", ErrMalformedHistory, strings.Join(parts, "; "))
}

func (e *MalformedHistoryError) Unwrap() error { return ErrMalformedHistory }
