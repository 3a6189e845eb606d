package agent

import (
	"errors"
	"fmt"
)

// Texts spoken back to the user when a turn cannot produce a model answer.
const (
	ProviderFailureText = "I'm sorry, I encountered an error while processing your request."
	RoundLimitText      = "I apologize, but I'm having trouble completing that request."
	EmptyReplyText      = "I'm not sure how to respond to that."
	IncompleteReplyText = "I apologize, but I encountered an issue processing your request."
)

var (
	ErrProvider          = errors.New("provider call failed")
	ErrRoundLimit        = errors.New("round limit exceeded")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrIncompleteReply   = errors.New("model reply was cut off")
)

// ProviderError reports a failed or unusable provider call. The turn that
// produced it appended no assistant message.
type ProviderError struct {
	Round int
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider call failed in round %d: %v", e.Round, e.Err)
}

func (e *ProviderError) Unwrap() []error { return []error{ErrProvider, e.Err} }

// RoundLimitExceededError reports a turn that was still requesting tools
// after Limit rounds.
type RoundLimitExceededError struct {
	Limit int
}

func (e *RoundLimitExceededError) Error() string {
	return fmt.Sprintf("no final answer after %d tool rounds", e.Limit)
}

func (e *RoundLimitExceededError) Unwrap() error { return ErrRoundLimit }
