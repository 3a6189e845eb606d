package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/voxagent/voxagent/internal/schema"
	"github.com/voxagent/voxagent/internal/session"
	"github.com/voxagent/voxagent/internal/shared/llmutils"
	"github.com/voxagent/voxagent/internal/shared/stringutils"
	"github.com/voxagent/voxagent/internal/tools"
)

// DefaultMaxRounds bounds the model ↔ tool iterations of one turn.
const DefaultMaxRounds = 5

// ToolInvocation records one tool call executed during a turn.
type ToolInvocation struct {
	CallID    string
	Name      string
	Arguments map[string]any
	Result    map[string]any
	Content   string // JSON sent back to the model
	Err       error
}

// TurnResult is the outcome of one utterance. Err is nil on success; on
// failure FinalText holds the notice to speak back to the user.
type TurnResult struct {
	FinalText       string
	ToolInvocations []ToolInvocation
	Rounds          int
	Err             error
}

// Loop drives the model ↔ tool cycle for a single utterance.
//
// A Loop is stateless between turns and safe for concurrent use on
// different histories. Turns on the same history must be serialized by the
// caller (see session.Session.LockTurn).
type Loop struct {
	provider schema.LLMProvider
	registry *tools.Registry
	settings schema.AgentSettings
	listener StateListener
}

type LoopOption func(*Loop)

// WithStateListener reports every state transition to fn.
func WithStateListener(fn StateListener) LoopOption {
	return func(l *Loop) { l.listener = fn }
}

func NewLoop(provider schema.LLMProvider, registry *tools.Registry, settings schema.AgentSettings, opts ...LoopOption) *Loop {
	if settings.MaxRounds <= 0 {
		settings.MaxRounds = DefaultMaxRounds
	}
	if settings.Model == "" {
		settings.Model = provider.DefaultModel()
	}
	l := &Loop{provider: provider, registry: registry, settings: settings}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Settings returns the effective loop settings.
func (l *Loop) Settings() schema.AgentSettings { return l.settings }

// Run appends utterance to hist and iterates until the model answers in
// text, the provider fails, or the round limit is reached. It never panics
// and always returns a TurnResult. A blank utterance leaves hist untouched.
func (l *Loop) Run(ctx context.Context, hist *session.History, utterance string, onProgress func(string)) TurnResult {
	if strings.TrimSpace(utterance) == "" {
		return TurnResult{}
	}

	if err := hist.Validate(); err != nil {
		removed := hist.Repair()
		slog.Warn("Repaired malformed history", "removed", removed, "err", err)
	}

	if err := hist.Append(schema.NewUserMessage(utterance)); err != nil {
		return TurnResult{FinalText: ProviderFailureText, Err: err}
	}

	var res TurnResult
	opts := schema.NewChatOptions(l.settings.Model, l.settings.MaxTokens, l.settings.Temperature)
	defs := l.registry.Definitions()

	state := StateAwaitingModel
	move := func(to State) {
		if l.listener != nil {
			l.listener(res.Rounds, state, to)
		}
		state = to
	}

	for round := 1; round <= l.settings.MaxRounds; round++ {
		res.Rounds = round
		if state != StateAwaitingModel {
			move(StateAwaitingModel)
		}

		if err := ctx.Err(); err != nil {
			res.FinalText = ProviderFailureText
			res.Err = err
			move(StateDone)
			return res
		}

		resp, err := l.provider.Chat(ctx, hist.Snapshot(), defs, opts)
		if err == nil {
			err = checkResponse(resp)
		}
		if err != nil {
			slog.Error("LLM error", "round", round, "err", err)
			res.FinalText = ProviderFailureText
			res.Err = &ProviderError{Round: round, Err: err}
			move(StateDone)
			return res
		}
		move(StateModelResponded)

		text := stringutils.StripThink(resp.Content)

		if !resp.HasToolCalls() && resp.Incomplete() {
			slog.Warn("Model reply cut off", "round", round, "finish_reason", resp.FinishReason)
			res.FinalText = IncompleteReplyText
			res.Err = &ProviderError{Round: round, Err: fmt.Errorf("%w: finish reason %s", ErrIncompleteReply, resp.FinishReason)}
			move(StateDone)
			return res
		}

		if !resp.HasToolCalls() {
			if text == "" {
				text = EmptyReplyText
			}
			if err := hist.Append(schema.NewAssistantMessage(text, nil)); err != nil {
				slog.Warn("Failed to record reply", "err", err)
			}
			res.FinalText = text
			move(StateDone)
			return res
		}

		if onProgress != nil {
			if text != "" {
				onProgress(text)
			}
			onProgress(llmutils.ToolHint(resp.ToolCalls))
		}

		calls := make([]schema.ToolCall, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			calls[i] = schema.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}
		}
		if err := hist.Append(schema.NewAssistantMessage(text, calls)); err != nil {
			slog.Warn("Failed to record tool calls", "err", err)
		}
		move(StateExecutingTool)

		for _, inv := range l.execute(ctx, resp.ToolCalls) {
			res.ToolInvocations = append(res.ToolInvocations, inv)
			if err := hist.Append(schema.NewToolResultMessage(inv.CallID, inv.Name, inv.Content)); err != nil {
				slog.Warn("Dropped tool result", "id", inv.CallID, "err", err)
			}
		}
	}

	slog.Warn("Round limit reached", "limit", l.settings.MaxRounds)
	res.FinalText = RoundLimitText
	res.Err = &RoundLimitExceededError{Limit: l.settings.MaxRounds}
	move(StateDone)
	return res
}

// execute runs the calls of one round. Results are returned in request order
// whether the handlers run sequentially or concurrently.
func (l *Loop) execute(ctx context.Context, calls []schema.ToolCallRequest) []ToolInvocation {
	out := make([]ToolInvocation, len(calls))
	invoke := func(i int) {
		tc := calls[i]
		argsJSON, _ := json.Marshal(tc.Arguments)
		slog.Info("Tool call", "name", tc.Name, "id", tc.ID, "args", stringutils.Truncate(string(argsJSON), 200))

		r := l.registry.Invoke(ctx, tc.Name, tc.Arguments)
		if r.Err != nil {
			slog.Warn("Tool failed", "name", tc.Name, "err", r.Err)
		}
		out[i] = ToolInvocation{
			CallID:    tc.ID,
			Name:      tc.Name,
			Arguments: tc.Arguments,
			Result:    r.Payload,
			Content:   r.Content,
			Err:       r.Err,
		}
	}

	if !l.settings.ParallelTools || len(calls) < 2 {
		for i := range calls {
			invoke(i)
		}
		return out
	}

	var g errgroup.Group
	for i := range calls {
		i := i
		g.Go(func() error {
			invoke(i)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// checkResponse rejects tool calls that could not be correlated with their
// results.
func checkResponse(resp schema.LLMResponse) error {
	seen := make(map[string]bool, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		if tc.ID == "" {
			return fmt.Errorf("%w: tool call %q has no id", ErrMalformedResponse, tc.Name)
		}
		if seen[tc.ID] {
			return fmt.Errorf("%w: duplicate tool call id %q", ErrMalformedResponse, tc.ID)
		}
		seen[tc.ID] = true
	}
	return nil
}
