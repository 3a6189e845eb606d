package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/voxagent/voxagent/internal/schema"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one Invoke. Payload is always set; Err carries the
// classified failure (*UnknownToolError, *InvalidArgumentsError,
// *HandlerError) when the call did not succeed.
type Result struct {
	Payload map[string]any
	Content string // JSON encoding of Payload
	Err     error
}

// IsError reports whether the call failed, either at the registry boundary or
// because the handler reported an error status.
func (r Result) IsError() bool {
	if r.Err != nil {
		return true
	}
	status, _ := r.Payload["status"].(string)
	return status == StatusError
}

// Registry holds the named tools in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]ToolDefinition
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolDefinition)}
}

// Register adds def. A second registration under the same name fails and
// leaves the first one in place.
func (r *Registry) Register(def ToolDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return ErrEmptyName
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}
	def.Parameters = maps.Clone(def.Parameters)
	r.tools[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Definitions exports every tool's schema in registration order.
func (r *Registry) Definitions() []schema.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schema.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Schema())
	}
	return out
}

// Invoke looks up name, validates args and runs the handler. It never panics
// and always returns a Result with a JSON-serialisable payload.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) Result {
	def, ok := r.Get(name)
	if !ok {
		return errorResult(&UnknownToolError{Name: name})
	}

	if err := ctx.Err(); err != nil {
		return errorResult(&HandlerError{Tool: name, Err: err})
	}

	validated, err := validateArgs(def.Name, def.Parameters, args)
	if err != nil {
		return errorResult(err)
	}

	payload, err := callHandler(ctx, def, validated)
	if err != nil {
		return errorResult(&HandlerError{Tool: name, Err: err})
	}

	out := make(map[string]any, len(payload)+1)
	maps.Copy(out, payload)
	if _, ok := out["status"]; !ok {
		out["status"] = StatusSuccess
	}

	content, err := encodePayload(out)
	if err != nil {
		return errorResult(&HandlerError{Tool: name, Err: fmt.Errorf("result is not JSON-serialisable: %w", err)})
	}

	return Result{Payload: out, Content: content}
}

// callHandler runs the handler, turning a panic into an error.
func callHandler(ctx context.Context, def ToolDefinition, args map[string]any) (payload map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Tool handler panicked", "name", def.Name, "panic", rec)
			payload = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return def.Handler(ctx, args)
}

func errorResult(err error) Result {
	payload := map[string]any{
		"status": StatusError,
		"error":  errorMessage(err),
	}
	content, _ := encodePayload(payload)
	return Result{Payload: payload, Content: content, Err: err}
}

func encodePayload(payload map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
