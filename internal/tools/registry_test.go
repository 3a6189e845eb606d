package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/voxagent/voxagent/internal/schema"
)

func echoTool(name string) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: "echo " + name,
		Parameters: map[string]schema.ParamSpec{
			"text": {Type: schema.TypeString, Required: true},
		},
		Handler: func(_ context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"echo": args["text"], "from": name}, nil
		},
	}
}

// ─── Register ──────────────────────────────────────────────────────────────

func TestRegister_DuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := echoTool("echo")
	second.Description = "second"
	err := r.Register(second)

	var dup *DuplicateToolError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateToolError, got %v", err)
	}
	if !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("expected errors.Is ErrDuplicateTool")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 tool, got %d", r.Len())
	}
	def, _ := r.Get("echo")
	if def.Description != "echo echo" {
		t.Errorf("first registration should win, got description %q", def.Description)
	}
}

func TestRegister_Rejects(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(ToolDefinition{Name: " ", Handler: echoTool("x").Handler}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	if err := r.Register(ToolDefinition{Name: "nil"}); !errors.Is(err, ErrNilHandler) {
		t.Errorf("expected ErrNilHandler, got %v", err)
	}
}

func TestDefinitions_RegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(echoTool(n)); err != nil {
			t.Fatal(err)
		}
	}
	defs := r.Definitions()
	got := []string{defs[0].Name, defs[1].Name, defs[2].Name}
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	wire := defs[0].ToOpenAIFormat()
	fn := wire["function"].(map[string]any)
	params := fn["parameters"].(map[string]any)
	if req := params["required"].([]string); len(req) != 1 || req[0] != "text" {
		t.Errorf("unexpected required list: %v", req)
	}
}

func TestRegistryBuilder_JoinsErrors(t *testing.T) {
	reg, err := NewRegistryBuilder().
		WithTool(echoTool("a")).
		WithTools(echoTool("b"), echoTool("a")).
		Build()
	if !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if got := reg.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected names %v", got)
	}
}

// ─── Invoke ────────────────────────────────────────────────────────────────

func TestInvoke_UnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Invoke(context.Background(), "nope", nil)

	var unknown *UnknownToolError
	if !errors.As(res.Err, &unknown) || unknown.Name != "nope" {
		t.Fatalf("expected UnknownToolError, got %v", res.Err)
	}
	if res.Payload["status"] != StatusError {
		t.Errorf("expected error status, got %v", res.Payload)
	}
	if !res.IsError() {
		t.Error("expected IsError")
	}
}

func TestInvoke_InvalidArgumentsListsParams(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(CalculateTool()); err != nil {
		t.Fatal(err)
	}
	res := r.Invoke(context.Background(), "calculate", map[string]any{
		"operation": "teleport",
		"a":         "not-a-number",
	})

	var inv *InvalidArgumentsError
	if !errors.As(res.Err, &inv) {
		t.Fatalf("expected InvalidArgumentsError, got %v", res.Err)
	}
	names := strings.Join(inv.ParamNames(), ",")
	if names != "a,operation" {
		t.Errorf("offending params = %q, want a,operation", names)
	}
	msg, _ := res.Payload["error"].(string)
	if !strings.Contains(msg, "operation") || !strings.Contains(msg, "a (expected number") {
		t.Errorf("unexpected error message %q", msg)
	}
}

func TestInvoke_MissingRequired(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool("echo"))
	res := r.Invoke(context.Background(), "echo", map[string]any{})
	if !errors.Is(res.Err, ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", res.Err)
	}
}

func TestInvoke_HandlerPanicIsContained(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(ToolDefinition{
		Name: "boom",
		Handler: func(context.Context, map[string]any) (map[string]any, error) {
			panic("kaboom")
		},
	})

	res := r.Invoke(context.Background(), "boom", nil)
	if !errors.Is(res.Err, ErrHandlerFailed) {
		t.Fatalf("expected ErrHandlerFailed, got %v", res.Err)
	}
	if res.Payload["status"] != StatusError {
		t.Errorf("status = %v", res.Payload["status"])
	}
	if msg, _ := res.Payload["error"].(string); !strings.Contains(msg, "kaboom") {
		t.Errorf("error = %q", msg)
	}
}

func TestInvoke_HandlerErrorMessage(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(ToolDefinition{
		Name: "fail",
		Handler: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("disk on fire")
		},
	})
	res := r.Invoke(context.Background(), "fail", nil)

	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	if payload["status"] != "error" || payload["error"] != "disk on fire" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestInvoke_NonSerialisableResult(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(ToolDefinition{
		Name: "chan",
		Handler: func(context.Context, map[string]any) (map[string]any, error) {
			return map[string]any{"c": make(chan int)}, nil
		},
	})
	res := r.Invoke(context.Background(), "chan", nil)
	if !res.IsError() {
		t.Fatalf("expected an error result, got %v", res.Payload)
	}
}

func TestInvoke_CancelledContext(t *testing.T) {
	r := NewRegistry()
	called := false
	_ = r.Register(ToolDefinition{
		Name: "slow",
		Handler: func(context.Context, map[string]any) (map[string]any, error) {
			called = true
			return nil, nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Invoke(ctx, "slow", nil)
	if called {
		t.Error("handler must not run on a cancelled context")
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", res.Err)
	}
}

func TestInvoke_DropsUndeclaredAndAddsStatus(t *testing.T) {
	r := NewRegistry()
	var seen map[string]any
	_ = r.Register(ToolDefinition{
		Name: "inspect",
		Parameters: map[string]schema.ParamSpec{
			"x": {Type: schema.TypeInteger},
		},
		Handler: func(_ context.Context, args map[string]any) (map[string]any, error) {
			seen = args
			return map[string]any{"ok": true}, nil
		},
	})
	res := r.Invoke(context.Background(), "inspect", map[string]any{"x": "7", "extra": 1})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if _, ok := seen["extra"]; ok {
		t.Error("undeclared argument reached the handler")
	}
	if seen["x"] != int64(7) {
		t.Errorf("x = %#v, want int64(7)", seen["x"])
	}
	if res.Payload["status"] != StatusSuccess {
		t.Errorf("status = %v", res.Payload["status"])
	}
}
