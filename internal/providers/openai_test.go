package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxagent/voxagent/internal/schema"
)

func calcSchema() schema.ToolSchema {
	return schema.ToolSchema{
		Name:        "calculate",
		Description: "Perform arithmetic.",
		Parameters: map[string]schema.ParamSpec{
			"operation": {Type: schema.TypeString, Required: true, Enum: []string{"add", "multiply"}},
			"a":         {Type: schema.TypeNumber, Required: true},
			"b":         {Type: schema.TypeNumber},
		},
	}
}

// ─── Request shaping ───────────────────────────────────────────────────────

func TestOpenAIChat_SendsToolsAndRoundTripsCallID(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":null,"tool_calls":[{"id":"c1","type":"function","function":{"name":"calculate","arguments":"{\"operation\":\"multiply\",\"a\":25,\"b\":47}"}}]},"finish_reason":"tool_calls"}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL, "gpt-4o-mini", FindByName("openai"), nil, 0)
	history := []schema.Message{
		schema.NewSystemMessage("sys"),
		schema.NewUserMessage("Calculate 25 times 47"),
	}
	resp, err := p.Chat(context.Background(), history, []schema.ToolSchema{calcSchema()}, schema.ChatOptions{Model: "openai/gpt-4o-mini"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if got["model"] != "gpt-4o-mini" {
		t.Errorf("provider prefix not stripped: %v", got["model"])
	}
	if got["tool_choice"] != "auto" {
		t.Errorf("tool_choice = %v", got["tool_choice"])
	}
	if tools, _ := got["tools"].([]any); len(tools) != 1 {
		t.Errorf("expected 1 tool in request, got %v", got["tools"])
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "c1" || tc.Name != "calculate" {
		t.Errorf("unexpected call %+v", tc)
	}
	if tc.Arguments["a"] != 25.0 || tc.Arguments["b"] != 47.0 {
		t.Errorf("unexpected arguments %v", tc.Arguments)
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("finish reason = %q", resp.FinishReason)
	}
}

func TestMessageToWireMap_ToolShapes(t *testing.T) {
	call := schema.NewAssistantMessage("", []schema.ToolCall{{ID: "c1", Name: "calculate", Arguments: map[string]any{"a": 1.0}}})
	wire := messageToWireMap(call)
	if wire["content"] != nil {
		t.Errorf("tool-call-only assistant should send null content, got %v", wire["content"])
	}
	calls, _ := wire["tool_calls"].([]map[string]any)
	if len(calls) != 1 || calls[0]["id"] != "c1" {
		t.Errorf("unexpected tool_calls %v", wire["tool_calls"])
	}

	result := messageToWireMap(schema.NewToolResultMessage("c1", "calculate", `{"result":1175}`))
	if result["tool_call_id"] != "c1" || result["name"] != "calculate" {
		t.Errorf("unexpected tool result wire %v", result)
	}
}

// ─── Errors ────────────────────────────────────────────────────────────────

func TestOpenAIChat_ClassifiesHTTPErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadGateway, ErrUnavailable},
		{http.StatusBadRequest, ErrBadRequest},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"nope"}`, tc.status)
		}))
		p := NewOpenAIProvider("k", srv.URL, "gpt-4o-mini", nil, nil, 0)
		_, err := p.Chat(context.Background(), []schema.Message{schema.NewUserMessage("hi")}, nil, schema.ChatOptions{})
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestOpenAIChat_EmptyChoicesIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", srv.URL, "gpt-4o-mini", nil, nil, 0)
	_, err := p.Chat(context.Background(), []schema.Message{schema.NewUserMessage("hi")}, nil, schema.ChatOptions{})
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestRepairJSON(t *testing.T) {
	cases := map[string]float64{
		`{"a": 1}`:     1,
		`{"a": 1}}`:    1,
		`{"a": 1} xyz`: 1,
	}
	for raw, want := range cases {
		got, err := repairJSON(raw)
		if err != nil {
			t.Errorf("repairJSON(%q): %v", raw, err)
			continue
		}
		if got["a"] != want {
			t.Errorf("repairJSON(%q) = %v", raw, got)
		}
	}
	if got, err := repairJSON(""); err != nil || len(got) != 0 {
		t.Errorf("empty input should give empty map, got %v %v", got, err)
	}
	if _, err := repairJSON("not json"); err == nil {
		t.Error("expected error for unrepairable input")
	}
}
