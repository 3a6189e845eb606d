package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/voxagent/voxagent/internal/schema"
)

func builtinRegistry(t *testing.T, opts BuiltinOptions) *Registry {
	t.Helper()
	reg, err := NewRegistryBuilder().WithTools(Builtins(opts)...).Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	reg := builtinRegistry(t, BuiltinOptions{})
	ctx := context.Background()

	res := reg.Invoke(ctx, "calculate", map[string]any{"operation": "multiply", "a": 25.0, "b": 47.0})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Payload["result"] != 1175.0 {
		t.Errorf("result = %v, want 1175", res.Payload["result"])
	}
	if !strings.Contains(res.Content, `"result":1175`) {
		t.Errorf("content %s should contain 1175", res.Content)
	}

	res = reg.Invoke(ctx, "calculate", map[string]any{"operation": "divide", "a": 1, "b": 0})
	if !errors.Is(res.Err, ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", res.Err)
	}

	res = reg.Invoke(ctx, "calculate", map[string]any{"operation": "sqrt", "a": "81"})
	if res.Payload["result"] != 9.0 {
		t.Errorf("sqrt result = %v", res.Payload["result"])
	}

	res = reg.Invoke(ctx, "calculate", map[string]any{"operation": "add", "a": 1})
	if !res.IsError() {
		t.Error("add without b should fail")
	}
}

func TestCalculate_EmptyOperandRejected(t *testing.T) {
	reg := builtinRegistry(t, BuiltinOptions{})

	res := reg.Invoke(context.Background(), "calculate", map[string]any{"operation": "multiply", "a": "", "b": 47})
	var invalid *InvalidArgumentsError
	if !errors.As(res.Err, &invalid) {
		t.Fatalf("expected InvalidArgumentsError, got %v (content %s)", res.Err, res.Content)
	}
	if names := invalid.ParamNames(); len(names) != 1 || names[0] != "a" {
		t.Errorf("offending params = %v, want [a]", names)
	}
	if res.Payload["status"] != StatusError {
		t.Errorf("status = %v, want error", res.Payload["status"])
	}
	if _, ok := res.Payload["result"]; ok {
		t.Error("handler must not run on an empty operand")
	}
}

func TestClockTools(t *testing.T) {
	reg := builtinRegistry(t, BuiltinOptions{Now: fixedNow})
	ctx := context.Background()

	res := reg.Invoke(ctx, "get_current_time", map[string]any{"timezone": "UTC"})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Payload["time"] != "15:09:26" || res.Payload["day_of_week"] != "Saturday" {
		t.Errorf("unexpected payload %v", res.Payload)
	}

	res = reg.Invoke(ctx, "get_current_time", map[string]any{"timezone": "Mars/Olympus"})
	if !res.IsError() {
		t.Error("expected an unknown timezone to fail")
	}

	res = reg.Invoke(ctx, "get_current_date", nil)
	if res.Payload["iso_date"] != "2026-03-14" {
		t.Errorf("unexpected date payload %v", res.Payload)
	}

	res = reg.Invoke(ctx, "greet", map[string]any{"name": "Sam"})
	if res.Payload["greeting"] != "Good afternoon, Sam! How can I help you today?" {
		t.Errorf("greeting = %v", res.Payload["greeting"])
	}
}

func TestWeatherAndSearch(t *testing.T) {
	reg := builtinRegistry(t, BuiltinOptions{})
	ctx := context.Background()

	res := reg.Invoke(ctx, "get_current_weather", map[string]any{"location": "Oslo", "unit": "Fahrenheit"})
	if res.Payload["temperature"] != 72 || res.Payload["unit"] != "fahrenheit" {
		t.Errorf("unexpected weather %v", res.Payload)
	}

	res = reg.Invoke(ctx, "search_web", map[string]any{"query": "go", "num_results": 5})
	results, _ := res.Payload["results"].([]map[string]any)
	if len(results) != 3 {
		t.Errorf("expected results capped at 3, got %d", len(results))
	}
}

func TestSystemCommandDisabled(t *testing.T) {
	reg := builtinRegistry(t, BuiltinOptions{})
	res := reg.Invoke(context.Background(), "execute_system_command", map[string]any{"command": "ls"})
	if res.Err != nil {
		t.Fatalf("disabled command should not be a registry error: %v", res.Err)
	}
	if !res.IsError() || res.Payload["status"] != StatusError {
		t.Errorf("expected error status, got %v", res.Payload)
	}
}

func TestSystemCommandGuard(t *testing.T) {
	cmd := NewSystemCommand(true, t.TempDir(), time.Second)
	out, err := cmd.execute(context.Background(), map[string]any{"command": "rm -rf /"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["status"] != StatusError {
		t.Errorf("dangerous command was not blocked: %v", out)
	}
}

func TestReadWebpage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!doctype html><html><head><title>Otters</title></head><body>
<article><h1>Otters</h1><p>Sea otters hold hands while they sleep so they do not drift apart.
They use rocks as tools to crack open shellfish and keep a favourite rock in a pouch under their arm.</p></article>
</body></html>`))
	}))
	defer srv.Close()

	reg := builtinRegistry(t, BuiltinOptions{})
	res := reg.Invoke(context.Background(), "read_webpage", map[string]any{"url": srv.URL})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	text, _ := res.Payload["text"].(string)
	if !strings.Contains(text, "hold hands") {
		t.Errorf("text missing article body: %q", text)
	}

	res = reg.Invoke(context.Background(), "read_webpage", map[string]any{"url": "ftp://example.com"})
	if !res.IsError() {
		t.Error("expected ftp URL to be rejected")
	}
}

type fakeCron struct {
	added []schema.CronJobRequest
}

func (f *fakeCron) AddJob(req schema.CronJobRequest) (string, error) {
	f.added = append(f.added, req)
	return "job1", nil
}
func (f *fakeCron) ListJobs() []schema.CronJobSummary {
	return []schema.CronJobSummary{{ID: "job1", Name: "stretch", Kind: "every", Enabled: true}}
}
func (f *fakeCron) RemoveJob(id string) bool { return id == "job1" }

func TestSchedulePrompt(t *testing.T) {
	fc := &fakeCron{}
	reg := builtinRegistry(t, BuiltinOptions{Cron: fc})
	ctx := WithTurn(context.Background(), TurnContext{Channel: "telegram", ChatID: "42"})

	res := reg.Invoke(ctx, "schedule_prompt", map[string]any{
		"action": "add", "message": "remind me to stretch", "every_seconds": 600,
	})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(fc.added) != 1 {
		t.Fatalf("expected one job, got %d", len(fc.added))
	}
	got := fc.added[0]
	if got.Kind != "every" || got.EveryMs != 600000 || got.Channel != "telegram" || got.ChatID != "42" || !got.Deliver {
		t.Errorf("unexpected request %+v", got)
	}

	res = reg.Invoke(ctx, "schedule_prompt", map[string]any{"action": "add", "message": "x"})
	if !res.IsError() {
		t.Error("add without a schedule should fail")
	}

	res = reg.Invoke(ctx, "schedule_prompt", map[string]any{"action": "remove", "job_id": "missing"})
	if !res.IsError() {
		t.Error("removing an unknown job should fail")
	}
}
