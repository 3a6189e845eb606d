package session

import (
	"os"
	"strings"
	"testing"

	"github.com/voxagent/voxagent/internal/schema"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), Options{
		MaxHistory:   20,
		SystemPrompt: func() string { return "persona" },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestManager_SaveAndLoad(t *testing.T) {
	m := newTestManager(t)
	s := m.GetOrCreate("cli:direct")
	mustAppend(t, s.History, schema.NewUserMessage("Calculate 25 times 47"))
	mustAppend(t, s.History, schema.NewAssistantMessage("", []schema.ToolCall{{
		ID: "c1", Name: "calculate", Arguments: map[string]any{"operation": "multiply", "a": 25.0, "b": 47.0},
	}}))
	mustAppend(t, s.History, schema.NewToolResultMessage("c1", "calculate", `{"result":1175,"status":"success"}`))
	mustAppend(t, s.History, schema.NewAssistantMessage("25 times 47 is 1175", nil))

	if err := m.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	m.Invalidate("cli:direct")

	loaded := m.GetOrCreate("cli:direct")
	if loaded == s {
		t.Fatal("expected a freshly loaded session")
	}
	if loaded.ID != s.ID {
		t.Errorf("id = %q, want %q", loaded.ID, s.ID)
	}
	snap := loaded.History.Snapshot()
	if len(snap) != 5 || snap[0].Content != "persona" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap[2].ToolCalls[0].ID != "c1" || snap[2].ToolCalls[0].Arguments["b"] != 47.0 {
		t.Errorf("tool call not round-tripped: %+v", snap[2].ToolCalls)
	}
	if snap[3].ToolCallID != "c1" || snap[3].ToolName != "calculate" {
		t.Errorf("tool result not round-tripped: %+v", snap[3])
	}

	infos := m.ListSessions()
	if len(infos) != 1 || infos[0].Key != "cli:direct" {
		t.Errorf("unexpected sessions %+v", infos)
	}
}

func TestManager_RepairsOnLoad(t *testing.T) {
	m := newTestManager(t)
	lines := []string{
		`{"_type":"metadata","key":"cli:x","id":"abc"}`,
		`{"role":"user","content":"hi"}`,
		`{"role":"assistant","content":"","tool_calls":[{"id":"c1","type":"function","function":{"name":"calculate","arguments":"{}"}}]}`,
	}
	if err := os.WriteFile(m.sessionPath("cli:x"), []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}

	s := m.GetOrCreate("cli:x")
	if err := s.History.Validate(); err != nil {
		t.Fatalf("loaded history still malformed: %v", err)
	}
	if s.History.Len() != 1 || s.ID != "abc" {
		t.Errorf("len=%d id=%q", s.History.Len(), s.ID)
	}
}

func TestManager_Delete(t *testing.T) {
	m := newTestManager(t)
	s := m.GetOrCreate("telegram:1")
	if err := m.Save(s); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete("telegram:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(m.ListSessions()) != 0 {
		t.Error("session file should be gone")
	}
}

func TestSession_TryLockTurn(t *testing.T) {
	s := New("k", "", 0)
	unlock := s.LockTurn()
	if _, ok := s.TryLockTurn(); ok {
		t.Fatal("turn lock should be held")
	}
	unlock()
	if u, ok := s.TryLockTurn(); !ok {
		t.Fatal("turn lock should be free")
	} else {
		u()
	}
}
