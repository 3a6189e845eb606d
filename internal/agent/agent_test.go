package agent

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/schema"
	"github.com/voxagent/voxagent/internal/session"
	"github.com/voxagent/voxagent/internal/tools"
)

func newTestAgent(t *testing.T, p schema.LLMProvider, defs ...tools.ToolDefinition) (*Agent, *session.Manager) {
	t.Helper()
	sessions, err := session.NewManager(t.TempDir(), session.Options{
		MaxHistory:   20,
		SystemPrompt: func() string { return DefaultSystemPrompt },
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	reg := newRegistry(t, defs...)
	return NewAgent(newLoop(p, reg, 0, false), sessions, reg), sessions
}

// ─── Handle ────────────────────────────────────────────────────────────────

func TestHandle_PersistsTurn(t *testing.T) {
	p := &scriptedProvider{steps: []func([]schema.Message) (schema.LLMResponse, error){reply("Hi there!")}}
	a, sessions := newTestAgent(t, p)

	msg := schema.InboundMessage{Channel: "cli", ChatID: "direct", Content: "hello"}
	res := a.Handle(context.Background(), msg, nil)
	if res.FinalText != "Hi there!" {
		t.Fatalf("unexpected reply %q", res.FinalText)
	}

	sessions.Invalidate("cli:direct")
	reloaded := sessions.GetOrCreate("cli:direct")
	if reloaded.History.Len() != 2 {
		t.Errorf("expected 2 persisted messages, got %d", reloaded.History.Len())
	}
	if reloaded.History.System() != DefaultSystemPrompt {
		t.Error("system prompt not re-pinned on load")
	}
}

func TestHandle_BlankContentIsNoop(t *testing.T) {
	p := &scriptedProvider{steps: []func([]schema.Message) (schema.LLMResponse, error){reply("x")}}
	a, sessions := newTestAgent(t, p)

	res := a.Handle(context.Background(), schema.InboundMessage{Channel: "cli", ChatID: "direct", Content: "  "}, nil)
	if res.FinalText != "" || p.Calls() != 0 {
		t.Errorf("expected no-op, got %+v", res)
	}
	if len(sessions.ListSessions()) != 0 {
		t.Error("blank content should not create a session file")
	}
}

func TestHandle_SlashCommands(t *testing.T) {
	p := &scriptedProvider{steps: []func([]schema.Message) (schema.LLMResponse, error){reply("ok")}}
	a, sessions := newTestAgent(t, p, tools.CalculateTool())
	ctx := context.Background()
	msg := func(s string) schema.InboundMessage {
		return schema.InboundMessage{Channel: "telegram", ChatID: "7", Content: s}
	}

	a.Handle(ctx, msg("hello"), nil)
	if got := sessions.GetOrCreate("telegram:7").History.Len(); got != 2 {
		t.Fatalf("expected 2 messages before reset, got %d", got)
	}

	res := a.Handle(ctx, msg("/reset"), nil)
	if !strings.Contains(res.FinalText, "New conversation") {
		t.Errorf("unexpected reset reply %q", res.FinalText)
	}
	sess := sessions.GetOrCreate("telegram:7")
	if sess.History.Len() != 0 || sess.History.System() == "" {
		t.Errorf("reset should keep only the system prompt: len=%d", sess.History.Len())
	}

	if res := a.Handle(ctx, msg("/tools"), nil); !strings.Contains(res.FinalText, "calculate") {
		t.Errorf("/tools should list calculate: %q", res.FinalText)
	}
	if res := a.Handle(ctx, msg("/HELP"), nil); !strings.Contains(res.FinalText, "/reset") {
		t.Errorf("unexpected help %q", res.FinalText)
	}
	if p.Calls() != 1 {
		t.Errorf("slash commands must not reach the provider, calls=%d", p.Calls())
	}
}

// blockingProvider records how many Chat calls overlap.
type blockingProvider struct {
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (b *blockingProvider) DefaultModel() string { return "blocking" }

func (b *blockingProvider) Chat(context.Context, []schema.Message, []schema.ToolSchema, schema.ChatOptions) (schema.LLMResponse, error) {
	n := b.active.Add(1)
	for {
		m := b.maxSeen.Load()
		if n <= m || b.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	b.active.Add(-1)
	return schema.LLMResponse{Content: "done"}, nil
}

func TestHandle_SerializesTurnsPerSession(t *testing.T) {
	p := &blockingProvider{}
	a, sessions := newTestAgent(t, p)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.ProcessDirect(context.Background(), "hi", "shared", "cli", "direct")
		}()
	}
	wg.Wait()

	if p.maxSeen.Load() != 1 {
		t.Errorf("turns overlapped: max concurrent = %d", p.maxSeen.Load())
	}
	if got := sessions.GetOrCreate("shared").History.Len(); got != 8 {
		t.Errorf("expected 8 messages, got %d", got)
	}
	if err := sessions.GetOrCreate("shared").History.Validate(); err != nil {
		t.Errorf("history invalid: %v", err)
	}
}

// ─── Bus ───────────────────────────────────────────────────────────────────

func TestRun_DispatchesRepliesOverBus(t *testing.T) {
	p := &scriptedProvider{steps: []func([]schema.Message) (schema.LLMResponse, error){reply("pong")}}
	a, _ := newTestAgent(t, p)
	b := bus.NewMessageBus(4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, b) }()

	if err := b.PublishInbound(ctx, schema.InboundMessage{Channel: "websocket", ChatID: "conn1", Content: "ping"}); err != nil {
		t.Fatal(err)
	}

	select {
	case out := <-b.OutboundChan():
		if out.Content != "pong" || out.ChatID != "conn1" || out.Progress {
			t.Errorf("unexpected outbound %+v", out)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}

	cancel()
	<-done
}

func TestRun_CronRepliesAreNotPublished(t *testing.T) {
	p := &scriptedProvider{steps: []func([]schema.Message) (schema.LLMResponse, error){reply("ran")}}
	a, _ := newTestAgent(t, p)
	b := bus.NewMessageBus(4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, b) }()

	_ = b.PublishInbound(ctx, schema.InboundMessage{Channel: "cron", ChatID: "job1", Content: "remind me"})

	deadline := time.Now().Add(2 * time.Second)
	for p.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if p.Calls() != 1 {
		t.Fatalf("cron turn not processed")
	}
	if b.OutboundSize() != 0 {
		t.Errorf("cron reply should not be published, queued=%d", b.OutboundSize())
	}
}

// echoProvider replies with the latest user message. The first utterance is
// slow so a later one would overtake it if turns were not queued.
type echoProvider struct{}

func (echoProvider) DefaultModel() string { return "echo" }

func (echoProvider) Chat(_ context.Context, msgs []schema.Message, _ []schema.ToolSchema, _ schema.ChatOptions) (schema.LLMResponse, error) {
	last := msgs[len(msgs)-1].Content
	if last == "m1" {
		time.Sleep(80 * time.Millisecond)
	}
	return schema.LLMResponse{Content: "echo " + last, FinishReason: schema.FinishStop}, nil
}

func TestRun_KeepsArrivalOrderWithinSession(t *testing.T) {
	a, _ := newTestAgent(t, echoProvider{})
	b := bus.NewMessageBus(16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, b) }()

	for _, content := range []string{"m1", "m2", "m3"} {
		if err := b.PublishInbound(ctx, schema.InboundMessage{Channel: "websocket", ChatID: "c1", Content: content}); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	for len(got) < 3 {
		select {
		case out := <-b.OutboundChan():
			got = append(got, out.Content)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, replies so far %v", got)
		}
	}
	cancel()
	<-done

	want := []string{"echo m1", "echo m2", "echo m3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("replies = %v, want %v", got, want)
		}
	}
}

func TestTurnQueue_RetiresIdleWorker(t *testing.T) {
	q := newTurnQueue()
	if !q.push("k", schema.InboundMessage{Content: "a"}) {
		t.Fatal("first push should start a worker")
	}
	if q.push("k", schema.InboundMessage{Content: "b"}) {
		t.Fatal("second push should reuse the worker")
	}
	for _, want := range []string{"a", "b"} {
		msg, ok := q.pop("k")
		if !ok || msg.Content != want {
			t.Fatalf("pop = %q, %v; want %q", msg.Content, ok, want)
		}
	}
	if _, ok := q.pop("k"); ok {
		t.Fatal("queue should be drained")
	}
	if !q.push("k", schema.InboundMessage{Content: "c"}) {
		t.Error("push after retirement should start a new worker")
	}
}
