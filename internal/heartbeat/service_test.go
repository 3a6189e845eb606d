package heartbeat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHasActiveTasks(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", false},
		{"headings only", "# HEARTBEAT\n\n## Daily\n", false},
		{"unchecked boxes", "# Tasks\n- [ ] water plants\n* [ ] call mom\n", false},
		{"single line comment", "<!-- add tasks below -->\n", false},
		{"multi line comment", "<!--\nremind me to stretch\n-->\n", false},
		{"plain task", "# Tasks\nRemind me to stretch\n", true},
		{"checked box", "- [x] done already\n", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasActiveTasks(tc.content); got != tc.want {
				t.Errorf("HasActiveTasks = %v, want %v", got, tc.want)
			}
		})
	}
}

func writeHeartbeat(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, File), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTick(t *testing.T) {
	dir := t.TempDir()
	var prompts []string
	svc := NewService(dir, func(_ context.Context, prompt string) error {
		prompts = append(prompts, prompt)
		return nil
	}, 0)

	if svc.Interval() != DefaultInterval {
		t.Errorf("interval = %v", svc.Interval())
	}

	ran, err := svc.Tick(context.Background())
	if ran || err != nil {
		t.Fatalf("missing file: ran=%v err=%v", ran, err)
	}

	writeHeartbeat(t, dir, "# HEARTBEAT\n- [ ] nothing yet\n")
	if ran, _ := svc.Tick(context.Background()); ran {
		t.Error("inactive file should not run the agent")
	}

	writeHeartbeat(t, dir, "# HEARTBEAT\nSummarize today's weather\n")
	ran, err = svc.Tick(context.Background())
	if !ran || err != nil {
		t.Fatalf("active file: ran=%v err=%v", ran, err)
	}
	if len(prompts) != 1 || !strings.Contains(prompts[0], "Summarize today's weather") {
		t.Errorf("unexpected prompts %q", prompts)
	}
}

func TestTick_PropagatesHandlerError(t *testing.T) {
	dir := t.TempDir()
	writeHeartbeat(t, dir, "do something")
	boom := errors.New("boom")
	svc := NewService(dir, func(context.Context, string) error { return boom }, time.Minute)

	if _, err := svc.Tick(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeHeartbeat(t, dir, "ping")
	ticks := make(chan struct{}, 8)
	svc := NewService(dir, func(context.Context, string) error {
		ticks <- struct{}{}
		return nil
	}, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat never ticked")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start returned %v", err)
	}
}
