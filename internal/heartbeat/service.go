// Package heartbeat periodically wakes the agent to work through the tasks
// listed in the workspace HEARTBEAT.md.
package heartbeat

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// File is the task list read from the workspace.
	File = "HEARTBEAT.md"
	// SessionKey is the conversation heartbeat turns run in.
	SessionKey = "heartbeat:direct"

	DefaultInterval = 30 * time.Minute
)

// Handler runs a heartbeat prompt through the agent.
type Handler func(ctx context.Context, prompt string) error

// Service checks HEARTBEAT.md on a fixed interval.
type Service struct {
	workspace string
	handler   Handler
	interval  time.Duration
}

// NewService creates a Service. interval defaults to DefaultInterval.
func NewService(workspace string, handler Handler, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{workspace: workspace, handler: handler, interval: interval}
}

// Interval reports the tick period.
func (s *Service) Interval() time.Duration { return s.interval }

// Start ticks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Heartbeat started", "interval", s.interval)
	for {
		select {
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				slog.Error("Heartbeat turn failed", "err", err)
			}
		case <-ctx.Done():
			slog.Info("Heartbeat stopped")
			return ctx.Err()
		}
	}
}

// Tick runs one check. It reports whether the agent was invoked.
func (s *Service) Tick(ctx context.Context) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.workspace, File))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	content := string(data)
	if !HasActiveTasks(content) || s.handler == nil {
		return false, nil
	}

	slog.Info("Heartbeat has open tasks, running agent")
	return true, s.handler(ctx, Prompt(content))
}

// Prompt wraps the task list in the instruction sent to the agent.
func Prompt(content string) string {
	return "This is a scheduled check-in. Work through the open tasks below " +
		"and reply with a short status for each.\n\n" + strings.TrimSpace(content)
}

// HasActiveTasks reports whether content holds anything besides headings,
// HTML comments and unchecked boxes.
func HasActiveTasks(content string) bool {
	inComment := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if inComment {
			if strings.Contains(line, "-->") {
				inComment = false
			}
			continue
		}
		switch {
		case line == "":
		case strings.HasPrefix(line, "<!--"):
			inComment = !strings.Contains(line, "-->")
		case strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "- [ ]"), strings.HasPrefix(line, "* [ ]"):
		default:
			return true
		}
	}
	return false
}
