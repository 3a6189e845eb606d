package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	robfigcron "github.com/robfig/cron/v3"

	"github.com/voxagent/voxagent/internal/logging"
	"github.com/voxagent/voxagent/internal/schema"
)

// Handler runs a fired job and returns the agent's reply.
type Handler func(ctx context.Context, job Job) (string, error)

type store struct {
	Version int   `json:"version"`
	Jobs    []Job `json:"jobs"`
}

// Service owns the job list, its file and the robfig scheduler.
// It implements schema.CronService for the schedule_prompt tool.
type Service struct {
	path    string
	handler Handler
	now     func() time.Time

	mu      sync.Mutex
	jobs    []Job
	loaded  bool
	runCtx  context.Context
	sched   *robfigcron.Cron
	entries map[string]robfigcron.EntryID
}

var _ schema.CronService = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHandler sets the function run when a job fires.
func WithHandler(h Handler) Option {
	return func(s *Service) { s.handler = h }
}

// NewService creates a Service persisting to path.
func NewService(path string, opts ...Option) *Service {
	s := &Service{
		path:    path,
		now:     time.Now,
		entries: make(map[string]robfigcron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	logger := slogAdapter{log: logging.Component(nil, "cron")}
	s.sched = robfigcron.New(
		robfigcron.WithLogger(logger),
		robfigcron.WithChain(robfigcron.Recover(logger), robfigcron.SkipIfStillRunning(logger)),
	)
	return s
}

// SetHandler sets the function run when a job fires. Call before Start.
func (s *Service) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Start loads the jobs, arms them and blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		slog.Warn("Failed to load cron jobs, starting empty", "path", s.path, "err", err)
	}
	s.runCtx = ctx
	count := len(s.jobs)
	s.mu.Unlock()

	s.sched.Start()
	slog.Info("Cron started", "jobs", count)

	<-ctx.Done()
	<-s.sched.Stop().Done()
	slog.Info("Cron stopped")
	return ctx.Err()
}

// AddJob validates, stores and arms a new job.
func (s *Service) AddJob(req schema.CronJobRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", errors.New("message is required")
	}
	sched := Schedule{
		Kind:    Kind(req.Kind),
		EveryMs: req.EveryMs,
		Expr:    req.CronExpr,
		TZ:      req.TZ,
		AtMs:    req.AtMs,
	}
	if _, err := sched.build(); err != nil {
		return "", err
	}
	now := s.now()
	if sched.Kind == KindAt && !now.Before(time.UnixMilli(sched.AtMs)) {
		return "", fmt.Errorf("%w: %s is in the past", ErrInvalidSchedule, time.UnixMilli(sched.AtMs).Format(time.RFC3339))
	}

	name := req.Name
	if name == "" {
		name = req.Message
	}
	job := Job{
		ID:       strings.SplitN(uuid.NewString(), "-", 2)[0],
		Name:     name,
		Enabled:  true,
		Message:  req.Message,
		Schedule: sched,
		Target: Target{
			Deliver: req.Deliver,
			Channel: req.Channel,
			ChatID:  req.ChatID,
		},
		State:          RunState{NextRunAtMs: sched.nextRun(now)},
		CreatedAtMs:    now.UnixMilli(),
		UpdatedAtMs:    now.UnixMilli(),
		DeleteAfterRun: req.DeleteAfterRun,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return "", err
	}
	s.jobs = append(s.jobs, job)
	s.armLocked(job)
	if err := s.saveLocked(); err != nil {
		return "", err
	}

	slog.Info("Cron job added", "id", job.ID, "name", job.Name, "kind", job.Schedule.Kind)
	return job.ID, nil
}

// ListJobs returns the enabled jobs.
func (s *Service) ListJobs() []schema.CronJobSummary {
	jobs := s.Jobs(false)
	out := make([]schema.CronJobSummary, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Summary())
	}
	return out
}

// RemoveJob deletes a job and reports whether it existed.
func (s *Service) RemoveJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return false
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.removeAtLocked(idx)
	if err := s.saveLocked(); err != nil {
		slog.Warn("Failed to save cron jobs", "err", err)
	}
	slog.Info("Cron job removed", "id", id)
	return true
}

// Jobs returns a copy of the jobs ordered by next run; unscheduled jobs last.
func (s *Service) Jobs(includeDisabled bool) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		slog.Warn("Failed to load cron jobs", "path", s.path, "err", err)
	}
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if includeDisabled || j.Enabled {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		na, nb := out[a].State.NextRunAtMs, out[b].State.NextRunAtMs
		switch {
		case na == 0:
			return false
		case nb == 0:
			return true
		default:
			return na < nb
		}
	})
	return out
}

// EnableJob turns a job on or off.
func (s *Service) EnableJob(id string, enabled bool) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Job{}, err
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	job := &s.jobs[idx]
	now := s.now()
	job.Enabled = enabled
	job.UpdatedAtMs = now.UnixMilli()
	if enabled {
		job.State.NextRunAtMs = job.Schedule.nextRun(now)
		s.armLocked(*job)
	} else {
		job.State.NextRunAtMs = 0
		s.disarmLocked(id)
	}
	return *job, s.saveLocked()
}

// RunJob executes a job immediately. Disabled jobs run only when force is set.
func (s *Service) RunJob(ctx context.Context, id string, force bool) (string, error) {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	job := s.jobs[idx]
	s.mu.Unlock()

	if !job.Enabled && !force {
		return "", fmt.Errorf("%w: %s", ErrJobDisabled, id)
	}
	return s.execute(ctx, job)
}

// fire is the robfig entry for a job.
func (s *Service) fire(id string) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 || !s.jobs[idx].Enabled {
		s.mu.Unlock()
		return
	}
	job := s.jobs[idx]
	ctx := s.runCtx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := s.execute(ctx, job); err != nil {
		slog.Error("Cron job failed", "id", job.ID, "name", job.Name, "err", err)
	}
}

// execute runs the handler and records the outcome.
func (s *Service) execute(ctx context.Context, job Job) (string, error) {
	started := s.now()
	slog.Info("Cron job running", "id", job.ID, "name", job.Name)

	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	var (
		reply string
		err   error
	)
	if handler != nil {
		reply, err = handler(ctx, job)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(job.ID)
	if idx < 0 {
		return reply, err
	}
	cur := &s.jobs[idx]
	now := s.now()
	cur.State.LastRunAtMs = started.UnixMilli()
	cur.State.LastStatus = "ok"
	cur.State.LastError = ""
	if err != nil {
		cur.State.LastStatus = "error"
		cur.State.LastError = err.Error()
	}
	cur.UpdatedAtMs = now.UnixMilli()

	if cur.Schedule.Kind == KindAt {
		if cur.DeleteAfterRun {
			s.removeAtLocked(idx)
		} else {
			cur.Enabled = false
			cur.State.NextRunAtMs = 0
			s.disarmLocked(cur.ID)
		}
	} else {
		cur.State.NextRunAtMs = cur.Schedule.nextRun(now)
	}

	if serr := s.saveLocked(); serr != nil {
		slog.Warn("Failed to save cron jobs", "err", serr)
	}
	return reply, err
}

// ─── Scheduling ────────────────────────────────────────────────────────────

func (s *Service) armLocked(job Job) {
	s.disarmLocked(job.ID)
	if !job.Enabled {
		return
	}
	sched, err := job.Schedule.build()
	if err != nil {
		slog.Warn("Skipping cron job with invalid schedule", "id", job.ID, "err", err)
		return
	}
	id := job.ID
	s.entries[id] = s.sched.Schedule(sched, robfigcron.FuncJob(func() { s.fire(id) }))
}

func (s *Service) disarmLocked(id string) {
	if eid, ok := s.entries[id]; ok {
		s.sched.Remove(eid)
		delete(s.entries, id)
	}
}

func (s *Service) indexLocked(id string) int {
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) removeAtLocked(idx int) {
	s.disarmLocked(s.jobs[idx].ID)
	s.jobs = append(s.jobs[:idx], s.jobs[idx+1:]...)
}

// ─── Persistence ───────────────────────────────────────────────────────────

func (s *Service) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	var st store
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	now := s.now()
	s.jobs = st.Jobs
	for i := range s.jobs {
		if s.jobs[i].Enabled {
			s.jobs[i].State.NextRunAtMs = s.jobs[i].Schedule.nextRun(now)
			s.armLocked(s.jobs[i])
		}
	}
	return nil
}

func (s *Service) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cron dir: %w", err)
	}
	jobs := s.jobs
	if jobs == nil {
		jobs = []Job{}
	}
	data, err := json.MarshalIndent(store{Version: 1, Jobs: jobs}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cron jobs: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cron jobs: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// slogAdapter routes robfig's logger through slog.
type slogAdapter struct{ log *slog.Logger }

func (a slogAdapter) Info(msg string, keysAndValues ...any) {
	a.log.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.log.Error(msg, append(keysAndValues, "err", err)...)
}
