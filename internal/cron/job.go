// Package cron runs scheduled prompts through the agent.
//
// Jobs persist to a JSON file (by default ~/.voxagent/cron/jobs.json) and are
// driven by robfig/cron. Three schedule kinds exist: "every" (fixed interval),
// "cron" (five-field expression, optional IANA timezone) and "at" (one shot).
package cron

import (
	"fmt"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/voxagent/voxagent/internal/schema"
)

// Kind is the schedule type of a job.
type Kind string

const (
	KindEvery Kind = "every"
	KindCron  Kind = "cron"
	KindAt    Kind = "at"
)

// Schedule says when a job fires.
type Schedule struct {
	Kind    Kind   `json:"kind"`
	EveryMs int64  `json:"every_ms,omitempty"`
	Expr    string `json:"expr,omitempty"`
	TZ      string `json:"tz,omitempty"`
	AtMs    int64  `json:"at_ms,omitempty"`
}

// Target is where a job's reply is delivered.
type Target struct {
	Deliver bool   `json:"deliver"`
	Channel string `json:"channel,omitempty"`
	ChatID  string `json:"chat_id,omitempty"`
}

// RunState records the outcome of the last run.
type RunState struct {
	NextRunAtMs int64  `json:"next_run_at_ms,omitempty"`
	LastRunAtMs int64  `json:"last_run_at_ms,omitempty"`
	LastStatus  string `json:"last_status,omitempty"` // ok or error
	LastError   string `json:"last_error,omitempty"`
}

// Job is one scheduled prompt.
type Job struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Enabled        bool     `json:"enabled"`
	Message        string   `json:"message"`
	Schedule       Schedule `json:"schedule"`
	Target         Target   `json:"target"`
	State          RunState `json:"state"`
	CreatedAtMs    int64    `json:"created_at_ms"`
	UpdatedAtMs    int64    `json:"updated_at_ms"`
	DeleteAfterRun bool     `json:"delete_after_run,omitempty"`
}

// SessionKey is the conversation a job runs in.
func (j Job) SessionKey() string { return "cron:" + j.ID }

// Summary converts the job to the view used by the schedule_prompt tool.
func (j Job) Summary() schema.CronJobSummary {
	return schema.CronJobSummary{
		ID:      j.ID,
		Name:    j.Name,
		Kind:    string(j.Schedule.Kind),
		NextRun: j.State.NextRunAtMs,
		Enabled: j.Enabled,
		Message: j.Message,
		Deliver: j.Target.Deliver,
		Channel: j.Target.Channel,
		ChatID:  j.Target.ChatID,
	}
}

// build turns the schedule into a robfig schedule.
func (s Schedule) build() (robfigcron.Schedule, error) {
	switch s.Kind {
	case KindEvery:
		if s.EveryMs <= 0 {
			return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidSchedule)
		}
		return robfigcron.Every(time.Duration(s.EveryMs) * time.Millisecond), nil

	case KindCron:
		parsed, err := robfigcron.ParseStandard(s.Expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, s.Expr, err)
		}
		if s.TZ == "" {
			return parsed, nil
		}
		loc, err := time.LoadLocation(s.TZ)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidSchedule, s.TZ)
		}
		return inLocation{inner: parsed, loc: loc}, nil

	case KindAt:
		if s.AtMs <= 0 {
			return nil, fmt.Errorf("%w: missing time", ErrInvalidSchedule)
		}
		return once{at: time.UnixMilli(s.AtMs)}, nil

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSchedule, s.Kind)
	}
}

// nextRun returns the next activation after now in unix ms, or 0.
func (s Schedule) nextRun(now time.Time) int64 {
	sched, err := s.build()
	if err != nil {
		return 0
	}
	next := sched.Next(now)
	if next.IsZero() {
		return 0
	}
	return next.UnixMilli()
}

// once fires a single time. robfig skips entries whose Next is zero.
type once struct{ at time.Time }

func (o once) Next(t time.Time) time.Time {
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}

type inLocation struct {
	inner robfigcron.Schedule
	loc   *time.Location
}

func (l inLocation) Next(t time.Time) time.Time {
	return l.inner.Next(t.In(l.loc))
}
