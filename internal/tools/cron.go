package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voxagent/voxagent/internal/schema"
)

// ScheduleTool lets the assistant schedule prompts that are run through the
// agent later (reminders, recurring check-ins).
type ScheduleTool struct {
	svc schema.CronService
}

// NewScheduleTool creates a ScheduleTool backed by svc.
func NewScheduleTool(svc schema.CronService) *ScheduleTool {
	return &ScheduleTool{svc: svc}
}

// Definition returns the schedule_prompt tool.
func (t *ScheduleTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolSchedule),
		Description: "Schedule reminders and recurring prompts. Actions: add, list, remove.",
		Parameters: map[string]schema.ParamSpec{
			"action": {
				Type:        schema.TypeString,
				Description: "Action to perform",
				Required:    true,
				Enum:        []string{"add", "list", "remove"},
			},
			"message":       {Type: schema.TypeString, Description: "Prompt to run when the job fires (for add)"},
			"every_seconds": {Type: schema.TypeInteger, Description: "Interval in seconds (for recurring jobs)"},
			"cron_expr":     {Type: schema.TypeString, Description: "Cron expression like '0 9 * * *'"},
			"tz":            {Type: schema.TypeString, Description: "IANA timezone for cron expressions"},
			"at":            {Type: schema.TypeString, Description: "ISO datetime for one-time execution (e.g. '2026-02-12T10:30:00')"},
			"job_id":        {Type: schema.TypeString, Description: "Job ID (for remove)"},
		},
		Handler: t.execute,
	}
}

type scheduleInput struct {
	Action       string `mapstructure:"action"`
	Message      string `mapstructure:"message"`
	EverySeconds int64  `mapstructure:"every_seconds"`
	CronExpr     string `mapstructure:"cron_expr"`
	TZ           string `mapstructure:"tz"`
	At           string `mapstructure:"at"`
	JobID        string `mapstructure:"job_id"`
}

func (t *ScheduleTool) execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	var in scheduleInput
	if err := Decode(args, &in); err != nil {
		return nil, err
	}
	switch in.Action {
	case "add":
		return t.addJob(ctx, in)
	case "list":
		return t.listJobs(), nil
	case "remove":
		return t.removeJob(in)
	default:
		return nil, fmt.Errorf("unknown action: %s", in.Action)
	}
}

func (t *ScheduleTool) addJob(ctx context.Context, in scheduleInput) (map[string]any, error) {
	if in.Message == "" {
		return nil, errors.New("message is required for add")
	}
	turn := TurnCtx(ctx)

	req := schema.CronJobRequest{
		Message: in.Message,
		Deliver: turn.Channel != "",
		Channel: turn.Channel,
		ChatID:  turn.ChatID,
	}

	switch {
	case in.EverySeconds > 0:
		req.Kind = "every"
		req.EveryMs = in.EverySeconds * 1000
	case in.CronExpr != "":
		req.Kind = "cron"
		req.CronExpr = in.CronExpr
		req.TZ = in.TZ
	case in.At != "":
		dt, err := time.Parse(time.RFC3339, in.At)
		if err != nil {
			dt, err = time.ParseInLocation("2006-01-02T15:04:05", in.At, time.Local)
			if err != nil {
				return nil, fmt.Errorf("invalid 'at' datetime %q: %w", in.At, err)
			}
		}
		req.Kind = "at"
		req.AtMs = dt.UnixMilli()
		req.DeleteAfterRun = true
	default:
		return nil, errors.New("either every_seconds, cron_expr, or at is required")
	}

	req.Name = in.Message
	if len(req.Name) > 30 {
		req.Name = req.Name[:30]
	}

	id, err := t.svc.AddJob(req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return map[string]any{
		"status": StatusSuccess,
		"job_id": id,
		"name":   req.Name,
		"kind":   req.Kind,
	}, nil
}

func (t *ScheduleTool) listJobs() map[string]any {
	jobs := t.svc.ListJobs()
	out := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, map[string]any{
			"id":      j.ID,
			"name":    j.Name,
			"kind":    j.Kind,
			"enabled": j.Enabled,
		})
	}
	return map[string]any{"status": StatusSuccess, "jobs": out}
}

func (t *ScheduleTool) removeJob(in scheduleInput) (map[string]any, error) {
	if in.JobID == "" {
		return nil, errors.New("job_id is required for remove")
	}
	if !t.svc.RemoveJob(in.JobID) {
		return nil, fmt.Errorf("job %s not found", in.JobID)
	}
	return map[string]any{"status": StatusSuccess, "removed": in.JobID}, nil
}
