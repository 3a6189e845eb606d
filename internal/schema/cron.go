package schema

// CronJobSummary is a lightweight view of a scheduled job used by the
// schedule_prompt tool.
type CronJobSummary struct {
	ID      string
	Name    string
	Kind    string // "every", "cron", or "at"
	NextRun int64  // unix ms, 0 when not scheduled
	Enabled bool
	Message string
	Deliver bool
	Channel string
	ChatID  string
}

// CronJobRequest describes a job to schedule.
type CronJobRequest struct {
	Name           string
	Message        string
	Kind           string
	EveryMs        int64
	CronExpr       string
	TZ             string
	AtMs           int64
	Deliver        bool
	Channel        string
	ChatID         string
	DeleteAfterRun bool
}

// CronService is what the schedule_prompt tool needs from the scheduler.
// Implemented by cron.Service; declared here to avoid an import cycle.
type CronService interface {
	AddJob(req CronJobRequest) (id string, err error)
	ListJobs() []CronJobSummary
	RemoveJob(id string) bool
}
