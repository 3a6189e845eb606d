package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxagent/voxagent/internal/config"
	"github.com/voxagent/voxagent/internal/cron"
	"github.com/voxagent/voxagent/internal/schema"
	"github.com/voxagent/voxagent/internal/shared/cmdutils"
	"github.com/voxagent/voxagent/internal/shared/stringutils"
)

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Manage scheduled prompts",
}

func init() {
	cronCmd.AddCommand(cronListCmd)
	cronCmd.AddCommand(cronAddCmd)
	cronCmd.AddCommand(cronRemoveCmd)
	cronCmd.AddCommand(cronEnableCmd)
	cronCmd.AddCommand(cronRunCmd)
}

// ---- list ------------------------------------------------------------------

var cronListAll bool

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE: func(_ *cobra.Command, _ []string) error {
		svc := cron.NewService(cronStorePath())
		jobs := svc.Jobs(cronListAll)
		if len(jobs) == 0 {
			fmt.Println("No scheduled jobs.")
			return nil
		}
		fmt.Printf("%-10s %-20s %-25s %-10s %-20s\n", "ID", "Name", "Schedule", "Status", "Next Run")
		fmt.Println(strings.Repeat("-", 88))
		for _, j := range jobs {
			status := "enabled"
			if !j.Enabled {
				status = "disabled"
			}
			nextRun := ""
			if j.State.NextRunAtMs > 0 {
				nextRun = time.UnixMilli(j.State.NextRunAtMs).Format("2006-01-02 15:04")
			}
			fmt.Printf("%-10s %-20s %-25s %-10s %-20s\n",
				j.ID, stringutils.Truncate(j.Name, 16), stringutils.Truncate(formatSchedule(j.Schedule), 21), status, nextRun)
		}
		return nil
	},
}

func init() {
	cronListCmd.Flags().BoolVarP(&cronListAll, "all", "a", false, "Include disabled jobs")
}

// ---- add -------------------------------------------------------------------

var (
	cronAddName    string
	cronAddMsg     string
	cronAddEvery   int
	cronAddCron    string
	cronAddTZ      string
	cronAddAt      string
	cronAddDeliver bool
	cronAddTo      string
	cronAddChannel string
)

var cronAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a scheduled job",
	RunE: func(_ *cobra.Command, _ []string) error {
		req, err := cronRequestFromFlags()
		if err != nil {
			return err
		}
		svc := cron.NewService(cronStorePath())
		id, err := svc.AddJob(req)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Added job '%s' (%s)\n", stringutils.OrDefault(req.Name, req.Message), id)
		return nil
	},
}

func init() {
	cronAddCmd.Flags().StringVarP(&cronAddName, "name", "n", "", "Job name")
	cronAddCmd.Flags().StringVarP(&cronAddMsg, "message", "m", "", "Prompt for the agent (required)")
	cronAddCmd.Flags().IntVarP(&cronAddEvery, "every", "e", 0, "Run every N seconds")
	cronAddCmd.Flags().StringVarP(&cronAddCron, "cron", "c", "", "Cron expression (e.g. '0 9 * * *')")
	cronAddCmd.Flags().StringVar(&cronAddTZ, "tz", "", "IANA timezone for --cron")
	cronAddCmd.Flags().StringVar(&cronAddAt, "at", "", "Run once at a local ISO datetime or RFC 3339 time")
	cronAddCmd.Flags().BoolVarP(&cronAddDeliver, "deliver", "d", false, "Deliver the reply to a channel")
	cronAddCmd.Flags().StringVar(&cronAddTo, "to", "", "Chat ID for delivery")
	cronAddCmd.Flags().StringVar(&cronAddChannel, "channel", "", "Channel for delivery")

	_ = cronAddCmd.MarkFlagRequired("message")
}

func cronRequestFromFlags() (schema.CronJobRequest, error) {
	req := schema.CronJobRequest{
		Name:    cronAddName,
		Message: cronAddMsg,
		TZ:      cronAddTZ,
		Deliver: cronAddDeliver,
		Channel: cronAddChannel,
		ChatID:  cronAddTo,
	}
	if cronAddTZ != "" && cronAddCron == "" {
		return req, errors.New("--tz can only be used with --cron")
	}
	if cronAddDeliver && (cronAddChannel == "" || cronAddTo == "") {
		return req, errors.New("--deliver needs --channel and --to")
	}

	switch {
	case cronAddEvery > 0:
		req.Kind = string(cron.KindEvery)
		req.EveryMs = int64(cronAddEvery) * 1000
	case cronAddCron != "":
		req.Kind = string(cron.KindCron)
		req.CronExpr = cronAddCron
	case cronAddAt != "":
		at, err := parseAt(cronAddAt)
		if err != nil {
			return req, err
		}
		req.Kind = string(cron.KindAt)
		req.AtMs = at.UnixMilli()
		req.DeleteAfterRun = true
	default:
		return req, errors.New("must specify --every, --cron, or --at")
	}
	return req, nil
}

func parseAt(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at value %q: %w", s, err)
	}
	return t, nil
}

// ---- remove / enable -------------------------------------------------------

var cronRemoveCmd = &cobra.Command{
	Use:   "remove <job-id>",
	Short: "Remove a scheduled job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc := cron.NewService(cronStorePath())
		if svc.RemoveJob(args[0]) {
			fmt.Printf("✓ Removed job %s\n", args[0])
		} else {
			fmt.Printf("Job %s not found\n", args[0])
		}
		return nil
	},
}

var cronEnableDisable bool

var cronEnableCmd = &cobra.Command{
	Use:   "enable <job-id>",
	Short: "Enable (or disable) a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc := cron.NewService(cronStorePath())
		job, err := svc.EnableJob(args[0], !cronEnableDisable)
		if errors.Is(err, cron.ErrJobNotFound) {
			fmt.Printf("Job %s not found\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}
		action := "enabled"
		if cronEnableDisable {
			action = "disabled"
		}
		fmt.Printf("✓ Job '%s' %s\n", job.Name, action)
		return nil
	},
}

func init() {
	cronEnableCmd.Flags().BoolVar(&cronEnableDisable, "disable", false, "Disable instead of enable")
}

// ---- run -------------------------------------------------------------------

var cronRunForce bool

var cronRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Run a job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		container, err := buildContainer()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		reply, err := container.CronService().RunJob(ctx, args[0], cronRunForce)
		switch {
		case errors.Is(err, cron.ErrJobNotFound):
			fmt.Printf("Job %s not found\n", args[0])
			return nil
		case errors.Is(err, cron.ErrJobDisabled):
			fmt.Printf("Job %s is disabled (use --force)\n", args[0])
			return nil
		case err != nil:
			return err
		}
		cmdutils.PrintResponse(reply)
		fmt.Println("✓ Job executed")
		return nil
	},
}

func init() {
	cronRunCmd.Flags().BoolVarP(&cronRunForce, "force", "f", false, "Run even if disabled")
}

// ---- helpers ---------------------------------------------------------------

func cronStorePath() string { return filepath.Join(config.DataDir(), "cron", "jobs.json") }

func formatSchedule(s cron.Schedule) string {
	switch s.Kind {
	case cron.KindEvery:
		return "every " + (time.Duration(s.EveryMs) * time.Millisecond).String()
	case cron.KindCron:
		if s.TZ != "" {
			return s.Expr + " (" + s.TZ + ")"
		}
		return s.Expr
	case cron.KindAt:
		return "once at " + time.UnixMilli(s.AtMs).Format("2006-01-02 15:04")
	}
	return string(s.Kind)
}
