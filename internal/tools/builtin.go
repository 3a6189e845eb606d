package tools

import (
	"time"

	"github.com/voxagent/voxagent/internal/schema"
)

// BuiltinOptions configures the built-in tool set.
type BuiltinOptions struct {
	Now                func() time.Time
	MaxSearchResults   int
	FetchMaxChars      int
	FetchTimeout       time.Duration
	AllowSystemCommand bool
	CommandTimeout     time.Duration
	WorkingDir         string
	Cron               schema.CronService // nil leaves schedule_prompt out
}

// Builtins returns the built-in tools in their canonical registration order.
func Builtins(opts BuiltinOptions) []ToolDefinition {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	defs := []ToolDefinition{
		CurrentTimeTool(opts.Now),
		CurrentDateTool(opts.Now),
		CalculateTool(),
		WeatherTool(),
		SearchWebTool(opts.MaxSearchResults),
		NewWebpageReader(opts.FetchMaxChars, opts.FetchTimeout).Definition(),
		SystemInfoTool(),
		NewSystemCommand(opts.AllowSystemCommand, opts.WorkingDir, opts.CommandTimeout).Definition(),
		GreetTool(opts.Now),
	}
	if opts.Cron != nil {
		defs = append(defs, NewScheduleTool(opts.Cron).Definition())
	}
	return defs
}
