package tools

import (
	"context"
	"maps"

	"github.com/voxagent/voxagent/internal/schema"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolCurrentTime   ToolName = "get_current_time"
	ToolCurrentDate   ToolName = "get_current_date"
	ToolCalculate     ToolName = "calculate"
	ToolWeather       ToolName = "get_current_weather"
	ToolSearchWeb     ToolName = "search_web"
	ToolReadWebpage   ToolName = "read_webpage"
	ToolSystemInfo    ToolName = "get_system_info"
	ToolSystemCommand ToolName = "execute_system_command"
	ToolGreet         ToolName = "greet"
	ToolSchedule      ToolName = "schedule_prompt"
)

// Handler executes a tool with validated arguments. Only declared parameters
// are present in args, already coerced to string, float64, int64, bool,
// map[string]any or []any according to their declared type.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

// ToolDefinition is a registered capability: a name, a parameter schema and
// the handler that runs it.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]schema.ParamSpec
	Handler     Handler
}

// Schema returns the provider-facing view of d.
func (d ToolDefinition) Schema() schema.ToolSchema {
	return schema.ToolSchema{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  maps.Clone(d.Parameters),
	}
}
