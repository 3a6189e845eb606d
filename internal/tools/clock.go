package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxagent/voxagent/internal/schema"
)

// resolveLocation maps "local" (or empty) to time.Local and anything else to
// an IANA zone.
func resolveLocation(tz string) (*time.Location, error) {
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", tz)
	}
	return loc, nil
}

// CurrentTimeTool reports the current time.
func CurrentTimeTool(now func() time.Time) ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolCurrentTime),
		Description: "Get the current time. Use this when the user asks what time it is.",
		Parameters: map[string]schema.ParamSpec{
			"timezone": {
				Type:        schema.TypeString,
				Description: "IANA timezone such as 'Europe/Paris', or 'local'",
				Default:     "local",
			},
		},
		Handler: func(_ context.Context, args map[string]any) (map[string]any, error) {
			var in struct {
				Timezone string `mapstructure:"timezone"`
			}
			if err := Decode(args, &in); err != nil {
				return nil, err
			}
			loc, err := resolveLocation(in.Timezone)
			if err != nil {
				return nil, err
			}
			t := now().In(loc)
			return map[string]any{
				"status":      StatusSuccess,
				"time":        t.Format("15:04:05"),
				"date":        t.Format("2006-01-02"),
				"day_of_week": t.Weekday().String(),
				"timezone":    in.Timezone,
			}, nil
		},
	}
}

// CurrentDateTool reports today's date in long form.
func CurrentDateTool(now func() time.Time) ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolCurrentDate),
		Description: "Get today's date, including the day of the week.",
		Parameters:  map[string]schema.ParamSpec{},
		Handler: func(_ context.Context, _ map[string]any) (map[string]any, error) {
			t := now()
			return map[string]any{
				"status":      StatusSuccess,
				"date":        t.Format("Monday, January 2, 2006"),
				"iso_date":    t.Format("2006-01-02"),
				"day_of_week": t.Weekday().String(),
			}, nil
		},
	}
}

// GreetTool greets the user by name with a time-of-day salutation.
func GreetTool(now func() time.Time) ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolGreet),
		Description: "Greet the user, optionally by name.",
		Parameters: map[string]schema.ParamSpec{
			"name": {Type: schema.TypeString, Description: "The user's name, if known"},
		},
		Handler: func(_ context.Context, args map[string]any) (map[string]any, error) {
			name, _ := args["name"].(string)
			greeting := salutation(now().Hour())
			if name = strings.TrimSpace(name); name != "" {
				greeting += ", " + name
			}
			return map[string]any{
				"status":   StatusSuccess,
				"greeting": greeting + "! How can I help you today?",
			}, nil
		},
	}
}

func salutation(hour int) string {
	switch {
	case hour < 12:
		return "Good morning"
	case hour < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
