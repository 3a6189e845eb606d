package tools

import (
	"context"

	"github.com/voxagent/voxagent/internal/schema"
)

const simulatedNote = "This is simulated data. Integrate a real API for production use."

// WeatherTool returns simulated current conditions for a location.
func WeatherTool() ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolWeather),
		Description: "Get the current weather for a location.",
		Parameters: map[string]schema.ParamSpec{
			"location": {Type: schema.TypeString, Description: "City name or location", Required: true},
			"unit": {
				Type:        schema.TypeString,
				Description: "Temperature unit",
				Enum:        []string{"celsius", "fahrenheit"},
				Default:     "celsius",
			},
		},
		Handler: func(_ context.Context, args map[string]any) (map[string]any, error) {
			var in struct {
				Location string `mapstructure:"location"`
				Unit     string `mapstructure:"unit"`
			}
			if err := Decode(args, &in); err != nil {
				return nil, err
			}
			temp := 22
			if in.Unit == "fahrenheit" {
				temp = 72
			}
			return map[string]any{
				"status":      StatusSuccess,
				"location":    in.Location,
				"temperature": temp,
				"unit":        in.Unit,
				"condition":   "Partly Cloudy",
				"humidity":    65,
				"wind_speed":  15,
				"note":        simulatedNote,
			}, nil
		},
	}
}
