package tools

import (
	"context"
	"fmt"

	"github.com/voxagent/voxagent/internal/schema"
)

const defaultSearchCap = 3

// SearchWebTool returns simulated search results. maxResults caps the number
// of results regardless of what the model asks for (default 3).
func SearchWebTool(maxResults int) ToolDefinition {
	if maxResults <= 0 {
		maxResults = defaultSearchCap
	}
	return ToolDefinition{
		Name:        string(ToolSearchWeb),
		Description: "Search the web for information. Returns titles, URLs, and snippets.",
		Parameters: map[string]schema.ParamSpec{
			"query":       {Type: schema.TypeString, Description: "Search query", Required: true},
			"num_results": {Type: schema.TypeInteger, Description: "Number of results (1-5)", Default: int64(3)},
		},
		Handler: func(_ context.Context, args map[string]any) (map[string]any, error) {
			var in struct {
				Query      string `mapstructure:"query"`
				NumResults int    `mapstructure:"num_results"`
			}
			if err := Decode(args, &in); err != nil {
				return nil, err
			}
			if in.Query == "" {
				return nil, fmt.Errorf("query is empty")
			}
			n := clampInt(in.NumResults, 1, 5)
			n = min(n, maxResults)

			results := make([]map[string]any, 0, n)
			for i := 1; i <= n; i++ {
				results = append(results, map[string]any{
					"title":   fmt.Sprintf("Result %d for '%s'", i, in.Query),
					"snippet": fmt.Sprintf("This is a simulated search result snippet for %s", in.Query),
					"url":     fmt.Sprintf("https://example.com/result%d", i),
				})
			}
			return map[string]any{
				"status":  StatusSuccess,
				"query":   in.Query,
				"results": results,
				"note":    simulatedNote,
			}, nil
		},
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
