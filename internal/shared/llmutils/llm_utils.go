package llmutils

import (
	"fmt"
	"slices"
	"strings"

	"github.com/voxagent/voxagent/internal/schema"
)

// ToolHint generates a short hint string for a list of tool calls, e.g.
// `search_web("weather in London")`. The first string argument in key order
// is shown.
func ToolHint(tcs []schema.ToolCallRequest) string {
	parts := make([]string, 0, len(tcs))
	for _, tc := range tcs {
		keys := make([]string, 0, len(tc.Arguments))
		for k := range tc.Arguments {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		var firstVal string
		for _, k := range keys {
			if s, ok := tc.Arguments[k].(string); ok && s != "" {
				firstVal = s
				break
			}
		}
		if firstVal == "" {
			parts = append(parts, tc.Name)
			continue
		}
		if r := []rune(firstVal); len(r) > 40 {
			firstVal = string(r[:40]) + "…"
		}
		parts = append(parts, fmt.Sprintf("%s(%q)", tc.Name, firstVal))
	}
	return strings.Join(parts, ", ")
}

// ToolList renders tool schemas as a bulleted list for /tools and the CLI.
func ToolList(defs []schema.ToolSchema) string {
	var sb strings.Builder
	for _, d := range defs {
		fmt.Fprintf(&sb, "• %s: %s\n", d.Name, d.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}
