package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/voxagent/voxagent/internal/schema"
	"github.com/voxagent/voxagent/internal/shared/llmutils"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and invoke the agent's tools",
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsInvokeCmd)
}

var toolsFormat string

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools",
	RunE: func(_ *cobra.Command, _ []string) error {
		container, err := buildContainer()
		if err != nil {
			return err
		}
		return writeToolSchemas(os.Stdout, container.Registry().Definitions(), toolsFormat)
	},
}

func init() {
	toolsListCmd.Flags().StringVarP(&toolsFormat, "format", "f", "text", "Output format: text, json or yaml")
}

var toolsArgs string

var toolsInvokeCmd = &cobra.Command{
	Use:   "invoke <name>",
	Short: "Invoke a tool directly and print its JSON result",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var toolArgs map[string]any
		if err := json.Unmarshal([]byte(toolsArgs), &toolArgs); err != nil {
			return fmt.Errorf("--args must be a JSON object: %w", err)
		}

		container, err := buildContainer()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		res := container.Registry().Invoke(ctx, args[0], toolArgs)
		fmt.Println(res.Content)
		if res.IsError() {
			return fmt.Errorf("tool %s failed", args[0])
		}
		return nil
	},
}

func init() {
	toolsInvokeCmd.Flags().StringVarP(&toolsArgs, "args", "a", "{}", "Tool arguments as a JSON object")
}

// writeToolSchemas renders defs in the requested format. json and yaml use
// the OpenAI function-calling shape.
func writeToolSchemas(w io.Writer, defs []schema.ToolSchema, format string) error {
	switch format {
	case "", "text":
		_, err := fmt.Fprintln(w, llmutils.ToolList(defs))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(openAITools(defs))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(openAITools(defs)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func openAITools(defs []schema.ToolSchema) []map[string]any {
	out := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.ToOpenAIFormat())
	}
	return out
}
