package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxagent/voxagent/internal/config"
	"github.com/voxagent/voxagent/internal/providers"
	"github.com/voxagent/voxagent/internal/shared/cmdutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show voxagent status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	fmt.Printf("%s voxagent Status\n\n", cmdutils.Logo)
	fmt.Printf("Config:    %s %s\n", cfgPath, existsMark(cfgPath))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	ws := cfg.WorkspacePath()
	fmt.Printf("Workspace: %s %s\n", ws, existsMark(ws))

	match := cfg.MatchProvider(cfg.Agent.Model)
	fmt.Printf("Model:     %s (%s)\n", cfg.Agent.Model, match.Name)
	fmt.Printf("Rounds:    %d per turn, history %d messages\n\n", cfg.Agent.MaxRounds, cfg.Agent.MaxHistory)

	fmt.Println("Providers:")
	for _, spec := range providers.PROVIDERS {
		p := cfg.ProviderByName(spec.Name)
		if p == nil {
			continue
		}
		label := spec.Label()
		switch {
		case spec.IsLocal:
			if p.APIBase != "" {
				fmt.Printf("  %-20s ✓ %s\n", label, p.APIBase)
			} else {
				fmt.Printf("  %-20s (not set)\n", label)
			}
		default:
			if p.APIKey != "" {
				fmt.Printf("  %-20s ✓\n", label)
			} else {
				fmt.Printf("  %-20s (not set)\n", label)
			}
		}
	}
	return nil
}

func existsMark(path string) string {
	if _, err := os.Stat(path); err == nil {
		return "✓"
	}
	return "✗"
}
