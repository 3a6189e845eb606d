package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voxagent/voxagent/internal/agent"
	"github.com/voxagent/voxagent/internal/config"
	"github.com/voxagent/voxagent/internal/heartbeat"
	"github.com/voxagent/voxagent/internal/shared/cmdutils"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and workspace",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	_, statErr := os.Stat(cfgPath)
	if err := config.Save(cfg, cfgPath); err != nil {
		return err
	}
	if statErr == nil {
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	workspace := cfg.WorkspacePath()
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	fmt.Printf("✓ Workspace at %s\n", workspace)

	created, err := createWorkspaceTemplates(workspace)
	if err != nil {
		return err
	}
	for _, name := range created {
		fmt.Printf("  Created %s\n", name)
	}

	fmt.Printf("\n%s voxagent is ready!\n\n", cmdutils.Logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add your API key to %s (or export OPENAI_API_KEY)\n", cfgPath)
	fmt.Println("  2. Chat: voxagent agent -m \"What time is it?\"")
	fmt.Println("  3. No key yet? Try: voxagent agent --offline -m \"Calculate 25 times 47\"")
	return nil
}

var workspaceTemplates = []struct{ name, content string }{
	{agent.PersonaFile, `---
name: Vox
style: warm, brief, spoken
---
You are a helpful, friendly AI voice assistant.
You can have natural conversations and use available tools when needed.
Keep your responses concise and conversational since they will be spoken aloud.
When using tools, explain what you're doing in a natural way.
`},
	{heartbeat.File, `# Heartbeat

Tasks listed here are checked every heartbeat interval. Leave the list empty
to skip the check-in.

<!-- Example:
- [ ] Tell me the weather in London every morning
-->
`},
}

// createWorkspaceTemplates writes the starter files that do not exist yet and
// returns their names.
func createWorkspaceTemplates(workspace string) ([]string, error) {
	var created []string
	for _, tpl := range workspaceTemplates {
		p := filepath.Join(workspace, tpl.name)
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(p, []byte(tpl.content), 0o644); err != nil {
			return created, fmt.Errorf("write %s: %w", tpl.name, err)
		}
		created = append(created, tpl.name)
	}
	return created, nil
}
