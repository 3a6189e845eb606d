// Package cmd implements the voxagent CLI using cobra.
package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dimiro1/banner"
	"github.com/spf13/cobra"

	"github.com/voxagent/voxagent/internal/config"
	"github.com/voxagent/voxagent/internal/dependency"
	"github.com/voxagent/voxagent/internal/logging"
	"github.com/voxagent/voxagent/internal/shared/cmdutils"
)

const version = "0.1.0"

var (
	configPath string
	verbose    bool
	offline    bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:           "voxagent",
	Short:         cmdutils.Logo + " voxagent, a tool-using voice assistant agent",
	Long:          cmdutils.Logo + " voxagent answers questions by calling tools (time, weather, math, search) through an LLM.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.voxagent/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use the offline keyword matcher instead of an LLM")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cronCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(toolsCmd)
}

// loadConfig reads the config and installs the logger it describes.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	opts := logging.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	}
	if verbose {
		opts.Level = "debug"
	}
	logging.Setup(opts)
	return cfg, nil
}

// buildContainer loads the config and wires every service.
func buildContainer() (*dependency.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return dependency.New(cfg, dependency.Options{Offline: offline})
}

func printBanner() {
	tpl := `{{ .Title "voxagent" "" 0 }}` + "\n   version " + version + "\n\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
