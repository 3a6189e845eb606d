package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/voxagent/voxagent/internal/channels"
	"github.com/voxagent/voxagent/internal/dependency"
	"github.com/voxagent/voxagent/internal/shared/cmdutils"
)

var gatewayPort int

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the voxagent gateway server",
	Long:  "Start the gateway: the agent, the websocket endpoint, chat channels, scheduled prompts and the heartbeat.",
	RunE:  runGateway,
}

func init() {
	gatewayCmd.Flags().IntVarP(&gatewayPort, "port", "p", 0, "Gateway port (overrides gateway.port)")
}

func runGateway(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gatewayPort > 0 {
		cfg.Gateway.Port = gatewayPort
	}

	container, err := dependency.New(cfg, dependency.Options{Offline: offline})
	if err != nil {
		return err
	}

	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	msgBus := container.MessageBus()
	channelMgr := channels.FromConfig(cfg, msgBus)
	if enabled := channelMgr.EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	} else {
		fmt.Println("Warning: no channels enabled")
	}
	if cfg.Gateway.Enabled {
		fmt.Printf("✓ WebSocket: ws://%s:%d%s\n", cfg.Gateway.Host, cfg.Gateway.Port, cfg.Gateway.Path)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return container.Agent().Run(gctx, msgBus) })
	g.Go(func() error { return container.CronService().Start(gctx) })
	if cfg.Heartbeat.Enabled {
		hb := container.Heartbeat()
		slog.Info("Heartbeat enabled", "interval", hb.Interval())
		g.Go(func() error { return hb.Start(gctx) })
	}
	g.Go(func() error { return channelMgr.StartAll(gctx) })

	fmt.Printf("%s Gateway running. Press Ctrl+C to stop.\n", cmdutils.Logo)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("gateway: %w", err)
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
