package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/channels"
	"github.com/voxagent/voxagent/internal/dependency"
	"github.com/voxagent/voxagent/internal/shared/cmdutils"
)

var (
	agentMessage string
	agentSession string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Talk to the agent",
	Long:  "Talk to the agent. With -m a single utterance is answered and the command exits; otherwise an interactive session starts.",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentMessage, "message", "m", "", "Send a single message and exit")
	agentCmd.Flags().StringVarP(&agentSession, "session", "s", "cli:direct", "Session key for -m")
}

func runAgent(_ *cobra.Command, _ []string) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	if agentMessage != "" {
		return runSingleMessage(container)
	}
	return runInteractive(container)
}

// runSingleMessage answers one utterance and prints the reply.
func runSingleMessage(container *dependency.Container) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	channel, chatID := parseSessionKey(agentSession)
	fmt.Fprintln(os.Stderr, "  ↳ thinking...")
	res := container.Agent().ProcessDirect(ctx, agentMessage, agentSession, channel, chatID)
	if res.Err != nil && errors.Is(res.Err, context.Canceled) {
		return res.Err
	}
	cmdutils.PrintResponse(res.FinalText)
	return nil
}

// runInteractive runs the terminal REPL as a bus channel. The command returns
// when the user types an exit word, stdin closes, or a signal arrives.
func runInteractive(container *dependency.Container) error {
	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgBus := container.MessageBus()
	cli := channels.NewCLIChannel(msgBus)
	mgr := channels.NewManager(msgBus)
	mgr.Register(cli)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return container.Agent().Run(gctx, msgBus) })
	g.Go(func() error { return mgr.Dispatch(gctx) })
	g.Go(func() error {
		defer cancel()
		return cli.Start(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// parseSessionKey splits "channel:chat" into its parts. A bare key is a CLI
// chat id.
func parseSessionKey(key string) (channel, chatID string) {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return string(bus.ChannelCLI), key
}
