package channels

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/voxagent/voxagent/internal/bus"
	"github.com/voxagent/voxagent/internal/schema"
	"github.com/voxagent/voxagent/internal/shared/cmdutils"
)

const (
	cliSender = "user"
	cliChatID = "direct"
)

var cliExitCommands = map[string]bool{
	"exit":    true,
	"quit":    true,
	"bye":     true,
	"goodbye": true,
	"stop":    true,
	"/exit":   true,
	"/quit":   true,
	":q":      true,
}

// IsExitCommand reports whether line ends an interactive session.
func IsExitCommand(line string) bool {
	return cliExitCommands[strings.ToLower(strings.TrimSpace(line))]
}

// CLIChannel is the terminal REPL. Each line is published to the agent and
// the REPL waits for the reply before prompting again.
type CLIChannel struct {
	Base
	in      io.Reader
	out     io.Writer
	replies chan schema.OutboundMessage
}

// NewCLIChannel creates a CLIChannel on stdin and stdout.
func NewCLIChannel(b bus.Bus) *CLIChannel {
	return NewCLIChannelIO(b, os.Stdin, os.Stdout)
}

// NewCLIChannelIO creates a CLIChannel on the given reader and writer.
func NewCLIChannelIO(b bus.Bus, in io.Reader, out io.Writer) *CLIChannel {
	return &CLIChannel{
		Base:    NewBase(bus.ChannelCLI, b, nil),
		in:      in,
		out:     out,
		replies: make(chan schema.OutboundMessage, 16),
	}
}

// Start runs the REPL until an exit word, EOF, or ctx cancellation.
func (c *CLIChannel) Start(ctx context.Context) error {
	fmt.Fprintf(c.out, "%s Interactive mode (type 'exit' or press Ctrl+C to quit)\n\n", cmdutils.Logo)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(c.out, "You: ")

		var line string
		select {
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out, "\nGoodbye!")
				return nil
			}
			line = strings.TrimSpace(l)
		case <-ctx.Done():
			return ctx.Err()
		}

		if line == "" {
			continue
		}
		if IsExitCommand(line) {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		if err := c.HandleMessage(ctx, cliSender, cliChatID, line, nil); err != nil {
			return err
		}
		if err := c.waitForReply(ctx); err != nil {
			return err
		}
	}
}

// waitForReply prints progress lines until the final reply arrives.
func (c *CLIChannel) waitForReply(ctx context.Context) error {
	for {
		select {
		case msg := <-c.replies:
			if msg.Progress {
				fmt.Fprintf(c.out, "  ↳ %s\n", msg.Content)
				continue
			}
			cmdutils.FprintResponse(c.out, msg.Content)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Send hands an agent reply to the REPL.
func (c *CLIChannel) Send(ctx context.Context, msg schema.OutboundMessage) error {
	select {
	case c.replies <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
