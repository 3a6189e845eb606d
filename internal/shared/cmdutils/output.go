// Package cmdutils holds terminal output helpers shared by the CLI and the
// console channel.
package cmdutils

import (
	"fmt"
	"io"
	"os"
)

// Logo prefixes assistant output in the terminal.
const Logo = "🎙"

// Name is the assistant label printed above replies.
const Name = "voxagent"

// PrintResponse writes an assistant reply to stdout.
func PrintResponse(text string) {
	FprintResponse(os.Stdout, text)
}

// FprintResponse writes an assistant reply to w. Empty text prints nothing.
func FprintResponse(w io.Writer, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(w, "\n%s %s\n%s\n\n", Logo, Name, text)
}
