package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/voxagent/voxagent/internal/schema"
)

// SystemInfoTool describes the host the assistant runs on.
func SystemInfoTool() ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolSystemInfo),
		Description: "Get information about the computer the assistant is running on.",
		Parameters:  map[string]schema.ParamSpec{},
		Handler: func(_ context.Context, _ map[string]any) (map[string]any, error) {
			hostname, _ := os.Hostname()
			return map[string]any{
				"status":     StatusSuccess,
				"system":     runtime.GOOS,
				"machine":    runtime.GOARCH,
				"hostname":   hostname,
				"cpus":       runtime.NumCPU(),
				"go_version": runtime.Version(),
			}, nil
		},
	}
}

// denyPatterns block obviously destructive commands even when execution is
// enabled.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-[rf]{1,2}\b`),
	regexp.MustCompile(`(?i)\bdel\s+/[fq]\b`),
	regexp.MustCompile(`(?i)\brmdir\s+/s\b`),
	regexp.MustCompile(`(?i)(?:^|[;&|]\s*)format\b`),
	regexp.MustCompile(`(?i)\b(mkfs|diskpart)\b`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	regexp.MustCompile(`(?i)>\s*/dev/sd`),
	regexp.MustCompile(`(?i)\b(shutdown|reboot|poweroff)\b`),
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`),
}

const maxCommandOutput = 10000

// SystemCommand runs shell commands. It is disabled unless explicitly
// allowed in configuration; when disabled it answers with an error status.
type SystemCommand struct {
	allowed    bool
	workingDir string
	timeout    time.Duration
}

// NewSystemCommand creates a SystemCommand. timeout defaults to 60s.
func NewSystemCommand(allowed bool, workingDir string, timeout time.Duration) *SystemCommand {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SystemCommand{allowed: allowed, workingDir: workingDir, timeout: timeout}
}

// Definition returns the execute_system_command tool.
func (c *SystemCommand) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolSystemCommand),
		Description: "Execute a system command. Disabled by default for security reasons.",
		Parameters: map[string]schema.ParamSpec{
			"command": {Type: schema.TypeString, Description: "The shell command to execute", Required: true},
		},
		Handler: c.execute,
	}
}

func (c *SystemCommand) execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	command, _ := args["command"].(string)

	if !c.allowed {
		return map[string]any{
			"status":  StatusError,
			"error":   "System command execution is disabled for security reasons.",
			"command": command,
		}, nil
	}
	if guard := guardCommand(command); guard != "" {
		return map[string]any{"status": StatusError, "error": guard, "command": command}, nil
	}

	cmdCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)
	cmd.Dir = c.workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("command timed out after %v", c.timeout)
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	} else if runErr != nil {
		return nil, runErr
	}

	status := StatusSuccess
	if exitCode != 0 {
		status = StatusError
	}
	return map[string]any{
		"status":    status,
		"command":   command,
		"exit_code": exitCode,
		"stdout":    truncateOutput(stdout.String()),
		"stderr":    truncateOutput(stderr.String()),
	}, nil
}

// guardCommand returns a non-empty reason when command matches a deny pattern.
func guardCommand(command string) string {
	lower := strings.ToLower(strings.TrimSpace(command))
	for _, p := range denyPatterns {
		if p.MatchString(lower) {
			return "Command blocked by safety guard (dangerous pattern detected)"
		}
	}
	return ""
}

func truncateOutput(s string) string {
	if len(s) <= maxCommandOutput {
		return s
	}
	return s[:maxCommandOutput] + fmt.Sprintf("\n... (truncated, %d more chars)", len(s)-maxCommandOutput)
}
