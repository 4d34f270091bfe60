package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const defaultShellPath = "/bin/sh"

// errHookFailed tags export-hook failures so the CLI can map them to a
// stable error code.
var errHookFailed = errors.New("export hook failed")

// hookRunResult captures one hook execution for diagnostics and JSON output.
type hookRunResult struct {
	Command    string `json:"command"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`
}

// runExportHook runs the configured export command through the shell and
// waits for it to finish. The caller decides what a non-zero exit means.
func runExportHook(command string, timeout time.Duration) (hookRunResult, error) {
	result := hookRunResult{Command: command}

	shell := strings.TrimSpace(os.Getenv("SHELL"))
	if shell == "" {
		shell = defaultShellPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	execCmd := exec.CommandContext(ctx, shell, "-c", command)
	execCmd.Env = append(os.Environ(), "FOLIO_HOOK=export")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	start := time.Now()
	err := execCmd.Run()
	result.DurationMs = time.Since(start).Milliseconds()
	result.Stdout = strings.TrimSpace(stdout.String())
	result.Stderr = strings.TrimSpace(stderr.String())

	if err == nil {
		result.ExitCode = 0
		return result, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = -1
	}

	return result, err
}

// exportHookError folds a failed run into one error carrying the hook
// sentinel and the most useful line of diagnostics.
func exportHookError(result hookRunResult, err error) error {
	if result.TimedOut {
		return fmt.Errorf("%w: timed out after %dms", errHookFailed, result.DurationMs)
	}
	if result.Stderr != "" {
		return fmt.Errorf("%w: exit %d: %s", errHookFailed, result.ExitCode, lastLine(result.Stderr))
	}
	return fmt.Errorf("%w: %v", errHookFailed, err)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
