package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/collab-code-editor/backend/internal/buffer"
)

// DefaultCaptureLimit bounds captured stdout and stderr per stream.
const DefaultCaptureLimit = 64 * 1024

// CommandSpec describes one toolchain invocation: a compile or run step.
type CommandSpec struct {
	// Argv is the fully expanded command line. Never empty.
	Argv []string

	// Dir is the working directory for the command.
	Dir string

	// Timeout is the hard wall-clock bound. The process is killed at the
	// bound, not asked to stop.
	Timeout time.Duration

	// Image is the container image for sandboxed runners. Host execution
	// ignores it.
	Image string

	// CaptureLimit bounds each captured stream in bytes. Zero means
	// DefaultCaptureLimit.
	CaptureLimit int
}

// CommandResult is the captured outcome of a completed invocation.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Runner invokes external toolchain commands under a timeout. The pipeline
// depends only on this interface so the sandboxing strategy is swappable.
type Runner interface {
	Run(ctx context.Context, spec CommandSpec) (CommandResult, error)
}

// HostRunner executes commands directly on the host. This matches the
// reference deployment's behavior and offers no isolation beyond the
// timeout; prefer DockerRunner where untrusted code is a concern.
type HostRunner struct{}

// Run executes the command, capturing bounded stdout/stderr. A non-zero
// exit is reported through the result with a nil error; errors are reserved
// for timeouts and invocation failures.
func (HostRunner) Run(ctx context.Context, spec CommandSpec) (CommandResult, error) {
	if len(spec.Argv) == 0 {
		return CommandResult{}, fmt.Errorf("empty command")
	}

	limit := spec.CaptureLimit
	if limit <= 0 {
		limit = DefaultCaptureLimit
	}

	runCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	stdout := buffer.NewCapture(limit)
	stderr := buffer.NewCapture(limit)

	cmd := exec.CommandContext(runCtx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Give a killed process a short grace window to release its pipes, then
	// force Wait to return.
	cmd.WaitDelay = time.Second
	// Kill the whole process group at the bound, not just the direct
	// child: background processes the program spawned must die with it.
	setProcGroup(cmd)

	err := cmd.Run()

	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			result.TimedOut = true
			return result, fmt.Errorf("timed out after %s", spec.Timeout)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		// Command could not be started at all (missing toolchain, bad path).
		return result, err
	}

	return result, nil
}
