package executor

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DockerRunner executes toolchain commands inside short-lived containers:
// no network, bounded memory, only the scratch directory mounted. It is the
// hardening layer for running untrusted source text.
type DockerRunner struct {
	// Binary is the container CLI. Defaults to "docker".
	Binary string

	// Memory is the container memory limit (e.g. "256m"). Empty disables
	// the limit.
	Memory string

	// invoke is the underlying command invoker, swappable in tests.
	invoke func(ctx context.Context, spec CommandSpec) (CommandResult, error)
}

const (
	containerWorkdir = "/workspace"

	// killTimeout bounds the follow-up kill of a timed-out container.
	killTimeout = 10 * time.Second
)

// NewDockerRunner creates a DockerRunner with the given memory limit.
func NewDockerRunner(memory string) *DockerRunner {
	return &DockerRunner{Binary: "docker", Memory: memory}
}

// Run wraps the command in a `docker run` invocation. The scratch directory
// is bind-mounted read-write at /workspace so compile steps can drop their
// binary next to the source, and argv paths under the scratch directory are
// rewritten to their in-container equivalents. Each container gets a unique
// name so a timed-out run can be killed by name afterwards.
func (d *DockerRunner) Run(ctx context.Context, spec CommandSpec) (CommandResult, error) {
	if len(spec.Argv) == 0 {
		return CommandResult{}, fmt.Errorf("empty command")
	}
	if spec.Image == "" {
		return CommandResult{}, fmt.Errorf("no sandbox image configured for command %q", spec.Argv[0])
	}

	absDir, err := filepath.Abs(spec.Dir)
	if err != nil {
		return CommandResult{}, fmt.Errorf("failed to resolve scratch directory: %w", err)
	}

	name := "collab-run-" + uuid.NewString()[:12]

	args := []string{"run", "--rm", "--network=none", "--name", name}
	if d.Memory != "" {
		args = append(args, "--memory", d.Memory)
	}
	args = append(args,
		"-v", absDir+":"+containerWorkdir,
		"-w", containerWorkdir,
		spec.Image,
	)
	for _, arg := range spec.Argv {
		args = append(args, rewritePath(arg, spec.Dir, absDir))
	}

	res, runErr := d.run(ctx, CommandSpec{
		Argv:         append([]string{d.binary()}, args...),
		Timeout:      spec.Timeout,
		CaptureLimit: spec.CaptureLimit,
	})

	// The timeout kills only the CLI client; the container is owned by the
	// daemon and keeps running. Kill it by name so the bound holds for the
	// program itself, not just for the invocation.
	if res.TimedOut {
		d.killContainer(name)
	}

	return res, runErr
}

func (d *DockerRunner) run(ctx context.Context, spec CommandSpec) (CommandResult, error) {
	if d.invoke != nil {
		return d.invoke(ctx, spec)
	}
	return HostRunner{}.Run(ctx, spec)
}

func (d *DockerRunner) binary() string {
	if d.Binary != "" {
		return d.Binary
	}
	return "docker"
}

// killContainer force-stops a container left behind by a timed-out run. It
// is best-effort: a failure is logged, never surfaced past the timeout
// error the caller already has.
func (d *DockerRunner) killContainer(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), killTimeout)
	defer cancel()

	if _, err := d.run(ctx, CommandSpec{
		Argv:    []string{d.binary(), "kill", name},
		Timeout: killTimeout,
	}); err != nil {
		log.Printf("failed to kill container %s: %v", name, err)
	}
}

// rewritePath maps a host path under the scratch directory to its location
// inside the container. Arguments that are not scratch paths pass through.
func rewritePath(arg, dir, absDir string) string {
	for _, prefix := range []string{absDir, dir} {
		if prefix != "" && strings.HasPrefix(arg, prefix) {
			return containerWorkdir + strings.TrimPrefix(arg, prefix)
		}
	}
	return arg
}
