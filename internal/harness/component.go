package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// EnvDataDir is the environment variable through which the component
// receives its data directory. The variable is set on the child process
// environment only, never on the harness process.
const EnvDataDir = "PIPETEST_DATADIR"

// Runner executes the component under test against a data directory. The
// harness treats the call as opaque and synchronous; there is no timeout at
// this layer.
type Runner interface {
	Run(ctx context.Context, dataDir string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, dataDir string) error

func (f RunnerFunc) Run(ctx context.Context, dataDir string) error { return f(ctx, dataDir) }

// ExecRunner invokes an external component command.
type ExecRunner struct {
	Command string
	Args    []string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Run executes the command with EnvDataDir pointing at the sandbox.
func (r *ExecRunner) Run(ctx context.Context, dataDir string) error {
	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Env = append(os.Environ(), EnvDataDir+"="+dataDir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("component %s: %w", r.Command, err)
	}
	return nil
}
