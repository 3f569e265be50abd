package launch

import (
	"context"
	"errors"
	"io"
	"os/exec"

	"github.com/handiism/mixlauncher/internal/ctxlog"
	ioutils "github.com/handiism/mixlauncher/internal/io"
)

// Runner starts an assembled command and waits for it.
type Runner interface {
	// Run returns the exit code. A non-zero exit is not an error; err is
	// reserved for failures to start or wait.
	Run(ctx context.Context, cmd *Command) (exitCode int, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd *Command) (int, error) {
	if cmd.Dir != "" {
		if err := ioutils.EnsureDir(cmd.Dir); err != nil {
			return -1, err
		}
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	ctxlog.FromContext(ctx).Info("starting game", "version", cmd.VersionID, "java", cmd.Path, "dir", cmd.Dir)

	err := c.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
