package runner

import (
	"context"
	"io"
	"os/exec"

	"github.com/MartinMa/native-tests/internal/gtest"
)

// Launcher starts a test binary and waits for it to exit. The returned int
// is the raw process exit code; an error means the process could not be
// launched or waited on at all, not that tests failed.
type Launcher interface {
	Launch(ctx context.Context, inv gtest.Invocation, stdout, stderr io.Writer) (int, error)
}

// ExecLauncher runs binaries as OS child processes.
type ExecLauncher struct{}

// Launch executes the invocation and blocks until the child exits. A nil
// stdout leaves the child's standard output connected to the null device.
func (ExecLauncher) Launch(ctx context.Context, inv gtest.Invocation, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}
	return 0, nil
}
