// Package runner resolves which test binaries to run, invokes each one as
// a child process, and aggregates their exit codes into a suite result.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/MartinMa/native-tests/internal/gtest"
	"github.com/MartinMa/native-tests/internal/models"
	"github.com/MartinMa/native-tests/internal/registry"
)

// timeoutExitCode is recorded for a binary killed by the per-binary run
// limit. It mirrors the exit code of the coreutils timeout command.
const timeoutExitCode = 124

// Logger receives execution progress events.
type Logger interface {
	LogSuiteStart(runID string, names []string)
	LogBinaryStart(name string, commandLine []string)
	LogBinaryResult(result models.BinaryResult)
	LogSuiteSummary(result models.SuiteResult)
}

// Options configures a Runner.
type Options struct {
	TestsDir  string        // Directory containing the test binaries
	OutputDir string        // Directory for XML results; empty means passthrough
	Timeout   time.Duration // Per-binary run limit; zero means no limit
	Launcher  Launcher      // Process launcher; defaults to ExecLauncher
	Logger    Logger        // Event logger; defaults to a no-op
	Stdout    io.Writer     // Child stdout in passthrough mode; defaults to os.Stdout
	Stderr    io.Writer     // Child stderr; defaults to os.Stderr
}

// Runner executes test binaries from a registry, one at a time and in the
// order given, and sums their exit codes.
type Runner struct {
	registry *registry.Registry
	opts     Options
	launcher Launcher
	logger   Logger
}

// New creates a Runner over a loaded registry, applying defaults for any
// unset Options fields.
func New(reg *registry.Registry, opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &Runner{
		registry: reg,
		opts:     opts,
		launcher: launcher,
		logger:   logger,
	}
}

// ListNames returns all binary names in registry order.
func (r *Runner) ListNames() []string {
	return r.registry.Names()
}

// Run executes the named binaries in the given order and returns the
// aggregated suite result. Every requested name is validated against the
// registry before anything launches; when any name is unknown, an
// UnknownBinaryError is returned and no binary runs. A BinaryLaunchError
// aborts the suite immediately; the results collected so far are returned
// alongside the error.
func (r *Runner) Run(ctx context.Context, names []string) (models.SuiteResult, error) {
	var missing []string
	for _, name := range names {
		if _, ok := r.registry.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return models.SuiteResult{}, &UnknownBinaryError{Names: missing, ConfigPath: r.registry.Path()}
	}

	result := models.SuiteResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	r.logger.LogSuiteStart(result.RunID, names)

	for _, name := range names {
		if ctx.Err() != nil {
			result.Duration = time.Since(result.StartedAt)
			return result, ctx.Err()
		}

		binResult, err := r.runOne(ctx, name)
		if err != nil {
			result.Duration = time.Since(result.StartedAt)
			return result, err
		}
		result.Results = append(result.Results, binResult)
		r.logger.LogBinaryResult(binResult)
	}

	result.Duration = time.Since(result.StartedAt)
	r.logger.LogSuiteSummary(result)
	return result, nil
}

// RunAll executes every binary in the registry, in registry order.
func (r *Runner) RunAll(ctx context.Context) (models.SuiteResult, error) {
	return r.Run(ctx, r.ListNames())
}

// RunOnly executes a single binary by name.
func (r *Runner) RunOnly(ctx context.Context, name string) (models.SuiteResult, error) {
	return r.Run(ctx, []string{name})
}

func (r *Runner) runOne(ctx context.Context, name string) (models.BinaryResult, error) {
	policy, _ := r.registry.Get(name)
	inv := gtest.NewInvocation(r.opts.TestsDir, name, policy.ExcludedTests, r.opts.OutputDir)

	binResult := models.BinaryResult{
		Name:      name,
		Path:      inv.Path,
		Args:      inv.Args,
		StartedAt: time.Now(),
	}

	binCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		binCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	// With an output directory the results land in the XML file, so the
	// child's stdout stays out of the suite's own output.
	stdout := r.opts.Stdout
	if r.opts.OutputDir != "" {
		stdout = nil
	}

	r.logger.LogBinaryStart(name, inv.CommandLine())
	code, err := r.launcher.Launch(binCtx, inv, stdout, r.opts.Stderr)
	binResult.Duration = time.Since(binResult.StartedAt)
	if err != nil {
		return binResult, &BinaryLaunchError{Name: name, Path: inv.Path, Err: err}
	}

	if code < 0 && errors.Is(binCtx.Err(), context.DeadlineExceeded) {
		code = timeoutExitCode
	}
	binResult.ExitCode = code
	binResult.Status = models.StatusForExitCode(code)
	return binResult, nil
}

type nopLogger struct{}

func (nopLogger) LogSuiteStart(runID string, names []string) {}

func (nopLogger) LogBinaryStart(name string, commandLine []string) {}

func (nopLogger) LogBinaryResult(result models.BinaryResult) {}

func (nopLogger) LogSuiteSummary(result models.SuiteResult) {}
