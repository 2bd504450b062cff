package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/MartinMa/native-tests/internal/gtest"
	"github.com/MartinMa/native-tests/internal/models"
	"github.com/MartinMa/native-tests/internal/registry"
)

// FakeLauncher records invocations and returns configured exit codes
// without starting any process.
type FakeLauncher struct {
	exitCodes   map[string]int
	errors      map[string]error
	invocations []gtest.Invocation
	stdouts     []io.Writer
	deadlines   []bool
}

// NewFakeLauncher creates a new FakeLauncher
func NewFakeLauncher() *FakeLauncher {
	return &FakeLauncher{
		exitCodes: make(map[string]int),
		errors:    make(map[string]error),
	}
}

// SetExitCode sets the exit code reported for a binary name
func (f *FakeLauncher) SetExitCode(name string, code int) {
	f.exitCodes[name] = code
}

// SetError sets the launch error returned for a binary name
func (f *FakeLauncher) SetError(name string, err error) {
	f.errors[name] = err
}

// Launch records the invocation and returns the configured result
func (f *FakeLauncher) Launch(ctx context.Context, inv gtest.Invocation, stdout, stderr io.Writer) (int, error) {
	f.invocations = append(f.invocations, inv)
	f.stdouts = append(f.stdouts, stdout)
	_, hasDeadline := ctx.Deadline()
	f.deadlines = append(f.deadlines, hasDeadline)

	if err, ok := f.errors[inv.Name]; ok {
		return 0, err
	}
	return f.exitCodes[inv.Name], nil
}

// Names returns the binary names launched, in order
func (f *FakeLauncher) Names() []string {
	names := make([]string, 0, len(f.invocations))
	for _, inv := range f.invocations {
		names = append(names, inv.Name)
	}
	return names
}

func newTestRegistry(t *testing.T, config string) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tests.yaml")
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	reg, err := registry.Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return reg
}

func TestRun_SumsExitCodes(t *testing.T) {
	reg := newTestRegistry(t, "tests: [b1_tests, b2_tests]\n")
	fake := NewFakeLauncher()
	fake.SetExitCode("b1_tests", 0)
	fake.SetExitCode("b2_tests", 2)

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	result, err := r.Run(context.Background(), []string{"b1_tests", "b2_tests"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Sum() != 2 {
		t.Errorf("Sum() = %d, want 2", result.Sum())
	}
	if result.Results[0].Status != models.StatusPassed {
		t.Errorf("b1_tests status = %s, want %s", result.Results[0].Status, models.StatusPassed)
	}
	if result.Results[1].Status != models.StatusFailed {
		t.Errorf("b2_tests status = %s, want %s", result.Results[1].Status, models.StatusFailed)
	}
}

func TestRun_SumIsArithmeticNotLogicalOr(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests, b_tests, c_tests]\n")
	fake := NewFakeLauncher()
	fake.SetExitCode("a_tests", 1)
	fake.SetExitCode("b_tests", 1)
	fake.SetExitCode("c_tests", 1)

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	result, err := r.RunAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Sum() != 3 {
		t.Errorf("Sum() = %d, want 3 (one per failing binary)", result.Sum())
	}
}

func TestRun_UnknownBinaryLaunchesNothing(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests]\n")
	fake := NewFakeLauncher()

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	_, err := r.Run(context.Background(), []string{"missing_tests"})
	if err == nil {
		t.Fatal("expected an error for an unknown binary")
	}
	if !IsUnknownBinaryError(err) {
		t.Errorf("expected UnknownBinaryError, got %v", err)
	}
	if len(fake.invocations) != 0 {
		t.Errorf("expected zero launches, got %d", len(fake.invocations))
	}
}

func TestRun_UnknownBinaryReportsAllMissing(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests]\n")
	fake := NewFakeLauncher()

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	_, err := r.Run(context.Background(), []string{"a_tests", "x_tests", "y_tests"})
	if err == nil {
		t.Fatal("expected an error for unknown binaries")
	}

	var unknownErr *UnknownBinaryError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownBinaryError, got %v", err)
	}
	if !reflect.DeepEqual(unknownErr.Names, []string{"x_tests", "y_tests"}) {
		t.Errorf("missing names = %v, want [x_tests y_tests]", unknownErr.Names)
	}
	if len(fake.invocations) != 0 {
		t.Errorf("expected zero launches, got %d", len(fake.invocations))
	}
}

func TestRunAll_RegistryOrder(t *testing.T) {
	reg := newTestRegistry(t, "tests: [z_tests, a_tests, m_tests]\n")
	fake := NewFakeLauncher()

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"z_tests", "a_tests", "m_tests"}
	if !reflect.DeepEqual(fake.Names(), want) {
		t.Errorf("launch order = %v, want %v", fake.Names(), want)
	}
}

func TestRun_BuildsFilterFromPolicy(t *testing.T) {
	reg := newTestRegistry(t, `
tests:
  - a_tests
  - b_tests:
      to_fix: [X.Y]
`)
	fake := NewFakeLauncher()
	fake.SetExitCode("a_tests", 0)
	fake.SetExitCode("b_tests", 1)

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	result, err := r.Run(context.Background(), []string{"a_tests", "b_tests"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result.Sum() != 1 {
		t.Errorf("Sum() = %d, want 1", result.Sum())
	}

	if len(fake.invocations[0].Args) != 0 {
		t.Errorf("a_tests args = %v, want none", fake.invocations[0].Args)
	}
	wantArgs := []string{"--gtest_filter=-X.Y"}
	if !reflect.DeepEqual(fake.invocations[1].Args, wantArgs) {
		t.Errorf("b_tests args = %v, want %v", fake.invocations[1].Args, wantArgs)
	}
}

func TestRun_OutputDirSuppressesStdout(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests]\n")
	fake := NewFakeLauncher()
	var passthrough bytes.Buffer

	r := New(reg, Options{
		TestsDir:  "/tests",
		OutputDir: "/results",
		Launcher:  fake,
		Stdout:    &passthrough,
	})
	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if fake.stdouts[0] != nil {
		t.Error("expected child stdout to be suppressed in output-dir mode")
	}

	wantArg := "--gtest_output=xml:" + filepath.Join("/results", "results_a_tests.xml")
	if !reflect.DeepEqual(fake.invocations[0].Args, []string{wantArg}) {
		t.Errorf("args = %v, want [%s]", fake.invocations[0].Args, wantArg)
	}
}

func TestRun_PassthroughWithoutOutputDir(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests]\n")
	fake := NewFakeLauncher()
	var passthrough bytes.Buffer

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake, Stdout: &passthrough})
	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if fake.stdouts[0] != &passthrough {
		t.Error("expected child stdout to pass through to the configured writer")
	}
	for _, arg := range fake.invocations[0].Args {
		if arg == "--gtest_output=xml:" {
			t.Errorf("unexpected output argument %q", arg)
		}
	}
	if len(fake.invocations[0].Args) != 0 {
		t.Errorf("args = %v, want none", fake.invocations[0].Args)
	}
}

func TestRun_LaunchErrorAbortsSuite(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests, broken_tests, c_tests]\n")
	fake := NewFakeLauncher()
	fake.SetError("broken_tests", errors.New("no such file or directory"))

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	result, err := r.RunAll(context.Background())
	if err == nil {
		t.Fatal("expected a launch error")
	}
	if !IsBinaryLaunchError(err) {
		t.Errorf("expected BinaryLaunchError, got %v", err)
	}

	// a_tests completed before the failure; c_tests never launched.
	if len(result.Results) != 1 || result.Results[0].Name != "a_tests" {
		t.Errorf("partial results = %v, want only a_tests", result.Results)
	}
	want := []string{"a_tests", "broken_tests"}
	if !reflect.DeepEqual(fake.Names(), want) {
		t.Errorf("launched = %v, want %v", fake.Names(), want)
	}
}

func TestRun_EmptyNameList(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests]\n")
	fake := NewFakeLauncher()

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	result, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Sum() != 0 {
		t.Errorf("Sum() = %d, want 0", result.Sum())
	}
	if len(fake.invocations) != 0 {
		t.Errorf("expected zero launches, got %d", len(fake.invocations))
	}
}

func TestRunOnly(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests, b_tests]\n")
	fake := NewFakeLauncher()
	fake.SetExitCode("b_tests", 4)

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	result, err := r.RunOnly(context.Background(), "b_tests")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Sum() != 4 {
		t.Errorf("Sum() = %d, want 4", result.Sum())
	}
	if !reflect.DeepEqual(fake.Names(), []string{"b_tests"}) {
		t.Errorf("launched = %v, want [b_tests]", fake.Names())
	}
}

func TestRun_TimeoutAppliesDeadline(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests]\n")

	fake := NewFakeLauncher()
	r := New(reg, Options{TestsDir: "/tests", Launcher: fake, Timeout: time.Minute})
	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !fake.deadlines[0] {
		t.Error("expected the launch context to carry a deadline")
	}

	fake = NewFakeLauncher()
	r = New(reg, Options{TestsDir: "/tests", Launcher: fake})
	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fake.deadlines[0] {
		t.Error("expected no deadline when no timeout is configured")
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests]\n")
	fake := NewFakeLauncher()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	_, err := r.RunAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(fake.invocations) != 0 {
		t.Errorf("expected zero launches, got %d", len(fake.invocations))
	}
}

func TestRun_AssignsDistinctRunIDs(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests]\n")
	fake := NewFakeLauncher()

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake})
	first, err := r.RunAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := r.RunAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first.RunID == "" || second.RunID == "" {
		t.Error("expected non-empty run IDs")
	}
	if first.RunID == second.RunID {
		t.Errorf("expected distinct run IDs, both were %s", first.RunID)
	}
}

// recordingLogger captures the event sequence for assertions.
type recordingLogger struct {
	events []string
}

func (l *recordingLogger) LogSuiteStart(runID string, names []string) {
	l.events = append(l.events, "suite-start")
}

func (l *recordingLogger) LogBinaryStart(name string, commandLine []string) {
	l.events = append(l.events, "start:"+name)
}

func (l *recordingLogger) LogBinaryResult(result models.BinaryResult) {
	l.events = append(l.events, "result:"+result.Name)
}

func (l *recordingLogger) LogSuiteSummary(result models.SuiteResult) {
	l.events = append(l.events, "summary")
}

func TestRun_EmitsLoggerEvents(t *testing.T) {
	reg := newTestRegistry(t, "tests: [a_tests, b_tests]\n")
	fake := NewFakeLauncher()
	log := &recordingLogger{}

	r := New(reg, Options{TestsDir: "/tests", Launcher: fake, Logger: log})
	if _, err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{
		"suite-start",
		"start:a_tests", "result:a_tests",
		"start:b_tests", "result:b_tests",
		"summary",
	}
	if !reflect.DeepEqual(log.events, want) {
		t.Errorf("event sequence = %v, want %v", log.events, want)
	}
}
