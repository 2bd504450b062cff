package runner

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownBinaryError reports requested binary names that are not present
// in the configuration. Nothing runs when any requested name is unknown.
type UnknownBinaryError struct {
	Names      []string // Missing names, in request order
	ConfigPath string
}

func (e *UnknownBinaryError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("binary %q not found in config %q", e.Names[0], e.ConfigPath)
	}
	return fmt.Sprintf("binaries %s not found in config %q", strings.Join(e.Names, ", "), e.ConfigPath)
}

// IsUnknownBinaryError checks if the error is or wraps an UnknownBinaryError
func IsUnknownBinaryError(err error) bool {
	var unknownErr *UnknownBinaryError
	return err != nil && errors.As(err, &unknownErr)
}

// BinaryLaunchError reports a binary that could not be started at all: a
// missing or non-executable path, or an OS-level launch failure. A launch
// failure aborts the suite; it is never summed as a test failure.
type BinaryLaunchError struct {
	Name string
	Path string
	Err  error
}

func (e *BinaryLaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s (%s): %v", e.Name, e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *BinaryLaunchError) Unwrap() error {
	return e.Err
}

// IsBinaryLaunchError checks if the error is or wraps a BinaryLaunchError
func IsBinaryLaunchError(err error) bool {
	var launchErr *BinaryLaunchError
	return err != nil && errors.As(err, &launchErr)
}
