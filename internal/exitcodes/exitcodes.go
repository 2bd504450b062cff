// Package exitcodes defines the process exit code conventions of the tool.
package exitcodes

import (
	"errors"
	"fmt"
)

// Process exit codes
const (
	Success    = 0 // Command completed and every binary passed
	RuntimeErr = 2 // Usage, configuration, or launch error
)

// SuiteFailureError carries a non-zero suite result out of the run command
// so the process can exit with it. The suite code is the arithmetic sum of
// the per-binary exit codes, the historical aggregation rule of this tool.
type SuiteFailureError struct {
	Failed int // Number of binaries that exited non-zero
	Total  int // Number of binaries that ran
	Sum    int // Arithmetic sum of per-binary exit codes
}

func (e *SuiteFailureError) Error() string {
	return fmt.Sprintf("%d of %d binaries failed (exit code sum %d)", e.Failed, e.Total, e.Sum)
}

// IsSuiteFailure checks if the error is or wraps a SuiteFailureError
func IsSuiteFailure(err error) bool {
	var suiteErr *SuiteFailureError
	return err != nil && errors.As(err, &suiteErr)
}

// FromError maps an error returned by command execution to a process exit
// code. A SuiteFailureError passes its sum through unchanged; every other
// error is a runtime error. A nil error is success.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	var suiteErr *SuiteFailureError
	if errors.As(err, &suiteErr) {
		return suiteErr.Sum
	}
	return RuntimeErr
}
