// Package gtest builds command-line invocations for Google Test binaries.
//
// The package owns the small argv contract this tool speaks: a positional
// executable path, an optional --gtest_filter exclusion expression, and an
// optional --gtest_output destination for XML results.
package gtest

import (
	"path/filepath"
	"strings"
)

// Invocation describes a single test binary launch: the resolved
// executable path and the arguments handed to it.
type Invocation struct {
	Name       string   // Binary name as listed in the configuration
	Path       string   // Resolved executable path (testsDir/name)
	Args       []string // Arguments, excluding the positional path
	ResultFile string   // XML result destination, empty in passthrough mode
}

// FilterArg returns the --gtest_filter argument excluding the given test
// identifiers, or an empty string when there is nothing to exclude. The
// leading "-" in the expression tells the binary to run everything except
// the listed tests, e.g. --gtest_filter=-Suite.A:Suite.B.
func FilterArg(excluded []string) string {
	if len(excluded) == 0 {
		return ""
	}
	return "--gtest_filter=-" + strings.Join(excluded, ":")
}

// BinaryPath returns the executable path for a binary inside testsDir.
func BinaryPath(testsDir, name string) string {
	return filepath.Join(testsDir, name)
}

// ResultFile returns the XML result path for a binary inside outputDir.
func ResultFile(outputDir, name string) string {
	return filepath.Join(outputDir, "results_"+name+".xml")
}

// OutputArg returns the --gtest_output argument requesting XML results
// under outputDir, or an empty string when no output directory is set.
func OutputArg(outputDir, name string) string {
	if outputDir == "" {
		return ""
	}
	return "--gtest_output=xml:" + ResultFile(outputDir, name)
}

// NewInvocation assembles the invocation for one binary. Arguments that do
// not apply are omitted entirely rather than passed as empty strings.
func NewInvocation(testsDir, name string, excluded []string, outputDir string) Invocation {
	inv := Invocation{
		Name: name,
		Path: BinaryPath(testsDir, name),
	}
	if filter := FilterArg(excluded); filter != "" {
		inv.Args = append(inv.Args, filter)
	}
	if output := OutputArg(outputDir, name); output != "" {
		inv.Args = append(inv.Args, output)
		inv.ResultFile = ResultFile(outputDir, name)
	}
	return inv
}

// CommandLine returns the full argv including the executable path.
func (inv Invocation) CommandLine() []string {
	return append([]string{inv.Path}, inv.Args...)
}
