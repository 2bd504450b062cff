package registry

import (
	"errors"
	"fmt"
)

// ConfigParseError reports a configuration document that could not be
// parsed: an unreadable file, invalid YAML, or a missing or malformed
// top-level tests sequence.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("failed to parse config %s: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *ConfigParseError) Unwrap() error {
	return e.Err
}

// IsConfigParseError checks if the error is or wraps a ConfigParseError
func IsConfigParseError(err error) bool {
	var parseErr *ConfigParseError
	return err != nil && errors.As(err, &parseErr)
}

// ConfigFormatError reports a tests entry whose shape is not recognized.
type ConfigFormatError struct {
	Path   string
	Entry  int // zero-based index in the tests sequence
	Reason string
}

func (e *ConfigFormatError) Error() string {
	return fmt.Sprintf("config %s: tests entry %d: %s", e.Path, e.Entry, e.Reason)
}

// IsConfigFormatError checks if the error is or wraps a ConfigFormatError
func IsConfigFormatError(err error) bool {
	var formatErr *ConfigFormatError
	return err != nil && errors.As(err, &formatErr)
}
