package cmd

import (
	"fmt"
	"os"
	"path/filepath"
)

// resolveFile absolutizes path and verifies it names an existing regular
// file. The error message carries the absolute path.
func resolveFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("file '%s' doesn't exist", abs)
	}
	return abs, nil
}

// resolveDir absolutizes path and verifies it names an existing directory.
// Directories are never created on the caller's behalf.
func resolveDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("directory '%s' doesn't exist", abs)
	}
	return abs, nil
}
