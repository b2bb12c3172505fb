// Package utils holds small shared helpers.
package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// Default permissions for files and directories created by the CLI.
const (
	DefaultDirPerms  = 0o750
	DefaultFilePerms = 0o600
)

// ExpandPath expands a leading ~ and environment variables in a path.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}
