//go:build darwin

package locate

import (
	"os"
	"path/filepath"
)

// candidatePaths lists the install locations checked after the PATH lookup
// fails. Homebrew on Apple Silicon lives under /opt/homebrew.
func candidatePaths(binary string) []string {
	paths := []string{
		filepath.Join("/opt/homebrew/bin", binary),
		filepath.Join("/usr/local/bin", binary),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append([]string{filepath.Join(home, ".local", "bin", binary)}, paths...)
	}
	return paths
}
