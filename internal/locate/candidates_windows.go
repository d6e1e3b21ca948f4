//go:build windows

package locate

import (
	"os"
	"path/filepath"
)

// candidatePaths lists the install locations checked after the PATH lookup
// fails.
func candidatePaths(binary string) []string {
	exe := binary + ".exe"
	var paths []string
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		paths = append(paths, filepath.Join(local, "Programs", binary, exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".local", "bin", exe))
	}
	return paths
}
