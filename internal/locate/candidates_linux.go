//go:build linux

package locate

import (
	"os"
	"path/filepath"
)

// candidatePaths lists the install locations checked after the PATH lookup
// fails. The agent CLI's installer drops the binary into ~/.local/bin.
func candidatePaths(binary string) []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{
			filepath.Join("/usr/local/bin", binary),
			filepath.Join("/usr/bin", binary),
		}
	}
	return []string{
		filepath.Join(home, ".local", "bin", binary),
		filepath.Join(home, "bin", binary),
		filepath.Join("/usr/local/bin", binary),
		filepath.Join("/usr/bin", binary),
	}
}
