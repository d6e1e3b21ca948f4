//go:build windows

package process

import "os"

// sendSignal delivers the control signal to a live process. Windows has no
// POSIX signal delivery, so both control paths fall back to Kill.
func sendSignal(p *os.Process, sig signalKind) error {
	return p.Kill()
}
