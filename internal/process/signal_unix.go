//go:build unix

package process

import (
	"os"
	"syscall"
)

// sendSignal delivers the control signal to a live process. Terminate maps to
// SIGTERM, interrupt to SIGINT.
func sendSignal(p *os.Process, sig signalKind) error {
	switch sig {
	case sigInterrupt:
		return p.Signal(syscall.SIGINT)
	default:
		return p.Signal(syscall.SIGTERM)
	}
}
