package process

import (
	"bufio"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/chorushq/chorus/internal/protocol"
)

// outputBuffer absorbs bursts without blocking the reader goroutines.
const outputBuffer = 100

// signalKind selects which control signal to deliver; the OS-specific
// mapping lives in the signal_* files.
type signalKind int

const (
	sigTerminate signalKind = iota
	sigInterrupt
)

// OutputKind discriminates items on a Handle's output channel.
type OutputKind int

const (
	// OutputLine is one complete stdout line, parsed when it was valid JSON.
	OutputLine OutputKind = iota
	// OutputStderr is one stderr line.
	OutputStderr
	// OutputTrailing is an unterminated stdout fragment surfaced on close.
	OutputTrailing
	// OutputClosed reports process exit; always the final item.
	OutputClosed
)

// Output is one observation from a running agent process.
type Output struct {
	// Kind discriminates the remaining fields.
	Kind OutputKind
	// Raw is the stdout line (OutputLine) or fragment (OutputTrailing).
	Raw []byte
	// Event is the parsed protocol event for OutputLine, nil when the line
	// was not valid JSON.
	Event *protocol.Event
	// Text is the stderr line for OutputStderr.
	Text string
	// Err is the exit error for OutputClosed, nil on a clean exit.
	Err error
}

// Handle owns one running agent process. Its output channel delivers stdout
// lines, stderr lines, and finally a close notification, in stream order.
type Handle struct {
	cmd     *exec.Cmd
	out     chan Output
	readers sync.WaitGroup
	mu      sync.Mutex
}

// Output returns the observation stream for this process. The channel is
// closed after the OutputClosed item.
func (h *Handle) Output() <-chan Output {
	return h.out
}

// Terminate sends the graceful-termination signal. Returns whether a signal
// was actually delivered; false once the process is already gone. Never
// waits for exit.
func (h *Handle) Terminate() bool {
	return h.signal(sigTerminate)
}

// Interrupt sends the interrupt signal, a weaker nudge than Terminate.
func (h *Handle) Interrupt() bool {
	return h.signal(sigInterrupt)
}

// PID returns the operating system process ID, or 0 before start.
func (h *Handle) PID() int {
	if h.cmd != nil && h.cmd.Process != nil {
		return h.cmd.Process.Pid
	}
	return 0
}

func (h *Handle) signal(sig signalKind) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd == nil || h.cmd.Process == nil {
		return false
	}
	return sendSignal(h.cmd.Process, sig) == nil
}

// readStdout feeds stdout chunks through the protocol decoder and emits one
// Output per complete line, then the trailing fragment if the stream closed
// mid-line.
func (h *Handle) readStdout(r io.Reader) {
	defer h.readers.Done()

	dec := protocol.NewDecoder()
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, line := range dec.Feed(buf[:n]) {
				h.out <- Output{Kind: OutputLine, Raw: line.Raw, Event: line.Event}
			}
		}
		if err != nil {
			break
		}
	}
	if rest := dec.Rest(); rest != nil {
		h.out <- Output{Kind: OutputTrailing, Raw: rest}
	}
}

// readStderr emits stderr lines as they arrive so startup failures surface
// immediately.
func (h *Handle) readStderr(r io.Reader) {
	defer h.readers.Done()

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 16*1024)
	scanner.Buffer(buf, 256*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		h.out <- Output{Kind: OutputStderr, Text: line}
	}
}

// wait reaps the process after both pipe readers drain, then emits the final
// OutputClosed item and closes the channel.
func (h *Handle) wait() {
	h.readers.Wait()
	err := h.cmd.Wait()
	h.out <- Output{Kind: OutputClosed, Err: err}
	close(h.out)
}
