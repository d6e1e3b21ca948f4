package process

import (
	"os/exec"
	"testing"
	"time"
)

// collect drains the output channel until it closes or the deadline passes.
func collect(t *testing.T, h *Handle, deadline time.Duration) []Output {
	t.Helper()
	var items []Output
	timeout := time.After(deadline)
	for {
		select {
		case o, ok := <-h.Output():
			if !ok {
				return items
			}
			items = append(items, o)
		case <-timeout:
			t.Fatalf("timed out draining process output after %v", deadline)
		}
	}
}

// requireTool skips the test when the helper binary is not installed.
func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestHandle_EchoRoundTrip(t *testing.T) {
	requireTool(t, "echo")

	l := &Launcher{Binary: "echo"}
	h, err := l.Spawn("hello from the test")
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	if h.PID() == 0 {
		t.Error("PID should be non-zero after start")
	}

	items := collect(t, h, 5*time.Second)
	if len(items) == 0 {
		t.Fatal("no output observed")
	}

	last := items[len(items)-1]
	if last.Kind != OutputClosed {
		t.Errorf("final item kind = %d, want OutputClosed", last.Kind)
	}
	if last.Err != nil {
		t.Errorf("clean exit should have nil error, got %v", last.Err)
	}

	var lines int
	for _, item := range items {
		if item.Kind == OutputLine {
			lines++
			if string(item.Raw) == "" {
				t.Error("OutputLine with empty raw content")
			}
			// echo is not a JSON speaker; the line must still surface raw.
			if item.Event != nil {
				t.Errorf("echo output unexpectedly parsed as JSON: %q", item.Raw)
			}
		}
	}
	if lines != 1 {
		t.Errorf("got %d stdout lines, want 1", lines)
	}
}

func TestHandle_StderrSurfaces(t *testing.T) {
	requireTool(t, "sh")

	// sh rejects the agent flags immediately, exercising the stderr path and
	// a non-zero exit.
	l := &Launcher{Binary: "sh"}
	h, err := l.Spawn("ignored")
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	items := collect(t, h, 5*time.Second)

	var stderrSeen bool
	for _, item := range items {
		if item.Kind == OutputStderr && item.Text != "" {
			stderrSeen = true
		}
		if item.Kind == OutputLine {
			t.Errorf("unexpected stdout line: %q", item.Raw)
		}
	}
	if !stderrSeen {
		t.Error("expected at least one stderr line")
	}

	last := items[len(items)-1]
	if last.Kind != OutputClosed || last.Err == nil {
		t.Errorf("final item = %+v, want OutputClosed with non-nil error", last)
	}
}

func TestHandle_TerminateRunningProcess(t *testing.T) {
	requireTool(t, "yes")

	// yes repeats its arguments forever, giving a long-lived child.
	l := &Launcher{Binary: "yes"}
	h, err := l.Spawn("keep going")
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	// Wait for the first line so the process is definitely alive.
	timeout := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case o, ok := <-h.Output():
			if !ok {
				t.Fatal("output closed before any line arrived")
			}
			if o.Kind == OutputLine {
				seen = true
			}
		case <-timeout:
			t.Fatal("timed out waiting for first line")
		}
	}

	if !h.Terminate() {
		t.Error("Terminate on a live process should return true")
	}

	items := collect(t, h, 5*time.Second)
	if len(items) == 0 {
		t.Fatal("no items after terminate")
	}
	last := items[len(items)-1]
	if last.Kind != OutputClosed {
		t.Errorf("final item kind = %d, want OutputClosed", last.Kind)
	}
	if last.Err == nil {
		t.Error("terminated process should report a non-nil exit error")
	}

	// The process is gone; further signals report false.
	if h.Terminate() {
		t.Error("Terminate after exit should return false")
	}
	if h.Interrupt() {
		t.Error("Interrupt after exit should return false")
	}
}

func TestHandle_TerminateAfterCleanExit(t *testing.T) {
	requireTool(t, "echo")

	l := &Launcher{Binary: "echo"}
	h, err := l.Spawn("done")
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	collect(t, h, 5*time.Second)

	if h.Terminate() {
		t.Error("Terminate after exit should return false")
	}
}
