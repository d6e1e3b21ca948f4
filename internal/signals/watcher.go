// Package signals watches a drop directory for control files so external
// tools can drive the running orchestrator without an IPC channel.
package signals

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultPollInterval is how often the directory is rescanned. The scan
// runs even when fsnotify is active, in case the watcher missed an event.
const defaultPollInterval = 500 * time.Millisecond

// Action identifies the operation a signal file requests.
type Action int

const (
	ActionDismiss Action = iota
	ActionInterrupt
	ActionSay
	ActionShutdown
)

// Signal is one decoded control request. AgentID is empty for shutdown.
type Signal struct {
	Action  Action
	AgentID string
}

// Handler receives decoded signals. It is called from the watcher's
// goroutines; implementations should return quickly.
type Handler func(Signal)

// Option configures a Watcher.
type Option func(*Watcher)

// WithPollInterval overrides the rescan interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// Watcher monitors <workdir>/.chorus/signals and dispatches each signal
// file exactly once, removing it on consumption.
type Watcher struct {
	dir          string
	handler      Handler
	pollInterval time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// New creates the signals directory under workdir and starts watching it.
// Files already present are consumed immediately. If the fsnotify watcher
// cannot start, the polling scan carries the load alone.
func New(workdir string, handler Handler, opts ...Option) (*Watcher, error) {
	dir := Dir(workdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:          dir,
		handler:      handler,
		pollInterval: defaultPollInterval,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.scan()

	if fw, err := fsnotify.NewWatcher(); err == nil {
		if err := fw.Add(dir); err == nil {
			w.watcher = fw
			go w.watchEvents()
		} else {
			fw.Close()
		}
	}

	go w.poll()

	return w, nil
}

// Dir returns the signals directory for a working directory.
func Dir(workdir string) string {
	return filepath.Join(workdir, ".chorus", "signals")
}

// SignalDir returns the directory this watcher monitors.
func (w *Watcher) SignalDir() string {
	return w.dir
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() {
	w.once.Do(func() {
		close(w.done)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func (w *Watcher) watchEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.consume(event.Name)
			}
		case <-w.watcher.Errors:
			// Keep watching; the poll loop covers missed events.
		}
	}
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.consume(filepath.Join(w.dir, entry.Name()))
	}
}

// consume parses and dispatches one signal file. Whichever goroutine
// removes the file first dispatches; later sightings find it gone.
func (w *Watcher) consume(path string) {
	sig, ok := parseSignal(filepath.Base(path))
	if !ok {
		return
	}
	if err := os.Remove(path); err != nil {
		return
	}
	select {
	case <-w.done:
	default:
		w.handler(sig)
	}
}

// parseSignal maps a file name to its signal.
func parseSignal(name string) (Signal, bool) {
	if name == "shutdown" {
		return Signal{Action: ActionShutdown}, true
	}
	for prefix, action := range map[string]Action{
		"dismiss-":   ActionDismiss,
		"interrupt-": ActionInterrupt,
		"say-":       ActionSay,
	} {
		if id, ok := strings.CutPrefix(name, prefix); ok && id != "" {
			return Signal{Action: action, AgentID: id}, true
		}
	}
	return Signal{}, false
}

// Send drops a signal file for a watcher running against workdir.
func Send(workdir string, sig Signal) error {
	dir := Dir(workdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fileName(sig)), []byte(time.Now().Format(time.RFC3339)), 0644)
}

func fileName(sig Signal) string {
	switch sig.Action {
	case ActionDismiss:
		return "dismiss-" + sig.AgentID
	case ActionInterrupt:
		return "interrupt-" + sig.AgentID
	case ActionSay:
		return "say-" + sig.AgentID
	default:
		return "shutdown"
	}
}
