package orchestrator

import (
	"context"
	"time"

	"github.com/chorushq/chorus/internal/locate"
)

// DefaultWatchdogTimeout is how long a freshly started process may stay
// silent before the orchestrator reports it as unresponsive.
const DefaultWatchdogTimeout = 10 * time.Second

// Config carries the explicit settings for one Orchestrator instance.
// Environment and config-file lookup happen at the CLI boundary; nothing
// here is read from ambient state.
type Config struct {
	// BinaryPath points directly at the agent executable. When set it
	// bypasses PATH and well-known-location resolution.
	BinaryPath string
	// BinaryName is the executable searched for when BinaryPath is empty.
	// Defaults to locate.DefaultBinary.
	BinaryName string
	// APIKey is exported to agent processes when set.
	APIKey string
	// WorkDir pins the working directory of agent processes. Empty means
	// inherit the orchestrator's own working directory.
	WorkDir string
	// Model is forwarded to the agent CLI when set.
	Model string
	// WatchdogTimeout overrides DefaultWatchdogTimeout when positive.
	WatchdogTimeout time.Duration
}

// Store persists agent session history. Implemented by state.Store; all
// methods are best-effort from the orchestrator's point of view and
// failures are logged rather than surfaced.
type Store interface {
	CreateSession(id, prompt string, startedAt time.Time) error
	RecordModel(id, model string) error
	AppendCaption(id, delta string) error
	RecordFileTouch(id, path, kind string) error
	RecordFollowUp(id, prompt string) error
	CompleteSession(id string, duration time.Duration) error
	MarkDismissed(id string) error
}

// Summarizer condenses an agent's accumulated output into a short line
// suitable for speaking aloud.
type Summarizer interface {
	Summarize(ctx context.Context, output string) (string, error)
}

// Option configures optional orchestrator collaborators.
type Option func(*orchestratorOptions)

// orchestratorOptions holds optional dependencies resolved by New.
type orchestratorOptions struct {
	callbacks  Callbacks
	logger     *DebugLogger
	store      Store
	summarizer Summarizer
	spawner    Spawner
	resolver   *locate.Resolver
}

// WithCallbacks registers the notification surface.
func WithCallbacks(cb Callbacks) Option {
	return func(o *orchestratorOptions) {
		o.callbacks = cb
	}
}

// WithLogger sets a custom debug logger.
func WithLogger(logger *DebugLogger) Option {
	return func(o *orchestratorOptions) {
		o.logger = logger
	}
}

// WithStore enables session persistence.
func WithStore(store Store) Option {
	return func(o *orchestratorOptions) {
		o.store = store
	}
}

// WithSummarizer enables asynchronous refinement of speak text.
func WithSummarizer(s Summarizer) Option {
	return func(o *orchestratorOptions) {
		o.summarizer = s
	}
}

// WithSpawner sets a custom process spawner. Used by tests to substitute
// fake processes; production resolves a launcher from Config.
func WithSpawner(s Spawner) Option {
	return func(o *orchestratorOptions) {
		o.spawner = s
	}
}

// WithResolver sets a custom executable resolver.
func WithResolver(r *locate.Resolver) Option {
	return func(o *orchestratorOptions) {
		o.resolver = r
	}
}
