// Package orchestrator manages the fleet of headless agent processes: it
// spawns them, routes their event streams to registered callbacks, tracks
// their status and file activity, and arbitrates which agent may speak.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chorushq/chorus/internal/locate"
	"github.com/chorushq/chorus/internal/process"
	"github.com/chorushq/chorus/internal/speech"
	"github.com/chorushq/chorus/pkg/models"
)

// agentInstance is the registry's mutable record of one live agent. All
// fields are guarded by the orchestrator's mutex.
type agentInstance struct {
	id     string
	status models.AgentStatus
	model  string
	output strings.Builder

	modifiedFiles []string
	modifiedSeen  map[string]bool
	readFiles     []string
	readSeen      map[string]bool

	// proc is the agent's current process. Follow-ups replace it and bump
	// gen; routers for older generations drop their remaining events.
	proc AgentProcess
	gen  int

	// spawner is the launcher this agent was spawned with; follow-ups
	// reuse it so a replacement runs in the same directory.
	spawner Spawner

	// sawOutput records whether the current process has produced any
	// stdout at all. Checked by the watchdog and at process close.
	sawOutput bool
	watchdog  *time.Timer

	startedAt    time.Time
	respawns     int
	lastDuration time.Duration

	// speakText is the line queued for vocalization, set when the agent
	// reports a result and optionally refined by the summarizer.
	speakText string
}

// Orchestrator owns the agent registry, process lifecycles, and the
// speaking queue. All exported methods are safe for concurrent use.
type Orchestrator struct {
	cfg        Config
	cb         Callbacks
	resolver   *locate.Resolver
	store      Store
	summarizer Summarizer
	logger     *DebugLogger

	mu       sync.Mutex
	agents   map[string]*agentInstance
	order    []string
	spawner  Spawner
	spawners map[string]Spawner
	disposed bool

	speaking *speech.Queue

	// ctx bounds background work such as summarizer calls; Dispose
	// cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an Orchestrator from explicit configuration. Options attach
// the callback surface and optional collaborators; a zero Config is valid
// and resolves the default agent binary lazily on first spawn.
func New(cfg Config, opts ...Option) *Orchestrator {
	options := &orchestratorOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if cfg.WatchdogTimeout <= 0 {
		cfg.WatchdogTimeout = DefaultWatchdogTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:        cfg,
		cb:         options.callbacks,
		resolver:   options.resolver,
		store:      options.store,
		summarizer: options.summarizer,
		logger:     options.logger,
		agents:     make(map[string]*agentInstance),
		spawner:    options.spawner,
		spawners:   make(map[string]Spawner),
		ctx:        ctx,
		cancel:     cancel,
	}
	if o.resolver == nil {
		o.resolver = locate.NewResolver(cfg.BinaryName, cfg.BinaryPath)
	}
	o.speaking = speech.NewQueue(func(entry speech.Entry) {
		o.logger.Log("agent %s starts speaking", entry.AgentID)
		o.cb.startSpeaking(entry.AgentID, entry.Text)
	})
	return o
}

// SpawnAgent launches a new agent for the prompt and returns its ID without
// waiting for the process to produce output. The process's events arrive
// asynchronously through the registered callbacks. Spawn failures are
// returned and also reported through OnError with an empty agent ID.
func (o *Orchestrator) SpawnAgent(prompt string) (string, error) {
	return o.SpawnAgentIn("", prompt)
}

// SpawnAgentIn is SpawnAgent with an explicit working directory, overriding
// the configured one. An empty dir uses the default.
func (o *Orchestrator) SpawnAgentIn(dir, prompt string) (string, error) {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return "", fmt.Errorf("orchestrator is disposed")
	}
	o.mu.Unlock()

	spawner, err := o.ensureSpawner(dir)
	if err != nil {
		o.cb.error("", err.Error())
		return "", err
	}

	proc, err := spawner.Spawn(prompt)
	if err != nil {
		err = fmt.Errorf("spawn agent: %w", err)
		o.cb.error("", err.Error())
		return "", err
	}

	a := &agentInstance{
		id:           newAgentID(),
		status:       models.AgentStatusWorking,
		modifiedSeen: make(map[string]bool),
		readSeen:     make(map[string]bool),
		proc:         proc,
		gen:          1,
		spawner:      spawner,
		startedAt:    time.Now(),
	}

	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		proc.Terminate()
		return "", fmt.Errorf("orchestrator is disposed")
	}
	o.agents[a.id] = a
	o.order = append(o.order, a.id)
	o.startWatchdogLocked(a)
	o.mu.Unlock()

	// Session row and initial status land before the router starts so
	// stream events never outrun them. Output produced meanwhile sits in
	// the process's buffer.
	o.recordStore(func(s Store) error { return s.CreateSession(a.id, prompt, a.startedAt) })
	o.logger.Log("spawned agent %s (pid %d)", a.id, proc.PID())
	o.cb.statusChange(a.id, models.AgentStatusWorking)

	go o.routeEvents(a, proc, 1)
	return a.id, nil
}

// DismissAgent terminates the agent's process and removes every trace of
// it: the registry entry, any speaking-queue position, and the speaking
// slot itself if the agent held it. The freed slot stays empty until the
// next FinishSpeaking or QueueToSpeak. Returns false for unknown IDs, which
// makes a second dismissal of the same agent return false.
func (o *Orchestrator) DismissAgent(id string) bool {
	o.mu.Lock()
	a, ok := o.agents[id]
	if !ok {
		o.mu.Unlock()
		return false
	}
	delete(o.agents, id)
	o.removeFromOrderLocked(id)
	o.stopWatchdogLocked(a)
	proc := a.proc
	o.mu.Unlock()

	if proc != nil {
		proc.Terminate()
	}
	o.speaking.Remove(id)

	o.recordStore(func(s Store) error { return s.MarkDismissed(id) })
	o.logger.Log("dismissed agent %s", id)
	return true
}

// InterruptAgent signals a working agent to pause and listen. The agent's
// status moves to listening and the change is reported. Returns false for
// unknown IDs and for agents that are not currently working.
func (o *Orchestrator) InterruptAgent(id string) bool {
	o.mu.Lock()
	a, ok := o.agents[id]
	if !ok || a.status != models.AgentStatusWorking {
		o.mu.Unlock()
		return false
	}
	a.status = models.AgentStatusListening
	proc := a.proc
	o.mu.Unlock()

	if proc != nil {
		proc.Interrupt()
	}
	o.cb.statusChange(id, models.AgentStatusListening)
	o.logger.Log("interrupted agent %s", id)
	return true
}

// SendFollowUp replaces the agent's process with a fresh one whose prompt
// embeds the accumulated output as previous context. The agent keeps its
// identity, accumulated output, and file lists, and the registered
// callbacks keep firing for the replacement process. Returns false for
// unknown IDs or when the replacement cannot be started.
func (o *Orchestrator) SendFollowUp(id, prompt string) bool {
	o.mu.Lock()
	a, ok := o.agents[id]
	if !ok {
		o.mu.Unlock()
		return false
	}
	old := a.proc
	accumulated := a.output.String()
	spawner := a.spawner
	// Retire the old process's router before terminating it so its
	// remaining events, including the close, are dropped.
	a.gen++
	gen := a.gen
	o.stopWatchdogLocked(a)
	o.mu.Unlock()

	proc, err := spawner.Respawn(old, accumulated, prompt)
	if err != nil {
		o.cb.error(id, fmt.Sprintf("follow-up spawn: %v", err))
		return false
	}

	o.mu.Lock()
	if o.agents[id] != a {
		// Dismissed while the replacement was starting.
		o.mu.Unlock()
		proc.Terminate()
		return false
	}
	a.proc = proc
	a.sawOutput = false
	changed := a.status != models.AgentStatusWorking
	a.status = models.AgentStatusWorking
	a.respawns++
	a.speakText = ""
	o.startWatchdogLocked(a)
	o.mu.Unlock()

	if changed {
		o.cb.statusChange(id, models.AgentStatusWorking)
	}
	o.recordStore(func(s Store) error { return s.RecordFollowUp(id, prompt) })
	o.logger.Log("follow-up for agent %s (gen %d, pid %d)", id, gen, proc.PID())

	go o.routeEvents(a, proc, gen)
	return true
}

// QueueToSpeak adds the agent to the speaking queue with its current speak
// text. Idempotent while the agent is queued or speaking. Returns false for
// unknown IDs.
func (o *Orchestrator) QueueToSpeak(id string) bool {
	text, ok := o.speakTextFor(id)
	if !ok {
		return false
	}
	o.speaking.Enqueue(id, text)
	return true
}

// AllowToSpeak moves the agent to the head of the speaking queue, starting
// it immediately when the slot is free. Returns false for unknown IDs.
func (o *Orchestrator) AllowToSpeak(id string) bool {
	text, ok := o.speakTextFor(id)
	if !ok {
		return false
	}
	o.speaking.Promote(id, text)
	return true
}

// FinishSpeaking clears the speaking slot and promotes the next queued
// agent. Driven by the caller when playback of the current line ends.
// Idempotent when nothing is speaking.
func (o *Orchestrator) FinishSpeaking() {
	o.speaking.Finish()
}

// Dispose terminates every live process and clears all state. Pending
// events from the torn-down processes are dropped. Safe to call more than
// once.
func (o *Orchestrator) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	procs := make([]AgentProcess, 0, len(o.agents))
	for _, a := range o.agents {
		o.stopWatchdogLocked(a)
		if a.proc != nil {
			procs = append(procs, a.proc)
		}
	}
	o.agents = make(map[string]*agentInstance)
	o.order = nil
	o.mu.Unlock()

	o.cancel()
	for _, proc := range procs {
		proc.Terminate()
	}
	o.speaking.Reset()
	o.logger.Log("orchestrator disposed")
}

// ensureSpawner resolves the agent executable and builds the production
// launcher for the directory on first use. Tests inject a Spawner up front
// and skip resolution entirely.
func (o *Orchestrator) ensureSpawner(dir string) (Spawner, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.spawner != nil {
		return o.spawner, nil
	}
	if dir == "" {
		dir = o.cfg.WorkDir
	}
	if s, ok := o.spawners[dir]; ok {
		return s, nil
	}

	path, err := o.resolver.Resolve()
	if err != nil {
		return nil, err
	}
	s := launcherSpawner{launcher: &process.Launcher{
		Binary: path,
		APIKey: o.cfg.APIKey,
		Dir:    dir,
		Model:  o.cfg.Model,
	}}
	o.spawners[dir] = s
	return s, nil
}

// speakTextFor returns the line the agent should vocalize, falling back to
// a tail of its accumulated output when no result has been reported yet.
func (o *Orchestrator) speakTextFor(id string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.agents[id]
	if !ok {
		return "", false
	}
	if a.speakText != "" {
		return a.speakText, true
	}
	return SpeakText(a.output.String()), true
}

// recordStore applies a best-effort store write, logging failures instead
// of surfacing them.
func (o *Orchestrator) recordStore(fn func(Store) error) {
	if o.store == nil {
		return
	}
	if err := fn(o.store); err != nil {
		o.logger.Log("store write failed: %v", err)
	}
}

func (o *Orchestrator) removeFromOrderLocked(id string) {
	for i, existing := range o.order {
		if existing == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			return
		}
	}
}

// newAgentID returns a unique agent identifier. The timestamp keeps IDs
// sortable in logs; the random suffix guards against collisions.
func newAgentID() string {
	return fmt.Sprintf("agent-%s-%s", time.Now().Format("20060102-150405"), uuid.New().String()[:8])
}
