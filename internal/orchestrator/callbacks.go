package orchestrator

import (
	"time"

	"github.com/chorushq/chorus/pkg/models"
)

// Callbacks is the notification surface the orchestrator drives. Consumers
// register it once at construction; the orchestrator re-binds the same
// callbacks to every replacement process, so follow-ups never require
// re-subscription. Every field is optional and nil fields are skipped.
//
// Callbacks are invoked from the goroutine that reads the owning process's
// output, never while the orchestrator's internal lock is held. Events for a
// single agent arrive in order; events for different agents may interleave.
type Callbacks struct {
	// OnCaption receives each incremental text delta as the agent streams
	// its response. The delta is the new fragment only, not the accumulated
	// output.
	OnCaption func(agentID, delta string)

	// OnStatusChange fires whenever an agent transitions between statuses.
	OnStatusChange func(agentID string, status models.AgentStatus)

	// OnComplete fires when an agent finishes a run and reports how long
	// the run took.
	OnComplete func(agentID string, duration time.Duration)

	// OnStartSpeaking fires when an agent is promoted into the speaking
	// slot. The text is the line the agent should vocalize.
	OnStartSpeaking func(agentID, text string)

	// OnError receives failures: process stderr output, crashes, spawn
	// failures, and watchdog timeouts. The agentID is empty for failures
	// not tied to a live agent, such as a spawn that never started.
	OnError func(agentID, message string)

	// OnModelInfo reports the model identifier an agent process announces
	// during initialization.
	OnModelInfo func(agentID, model string)

	// OnToolActivity reports tool usage. The path is empty for tools that
	// do not target a file.
	OnToolActivity func(agentID, tool, path string)

	// OnRawOutput receives every raw stdout line before parsing, including
	// lines that are not valid protocol events. Intended for debugging.
	OnRawOutput func(agentID, line string)

	// OnProcessExit fires once when an agent's process closes its streams,
	// whatever the cause. Follow-ups retire the old process without firing
	// it; err is nil on a clean exit.
	OnProcessExit func(agentID string, err error)
}

func (c Callbacks) caption(agentID, delta string) {
	if c.OnCaption != nil {
		c.OnCaption(agentID, delta)
	}
}

func (c Callbacks) statusChange(agentID string, status models.AgentStatus) {
	if c.OnStatusChange != nil {
		c.OnStatusChange(agentID, status)
	}
}

func (c Callbacks) complete(agentID string, duration time.Duration) {
	if c.OnComplete != nil {
		c.OnComplete(agentID, duration)
	}
}

func (c Callbacks) startSpeaking(agentID, text string) {
	if c.OnStartSpeaking != nil {
		c.OnStartSpeaking(agentID, text)
	}
}

func (c Callbacks) error(agentID, message string) {
	if c.OnError != nil {
		c.OnError(agentID, message)
	}
}

func (c Callbacks) modelInfo(agentID, model string) {
	if c.OnModelInfo != nil {
		c.OnModelInfo(agentID, model)
	}
}

func (c Callbacks) toolActivity(agentID, tool, path string) {
	if c.OnToolActivity != nil {
		c.OnToolActivity(agentID, tool, path)
	}
}

func (c Callbacks) rawOutput(agentID, line string) {
	if c.OnRawOutput != nil {
		c.OnRawOutput(agentID, line)
	}
}

func (c Callbacks) processExit(agentID string, err error) {
	if c.OnProcessExit != nil {
		c.OnProcessExit(agentID, err)
	}
}
