package orchestrator

import (
	"github.com/chorushq/chorus/pkg/models"
)

// Agents returns snapshots of all live agents in spawn order.
func (o *Orchestrator) Agents() []models.Agent {
	o.mu.Lock()
	defer o.mu.Unlock()

	agents := make([]models.Agent, 0, len(o.order))
	for _, id := range o.order {
		if a, ok := o.agents[id]; ok {
			agents = append(agents, o.snapshotLocked(a))
		}
	}
	return agents
}

// Agent returns a snapshot of one agent. The second return is false for
// unknown IDs.
func (o *Orchestrator) Agent(id string) (models.Agent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.agents[id]
	if !ok {
		return models.Agent{}, false
	}
	return o.snapshotLocked(a), true
}

// AgentCount returns the number of live agents.
func (o *Orchestrator) AgentCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.agents)
}

// ModifiedFiles returns the files the agent has written, in first-touch
// order with duplicates removed. The second return is false for unknown
// IDs.
func (o *Orchestrator) ModifiedFiles(id string) ([]string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.agents[id]
	if !ok {
		return nil, false
	}
	return copyStrings(a.modifiedFiles), true
}

// ReadFiles returns the files the agent has read, in first-touch order with
// duplicates removed. The second return is false for unknown IDs.
func (o *Orchestrator) ReadFiles(id string) ([]string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, ok := o.agents[id]
	if !ok {
		return nil, false
	}
	return copyStrings(a.readFiles), true
}

// CurrentlySpeaking returns the ID of the agent holding the speaking slot,
// or the empty string when the slot is free.
func (o *Orchestrator) CurrentlySpeaking() string {
	return o.speaking.Current()
}

// SpeakingQueue returns the IDs of agents waiting to speak, in queue order.
// The currently speaking agent is not included.
func (o *Orchestrator) SpeakingQueue() []string {
	return o.speaking.Queued()
}

// snapshotLocked copies an agent's state into the exported model. Caller
// holds the lock.
func (o *Orchestrator) snapshotLocked(a *agentInstance) models.Agent {
	pid := 0
	if a.proc != nil {
		pid = a.proc.PID()
	}
	return models.Agent{
		ID:            a.id,
		Status:        a.status,
		Model:         a.model,
		Output:        a.output.String(),
		ModifiedFiles: copyStrings(a.modifiedFiles),
		ReadFiles:     copyStrings(a.readFiles),
		PID:           pid,
		StartedAt:     a.startedAt,
		Respawns:      a.respawns,
		LastDuration:  a.lastDuration,
	}
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
