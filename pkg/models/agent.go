package models

import "time"

// AgentStatus represents the current state of an agent.
type AgentStatus string

const (
	// AgentStatusIdle indicates the agent exists but has no active work.
	// Not entered in steady operation; reserved for a future paused mode.
	AgentStatusIdle AgentStatus = "idle"
	// AgentStatusListening indicates the agent was interrupted and is
	// waiting for new input.
	AgentStatusListening AgentStatus = "listening"
	// AgentStatusWorking indicates the agent process is actively running.
	AgentStatusWorking AgentStatus = "working"
	// AgentStatusReporting indicates the agent finished and produced a result.
	AgentStatusReporting AgentStatus = "reporting"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusIdle, AgentStatusListening, AgentStatusWorking, AgentStatusReporting:
		return true
	default:
		return false
	}
}

// Agent is a point-in-time snapshot of one orchestrated agent process.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// Status is the current state of the agent.
	Status AgentStatus `json:"status"`
	// Model is the model identifier reported by the agent process, if any.
	Model string `json:"model,omitempty"`
	// Output is the accumulated caption text across all respawns.
	Output string `json:"output"`
	// ModifiedFiles lists file paths the agent reported writing, deduplicated
	// in first-seen order.
	ModifiedFiles []string `json:"modified_files,omitempty"`
	// ReadFiles lists file paths the agent reported reading, deduplicated
	// in first-seen order.
	ReadFiles []string `json:"read_files,omitempty"`
	// PID is the process ID of the currently attached process, 0 if none.
	PID int `json:"pid,omitempty"`
	// StartedAt is when the agent was first spawned.
	StartedAt time.Time `json:"started_at"`
	// Respawns counts how many follow-up processes replaced the original.
	Respawns int `json:"respawns"`
	// LastDuration is the duration reported by the most recent result event.
	LastDuration time.Duration `json:"last_duration,omitempty"`
}
