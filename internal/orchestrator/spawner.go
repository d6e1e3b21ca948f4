package orchestrator

import (
	"github.com/chorushq/chorus/internal/process"
)

// AgentProcess is one live agent child process as the orchestrator sees it.
// *process.Handle is the production implementation.
type AgentProcess interface {
	// Output delivers the process's parsed output stream. The channel is
	// closed after the terminal Closed item.
	Output() <-chan process.Output
	// Terminate asks the process to exit. Returns false if it is already
	// gone.
	Terminate() bool
	// Interrupt nudges the process to pause. Returns false if it is
	// already gone.
	Interrupt() bool
	// PID returns the operating system process ID, or 0 if unknown.
	PID() int
}

// Spawner starts agent processes. *process.Launcher backs the production
// implementation; tests substitute fakes.
type Spawner interface {
	// Spawn starts a fresh process for the prompt.
	Spawn(prompt string) (AgentProcess, error)
	// Respawn terminates old and starts a replacement whose prompt embeds
	// the accumulated output as context.
	Respawn(old AgentProcess, accumulated, prompt string) (AgentProcess, error)
}

// launcherSpawner adapts process.Launcher to the Spawner interface.
type launcherSpawner struct {
	launcher *process.Launcher
}

func (s launcherSpawner) Spawn(prompt string) (AgentProcess, error) {
	handle, err := s.launcher.Spawn(prompt)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

func (s launcherSpawner) Respawn(old AgentProcess, accumulated, prompt string) (AgentProcess, error) {
	if old != nil {
		old.Terminate()
	}
	return s.Spawn(process.FollowUpPrompt(accumulated, prompt))
}
