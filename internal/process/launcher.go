// Package process spawns and controls headless agent CLI processes.
package process

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// APIKeyEnv is the environment variable the agent CLI reads its key from.
const APIKeyEnv = "CURSOR_API_KEY"

// Launcher builds and starts agent processes with a fixed invocation policy.
// The zero value is unusable; Binary must point at the agent executable.
type Launcher struct {
	// Binary is the resolved path to the agent executable.
	Binary string
	// APIKey, when set, is exported to the process environment.
	APIKey string
	// Dir, when set, pins the working directory of spawned processes.
	Dir string
	// Model, when set, is forwarded to the agent CLI.
	Model string
}

// BuildArgs assembles the CLI arguments for one invocation: non-interactive
// mode, streaming JSON output, auto-approved file edits, and the prompt as
// the final positional argument.
func (l *Launcher) BuildArgs(prompt string) []string {
	args := []string{
		"--print",
		"--output-format", "stream-json",
		"--force",
	}
	if l.Model != "" {
		args = append(args, "--model", l.Model)
	}
	return append(args, prompt)
}

// Spawn starts one agent process for the prompt and begins streaming its
// output. It never blocks on the child; all observation happens through the
// returned handle's Output channel.
func (l *Launcher) Spawn(prompt string) (*Handle, error) {
	if l.Binary == "" {
		return nil, fmt.Errorf("launcher has no agent binary configured")
	}

	cmd := exec.Command(l.Binary, l.BuildArgs(prompt)...)
	if l.Dir != "" {
		cmd.Dir = l.Dir
	}
	if l.APIKey != "" {
		cmd.Env = append(os.Environ(), APIKeyEnv+"="+l.APIKey)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start agent process: %w", err)
	}

	h := &Handle{
		cmd: cmd,
		out: make(chan Output, outputBuffer),
	}
	h.readers.Add(2)
	go h.readStdout(stdout)
	go h.readStderr(stderr)
	go h.wait()

	return h, nil
}

// Respawn terminates the old process and spawns a replacement whose prompt
// carries the accumulated output forward as context.
func (l *Launcher) Respawn(old *Handle, accumulated, prompt string) (*Handle, error) {
	if old != nil {
		old.Terminate()
	}
	return l.Spawn(FollowUpPrompt(accumulated, prompt))
}

// FollowUpPrompt embeds an agent's accumulated output as conversational
// context ahead of the new instruction. The agent CLI has no native
// multi-turn session support; every follow-up is a fresh process handed its
// own history.
func FollowUpPrompt(accumulated, prompt string) string {
	if strings.TrimSpace(accumulated) == "" {
		return prompt
	}
	return "Previous agent output:\n\n" + accumulated + "\n\n---\n\nNew request: " + prompt
}
