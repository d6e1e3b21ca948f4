package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chorushq/chorus/internal/locate"
	"github.com/chorushq/chorus/internal/process"
	"github.com/chorushq/chorus/internal/protocol"
	"github.com/chorushq/chorus/pkg/models"
)

// summarizeTimeout bounds one summarizer call.
const summarizeTimeout = 20 * time.Second

// routeEvents consumes one process's output stream and applies each item to
// the agent until the channel closes. One router goroutine exists per
// process generation; this is what keeps a single agent's events ordered.
func (o *Orchestrator) routeEvents(a *agentInstance, proc AgentProcess, gen int) {
	for item := range proc.Output() {
		o.handleOutput(a, gen, item)
	}
}

// handleOutput applies one output item to the agent. Items from replaced or
// dismissed processes are dropped: the agent must still be registered as
// the same instance and the generation must match. State changes happen
// under the lock; callbacks, queue operations, and store writes fire after
// it is released.
func (o *Orchestrator) handleOutput(a *agentInstance, gen int, item process.Output) {
	o.mu.Lock()
	if o.agents[a.id] != a || a.gen != gen {
		o.mu.Unlock()
		return
	}

	switch item.Kind {
	case process.OutputLine:
		a.sawOutput = true
		o.stopWatchdogLocked(a)
		o.dispatchLineLocked(a, item)
	case process.OutputTrailing:
		a.sawOutput = true
		o.mu.Unlock()
		o.cb.rawOutput(a.id, string(item.Raw))
		o.logger.Log("agent %s: %d trailing bytes without newline at close", a.id, len(item.Raw))
	case process.OutputStderr:
		o.mu.Unlock()
		o.cb.error(a.id, item.Text)
	case process.OutputClosed:
		o.stopWatchdogLocked(a)
		silent := !a.sawOutput
		o.mu.Unlock()
		if silent {
			o.cb.error(a.id, fmt.Sprintf(
				"agent process exited without producing any output; the %s binary may be missing, outdated, or misconfigured",
				o.binaryName()))
		} else if item.Err != nil {
			o.cb.error(a.id, fmt.Sprintf("agent process exited: %v", item.Err))
		}
		o.cb.processExit(a.id, item.Err)
		o.logger.Log("agent %s process closed (gen %d, err %v)", a.id, gen, item.Err)
	default:
		o.mu.Unlock()
	}
}

// dispatchLineLocked routes one parsed stdout line. Called with the lock
// held; releases it before invoking callbacks.
func (o *Orchestrator) dispatchLineLocked(a *agentInstance, item process.Output) {
	id := a.id
	raw := string(item.Raw)
	ev := item.Event

	if ev == nil {
		o.mu.Unlock()
		o.cb.rawOutput(id, raw)
		return
	}

	switch ev.Type {
	case protocol.EventSystem:
		if ev.Subtype != protocol.SubtypeInit || ev.Model == "" {
			o.mu.Unlock()
			o.cb.rawOutput(id, raw)
			return
		}
		a.model = ev.Model
		o.mu.Unlock()
		o.cb.rawOutput(id, raw)
		o.cb.modelInfo(id, ev.Model)
		o.recordStore(func(s Store) error { return s.RecordModel(id, ev.Model) })

	case protocol.EventAssistant:
		if ev.Text == "" {
			o.mu.Unlock()
			o.cb.rawOutput(id, raw)
			return
		}
		a.output.WriteString(ev.Text)
		o.mu.Unlock()
		o.cb.rawOutput(id, raw)
		o.cb.caption(id, ev.Text)
		o.recordStore(func(s Store) error { return s.AppendCaption(id, ev.Text) })

	case protocol.EventToolCall:
		if ev.Subtype != protocol.SubtypeStarted {
			o.mu.Unlock()
			o.cb.rawOutput(id, raw)
			return
		}
		changed := a.status != models.AgentStatusWorking
		a.status = models.AgentStatusWorking
		kind := ""
		switch {
		case ev.Path == "":
		case ev.ToolKind == protocol.ToolWrite:
			kind = "modified"
			if !a.modifiedSeen[ev.Path] {
				a.modifiedSeen[ev.Path] = true
				a.modifiedFiles = append(a.modifiedFiles, ev.Path)
			}
		case ev.ToolKind == protocol.ToolRead:
			kind = "read"
			if !a.readSeen[ev.Path] {
				a.readSeen[ev.Path] = true
				a.readFiles = append(a.readFiles, ev.Path)
			}
		}
		o.mu.Unlock()
		o.cb.rawOutput(id, raw)
		if changed {
			o.cb.statusChange(id, models.AgentStatusWorking)
		}
		o.cb.toolActivity(id, ev.Tool, ev.Path)
		if kind != "" {
			path := ev.Path
			o.recordStore(func(s Store) error { return s.RecordFileTouch(id, path, kind) })
		}

	case protocol.EventResult:
		duration := time.Duration(ev.DurationMs) * time.Millisecond
		a.status = models.AgentStatusReporting
		a.lastDuration = duration
		output := a.output.String()
		a.speakText = SpeakText(output)
		text := a.speakText
		o.mu.Unlock()
		o.cb.rawOutput(id, raw)
		o.cb.statusChange(id, models.AgentStatusReporting)
		o.cb.complete(id, duration)
		o.speaking.Enqueue(id, text)
		o.recordStore(func(s Store) error { return s.CompleteSession(id, duration) })
		if o.summarizer != nil {
			go o.refreshSpeakText(id, output)
		}
		o.logger.Log("agent %s completed in %s", id, duration)

	default:
		o.mu.Unlock()
		o.cb.rawOutput(id, raw)
	}
}

// refreshSpeakText asks the summarizer for a better spoken line and swaps
// it into the queue if the agent is still waiting for its turn.
func (o *Orchestrator) refreshSpeakText(id, output string) {
	ctx, cancel := context.WithTimeout(o.ctx, summarizeTimeout)
	defer cancel()

	text, err := o.summarizer.Summarize(ctx, output)
	if err != nil {
		o.logger.Log("summarize for agent %s failed: %v", id, err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	o.speaking.UpdateText(id, text)
	o.mu.Lock()
	if a, ok := o.agents[id]; ok {
		a.speakText = text
	}
	o.mu.Unlock()
}

// startWatchdogLocked arms the silence watchdog for the agent's current
// process generation. Caller holds the lock.
func (o *Orchestrator) startWatchdogLocked(a *agentInstance) {
	if a.watchdog != nil {
		a.watchdog.Stop()
	}
	gen := a.gen
	a.watchdog = time.AfterFunc(o.cfg.WatchdogTimeout, func() {
		o.watchdogFired(a, gen)
	})
}

// stopWatchdogLocked disarms the watchdog. Caller holds the lock.
func (o *Orchestrator) stopWatchdogLocked(a *agentInstance) {
	if a.watchdog != nil {
		a.watchdog.Stop()
		a.watchdog = nil
	}
}

// watchdogFired runs when the silence timer expires. The timer races with
// output arrival and process replacement, so it re-checks the live state
// under the lock before reporting anything.
func (o *Orchestrator) watchdogFired(a *agentInstance, gen int) {
	o.mu.Lock()
	stale := o.agents[a.id] != a || a.gen != gen || a.sawOutput
	timeout := o.cfg.WatchdogTimeout
	o.mu.Unlock()
	if stale {
		return
	}

	o.logger.Log("watchdog fired for agent %s after %s of silence", a.id, timeout)
	o.cb.error(a.id, fmt.Sprintf(
		"no output from agent after %s; check that %s is installed and up to date",
		timeout, o.binaryName()))
}

// binaryName returns the executable name used in user-facing diagnostics.
func (o *Orchestrator) binaryName() string {
	if o.cfg.BinaryName != "" {
		return o.cfg.BinaryName
	}
	return locate.DefaultBinary
}
