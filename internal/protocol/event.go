// Package protocol decodes the line-delimited JSON event stream that headless
// agent processes emit on stdout.
package protocol

import (
	"encoding/json"
	"fmt"
	"sort"
)

// EventType represents the type of a stream event from the agent CLI.
type EventType string

const (
	// EventSystem indicates a system message such as session init.
	EventSystem EventType = "system"
	// EventAssistant indicates an incremental assistant text delta.
	EventAssistant EventType = "assistant"
	// EventToolCall indicates a tool invocation notification.
	EventToolCall EventType = "tool_call"
	// EventResult indicates the final result of a run.
	EventResult EventType = "result"
)

// Subtypes consumed from the protocol.
const (
	// SubtypeInit marks the system event that announces the session model.
	SubtypeInit = "init"
	// SubtypeStarted marks the tool_call event emitted when a tool begins.
	SubtypeStarted = "started"
)

// ToolKind classifies the target of a tool_call event.
type ToolKind string

const (
	// ToolWrite is a tool call that writes a file.
	ToolWrite ToolKind = "write"
	// ToolRead is a tool call that reads a file.
	ToolRead ToolKind = "read"
	// ToolOther is any tool call without a recognized file target.
	ToolOther ToolKind = "other"
)

// Tool call variant keys carrying a file path in their args.
const (
	toolCallWrite = "writeToolCall"
	toolCallRead  = "readToolCall"
)

// Event represents a parsed line from the agent's stream-json output.
type Event struct {
	// Type is the event type.
	Type EventType `json:"type"`
	// Subtype refines the type ("init" for system, "started" for tool_call).
	Subtype string `json:"subtype,omitempty"`
	// Model is the model identifier carried by system/init events.
	Model string `json:"model,omitempty"`
	// Text is the incremental caption delta carried by assistant events.
	Text string `json:"text,omitempty"`
	// Tool is the key identifying the tool call variant (e.g. "writeToolCall").
	Tool string `json:"tool,omitempty"`
	// ToolKind classifies the tool call target.
	ToolKind ToolKind `json:"tool_kind,omitempty"`
	// Path is the target file path of write and read tool calls.
	Path string `json:"path,omitempty"`
	// DurationMs is the run duration reported by result events.
	DurationMs int64 `json:"duration_ms,omitempty"`
	// Raw contains the original JSON line for debugging.
	Raw json.RawMessage `json:"-"`
}

// ParseEvent parses a single JSON line into an Event. Events with an
// unrecognized type still parse; dispatch simply ignores them.
func ParseEvent(data []byte) (Event, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("unmarshal json: %w", err)
	}

	event := Event{Raw: data}
	if t, ok := raw["type"].(string); ok {
		event.Type = EventType(t)
	}
	if st, ok := raw["subtype"].(string); ok {
		event.Subtype = st
	}

	switch event.Type {
	case EventSystem:
		if model, ok := raw["model"].(string); ok {
			event.Model = model
		}
	case EventAssistant:
		event.Text = extractAssistantText(raw)
	case EventToolCall:
		event.Tool, event.ToolKind, event.Path = extractToolTarget(raw)
	case EventResult:
		if ms, ok := raw["duration_ms"].(float64); ok {
			event.DurationMs = int64(ms)
		}
	}

	return event, nil
}

// extractAssistantText pulls the text delta out of an assistant event.
// The protocol nests it as message.content[0].text.
func extractAssistantText(raw map[string]interface{}) string {
	msg, ok := raw["message"].(map[string]interface{})
	if !ok {
		return ""
	}
	content, ok := msg["content"].([]interface{})
	if !ok || len(content) == 0 {
		return ""
	}
	block, ok := content[0].(map[string]interface{})
	if !ok {
		return ""
	}
	text, _ := block["text"].(string)
	return text
}

// extractToolTarget identifies the tool call variant and its file path.
// Write and read variants carry the path under <variant>.args.path; any other
// variant is reported by its key alone so unknown tools still surface.
func extractToolTarget(raw map[string]interface{}) (string, ToolKind, string) {
	call, ok := raw["tool_call"].(map[string]interface{})
	if !ok || len(call) == 0 {
		return "", ToolOther, ""
	}

	if path := argsPath(call, toolCallWrite); path != "" {
		return toolCallWrite, ToolWrite, path
	}
	if path := argsPath(call, toolCallRead); path != "" {
		return toolCallRead, ToolRead, path
	}

	keys := make([]string, 0, len(call))
	for k := range call {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0], ToolOther, ""
}

// argsPath returns call[variant].args.path when present.
func argsPath(call map[string]interface{}, variant string) string {
	v, ok := call[variant].(map[string]interface{})
	if !ok {
		return ""
	}
	args, ok := v["args"].(map[string]interface{})
	if !ok {
		return ""
	}
	path, _ := args["path"].(string)
	return path
}
