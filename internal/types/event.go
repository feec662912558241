// internal/types/event.go
package types

import "encoding/json"

// EventType discriminates the stream event variants emitted during a run.
type EventType string

const (
	EventCreated   EventType = "response.created"
	EventTextDelta EventType = "response.output_text.delta"
	EventTextDone  EventType = "response.output_text.done"
	EventToolCall  EventType = "response.tool_call"
	EventCompleted EventType = "response.completed"
	EventError     EventType = "response.error"
	EventCancelled EventType = "response.cancelled"
)

// StreamEvent is one record of a session's episode log. Every event carries
// the run id, a per-run monotonic sequence number, and an epoch-ms timestamp;
// the remaining fields depend on Type.
type StreamEvent struct {
	Type       EventType       `json:"type"`
	RunID      RunID           `json:"run_id"`
	Seq        int64           `json:"seq"`
	At         int64           `json:"at"`
	Model      string          `json:"model,omitempty"`
	Delta      string          `json:"delta,omitempty"`
	ToolCallID ToolCallID      `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Error      string          `json:"error,omitempty"`
	Retryable  bool            `json:"retryable,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// Terminal reports whether the event ends a run.
func (t EventType) Terminal() bool {
	switch t {
	case EventCompleted, EventError, EventCancelled:
		return true
	}
	return false
}
