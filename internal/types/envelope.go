// internal/types/envelope.go
package types

import "encoding/json"

// EnvelopeKind discriminates the tool-loop ledger record variants.
type EnvelopeKind string

const (
	EnvelopeCall   EnvelopeKind = "call"
	EnvelopeResult EnvelopeKind = "result"
)

// LoopEnvelope is one record of a session's tool-loop ledger. A result is
// only meaningful when a call with the same tool_call_id was written earlier
// in the same session, and the idempotency keys of the pair must match.
type LoopEnvelope struct {
	Kind           EnvelopeKind    `json:"kind"`
	RunID          RunID           `json:"run_id"`
	ToolCallID     ToolCallID      `json:"tool_call_id"`
	ToolName       string          `json:"tool_name"`
	Args           json.RawMessage `json:"args,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	IsError        bool            `json:"is_error,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
	At             int64           `json:"at"`
}
