// internal/ledger/integrity.go
package ledger

import (
	"fmt"

	"github.com/user/chronicle/internal/types"
)

// SequenceError reports the first position where a run's event stream is not
// strictly increasing.
type SequenceError struct {
	Index int
	Prev  int64
	Got   int64
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence not strictly increasing at index %d: %d after %d", e.Index, e.Got, e.Prev)
}

// ValidateSequence checks that each adjacent pair of a single run's events has
// a strictly increasing sequence number. Returns a *SequenceError at the first
// violation.
func ValidateSequence(events []types.StreamEvent) error {
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			return &SequenceError{Index: i, Prev: events[i-1].Seq, Got: events[i].Seq}
		}
	}
	return nil
}

// IntegrityError reports a ledger entry that breaks call/result pairing.
type IntegrityError struct {
	Index  int
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ledger integrity violation at index %d: %s", e.Index, e.Reason)
}

// ValidateIntegrity audits a session's ledger: every result must follow a call
// with the same tool_call_id, the same run id, and the same idempotency key.
// This is a standalone audit; appends do not enforce it.
func ValidateIntegrity(envs []types.LoopEnvelope) error {
	calls := make(map[types.ToolCallID]types.LoopEnvelope)
	for i, env := range envs {
		switch env.Kind {
		case types.EnvelopeCall:
			if _, ok := calls[env.ToolCallID]; !ok {
				calls[env.ToolCallID] = env
			}
		case types.EnvelopeResult:
			call, ok := calls[env.ToolCallID]
			if !ok {
				return &IntegrityError{Index: i, Reason: fmt.Sprintf("result for %s without prior call", env.ToolCallID)}
			}
			if call.RunID != env.RunID {
				return &IntegrityError{Index: i, Reason: fmt.Sprintf("run id mismatch for %s: call %s, result %s", env.ToolCallID, call.RunID, env.RunID)}
			}
			if call.IdempotencyKey != env.IdempotencyKey {
				return &IntegrityError{Index: i, Reason: fmt.Sprintf("idempotency key mismatch for %s", env.ToolCallID)}
			}
		default:
			return &IntegrityError{Index: i, Reason: fmt.Sprintf("unknown envelope kind %q", env.Kind)}
		}
	}
	return nil
}
