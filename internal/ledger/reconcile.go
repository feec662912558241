// internal/ledger/reconcile.go
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/chronicle/internal/types"
)

// TranscriptMessage is one entry of a replayed conversation history. Only
// tool messages carry outcomes; other roles are skipped during extraction.
type TranscriptMessage struct {
	Role       string           `json:"role"`
	ToolCallID types.ToolCallID `json:"tool_call_id,omitempty"`
	Content    json.RawMessage  `json:"content,omitempty"`
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Appended     int `json:"appended"`
	Duplicates   int `json:"duplicates"`
	MissingCalls int `json:"missing_calls"`
}

// outcome is one tool result extracted from a transcript.
type outcome struct {
	toolCallID types.ToolCallID
	result     json.RawMessage
	isError    bool
}

// wrappedOutcome is the pre-wrapped payload shape some clients send. Exactly
// one layer is unwrapped; anything else is taken as a plain payload.
type wrappedOutcome struct {
	Status string          `json:"status"`
	Value  json.RawMessage `json:"value"`
}

// Reconcile scans a replayed transcript for tool outcomes the ledger is
// missing and appends exactly those results, reusing the run id, tool name,
// and idempotency key of the recorded call. Outcomes without a recorded call
// are counted, not fabricated. Running the same transcript twice yields
// appended=0 the second time.
func Reconcile(ctx context.Context, store types.LoopStore, id types.SessionID, transcript []TranscriptMessage, nowMS int64) (ReconcileResult, error) {
	var res ReconcileResult

	envs, err := store.ReadAll(ctx, id)
	if err != nil {
		return res, fmt.Errorf("read ledger: %w", err)
	}

	calls := make(map[types.ToolCallID]types.LoopEnvelope)
	resultKeys := make(map[string]bool)
	for _, env := range envs {
		switch env.Kind {
		case types.EnvelopeCall:
			if _, ok := calls[env.ToolCallID]; !ok {
				calls[env.ToolCallID] = env
			}
		case types.EnvelopeResult:
			resultKeys[env.IdempotencyKey] = true
		}
	}

	for _, out := range extractOutcomes(transcript) {
		call, ok := calls[out.toolCallID]
		if !ok {
			res.MissingCalls++
			continue
		}
		if resultKeys[call.IdempotencyKey] {
			res.Duplicates++
			continue
		}

		env := types.LoopEnvelope{
			RunID:          call.RunID,
			ToolCallID:     call.ToolCallID,
			ToolName:       call.ToolName,
			Result:         out.result,
			IsError:        out.isError,
			IdempotencyKey: call.IdempotencyKey,
			At:             nowMS,
		}
		if err := store.AppendResult(ctx, id, env); err != nil {
			return res, fmt.Errorf("append reconciled result: %w", err)
		}
		resultKeys[call.IdempotencyKey] = true
		res.Appended++
	}
	return res, nil
}

// extractOutcomes collects tool outcomes in transcript order. Repeats for the
// same tool call are kept; the seen-key set in Reconcile makes the first one
// win.
func extractOutcomes(transcript []TranscriptMessage) []outcome {
	var outcomes []outcome
	for _, msg := range transcript {
		if msg.Role != "tool" || msg.ToolCallID == "" || len(msg.Content) == 0 {
			continue
		}
		outcomes = append(outcomes, parseOutcome(msg))
	}
	return outcomes
}

// parseOutcome applies the two-shape check: a wrapper object with a success
// or error status marker and a value field, or a plain payload.
func parseOutcome(msg TranscriptMessage) outcome {
	var wrapped wrappedOutcome
	if err := json.Unmarshal(msg.Content, &wrapped); err == nil && len(wrapped.Value) > 0 {
		switch wrapped.Status {
		case "success":
			return outcome{toolCallID: msg.ToolCallID, result: wrapped.Value}
		case "error":
			return outcome{toolCallID: msg.ToolCallID, result: wrapped.Value, isError: true}
		}
	}
	return outcome{toolCallID: msg.ToolCallID, result: msg.Content}
}
