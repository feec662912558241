// internal/engine/builtin.go
package engine

import (
	"context"

	"github.com/user/chronicle/internal/types"
)

// BuiltinID names the internal default engine.
const BuiltinID = "builtin"

// builtin is the fallback engine: it echoes the prompt back as a short
// stream, useful for wiring tests and deployments without a model backend.
type builtin struct{}

// NewBuiltin creates the built-in echo engine.
func NewBuiltin() Engine {
	return builtin{}
}

func (builtin) ID() string { return BuiltinID }

const builtinChunk = 48

func (builtin) Stream(ctx context.Context, req Request, emit EmitFunc) error {
	emit(types.StreamEvent{Type: types.EventCreated, Model: req.Model})

	text := req.Prompt
	for len(text) > 0 {
		if err := ctx.Err(); err != nil {
			emit(types.StreamEvent{Type: types.EventCancelled, Reason: err.Error()})
			return err
		}
		n := builtinChunk
		if n > len(text) {
			n = len(text)
		}
		emit(types.StreamEvent{Type: types.EventTextDelta, Delta: text[:n]})
		text = text[n:]
	}

	emit(types.StreamEvent{Type: types.EventTextDone})
	emit(types.StreamEvent{Type: types.EventCompleted})
	return nil
}
