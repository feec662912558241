// Package engine abstracts the model-execution collaborator behind a small
// capability interface. A resolver tries a configured engine first and falls
// back to the built-in one on any mismatch, so a bad engine name can never
// take the ledger down with it.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/user/chronicle/internal/types"
)

// Request carries one model invocation.
type Request struct {
	Model  string
	Prompt string
}

// EmitFunc receives partial stream events; the recorder stamps run id,
// sequence, and timestamp.
type EmitFunc func(event types.StreamEvent)

// Engine streams model events for a request.
type Engine interface {
	ID() string
	Stream(ctx context.Context, req Request, emit EmitFunc) error
}

// Registry holds registered engines and provides fallback resolution.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates a registry pre-seeded with the built-in engine.
func NewRegistry() *Registry {
	r := &Registry{engines: make(map[string]Engine)}
	r.Register(NewBuiltin())
	return r
}

// Register adds an engine to the registry.
func (r *Registry) Register(e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[e.ID()] = e
}

// Resolve returns the engine with the given id, falling back to the built-in
// engine when the id is unknown. The fallback reason is logged.
func (r *Registry) Resolve(id string) Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.engines[id]; ok {
		return e
	}
	slog.Warn("unknown engine, falling back to builtin", "engine", id)
	return r.engines[BuiltinID]
}
