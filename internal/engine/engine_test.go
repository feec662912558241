// internal/engine/engine_test.go
package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/user/chronicle/internal/types"
)

func TestRegistryFallback(t *testing.T) {
	reg := NewRegistry()

	if got := reg.Resolve(BuiltinID); got.ID() != BuiltinID {
		t.Errorf("expected builtin, got %s", got.ID())
	}

	// Unknown ids fall back instead of failing the run.
	if got := reg.Resolve("does-not-exist"); got.ID() != BuiltinID {
		t.Errorf("expected fallback to builtin, got %s", got.ID())
	}
}

type fakeEngine struct{ id string }

func (f fakeEngine) ID() string { return f.id }
func (f fakeEngine) Stream(context.Context, Request, EmitFunc) error {
	return nil
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	reg.Register(fakeEngine{id: "custom"})

	if got := reg.Resolve("custom"); got.ID() != "custom" {
		t.Errorf("expected custom engine, got %s", got.ID())
	}
}

func TestBuiltinStream(t *testing.T) {
	var events []types.StreamEvent
	err := NewBuiltin().Stream(context.Background(), Request{Model: "echo-1", Prompt: strings.Repeat("x", 100)}, func(ev types.StreamEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(events) < 4 {
		t.Fatalf("expected at least 4 events, got %d", len(events))
	}
	if events[0].Type != types.EventCreated || events[0].Model != "echo-1" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[len(events)-1].Type != types.EventCompleted {
		t.Errorf("expected terminal completed event, got %+v", events[len(events)-1])
	}

	var echoed strings.Builder
	for _, ev := range events {
		if ev.Type == types.EventTextDelta {
			echoed.WriteString(ev.Delta)
		}
	}
	if echoed.Len() != 100 {
		t.Errorf("expected full prompt echoed, got %d chars", echoed.Len())
	}
}

func TestBuiltinStreamCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var events []types.StreamEvent
	err := NewBuiltin().Stream(ctx, Request{Prompt: "hello"}, func(ev types.StreamEvent) {
		events = append(events, ev)
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}

	last := events[len(events)-1]
	if last.Type != types.EventCancelled || last.Reason == "" {
		t.Errorf("expected cancelled event with reason, got %+v", last)
	}
}
