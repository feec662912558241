// internal/types/ids_test.go
package types

import "testing"

func TestNewSessionID(t *testing.T) {
	id := NewSessionID("ws-1", "thread-9", "space-a")
	if id != "ws-1:thread-9:space-a" {
		t.Errorf("unexpected session id: %s", id)
	}

	// Empty parts are dropped, not encoded.
	id = NewSessionID("ws-1", "thread-9", "")
	if id != "ws-1:thread-9" {
		t.Errorf("unexpected session id without space: %s", id)
	}
}

func TestNewRunIDUnique(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty run ids")
	}
	if a == b {
		t.Error("expected distinct run ids")
	}
}

func TestEventTypeTerminal(t *testing.T) {
	terminal := []EventType{EventCompleted, EventError, EventCancelled}
	for _, typ := range terminal {
		if !typ.Terminal() {
			t.Errorf("expected %s to be terminal", typ)
		}
	}

	streaming := []EventType{EventCreated, EventTextDelta, EventTextDone, EventToolCall}
	for _, typ := range streaming {
		if typ.Terminal() {
			t.Errorf("expected %s to be non-terminal", typ)
		}
	}
}
