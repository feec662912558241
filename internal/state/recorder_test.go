// internal/state/recorder_test.go
package state

import (
	"context"
	"testing"

	"github.com/user/chronicle/internal/types"
)

func TestRecorderStampsAndPersists(t *testing.T) {
	root := t.TempDir()
	episodes := NewEpisodeStore(root)
	at := dayMS(2026, 2, 10)
	episodes.clock = func() int64 { return at }

	id := types.SessionID("ws-1:thread-9")
	rec := NewRecorder(episodes, id, "run-1", true)
	rec.clock = func() int64 { return at }

	stamped := rec.Emit(types.StreamEvent{Type: types.EventCreated, Model: "gpt-4o"})
	if stamped.RunID != "run-1" || stamped.Seq != 0 || stamped.At != at {
		t.Errorf("unexpected stamp: %+v", stamped)
	}

	rec.Emit(types.StreamEvent{Type: types.EventTextDelta, Delta: "hi"})
	rec.Emit(types.StreamEvent{Type: types.EventTextDone})
	last := rec.Emit(types.StreamEvent{Type: types.EventCompleted})
	if last.Seq != 3 {
		t.Errorf("expected seq 3, got %d", last.Seq)
	}
	rec.Close()

	events, parseErrors, err := episodes.ReadAll(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if parseErrors != 0 {
		t.Errorf("expected no parse errors, got %d", parseErrors)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 persisted events, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Seq != int64(i) {
			t.Errorf("event %d: expected seq %d, got %d", i, i, ev.Seq)
		}
		if ev.RunID != "run-1" {
			t.Errorf("event %d: unexpected run id %s", i, ev.RunID)
		}
	}
}

func TestRecorderEphemeral(t *testing.T) {
	root := t.TempDir()
	episodes := NewEpisodeStore(root)
	id := types.SessionID("ws-1:thread-9")

	rec := NewRecorder(episodes, id, "run-1", false)
	stamped := rec.Emit(types.StreamEvent{Type: types.EventCreated})
	if stamped.Seq != 0 || stamped.RunID != "run-1" {
		t.Errorf("ephemeral events are still stamped: %+v", stamped)
	}
	rec.Emit(types.StreamEvent{Type: types.EventCompleted})
	rec.Close()

	events, _, err := episodes.ReadAll(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("expected nothing persisted, got %d events", len(events))
	}
}
