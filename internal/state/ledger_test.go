// internal/state/ledger_test.go
package state

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/user/chronicle/internal/session"
	"github.com/user/chronicle/internal/types"
)

func TestLedgerStoreAppendReadAll(t *testing.T) {
	root := t.TempDir()
	store := NewLedgerStore(root)
	ctx := context.Background()
	id := types.SessionID("ws-1:thread-9")

	call := types.LoopEnvelope{
		RunID:          "r1",
		ToolCallID:     "tc1",
		ToolName:       "search",
		Args:           json.RawMessage(`{"q":"go"}`),
		IdempotencyKey: "ik1:aaaa",
		At:             dayMS(2026, 2, 10),
	}
	if err := store.AppendCall(ctx, id, call); err != nil {
		t.Fatal(err)
	}

	result := types.LoopEnvelope{
		RunID:          "r1",
		ToolCallID:     "tc1",
		ToolName:       "search",
		Result:         json.RawMessage(`{"hits":3}`),
		IdempotencyKey: "ik1:aaaa",
		At:             dayMS(2026, 2, 10) + 500,
	}
	if err := store.AppendResult(ctx, id, result); err != nil {
		t.Fatal(err)
	}

	envs, err := store.ReadAll(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(envs))
	}
	if envs[0].Kind != types.EnvelopeCall {
		t.Errorf("expected first envelope to be a call, got %s", envs[0].Kind)
	}
	if envs[1].Kind != types.EnvelopeResult {
		t.Errorf("expected second envelope to be a result, got %s", envs[1].Kind)
	}
	if envs[1].IdempotencyKey != envs[0].IdempotencyKey {
		t.Error("idempotency keys should match across the pair")
	}
}

func TestLedgerStoreForcesKind(t *testing.T) {
	store := NewLedgerStore(t.TempDir())
	ctx := context.Background()
	id := types.SessionID("ws-1:thread-9")

	// A mislabeled envelope is corrected by the entry point, not rejected.
	env := types.LoopEnvelope{
		Kind:           types.EnvelopeResult,
		RunID:          "r1",
		ToolCallID:     "tc1",
		ToolName:       "search",
		IdempotencyKey: "ik1:aaaa",
		At:             dayMS(2026, 2, 10),
	}
	if err := store.AppendCall(ctx, id, env); err != nil {
		t.Fatal(err)
	}

	envs, err := store.ReadAll(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 || envs[0].Kind != types.EnvelopeCall {
		t.Fatalf("expected one call envelope, got %+v", envs)
	}
}

func TestLedgerStoreStampsMissingAt(t *testing.T) {
	store := NewLedgerStore(t.TempDir())
	store.clock = func() int64 { return dayMS(2026, 2, 10) }

	env := types.LoopEnvelope{
		RunID:          "r1",
		ToolCallID:     "tc1",
		ToolName:       "search",
		IdempotencyKey: "ik1:aaaa",
	}
	if err := store.AppendCall(context.Background(), "ws-1:thread-9", env); err != nil {
		t.Fatal(err)
	}

	envs, err := store.ReadAll(context.Background(), "ws-1:thread-9")
	if err != nil {
		t.Fatal(err)
	}
	if envs[0].At != dayMS(2026, 2, 10) {
		t.Errorf("expected clock-stamped at, got %d", envs[0].At)
	}
}

func TestLedgerStoreDropsMalformedLines(t *testing.T) {
	root := t.TempDir()
	store := NewLedgerStore(root)
	ctx := context.Background()
	id := types.SessionID("ws-1:thread-9")
	at := dayMS(2026, 2, 10)

	env := types.LoopEnvelope{
		RunID:          "r1",
		ToolCallID:     "tc1",
		ToolName:       "search",
		IdempotencyKey: "ik1:aaaa",
		At:             at,
	}
	if err := store.AppendCall(ctx, id, env); err != nil {
		t.Fatal(err)
	}

	path := session.NewLayout(root, id).DayFile(session.ClassLedger, at)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("not json\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	envs, err := store.ReadAll(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 {
		t.Fatalf("expected malformed line to be dropped, got %d envelopes", len(envs))
	}
}
