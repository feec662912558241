// internal/retention/scheduler.go
package retention

import (
	"context"
	"log/slog"
	"sync"
)

// Scheduler gates retention runs to at most one per interval and collapses
// concurrent triggers onto a single execution. It is an injectable object so
// tests can instantiate independent schedulers.
type Scheduler struct {
	engine *Engine

	mu        sync.Mutex
	lastRunMS int64
	ran       bool
	inFlight  bool
}

// NewScheduler creates a Scheduler driving the given engine.
func NewScheduler(engine *Engine) *Scheduler {
	return &Scheduler{engine: engine}
}

// MaybeRun runs retention unless a run is already in flight or less than
// intervalMS has elapsed since the last completed trigger. The trigger time
// is recorded before the engine starts, so near-simultaneous callers cannot
// both pass the gate. Returns true only when this call executed the engine.
func (s *Scheduler) MaybeRun(ctx context.Context, root string, nowMS, intervalMS int64, policy Policy) (bool, Counters, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return false, Counters{}, nil
	}
	if s.ran && nowMS-s.lastRunMS < intervalMS {
		s.mu.Unlock()
		return false, Counters{}, nil
	}
	s.lastRunMS = nowMS
	s.ran = true
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	slog.Info("retention run starting", "now_ms", nowMS, "policy", describePolicy(policy))
	counters, err := s.engine.Run(ctx, root, nowMS, policy)
	if err != nil {
		return true, counters, err
	}
	slog.Info("retention run finished",
		"sessions_scanned", counters.SessionsScanned,
		"snapshots_written", counters.SnapshotsWritten,
		"episodes_compacted", counters.EpisodesCompacted,
		"episodes_deleted", counters.EpisodesDeleted,
		"ledger_deleted", counters.LedgerDeleted,
		"snapshots_deleted", counters.SnapshotsDeleted,
		"memory_deleted", counters.MemoryDeleted,
	)
	return true, counters, nil
}
