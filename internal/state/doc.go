// Package state provides the filesystem-backed session stores: day-partitioned
// append-only episode and ledger logs plus dated memory notes. The design
// assumes a single writer process owns the root directory; in-process writers
// are serialized per session.
package state

import "github.com/user/chronicle/internal/types"

// Compile-time interface compliance checks.
var _ types.EpisodeStore = (*EpisodeStore)(nil)
var _ types.LoopStore = (*LedgerStore)(nil)
var _ types.MemoryStore = (*MemoryStore)(nil)
