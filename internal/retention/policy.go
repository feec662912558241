// internal/retention/policy.go
package retention

// Policy sets the per-class time-to-live windows and the compaction
// threshold, all in whole days. It is supplied per invocation, never
// persisted.
type Policy struct {
	EpisodesTTLDays  int64 `json:"episodes_ttl_days"`
	LedgerTTLDays    int64 `json:"ledger_ttl_days"`
	SnapshotsTTLDays int64 `json:"snapshots_ttl_days"`
	MemoryTTLDays    int64 `json:"memory_ttl_days"`
	CompactAfterDays int64 `json:"compact_after_days"`
}

// DefaultPolicy returns the documented defaults: episodes 14 days, ledger 30,
// snapshots matching the ledger, memory matching the episodes, compaction
// after 3 days.
func DefaultPolicy() Policy {
	return Policy{
		EpisodesTTLDays:  14,
		LedgerTTLDays:    30,
		SnapshotsTTLDays: 30,
		MemoryTTLDays:    14,
		CompactAfterDays: 3,
	}
}
