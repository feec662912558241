// Package retention walks every session under a root directory, compacts
// aging episode files into queryable summaries, and prunes expired files per
// storage class. Nothing here is transactional: every step recomputes its
// eligibility from file state, so a crash mid-run is repaired by the next run.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/semaphore"

	"github.com/user/chronicle/internal/session"
)

var (
	dayJSONLPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.jsonl$`)
	snapshotPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.compact-\d{4}-\d{2}-\d{2}-to-\d{4}-\d{2}-\d{2}(-\d+)?\.json$`)
	memoryPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\..+$`)
)

// classPatterns gates pruning: files whose names don't match their class
// pattern are left untouched, never guessed at.
var classPatterns = map[session.Class]*regexp.Regexp{
	session.ClassEpisodes:  dayJSONLPattern,
	session.ClassLedger:    dayJSONLPattern,
	session.ClassSnapshots: snapshotPattern,
	session.ClassMemory:    memoryPattern,
}

// Counters aggregates one retention run. They reflect only completed work.
type Counters struct {
	SessionsScanned   int `json:"sessions_scanned"`
	SnapshotsWritten  int `json:"snapshots_written"`
	EpisodesCompacted int `json:"episodes_compacted"`
	EpisodesDeleted   int `json:"episodes_deleted"`
	LedgerDeleted     int `json:"ledger_deleted"`
	SnapshotsDeleted  int `json:"snapshots_deleted"`
	MemoryDeleted     int `json:"memory_deleted"`
}

func (c *Counters) add(other Counters) {
	c.SessionsScanned += other.SessionsScanned
	c.SnapshotsWritten += other.SnapshotsWritten
	c.EpisodesCompacted += other.EpisodesCompacted
	c.EpisodesDeleted += other.EpisodesDeleted
	c.LedgerDeleted += other.LedgerDeleted
	c.SnapshotsDeleted += other.SnapshotsDeleted
	c.MemoryDeleted += other.MemoryDeleted
}

func (c *Counters) addDeleted(class session.Class, n int) {
	switch class {
	case session.ClassEpisodes:
		c.EpisodesDeleted += n
	case session.ClassLedger:
		c.LedgerDeleted += n
	case session.ClassSnapshots:
		c.SnapshotsDeleted += n
	case session.ClassMemory:
		c.MemoryDeleted += n
	}
}

// Engine runs compaction and TTL pruning across all sessions. Sessions are
// processed concurrently under a global semaphore; a failure in one session
// never aborts the others.
type Engine struct {
	maxConcurrent int64
	tokenizer     *tiktoken.Tiktoken
}

// NewEngine creates an Engine that processes up to maxConcurrent sessions at
// a time. Token counting degrades to zero counts if no tokenizer is
// available.
func NewEngine(maxConcurrent int64) *Engine {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		slog.Warn("tokenizer unavailable, delta token counts disabled", "error", err)
		enc = nil
	}
	return &Engine{maxConcurrent: maxConcurrent, tokenizer: enc}
}

func (e *Engine) countTokens(text string) int {
	if e.tokenizer == nil {
		return 0
	}
	return len(e.tokenizer.Encode(text, nil, nil))
}

// Run executes one retention pass over every session under root. A root with
// no sessions directory yields all-zero counters and no error.
func (e *Engine) Run(ctx context.Context, root string, nowMS int64, policy Policy) (Counters, error) {
	ids, err := session.ListSessions(root)
	if err != nil {
		return Counters{}, err
	}

	sem := semaphore.NewWeighted(e.maxConcurrent)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total Counters
	)

	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			counters := e.runSession(session.NewLayout(root, id), nowMS, policy)
			mu.Lock()
			total.add(counters)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return total, nil
}

// runSession compacts then prunes one session. Errors are logged and reduce
// the counters rather than propagating.
func (e *Engine) runSession(layout session.Layout, nowMS int64, policy Policy) Counters {
	counters := Counters{SessionsScanned: 1}

	compacted, written, err := e.compactSession(layout, nowMS, policy)
	if err != nil {
		slog.Error("compaction failed", "session_id", string(layout.SessionID()), "error", err)
	} else {
		counters.EpisodesCompacted += compacted
		if written {
			counters.SnapshotsWritten++
		}
	}

	// TTL pruning runs unconditionally, independent of compaction outcome.
	ttls := map[session.Class]int64{
		session.ClassEpisodes:  policy.EpisodesTTLDays,
		session.ClassLedger:    policy.LedgerTTLDays,
		session.ClassSnapshots: policy.SnapshotsTTLDays,
		session.ClassMemory:    policy.MemoryTTLDays,
	}
	for _, class := range session.Classes {
		counters.addDeleted(class, pruneClass(layout, class, ttls[class], nowMS))
	}
	return counters
}

// pruneClass deletes every matching file in the class directory whose date is
// at least ttlDays old. Deletes are best-effort; a missing directory means
// nothing to prune.
func pruneClass(layout session.Layout, class session.Class, ttlDays, nowMS int64) int {
	dir := layout.Dir(class)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("prune skipped, directory unreadable", "dir", dir, "error", err)
		}
		return 0
	}

	pattern := classPatterns[class]
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !pattern.MatchString(entry.Name()) {
			continue
		}
		age, ok := session.AgeDays(nowMS, entry.Name()[:len("2006-01-02")])
		if !ok || age < ttlDays {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			slog.Warn("prune delete failed", "file", entry.Name(), "class", string(class), "error", err)
			continue
		}
		deleted++
	}
	return deleted
}

// describePolicy renders the policy for operator logging.
func describePolicy(p Policy) string {
	parts := []string{
		fmt.Sprintf("episodes=%dd", p.EpisodesTTLDays),
		fmt.Sprintf("ledger=%dd", p.LedgerTTLDays),
		fmt.Sprintf("snapshots=%dd", p.SnapshotsTTLDays),
		fmt.Sprintf("memory=%dd", p.MemoryTTLDays),
		fmt.Sprintf("compact_after=%dd", p.CompactAfterDays),
	}
	return strings.Join(parts, " ")
}
