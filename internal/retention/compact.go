// internal/retention/compact.go
package retention

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/chronicle/internal/ledger"
	"github.com/user/chronicle/internal/session"
	"github.com/user/chronicle/internal/state"
	"github.com/user/chronicle/internal/types"
)

// SummarySchema tags the compaction summary document format.
const SummarySchema = "chronicle.compaction.summary/v1"

// SummaryStats aggregates everything the raw episode files would otherwise
// have to be re-scanned for.
type SummaryStats struct {
	Events      int            `json:"events"`
	ParseErrors int            `json:"parse_errors"`
	Runs        int            `json:"runs"`
	FirstAt     int64          `json:"first_at"`
	LastAt      int64          `json:"last_at"`
	DeltaChars  int            `json:"delta_chars"`
	DeltaTokens int            `json:"delta_tokens"`
	Completed   int            `json:"completed"`
	Errors      int            `json:"errors"`
	Cancelled   int            `json:"cancelled"`
	ToolCalls   map[string]int `json:"tool_calls"`
}

// Summary is the single document written per compaction pass. It is immutable
// once written and deleted only by snapshot-class pruning.
type Summary struct {
	Schema          string       `json:"schema"`
	SessionID       string       `json:"session_id"`
	CreatedAt       int64        `json:"created_at"`
	SourceFiles     []string     `json:"source_files"`
	IdempotencyKeys []string     `json:"idempotency_keys"`
	Stats           SummaryStats `json:"stats"`
}

// compactSession summarizes episode files aged at least CompactAfterDays into
// one snapshot. Source files are never deleted here; pruning is a separate,
// independent step.
func (e *Engine) compactSession(layout session.Layout, nowMS int64, policy Policy) (episodesCompacted int, snapshotWritten bool, err error) {
	episodesDir := layout.Dir(session.ClassEpisodes)
	entries, err := os.ReadDir(episodesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read episodes dir: %w", err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() || !dayJSONLPattern.MatchString(entry.Name()) {
			continue
		}
		age, ok := session.AgeDays(nowMS, strings.TrimSuffix(entry.Name(), ".jsonl"))
		if !ok || age < policy.CompactAfterDays {
			continue
		}
		sources = append(sources, entry.Name())
	}
	if len(sources) == 0 {
		return 0, false, nil
	}
	sort.Strings(sources)

	summary := e.aggregate(layout.SessionID(), episodesDir, sources, nowMS)

	if err := e.writeSummary(layout, summary, nowMS, sources); err != nil {
		return 0, false, err
	}
	return len(sources), true, nil
}

// aggregate folds every valid event of the source files into the summary.
// Lines that fail JSON parsing or schema validation count as parse errors and
// are otherwise ignored.
func (e *Engine) aggregate(id types.SessionID, dir string, sources []string, nowMS int64) Summary {
	stats := SummaryStats{ToolCalls: make(map[string]int)}
	runs := make(map[types.RunID]bool)
	keys := make(map[string]bool)

	for _, name := range sources {
		err := state.ScanLines(filepath.Join(dir, name), func(line []byte) {
			ev, ok := state.DecodeEvent(line)
			if !ok {
				stats.ParseErrors++
				return
			}

			stats.Events++
			runs[ev.RunID] = true
			if stats.FirstAt == 0 || ev.At < stats.FirstAt {
				stats.FirstAt = ev.At
			}
			if ev.At > stats.LastAt {
				stats.LastAt = ev.At
			}

			switch ev.Type {
			case types.EventTextDelta:
				stats.DeltaChars += len([]rune(ev.Delta))
				stats.DeltaTokens += e.countTokens(ev.Delta)
			case types.EventToolCall:
				stats.ToolCalls[ev.ToolName]++
				keys[ledger.IdempotencyKey(id, ev.ToolCallID)] = true
			case types.EventCompleted:
				stats.Completed++
			case types.EventError:
				stats.Errors++
			case types.EventCancelled:
				stats.Cancelled++
			}
		})
		if err != nil {
			// A vanished or unreadable source file reduces the summary, it
			// does not abort it.
			stats.ParseErrors++
		}
	}

	stats.Runs = len(runs)

	sortedKeys := make([]string, 0, len(keys))
	for k := range keys {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	return Summary{
		Schema:          SummarySchema,
		SessionID:       string(id),
		CreatedAt:       nowMS,
		SourceFiles:     sources,
		IdempotencyKeys: sortedKeys,
		Stats:           stats,
	}
}

// writeSummary emits the pretty-printed summary, encoding the creation date
// and the inclusive source date range in the name. Repeated same-day runs
// over the same range get a numeric suffix instead of overwriting.
func (e *Engine) writeSummary(layout session.Layout, summary Summary, nowMS int64, sources []string) error {
	dir := layout.Dir(session.ClassSnapshots)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshots dir: %w", err)
	}

	from := strings.TrimSuffix(sources[0], ".jsonl")
	to := strings.TrimSuffix(sources[len(sources)-1], ".jsonl")
	base := fmt.Sprintf("%s.compact-%s-to-%s", session.DayName(nowMS), from, to)

	target := filepath.Join(dir, base+".json")
	for n := 2; ; n++ {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		target = filepath.Join(dir, fmt.Sprintf("%s-%d.json", base, n))
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')

	// Atomic write: write to temp file then rename
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp summary: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp summary: %w", err)
	}
	return nil
}

// ReadSummaries loads every snapshot document for a session, oldest first.
// Unreadable or foreign files are skipped.
func ReadSummaries(root string, id types.SessionID) ([]Summary, error) {
	dir := session.NewLayout(root, id).Dir(session.ClassSnapshots)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshots dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !snapshotPattern.MatchString(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	summaries := make([]Summary, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var s Summary
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
