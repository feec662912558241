// internal/state/episode.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/chronicle/internal/schema"
	"github.com/user/chronicle/internal/session"
	"github.com/user/chronicle/internal/types"
)

// EpisodeStore is a JSONL-backed append-only store for stream events.
// Events land in sessions/<id>/episodes/<YYYY-MM-DD>.jsonl, one file per
// UTC calendar day.
type EpisodeStore struct {
	root  string
	clock func() int64

	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

// NewEpisodeStore creates a file-backed EpisodeStore rooted at the given
// directory.
func NewEpisodeStore(root string) *EpisodeStore {
	return &EpisodeStore{
		root:  root,
		clock: func() int64 { return time.Now().UnixMilli() },
		locks: make(map[types.SessionID]*sync.Mutex),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (e *EpisodeStore) getLock(id types.SessionID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lock, ok := e.locks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	e.locks[id] = lock
	return lock
}

// Append validates the event against the stream-event schema and appends it
// as one JSON line to the current day's episode file. Each append is a single
// write of line plus newline, so readers never observe a partial record.
func (e *EpisodeStore) Append(_ context.Context, id types.SessionID, event types.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := schema.ValidateEvent(data); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}

	lock := e.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	layout := session.NewLayout(e.root, id)
	path := layout.DayFile(session.ClassEpisodes, e.clock())
	return appendLine(path, data)
}

// ReadAll returns every valid event for the session in stream order: files in
// filename-sorted (hence date-sorted) order, lines in file order. Lines that
// fail JSON parsing or schema validation are counted and skipped, never fatal.
func (e *EpisodeStore) ReadAll(ctx context.Context, id types.SessionID) ([]types.StreamEvent, int, error) {
	lock := e.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	files, err := e.listFiles(id)
	if err != nil {
		return nil, 0, err
	}

	dir := session.NewLayout(e.root, id).Dir(session.ClassEpisodes)
	var events []types.StreamEvent
	parseErrors := 0
	for _, name := range files {
		err := ScanLines(filepath.Join(dir, name), func(line []byte) {
			ev, ok := DecodeEvent(line)
			if !ok {
				parseErrors++
				return
			}
			events = append(events, ev)
		})
		if err != nil {
			return nil, 0, err
		}
	}
	return events, parseErrors, nil
}

// ListFiles returns the session's episode file names in date order.
func (e *EpisodeStore) ListFiles(_ context.Context, id types.SessionID) ([]string, error) {
	lock := e.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	return e.listFiles(id)
}

// listFiles lists dated episode files. Caller must hold the session lock.
func (e *EpisodeStore) listFiles(id types.SessionID) ([]string, error) {
	dir := session.NewLayout(e.root, id).Dir(session.ClassEpisodes)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read episodes dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// DecodeEvent parses and schema-validates one episode line.
func DecodeEvent(line []byte) (types.StreamEvent, bool) {
	if err := schema.ValidateEvent(line); err != nil {
		return types.StreamEvent{}, false
	}
	var ev types.StreamEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return types.StreamEvent{}, false
	}
	return ev, true
}

// appendLine appends one JSON line to path, creating the parent directory on
// first write.
func appendLine(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := make([]byte, 0, len(data)+1)
	line = append(line, data...)
	line = append(line, '\n')
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// ScanLines invokes fn for every non-empty line of the file. A missing file
// is treated as empty.
func ScanLines(path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan log file: %w", err)
	}
	return nil
}
