// internal/state/ledger.go
package state

import (
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

// LedgerStore is the append-only tool-loop ledger. Call and result envelopes
// land in sessions/<id>/ledger/<YYYY-MM-DD>.jsonl. Append time trusts the
// caller; pairing is audited separately by the integrity validator.
type LedgerStore struct {
	root  string
	clock func() int64

	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

// NewLedgerStore creates a file-backed LedgerStore rooted at the given
// directory.
func NewLedgerStore(root string) *LedgerStore {
	return &LedgerStore{
		root:  root,
		clock: func() int64 { return time.Now().UnixMilli() },
		locks: make(map[types.SessionID]*sync.Mutex),
	}
}

func (l *LedgerStore) getLock(id types.SessionID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lock, ok := l.locks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	l.locks[id] = lock
	return lock
}

// AppendCall records a tool call envelope.
func (l *LedgerStore) AppendCall(ctx context.Context, id types.SessionID, env types.LoopEnvelope) error {
	env.Kind = types.EnvelopeCall
	return l.append(ctx, id, env)
}

// AppendResult records a tool result envelope.
func (l *LedgerStore) AppendResult(ctx context.Context, id types.SessionID, env types.LoopEnvelope) error {
	env.Kind = types.EnvelopeResult
	return l.append(ctx, id, env)
}

func (l *LedgerStore) append(_ context.Context, id types.SessionID, env types.LoopEnvelope) error {
	if env.At == 0 {
		env.At = l.clock()
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := schema.ValidateEnvelope(data); err != nil {
		return fmt.Errorf("validate envelope: %w", err)
	}

	lock := l.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	path := session.NewLayout(l.root, id).DayFile(session.ClassLedger, env.At)
	return appendLine(path, data)
}

// ReadAll returns the session's envelopes in ledger order: files in
// filename-sorted (hence date-sorted) order, lines in file order. Malformed
// lines are dropped.
func (l *LedgerStore) ReadAll(_ context.Context, id types.SessionID) ([]types.LoopEnvelope, error) {
	lock := l.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	dir := session.NewLayout(l.root, id).Dir(session.ClassLedger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var envs []types.LoopEnvelope
	for _, name := range names {
		err := ScanLines(filepath.Join(dir, name), func(line []byte) {
			if err := schema.ValidateEnvelope(line); err != nil {
				return
			}
			var env types.LoopEnvelope
			if err := json.Unmarshal(line, &env); err != nil {
				return
			}
			envs = append(envs, env)
		})
		if err != nil {
			return nil, err
		}
	}
	return envs, nil
}
