// internal/session/layout.go
package session

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/user/chronicle/internal/types"
)

// Class names one of the four per-session storage directories.
type Class string

const (
	ClassEpisodes  Class = "episodes"
	ClassLedger    Class = "ledger"
	ClassSnapshots Class = "snapshots"
	ClassMemory    Class = "memory"
)

// Classes lists every storage class, in pruning order.
var Classes = []Class{ClassEpisodes, ClassLedger, ClassSnapshots, ClassMemory}

const (
	dayFormat = "2006-01-02"
	// DayMS is the length of one UTC day in milliseconds.
	DayMS = int64(24 * time.Hour / time.Millisecond)
)

// Layout maps a (root, session) pair to its directory tree. Directories are
// created lazily on first write, never here.
type Layout struct {
	root string
	id   types.SessionID
}

func NewLayout(root string, id types.SessionID) Layout {
	return Layout{root: root, id: id}
}

func (l Layout) SessionID() types.SessionID {
	return l.id
}

// Dir returns the directory for one storage class:
// <root>/sessions/<url-escaped id>/<class>.
func (l Layout) Dir(c Class) string {
	return filepath.Join(SessionsDir(l.root), url.QueryEscape(string(l.id)), string(c))
}

// DayFile returns the dated JSONL file for the episodes or ledger class.
func (l Layout) DayFile(c Class, nowMS int64) string {
	return filepath.Join(l.Dir(c), DayName(nowMS)+".jsonl")
}

// SessionsDir returns the directory holding all session trees.
func SessionsDir(root string) string {
	return filepath.Join(root, "sessions")
}

// ListSessions returns the decoded session ids present under the root.
// A missing sessions directory is an empty deployment, not an error.
func ListSessions(root string) ([]types.SessionID, error) {
	entries, err := os.ReadDir(SessionsDir(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	ids := make([]types.SessionID, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		decoded, err := url.QueryUnescape(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("decode session dir %q: %w", entry.Name(), err)
		}
		ids = append(ids, types.SessionID(decoded))
	}
	return ids, nil
}

// DayName formats an epoch-ms timestamp as its UTC calendar date.
func DayName(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(dayFormat)
}

// ParseDay parses a YYYY-MM-DD name into its UTC midnight epoch-ms.
func ParseDay(name string) (int64, bool) {
	t, err := time.ParseInLocation(dayFormat, name, time.UTC)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

// AgeDays returns the whole days elapsed since the UTC midnight of the given
// date name, or false if the name is not a date.
func AgeDays(nowMS int64, dayName string) (int64, bool) {
	start, ok := ParseDay(dayName)
	if !ok {
		return 0, false
	}
	diff := nowMS - start
	if diff < 0 {
		// Future-dated files never age.
		diff -= DayMS - 1
	}
	return diff / DayMS, true
}
