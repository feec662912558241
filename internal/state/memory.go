// internal/state/memory.go
package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/chronicle/internal/session"
	"github.com/user/chronicle/internal/types"
)

// MemoryStore holds long-term notes as dated files in
// sessions/<id>/memory/<YYYY-MM-DD>.<slug>.md. Notes are written atomically
// and deleted only by retention pruning.
type MemoryStore struct {
	root string
}

// NewMemoryStore creates a file-backed MemoryStore rooted at the given
// directory.
func NewMemoryStore(root string) *MemoryStore {
	return &MemoryStore{root: root}
}

// PutNote writes a note for the session and returns its path. The slug must
// be a plain file-name fragment.
func (m *MemoryStore) PutNote(_ context.Context, id types.SessionID, slug, content string, nowMS int64) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || strings.ContainsAny(slug, "/\\") {
		return "", fmt.Errorf("invalid note slug: %q", slug)
	}

	dir := session.NewLayout(m.root, id).Dir(session.ClassMemory)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create memory dir: %w", err)
	}

	target := filepath.Join(dir, session.DayName(nowMS)+"."+slug+".md")

	// Atomic write: write to temp file then rename
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write temp note: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename temp note: %w", err)
	}
	return target, nil
}

// ListNotes returns the session's note file names in date order.
func (m *MemoryStore) ListNotes(_ context.Context, id types.SessionID) ([]string, error) {
	dir := session.NewLayout(m.root, id).Dir(session.ClassMemory)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read memory dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
