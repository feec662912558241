// internal/types/ids.go
package types

import (
	"strings"

	"github.com/google/uuid"
)

type SessionID string
type RunID string
type ToolCallID string

func NewRunID() RunID {
	return RunID(uuid.New().String())
}

func NewToolCallID() ToolCallID {
	return ToolCallID(uuid.New().String())
}

// NewSessionID joins the non-empty scope parts into a deterministic id.
func NewSessionID(parts ...string) SessionID {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return SessionID(strings.Join(kept, ":"))
}
