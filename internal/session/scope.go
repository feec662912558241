// internal/session/scope.go
package session

import (
	"fmt"
	"strings"

	"github.com/user/chronicle/internal/types"
)

// Scope identifies one durable conversation context. SpaceID is optional.
type Scope struct {
	WorkspaceID string
	ThreadID    string
	SpaceID     string
}

func (s Scope) Validate() error {
	if strings.TrimSpace(s.WorkspaceID) == "" {
		return fmt.Errorf("missing workspace id")
	}
	if strings.TrimSpace(s.ThreadID) == "" {
		return fmt.Errorf("missing thread id")
	}
	return nil
}

// SessionID derives the stable session identifier for this scope. The same
// scope always maps to the same id; the id is never mutated, only looked up.
func (s Scope) SessionID() (types.SessionID, error) {
	if err := s.Validate(); err != nil {
		return "", fmt.Errorf("resolve session scope: %w", err)
	}
	return types.NewSessionID(
		strings.TrimSpace(s.WorkspaceID),
		strings.TrimSpace(s.ThreadID),
		strings.TrimSpace(s.SpaceID),
	), nil
}
