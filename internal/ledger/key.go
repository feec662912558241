// internal/ledger/key.go
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"

	"github.com/user/chronicle/internal/types"
)

const keyVersion = "ik1"

// IdempotencyKey derives the deterministic key pairing a tool call with its
// result. The key is a versioned sha-256 digest of the RFC 8785 canonical
// form of {session_id, tool_call_id}, so the same inputs always produce the
// same key across processes and replays.
func IdempotencyKey(id types.SessionID, call types.ToolCallID) string {
	payload, err := json.Marshal(struct {
		SessionID  string `json:"session_id"`
		ToolCallID string `json:"tool_call_id"`
	}{string(id), string(call)})
	if err != nil {
		// Marshaling two strings cannot fail.
		panic(err)
	}

	canonical, err := jcs.Transform(payload)
	if err != nil {
		canonical = payload
	}
	sum := sha256.Sum256(canonical)
	return keyVersion + ":" + hex.EncodeToString(sum[:16])
}
