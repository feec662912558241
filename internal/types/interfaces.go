// internal/types/interfaces.go
package types

import "context"

type EpisodeStore interface {
	Append(ctx context.Context, id SessionID, event StreamEvent) error
	ReadAll(ctx context.Context, id SessionID) ([]StreamEvent, int, error)
	ListFiles(ctx context.Context, id SessionID) ([]string, error)
}

type LoopStore interface {
	AppendCall(ctx context.Context, id SessionID, env LoopEnvelope) error
	AppendResult(ctx context.Context, id SessionID, env LoopEnvelope) error
	ReadAll(ctx context.Context, id SessionID) ([]LoopEnvelope, error)
}

type MemoryStore interface {
	PutNote(ctx context.Context, id SessionID, slug, content string, nowMS int64) (string, error)
	ListNotes(ctx context.Context, id SessionID) ([]string, error)
}
