// internal/state/recorder.go
package state

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/user/chronicle/internal/types"
)

// Recorder is the emit interface for one run. It stamps each partial event
// with the run id, the next sequence number, and a timestamp, then hands it
// to a single writer goroutine so emission never blocks on the write
// succeeding while in-session order is preserved. Write failures are retried,
// then logged; they are never returned to the emitter.
type Recorder struct {
	episodes *EpisodeStore
	session  types.SessionID
	run      types.RunID
	persist  bool
	retry    *RetryPolicy
	clock    func() int64

	seq  atomic.Int64
	lane chan types.StreamEvent
	done chan struct{}
}

// NewRecorder creates a Recorder for one run. When persist is false, events
// are stamped and validated but never written.
func NewRecorder(episodes *EpisodeStore, id types.SessionID, run types.RunID, persist bool) *Recorder {
	r := &Recorder{
		episodes: episodes,
		session:  id,
		run:      run,
		persist:  persist,
		retry:    DefaultAppendRetry(),
		clock:    func() int64 { return time.Now().UnixMilli() },
		lane:     make(chan types.StreamEvent, 256),
		done:     make(chan struct{}),
	}
	go r.drain()
	return r
}

// Emit stamps the event and queues it for persistence. The stamped event is
// returned so the orchestration layer can forward it downstream.
func (r *Recorder) Emit(event types.StreamEvent) types.StreamEvent {
	event.RunID = r.run
	event.Seq = r.seq.Add(1) - 1
	event.At = r.clock()

	if r.persist {
		r.lane <- event
	}
	return event
}

// Close flushes queued events and stops the writer. The Recorder must not be
// used after Close.
func (r *Recorder) Close() {
	close(r.lane)
	<-r.done
}

// drain appends queued events one at a time, preserving emission order.
func (r *Recorder) drain() {
	defer close(r.done)
	for event := range r.lane {
		ev := event
		err := r.retry.Execute(func() error {
			return r.episodes.Append(context.Background(), r.session, ev)
		})
		if err != nil {
			slog.Error("episode append failed",
				"session_id", string(r.session),
				"run_id", string(ev.RunID),
				"seq", ev.Seq,
				"type", string(ev.Type),
				"error", err,
			)
		}
	}
}
