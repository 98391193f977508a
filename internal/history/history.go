package history

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStarted     EventType = "started"
	EventSpawnFailed EventType = "spawn_failed"
	EventExited      EventType = "exited"
	EventStopped     EventType = "stopped"
)

// Event is one worker lifecycle transition exported to external systems.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	RunID      string    `json:"run_id"`
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	Command    string    `json:"command"`
	Error      string    `json:"error,omitempty"`
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// SendTimeout bounds a single Send issued by a Recorder.
const SendTimeout = 5 * time.Second

// Recorder delivers events to a Sink off the caller's goroutine so the
// supervisor never blocks on a slow database. Failures are logged.
type Recorder struct {
	sink Sink
	log  *slog.Logger
	wg   sync.WaitGroup
}

// NewRecorder wraps sink. A nil sink yields a Recorder that drops events.
func NewRecorder(sink Sink, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{sink: sink, log: log.With("component", "history")}
}

// Record sends e in the background.
func (r *Recorder) Record(e Event) {
	if r == nil || r.sink == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
		defer cancel()
		if err := r.sink.Send(ctx, e); err != nil {
			r.log.Warn("history send failed", "type", e.Type, "run_id", e.RunID, "error", err)
		}
	}()
}

// Flush waits for in-flight sends.
func (r *Recorder) Flush() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

// Close flushes and closes the sink when it supports closing.
func (r *Recorder) Close() error {
	if r == nil || r.sink == nil {
		return nil
	}
	r.Flush()
	if c, ok := r.sink.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
