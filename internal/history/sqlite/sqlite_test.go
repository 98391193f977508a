package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/deskvisor/internal/history"
)

func TestSQLiteSink_FileRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	sink, err := New("sqlite://" + dbPath)
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	ctx := context.Background()
	now := time.Now()
	events := []history.Event{
		{Type: history.EventStarted, OccurredAt: now, RunID: "run-1", Name: "backend", PID: 4242, Command: "python3 main.py"},
		{Type: history.EventStopped, OccurredAt: now.Add(time.Second), RunID: "run-1", Name: "backend", PID: 4242, Command: "python3 main.py"},
		{Type: history.EventSpawnFailed, OccurredAt: now, Name: "backend", Command: "python3 main.py", Error: "exec: not found"},
	}
	for _, e := range events {
		if err := sink.Send(ctx, e); err != nil {
			t.Fatalf("Send(%s): %v", e.Type, err)
		}
	}

	n, err := sink.Count(ctx, "")
	if err != nil || n != 3 {
		t.Fatalf("Count all = %d, %v", n, err)
	}
	n, err = sink.Count(ctx, history.EventStarted)
	if err != nil || n != 1 {
		t.Fatalf("Count started = %d, %v", n, err)
	}
}

func TestSQLiteSink_InMemory(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	if err := sink.Send(context.Background(), history.Event{Type: history.EventExited, RunID: "r", OccurredAt: time.Now()}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	n, err := sink.Count(context.Background(), history.EventExited)
	if err != nil || n != 1 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestSQLiteSink_EmptyDSN(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}
