package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/loykin/deskvisor/internal/history"
)

func TestPostgresSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("docker unavailable, cannot start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	sink, err := New(connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	started := history.Event{
		Type:       history.EventStarted,
		OccurredAt: time.Now(),
		RunID:      "run-1",
		Name:       "backend",
		PID:        12345,
		Command:    "python3 ../web-app/backend/main.py",
	}
	if err := sink.Send(ctx, started); err != nil {
		t.Fatalf("Failed to send start event: %v", err)
	}
	stopped := started
	stopped.Type = history.EventStopped
	stopped.Error = "signal: killed"
	if err := sink.Send(ctx, stopped); err != nil {
		t.Fatalf("Failed to send stop event: %v", err)
	}

	for _, typ := range []history.EventType{history.EventStarted, history.EventStopped} {
		n, err := sink.Count(ctx, typ)
		if err != nil || n != 1 {
			t.Fatalf("Count(%s) = %d, %v", typ, n, err)
		}
	}
}

func TestPostgresSink_EmptyDSN(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}
