package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

func TestSessionBasics(t *testing.T) {
	_, sessionRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	session := &core.Session{
		Id:        "sess-1",
		TurnCount: 1,
		History: []core.Turn{
			{Role: core.RoleUser, Text: "What does it cost?"},
		},
		Stage: core.StageDiscovery,
	}

	if err := sessionRepo.SaveSession(ctx, session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if session.CreatedAt.IsZero() || session.UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be populated")
	}

	retrieved, err := sessionRepo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if retrieved.TurnCount != 1 || len(retrieved.History) != 1 {
		t.Fatalf("Unexpected session state: %+v", retrieved)
	}
	if retrieved.History[0].Text != "What does it cost?" {
		t.Fatalf("Unexpected history: %+v", retrieved.History)
	}
}

func TestSessionNotFound(t *testing.T) {
	_, sessionRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	if _, err := sessionRepo.GetSession(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if err := sessionRepo.DeleteSession(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on delete, got %v", err)
	}
}

func TestSessionOverwrite(t *testing.T) {
	_, sessionRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	session := &core.Session{Id: "sess-1", TurnCount: 1, Stage: core.StageDiscovery}
	if err := sessionRepo.SaveSession(ctx, session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	created := session.CreatedAt

	session.TurnCount = 2
	session.Stage = core.StageDiscovery
	if err := sessionRepo.SaveSession(ctx, session); err != nil {
		t.Fatalf("Failed to re-save session: %v", err)
	}

	retrieved, err := sessionRepo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if retrieved.TurnCount != 2 {
		t.Fatalf("Expected turn count 2, got %d", retrieved.TurnCount)
	}
	if !retrieved.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt changed across saves: %v vs %v", retrieved.CreatedAt, created)
	}
}

func TestSessionDelete(t *testing.T) {
	_, sessionRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	session := &core.Session{Id: "sess-1", Stage: core.StageDiscovery}
	if err := sessionRepo.SaveSession(ctx, session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	if err := sessionRepo.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := sessionRepo.GetSession(ctx, "sess-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestPurgeIdleSessions(t *testing.T) {
	_, sessionRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	for _, id := range []string{"old-1", "old-2", "fresh"} {
		if err := sessionRepo.SaveSession(ctx, &core.Session{Id: id, Stage: core.StageDiscovery}); err != nil {
			t.Fatalf("Failed to save session %s: %v", id, err)
		}
	}

	// Everything was just saved; a cutoff in the past purges nothing.
	purged, err := sessionRepo.PurgeIdleSessions(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if purged != 0 {
		t.Fatalf("Expected 0 purged, got %d", purged)
	}

	// A cutoff in the future purges everything.
	purged, err = sessionRepo.PurgeIdleSessions(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if purged != 3 {
		t.Fatalf("Expected 3 purged, got %d", purged)
	}

	if _, err := sessionRepo.GetSession(ctx, "fresh"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected all sessions purged, got %v", err)
	}
}
