package storage

import (
	"context"
	"time"

	"github.com/seampoint/concierge/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// KnowledgeRepository provides operations for managing the knowledge corpus.
type KnowledgeRepository interface {
	Repository

	// UpsertItems inserts or replaces knowledge items.
	// Items with ID=0 get a content-based ID derived from Title and Body,
	// so re-seeding identical content overwrites rather than duplicates.
	// The first vectored item in a collection pins that collection's
	// embedding dimension; later items with a different dimension are
	// rejected with core.ErrDimensionMismatch.
	// Returns the items with IDs and timestamps populated.
	UpsertItems(ctx context.Context, items ...*core.KnowledgeItem) ([]*core.KnowledgeItem, error)

	// GetItem retrieves a single knowledge item by collection and ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, st core.SourceType, id core.ID) (*core.KnowledgeItem, error)

	// ListItems retrieves active items from a collection in ascending ID
	// order, starting strictly after afterId. Used for paged corpus scans.
	ListItems(ctx context.Context, st core.SourceType, afterId core.ID, limit int) ([]*core.KnowledgeItem, error)

	// GetByCategory retrieves active items of a collection tagged with the
	// given category, in ascending ID order, up to limit results.
	GetByCategory(ctx context.Context, st core.SourceType, category string, limit int) ([]*core.KnowledgeItem, error)

	// DeactivateItems marks items as inactive so they never surface in
	// search again. The rows are kept for audit.
	// Returns ErrNotFound if any item doesn't exist.
	DeactivateItems(ctx context.Context, st core.SourceType, ids ...core.ID) error

	// FindSimilar finds active knowledge items in a collection similar to
	// the given vector. Returns items with similarity >= minSimilarity, up
	// to limit results, ordered by similarity descending with ascending ID
	// breaking ties. Items whose vector dimension disagrees with the query
	// are skipped.
	FindSimilar(ctx context.Context, st core.SourceType, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Dimension returns the pinned embedding dimension for a collection,
	// or 0 when no vectored item has been stored yet.
	Dimension(ctx context.Context, st core.SourceType) (int, error)

	// ResetDimension clears the pinned dimension so the next vectored
	// upsert re-pins it. Used when migrating to a new embedding model.
	ResetDimension(ctx context.Context, st core.SourceType) error
}

// SessionRepository provides operations for managing conversation sessions.
type SessionRepository interface {
	Repository

	// SaveSession persists a session, creating or replacing it.
	// Updates the UpdatedAt timestamp automatically.
	SaveSession(ctx context.Context, session *core.Session) error

	// GetSession retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist.
	GetSession(ctx context.Context, id string) (*core.Session, error)

	// DeleteSession removes a session by ID.
	// Returns ErrNotFound if the session doesn't exist.
	DeleteSession(ctx context.Context, id string) error

	// PurgeIdleSessions deletes sessions not updated since the cutoff.
	// Returns the number of sessions removed.
	PurgeIdleSessions(ctx context.Context, cutoff time.Time) (int, error)
}

// CheckpointRepository persists progress markers for long-running
// maintenance jobs so interrupted runs can resume.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a job.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a job.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, jobName string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for a job after it completes.
	ClearCheckpoint(ctx context.Context, jobName string) error
}
