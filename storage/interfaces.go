package storage

import (
	"context"
	"time"

	"github.com/poiesic/lexrag/core"
)

// Repository provides lifecycle management shared by all repositories.
type Repository interface {
	// Close releases resources held by the repository.
	// The underlying backend is closed separately.
	Close() error
}

// SessionRepository persists conversation sessions.
type SessionRepository interface {
	Repository

	// SaveSession writes the full session record, replacing any previous version.
	// TotalExchanges is recomputed from the exchange list.
	// Maintains the last-updated index used by RecentSessions.
	SaveSession(ctx context.Context, session *core.Session) error

	// GetSession retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist and
	// ErrSerializationFailed if the stored record cannot be decoded.
	GetSession(ctx context.Context, id string) (*core.Session, error)

	// DeleteSessions removes sessions and their index entries.
	// Missing sessions are ignored.
	DeleteSessions(ctx context.Context, ids ...string) error

	// RecentSessions returns summaries ordered by LastUpdated descending,
	// up to limit entries. Records that fail to decode are skipped.
	RecentSessions(ctx context.Context, limit int) ([]core.SessionSummary, error)

	// DeleteSessionsBefore removes sessions whose LastUpdated is before cutoff.
	// Records that fail to decode are skipped, not deleted.
	// Returns the number of sessions removed.
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// PassageRepository stores document passages and their embeddings.
type PassageRepository interface {
	Repository

	// AddPassages stores passages keyed by IDFromContent(Content).
	// Re-adding identical content overwrites the previous entry.
	// Returns the passages with IDs populated.
	AddPassages(ctx context.Context, passages ...*core.Passage) ([]*core.Passage, error)

	// GetPassages retrieves passages by ID.
	// Returns only the passages that exist (no error for missing passages).
	GetPassages(ctx context.Context, ids ...core.ID) ([]*core.Passage, error)

	// CountPassages returns the number of stored passages.
	CountPassages(ctx context.Context) (int, error)

	// FindSimilar finds passages whose vectors are similar to the query vector.
	// Returns passages with similarity >= minSimilarity, up to limit results,
	// ordered by similarity (highest first) with Score populated.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.Passage, error)
}
