package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

const (
	previewLength     = 100
	deleteBatchLength = 100
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(backend *Backend) (*SessionRepository, error) {
	return &SessionRepository{
		backend: backend,
		logger:  slog.Default().With("component", "session-repository"),
	}, nil
}

// Close releases resources. SessionRepository has no resources to release.
func (r *SessionRepository) Close() error {
	return nil
}

// SaveSession writes the full session record and refreshes its index entry.
// The context is checked before commit; a cancelled save leaves the
// previous record untouched.
func (r *SessionRepository) SaveSession(ctx context.Context, session *core.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", storage.ErrInvalidQuery)
	}
	if err := core.ValidateSessionID(session.SessionID); err != nil {
		return err
	}

	value, err := storage.MarshalSession(session)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		pointerKey := makeSessionPointerKey(session.SessionID)

		// Drop the stale index entry, if any
		oldIndexKey, err := readValue(tx, pointerKey)
		if err != nil {
			return err
		}
		if oldIndexKey != nil {
			if err := tx.Delete(oldIndexKey); err != nil {
				return err
			}
		}

		if err := tx.Set(makeSessionKey(session.SessionID), value); err != nil {
			return err
		}

		indexKey := makeSessionUpdatedKey(session.LastUpdated, session.SessionID)
		if err := tx.Set(indexKey, []byte(session.SessionID)); err != nil {
			return err
		}
		if err := tx.Set(pointerKey, indexKey); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*core.Session, error) {
	var result *core.Session
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeSessionKey(id))
		if err != nil {
			return err
		}
		if value == nil {
			return storage.ErrNotFound
		}
		result, err = storage.UnmarshalSession(value)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSessions removes sessions and their index entries.
func (r *SessionRepository) DeleteSessions(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}

			pointerKey := makeSessionPointerKey(id)
			indexKey, err := readValue(tx, pointerKey)
			if err != nil {
				return err
			}
			if indexKey != nil {
				if err := tx.Delete(indexKey); err != nil {
					return err
				}
			}
			if err := tx.Delete(pointerKey); err != nil {
				return err
			}
			if err := tx.Delete(makeSessionKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// RecentSessions returns summaries of the most recently updated sessions.
func (r *SessionRepository) RecentSessions(ctx context.Context, limit int) ([]core.SessionSummary, error) {
	results := []core.SessionSummary{}
	if limit <= 0 {
		return results, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent sessions first
		prefix := sessionUpdatedIndexPrefix()
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible key with this prefix
		startKey := append(bytes.Clone(prefix), 0xFF)

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			session, err := r.sessionFromIndex(tx, iter.Item())
			if err != nil {
				r.logger.Warn("skipping unreadable session", "key", string(iter.Item().KeyCopy(nil)), "err", err)
				continue
			}
			if session == nil {
				continue
			}
			results = append(results, storage.SummarizeSession(session, previewLength))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return results, nil
}

// DeleteSessionsBefore removes sessions last updated before cutoff.
func (r *SessionRepository) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var expired []string

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = sessionUpdatedIndexPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		endKey := makePartialSessionUpdatedKey(cutoff)

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if bytes.Compare(iter.Item().Key(), endKey) >= 0 {
				break
			}

			session, err := r.sessionFromIndex(tx, iter.Item())
			if err != nil {
				r.logger.Warn("skipping unreadable session during sweep", "key", string(iter.Item().KeyCopy(nil)), "err", err)
				continue
			}
			if session == nil || !session.LastUpdated.Before(cutoff) {
				continue
			}
			expired = append(expired, session.SessionID)
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	// Delete in batches to stay under badger's transaction size limit
	deleted := 0
	for start := 0; start < len(expired); start += deleteBatchLength {
		end := min(start+deleteBatchLength, len(expired))
		if err := r.DeleteSessions(ctx, expired[start:end]...); err != nil {
			return deleted, err
		}
		deleted += end - start
	}

	return deleted, nil
}

// sessionFromIndex resolves a last-updated index entry to its session record.
// Returns nil without error when the record has vanished.
func (r *SessionRepository) sessionFromIndex(tx *badger.Txn, item *badger.Item) (*core.Session, error) {
	id, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	value, err := readValue(tx, makeSessionKey(string(id)))
	if err != nil || value == nil {
		return nil, err
	}
	return storage.UnmarshalSession(value)
}

// readValue returns a copy of the value stored at key, or nil when absent.
func readValue(tx *badger.Txn, key []byte) ([]byte, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}
