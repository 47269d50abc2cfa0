package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string, lastUpdated time.Time, questions ...string) *core.Session {
	session := &core.Session{
		SessionID:   id,
		CreatedAt:   lastUpdated.Add(-time.Minute),
		LastUpdated: lastUpdated,
	}
	for i, q := range questions {
		session.Exchanges = append(session.Exchanges, core.Exchange{
			ExchangeID:        i + 1,
			Timestamp:         lastUpdated,
			UserQuestion:      q,
			AssistantResponse: "answer",
			Sources:           []core.SourceRef{},
		})
	}
	return session
}

func TestSessionSaveAndGet(t *testing.T) {
	sessionRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err = sessionRepo.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	session := newSession("s1", now, "What is TDS?", "What about salary?")
	require.NoError(t, sessionRepo.SaveSession(ctx, session))

	got, err := sessionRepo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalExchanges)
	require.Len(t, got.Exchanges, 2)
	assert.Equal(t, "What about salary?", got.Exchanges[1].UserQuestion)
	assert.True(t, now.Equal(got.LastUpdated))
}

func TestSessionSaveRejectsBlankID(t *testing.T) {
	sessionRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	err = sessionRepo.SaveSession(context.Background(), &core.Session{})
	assert.ErrorIs(t, err, core.ErrEmptySessionID)
}

func TestSessionSaveCancelledContext(t *testing.T) {
	sessionRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	now := time.Now().UTC()
	require.NoError(t, sessionRepo.SaveSession(context.Background(), newSession("s1", now, "first")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sessionRepo.SaveSession(ctx, newSession("s1", now, "first", "second"))
	assert.ErrorIs(t, err, context.Canceled)

	got, err := sessionRepo.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, got.Exchanges, 1, "cancelled save must not change the record")
}

func TestRecentSessionsOrdering(t *testing.T) {
	sessionRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("old", base, "oldest question")))
	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("mid", base.Add(10*time.Minute))))
	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("new", base.Add(20*time.Minute), "newest question")))

	// Updating "old" moves it to the front and replaces its index entry
	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("old", base.Add(30*time.Minute), "oldest question", "follow up")))

	recent, err := sessionRepo.RecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "old", recent[0].SessionID)
	assert.Equal(t, "new", recent[1].SessionID)
	assert.Equal(t, "mid", recent[2].SessionID)

	assert.Equal(t, "oldest question", recent[0].Preview)
	assert.Equal(t, 2, recent[0].TotalExchanges)
	assert.Equal(t, "Empty session", recent[2].Preview)

	limited, err := sessionRepo.RecentSessions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := sessionRepo.RecentSessions(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecentSessionsSkipsCorruptRecords(t *testing.T) {
	sessionRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("good", now, "q")))
	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("bad", now.Add(-time.Minute), "q")))
	corruptSession(t, backend, "bad")

	recent, err := sessionRepo.RecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "good", recent[0].SessionID)

	_, err = sessionRepo.GetSession(ctx, "bad")
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)
}

func TestDeleteSessionsBefore(t *testing.T) {
	sessionRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("ancient", now.AddDate(0, 0, -60), "q")))
	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("stale", now.AddDate(0, 0, -31), "q")))
	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("corrupt", now.AddDate(0, 0, -45), "q")))
	require.NoError(t, sessionRepo.SaveSession(ctx, newSession("fresh", now.AddDate(0, 0, -1), "q")))
	corruptSession(t, backend, "corrupt")

	deleted, err := sessionRepo.DeleteSessionsBefore(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = sessionRepo.GetSession(ctx, "ancient")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = sessionRepo.GetSession(ctx, "stale")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = sessionRepo.GetSession(ctx, "fresh")
	assert.NoError(t, err)

	// Corrupt records are skipped, not deleted
	_, err = sessionRepo.GetSession(ctx, "corrupt")
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)
}

func TestDeleteSessionsBeforeManyBatches(t *testing.T) {
	sessionRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	old := time.Now().UTC().AddDate(0, 0, -90)
	total := deleteBatchLength*2 + 7
	for i := range total {
		require.NoError(t, sessionRepo.SaveSession(ctx, newSession(fmt.Sprintf("s%03d", i), old.Add(time.Duration(i)*time.Second))))
	}

	deleted, err := sessionRepo.DeleteSessionsBefore(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, total, deleted)

	recent, err := sessionRepo.RecentSessions(ctx, total)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestDeleteSessionsMissingIsNoop(t *testing.T) {
	sessionRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	assert.NoError(t, sessionRepo.DeleteSessions(context.Background(), "nobody"))
}

func corruptSession(t *testing.T, backend *Backend, id string) {
	t.Helper()
	err := backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSessionKey(id), []byte("{truncated")); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)
}
