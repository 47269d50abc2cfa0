package convo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
	"github.com/poiesic/lexrag/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out increasing timestamps in the past.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// faultyRepo injects failures into a real repository.
type faultyRepo struct {
	storage.SessionRepository
	getErr  error
	saveErr error
}

func (f *faultyRepo) GetSession(ctx context.Context, id string) (*core.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.SessionRepository.GetSession(ctx, id)
}

func (f *faultyRepo) SaveSession(ctx context.Context, session *core.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.SessionRepository.SaveSession(ctx, session)
}

func setupManager(t *testing.T, opts ...Option) (*Manager, storage.SessionRepository) {
	t.Helper()
	sessions, passages, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		passages.Close()
		sessions.Close()
		backend.Close()
	})

	m, err := NewManager(sessions, opts...)
	require.NoError(t, err)
	return m, sessions
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(nil)
	assert.ErrorIs(t, err, ErrSessionRepositoryRequired)

	sessions, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewManager(sessions, WithWindowSize(0))
	assert.ErrorIs(t, err, ErrInvalidWindowSize)

	_, err = NewManager(sessions, WithTopicExtractor(nil))
	assert.ErrorIs(t, err, ErrTopicExtractorRequired)

	m, err := NewManager(sessions, WithLogger(nil), WithClock(nil))
	require.NoError(t, err)
	assert.NotNil(t, m.Extractor())
}

func TestStartNewSession(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	a := m.StartNewSession()
	b := m.StartNewSession()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEmpty(t, a.ID())
	assert.Empty(t, a.Window())
	assert.False(t, a.HasHistory())

	// Not persisted until the first exchange
	_, err := m.History(ctx, a.ID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStartSessionWithID(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, err := m.StartSessionWithID(" ")
	assert.ErrorIs(t, err, core.ErrEmptySessionID)

	minted := m.StartNewSession().ID()
	conv, err := m.StartSessionWithID(minted)
	require.NoError(t, err)
	assert.Equal(t, minted, conv.ID())
	assert.False(t, conv.HasHistory())

	_, err = m.AddExchange(ctx, conv, "What is Article 21?", "Article 21 protects life.", nil)
	require.NoError(t, err)

	loaded, ok := m.LoadSession(ctx, minted)
	require.True(t, ok)
	assert.Equal(t, 1, loaded.TotalExchanges())
}

func TestAddExchange_SequentialIDs(t *testing.T) {
	clock := newFakeClock(time.Now().Add(-time.Hour))
	m, _ := setupManager(t, WithClock(clock.Now))
	ctx := context.Background()

	conv := m.StartNewSession()
	for i := range 12 {
		clock.Advance(time.Second)
		var err error
		conv, err = m.AddExchange(ctx, conv, fmt.Sprintf("question %d", i), "answer", nil)
		require.NoError(t, err)
	}

	history, err := m.History(ctx, conv.ID())
	require.NoError(t, err)
	require.Len(t, history, 12, "persisted history is never pruned")
	for i, ex := range history {
		assert.Equal(t, i+1, ex.ExchangeID)
		assert.NotNil(t, ex.Sources)
	}

	window := conv.Window()
	require.Len(t, window, DefaultWindowSize)
	assert.Equal(t, 3, window[0].ExchangeID)
	assert.Equal(t, 12, conv.TotalExchanges())
}

func TestAddExchange_NilConversationStartsSession(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	conv, err := m.AddExchange(ctx, nil, "What is Article 21?", "Article 21 protects life and liberty.", nil)
	require.NoError(t, err)
	require.NotNil(t, conv)

	history, err := m.History(ctx, conv.ID())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].ExchangeID)
}

func TestAddExchange_RejectsBlankQuestion(t *testing.T) {
	m, _ := setupManager(t)

	_, err := m.AddExchange(context.Background(), m.StartNewSession(), "  ", "answer", nil)
	assert.ErrorIs(t, err, core.ErrEmptyQuestion)
}

func TestAddExchange_LastUpdatedNeverMovesBackwards(t *testing.T) {
	start := time.Now().Add(-time.Hour).UTC()
	clock := newFakeClock(start)
	m, sessions := setupManager(t, WithClock(clock.Now))
	ctx := context.Background()

	conv, err := m.AddExchange(ctx, nil, "first", "answer", nil)
	require.NoError(t, err)

	clock.Set(start.Add(-time.Minute))
	_, err = m.AddExchange(ctx, conv, "second", "answer", nil)
	require.NoError(t, err)

	session, err := sessions.GetSession(ctx, conv.ID())
	require.NoError(t, err)
	assert.True(t, session.LastUpdated.Equal(start))
	assert.True(t, session.CreatedAt.Equal(start))
	assert.Equal(t, 2, session.TotalExchanges)
}

func TestAddExchange_CancelledContextCommitsNothing(t *testing.T) {
	m, _ := setupManager(t)

	conv, err := m.AddExchange(context.Background(), nil, "first", "answer", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.AddExchange(ctx, conv, "second", "answer", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	history, err := m.History(context.Background(), conv.ID())
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, conv.TotalExchanges())
}

func TestAddExchange_StorageFailure(t *testing.T) {
	sessions, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	repo := &faultyRepo{SessionRepository: sessions, saveErr: errors.New("disk full")}
	m, err := NewManager(repo)
	require.NoError(t, err)

	_, err = m.AddExchange(context.Background(), nil, "question", "answer", nil)
	assert.ErrorIs(t, err, ErrPersistFailed)
}

func TestAddExchange_ConcurrentWritersSameSession(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	conv, err := m.AddExchange(ctx, nil, "seed", "answer", nil)
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each writer holds its own handle on the same session
			handle, ok := m.LoadSession(ctx, conv.ID())
			if !assert.True(t, ok) {
				return
			}
			_, err := m.AddExchange(ctx, handle, fmt.Sprintf("question %d", i), "answer", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := m.History(ctx, conv.ID())
	require.NoError(t, err)
	require.Len(t, history, writers+1, "no update is lost")
	for i, ex := range history {
		assert.Equal(t, i+1, ex.ExchangeID)
	}
	assert.Zero(t, m.locks.size(), "lock table drains after writers finish")
}

func TestLoadSession(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	_, ok := m.LoadSession(ctx, "does-not-exist")
	assert.False(t, ok)

	conv, err := m.AddExchange(ctx, nil, "What is TDS?", "TDS is tax deducted at source.", []core.SourceRef{
		{FileName: "income_tax_act.pdf", DocumentType: "Income Tax", PageNumber: "200", ContentPreview: "Deduction at source..."},
	})
	require.NoError(t, err)

	first, ok := m.LoadSession(ctx, conv.ID())
	require.True(t, ok)
	second, ok := m.LoadSession(ctx, conv.ID())
	require.True(t, ok)

	assert.Equal(t, first.Window(), second.Window(), "loading twice yields identical state")
	assert.Equal(t, conv.ID(), first.ID())
	require.Len(t, first.Window(), 1)
	assert.Equal(t, "income_tax_act.pdf", first.Window()[0].Sources[0].FileName)
	assert.True(t, first.IsFollowUp("what about penalties?"))
}

func TestLoadSession_UnreadableRecord(t *testing.T) {
	sessions, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	repo := &faultyRepo{SessionRepository: sessions, getErr: storage.ErrSerializationFailed}
	m, err := NewManager(repo)
	require.NoError(t, err)

	_, ok := m.LoadSession(context.Background(), "any")
	assert.False(t, ok)
}

func TestRecentSessions(t *testing.T) {
	clock := newFakeClock(time.Now().Add(-time.Hour))
	m, _ := setupManager(t, WithClock(clock.Now))
	ctx := context.Background()

	first, err := m.AddExchange(ctx, nil, "What is Article 14?", "Article 14 guarantees equality.", nil)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := m.AddExchange(ctx, nil, "What is Section 63?", "Section 63 defines rape.", nil)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = m.AddExchange(ctx, first, "What about Article 15?", "Article 15 prohibits discrimination.", nil)
	require.NoError(t, err)

	recent, err := m.RecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, first.ID(), recent[0].SessionID)
	assert.Equal(t, "What is Article 14?", recent[0].Preview)
	assert.Equal(t, 2, recent[0].TotalExchanges)
	assert.Equal(t, second.ID(), recent[1].SessionID)
}

func TestClearOldSessions(t *testing.T) {
	now := time.Now().UTC()
	clock := newFakeClock(now.AddDate(0, 0, -40))
	m, _ := setupManager(t, WithClock(clock.Now))
	ctx := context.Background()

	old, err := m.AddExchange(ctx, nil, "old question", "answer", nil)
	require.NoError(t, err)

	clock.Set(now.Add(-time.Hour))
	fresh, err := m.AddExchange(ctx, nil, "fresh question", "answer", nil)
	require.NoError(t, err)

	_, err = m.ClearOldSessions(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidRetention)

	removed, err := m.ClearOldSessions(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = m.History(ctx, old.ID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = m.History(ctx, fresh.ID())
	assert.NoError(t, err)
}
