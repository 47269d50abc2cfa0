// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

// DefaultWindowSize is the number of exchanges kept in a rolling window.
const DefaultWindowSize = 10

// Manager owns session lifecycle on top of a SessionRepository.
// It holds no "current session"; callers carry a *Conversation per request.
type Manager struct {
	sessions   storage.SessionRepository
	logger     *slog.Logger
	windowSize int
	extractor  TopicExtractor
	now        func() time.Time
	locks      *sessionLocks
}

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithWindowSize sets the rolling window size.
// Default is DefaultWindowSize.
func WithWindowSize(size int) Option {
	return func(m *Manager) error {
		if size < 1 {
			return ErrInvalidWindowSize
		}
		m.windowSize = size
		return nil
	}
}

// WithTopicExtractor replaces the legal topic extractor.
func WithTopicExtractor(extractor TopicExtractor) Option {
	return func(m *Manager) error {
		if extractor == nil {
			return ErrTopicExtractorRequired
		}
		m.extractor = extractor
		return nil
	}
}

// WithClock sets the time source used for exchange timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}

// NewManager creates a new conversation manager.
func NewManager(sessions storage.SessionRepository, opts ...Option) (*Manager, error) {
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}

	m := &Manager{
		sessions:   sessions,
		logger:     slog.Default().With("component", "conversation-manager"),
		windowSize: DefaultWindowSize,
		extractor:  NewLegalTopicExtractor(),
		now:        time.Now,
		locks:      newSessionLocks(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Extractor returns the topic extractor shared by all conversations.
func (m *Manager) Extractor() TopicExtractor {
	return m.extractor
}

// StartNewSession returns a handle on a fresh session with an empty window.
// Nothing is persisted until the first exchange is added.
func (m *Manager) StartNewSession() *Conversation {
	conv := newConversation(uuid.NewString(), m.now().UTC(), m.windowSize, m.extractor)
	m.logger.Debug("started new session", "session", conv.ID())
	return conv
}

// StartSessionWithID returns a handle on a fresh session carrying a
// caller-supplied id, such as one minted earlier by StartNewSession that has
// not been persisted yet.
func (m *Manager) StartSessionWithID(id string) (*Conversation, error) {
	if err := core.ValidateSessionID(id); err != nil {
		return nil, err
	}
	return newConversation(id, m.now().UTC(), m.windowSize, m.extractor), nil
}

// LoadSession returns a handle on a persisted session.
// Returns false when the session is missing or its record is unreadable.
func (m *Manager) LoadSession(ctx context.Context, id string) (*Conversation, bool) {
	session, err := m.sessions.GetSession(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("failed to load session", "session", id, "err", err)
		}
		return nil, false
	}

	conv := newConversation(session.SessionID, session.CreatedAt, m.windowSize, m.extractor)
	conv.refresh(session)
	m.logger.Debug("loaded session", "session", id, "exchanges", len(session.Exchanges))
	return conv, true
}

// AddExchange appends a question/answer pair to the conversation's session
// and persists the full history. A nil conv starts a new session.
// Returns the (possibly new) handle, refreshed with the updated window.
//
// Writers to the same session are serialized and always extend the latest
// persisted record. If ctx is cancelled before the write commits, nothing is
// recorded.
func (m *Manager) AddExchange(ctx context.Context, conv *Conversation, question, response string, sources []core.SourceRef) (*Conversation, error) {
	if conv == nil {
		conv = m.StartNewSession()
	}

	unlock := m.locks.lock(conv.ID())
	defer unlock()

	session, err := m.sessions.GetSession(ctx, conv.ID())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		session = &core.Session{SessionID: conv.ID()}
	case err != nil:
		return conv, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	now := m.now().UTC()
	if sources == nil {
		sources = []core.SourceRef{}
	}
	exchange := core.Exchange{
		Timestamp:         now,
		UserQuestion:      question,
		AssistantResponse: response,
		Sources:           sources,
		ExchangeID:        len(session.Exchanges) + 1,
	}
	if err := core.ValidateExchange(&exchange); err != nil {
		return conv, err
	}

	if len(session.Exchanges) == 0 && session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.Exchanges = append(session.Exchanges, exchange)
	if now.After(session.LastUpdated) {
		session.LastUpdated = now
	}

	if err := m.sessions.SaveSession(ctx, session); err != nil {
		return conv, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	conv.refresh(session)
	m.logger.Debug("added exchange", "session", conv.ID(), "exchange", exchange.ExchangeID)
	return conv, nil
}

// History returns the full persisted exchange list of a session.
// Returns storage.ErrNotFound for unknown sessions.
func (m *Manager) History(ctx context.Context, id string) ([]core.Exchange, error) {
	session, err := m.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.Exchanges, nil
}

// RecentSessions lists sessions by last update, newest first.
func (m *Manager) RecentSessions(ctx context.Context, limit int) ([]core.SessionSummary, error) {
	return m.sessions.RecentSessions(ctx, limit)
}

// ClearOldSessions removes sessions not updated in the last daysOld days.
// Unreadable records are logged and left in place.
func (m *Manager) ClearOldSessions(ctx context.Context, daysOld int) (int, error) {
	if daysOld < 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := m.now().UTC().AddDate(0, 0, -daysOld)
	removed, err := m.sessions.DeleteSessionsBefore(ctx, cutoff)
	if err != nil {
		m.logger.Error("session sweep failed", "cutoff", cutoff, "removed", removed, "err", err)
		return removed, err
	}

	m.logger.Info("removed old sessions", "cutoff", cutoff, "removed", removed)
	return removed, nil
}
