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

package lexrag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/ai/openai"
	"github.com/poiesic/lexrag/answer"
	"github.com/poiesic/lexrag/convo"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/expand"
	"github.com/poiesic/lexrag/index"
	"github.com/poiesic/lexrag/retrieval"
	"github.com/poiesic/lexrag/storage"
	"github.com/poiesic/lexrag/storage/badger"
)

// Assistant answers legal questions over a local passage index and keeps
// conversation history. It is the entry point for CLI and HTTP front ends.
type Assistant struct {
	backend      *badger.Backend
	sessionRepo  storage.SessionRepository
	passageRepo  storage.PassageRepository
	provider     ai.AIProvider
	manager      *convo.Manager
	index        *index.Store
	retriever    *retrieval.Retriever
	orchestrator *answer.Orchestrator
	logger       *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	inMemory      bool
	convoOpts     []convo.Option
	expandOpts    []expand.Option
	storeOpts     []index.StoreOption
	retrievalOpts []retrieval.Option
	answerOpts    []answer.Option
}

// WithAIConfig sets the configuration for the OpenAI-compatible provider.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider uses provider instead of building one from the AI config.
// The Assistant takes ownership and closes it.
func WithAIProvider(provider ai.AIProvider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory; the path is ignored.
func WithInMemory() AssistantOption {
	return func(o *assistantOptions) {
		o.inMemory = true
	}
}

// WithConversationOptions passes options to the conversation manager.
func WithConversationOptions(opts ...convo.Option) AssistantOption {
	return func(o *assistantOptions) {
		o.convoOpts = append(o.convoOpts, opts...)
	}
}

// WithExpansionOptions passes options to the query expander.
func WithExpansionOptions(opts ...expand.Option) AssistantOption {
	return func(o *assistantOptions) {
		o.expandOpts = append(o.expandOpts, opts...)
	}
}

// WithIndexOptions passes options to the passage index.
func WithIndexOptions(opts ...index.StoreOption) AssistantOption {
	return func(o *assistantOptions) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// WithRetrievalOptions passes options to the retriever.
func WithRetrievalOptions(opts ...retrieval.Option) AssistantOption {
	return func(o *assistantOptions) {
		o.retrievalOpts = append(o.retrievalOpts, opts...)
	}
}

// WithAnswerOptions passes options to the answer orchestrator.
func WithAnswerOptions(opts ...answer.Option) AssistantOption {
	return func(o *assistantOptions) {
		o.answerOpts = append(o.answerOpts, opts...)
	}
}

// NewAssistant opens (or creates) the database at filePath and wires the
// answering pipeline on top of it.
func NewAssistant(filePath string, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	a := &Assistant{
		backend: backend,
		logger:  slog.Default().With("component", "assistant"),
	}
	if err := a.wire(options); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// wire builds every component after the backend is open. On error the
// caller closes whatever was built.
func (a *Assistant) wire(options *assistantOptions) error {
	var err error
	if a.sessionRepo, err = badger.NewSessionRepository(a.backend); err != nil {
		return err
	}
	if a.passageRepo, err = badger.NewPassageRepository(a.backend); err != nil {
		return err
	}

	a.provider = options.provider
	if a.provider == nil {
		if a.provider, err = openai.NewProvider(options.aiConfig); err != nil {
			return err
		}
	}

	if a.manager, err = convo.NewManager(a.sessionRepo, options.convoOpts...); err != nil {
		return err
	}
	expander, err := expand.NewExpander(options.expandOpts...)
	if err != nil {
		return err
	}
	if a.index, err = index.NewStore(a.passageRepo, a.provider.Embedder(), options.storeOpts...); err != nil {
		return err
	}

	// One search per expanded query can run at once
	retrievalOpts := append([]retrieval.Option{retrieval.WithPoolSize(expander.MaxQueries())}, options.retrievalOpts...)
	if a.retriever, err = retrieval.NewRetriever(a.index, retrievalOpts...); err != nil {
		return err
	}

	a.orchestrator, err = answer.NewOrchestrator(a.manager, expander, a.retriever, a.provider.Generator(), options.answerOpts...)
	return err
}

// Close releases the worker pool, the AI provider and storage.
func (a *Assistant) Close() error {
	if a.retriever != nil {
		a.retriever.Close()
	}

	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
		}
	}

	if a.passageRepo != nil {
		if err := a.passageRepo.Close(); err != nil {
			a.logger.Error("error closing passage repository", "err", err)
			return err
		}
	}
	if a.sessionRepo != nil {
		if err := a.sessionRepo.Close(); err != nil {
			a.logger.Error("error closing session repository", "err", err)
			return err
		}
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// AnswerQuestion answers question in the session sessionID, or in a new
// session when sessionID is empty.
func (a *Assistant) AnswerQuestion(ctx context.Context, question, sessionID string) (*answer.Response, error) {
	return a.orchestrator.AnswerQuestion(ctx, question, sessionID)
}

// NewSession mints a session id. The session is stored with its first answer.
func (a *Assistant) NewSession() string {
	return a.manager.StartNewSession().ID()
}

// GetHistory returns every exchange of a session, oldest first.
// Returns ErrSessionNotFound for unknown sessions.
func (a *Assistant) GetHistory(ctx context.Context, sessionID string) ([]core.Exchange, error) {
	history, err := a.manager.History(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}
	return history, err
}

// ListRecentSessions lists up to limit sessions, most recently updated first.
func (a *Assistant) ListRecentSessions(ctx context.Context, limit int) ([]core.SessionSummary, error) {
	return a.manager.RecentSessions(ctx, limit)
}

// ClearOldSessions deletes sessions idle for more than daysOld days and
// returns how many were removed.
func (a *Assistant) ClearOldSessions(ctx context.Context, daysOld int) (int, error) {
	return a.manager.ClearOldSessions(ctx, daysOld)
}

// LoadPassages adds the JSON-lines passage file at path to the index.
func (a *Assistant) LoadPassages(ctx context.Context, path string, opts ...index.LoaderOption) (index.LoadStats, error) {
	loader, err := index.NewLoader(a.index, opts...)
	if err != nil {
		return index.LoadStats{}, err
	}
	defer loader.Close()
	return loader.LoadFile(ctx, path)
}

// IndexEmpty reports whether no passages have been loaded.
func (a *Assistant) IndexEmpty(ctx context.Context) (bool, error) {
	return a.index.IsEmpty(ctx)
}

// PassageCount returns the number of indexed passages.
func (a *Assistant) PassageCount(ctx context.Context) (int, error) {
	return a.index.Count(ctx)
}
