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

package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/convo"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/expand"
)

const (
	// DefaultMaxAttempts bounds generation calls per question.
	DefaultMaxAttempts = 2

	// DefaultRetryDelay is the base backoff between generation attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Retriever turns expanded queries into ranked evidence.
type Retriever interface {
	Retrieve(ctx context.Context, queries []string) ([]core.Candidate, error)
}

// Response is the result of answering one question.
type Response struct {
	Answer     string           `json:"answer"`
	Sources    []core.SourceRef `json:"sources"`
	SessionID  string           `json:"session_id"`
	IsFollowUp bool             `json:"is_follow_up"`
	// Degraded is set when generation failed and Answer describes the failure.
	Degraded bool `json:"degraded,omitempty"`
}

// Orchestrator answers questions by chaining conversation context, query
// expansion, retrieval and generation, then records the exchange.
type Orchestrator struct {
	manager     *convo.Manager
	expander    *expand.Expander
	retriever   Retriever
	generator   ai.Generator
	maxSources  int
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "answer-orchestrator")
		return nil
	}
}

// WithMaxSources sets how many top candidates are considered for citation.
// Default is DefaultMaxSources.
func WithMaxSources(n int) Option {
	return func(o *Orchestrator) error {
		o.maxSources = max(n, 0)
		return nil
	}
}

// WithRetry sets the generation retry policy.
// Defaults are DefaultMaxAttempts and DefaultRetryDelay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(o *Orchestrator) error {
		if maxAttempts <= 0 {
			return ai.ErrInvalidMaxAttempts
		}
		o.maxAttempts = maxAttempts
		o.retryDelay = baseDelay
		return nil
	}
}

// NewOrchestrator creates an orchestrator from its collaborators.
func NewOrchestrator(
	manager *convo.Manager,
	expander *expand.Expander,
	retriever Retriever,
	generator ai.Generator,
	opts ...Option,
) (*Orchestrator, error) {
	if manager == nil {
		return nil, ErrManagerRequired
	}
	if expander == nil {
		return nil, ErrExpanderRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	o := &Orchestrator{
		manager:     manager,
		expander:    expander,
		retriever:   retriever,
		generator:   generator,
		maxSources:  DefaultMaxSources,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default().With("component", "answer-orchestrator"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// AnswerQuestion answers question within the session sessionID.
// An empty sessionID starts a new session. An id with no persisted record
// (for example one minted by StartNewSession) starts that session fresh.
//
// Only input errors and caller cancellation are returned as errors. Finding
// no evidence yields NoInformationAnswer; a failing model yields a Degraded
// response. Neither is recorded in the session. A failure to record a
// successful exchange is logged and the answer is still returned.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, question, sessionID string) (*Response, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	conv, err := o.conversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With("session", conv.ID())

	isFollowUp := conv.IsFollowUp(question)
	summary := conv.ContextSummary()

	o.enter(logger, StageRetrieving)
	queries := o.expander.Expand(question, conv.QueryVariations(question))
	evidence, err := o.retriever.Retrieve(ctx, queries)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		SessionID:  conv.ID(),
		IsFollowUp: isFollowUp,
		Sources:    []core.SourceRef{},
	}

	if len(evidence) == 0 {
		o.enter(logger, StageEmpty)
		resp.Answer = NoInformationAnswer
		o.enter(logger, StageDone)
		return resp, nil
	}

	o.enter(logger, StageRanking)
	prompt := BuildPrompt(question, EvidenceContext(evidence), summary, isFollowUp)

	o.enter(logger, StageGenerating)
	raw, err := o.generate(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Error("generation failed", "attempts", o.maxAttempts, "err", err)
		resp.Answer = fmt.Sprintf(degradedAnswerFormat, err)
		resp.Degraded = true
		o.enter(logger, StageDone)
		return resp, nil
	}

	o.enter(logger, StageSanitizing)
	resp.Answer = Sanitize(raw)
	resp.Sources = Sources(evidence, o.maxSources)

	o.enter(logger, StagePersisting)
	if _, err := o.manager.AddExchange(ctx, conv, question, resp.Answer, resp.Sources); err != nil {
		logger.Error("failed to record exchange", "err", err)
	}

	o.enter(logger, StageDone)
	return resp, nil
}

// conversation resolves sessionID to a handle.
func (o *Orchestrator) conversation(ctx context.Context, sessionID string) (*convo.Conversation, error) {
	if sessionID == "" {
		return o.manager.StartNewSession(), nil
	}
	if conv, ok := o.manager.LoadSession(ctx, sessionID); ok {
		return conv, nil
	}
	o.logger.Info("session not found, starting it fresh", "session", sessionID)
	return o.manager.StartSessionWithID(sessionID)
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		text, err = o.generator.Generate(ctx, prompt)
		return err
	}, o.maxAttempts, o.retryDelay)
	return text, err
}

func (o *Orchestrator) enter(logger *slog.Logger, stage Stage) {
	logger.Debug("answer stage", "stage", stage)
}
