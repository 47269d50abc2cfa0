package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

const (
	// DefaultFetchFactor is how many candidates are scored per requested
	// result before MMR selection.
	DefaultFetchFactor = 3

	// DefaultLambda weights relevance against diversity in MMR selection.
	DefaultLambda = 0.6

	// DefaultMaxAttempts bounds embedding calls.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the base backoff delay between embedding attempts.
	DefaultRetryDelay = time.Second
)

// Store is a Provider over a storage.PassageRepository. It runs exact cosine
// search over normalized vectors and diversifies the result with MMR.
type Store struct {
	passages      storage.PassageRepository
	embedder      ai.Embedder
	fetchFactor   int
	lambda        float32
	minSimilarity float32
	maxAttempts   int
	retryDelay    time.Duration
	logger        *slog.Logger
}

var _ Provider = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "passage-index")
		return nil
	}
}

// WithFetchFactor sets the over-fetch multiplier used before MMR.
// Default is DefaultFetchFactor.
func WithFetchFactor(factor int) StoreOption {
	return func(s *Store) error {
		if factor < 1 {
			return ErrInvalidFetchFactor
		}
		s.fetchFactor = factor
		return nil
	}
}

// WithLambda sets the MMR relevance weight.
// Default is DefaultLambda.
func WithLambda(lambda float32) StoreOption {
	return func(s *Store) error {
		if lambda < 0 || lambda > 1 {
			return ErrInvalidLambda
		}
		s.lambda = lambda
		return nil
	}
}

// WithMinSimilarity drops passages scoring below threshold.
// Default is -1, which keeps everything.
func WithMinSimilarity(threshold float32) StoreOption {
	return func(s *Store) error {
		s.minSimilarity = threshold
		return nil
	}
}

// WithRetry sets the embedding retry policy.
// Defaults are DefaultMaxAttempts and DefaultRetryDelay.
func WithRetry(maxAttempts int, baseDelay time.Duration) StoreOption {
	return func(s *Store) error {
		if maxAttempts <= 0 {
			return ai.ErrInvalidMaxAttempts
		}
		s.maxAttempts = maxAttempts
		s.retryDelay = baseDelay
		return nil
	}
}

// NewStore creates a passage index over passages using embedder for vectors.
func NewStore(passages storage.PassageRepository, embedder ai.Embedder, opts ...StoreOption) (*Store, error) {
	if passages == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Store{
		passages:      passages,
		embedder:      embedder,
		fetchFactor:   DefaultFetchFactor,
		lambda:        DefaultLambda,
		minSimilarity: -1,
		maxAttempts:   DefaultMaxAttempts,
		retryDelay:    DefaultRetryDelay,
		logger:        slog.Default().With("component", "passage-index"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search embeds query, scores fetchFactor*width passages and returns up to
// width of them chosen by maximal marginal relevance.
func (s *Store) Search(ctx context.Context, query string, width int) ([]core.Passage, error) {
	hits, err := s.similar(ctx, query, width*s.fetchFactor, s.minSimilarity)
	if err != nil {
		return nil, err
	}

	selected := MaxMarginalRelevance(hits, width, s.lambda)
	results := make([]core.Passage, len(selected))
	for i, p := range selected {
		results[i] = *p
	}

	s.logger.Debug("search complete", "query", query, "scored", len(hits), "returned", len(results))
	return results, nil
}

// similar returns up to limit passages ordered by similarity to query.
func (s *Store) similar(ctx context.Context, query string, limit int, threshold float32) ([]*core.Passage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: width must be positive", storage.ErrInvalidQuery)
	}

	var vector []float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = s.embedder.EmbedText(ctx, query)
		return err
	}, s.maxAttempts, s.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.passages.FindSimilar(ctx, NormalizeVector(vector), threshold, limit)
}

// IsEmpty reports whether no passages are stored.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Count returns the number of stored passages.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.passages.CountPassages(ctx)
}

// Add embeds passages in one batch, normalizes the vectors and stores them.
// Passage IDs are derived from content, so re-adding is idempotent.
func (s *Store) Add(ctx context.Context, passages ...*core.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	for _, p := range passages {
		if err := core.ValidatePassage(p); err != nil {
			return err
		}
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}

	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = s.embedder.EmbedTexts(ctx, texts)
		return err
	}, s.maxAttempts, s.retryDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", s.maxAttempts, err)
	}
	if len(vectors) != len(passages) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(passages), len(vectors))
	}

	for i, p := range passages {
		p.Vector = NormalizeVector(vectors[i])
	}

	if _, err := s.passages.AddPassages(ctx, passages...); err != nil {
		return fmt.Errorf("failed to store passages: %w", err)
	}

	s.logger.Debug("passages added", "count", len(passages))
	return nil
}
