package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lexrag/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultEmbeddingBatchSize caps how many passages go into one embeddings request.
const DefaultEmbeddingBatchSize = 64

var (
	// ErrEmptyText is returned when asked to embed blank text.
	ErrEmptyText = errors.New("cannot embed empty text")

	// ErrVectorCount is returned when the service answers with a different
	// number of vectors than texts sent.
	ErrVectorCount = errors.New("embedding service returned wrong number of vectors")
)

// Embedder implements ai.Embedder for questions and legal passages using an
// OpenAI-compatible embeddings endpoint.
type Embedder struct {
	client embeddings.Embedder
	logger *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	client, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(DefaultEmbeddingBatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return newEmbedderWithClient(client, config.EmbeddingModel), nil
}

func newEmbedderWithClient(client embeddings.Embedder, model string) *Embedder {
	return &Embedder{
		client: client,
		logger: slog.Default().With("component", "embedder", "model", model),
	}
}

// NewEmbedder creates an embedder from config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// NewEmbedderFromClient wraps an existing langchaingo embedder.
func NewEmbedderFromClient(client embeddings.Embedder) ai.Embedder {
	return newEmbedderWithClient(client, "custom")
}

// EmbedText embeds a single question or passage.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in order. Batching into requests of at most
// DefaultEmbeddingBatchSize is handled by the client.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: text %d", ErrEmptyText, i)
		}
	}

	vectors, err := e.client.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding request failed", "texts", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d for %d texts", ErrVectorCount, len(vectors), len(texts))
	}

	e.logger.Debug("embedded texts", "texts", len(texts))
	return vectors, nil
}
