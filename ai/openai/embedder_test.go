package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient stands in for a langchaingo embeddings.Embedder.
type stubClient struct {
	vectors [][]float32
	err     error
	calls   int
}

func (s *stubClient) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.vectors != nil {
		return s.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (s *stubClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	client := &stubClient{}
	e := NewEmbedderFromClient(client)

	vectors, err := e.EmbedTexts(context.Background(), []string{"Section 101", "Article 21"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, vectors)

	vector, err := e.EmbedText(context.Background(), "What is murder?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vector)
	assert.Equal(t, 2, client.calls)
}

func TestEmbedder_NoTexts(t *testing.T) {
	client := &stubClient{}
	e := NewEmbedderFromClient(client)

	vectors, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, client.calls)
}

func TestEmbedder_BlankText(t *testing.T) {
	client := &stubClient{}
	e := NewEmbedderFromClient(client)

	_, err := e.EmbedTexts(context.Background(), []string{"Section 101", " \n"})
	assert.ErrorIs(t, err, ErrEmptyText)
	_, err = e.EmbedText(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Zero(t, client.calls)
}

func TestEmbedder_WrongVectorCount(t *testing.T) {
	e := NewEmbedderFromClient(&stubClient{vectors: [][]float32{{1}}})

	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrVectorCount)

	_, err = NewEmbedderFromClient(&stubClient{vectors: [][]float32{}}).EmbedText(context.Background(), "a")
	assert.ErrorIs(t, err, ErrVectorCount)
}

func TestEmbedder_ServiceError(t *testing.T) {
	boom := errors.New("connection refused")
	e := NewEmbedderFromClient(&stubClient{err: boom})

	_, err := e.EmbedText(context.Background(), "Section 101")
	assert.ErrorIs(t, err, boom)
}
