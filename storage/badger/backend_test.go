package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_FileNotDirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	_, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	_, err = backend.FindSimilar(context.Background(), []float32{1}, 0, 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestFindSimilar_NoRecords(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_InvalidLimit(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.FindSimilar(context.Background(), []float32{1}, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestFindSimilar_WithPassages(t *testing.T) {
	sessionRepo, passageRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		passageRepo.Close()
		sessionRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	passages := []*core.Passage{
		{Content: "Punishment for murder", Vector: []float32{1.0, 0.0, 0.0}},
		{Content: "Punishment for culpable homicide", Vector: []float32{0.9, 0.1, 0.0}},
		{Content: "Right to equality", Vector: []float32{0.0, 0.0, 1.0}},
		{Content: "Passage without vector"},
	}

	added, err := passageRepo.AddPassages(ctx, passages...)
	require.NoError(t, err)
	require.Len(t, added, 4)

	results, err := backend.FindSimilar(ctx, []float32{1.0, 0.0, 0.0}, 0.8, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
	assert.Equal(t, "Punishment for murder", results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestFindSimilar_LimitResults(t *testing.T) {
	_, passageRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	for _, content := range []string{"a", "b", "c", "d", "e"} {
		_, err := passageRepo.AddPassages(ctx, &core.Passage{Content: content, Vector: []float32{1, 0}})
		require.NoError(t, err)
	}

	results, err := passageRepo.FindSimilar(ctx, []float32{1, 0}, 0, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Equal scores are ordered by ID
	for i := 0; i < len(results)-1; i++ {
		assert.Less(t, results[i].Id, results[i+1].Id)
	}
}

func TestDotProduct(t *testing.T) {
	assert.Equal(t, float32(11), dotProduct([]float32{1, 2}, []float32{3, 4}))
	assert.Equal(t, float32(3), dotProduct([]float32{1, 2, 5}, []float32{3}))
	assert.Zero(t, dotProduct(nil, []float32{1}))
}
