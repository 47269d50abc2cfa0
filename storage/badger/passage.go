package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

// PassageRepository implements storage.PassageRepository for BadgerDB.
type PassageRepository struct {
	backend *Backend
}

var _ storage.PassageRepository = (*PassageRepository)(nil)

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(backend *Backend) (*PassageRepository, error) {
	return &PassageRepository{
		backend: backend,
	}, nil
}

// Close releases resources. PassageRepository has no resources to release.
func (r *PassageRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *PassageRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.Passage, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// AddPassages adds one or more passages to storage.
func (r *PassageRepository) AddPassages(ctx context.Context, passages ...*core.Passage) ([]*core.Passage, error) {
	for _, passage := range passages {
		if err := core.ValidatePassage(passage); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, passage := range passages {
			if err := ctx.Err(); err != nil {
				return err
			}

			// Content-based ID makes re-ingestion idempotent
			passage.Id = core.IDFromContent(passage.Content)

			value, err := storage.MarshalPassage(passage)
			if err != nil {
				return err
			}
			if err := tx.Set(makePassageKey(passage.Id), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return passages, nil
}

// GetPassages retrieves multiple passages by their IDs.
func (r *PassageRepository) GetPassages(ctx context.Context, ids ...core.ID) ([]*core.Passage, error) {
	var result []*core.Passage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			value, err := readValue(tx, makePassageKey(id))
			if err != nil {
				return err
			}
			if value == nil {
				continue
			}
			passage, err := storage.UnmarshalPassage(value)
			if err != nil {
				return err
			}
			result = append(result, passage)
		}
		return nil
	}, false)
	return result, err
}

// CountPassages returns the number of stored passages.
func (r *PassageRepository) CountPassages(ctx context.Context) (int, error) {
	return r.backend.countPrefix(ctx, []byte(passagePrefix+":"))
}
