package index

import (
	"context"

	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/retrieval"
)

// Provider is a searchable passage index that can also be filled and probed.
type Provider interface {
	retrieval.SearchProvider

	// IsEmpty reports whether the index holds no passages.
	IsEmpty(ctx context.Context) (bool, error)

	// Add embeds and stores passages. Content already present is overwritten.
	Add(ctx context.Context, passages ...*core.Passage) error
}
