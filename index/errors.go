package index

import "errors"

var (
	// ErrPassageRepositoryRequired is returned when a passage repository is not provided.
	ErrPassageRepositoryRequired = errors.New("passage repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrProviderRequired is returned when a search provider is not provided.
	ErrProviderRequired = errors.New("search provider required")

	// ErrInvalidFetchFactor is returned when the MMR over-fetch factor is below 1.
	ErrInvalidFetchFactor = errors.New("fetch factor must be at least 1")

	// ErrInvalidLambda is returned when the MMR lambda is outside [0, 1].
	ErrInvalidLambda = errors.New("lambda must be between 0 and 1")

	// ErrInvalidBatchSize is returned when a loader batch size is below 1.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")

	// ErrUnsupportedFilter is returned for metadata filters that are not string maps.
	ErrUnsupportedFilter = errors.New("unsupported metadata filter")
)
