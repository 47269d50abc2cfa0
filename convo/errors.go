package convo

import "errors"

var (
	// ErrSessionRepositoryRequired is returned when a session repository is not provided.
	ErrSessionRepositoryRequired = errors.New("session repository required")

	// ErrTopicExtractorRequired is returned when WithTopicExtractor is given nil.
	ErrTopicExtractorRequired = errors.New("topic extractor required")

	// ErrInvalidWindowSize is returned when the rolling window size is below 1.
	ErrInvalidWindowSize = errors.New("window size must be at least 1")

	// ErrInvalidRetention is returned when a sweep is asked for a negative age.
	ErrInvalidRetention = errors.New("retention days cannot be negative")

	// ErrPersistFailed wraps storage failures while recording an exchange.
	ErrPersistFailed = errors.New("failed to persist exchange")
)
