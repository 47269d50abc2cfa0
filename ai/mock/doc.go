// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	gen := mock.NewMockGenerator("Section 303 defines theft.")
//	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
//	    return "", errors.New("model offline")
//	}
//	count := gen.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Returns a fixed response and records prompts
//   - MockProvider: Aggregates mock embedder and generator
//
// All mocks are safe for concurrent use.
package mock
