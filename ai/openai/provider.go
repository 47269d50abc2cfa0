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

package openai

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/lexrag/ai"
)

// ErrConfigRequired is returned when NewProvider is given a nil config.
var ErrConfigRequired = errors.New("ai config is required")

// Provider bundles the question/passage embedder and the answer generator
// built from one ai.Config. The two services may live on different hosts.
type Provider struct {
	embedder  ai.Embedder
	generator ai.Generator
	logger    *slog.Logger
}

// NewProvider validates config and connects both services.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	generator, err := newGenerator(config)
	if err != nil {
		return nil, fmt.Errorf("generation service: %w", err)
	}

	logger := slog.Default().With("component", "ai-provider")
	logger.Debug("AI services configured",
		"embedding_host", config.EmbeddingHost,
		"embedding_model", config.EmbeddingModel,
		"generator_host", config.GeneratorHost,
		"generator_model", config.GeneratorModel)

	return &Provider{
		embedder:  embedder,
		generator: generator,
		logger:    logger,
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the answer generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the HTTP clients hold no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("AI provider closed")
	return nil
}
