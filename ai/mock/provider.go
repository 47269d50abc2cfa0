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

package mock

import (
	"sync/atomic"

	"github.com/poiesic/lexrag/ai"
)

// DefaultAnswer is what the generator of NewMockProvider returns.
const DefaultAnswer = "mock answer"

// MockProvider pairs a MockEmbedder with a MockGenerator and counts Close calls.
type MockProvider struct {
	Mocks struct {
		Embedder  *MockEmbedder
		Generator *MockGenerator
	}
	closes atomic.Int32
}

// NewMockProvider returns a provider whose generator always answers DefaultAnswer.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockGenerator(DefaultAnswer))
}

// NewMockProviderWithServices builds a provider around the given doubles.
func NewMockProviderWithServices(embedder *MockEmbedder, generator *MockGenerator) ai.AIProvider {
	p := &MockProvider{}
	p.Mocks.Embedder = embedder
	p.Mocks.Generator = generator
	return p
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.Mocks.Embedder
}

func (p *MockProvider) Generator() ai.Generator {
	return p.Mocks.Generator
}

func (p *MockProvider) Close() error {
	p.closes.Add(1)
	return nil
}

// Closes reports how many times Close was called.
func (p *MockProvider) Closes() int {
	return int(p.closes.Load())
}
