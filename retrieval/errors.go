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

package retrieval

import "errors"

var (
	// ErrSearchProviderRequired is returned when a search provider is not provided.
	ErrSearchProviderRequired = errors.New("search provider required")

	// ErrInvalidPoolSize is returned when the worker pool size is below 1.
	ErrInvalidPoolSize = errors.New("pool size must be at least 1")

	// ErrInvalidWidth is returned when the per-query result width is below 1.
	ErrInvalidWidth = errors.New("search width must be at least 1")

	// ErrInvalidTopN is returned when the evidence cap is below 1.
	ErrInvalidTopN = errors.New("top-n must be at least 1")

	// ErrInvalidQueryTimeout is returned when the per-query timeout is not positive.
	ErrInvalidQueryTimeout = errors.New("query timeout must be positive")
)
