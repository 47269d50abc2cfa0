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

package badger

import (
	"fmt"

	"github.com/poiesic/lexrag/storage"
)

// NewMemoryRepositories opens a throwaway in-memory database with the session
// and passage repositories on it. Close the repositories before the backend.
func NewMemoryRepositories() (storage.SessionRepository, storage.PassageRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("in-memory backend: %w", err)
	}

	sessions, err := NewSessionRepository(backend)
	if err == nil {
		var passages *PassageRepository
		if passages, err = NewPassageRepository(backend); err == nil {
			return sessions, passages, backend, nil
		}
		sessions.Close()
	}
	backend.Close()
	return nil, nil, nil, err
}
