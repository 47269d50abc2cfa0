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

// Package storage provides the storage abstraction layer for lexrag.
//
// This package defines repository interfaces that decouple the session store
// and the passage store from the conversation and retrieval logic that uses
// them.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - Repository: lifecycle shared by all repositories
//   - SessionRepository: persisted conversation sessions (one record per session)
//   - PassageRepository: indexed document passages with embedding vectors
//
// # Record Format
//
// Sessions are stored as JSON documents:
//
//	{
//	  "session_id": "...",
//	  "created_at": "...",
//	  "last_updated": "...",
//	  "total_exchanges": 2,
//	  "exchanges": [{"timestamp": "...", "user_question": "...", ...}]
//	}
//
// The same document is returned to HTTP clients as conversation history, so
// the format is part of the public contract.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	sessions, passages, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Serializing
// read-modify-write cycles on a single session is the caller's job.
package storage
