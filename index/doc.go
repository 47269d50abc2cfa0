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

// Package index provides semantic search providers over legal passages.
//
// Store is the reference provider: passages live in a storage.PassageRepository
// with unit-length embedding vectors, and a search embeds the query, scores
// every stored passage by cosine similarity, over-fetches three times the
// requested width and narrows the pool with maximal marginal relevance
// (lambda 0.6) so near-identical chunks do not crowd the evidence. Store also
// satisfies langchaingo's vectorstores.VectorStore.
//
// VectorStoreProvider goes the other way and lets any langchaingo vector
// store serve retrieval.
//
// Loader fills a provider from JSON-lines files of pre-chunked passages:
//
//	loader, _ := index.NewLoader(store, index.WithProgress(os.Stderr, 100))
//	defer loader.Close()
//	stats, err := loader.LoadFile(ctx, "passages.jsonl")
package index
