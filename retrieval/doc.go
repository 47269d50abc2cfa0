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

// Package retrieval runs a set of expanded queries against a search provider
// and merges the results into one ranked evidence list.
//
// Each query runs on a bounded ants worker pool under its own timeout. A query
// that fails or times out is logged and skipped without affecting its
// siblings. Once every query has finished, the calling goroutine merges the
// per-query results in query order, drops passages whose content fingerprint
// was already seen, sorts by the index of the originating query and keeps the
// top N (ten by default).
//
// Ranking is coarse: every passage found by the user's own wording
// outranks every passage found only through a rewrite.
package retrieval
