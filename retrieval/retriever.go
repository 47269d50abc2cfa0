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

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexrag/core"
)

const (
	// DefaultPoolSize matches the default expansion cap so one question's
	// queries run together.
	DefaultPoolSize = 5

	// DefaultWidth is the number of passages requested per query.
	DefaultWidth = 8

	// DefaultTopN is the number of candidates kept after ranking.
	DefaultTopN = 10

	// DefaultQueryTimeout bounds a single provider search.
	DefaultQueryTimeout = 20 * time.Second

	// DefaultFingerprintPrefix is the number of leading runes hashed for dedup.
	DefaultFingerprintPrefix = 500
)

// SearchProvider performs similarity search over indexed passages.
// Implementations must be safe for concurrent use.
type SearchProvider interface {
	// Search returns up to width passages relevant to query, best first.
	Search(ctx context.Context, query string, width int) ([]core.Passage, error)
}

// Retriever fans expanded queries out to a SearchProvider and merges the results.
type Retriever struct {
	provider          SearchProvider
	pool              *ants.Pool
	width             int
	topN              int
	queryTimeout      time.Duration
	fingerprintPrefix int
	monitor           RetrievalMonitor
	logger            *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "retriever")
		return nil
	}
}

// WithPoolSize sets the number of searches that may run at once.
// Default is DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(r *Retriever) error {
		if size < 1 {
			return ErrInvalidPoolSize
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		// Release old pool
		if r.pool != nil {
			r.pool.Release()
		}
		r.pool = pool
		return nil
	}
}

// WithWidth sets how many passages are requested per query.
// Default is DefaultWidth.
func WithWidth(width int) Option {
	return func(r *Retriever) error {
		if width < 1 {
			return ErrInvalidWidth
		}
		r.width = width
		return nil
	}
}

// WithTopN sets how many candidates survive ranking.
// Default is DefaultTopN.
func WithTopN(n int) Option {
	return func(r *Retriever) error {
		if n < 1 {
			return ErrInvalidTopN
		}
		r.topN = n
		return nil
	}
}

// WithQueryTimeout bounds each provider search.
// Default is DefaultQueryTimeout.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(r *Retriever) error {
		if timeout <= 0 {
			return ErrInvalidQueryTimeout
		}
		r.queryTimeout = timeout
		return nil
	}
}

// WithFingerprintPrefix sets how many leading runes identify a passage.
// Zero or less hashes the whole content.
// Default is DefaultFingerprintPrefix.
func WithFingerprintPrefix(runes int) Option {
	return func(r *Retriever) error {
		r.fingerprintPrefix = runes
		return nil
	}
}

// WithMonitor installs a monitor used when Retrieve is called.
func WithMonitor(monitor RetrievalMonitor) Option {
	return func(r *Retriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// NewRetriever creates a retriever backed by provider.
// Call Close to release the worker pool.
func NewRetriever(provider SearchProvider, opts ...Option) (*Retriever, error) {
	if provider == nil {
		return nil, ErrSearchProviderRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}

	r := &Retriever{
		provider:          provider,
		pool:              pool,
		width:             DefaultWidth,
		topN:              DefaultTopN,
		queryTimeout:      DefaultQueryTimeout,
		fingerprintPrefix: DefaultFingerprintPrefix,
		monitor:           &noopMonitor{},
		logger:            slog.Default().With("component", "retriever"),
	}

	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Close()
			return nil, optErr
		}
	}

	return r, nil
}

// Close releases the worker pool.
func (r *Retriever) Close() {
	if r.pool != nil {
		r.pool.Release()
	}
}

// Width returns the per-query result width.
func (r *Retriever) Width() int {
	return r.width
}

// queryResult holds one query's outcome until the merge.
type queryResult struct {
	passages []core.Passage
	err      error
}

// Retrieve runs every query and returns the merged, deduplicated and ranked
// candidates. An empty result is not an error. The only error returned is the
// parent context's, when it is cancelled before the merge.
func (r *Retriever) Retrieve(ctx context.Context, queries []string) ([]core.Candidate, error) {
	return r.RetrieveWithMonitor(ctx, queries, r.monitor)
}

// RetrieveWithMonitor is Retrieve with an explicit monitor.
// A nil monitor disables monitoring.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, queries []string, monitor RetrievalMonitor) ([]core.Candidate, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(queries)

	results := make([]queryResult, len(queries))
	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			results[i] = r.search(ctx, query)
		})
		if err != nil {
			wg.Done()
			results[i] = queryResult{err: err}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := r.merge(queries, results, monitor)
	monitor.Finish(candidates)
	return candidates, nil
}

// search runs one provider call under the per-query timeout. The call runs
// on its own goroutine so a provider that ignores ctx cannot hold the worker.
func (r *Retriever) search(ctx context.Context, query string) queryResult {
	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	done := make(chan queryResult, 1)
	go func() {
		passages, err := r.provider.Search(qctx, query, r.width)
		done <- queryResult{passages: passages, err: err}
	}()

	select {
	case res := <-done:
		return res
	case <-qctx.Done():
		return queryResult{err: qctx.Err()}
	}
}

// merge walks results in query order. The first occurrence of a fingerprint
// wins, so a passage keeps the rank of the earliest query that found it.
func (r *Retriever) merge(queries []string, results []queryResult, monitor RetrievalMonitor) []core.Candidate {
	seen := make(map[core.Fingerprint]struct{})
	candidates := make([]core.Candidate, 0, len(queries)*r.width)

	for i, res := range results {
		if res.err != nil {
			r.logger.Warn("query failed, skipping", "index", i, "query", queries[i], "err", res.err)
			monitor.QueryFailed(i, queries[i], res.err)
			continue
		}
		monitor.QueryCompleted(i, queries[i], len(res.passages))

		for _, passage := range res.passages {
			fp := core.FingerprintContent(passage.Content, r.fingerprintPrefix)
			if _, ok := seen[fp]; ok {
				monitor.DuplicateSkipped(i, fp)
				continue
			}
			seen[fp] = struct{}{}
			candidates = append(candidates, core.Candidate{
				Content:         passage.Content,
				Metadata:        maps.Clone(passage.Metadata),
				OriginQuery:     queries[i],
				OriginQueryRank: i,
				Fingerprint:     fp,
			})
		}
	}

	slices.SortStableFunc(candidates, func(a, b core.Candidate) int {
		return a.OriginQueryRank - b.OriginQueryRank
	})
	if len(candidates) > r.topN {
		candidates = candidates[:r.topN]
	}

	r.logger.Debug("retrieval merged", "queries", len(queries), "candidates", len(candidates))
	return candidates
}
