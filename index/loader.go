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

package index

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexrag/core"
)

const (
	// DefaultBatchSize is the number of passages embedded per call.
	DefaultBatchSize = 32

	// DefaultLoaderWorkers is the number of batches embedded at once.
	DefaultLoaderWorkers = 2

	maxLineBytes = 10 * 1024 * 1024
)

// Record is one line of a passage file: pre-chunked content plus the
// metadata the ingestion step attached to it.
//
//	{"content": "...", "metadata": {"file_name": "bns.pdf", "document_type": "nyaya_sanhita", "page_number": 12}}
type Record struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// LoadStats summarizes a load.
type LoadStats struct {
	Read    int // Non-blank lines seen
	Loaded  int // Passages stored
	Skipped int // Lines that did not parse or had no content
	Failed  int // Passages in batches the provider rejected
}

// Loader reads JSON-lines passage files into a Provider.
type Loader struct {
	provider       Provider
	batchSize      int
	pool           *ants.Pool
	progress       io.Writer
	reportInterval int
	logger         *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader) error

// WithLoaderLogger sets a custom logger.
// Default is slog.Default().
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger.With("component", "passage-loader")
		return nil
	}
}

// WithBatchSize sets how many passages go to the embedder per call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) LoaderOption {
	return func(l *Loader) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		l.batchSize = size
		return nil
	}
}

// WithWorkers sets how many batches are embedded concurrently.
// Default is DefaultLoaderWorkers.
func WithWorkers(size int) LoaderOption {
	return func(l *Loader) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		// Release old pool
		if l.pool != nil {
			l.pool.Release()
		}
		l.pool = pool
		return nil
	}
}

// WithProgress writes progress to w every interval passages.
// Default is no progress output.
func WithProgress(w io.Writer, interval int) LoaderOption {
	return func(l *Loader) error {
		l.progress = w
		l.reportInterval = interval
		return nil
	}
}

// NewLoader creates a loader feeding provider. Call Close when done.
func NewLoader(provider Provider, opts ...LoaderOption) (*Loader, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	pool, err := ants.NewPool(DefaultLoaderWorkers)
	if err != nil {
		return nil, err
	}

	l := &Loader{
		provider:       provider,
		batchSize:      DefaultBatchSize,
		pool:           pool,
		progress:       io.Discard,
		reportInterval: 100,
		logger:         slog.Default().With("component", "passage-loader"),
	}

	for _, opt := range opts {
		if optErr := opt(l); optErr != nil {
			l.Close()
			return nil, optErr
		}
	}

	return l, nil
}

// Close releases the worker pool.
func (l *Loader) Close() {
	if l.pool != nil {
		l.pool.Release()
	}
}

// LoadFile loads the passage file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadStats{}, err
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load reads records from r and adds them to the provider in batches.
// Unparseable lines are logged and skipped. Batches the provider rejects
// are counted as failed and their errors joined into the returned error;
// the remaining batches still load.
func (l *Loader) Load(ctx context.Context, r io.Reader) (LoadStats, error) {
	var stats LoadStats
	passages, err := l.read(r, &stats)
	if err != nil {
		return stats, err
	}

	tracker := NewProgressTracker(l.progress, len(passages), l.reportInterval)
	tracker.Start()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(batch []*core.Passage, err error) {
		mu.Lock()
		defer mu.Unlock()
		stats.Failed += len(batch)
		errs = append(errs, err)
	}

	for start := 0; start < len(passages); start += l.batchSize {
		if err := ctx.Err(); err != nil {
			fail(passages[start:], err)
			break
		}
		batch := passages[start:min(start+l.batchSize, len(passages))]

		wg.Add(1)
		submitErr := l.pool.Submit(func() {
			defer wg.Done()
			if err := l.provider.Add(ctx, batch...); err != nil {
				l.logger.Error("batch failed", "size", len(batch), "err", err)
				fail(batch, err)
				return
			}
			mu.Lock()
			stats.Loaded += len(batch)
			mu.Unlock()
			tracker.Increment(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			fail(batch, submitErr)
		}
	}
	wg.Wait()
	tracker.Finish()

	l.logger.Info("load complete", "read", stats.Read, "loaded", stats.Loaded,
		"skipped", stats.Skipped, "failed", stats.Failed, "elapsed", tracker.Elapsed())
	return stats, errors.Join(errs...)
}

// read parses every line of r into passages.
func (l *Loader) read(r io.Reader, stats *LoadStats) ([]*core.Passage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var passages []*core.Passage
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		stats.Read++

		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			l.logger.Warn("skipping unparseable line", "line", line, "err", err)
			stats.Skipped++
			continue
		}
		if strings.TrimSpace(rec.Content) == "" {
			l.logger.Warn("skipping line without content", "line", line)
			stats.Skipped++
			continue
		}

		passages = append(passages, &core.Passage{
			Content:  rec.Content,
			Metadata: stringifyMetadata(rec.Metadata),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read passages: %w", err)
	}
	return passages, nil
}
