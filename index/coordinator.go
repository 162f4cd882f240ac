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


// Package index orchestrates embedding: it decides which chunks need
// (re)embedding via content hashing, batches calls to the embedding service,
// and runs hybrid (vector + keyword) retrieval over the vector store.
package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/vaultrag/ai"
	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/registry"
	"github.com/poiesic/vaultrag/store"
)

const (
	// DefaultBatchSize is the number of chunks sent per embedding call.
	DefaultBatchSize = 20
	// DefaultBatchDelay is the pause between embedding batches.
	DefaultBatchDelay = 100 * time.Millisecond
	// DefaultPoolSize is the vector-similarity candidate pool fetched
	// before keyword reranking.
	DefaultPoolSize = 50
	// DefaultMaxContextChunks is the final result limit handed to the prompt.
	DefaultMaxContextChunks = 15

	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	progressInterval      = 10

	// Hybrid blend weights. Vector similarity dominates; the keyword term
	// recovers precision for exact terminology that embeddings blur.
	vectorWeight  = 0.7
	keywordWeight = 0.3

	// Query tokens shorter than this are dropped before keyword scoring.
	minKeywordTokenLen = 3
)

// Coordinator drives embedding and retrieval over a chunk registry and a
// vector store. Batches within one embed run are processed strictly in
// order; a failed batch is counted and the run continues.
type Coordinator struct {
	registry *registry.Registry
	store    *store.Store
	embedder ai.Embedder
	logger   *slog.Logger

	batchSize      int
	batchDelay     time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
	poolSize       int
	maxContext     int
	progressWriter io.Writer
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithBatchSize sets how many chunks are embedded per service call.
func WithBatchSize(size int) Option {
	return func(c *Coordinator) error {
		if size <= 0 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		c.batchSize = size
		return nil
	}
}

// WithBatchDelay sets the pause between embedding batches.
func WithBatchDelay(delay time.Duration) Option {
	return func(c *Coordinator) error {
		c.batchDelay = delay
		return nil
	}
}

// WithRetry sets the retry policy for embedding calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Coordinator) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxRetries = maxAttempts
		c.retryBaseDelay = baseDelay
		return nil
	}
}

// WithPoolSize sets the vector candidate pool fetched before reranking.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size <= 0 {
			return fmt.Errorf("pool size must be positive, got %d", size)
		}
		c.poolSize = size
		return nil
	}
}

// WithMaxContextChunks sets the default search result limit.
func WithMaxContextChunks(limit int) Option {
	return func(c *Coordinator) error {
		if limit <= 0 {
			return fmt.Errorf("max context chunks must be positive, got %d", limit)
		}
		c.maxContext = limit
		return nil
	}
}

// WithProgressWriter enables progress reporting for EmbedAll runs.
func WithProgressWriter(w io.Writer) Option {
	return func(c *Coordinator) error {
		c.progressWriter = w
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		c.logger = logger.With("component", "index")
		return nil
	}
}

// New creates a Coordinator over the given registry, store, and embedder.
func New(reg *registry.Registry, st *store.Store, embedder ai.Embedder, opts ...Option) (*Coordinator, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if st == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c := &Coordinator{
		registry:       reg,
		store:          st,
		embedder:       embedder,
		logger:         slog.Default().With("component", "index"),
		batchSize:      DefaultBatchSize,
		batchDelay:     DefaultBatchDelay,
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
		poolSize:       DefaultPoolSize,
		maxContext:     DefaultMaxContextChunks,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// pendingChunk pairs a chunk with its precomputed content hash.
type pendingChunk struct {
	chunk core.Chunk
	hash  string
}

// Embed embeds every chunk whose stored vector is missing or stale. Chunks
// with a valid stored vector are skipped without a network call. The store is
// persisted once at the end, not per vector.
func (c *Coordinator) Embed(ctx context.Context, chunks []core.Chunk) core.EmbedReport {
	return c.embed(ctx, chunks, nil)
}

func (c *Coordinator) embed(ctx context.Context, chunks []core.Chunk, tracker *ProgressTracker) core.EmbedReport {
	var report core.EmbedReport

	var pending []pendingChunk
	for _, chunk := range chunks {
		hash := core.ContentHash(chunk.Content)
		if c.store.IsValid(chunk.Id, hash) {
			report.Skipped++
			if tracker != nil {
				tracker.Increment(1)
			}
			continue
		}
		pending = append(pending, pendingChunk{chunk: chunk, hash: hash})
	}

	c.logger.Debug("embedding chunks", "total", len(chunks), "pending", len(pending), "skipped", report.Skipped)

	for start := 0; start < len(pending); start += c.batchSize {
		if start > 0 {
			// Pause between batches to respect service rate limits.
			timer := time.NewTimer(c.batchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				report.Failed += len(pending) - start
				report.Err = ctx.Err()
				c.finishEmbed(&report)
				return report
			case <-timer.C:
			}
		}

		end := min(start+c.batchSize, len(pending))
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.chunk.Content
		}

		var embeddings [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var err error
			embeddings, err = c.embedder.EmbedTexts(ctx, texts)
			return err
		}, c.maxRetries, c.retryBaseDelay)
		if err == nil && len(embeddings) != len(batch) {
			err = fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
		}
		if err != nil {
			// A failed batch never aborts the run; later batches are
			// independent of it.
			c.logger.Warn("embedding batch failed", "size", len(batch), "err", err)
			report.Failed += len(batch)
			report.Err = err
			if tracker != nil {
				tracker.Increment(len(batch))
			}
			continue
		}

		for i, p := range batch {
			c.store.Upsert(p.chunk.Id, embeddings[i], p.hash, p.chunk.Content, p.chunk.DocumentPath, p.chunk.DisplayLink)
		}
		report.Processed += len(batch)
		if tracker != nil {
			tracker.Increment(len(batch))
		}
	}

	c.finishEmbed(&report)
	return report
}

// finishEmbed persists the store once for the whole run.
func (c *Coordinator) finishEmbed(report *core.EmbedReport) {
	if err := c.store.Save(); err != nil {
		c.logger.Error("failed to persist vector store", "err", err)
		if report.Err == nil {
			report.Err = err
		}
	}
}

// EmbedDocument re-embeds one document: stored vectors whose chunk ID no
// longer exists are deleted first (documents that shrank must not leave
// orphaned vectors), then the current chunk set is embedded.
func (c *Coordinator) EmbedDocument(ctx context.Context, path string) core.EmbedReport {
	chunks := c.registry.GetChunks(path)

	current := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		current[chunk.Id] = true
	}

	var stale []string
	for _, id := range c.store.IDsForDocument(path) {
		if !current[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		c.logger.Debug("removing stale vectors", "path", path, "count", len(stale))
		c.store.DeleteByIDs(stale...)
	}

	return c.Embed(ctx, chunks)
}

// EmbedAll embeds the entire registry: stored vectors with no current chunk
// anywhere are deleted, then everything outstanding is embedded. Progress is
// reported when the coordinator has a progress writer.
func (c *Coordinator) EmbedAll(ctx context.Context) core.EmbedReport {
	chunks := c.registry.AllChunks()

	current := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		current[chunk.Id] = true
	}

	var stale []string
	for _, id := range c.store.IDs() {
		if !current[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		c.logger.Info("removing stale vectors", "count", len(stale))
		c.store.DeleteByIDs(stale...)
	}

	var tracker *ProgressTracker
	if c.progressWriter != nil {
		tracker = NewProgressTracker(c.progressWriter, len(chunks), progressInterval)
		tracker.Start()
		defer tracker.Finish()
	}

	return c.embed(ctx, chunks, tracker)
}

// RenameVectors moves every stored vector of oldPath under newPath without
// re-embedding and persists the store once.
func (c *Coordinator) RenameVectors(oldPath, newPath string) error {
	moved := c.store.RenameDocument(oldPath, newPath)
	c.logger.Debug("renamed vectors", "old", oldPath, "new", newPath, "count", moved)
	return c.store.Save()
}

// DeleteVectors removes every stored vector of a document and persists the
// store once.
func (c *Coordinator) DeleteVectors(path string) error {
	removed := c.store.DeleteByDocument(path)
	c.logger.Debug("deleted vectors", "path", path, "count", removed)
	return c.store.Save()
}

// Search runs hybrid retrieval: the query is embedded, a candidate pool is
// fetched by vector similarity, and candidates are reranked by a blend of
// vector and keyword scores. Failures yield an empty result, never an error.
func (c *Coordinator) Search(ctx context.Context, queryText string, limit int, filter *core.Filter) []core.SearchResult {
	if limit <= 0 {
		limit = c.maxContext
	}

	queryEmbedding, err := c.embedder.EmbedText(ctx, queryText)
	if err != nil || len(queryEmbedding) == 0 {
		c.logger.Warn("query embedding failed, returning no results", "err", err)
		return nil
	}

	pool := c.store.Search(queryEmbedding, c.poolSize, filter)
	if len(pool) == 0 {
		return nil
	}

	for i := range pool {
		keyword := keywordScore(queryText, pool[i].Content)
		pool[i].Score = vectorWeight*pool[i].Score + keywordWeight*keyword
	}

	slices.SortFunc(pool, func(a, b core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return strings.Compare(a.ChunkId, b.ChunkId)
	})

	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool
}

// keywordScore is the fraction of significant query tokens appearing as a
// substring of the content. Both sides are lowercased; tokens shorter than
// minKeywordTokenLen are dropped first.
func keywordScore(query, content string) float32 {
	var tokens []string
	for _, token := range strings.Fields(strings.ToLower(query)) {
		if len(token) >= minKeywordTokenLen {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return 0
	}

	lowered := strings.ToLower(content)
	matched := 0
	for _, token := range tokens {
		if strings.Contains(lowered, token) {
			matched++
		}
	}
	return float32(matched) / float32(len(tokens))
}
