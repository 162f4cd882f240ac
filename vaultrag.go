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


// Package vaultrag turns a folder of notes into a searchable, redacted
// knowledge base queryable with natural-language questions. It wires the
// document source, chunk registry, vector store, embedding coordinator, RAG
// orchestrator, and conversation history into one pipeline.
package vaultrag

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/poiesic/vaultrag/ai"
	"github.com/poiesic/vaultrag/ai/openai"
	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/index"
	"github.com/poiesic/vaultrag/indexer"
	"github.com/poiesic/vaultrag/rag"
	"github.com/poiesic/vaultrag/redact"
	"github.com/poiesic/vaultrag/registry"
	"github.com/poiesic/vaultrag/splitter"
	"github.com/poiesic/vaultrag/storage"
	badgerstore "github.com/poiesic/vaultrag/storage/badger"
	"github.com/poiesic/vaultrag/storage/file"
	"github.com/poiesic/vaultrag/store"
	"github.com/poiesic/vaultrag/vault"
	vaultfs "github.com/poiesic/vaultrag/vault/fs"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the trailing overlap carried across chunk boundaries.
	DefaultChunkOverlap = 200

	vectorsFileName = "vectors.json"
	historyDirName  = "history"
	defaultSession  = "default"
)

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	aiConfig        *ai.Config
	provider        ai.Provider
	chunkSize       int
	chunkOverlap    int
	batchSize       int
	batchDelay      time.Duration
	poolSize        int
	maxContext      int
	historyWindow   int
	debounce        time.Duration
	redactionOn     bool
	customPatterns  []redact.CustomPattern
	excludedFolders []string
	markdownOnly    bool
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) { o.aiConfig = cfg }
}

// WithProvider injects a pre-built AI provider instead of constructing the
// OpenAI-compatible one. Used by tests and embedders with custom transports.
func WithProvider(provider ai.Provider) Option {
	return func(o *options) { o.provider = provider }
}

// WithChunking sets chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(o *options) {
		o.chunkSize = size
		o.chunkOverlap = overlap
	}
}

// WithEmbeddingBatch sets the embedding batch size and inter-batch delay.
func WithEmbeddingBatch(size int, delay time.Duration) Option {
	return func(o *options) {
		o.batchSize = size
		o.batchDelay = delay
	}
}

// WithRetrieval sets the candidate pool size and the final context limit.
func WithRetrieval(poolSize, maxContextChunks int) Option {
	return func(o *options) {
		o.poolSize = poolSize
		o.maxContext = maxContextChunks
	}
}

// WithHistoryWindow sets how many prior turns are carried into a prompt.
func WithHistoryWindow(window int) Option {
	return func(o *options) { o.historyWindow = window }
}

// WithDebounce sets the quiet period before a changed document is re-indexed.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithRedaction toggles redaction and appends custom patterns.
func WithRedaction(enabled bool, custom []redact.CustomPattern) Option {
	return func(o *options) {
		o.redactionOn = enabled
		o.customPatterns = custom
	}
}

// WithExcludedFolders sets folders whose documents are never indexed or returned.
func WithExcludedFolders(folders []string) Option {
	return func(o *options) { o.excludedFolders = folders }
}

// WithMarkdownOnly restricts indexing to markdown documents.
func WithMarkdownOnly(markdownOnly bool) Option {
	return func(o *options) { o.markdownOnly = markdownOnly }
}

// Pipeline is the assembled RAG system over one vault.
type Pipeline struct {
	source       *vaultfs.Source
	cache        *vault.MetadataCache
	registry     *registry.Registry
	store        *store.Store
	coordinator  *index.Coordinator
	orchestrator *rag.Orchestrator
	indexer      *indexer.Indexer
	provider     ai.Provider
	backend      *badgerstore.Backend
	history      storage.HistoryRepository
	excluded     []string
	windowSize   int
	logger       *slog.Logger
}

// NewPipeline assembles a pipeline for the vault at vaultPath, persisting
// index data under dataDir.
func NewPipeline(vaultPath, dataDir string, opts ...Option) (*Pipeline, error) {
	o := &options{
		aiConfig:      ai.DefaultConfig(),
		chunkSize:     DefaultChunkSize,
		chunkOverlap:  DefaultChunkOverlap,
		batchSize:     index.DefaultBatchSize,
		batchDelay:    index.DefaultBatchDelay,
		poolSize:      index.DefaultPoolSize,
		maxContext:    index.DefaultMaxContextChunks,
		historyWindow: rag.DefaultHistoryWindow,
		debounce:      indexer.DefaultDebounce,
		redactionOn:   true,
		markdownOnly:  true,
	}
	for _, opt := range opts {
		opt(o)
	}

	source, err := vaultfs.New(vaultPath, vaultfs.WithMarkdownOnly(o.markdownOnly))
	if err != nil {
		return nil, err
	}
	cache := vault.NewMetadataCache(source)

	split, err := splitter.New(o.chunkSize, o.chunkOverlap)
	if err != nil {
		return nil, err
	}
	redactor := redact.New(
		redact.WithEnabled(o.redactionOn),
		redact.WithCustomPatterns(o.customPatterns),
	)
	reg, err := registry.New(split, redactor)
	if err != nil {
		return nil, err
	}

	st, err := store.New(
		file.New(filepath.Join(dataDir, vectorsFileName)),
		store.WithMetadataSource(cache),
		store.WithExcludedFolders(o.excludedFolders),
	)
	if err != nil {
		return nil, err
	}
	if err := st.Load(); err != nil {
		return nil, err
	}

	provider := o.provider
	if provider == nil {
		provider, err = openai.NewProvider(o.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	coord, err := index.New(reg, st, provider.Embedder(),
		index.WithBatchSize(o.batchSize),
		index.WithBatchDelay(o.batchDelay),
		index.WithPoolSize(o.poolSize),
		index.WithMaxContextChunks(o.maxContext),
	)
	if err != nil {
		provider.Close()
		return nil, err
	}

	orch, err := rag.New(coord, provider.ChatModel(), o.aiConfig,
		rag.WithHistoryWindow(o.historyWindow))
	if err != nil {
		provider.Close()
		return nil, err
	}

	backend, err := badgerstore.OpenBackend(filepath.Join(dataDir, historyDirName), false)
	if err != nil {
		provider.Close()
		return nil, err
	}
	history, err := badgerstore.NewHistoryRepository(backend)
	if err != nil {
		backend.Close()
		provider.Close()
		return nil, err
	}

	idx, err := indexer.New(source, reg, coord,
		indexer.WithDebounce(o.debounce),
		indexer.WithMetadataCache(cache),
		indexer.WithExcludedFolders(o.excludedFolders),
	)
	if err != nil {
		history.Close()
		backend.Close()
		provider.Close()
		return nil, err
	}

	return &Pipeline{
		source:       source,
		cache:        cache,
		registry:     reg,
		store:        st,
		coordinator:  coord,
		orchestrator: orch,
		indexer:      idx,
		provider:     provider,
		backend:      backend,
		history:      history,
		excluded:     o.excludedFolders,
		windowSize:   o.historyWindow,
		logger:       slog.Default().With("component", "pipeline"),
	}, nil
}

// Rebuild re-indexes the entire vault and embeds everything outstanding.
func (p *Pipeline) Rebuild(ctx context.Context) (core.EmbedReport, error) {
	return p.indexer.Rebuild(ctx)
}

// Watch starts processing live document change events until ctx is cancelled.
func (p *Pipeline) Watch(ctx context.Context) error {
	return p.indexer.Start(ctx)
}

// Search runs hybrid retrieval over the indexed vault.
func (p *Pipeline) Search(ctx context.Context, query string, limit int, filter *core.Filter) []core.SearchResult {
	return p.coordinator.Search(ctx, query, limit, filter)
}

// Ask answers a question using retrieved context and the session's recent
// conversation history, then records both turns in the session.
func (p *Pipeline) Ask(ctx context.Context, session, query string, filter *core.Filter) (string, error) {
	if session == "" {
		session = defaultSession
	}

	history, err := p.history.RecentTurns(ctx, session, p.windowSize)
	if err != nil {
		p.logger.Warn("could not load conversation history", "session", session, "err", err)
	}

	answer, err := p.orchestrator.Ask(ctx, query, history, filter)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if err := p.history.AppendTurns(ctx, session,
		&core.Turn{Role: core.RoleUser, Content: query, Timestamp: now},
		&core.Turn{Role: core.RoleAssistant, Content: answer, Timestamp: now},
	); err != nil {
		p.logger.Warn("could not record conversation turns", "session", session, "err", err)
	}

	return answer, nil
}

// PurgeExcluded removes stored vectors under the configured excluded folders
// and persists the store.
func (p *Pipeline) PurgeExcluded() (int, error) {
	count := p.store.PurgeExcluded(p.excluded)
	return count, p.store.Save()
}

// Stats summarizes the current index.
type Stats struct {
	Documents    int
	Chunks       int
	Vectors      int
	NeedsRebuild bool
}

// Stats returns index counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Documents:    p.registry.DocumentCount(),
		Chunks:       p.registry.ChunkCount(),
		Vectors:      p.store.Count(),
		NeedsRebuild: p.store.NeedsRebuild(),
	}
}

// History exposes the conversation history repository.
func (p *Pipeline) History() storage.HistoryRepository {
	return p.history
}

// Close flushes unsaved state and releases every resource.
func (p *Pipeline) Close() error {
	p.indexer.Close()

	if err := p.store.Save(); err != nil {
		p.logger.Error("error saving vector store", "err", err)
	}
	if err := p.provider.Close(); err != nil {
		p.logger.Error("error closing AI provider", "err", err)
	}
	if err := p.history.Close(); err != nil {
		p.logger.Error("error closing history repository", "err", err)
		return err
	}
	if err := p.backend.Close(); err != nil {
		p.logger.Error("error closing history backend", "err", err)
		return err
	}
	return nil
}
