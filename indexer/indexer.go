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


// Package indexer keeps the chunk registry and vector store in sync with a
// live document source. Change events are debounced per path and executed on
// a single worker, since the registry and store require mutating operations
// on the same path to be serialized.
package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/index"
	"github.com/poiesic/vaultrag/registry"
	"github.com/poiesic/vaultrag/vault"
)

// DefaultDebounce is the quiet period a path must observe before it is
// re-indexed. Editors emit bursts of writes; only the trailing edge matters.
const DefaultDebounce = 500 * time.Millisecond

// Indexer subscribes to document events and keeps the index current.
type Indexer struct {
	source      vault.DocumentSource
	registry    *registry.Registry
	coordinator *index.Coordinator
	cache       *vault.MetadataCache
	logger      *slog.Logger
	debounce    time.Duration
	excluded    []string

	// Worker pool of size one: it both bounds goroutines and serializes
	// every mutating operation, which the core requires per path.
	pool *ants.Pool
	jobs sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*time.Timer
	started bool
	closed  bool
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithDebounce sets the per-path quiet period.
func WithDebounce(d time.Duration) Option {
	return func(i *Indexer) error {
		i.debounce = d
		return nil
	}
}

// WithExcludedFolders sets folders whose documents are never indexed or
// embedded.
func WithExcludedFolders(folders []string) Option {
	return func(i *Indexer) error {
		i.excluded = folders
		return nil
	}
}

// WithMetadataCache registers a cache to invalidate when documents change.
func WithMetadataCache(cache *vault.MetadataCache) Option {
	return func(i *Indexer) error {
		i.cache = cache
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Indexer) error {
		i.logger = logger.With("component", "indexer")
		return nil
	}
}

// New creates an Indexer over the given source, registry, and coordinator.
func New(source vault.DocumentSource, reg *registry.Registry, coord *index.Coordinator, opts ...Option) (*Indexer, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if coord == nil {
		return nil, ErrCoordinatorRequired
	}

	idx := &Indexer{
		source:      source,
		registry:    reg,
		coordinator: coord,
		logger:      slog.Default().With("component", "indexer"),
		debounce:    DefaultDebounce,
		pending:     make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}
	idx.pool = pool
	return idx, nil
}

// Rebuild re-indexes the whole document collection from scratch: the registry
// is repopulated, the metadata cache reset, and everything outstanding
// embedded. Documents that cannot be read are logged and skipped.
func (i *Indexer) Rebuild(ctx context.Context) (core.EmbedReport, error) {
	docs, err := i.source.List(ctx)
	if err != nil {
		return core.EmbedReport{}, err
	}

	for _, doc := range docs {
		if i.isExcluded(doc.Path) {
			continue
		}
		content, err := i.source.Read(ctx, doc.Path)
		if err != nil {
			i.logger.Warn("skipping unreadable document", "path", doc.Path, "err", err)
			continue
		}
		i.registry.ProcessDocument(doc.Path, content)
	}
	if i.cache != nil {
		i.cache.Reset()
	}

	i.logger.Info("rebuilding index",
		"documents", i.registry.DocumentCount(), "chunks", i.registry.ChunkCount())
	return i.coordinator.EmbedAll(ctx), nil
}

// Start subscribes to document events and processes them until ctx is
// cancelled or Close is called.
func (i *Indexer) Start(ctx context.Context) error {
	i.mu.Lock()
	if i.started {
		i.mu.Unlock()
		return ErrAlreadyStarted
	}
	i.started = true
	i.mu.Unlock()

	events, err := i.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	go i.loop(ctx, events)
	return nil
}

func (i *Indexer) loop(ctx context.Context, events <-chan vault.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			i.handle(ctx, ev)
		}
	}
}

func (i *Indexer) handle(ctx context.Context, ev vault.Event) {
	i.logger.Debug("document event", "type", ev.Type.String(), "path", ev.Path)

	switch ev.Type {
	case vault.EventCreate, vault.EventModify:
		if i.isExcluded(ev.Path) {
			return
		}
		i.schedule(ctx, ev.Path)
	case vault.EventDelete:
		i.cancelPending(ev.Path)
		i.submit(func() { i.remove(ev.Path) })
	case vault.EventRename:
		i.cancelPending(ev.OldPath)
		switch {
		case i.isExcluded(ev.Path):
			// Moved into an excluded folder: drop everything we held
			// for the old path.
			i.submit(func() { i.remove(ev.OldPath) })
		case i.isExcluded(ev.OldPath):
			// Moved out of an excluded folder: nothing to carry over,
			// index it fresh.
			i.schedule(ctx, ev.Path)
		default:
			i.submit(func() { i.rename(ev.OldPath, ev.Path) })
		}
	}
}

func (i *Indexer) isExcluded(path string) bool {
	for _, folder := range i.excluded {
		if core.UnderFolder(path, folder) {
			return true
		}
	}
	return false
}

// schedule arms (or re-arms) the trailing-edge timer for a path. Each path
// holds at most one pending task; further events within the quiet period just
// push it out.
func (i *Indexer) schedule(ctx context.Context, path string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return
	}
	if timer, ok := i.pending[path]; ok {
		timer.Reset(i.debounce)
		return
	}
	i.pending[path] = time.AfterFunc(i.debounce, func() {
		i.mu.Lock()
		delete(i.pending, path)
		closed := i.closed
		i.mu.Unlock()
		if closed {
			return
		}
		i.submit(func() { i.reindex(ctx, path) })
	})
}

func (i *Indexer) cancelPending(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if timer, ok := i.pending[path]; ok {
		timer.Stop()
		delete(i.pending, path)
	}
}

func (i *Indexer) submit(job func()) {
	i.jobs.Add(1)
	err := i.pool.Submit(func() {
		defer i.jobs.Done()
		job()
	})
	if err != nil {
		i.jobs.Done()
		i.logger.Warn("failed to submit index job", "err", err)
	}
}

func (i *Indexer) reindex(ctx context.Context, path string) {
	content, err := i.source.Read(ctx, path)
	if err != nil {
		// The document vanished between the event and the read.
		i.logger.Debug("document unreadable, removing from index", "path", path, "err", err)
		i.remove(path)
		return
	}

	i.registry.ProcessDocument(path, content)
	if i.cache != nil {
		i.cache.Invalidate(path)
	}

	report := i.coordinator.EmbedDocument(ctx, path)
	if report.Err != nil {
		i.logger.Warn("partial embedding failure", "path", path, "failed", report.Failed, "err", report.Err)
	}
	i.logger.Debug("document re-indexed", "path", path,
		"processed", report.Processed, "skipped", report.Skipped)
}

func (i *Indexer) remove(path string) {
	i.registry.DeleteDocument(path)
	if i.cache != nil {
		i.cache.Invalidate(path)
	}
	if err := i.coordinator.DeleteVectors(path); err != nil {
		i.logger.Warn("failed to delete vectors", "path", path, "err", err)
	}
}

func (i *Indexer) rename(oldPath, newPath string) {
	i.registry.RenameDocument(oldPath, newPath)
	if i.cache != nil {
		i.cache.Invalidate(oldPath)
		i.cache.Invalidate(newPath)
	}
	if err := i.coordinator.RenameVectors(oldPath, newPath); err != nil {
		i.logger.Warn("failed to rename vectors", "old", oldPath, "new", newPath, "err", err)
	}
}

// Close stops pending timers, waits for in-flight jobs, and releases the
// worker pool. The indexer cannot be restarted.
func (i *Indexer) Close() {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	i.closed = true
	for path, timer := range i.pending {
		timer.Stop()
		delete(i.pending, path)
	}
	i.mu.Unlock()

	i.jobs.Wait()
	i.pool.Release()
}
