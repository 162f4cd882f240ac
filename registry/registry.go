// Package registry owns the in-memory mapping from document path to its
// ordered chunk list. It is rebuilt in full on startup from the document
// source and has no network or persistence side effects.
package registry

import (
	"log/slog"
	"sync"

	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/redact"
	"github.com/poiesic/vaultrag/splitter"
)

// Registry maps document paths to their current chunk sets. A document's
// chunks are always replaced wholesale; there is no partial patching.
type Registry struct {
	splitter *splitter.Splitter
	redactor *redact.Redactor
	logger   *slog.Logger

	mu     sync.RWMutex
	chunks map[string][]core.Chunk
}

// Option configures a Registry.
type Option func(*Registry) error

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// New creates a chunk registry backed by the given splitter and redactor.
func New(split *splitter.Splitter, redactor *redact.Redactor, opts ...Option) (*Registry, error) {
	if split == nil {
		return nil, ErrSplitterRequired
	}
	if redactor == nil {
		return nil, ErrRedactorRequired
	}

	r := &Registry{
		splitter: split,
		redactor: redactor,
		logger:   slog.Default().With("component", "registry"),
		chunks:   make(map[string][]core.Chunk),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// ProcessDocument redacts and splits rawText and replaces any prior chunk set
// for path. Returns the new chunk set, which is empty for blank documents.
func (r *Registry) ProcessDocument(path, rawText string) []core.Chunk {
	redacted := r.redactor.Redact(rawText)
	pieces := r.splitter.Split(redacted)

	link := core.DisplayLinkFor(path)
	chunks := make([]core.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = core.Chunk{
			Id:           core.ChunkID(path, i),
			Content:      content,
			DocumentPath: path,
			DisplayLink:  link,
			Ordinal:      i,
		}
	}

	r.mu.Lock()
	if len(chunks) == 0 {
		delete(r.chunks, path)
	} else {
		r.chunks[path] = chunks
	}
	r.mu.Unlock()

	r.logger.Debug("processed document", "path", path, "chunks", len(chunks))
	return chunks
}

// DeleteDocument drops the chunk set for path, if any.
func (r *Registry) DeleteDocument(path string) {
	r.mu.Lock()
	delete(r.chunks, path)
	r.mu.Unlock()
}

// RenameDocument rewrites ids, paths and display links for every chunk of
// oldPath and moves the set under newPath. Content is untouched; the document
// is not re-read.
func (r *Registry) RenameDocument(oldPath, newPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chunks, ok := r.chunks[oldPath]
	if !ok {
		return
	}

	link := core.DisplayLinkFor(newPath)
	renamed := make([]core.Chunk, len(chunks))
	for i, c := range chunks {
		c.Id = core.ChunkID(newPath, c.Ordinal)
		c.DocumentPath = newPath
		c.DisplayLink = link
		renamed[i] = c
	}

	delete(r.chunks, oldPath)
	r.chunks[newPath] = renamed
}

// GetChunks returns the current chunk set for path, in ordinal order.
func (r *Registry) GetChunks(path string) []core.Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chunks := r.chunks[path]
	out := make([]core.Chunk, len(chunks))
	copy(out, chunks)
	return out
}

// AllChunks returns every chunk across all documents.
func (r *Registry) AllChunks() []core.Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []core.Chunk
	for _, chunks := range r.chunks {
		out = append(out, chunks...)
	}
	return out
}

// DocumentCount returns the number of documents with at least one chunk.
func (r *Registry) DocumentCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// ChunkCount returns the total number of chunks.
func (r *Registry) ChunkCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, chunks := range r.chunks {
		total += len(chunks)
	}
	return total
}
