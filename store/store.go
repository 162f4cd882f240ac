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


// Package store implements the persistent vector store: embedding records
// keyed by chunk ID, cosine-similarity search with structural filtering, and
// whole-container persistence through a storage.BlobStore.
package store

import (
	"encoding/json"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/storage"
	"github.com/poiesic/vaultrag/vault"
)

// containerVersion is the current persisted container format. A mismatched
// version on load means the data is unusable and the store starts fresh.
const containerVersion = 1

// container is the persisted file format.
type container struct {
	Version int                           `json:"version"`
	Vectors map[string]*core.StoredVector `json:"vectors"`
}

// Store holds embedding records in memory and persists them as one versioned
// container. Mutations set a dirty flag; Save is a no-op without one.
//
// The store itself is not safe for concurrent mutation from multiple
// goroutines racing on the same document path; callers serialize mutating
// operations per path (the indexer does this by debouncing).
type Store struct {
	blob     storage.BlobStore
	metadata vault.MetadataSource
	excluded []string
	logger   *slog.Logger

	mu           sync.RWMutex
	vectors      map[string]*core.StoredVector
	dirty        bool
	needsRebuild bool
}

// Option configures a Store.
type Option func(*Store) error

// WithMetadataSource sets the collaborator used to resolve document tags
// during filter evaluation. Without one, tag filters match nothing.
func WithMetadataSource(src vault.MetadataSource) Option {
	return func(s *Store) error {
		s.metadata = src
		return nil
	}
}

// WithExcludedFolders sets folder prefixes whose documents are never returned
// from search.
func WithExcludedFolders(folders []string) Option {
	return func(s *Store) error {
		s.excluded = folders
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// New creates a Store persisting through the given blob store. Call Load to
// pull any previously saved container before use.
func New(blob storage.BlobStore, opts ...Option) (*Store, error) {
	if blob == nil {
		return nil, ErrStorageRequired
	}

	s := &Store{
		blob:    blob,
		logger:  slog.Default().With("component", "vectorstore"),
		vectors: make(map[string]*core.StoredVector),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load reads the persisted container. Absent data, unparseable data, or a
// version mismatch all initialize an empty store; only storage I/O failures
// are returned as errors.
func (s *Store) Load() error {
	data, err := s.blob.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors = make(map[string]*core.StoredVector)
	s.dirty = false

	if len(data) == 0 {
		return nil
	}

	var c container
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("persisted vector data unreadable, starting fresh", "err", err)
		return nil
	}
	if c.Version != containerVersion {
		s.logger.Warn("persisted vector data has unknown version, starting fresh",
			"version", c.Version, "expected", containerVersion)
		return nil
	}

	if c.Vectors != nil {
		s.vectors = c.Vectors
	}
	s.logger.Debug("vector store loaded", "count", len(s.vectors))
	return nil
}

// Save persists the container if there are unsaved mutations.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.Marshal(container{
		Version: containerVersion,
		Vectors: s.vectors,
	})
	if err != nil {
		return err
	}
	if err := s.blob.Save(data); err != nil {
		return err
	}

	s.dirty = false
	s.logger.Debug("vector store saved", "count", len(s.vectors))
	return nil
}

// IsValid reports whether a current vector exists for the chunk: present and
// recorded under the same content hash.
func (s *Store) IsValid(chunkID, contentHash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.vectors[chunkID]
	return ok && record.Valid(contentHash)
}

// Upsert inserts or overwrites the record for a chunk and marks the store dirty.
func (s *Store) Upsert(chunkID string, vector []float32, contentHash, content, documentPath, displayLink string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors[chunkID] = &core.StoredVector{
		Vector:      vector,
		ContentHash: contentHash,
		Content:     content,
		FilePath:    documentPath,
		FileLink:    displayLink,
	}
	s.dirty = true
}

// DeleteByDocument removes every record belonging to a document and returns
// how many were removed.
func (s *Store) DeleteByDocument(documentPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := core.DocumentPrefix(documentPath)
	count := 0
	for id := range s.vectors {
		if strings.HasPrefix(id, prefix) {
			delete(s.vectors, id)
			count++
		}
	}
	if count > 0 {
		s.dirty = true
	}
	return count
}

// DeleteByIDs removes the given records.
func (s *Store) DeleteByIDs(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.vectors[id]; ok {
			delete(s.vectors, id)
			s.dirty = true
		}
	}
}

// IDsForDocument returns the stored chunk IDs belonging to a document.
func (s *Store) IDsForDocument(documentPath string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := core.DocumentPrefix(documentPath)
	var ids []string
	for id := range s.vectors {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	return ids
}

// IDs returns every stored chunk ID.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.vectors))
	for id := range s.vectors {
		ids = append(ids, id)
	}
	return ids
}

// Get returns the stored record for a chunk ID, or nil.
func (s *Store) Get(chunkID string) *core.StoredVector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectors[chunkID]
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// RenameDocument moves every record of oldPath under newPath: IDs are
// re-keyed, paths rewritten, and display links recomputed. Vectors and
// content hashes are untouched, so no re-embedding is needed. Returns the
// number of moved records.
func (s *Store) RenameDocument(oldPath, newPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldPrefix := core.DocumentPrefix(oldPath)
	newLink := core.DisplayLinkFor(newPath)

	count := 0
	for id, record := range s.vectors {
		if !strings.HasPrefix(id, oldPrefix) {
			continue
		}
		suffix := strings.TrimPrefix(id, oldPrefix)
		record.FilePath = newPath
		record.FileLink = newLink
		s.vectors[core.DocumentPrefix(newPath)+suffix] = record
		delete(s.vectors, id)
		count++
	}
	if count > 0 {
		s.dirty = true
	}
	return count
}

// PurgeExcluded deletes every record whose document falls under any of the
// given folder prefixes and returns the number deleted. Idempotent.
func (s *Store) PurgeExcluded(excludedFolders []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, record := range s.vectors {
		for _, folder := range excludedFolders {
			if core.UnderFolder(record.FilePath, folder) {
				delete(s.vectors, id)
				count++
				break
			}
		}
	}
	if count > 0 {
		s.dirty = true
	}
	return count
}

// NeedsRebuild reports whether search has encountered legacy records missing
// content metadata. Such records are skipped, never scored; a rebuild of the
// index clears them.
func (s *Store) NeedsRebuild() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.needsRebuild
}

// Search scores every eligible record against the query embedding with cosine
// similarity and returns the best matches, descending. Records missing
// content metadata are skipped and flag NeedsRebuild. Excluded folders and
// the filter are applied before scoring.
func (s *Store) Search(queryEmbedding []float32, limit int, filter *core.Filter) []core.SearchResult {
	if limit <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var results []core.SearchResult
	for id, record := range s.vectors {
		if record.Content == "" || record.FilePath == "" {
			// Legacy record from an earlier format: unusable for
			// retrieval, surfaced through NeedsRebuild.
			s.needsRebuild = true
			continue
		}
		if s.isExcluded(record.FilePath) {
			continue
		}
		if !s.matchesFilter(record.FilePath, filter) {
			continue
		}

		results = append(results, core.SearchResult{
			ChunkId:      id,
			Content:      record.Content,
			DocumentPath: record.FilePath,
			DisplayLink:  record.FileLink,
			Score:        CosineSimilarity(queryEmbedding, record.Vector),
		})
	}

	// Ties break on chunk ID so ordering is stable across runs despite map
	// iteration order.
	slices.SortFunc(results, func(a, b core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return strings.Compare(a.ChunkId, b.ChunkId)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (s *Store) isExcluded(documentPath string) bool {
	for _, folder := range s.excluded {
		if core.UnderFolder(documentPath, folder) {
			return true
		}
	}
	return false
}

// matchesFilter applies any-of semantics: a document passes when its path is
// listed in Files, falls under a Folders entry, or carries a matching tag.
func (s *Store) matchesFilter(documentPath string, filter *core.Filter) bool {
	if filter.IsEmpty() {
		return true
	}

	for _, file := range filter.Files {
		if documentPath == file {
			return true
		}
	}
	for _, folder := range filter.Folders {
		if core.UnderFolder(documentPath, folder) {
			return true
		}
	}
	if len(filter.Tags) > 0 && s.metadata != nil {
		for _, docTag := range s.metadata.Tags(documentPath) {
			for _, filterTag := range filter.Tags {
				if core.TagMatches(docTag, filterTag) {
					return true
				}
			}
		}
	}
	return false
}

// CosineSimilarity computes dot(a,b) / (||a||*||b||). Mismatched lengths or a
// zero-norm vector score 0; it never panics.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
