package core

import (
	"path"
	"strconv"
	"strings"
	"time"
)

// ChunkIDSeparator separates the document path from the ordinal in chunk IDs.
const ChunkIDSeparator = "::"

// Chunk is a bounded slice of a source document's text. It is the unit of
// embedding and retrieval.
type Chunk struct {
	Id           string // "<documentPath>::<ordinal>", unique within the store
	Content      string // redacted text of the slice
	DocumentPath string // owning document's logical path
	DisplayLink  string // citation token derived from the document path
	Ordinal      int    // position within the document's chunk sequence
}

// ChunkID builds the deterministic chunk identifier for a document path and
// ordinal position.
func ChunkID(documentPath string, ordinal int) string {
	return documentPath + ChunkIDSeparator + strconv.Itoa(ordinal)
}

// DocumentPrefix returns the prefix shared by every chunk ID of a document.
func DocumentPrefix(documentPath string) string {
	return documentPath + ChunkIDSeparator
}

// DisplayLinkFor derives the human-navigable citation token for a document
// path: extension stripped, basename only, wrapped as a wikilink.
func DisplayLinkFor(documentPath string) string {
	base := path.Base(documentPath)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return "[[" + base + "]]"
}

// StoredVector is a persisted embedding record keyed by chunk ID. Content and
// path fields are duplicated from the originating chunk so search results are
// self-contained without a registry round trip.
type StoredVector struct {
	Vector      []float32 `json:"vector"`
	ContentHash string    `json:"contentHash"`
	Content     string    `json:"content"`
	FilePath    string    `json:"filePath"`
	FileLink    string    `json:"fileLink"`
}

// Valid reports whether the stored vector is still current for content with
// the given hash. Validity gates whether re-embedding is skipped.
func (v *StoredVector) Valid(contentHash string) bool {
	return v.ContentHash == contentHash
}

// SearchResult is a single retrieval hit. Score is cosine similarity in the
// vector stage, or the blended hybrid score after reranking.
type SearchResult struct {
	ChunkId      string
	Content      string
	DocumentPath string
	DisplayLink  string
	Score        float32
}

// EmbedReport aggregates the outcome of a bulk embedding operation. Partial
// failure is reported through counters rather than aborting the run.
type EmbedReport struct {
	Processed int   // chunks embedded and stored
	Skipped   int   // chunks whose stored vector was still valid
	Failed    int   // chunks in batches that failed after retries
	Err       error // last batch-level error, if any
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser represents the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant represents the model's answers.
	RoleAssistant
)

// Turn is a single entry in a conversation session.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}
