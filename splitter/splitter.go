// Package splitter breaks raw text into bounded, overlapping chunks using a
// recursive separator cascade. Splitting is a pure, deterministic function of
// the input text and the configured sizes.
package splitter

import (
	"fmt"
	"strings"

	"github.com/poiesic/vaultrag/core"
)

// Default chunking parameters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// separators are tried in priority order. The empty string is the base case:
// raw character windows.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter splits text into chunks of at most chunkSize characters, seeding
// each chunk with the trailing chunkOverlap characters of its predecessor.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a splitter. The overlap must be smaller than the chunk size;
// violating this is a configuration error reported at construction time, not
// at call time.
func New(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", core.ErrInvalidSplitterConfig, chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: size %d, overlap %d", core.ErrInvalidSplitterConfig, chunkSize, chunkOverlap)
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split breaks text into chunks in original document order. Empty or
// whitespace-only input yields no chunks; text shorter than the chunk size
// yields exactly one.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	// Pick the first separator present in the text. The empty separator
	// always matches and falls through to character windowing.
	sep := ""
	var rest []string
	for i, candidate := range seps {
		if candidate == "" {
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return s.windows(text)
	}

	var chunks []string
	current := ""

	flush := func() {
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}

	for _, segment := range strings.Split(text, sep) {
		// A segment that alone exceeds the chunk size is split again with
		// the remaining lower-priority separators instead of being force-cut.
		if len(segment) > s.chunkSize {
			flush()
			current = ""
			chunks = append(chunks, s.split(segment, rest)...)
			continue
		}

		candidate := current
		if candidate != "" {
			candidate += sep
		}
		candidate += segment

		if len(candidate) > s.chunkSize && current != "" {
			// Close the running chunk and seed the next one with its
			// trailing overlap so local context survives the boundary.
			// The seed is trimmed so the new chunk starts within the
			// size bound; a segment that alone fills the chunk gets no
			// seed at all.
			tail := overlapTail(current, min(s.chunkOverlap, s.chunkSize-len(segment)-len(sep)))
			flush()
			current = tail
			if current != "" {
				current += sep
			}
			current += segment
			continue
		}

		current = candidate
	}
	flush()

	return chunks
}

// windows splits text into raw character windows of chunkSize, advancing by
// chunkSize - chunkOverlap so overlap is guaranteed even without any lexical
// boundary.
func (s *Splitter) windows(text string) []string {
	step := s.chunkSize - s.chunkOverlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		if trimmed := strings.TrimSpace(text[start:end]); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// overlapTail returns the last n characters of text, or all of it when
// shorter.
func overlapTail(text string, n int) string {
	if n <= 0 || len(text) <= n {
		if n <= 0 {
			return ""
		}
		return text
	}
	return text[len(text)-n:]
}
