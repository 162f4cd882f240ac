package splitter

import (
	"strings"
	"testing"

	"github.com/poiesic/vaultrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		s, err := New(1000, 200)
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("overlap equal to size", func(t *testing.T) {
		_, err := New(100, 100)
		assert.ErrorIs(t, err, core.ErrInvalidSplitterConfig)
	})

	t.Run("overlap larger than size", func(t *testing.T) {
		_, err := New(100, 150)
		assert.ErrorIs(t, err, core.ErrInvalidSplitterConfig)
	})

	t.Run("non-positive size", func(t *testing.T) {
		_, err := New(0, 0)
		assert.ErrorIs(t, err, core.ErrInvalidSplitterConfig)
	})
}

func TestSplit_EmptyInput(t *testing.T) {
	s, err := New(100, 20)
	require.NoError(t, err)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\n\t  "))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)

	chunks := s.Split("  A short note.  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short note.", chunks[0])
}

func TestSplit_ParagraphBoundaries(t *testing.T) {
	s, err := New(40, 10)
	require.NoError(t, err)

	text := "First paragraph here.\n\nSecond paragraph here.\n\nThird one."
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "First paragraph here.", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 40)
	}
}

func TestSplit_OverlapSeedsNextChunk(t *testing.T) {
	s, err := New(30, 8)
	require.NoError(t, err)

	text := "aaaaaaaaaaaaaaaaaa\nbbbbbbbbbbbbbbbbbb"
	chunks := s.Split(text)

	require.Len(t, chunks, 2)
	// The second chunk begins with the tail of the first.
	tail := chunks[0][len(chunks[0])-8:]
	assert.True(t, strings.HasPrefix(chunks[1], tail))
	assert.LessOrEqual(t, len(chunks[1]), 30)
}

func TestSplit_CharacterWindows(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)

	// 2500 characters with no separator at all: windows advance by 800,
	// starting at 0, 800, 1600 and 2400.
	text := strings.Repeat("a", 2500)
	chunks := s.Split(text)

	require.Len(t, chunks, 4)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 900)
	assert.Len(t, chunks[3], 100)
}

func TestSplit_WindowOverlap(t *testing.T) {
	s, err := New(10, 4)
	require.NoError(t, err)

	text := "abcdefghijklmnopqrst" // 20 chars, no separators
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	// Adjacent windows share the configured overlap.
	assert.Equal(t, "abcdefghij", chunks[0])
	assert.Equal(t, "ghijklmnop", chunks[1])
}

func TestSplit_OversizedSegmentRecurses(t *testing.T) {
	s, err := New(20, 5)
	require.NoError(t, err)

	// One paragraph far larger than the chunk size forces recursion into
	// lower-priority separators rather than a raw cut.
	long := "word one two three four five six seven eight nine ten"
	chunks := s.Split(long)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestSplit_SeededChunksStayWithinSize(t *testing.T) {
	s, err := New(1000, 200)
	require.NoError(t, err)

	// Segments near the chunk size would push a freshly seeded chunk past
	// the bound if the overlap seed were carried untrimmed.
	paragraph := strings.Repeat("x", 900)
	text := paragraph + "\n\n" + paragraph + "\n\n" + paragraph
	chunks := s.Split(text)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 1000)
	}
}

func TestSplit_SeparatorChunksNeverExceedSize(t *testing.T) {
	s, err := New(50, 20)
	require.NoError(t, err)

	// Word lengths chosen so chunk boundaries land at many different fill
	// levels; no separator-path chunk may exceed the configured size.
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat("w", 3+i%13))
		b.WriteString(" ")
	}
	chunks := s.Split(b.String())

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := New(50, 10)
	require.NoError(t, err)

	text := "Some text. With sentences. And\nlines.\n\nAnd paragraphs that go on for a while longer."
	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}

func TestSplit_CoversAllContent(t *testing.T) {
	s, err := New(30, 6)
	require.NoError(t, err)

	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	chunks := s.Split(text)

	joined := strings.Join(chunks, " ")
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, word)
	}
}
