package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// countingSource records how many times each path was looked up.
type countingSource struct {
	tags  map[string][]string
	calls map[string]int
}

func (s *countingSource) Tags(path string) []string {
	s.calls[path]++
	return s.tags[path]
}

func newCountingSource() *countingSource {
	return &countingSource{
		tags: map[string][]string{
			"Notes/a.md": {"work", "work/meetings"},
		},
		calls: make(map[string]int),
	}
}

func TestMetadataCache_Memoizes(t *testing.T) {
	src := newCountingSource()
	cache := NewMetadataCache(src)

	assert.Equal(t, []string{"work", "work/meetings"}, cache.Tags("Notes/a.md"))
	cache.Tags("Notes/a.md")
	cache.Tags("Notes/a.md")
	assert.Equal(t, 1, src.calls["Notes/a.md"])
}

func TestMetadataCache_Invalidate(t *testing.T) {
	src := newCountingSource()
	cache := NewMetadataCache(src)

	cache.Tags("Notes/a.md")
	cache.Invalidate("Notes/a.md")
	cache.Tags("Notes/a.md")
	assert.Equal(t, 2, src.calls["Notes/a.md"])
}

func TestMetadataCache_Reset(t *testing.T) {
	src := newCountingSource()
	cache := NewMetadataCache(src)

	cache.Tags("Notes/a.md")
	cache.Reset()
	cache.Tags("Notes/a.md")
	assert.Equal(t, 2, src.calls["Notes/a.md"])
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "create", EventCreate.String())
	assert.Equal(t, "modify", EventModify.String())
	assert.Equal(t, "delete", EventDelete.String())
	assert.Equal(t, "rename", EventRename.String())
}
