package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTags_Frontmatter(t *testing.T) {
	content := "---\ntags:\n  - work\n  - work/meetings\n---\n# Heading\nBody text."
	tags := extractTags(content)
	assert.ElementsMatch(t, []string{"work", "work/meetings"}, tags)
}

func TestExtractTags_FrontmatterScalarAndSingular(t *testing.T) {
	content := "---\ntags: alpha, beta\ntag: gamma\n---\nBody."
	tags := extractTags(content)
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, tags)
}

func TestExtractTags_Inline(t *testing.T) {
	content := "Working on #projects/vaultrag today, also #go.\nNot a tag: x#y"
	tags := extractTags(content)
	assert.ElementsMatch(t, []string{"projects/vaultrag", "go"}, tags)
}

func TestExtractTags_Deduplicates(t *testing.T) {
	content := "---\ntags: [Work]\n---\nAlso inline #work here."
	tags := extractTags(content)
	assert.Len(t, tags, 1)
}

func TestExtractTags_NoFrontmatter(t *testing.T) {
	assert.Empty(t, extractTags("Just plain text without markers."))
}

func TestExtractTags_MalformedFrontmatterIgnored(t *testing.T) {
	content := "---\n: : not yaml [\n---\nBody with #ok tag."
	tags := extractTags(content)
	assert.ElementsMatch(t, []string{"ok"}, tags)
}

func TestSplitFrontmatter(t *testing.T) {
	fm, body, ok := splitFrontmatter("---\na: 1\n---\nrest")
	assert.True(t, ok)
	assert.Equal(t, "a: 1", fm)
	assert.Contains(t, body, "rest")

	_, _, ok = splitFrontmatter("no frontmatter here")
	assert.False(t, ok)
}
