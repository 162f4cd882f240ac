package vaultrag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vaultrag/ai/mock"
	"github.com/poiesic/vaultrag/core"
)

func writeNote(t *testing.T, vault, rel, content string) {
	t.Helper()
	full := filepath.Join(vault, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newTestPipeline(t *testing.T, vaultDir, dataDir string, extra ...Option) *Pipeline {
	t.Helper()
	opts := append([]Option{
		WithProvider(mock.NewMockProvider()),
		WithChunking(300, 50),
		WithEmbeddingBatch(20, 0),
		WithDebounce(10 * time.Millisecond),
	}, extra...)
	p, err := NewPipeline(vaultDir, dataDir, opts...)
	require.NoError(t, err)
	return p
}

func TestPipeline_RebuildSearchAsk(t *testing.T) {
	vaultDir := t.TempDir()
	dataDir := t.TempDir()
	writeNote(t, vaultDir, "Notes/badger.md", "Badger is configured with compression disabled.\nMy key is sk-ABCDEFGHIJKLMNOPQRSTUVWXYZ012345 for now.")
	writeNote(t, vaultDir, "Notes/cooking.md", "A collection of soup recipes for winter evenings.")

	p := newTestPipeline(t, vaultDir, dataDir)
	defer p.Close()

	report, err := p.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Failed)
	assert.Greater(t, report.Processed, 0)

	stats := p.Stats()
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, stats.Chunks, stats.Vectors)
	assert.False(t, stats.NeedsRebuild)

	results := p.Search(context.Background(), "badger compression", 5, nil)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotContains(t, r.Content, "sk-ABCDEFGHIJKLMNOPQRSTUVWXYZ012345",
			"raw secrets must never be stored or retrieved")
	}

	answer, err := p.Ask(context.Background(), "tests", "how is badger configured?", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, answer)

	turns, err := p.History().RecentTurns(context.Background(), "tests", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "how is badger configured?", turns[0].Content)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)
}

func TestPipeline_ConfiguredHistoryWindow(t *testing.T) {
	vaultDir := t.TempDir()
	dataDir := t.TempDir()
	provider := mock.NewMockProvider()
	p, err := NewPipeline(vaultDir, dataDir,
		WithProvider(provider),
		WithHistoryWindow(20),
		WithEmbeddingBatch(20, 0),
	)
	require.NoError(t, err)
	defer p.Close()

	now := time.Now().UTC()
	for i := 0; i < 14; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		require.NoError(t, p.History().AppendTurns(context.Background(), "long",
			&core.Turn{Role: role, Content: fmt.Sprintf("turn %d", i), Timestamp: now}))
	}

	_, err = p.Ask(context.Background(), "long", "the question", nil)
	require.NoError(t, err)

	msgs := provider.GetMockChatModel().LastMessages()
	require.Len(t, msgs, 15, "all 14 prior turns plus the query fit a window of 20")
	assert.Equal(t, "turn 0", msgs[0].Content)
	assert.Equal(t, "the question", msgs[14].Content)
}

func TestPipeline_PersistsAcrossRestart(t *testing.T) {
	vaultDir := t.TempDir()
	dataDir := t.TempDir()
	writeNote(t, vaultDir, "a.md", "persistent content")

	p := newTestPipeline(t, vaultDir, dataDir)
	_, err := p.Rebuild(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Close())

	reopened := newTestPipeline(t, vaultDir, dataDir)
	defer reopened.Close()

	assert.Equal(t, 1, reopened.Stats().Vectors, "vectors survive restart")

	report, err := reopened.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Processed, "unchanged content is not re-embedded")
	assert.Equal(t, 1, report.Skipped)
}

func TestPipeline_WatchReindexesOnChange(t *testing.T) {
	vaultDir := t.TempDir()
	dataDir := t.TempDir()
	p := newTestPipeline(t, vaultDir, dataDir)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Watch(ctx))

	writeNote(t, vaultDir, "live.md", "written while watching")

	assert.Eventually(t, func() bool {
		return p.Stats().Vectors == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestPipeline_PurgeExcluded(t *testing.T) {
	vaultDir := t.TempDir()
	dataDir := t.TempDir()
	writeNote(t, vaultDir, "Archive/old.md", "archived note")
	writeNote(t, vaultDir, "Notes/new.md", "current note")

	p := newTestPipeline(t, vaultDir, dataDir, WithExcludedFolders([]string{"Archive"}))
	defer p.Close()

	_, err := p.Rebuild(context.Background())
	require.NoError(t, err)

	count, err := p.PurgeExcluded()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results := p.Search(context.Background(), "archived note", 10, nil)
	for _, r := range results {
		assert.NotEqual(t, "Archive/old.md", r.DocumentPath)
	}
}

func TestPipeline_TagFilteredAsk(t *testing.T) {
	vaultDir := t.TempDir()
	dataDir := t.TempDir()
	writeNote(t, vaultDir, "work.md", "---\ntags: [work]\n---\nQuarterly planning notes.")
	writeNote(t, vaultDir, "home.md", "Grocery list and chores.")

	p := newTestPipeline(t, vaultDir, dataDir)
	defer p.Close()
	_, err := p.Rebuild(context.Background())
	require.NoError(t, err)

	results := p.Search(context.Background(), "planning", 10, &core.Filter{Tags: []string{"work"}})
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "work.md", r.DocumentPath)
	}
}
