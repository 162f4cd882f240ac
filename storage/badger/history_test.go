package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/storage"
)

func newTestHistory(t *testing.T) storage.HistoryRepository {
	t.Helper()
	repo, backend, err := NewMemoryHistory()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func userTurn(content string) *core.Turn {
	return &core.Turn{
		Role:      core.RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func assistantTurn(content string) *core.Turn {
	return &core.Turn{
		Role:      core.RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func TestAppendAndRecentTurns(t *testing.T) {
	repo := newTestHistory(t)
	ctx := context.Background()

	require.NoError(t, repo.AppendTurns(ctx, "default",
		userTurn("first question"),
		assistantTurn("first answer"),
		userTurn("second question"),
	))

	turns, err := repo.RecentTurns(ctx, "default", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	// Oldest first.
	assert.Equal(t, "first question", turns[0].Content)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)
	assert.Equal(t, "second question", turns[2].Content)
}

func TestRecentTurns_Limit(t *testing.T) {
	repo := newTestHistory(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, repo.AppendTurns(ctx, "default", userTurn(fmt.Sprintf("turn %d", i))))
	}

	turns, err := repo.RecentTurns(ctx, "default", 10)
	require.NoError(t, err)
	require.Len(t, turns, 10)

	// The window keeps the newest turns, ordered oldest first.
	assert.Equal(t, "turn 5", turns[0].Content)
	assert.Equal(t, "turn 14", turns[9].Content)
}

func TestRecentTurns_EmptySession(t *testing.T) {
	repo := newTestHistory(t)

	turns, err := repo.RecentTurns(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSessionsAreIsolated(t *testing.T) {
	repo := newTestHistory(t)
	ctx := context.Background()

	require.NoError(t, repo.AppendTurns(ctx, "work", userTurn("work question")))
	require.NoError(t, repo.AppendTurns(ctx, "personal", userTurn("personal question")))

	turns, err := repo.RecentTurns(ctx, "work", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "work question", turns[0].Content)

	sessions, err := repo.Sessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"work", "personal"}, sessions)
}

func TestDeleteSession(t *testing.T) {
	repo := newTestHistory(t)
	ctx := context.Background()

	require.NoError(t, repo.AppendTurns(ctx, "doomed", userTurn("q"), assistantTurn("a")))
	require.NoError(t, repo.AppendTurns(ctx, "kept", userTurn("other")))

	require.NoError(t, repo.DeleteSession(ctx, "doomed"))

	turns, err := repo.RecentTurns(ctx, "doomed", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)

	sessions, err := repo.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, sessions)
}

func TestAppendTurns_RejectsInvalid(t *testing.T) {
	repo := newTestHistory(t)
	ctx := context.Background()

	err := repo.AppendTurns(ctx, "default", &core.Turn{Role: core.RoleUser})
	assert.ErrorIs(t, err, core.ErrEmptyContent)

	err = repo.AppendTurns(ctx, "default", &core.Turn{Role: 99, Content: "x", Timestamp: time.Now()})
	assert.ErrorIs(t, err, core.ErrInvalidRole)
}

func TestAppendTurns_DefaultsTimestamp(t *testing.T) {
	repo := newTestHistory(t)
	ctx := context.Background()

	require.NoError(t, repo.AppendTurns(ctx, "default", &core.Turn{
		Role:    core.RoleUser,
		Content: "no timestamp",
	}))

	turns, err := repo.RecentTurns(ctx, "default", 1)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.False(t, turns[0].Timestamp.IsZero())
}
