package rag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vaultrag/ai"
	"github.com/poiesic/vaultrag/ai/mock"
	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/index"
	"github.com/poiesic/vaultrag/redact"
	"github.com/poiesic/vaultrag/registry"
	"github.com/poiesic/vaultrag/splitter"
	"github.com/poiesic/vaultrag/storage/file"
	"github.com/poiesic/vaultrag/store"
)

type fixture struct {
	store    *store.Store
	embedder *mock.MockEmbedder
	chat     *mock.MockChatModel
	orch     *Orchestrator
}

func newFixture(t *testing.T, cfg *ai.Config, opts ...Option) *fixture {
	t.Helper()

	split, err := splitter.New(200, 40)
	require.NoError(t, err)
	reg, err := registry.New(split, redact.New())
	require.NoError(t, err)

	st, err := store.New(file.New(filepath.Join(t.TempDir(), "vectors.json")))
	require.NoError(t, err)
	require.NoError(t, st.Load())

	embedder := mock.NewMockEmbedder()
	coord, err := index.New(reg, st, embedder, index.WithBatchDelay(0))
	require.NoError(t, err)

	chat := mock.NewMockChatModel()
	if cfg == nil {
		cfg = ai.NewConfig()
	}
	orch, err := New(coord, chat, cfg, opts...)
	require.NoError(t, err)

	return &fixture{store: st, embedder: embedder, chat: chat, orch: orch}
}

// seedResult plants a stored vector that matches any query embedding exactly.
func (f *fixture) seedResult(path, content string) {
	vec := []float32{1, 0}
	f.store.Upsert(core.ChunkID(path, 0), vec, "h", content, path, core.DisplayLinkFor(path))
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vec, nil
	}
}

func TestAsk_MissingCredential(t *testing.T) {
	hosted := ai.NewConfig(ai.WithHost("https://api.openai.com"))
	f := newFixture(t, hosted)

	_, err := f.orch.Ask(context.Background(), "question", nil, nil)
	assert.ErrorIs(t, err, core.ErrMissingCredential)
	assert.Zero(t, f.chat.CallCount(), "no network call without credential")
}

func TestAsk_CitesDisplayLinks(t *testing.T) {
	f := newFixture(t, nil)
	f.seedResult("Notes/Badger Setup.md", "steps for configuring badger storage")

	answer, err := f.orch.Ask(context.Background(), "how do I configure badger?", nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, answer)

	prompt := f.chat.LastSystemPrompt()
	assert.Contains(t, prompt, "[[Badger Setup]]")
	assert.Contains(t, prompt, "steps for configuring badger storage")
	assert.Contains(t, prompt, "% relevant)")
	assert.Contains(t, prompt, "exactly as given")
}

func TestAsk_RelevanceStaysInPercentRange(t *testing.T) {
	f := newFixture(t, nil)

	// A vector pointing away from the query yields a negative cosine score.
	f.store.Upsert(core.ChunkID("Notes/contrary.md", 0), []float32{-1, 0}, "h",
		"a note about something else entirely", "Notes/contrary.md", core.DisplayLinkFor("Notes/contrary.md"))
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	_, err := f.orch.Ask(context.Background(), "question", nil, nil)
	require.NoError(t, err)

	prompt := f.chat.LastSystemPrompt()
	assert.Contains(t, prompt, "(0% relevant)")
	assert.NotContains(t, prompt, "(-")
}

func TestAsk_ZeroResultsDisclosure(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.orch.Ask(context.Background(), "anything", nil, nil)
	require.NoError(t, err)

	prompt := f.chat.LastSystemPrompt()
	assert.Contains(t, prompt, "No notes matched")
	assert.Contains(t, prompt, "general knowledge")
}

func TestAsk_FilterScopeInPrompt(t *testing.T) {
	f := newFixture(t, nil)
	f.seedResult("Projects/x.md", "project notes")

	filter := &core.Filter{Folders: []string{"Projects"}}
	_, err := f.orch.Ask(context.Background(), "status?", nil, filter)
	require.NoError(t, err)

	prompt := f.chat.LastSystemPrompt()
	assert.Contains(t, prompt, "explicitly scoped")
	assert.Contains(t, prompt, "folders: Projects")
}

func TestAsk_HistoryWindow(t *testing.T) {
	f := newFixture(t, nil, WithHistoryWindow(4))

	var history []*core.Turn
	for i := 0; i < 10; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		history = append(history, &core.Turn{
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
			Timestamp: time.Now(),
		})
	}

	_, err := f.orch.Ask(context.Background(), "current question", history, nil)
	require.NoError(t, err)

	msgs := f.chat.LastMessages()
	require.Len(t, msgs, 5, "4 history turns plus the query")
	assert.Equal(t, "turn 6", msgs[0].Content)
	assert.Equal(t, ai.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "turn 7", msgs[1].Content)
	assert.Equal(t, ai.MessageRoleAssistant, msgs[1].Role)
	assert.Equal(t, "current question", msgs[4].Content)
	assert.Equal(t, ai.MessageRoleUser, msgs[4].Role)
}

func TestAsk_ServiceErrorBecomesAnswerText(t *testing.T) {
	f := newFixture(t, nil)
	f.chat.CompleteFunc = func(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error) {
		return "", errors.New("model overloaded")
	}

	answer, err := f.orch.Ask(context.Background(), "question", nil, nil)
	require.NoError(t, err, "service errors are not surfaced as errors")
	assert.Equal(t, "Error: model overloaded", answer)
}

func TestAsk_RetrievalFailureStillAnswers(t *testing.T) {
	f := newFixture(t, nil)
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	answer, err := f.orch.Ask(context.Background(), "question", nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
	assert.Contains(t, f.chat.LastSystemPrompt(), "No notes matched")
}
