package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/vaultrag/core"
)

func TestTurnRoundTrip(t *testing.T) {
	original := &core.Turn{
		Role:      core.RoleUser,
		Content:   "what did I write about badger?",
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 589000, time.UTC),
	}

	data := MarshalTurn(original)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalTurn(data)
	require.NoError(t, err)
	assert.Equal(t, original.Role, decoded.Role)
	assert.Equal(t, original.Content, decoded.Content)
	assert.True(t, original.Timestamp.Equal(decoded.Timestamp))
}

func TestTurnRoundTrip_UnicodeContent(t *testing.T) {
	original := &core.Turn{
		Role:      core.RoleAssistant,
		Content:   "résumé notes — 日本語 🦡",
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalTurn(MarshalTurn(original))
	require.NoError(t, err)
	assert.Equal(t, original.Content, decoded.Content)
	assert.True(t, original.Timestamp.Equal(decoded.Timestamp))
}

func TestUnmarshalTurn_Truncated(t *testing.T) {
	data := MarshalTurn(&core.Turn{
		Role:      core.RoleUser,
		Content:   "truncate me",
		Timestamp: time.Now().UTC(),
	})

	_, err := UnmarshalTurn(data[:len(data)/2])
	assert.Error(t, err)
}
