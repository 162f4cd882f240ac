package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/vaultrag/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, uses default echo behavior.
	CompleteFunc func(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error)

	callCount  int
	lastSystem string
	lastMsgs   []ai.Message
}

// NewMockChatModel creates a mock chat model with default echo behavior.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete records the request and returns either the injected behavior's
// reply or a deterministic summary of what it was asked.
func (m *MockChatModel) Complete(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error) {
	m.callCount++
	m.lastSystem = systemPrompt
	m.lastMsgs = messages

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, messages)
	}

	return fmt.Sprintf("mock answer (%d messages)", len(messages)), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// LastSystemPrompt returns the system prompt of the most recent call.
func (m *MockChatModel) LastSystemPrompt() string {
	return m.lastSystem
}

// LastMessages returns the messages of the most recent call.
func (m *MockChatModel) LastMessages() []ai.Message {
	return m.lastMsgs
}

// Reset clears the recorded state and injected behavior.
func (m *MockChatModel) Reset() {
	m.callCount = 0
	m.lastSystem = ""
	m.lastMsgs = nil
	m.CompleteFunc = nil
}
