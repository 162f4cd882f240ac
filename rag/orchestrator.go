// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package rag assembles retrieval-grounded prompts and answers questions
// through the chat service.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/vaultrag/ai"
	"github.com/poiesic/vaultrag/core"
	"github.com/poiesic/vaultrag/index"
)

// DefaultHistoryWindow is how many prior conversation turns are carried into
// the prompt.
const DefaultHistoryWindow = 10

// Orchestrator answers questions by running hybrid retrieval and calling the
// chat service once with the assembled prompt.
type Orchestrator struct {
	coordinator *index.Coordinator
	chat        ai.ChatModel
	config      *ai.Config
	logger      *slog.Logger

	historyWindow int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithHistoryWindow sets how many prior turns are included in the prompt.
func WithHistoryWindow(window int) Option {
	return func(o *Orchestrator) error {
		if window < 0 {
			return fmt.Errorf("history window must not be negative, got %d", window)
		}
		o.historyWindow = window
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		o.logger = logger.With("component", "rag")
		return nil
	}
}

// New creates an Orchestrator.
func New(coordinator *index.Coordinator, chat ai.ChatModel, config *ai.Config, opts ...Option) (*Orchestrator, error) {
	if coordinator == nil {
		return nil, ErrCoordinatorRequired
	}
	if chat == nil {
		return nil, ErrChatModelRequired
	}
	if config == nil {
		return nil, ErrConfigRequired
	}

	o := &Orchestrator{
		coordinator:   coordinator,
		chat:          chat,
		config:        config,
		logger:        slog.Default().With("component", "rag"),
		historyWindow: DefaultHistoryWindow,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Ask answers a question grounded in retrieved note chunks. The only error it
// returns is a missing service credential, detected before any network call;
// every other failure comes back as an "Error: ..." answer string so the
// caller always has something to show.
func (o *Orchestrator) Ask(ctx context.Context, query string, history []*core.Turn, filter *core.Filter) (string, error) {
	if !o.config.HasCredential() {
		return "", core.ErrMissingCredential
	}

	results := o.coordinator.Search(ctx, query, 0, filter)
	o.logger.Debug("retrieved context", "results", len(results))

	systemPrompt := buildSystemPrompt(results, filter)
	messages := buildMessages(query, history, o.historyWindow)

	answer, err := o.chat.Complete(ctx, systemPrompt, messages)
	if err != nil {
		o.logger.Error("chat completion failed", "err", err)
		return "Error: " + err.Error(), nil
	}
	return answer, nil
}

// buildSystemPrompt assembles the system instruction plus labeled context
// blocks in descending score order.
func buildSystemPrompt(results []core.SearchResult, filter *core.Filter) string {
	var b strings.Builder

	b.WriteString("You are an assistant that answers questions using the user's own notes.\n")
	b.WriteString("When you reference a note, cite it with its link token exactly as given in the context, e.g. [[Note Name]]. ")
	b.WriteString("Never use any other link or citation format.\n")

	if scope := filter.Describe(); scope != "" {
		b.WriteString("The user explicitly scoped this question to ")
		b.WriteString(scope)
		b.WriteString(". Prioritize notes from that scope.\n")
	}

	if len(results) == 0 {
		b.WriteString("No notes matched this question. Answer from general knowledge and tell the user that none of their notes matched.\n")
		return b.String()
	}

	b.WriteString("\nContext from the user's notes, most relevant first:\n")
	for _, result := range results {
		fmt.Fprintf(&b, "\n%s (%.0f%% relevant)\n%s\n", result.DisplayLink, relevancePercent(result.Score), result.Content)
	}
	return b.String()
}

// relevancePercent maps a blended score onto a 0-100 percentage. Cosine
// components can go negative; the prompt never shows that.
func relevancePercent(score float32) float32 {
	p := score * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// buildMessages appends the bounded history window and then the current query.
func buildMessages(query string, history []*core.Turn, window int) []ai.Message {
	if len(history) > window {
		history = history[len(history)-window:]
	}

	messages := make([]ai.Message, 0, len(history)+1)
	for _, turn := range history {
		role := ai.MessageRoleUser
		if turn.Role == core.RoleAssistant {
			role = ai.MessageRoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: turn.Content})
	}
	return append(messages, ai.Message{Role: ai.MessageRoleUser, Content: query})
}
