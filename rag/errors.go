package rag

import "errors"

var (
	// ErrCoordinatorRequired indicates the orchestrator was constructed without an embedding coordinator.
	ErrCoordinatorRequired = errors.New("embedding coordinator is required")

	// ErrChatModelRequired indicates the orchestrator was constructed without a chat model.
	ErrChatModelRequired = errors.New("chat model is required")

	// ErrConfigRequired indicates the orchestrator was constructed without an AI config.
	ErrConfigRequired = errors.New("ai config is required")
)
