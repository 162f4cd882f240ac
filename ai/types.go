package ai

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	// MessageRoleUser marks messages written by the human.
	MessageRoleUser MessageRole = "user"
	// MessageRoleAssistant marks messages written by the model.
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is a single entry in the conversation sent to a ChatModel.
type Message struct {
	Role    MessageRole
	Content string
}
