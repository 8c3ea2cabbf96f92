// Package llm provides the abstraction over hosted language-model APIs.
//
// Providers handle API communication and nothing else: they accept a list of
// messages and return the assistant's reply. Prompt construction and response
// parsing belong to the caller (see pkg/analyzer), which keeps providers
// reusable and trivially fakeable in tests.
package llm

import "context"

// MessageRole identifies the author of a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single chat message exchanged with a model.
type Message struct {
	Role    MessageRole
	Content string
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// Provider defines the interface for LLM integrations.
//
// Complete blocks until the model has produced its full response. The call
// honors ctx for cancellation; transport and API errors are returned as-is
// so callers can decide how to degrade.
type Provider interface {
	// Complete sends messages to the LLM and returns the full response.
	Complete(ctx context.Context, messages []*Message) (*Message, error)

	// GetModel returns the model name being used.
	GetModel() string
}
