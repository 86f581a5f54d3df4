package interfaces

import (
	"context"
)

// LLMProvider identifies the backing model provider of an LLM service.
type LLMProvider string

const (
	// LLMProviderGemini uses the Google Gemini API.
	LLMProviderGemini LLMProvider = "gemini"

	// LLMProviderClaude uses the Anthropic Claude API.
	LLMProviderClaude LLMProvider = "claude"
)

// Message represents a single message in a chat conversation.
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations: embedding
// generation and chat completions. The context builder uses Chat to derive
// tags and a context description; the embedding gateway uses Embed.
type LLMService interface {
	// Embed generates a fixed-dimension embedding vector for the given text.
	// Providers without an embedding endpoint return an error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion response based on the conversation history.
	// The messages slice should contain the full conversation context in
	// chronological order, including system prompts.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the LLM service is operational and can handle
	// requests, including API connectivity and authentication.
	HealthCheck(ctx context.Context) error

	// GetProvider returns the backing provider of this service.
	GetProvider() LLMProvider

	// Close releases resources and performs cleanup operations.
	Close() error
}
