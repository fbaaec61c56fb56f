package llm

import (
	"context"
	"errors"
)

// Provider represents an LLM provider
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

var (
	// ErrMissingAPIKey is returned when a key-based provider has no key
	ErrMissingAPIKey = errors.New("API key is required")
	// ErrEmptyPrompt is returned when an assistant has no setup prompt
	ErrEmptyPrompt = errors.New("assistant requires a setup prompt")
	// ErrEmptyResponse is returned when the model answers with no content
	ErrEmptyResponse = errors.New("model returned no content")
)

// Request represents an LLM completion request
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response represents an LLM completion response
type Response struct {
	Content      string
	Refusal      string
	Model        string
	Provider     Provider
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// Client is the interface for LLM providers
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Name() Provider
}
