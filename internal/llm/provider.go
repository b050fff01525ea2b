// Package llm provides a small chat interface over OpenAI-compatible and
// Ollama backends, with a router that retries and falls back between them.
// The annotation layer uses it to summarise and classify articles.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names for routing and configuration.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Common errors returned by LLM providers.
var (
	ErrNoAPIKey      = errors.New("llm: API key not configured")
	ErrRateLimit     = errors.New("llm: rate limit exceeded")
	ErrContextLength = errors.New("llm: context length exceeded")
	ErrProviderDown  = errors.New("llm: provider unavailable")
	ErrInvalidModel  = errors.New("llm: invalid model")
	ErrNoProviders   = errors.New("llm: no providers configured")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishError  FinishReason = "error"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response represents a complete response from the LLM.
type Response struct {
	Content      string        `json:"content"`
	FinishReason FinishReason  `json:"finish_reason"`
	Usage        Usage         `json:"usage"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider"`
	Latency      time.Duration `json:"latency"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatOptions configures a single chat request.
type ChatOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	// JSON asks the backend to constrain output to a JSON object.
	JSON bool `json:"json,omitempty"`
}

// LLMProvider is the interface that all LLM backends must implement.
type LLMProvider interface {
	// Name returns the provider identifier (e.g., "openai", "ollama").
	Name() string

	// Chat sends a conversation and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// Ping checks if the provider is reachable and the API key is valid.
	Ping(ctx context.Context) error
}

// SystemMessage creates a system prompt message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// String returns a human-readable summary of the response.
func (r *Response) String() string {
	truncated := r.Content
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("[%s/%s] %q, %d tokens, %v",
		r.Provider, r.Model, truncated, r.Usage.TotalTokens, r.Latency.Round(time.Millisecond))
}

// StripCodeFence removes a surrounding ``` or ```json fence from model output.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func mapFinishReason(reason string) FinishReason {
	switch reason {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	default:
		return FinishReason(reason)
	}
}
