package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider implements LLMProvider for local Ollama instances.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaOption configures the Ollama provider.
type OllamaOption func(*OllamaProvider)

// WithOllamaModel sets the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) { p.client = client }
}

// NewOllamaProvider creates an Ollama provider.
// baseURL is the Ollama server URL (e.g., "http://localhost:11434").
func NewOllamaProvider(baseURL string, opts ...OllamaOption) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   "qwen2.5:7b",
		client:  &http.Client{Timeout: 300 * time.Second}, // longer timeout for local models
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OllamaProvider) Name() string { return ProviderOllama }

// Ping checks if the Ollama server is reachable.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrProviderDown, resp.StatusCode)
	}
	return nil
}

// Chat sends a non-streaming chat request to /api/chat.
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	model := p.model
	if opts != nil && opts.Model != "" {
		model = opts.Model
	}

	body := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	}
	if opts != nil {
		if opts.Temperature > 0 || opts.MaxTokens > 0 {
			body.Options = &ollamaOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens}
		}
		if opts.JSON {
			body.Format = "json"
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound && strings.Contains(string(bodyBytes), "not found") {
			return nil, fmt.Errorf("%w: %s", ErrInvalidModel, strings.TrimSpace(string(bodyBytes)))
		}
		return nil, fmt.Errorf("ollama: HTTP %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}

	finish := FinishStop
	if !result.Done {
		finish = FinishLength
	}
	return &Response{
		Content:      result.Message.Content,
		FinishReason: finish,
		Model:        result.Model,
		Provider:     ProviderOllama,
		Latency:      time.Since(start),
		Usage: Usage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
			TotalTokens:      result.PromptEvalCount + result.EvalCount,
		},
	}, nil
}

// ── Internal Types ──

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string  `json:"model"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}
