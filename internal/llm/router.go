package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/seenimoa/newspulse/internal/config"
)

// Router sends chat requests to the primary provider and falls back through
// the configured chain, retrying transient failures.
type Router struct {
	mu         sync.RWMutex
	providers  map[string]LLMProvider
	primary    string
	fallbacks  []string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithFallbacks sets the fallback provider chain.
func WithFallbacks(providers ...string) RouterOption {
	return func(r *Router) { r.fallbacks = providers }
}

// WithMaxRetries sets the maximum number of retry attempts per provider.
func WithMaxRetries(n int) RouterOption {
	return func(r *Router) { r.maxRetries = n }
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) RouterOption {
	return func(r *Router) { r.retryDelay = d }
}

// WithRouterLogger sets the logger.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates a new LLM router with the given primary provider.
func NewRouter(primary string, opts ...RouterOption) *Router {
	r := &Router{
		providers:  make(map[string]LLMProvider),
		primary:    primary,
		maxRetries: 2,
		retryDelay: time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProvider adds a provider to the router.
func (r *Router) RegisterProvider(provider LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a registered provider by name.
func (r *Router) GetProvider(name string) (LLMProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Primary returns the primary provider.
func (r *Router) Primary() (LLMProvider, error) {
	p, ok := r.GetProvider(r.primary)
	if !ok {
		return nil, fmt.Errorf("%w: primary provider %q not registered", ErrNoProviders, r.primary)
	}
	return p, nil
}

// Chat tries the primary provider first, then falls back in order.
func (r *Router) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	var lastErr error
	tried := 0
	for _, name := range r.providerChain() {
		provider, ok := r.GetProvider(name)
		if !ok {
			continue
		}
		tried++

		resp, err := r.chatWithRetry(ctx, provider, messages, opts)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		r.logger.Warn("llm provider failed, trying next", "provider", name, "error", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isNonRetryable(err) {
			return nil, err
		}
	}

	if tried == 0 {
		return nil, ErrNoProviders
	}
	return nil, fmt.Errorf("llm/router: all providers failed, last error: %w", lastErr)
}

// HealthCheck pings all registered providers and returns their status.
func (r *Router) HealthCheck(ctx context.Context) map[string]error {
	r.mu.RLock()
	providers := make(map[string]LLMProvider, len(r.providers))
	for k, v := range r.providers {
		providers[k] = v
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, provider := range providers {
		wg.Add(1)
		go func(n string, p LLMProvider) {
			defer wg.Done()
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			err := p.Ping(pingCtx)
			mu.Lock()
			results[n] = err
			mu.Unlock()
		}(name, provider)
	}

	wg.Wait()
	return results
}

// Name returns the name of the primary provider (satisfies LLMProvider).
func (r *Router) Name() string {
	return "router/" + r.primary
}

// Ping checks the primary provider's health (satisfies LLMProvider).
func (r *Router) Ping(ctx context.Context) error {
	p, err := r.Primary()
	if err != nil {
		return err
	}
	return p.Ping(ctx)
}

// ProviderNames returns the names of all registered providers, sorted.
func (r *Router) ProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ── Internal Helpers ──

func (r *Router) providerChain() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain := []string{r.primary}
	for _, fb := range r.fallbacks {
		if fb != r.primary {
			chain = append(chain, fb)
		}
	}
	return chain
}

func (r *Router) chatWithRetry(ctx context.Context, provider LLMProvider, messages []Message, opts *ChatOptions) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := provider.Chat(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if isNonRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// isNonRetryable reports auth, model and context-length failures, which no
// retry or fallback can fix.
func isNonRetryable(err error) bool {
	return errors.Is(err, ErrNoAPIKey) ||
		errors.Is(err, ErrInvalidModel) ||
		errors.Is(err, ErrContextLength)
}

// NewRouterFromConfig creates a Router from the LLM config section.
// OpenAI is registered when a key is present; Ollama whenever a URL is set.
func NewRouterFromConfig(cfg config.LLMConfig, logger *slog.Logger) (*Router, error) {
	router := NewRouter(cfg.Primary,
		WithMaxRetries(2),
		WithRetryDelay(time.Second),
		WithRouterLogger(logger),
	)

	var fallbacks []string
	registered := 0

	if cfg.OpenAIKey != "" {
		p, err := NewOpenAIProvider(cfg.OpenAIKey,
			WithOpenAIBaseURL(cfg.OpenAIURL),
			WithOpenAIModel(modelFor(cfg, ProviderOpenAI)),
		)
		if err == nil {
			router.RegisterProvider(p)
			registered++
			if cfg.Primary != ProviderOpenAI {
				fallbacks = append(fallbacks, ProviderOpenAI)
			}
		}
	}

	if cfg.OllamaURL != "" {
		router.RegisterProvider(NewOllamaProvider(cfg.OllamaURL,
			WithOllamaModel(modelFor(cfg, ProviderOllama)),
		))
		registered++
		if cfg.Primary != ProviderOllama {
			fallbacks = append(fallbacks, ProviderOllama)
		}
	}

	if registered == 0 {
		return nil, ErrNoProviders
	}

	router.fallbacks = fallbacks
	return router, nil
}

// modelFor returns the configured model for the primary provider and the
// fallback model (or the provider default) for the others.
func modelFor(cfg config.LLMConfig, provider string) string {
	if cfg.Primary == provider {
		return cfg.Model
	}
	if cfg.FallbackModel != "" {
		return cfg.FallbackModel
	}
	return ""
}
