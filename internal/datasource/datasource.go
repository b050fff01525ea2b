// Package datasource fetches raw news articles about a company. It defines a
// common ArticleSource interface and implements a Times of India topic-page
// scraper, an RSS source (Google News search and plain feeds) and a fallback
// chain over several sources.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ArticleSource returns up to maxCount recent articles about company.
// Fewer (or zero) results is not an error.
type ArticleSource interface {
	// Name returns the human-readable name of this source.
	Name() string

	FetchArticles(ctx context.Context, company string, maxCount int) ([]models.RawArticle, error)
}

// --- Errors ---

// ErrEmptyCompany is returned when the company identifier is blank.
var ErrEmptyCompany = errors.New("company name is empty")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// fetcher bundles what every source needs to make polite HTTP requests.
type fetcher struct {
	client  *http.Client
	limiter *infra.HostLimiter
	cache   *infra.Cache[[]models.RawArticle]
	logger  *slog.Logger
}

// Option configures a source.
type Option func(*fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithRateLimit sets the per-host request rate (requests per second).
func WithRateLimit(perSecond int) Option {
	return func(f *fetcher) {
		if perSecond > 0 {
			f.limiter = infra.NewHostLimiter(perSecond, time.Second/time.Duration(perSecond))
		}
	}
}

// WithCacheTTL sets how long fetched article lists are reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(f *fetcher) {
		if ttl <= 0 {
			f.cache = nil
			return
		}
		f.cache = infra.NewCache[[]models.RawArticle](ttl)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

func newFetcher(opts []Option) fetcher {
	f := fetcher{
		client:  HTTPClient,
		limiter: infra.NewHostLimiter(2, 500*time.Millisecond), // conservative: 2 req/s
		cache:   infra.NewCache[[]models.RawArticle](10 * time.Minute),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// doGet performs a rate-limited GET request and returns the response body.
// The caller is responsible for closing the returned ReadCloser.
func (f *fetcher) doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html, application/xhtml+xml, application/rss+xml, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}

func (f *fetcher) cached(key string) ([]models.RawArticle, bool) {
	if f.cache == nil {
		return nil, false
	}
	return f.cache.Get(key)
}

func (f *fetcher) store(key string, articles []models.RawArticle) {
	if f.cache != nil && len(articles) > 0 {
		f.cache.Set(key, articles)
	}
}

func cacheKey(source, company string, maxCount int) string {
	return fmt.Sprintf("%s:%s:%d", source, strings.ToLower(company), maxCount)
}

// New builds the source selected by cfg.Provider.
func New(cfg config.SourceConfig, logger *slog.Logger) (ArticleSource, error) {
	opts := []Option{
		WithRateLimit(cfg.RateLimit),
		WithCacheTTL(config.Seconds(cfg.CacheTTL)),
		WithLogger(logger),
	}
	if cfg.TimeoutSec > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: config.Seconds(cfg.TimeoutSec)}))
	}

	switch cfg.Provider {
	case "timesofindia", "":
		return NewTimesOfIndia(opts...), nil
	case "rss":
		return NewNews(cfg.Feeds, opts...), nil
	case "multi":
		return NewMulti(logger, NewTimesOfIndia(opts...), NewNews(cfg.Feeds, opts...)), nil
	default:
		return nil, fmt.Errorf("unknown source provider %q", cfg.Provider)
	}
}
