package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Multi tries its sources in order and returns the first non-empty result.
type Multi struct {
	sources []ArticleSource
	logger  *slog.Logger
}

// NewMulti creates a fallback chain.
func NewMulti(logger *slog.Logger, sources ...ArticleSource) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{sources: sources, logger: logger}
}

// Name returns the names of the chained sources.
func (m *Multi) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return "Multi(" + strings.Join(names, ", ") + ")"
}

// Sources returns the chained sources.
func (m *Multi) Sources() []ArticleSource { return m.sources }

// FetchArticles returns the first non-empty result. An error is returned only
// when every source failed.
func (m *Multi) FetchArticles(ctx context.Context, company string, maxCount int) ([]models.RawArticle, error) {
	var errs []error
	for _, s := range m.sources {
		articles, err := s.FetchArticles(ctx, company, maxCount)
		if err != nil {
			if errors.Is(err, ErrEmptyCompany) || ctx.Err() != nil {
				return nil, err
			}
			m.logger.Warn("source failed, trying next", "source", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if len(articles) > 0 {
			return articles, nil
		}
		m.logger.Info("source returned no articles", "source", s.Name(), "company", company)
	}
	if len(errs) == len(m.sources) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}
