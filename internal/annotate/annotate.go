// Package annotate derives a summary, a sentiment and a topic list from the
// raw text of one article.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/llm"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Annotator providers selectable through annotation.provider.
const (
	ProviderKeyword     = "keyword"
	ProviderLLM         = "llm"
	ProviderHuggingFace = "huggingface"
)

// Defaults for the keyword extractor.
const (
	DefaultMaxTopics    = 5
	DefaultSummaryWords = 60
)

var (
	// ErrEmptyText is returned when there is nothing to annotate.
	ErrEmptyText = errors.New("annotate: empty text")

	// ErrBadResponse is returned when a backend answers with something that
	// cannot be turned into an Annotation.
	ErrBadResponse = errors.New("annotate: malformed backend response")
)

// Annotation is the derived data for one article.
type Annotation struct {
	Summary   string           `json:"summary"`
	Sentiment models.Sentiment `json:"sentiment"`
	Topics    []string         `json:"topics"`
}

// Annotator produces an Annotation from raw article text.
type Annotator interface {
	Name() string
	Annotate(ctx context.Context, rawText string) (Annotation, error)
}

// New builds the annotator selected by cfg.Provider. The router is only
// needed for the llm provider.
func New(cfg config.AnnotationConfig, router *llm.Router, logger *slog.Logger) (Annotator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	kw := NewKeyword(cfg.MaxTopics, cfg.SummaryWords)

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderKeyword:
		return kw, nil
	case ProviderLLM:
		if router == nil {
			return nil, fmt.Errorf("annotate: provider %q: %w", cfg.Provider, llm.ErrNoProviders)
		}
		return NewLLM(router, kw, WithLLMLogger(logger)), nil
	case ProviderHuggingFace:
		hf := cfg.HuggingFace
		return NewHuggingFace(hf.APIKey, kw,
			WithHFBaseURL(hf.BaseURL),
			WithHFModels(hf.SummaryModel, hf.SentimentModel),
		), nil
	default:
		return nil, fmt.Errorf("annotate: unknown provider %q", cfg.Provider)
	}
}

// neutralEmpty is the annotation of text that yields no summary.
func neutralEmpty() Annotation {
	return Annotation{
		Sentiment: models.Sentiment{Label: models.Neutral, Score: 0.5},
		Topics:    []string{},
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
