package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/seenimoa/newspulse/internal/annotate"
	"github.com/seenimoa/newspulse/internal/comparative"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/llm"
	"github.com/seenimoa/newspulse/internal/narration"
	"github.com/seenimoa/newspulse/internal/store"
)

// ErrNarrationDisabled is returned by OpenAudio when narration is off.
var ErrNarrationDisabled = errors.New("narration disabled")

// Service is a pipeline assembled from configuration, together with the
// collaborators the front ends also need.
type Service struct {
	*Pipeline
	Narration *narration.Service
	Router    *llm.Router
	Config    *config.Config
}

// NewFromConfig builds the source, annotator, narration service, engine and
// report store described by cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	source, err := datasource.New(cfg.Source, logger)
	if err != nil {
		return nil, err
	}

	// The router is optional unless the llm annotator is selected.
	router, err := llm.NewRouterFromConfig(cfg.LLM, logger)
	if err != nil {
		logger.Debug("llm router unavailable", "error", err)
		router = nil
	}

	annotator, err := annotate.New(cfg.Annotation, router, logger)
	if err != nil {
		return nil, err
	}

	narr, err := narration.NewFromConfig(ctx, cfg.Narration, logger)
	if err != nil {
		return nil, err
	}

	engineOpts := []comparative.Option{
		comparative.WithLocale(cfg.Narration.Locale),
		comparative.WithNarrationTimeout(config.Seconds(cfg.Narration.TimeoutSec)),
		comparative.WithLogger(logger),
	}
	if narr != nil {
		engineOpts = append(engineOpts, comparative.WithNarrator(narr))
	}

	reports, err := store.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	p := New(source, annotator, comparative.NewEngine(engineOpts...),
		WithStore(reports),
		WithConcurrency(cfg.Analysis.ConcurrentAnnotations),
		WithArticleLimits(cfg.Analysis.DefaultArticles, cfg.Analysis.MaxArticles),
		WithTimeout(config.Seconds(cfg.Analysis.TimeoutSec)),
		WithLogger(logger),
	)

	logger.Info("pipeline ready",
		"source", source.Name(),
		"annotator", annotator.Name(),
		"narration", narr != nil,
		"storage", cfg.Storage.Backend,
	)
	return &Service{Pipeline: p, Narration: narr, Router: router, Config: cfg}, nil
}

// OpenAudio returns the narration audio behind ref.
func (s *Service) OpenAudio(ctx context.Context, ref string) (io.ReadCloser, error) {
	if s.Narration == nil {
		return nil, ErrNarrationDisabled
	}
	return s.Narration.Open(ctx, ref)
}

// Close releases the report store.
func (s *Service) Close() error {
	if st := s.Store(); st != nil {
		return st.Close()
	}
	return nil
}
