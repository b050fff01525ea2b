// Package pipeline runs one company through fetch, annotation, comparative
// analysis and storage, reporting progress as it goes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/internal/annotate"
	"github.com/seenimoa/newspulse/internal/comparative"
	"github.com/seenimoa/newspulse/internal/datasource"
	"github.com/seenimoa/newspulse/internal/store"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// Article count bounds, matching the dashboard slider.
const (
	DefaultArticles = 3
	MinArticles     = 1
	MaxArticles     = 20
)

// ErrNoArticles is returned when nothing survives fetching and annotation.
var ErrNoArticles = errors.New("no articles found")

// Pipeline wires a source, an annotator, the comparative engine and an
// optional report store. It is safe for concurrent use.
type Pipeline struct {
	source      datasource.ArticleSource
	annotator   annotate.Annotator
	engine      *comparative.Engine
	store       store.ReportStore
	concurrency int
	defaultN    int
	maxN        int
	timeout     time.Duration
	logger      *slog.Logger

	mu        sync.RWMutex
	listeners []ProgressFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore persists every report.
func WithStore(s store.ReportStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithConcurrency bounds concurrent annotations per run.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithArticleLimits sets the default and maximum article counts.
func WithArticleLimits(def, max int) Option {
	return func(p *Pipeline) {
		if max > 0 {
			p.maxN = max
		}
		if def > 0 {
			p.defaultN = def
		}
		if p.defaultN > p.maxN {
			p.defaultN = p.maxN
		}
	}
}

// WithTimeout bounds a whole run. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProgress registers a listener that sees every run's progress.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.listeners = append(p.listeners, fn) }
}

// New creates a pipeline.
func New(source datasource.ArticleSource, annotator annotate.Annotator, engine *comparative.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:      source,
		annotator:   annotator,
		engine:      engine,
		concurrency: 4,
		defaultN:    DefaultArticles,
		maxN:        MaxArticles,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe adds a progress listener after construction.
func (p *Pipeline) Subscribe(fn ProgressFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Store returns the report store, or nil.
func (p *Pipeline) Store() store.ReportStore { return p.store }

// SourceName returns the article source's name.
func (p *Pipeline) SourceName() string { return p.source.Name() }

// AnnotatorName returns the annotator's name.
func (p *Pipeline) AnnotatorName() string { return p.annotator.Name() }

// Request describes one run.
type Request struct {
	Company  string
	Articles int
	// OnProgress receives this run's events in addition to the registered
	// listeners.
	OnProgress ProgressFunc
}

// Timings records how long each stage took.
type Timings struct {
	Fetch    time.Duration `json:"fetch"`
	Annotate time.Duration `json:"annotate"`
	Analyze  time.Duration `json:"analyze"`
	Total    time.Duration `json:"total"`
}

// Result is a finished run.
type Result struct {
	RunID   string                    `json:"run_id"`
	Report  *models.ComparativeReport `json:"report"`
	Fetched int                       `json:"fetched"`
	Dropped int                       `json:"dropped"`
	Timings Timings                   `json:"timings"`
}

// Run analyses up to maxArticles articles about company. A narration
// failure is not an error: the report records it instead.
func (p *Pipeline) Run(ctx context.Context, company string, maxArticles int) (*models.ComparativeReport, error) {
	res, err := p.RunDetailed(ctx, Request{Company: company, Articles: maxArticles})
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// RunDetailed is Run with timings, counts and a per-run progress callback.
func (p *Pipeline) RunDetailed(ctx context.Context, req Request) (*Result, error) {
	company := utils.NormalizeCompany(req.Company)
	if company == "" {
		return nil, datasource.ErrEmptyCompany
	}
	n := p.articleCount(req.Articles)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res := &Result{RunID: uuid.NewString()}
	emit := p.emitter(res.RunID, company, req.OnProgress)
	start := time.Now()

	// 1. Fetch.
	emit(StageFetching, 0, fmt.Sprintf("Fetching up to %d articles from %s", n, p.source.Name()))
	raw, err := p.source.FetchArticles(ctx, company, n)
	res.Timings.Fetch = time.Since(start)
	if err != nil {
		emit(StageFailed, 0, err.Error())
		return nil, fmt.Errorf("fetch %s: %w", company, err)
	}
	if len(raw) > n {
		raw = raw[:n]
	}
	res.Fetched = len(raw)
	if len(raw) == 0 {
		emit(StageFailed, 0, "No articles found for "+company)
		return nil, fmt.Errorf("%w for %s", ErrNoArticles, company)
	}

	// 2. Annotate.
	stageStart := time.Now()
	emit(StageAnnotating, 25, fmt.Sprintf("Annotating %d articles", len(raw)))
	articles, err := p.annotateAll(ctx, raw, func(done int) {
		emit(StageAnnotating, 25+45*done/len(raw), fmt.Sprintf("Annotated %d/%d", done, len(raw)))
	})
	res.Timings.Annotate = time.Since(stageStart)
	if err != nil {
		emit(StageFailed, 25, err.Error())
		return nil, err
	}
	res.Dropped = len(raw) - len(articles)
	if len(articles) == 0 {
		emit(StageFailed, 70, "No articles found for "+company)
		return nil, fmt.Errorf("%w for %s", ErrNoArticles, company)
	}

	// 3. Analyze.
	stageStart = time.Now()
	emit(StageAnalyzing, 70, "Comparing coverage")
	rep, err := p.engine.Analyze(ctx, articles, company)
	res.Timings.Analyze = time.Since(stageStart)
	if err != nil && !comparative.IsNarrationUnavailable(err) {
		emit(StageFailed, 70, err.Error())
		return nil, err
	}
	if err != nil {
		p.logger.Warn("report without narration", "company", company, "error", err)
	}
	res.Report = rep

	// 4. Store.
	if p.store != nil {
		if err := p.store.Put(ctx, rep); err != nil {
			p.logger.Warn("store report failed", "company", company, "error", err)
		}
	}

	res.Timings.Total = time.Since(start)
	emit(StageComplete, 100, rep.Verdict)
	p.logger.Info("analysis complete",
		"company", company,
		"articles", len(articles),
		"dropped", res.Dropped,
		"dominant", rep.DominantSentiment,
		"fetch", utils.FormatElapsed(res.Timings.Fetch),
		"annotate", utils.FormatElapsed(res.Timings.Annotate),
		"total", utils.FormatElapsed(res.Timings.Total),
	)
	return res, nil
}

func (p *Pipeline) articleCount(n int) int {
	switch {
	case n <= 0:
		return p.defaultN
	case n > p.maxN:
		return p.maxN
	}
	return n
}

// annotateAll annotates concurrently, preserving input order. Articles that
// fail or yield an empty summary are dropped; only cancellation aborts.
func (p *Pipeline) annotateAll(ctx context.Context, raw []models.RawArticle, onDone func(done int)) ([]models.ArticleAnnotation, error) {
	slots := make([]*models.ArticleAnnotation, len(raw))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, a := range raw {
		i, a := i, a
		g.Go(func() error {
			ann, err := p.annotator.Annotate(gctx, articleText(a))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.logger.Warn("annotation failed, dropping article", "title", a.Title, "error", err)
			} else if strings.TrimSpace(ann.Summary) == "" {
				p.logger.Debug("empty summary, dropping article", "title", a.Title)
			} else {
				slots[i] = &models.ArticleAnnotation{
					Title:     a.Title,
					Summary:   ann.Summary,
					Sentiment: ann.Sentiment,
					URL:       a.URL,
					Topics:    ann.Topics,
				}
			}
			mu.Lock()
			done++
			onDone(done)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.ArticleAnnotation, 0, len(raw))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// articleText falls back to the title when a source returned no body.
func articleText(a models.RawArticle) string {
	if strings.TrimSpace(a.RawText) == "" {
		return a.Title
	}
	return a.RawText
}
