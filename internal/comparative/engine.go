// Package comparative turns a batch of annotated articles into cross-article
// statistics: topic overlap, pairwise contrasts, the sentiment distribution
// and a narrated verdict.
package comparative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultLocale is the narration target language.
const DefaultLocale = "hi"

// Narrator turns a transcript into audio and returns an opaque reference to it.
type Narrator interface {
	Synthesize(ctx context.Context, transcript, locale string) (string, error)
}

// Engine runs the comparative analysis. It holds only configuration, so a
// single Engine may serve concurrent Analyze calls.
type Engine struct {
	narrator Narrator
	locale   string
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNarrator sets the narration service. Without one, reports carry the
// unavailable marker.
func WithNarrator(n Narrator) Option {
	return func(e *Engine) { e.narrator = n }
}

// WithLocale sets the narration target locale.
func WithLocale(locale string) Option {
	return func(e *Engine) {
		if locale != "" {
			e.locale = locale
		}
	}
}

// WithNarrationTimeout bounds the narration call. Zero means no bound.
func WithNarrationTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		locale: DefaultLocale,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze builds the comparative report for subject.
//
// A *DataContractViolation is returned (with a nil report) when an article is
// malformed. When narration fails the full report is still returned together
// with an error wrapping ErrNarrationUnavailable.
func (e *Engine) Analyze(ctx context.Context, articles []models.ArticleAnnotation, subject string) (*models.ComparativeReport, error) {
	if err := validate(articles, subject); err != nil {
		return nil, err
	}

	e.logger.Info("comparative analysis", "subject", subject, "articles", len(articles))

	dist := tally(articles)
	dominant := dominantSentiment(dist, len(articles))
	verdict := Verdict(subject, dominant)

	rep := &models.ComparativeReport{
		Subject:               subject,
		Articles:              copyArticles(articles),
		SentimentDistribution: dist,
		Comparisons:           pairwise(articles),
		TopicOverlap:          topicOverlap(articles),
		DominantSentiment:     dominant,
		Verdict:               verdict,
		Transcript:            Transcript(articles, verdict),
		NarrationReference:    models.NarrationUnavailable,
		GeneratedAt:           e.now(),
	}

	if e.narrator == nil {
		return rep, nil
	}

	ref, err := e.narrate(ctx, rep.Transcript)
	if err != nil {
		e.logger.Warn("narration failed", "subject", subject, "error", err)
		rep.NarrationError = err.Error()
		return rep, fmt.Errorf("%w: %v", ErrNarrationUnavailable, err)
	}
	rep.NarrationReference = ref
	return rep, nil
}

func (e *Engine) narrate(ctx context.Context, transcript string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	ref, err := e.narrator.Synthesize(ctx, transcript, e.locale)
	if err != nil {
		return "", err
	}
	if ref == "" {
		return "", fmt.Errorf("narrator returned an empty reference")
	}
	return ref, nil
}

func validate(articles []models.ArticleAnnotation, subject string) error {
	if strings.TrimSpace(subject) == "" {
		return &DataContractViolation{Index: -1, Field: "subject", Value: subject}
	}
	for i, a := range articles {
		if strings.TrimSpace(a.Title) == "" {
			return &DataContractViolation{Index: i, Field: "title", Value: a.Title}
		}
		if !a.Sentiment.Label.Valid() {
			return &DataContractViolation{Index: i, Field: "sentiment.label", Value: string(a.Sentiment.Label)}
		}
	}
	return nil
}

// pairwise contrasts every (i, j) pair with i < j in input order.
func pairwise(articles []models.ArticleAnnotation) []models.Comparison {
	n := len(articles)
	out := make([]models.Comparison, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := articles[i], articles[j]
			out = append(out, models.Comparison{
				Label: fmt.Sprintf("%s vs %s", a.Title, b.Title),
				Impact: fmt.Sprintf("%s discusses %s news, whereas %s focuses on %s coverage.",
					a.Title, a.Sentiment.Label, b.Title, b.Sentiment.Label),
			})
		}
	}
	return out
}

func copyArticles(in []models.ArticleAnnotation) []models.ArticleAnnotation {
	out := make([]models.ArticleAnnotation, len(in))
	for i, a := range in {
		a.Topics = append([]string(nil), a.Topics...)
		out[i] = a
	}
	return out
}
