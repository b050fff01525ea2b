package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/seenimoa/newspulse/internal/comparative"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// ErrNilReport is returned when there is nothing to render.
var ErrNilReport = errors.New("report: nil report")

// Format specifies the output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Section identifies a part of the rendered report.
type Section string

const (
	SectionSentiment   Section = "sentiment"
	SectionArticles    Section = "articles"
	SectionComparisons Section = "comparisons"
	SectionTopics      Section = "topics"
	SectionNarration   Section = "narration"
)

// AllSections returns every section in display order.
func AllSections() []Section {
	return []Section{SectionSentiment, SectionArticles, SectionComparisons, SectionTopics, SectionNarration}
}

// Config controls rendering.
type Config struct {
	Sections []Section
	Title    string
	// AudioURL, when set, is embedded as the narration player source.
	AudioURL string
	ChartCfg ChartConfig
}

// DefaultConfig renders everything.
func DefaultConfig() Config {
	return Config{Sections: AllSections(), ChartCfg: DefaultChartConfig()}
}

func (c Config) has(s Section) bool {
	for _, sec := range c.Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// Data is what the HTML template sees.
type Data struct {
	Title       string
	Subject     string
	GeneratedAt string
	Dominant    string
	DomColor    string
	Verdict     string
	Advisory    string
	Total       int

	Gauges       []GaugeData
	DistChart    template.HTML
	Articles     []ArticleRow
	Comparisons  []models.Comparison
	CommonTopics []string
	UniqueTopics []UniqueRow

	NarrationOK  bool
	NarrationRef string
	NarrationErr string
	AudioURL     string
	Transcript   string

	ShowSentiment   bool
	ShowArticles    bool
	ShowComparisons bool
	ShowTopics      bool
	ShowNarration   bool
}

// GaugeData is one sentiment gauge.
type GaugeData struct {
	Label   string
	Count   int
	Percent float64
	Color   string
	SVG     template.HTML
}

// ArticleRow is one article in the table.
type ArticleRow struct {
	Index   int
	Title   string
	URL     string
	Summary string
	Label   string
	Score   string
	Color   string
	Topics  string
}

// UniqueRow lists one article's unique topics.
type UniqueRow struct {
	Title  string
	Topics string
}

// GenerateHTML renders a self-contained HTML page.
func GenerateHTML(r *models.ComparativeReport, cfg Config) (string, error) {
	if r == nil {
		return "", ErrNilReport
	}
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildData(r, cfg)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateText renders a terminal-friendly report.
func GenerateText(r *models.ComparativeReport, cfg Config) (string, error) {
	if r == nil {
		return "", ErrNilReport
	}
	return renderText(buildData(r, cfg)), nil
}

func buildData(r *models.ComparativeReport, cfg Config) Data {
	if len(cfg.Sections) == 0 {
		cfg.Sections = AllSections()
	}
	if cfg.ChartCfg.Width == 0 {
		cfg.ChartCfg = DefaultChartConfig()
	}
	title := cfg.Title
	if title == "" {
		title = "News Sentiment Report: " + r.Subject
	}
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = utils.NowIST()
	}

	d := Data{
		Title:           title,
		Subject:         r.Subject,
		GeneratedAt:     utils.FormatDateTimeIST(generated),
		Dominant:        string(r.DominantSentiment),
		DomColor:        SentimentColor(r.DominantSentiment),
		Verdict:         r.Verdict,
		Advisory:        comparative.Advisory(r.DominantSentiment),
		Total:           r.SentimentDistribution.Total(),
		Comparisons:     r.Comparisons,
		CommonTopics:    r.TopicOverlap.CommonTopics,
		NarrationOK:     r.NarrationAvailable(),
		NarrationRef:    r.NarrationReference,
		NarrationErr:    r.NarrationError,
		AudioURL:        cfg.AudioURL,
		Transcript:      r.Transcript,
		ShowSentiment:   cfg.has(SectionSentiment),
		ShowArticles:    cfg.has(SectionArticles),
		ShowComparisons: cfg.has(SectionComparisons),
		ShowTopics:      cfg.has(SectionTopics),
		ShowNarration:   cfg.has(SectionNarration),
	}

	for _, l := range models.SentimentLabels() {
		pct := r.SentimentDistribution.Percent(l)
		color := SentimentColor(l)
		d.Gauges = append(d.Gauges, GaugeData{
			Label:   string(l),
			Count:   r.SentimentDistribution[l],
			Percent: pct,
			Color:   color,
			// Generated from numbers and escaped labels only.
			SVG: template.HTML(GaugeChart(pct, string(l), color, 0)),
		})
	}
	d.DistChart = template.HTML(DistributionChart(r.SentimentDistribution, cfg.ChartCfg))

	for i, a := range r.Articles {
		d.Articles = append(d.Articles, ArticleRow{
			Index:   i + 1,
			Title:   a.Title,
			URL:     a.URL,
			Summary: a.Summary,
			Label:   string(a.Sentiment.Label),
			Score:   fmt.Sprintf("%.2f", a.Sentiment.Score),
			Color:   SentimentColor(a.Sentiment.Label),
			Topics:  strings.Join(a.Topics, ", "),
		})
	}
	for _, u := range r.TopicOverlap.UniqueTopics {
		d.UniqueTopics = append(d.UniqueTopics, UniqueRow{Title: u.Title, Topics: strings.Join(u.Topics, ", ")})
	}
	return d
}

// ── Plain-text renderer ──

func renderText(d Data) string {
	var sb strings.Builder
	line := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	sb.WriteString("\n" + line + "\n")
	fmt.Fprintf(&sb, "  %s\n", d.Title)
	fmt.Fprintf(&sb, "  Generated: %s | Articles: %d\n", d.GeneratedAt, d.Total)
	sb.WriteString(line + "\n")

	fmt.Fprintf(&sb, "\n  ★ %s\n", d.Verdict)
	sb.WriteString(thin + "\n")

	if d.ShowSentiment {
		sb.WriteString("\n  ■ SENTIMENT DISTRIBUTION\n")
		for _, g := range d.Gauges {
			bar := strings.Repeat("█", int(g.Percent/5+0.5))
			fmt.Fprintf(&sb, "    %-9s %3d  %5.1f%%  %s\n", g.Label, g.Count, g.Percent, bar)
		}
		sb.WriteString(thin + "\n")
	}

	if d.ShowArticles {
		sb.WriteString("\n  ■ ARTICLES\n")
		for _, a := range d.Articles {
			fmt.Fprintf(&sb, "\n  %d. %s\n", a.Index, a.Title)
			fmt.Fprintf(&sb, "     [%s %s]", a.Label, a.Score)
			if a.URL != "" {
				fmt.Fprintf(&sb, " %s", a.URL)
			}
			sb.WriteString("\n")
			fmt.Fprintf(&sb, "     %s\n", a.Summary)
			if a.Topics != "" {
				fmt.Fprintf(&sb, "     Topics: %s\n", a.Topics)
			}
		}
		sb.WriteString(thin + "\n")
	}

	if d.ShowComparisons && len(d.Comparisons) > 0 {
		sb.WriteString("\n  ■ COVERAGE DIFFERENCES\n")
		for _, c := range d.Comparisons {
			fmt.Fprintf(&sb, "    • %s\n      %s\n", c.Label, c.Impact)
		}
		sb.WriteString(thin + "\n")
	}

	if d.ShowTopics {
		sb.WriteString("\n  ■ TOPIC OVERLAP\n")
		common := "none"
		if len(d.CommonTopics) > 0 {
			common = strings.Join(d.CommonTopics, ", ")
		}
		fmt.Fprintf(&sb, "    Common: %s\n", common)
		for _, u := range d.UniqueTopics {
			if u.Topics == "" {
				continue
			}
			fmt.Fprintf(&sb, "    %s: %s\n", u.Title, u.Topics)
		}
		sb.WriteString(thin + "\n")
	}

	if d.ShowNarration {
		sb.WriteString("\n  ■ NARRATION\n")
		if d.NarrationOK {
			fmt.Fprintf(&sb, "    Audio: %s\n", d.NarrationRef)
		} else {
			sb.WriteString("    Audio: unavailable")
			if d.NarrationErr != "" {
				fmt.Fprintf(&sb, " (%s)", d.NarrationErr)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n" + line + "\n")
	return sb.String()
}
