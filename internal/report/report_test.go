package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
)

func sampleReport() *models.ComparativeReport {
	return &models.ComparativeReport{
		Subject: "Tesla",
		Articles: []models.ArticleAnnotation{
			{Title: "Tesla beats estimates", Summary: "Record deliveries.", URL: "https://ex.com/1",
				Sentiment: models.Sentiment{Label: models.Positive, Score: 0.91}, Topics: []string{"deliveries", "earnings"}},
			{Title: "Recall <widens>", Summary: "Steering fault.", URL: "https://ex.com/2",
				Sentiment: models.Sentiment{Label: models.Negative, Score: 0.77}, Topics: []string{"earnings", "recall"}},
		},
		SentimentDistribution: models.SentimentDistribution{models.Positive: 1, models.Negative: 1, models.Neutral: 0},
		Comparisons: []models.Comparison{
			{Label: "Tesla beats estimates vs Recall <widens>", Impact: "Tesla beats estimates discusses POSITIVE news."},
		},
		TopicOverlap: models.TopicOverlap{
			CommonTopics: []string{"earnings"},
			UniqueTopicsByTitle: map[string][]string{
				"Tesla beats estimates": {"deliveries"},
				"Recall <widens>":       {"recall"},
			},
			UniqueTopics: []models.ArticleTopics{
				{Index: 0, Title: "Tesla beats estimates", Topics: []string{"deliveries"}},
				{Index: 1, Title: "Recall <widens>", Topics: []string{"recall"}},
			},
		},
		DominantSentiment:  models.Positive,
		Verdict:            "Tesla's latest news coverage is mostly POSITIVE. Potential stock growth expected.",
		Transcript:         "Title: Tesla beats estimates.",
		NarrationReference: models.NarrationUnavailable,
		NarrationError:     "tts down",
		GeneratedAt:        time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(sampleReport(), DefaultConfig())
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	checks := []struct {
		name   string
		substr string
	}{
		{"doctype", "<!DOCTYPE html>"},
		{"title", "News Sentiment Report: Tesla"},
		{"verdict", "mostly POSITIVE"},
		{"positive colour", ColorPositive},
		{"negative colour", ColorNegative},
		{"gauge percent", "50%"},
		{"escaped title", "Recall &lt;widens&gt;"},
		{"article link", `href="https://ex.com/1"`},
		{"common topic", `<span class="topic">earnings</span>`},
		{"comparison", "Coverage Differences"},
		{"narration error", "Audio unavailable: tts down"},
		{"svg", "<svg"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !strings.Contains(html, c.substr) {
				t.Errorf("expected %q in HTML output", c.substr)
			}
		})
	}
	if strings.Contains(html, "Recall <widens>") {
		t.Error("article title was not escaped")
	}
}

func TestGenerateHTML_Sections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sections = []Section{SectionSentiment}
	cfg.Title = "Custom"
	html, err := GenerateHTML(sampleReport(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<title>Custom</title>") {
		t.Error("custom title missing")
	}
	if strings.Contains(html, "<h2>Articles</h2>") || strings.Contains(html, "<h2>Narration</h2>") {
		t.Error("excluded sections rendered")
	}
}

func TestGenerateHTML_AudioPlayer(t *testing.T) {
	r := sampleReport()
	r.NarrationReference = "/tmp/audio/narration-1.mp3"
	r.NarrationError = ""
	cfg := DefaultConfig()
	cfg.AudioURL = "/api/v1/audio?ref=x"
	html, err := GenerateHTML(r, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<audio controls") {
		t.Error("audio player missing")
	}
}

func TestGenerate_NilReport(t *testing.T) {
	if _, err := GenerateHTML(nil, DefaultConfig()); err != ErrNilReport {
		t.Errorf("html err = %v", err)
	}
	if _, err := GenerateText(nil, DefaultConfig()); err != ErrNilReport {
		t.Errorf("text err = %v", err)
	}
}

func TestGenerateText(t *testing.T) {
	text, err := GenerateText(sampleReport(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"News Sentiment Report: Tesla",
		"POSITIVE    1   50.0%",
		"NEUTRAL     0    0.0%",
		"1. Tesla beats estimates",
		"Topics: deliveries, earnings",
		"Common: earnings",
		"Recall <widens>: recall",
		"Audio: unavailable (tts down)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestNewPayload(t *testing.T) {
	r := sampleReport()
	r.Articles[0].Topics = nil
	b, err := json.Marshal(NewPayload(r))
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"Company", "Articles", "Comparative Sentiment Score", "Final Sentiment Analysis", "Audio"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	score := got["Comparative Sentiment Score"].(map[string]any)
	for _, key := range []string{"Sentiment Distribution", "Coverage Differences", "Topic Overlap"} {
		if _, ok := score[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	dist := score["Sentiment Distribution"].(map[string]any)
	if dist["NEUTRAL"] != float64(0) || dist["POSITIVE"] != float64(1) {
		t.Errorf("distribution = %v", dist)
	}
	overlap := score["Topic Overlap"].(map[string]any)
	if _, ok := overlap["Unique Topics per Article"].(map[string]any)["Recall <widens>"]; !ok {
		t.Errorf("overlap = %v", overlap)
	}
	first := got["Articles"].([]any)[0].(map[string]any)
	if topics, ok := first["Topics"].([]any); !ok || len(topics) != 0 {
		t.Errorf("nil topics should encode as [], got %v", first["Topics"])
	}
	if first["Sentiment"].(map[string]any)["label"] != "POSITIVE" {
		t.Errorf("sentiment = %v", first["Sentiment"])
	}
}

func TestGaugeChart(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{-5, ">0%<"},
		{0, ">0%<"},
		{66.7, ">67%<"},
		{150, ">100%<"},
	}
	for _, tt := range tests {
		svg := GaugeChart(tt.value, "POSITIVE", ColorPositive, 0)
		if !strings.Contains(svg, tt.want) {
			t.Errorf("GaugeChart(%v) missing %q", tt.value, tt.want)
		}
		if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
			t.Errorf("GaugeChart(%v) is not an svg document", tt.value)
		}
	}
}

func TestHorizontalBarChart(t *testing.T) {
	if svg := HorizontalBarChart(nil, ChartConfig{}); !strings.Contains(svg, "No data") {
		t.Error("empty chart should say No data")
	}
	svg := DistributionChart(models.SentimentDistribution{models.Positive: 3, models.Negative: 1}, DefaultChartConfig())
	for _, want := range []string{"Sentiment Distribution", "POSITIVE", "NEGATIVE", "NEUTRAL", ColorNegative} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing %q", want)
		}
	}
	if i, j := strings.Index(svg, "POSITIVE"), strings.Index(svg, "NEUTRAL"); i > j {
		t.Error("labels not in enumeration order")
	}
}

func TestSentimentColor(t *testing.T) {
	tests := map[models.SentimentLabel]string{
		models.Positive: "#4CAF50",
		models.Negative: "#f44336",
		models.Neutral:  "#2196F3",
		"bogus":         "#2196F3",
	}
	for l, want := range tests {
		if got := SentimentColor(l); got != want {
			t.Errorf("SentimentColor(%s) = %s, want %s", l, got, want)
		}
	}
}

func TestEscapeXML(t *testing.T) {
	if got := escapeXML(`a<b>&"c"`); got != "a&lt;b&gt;&amp;&quot;c&quot;" {
		t.Errorf("escapeXML = %q", got)
	}
}

func TestExportPDF_HTMLFallback(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultPDFConfig(filepath.Join(dir, "sub", "tesla.pdf"))
	cfg.Engine = EngineNone
	path, err := ExportPDF(context.Background(), "<html>x</html>", cfg)
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if filepath.Ext(path) != ".html" {
		t.Errorf("path = %s, want .html fallback", path)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "<html>x</html>" {
		t.Errorf("content = %q, err = %v", b, err)
	}
}

func TestExportPDF_Errors(t *testing.T) {
	if _, err := ExportPDF(context.Background(), "", PDFConfig{}); err != ErrNoOutputPath {
		t.Errorf("err = %v", err)
	}
	cfg := DefaultPDFConfig(filepath.Join(t.TempDir(), "x.pdf"))
	cfg.Engine = "prince"
	if _, err := ExportPDF(context.Background(), "", cfg); err == nil {
		t.Error("expected unsupported engine error")
	}
}
