// Package report renders comparative reports as HTML pages, plain text and
// optional PDF exports. Charts are inline SVG so a report is a single file.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Gauge colours per sentiment label.
const (
	ColorPositive = "#4CAF50"
	ColorNegative = "#f44336"
	ColorNeutral  = "#2196F3"
)

// SentimentColor returns the display colour of a label.
func SentimentColor(l models.SentimentLabel) string {
	switch l {
	case models.Positive:
		return ColorPositive
	case models.Negative:
		return ColorNegative
	}
	return ColorNeutral
}

// ChartConfig holds rendering parameters for bar charts.
type ChartConfig struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	BgColor      string
	TextColor    string
	FontSize     int
	Title        string
}

// DefaultChartConfig returns defaults sized for the report page.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        640,
		Height:       180,
		MarginTop:    36,
		MarginRight:  60,
		MarginBottom: 16,
		MarginLeft:   110,
		BgColor:      "#ffffff",
		TextColor:    "#333333",
		FontSize:     12,
	}
}

func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// BarItem is one bar of a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string
}

// HorizontalBarChart draws non-negative values scaled to the largest one.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	px, py, pw, ph := cfg.plotArea()

	maxVal := 0.0
	for _, it := range items {
		maxVal = math.Max(maxVal, it.Value)
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	barH := math.Min(float64(ph)/float64(len(items))*0.7, 28)
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, cfg.Width, cfg.Height, cfg.BgColor)
	if cfg.Title != "" {
		fmt.Fprintf(&sb, `<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
			cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))
	}
	for i, it := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		bw := math.Max(it.Value, 0) / maxVal * float64(pw)
		color := it.Color
		if color == "" {
			color = ColorNeutral
		}
		fmt.Fprintf(&sb, `<rect x="%d" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="3"/>`,
			px, by, bw, barH, color)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-6, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(it.Label))
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`,
			float64(px)+bw+6, by+barH/2+4, cfg.FontSize, cfg.TextColor, trimFloat(it.Value))
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// DistributionChart draws one bar per sentiment label in enumeration order.
func DistributionChart(d models.SentimentDistribution, cfg ChartConfig) string {
	items := make([]BarItem, 0, 3)
	for _, l := range models.SentimentLabels() {
		items = append(items, BarItem{Label: string(l), Value: float64(d[l]), Color: SentimentColor(l)})
	}
	if cfg.Title == "" {
		cfg.Title = "Sentiment Distribution"
	}
	return HorizontalBarChart(items, cfg)
}

// GaugeChart draws a semicircular gauge for a 0-100 value in the given colour.
func GaugeChart(value float64, label, color string, width int) string {
	if width == 0 {
		width = 180
	}
	height := width/2 + 30
	cx := float64(width) / 2
	cy := float64(width)/2 - 10
	radius := float64(width)/2 - 20
	value = math.Max(0, math.Min(100, value))
	if color == "" {
		color = ColorNeutral
	}

	angle := math.Pi - (value/100)*math.Pi
	endX := cx + radius*math.Cos(angle)
	endY := cy - radius*math.Sin(angle)
	largeArc := 0
	if value > 50 {
		largeArc = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		width, height, width, height)
	fmt.Fprintf(&sb, `<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="#e0e0e0" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, cx+radius, cy)
	if value > 0 {
		fmt.Fprintf(&sb, `<path d="M%.1f,%.1f A%.1f,%.1f 0 %d,1 %.1f,%.1f" fill="none" stroke="%s" stroke-width="12" stroke-linecap="round"/>`,
			cx-radius, cy, radius, radius, largeArc, endX, endY, color)
	}
	fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%.0f%%</text>`,
		cx, cy+6, color, value)
	fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="12" fill="#666" text-anchor="middle">%s</text>`,
		cx, height-5, escapeXML(label))
	sb.WriteString("</svg>")
	return sb.String()
}

// ── SVG Helpers ──

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
