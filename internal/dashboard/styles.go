package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/seenimoa/newspulse/internal/report"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Color palette
const (
	colorPrimary = "#2563eb"
	colorInfo    = "#6b7280"
	colorText    = "#FAFAFA"
	colorBorder  = "#3b82f6"
	colorTrack   = "#374151"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary)).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(report.ColorNegative))

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1).
			Width(40)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)

	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorText)).
			Background(lipgloss.Color(colorPrimary)).
			Padding(0, 1)

	trackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorTrack))
)

// sentimentStyle colours text like the report gauges.
func sentimentStyle(l models.SentimentLabel) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(report.SentimentColor(l)))
}

// badgeStyle renders a label on its sentiment colour.
func badgeStyle(l models.SentimentLabel) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorText)).
		Background(lipgloss.Color(report.SentimentColor(l))).
		Padding(0, 1)
}
