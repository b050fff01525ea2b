package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

const (
	barWidth     = 40
	visibleItems = 3
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("News Summarization and Sentiment Analysis"))
	b.WriteString("\n")

	switch m.State {
	case StateInput:
		b.WriteString(m.inputView())
	case StateRunning:
		b.WriteString(m.runningView())
	case StateComplete:
		b.WriteString(m.resultView())
	case StateError:
		b.WriteString(m.errorView())
	}
	return b.String()
}

func (m Model) inputView() string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render("Company name"))
	b.WriteString("\n")
	b.WriteString(InputStyle.Render(m.Company + "█"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s  ◀ %2d ▶\n", LabelStyle.Render("Articles"), m.Articles)
	b.WriteString(trackStyle.Render(slider(m.Articles)))
	b.WriteString("\n\n")
	b.WriteString(InfoStyle.Render("type a company · ←/→ articles · enter analyze · esc quit"))
	return b.String()
}

func (m Model) runningView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzing %s (%d articles)\n\n", LabelStyle.Render(strings.TrimSpace(m.Company)), m.Articles)
	b.WriteString(progressBar(m.Percent, barWidth))
	fmt.Fprintf(&b, " %3d%%\n", m.Percent)
	b.WriteString(InfoStyle.Render(stageText(m.Stage) + m.Message))
	b.WriteString("\n\n")
	b.WriteString(InfoStyle.Render("q quit"))
	return b.String()
}

func (m Model) errorView() string {
	msg := "unknown error"
	if m.Err != nil {
		msg = m.Err.Error()
	}
	if errors.Is(m.Err, pipeline.ErrNoArticles) {
		msg = "No articles found for " + strings.TrimSpace(m.Company)
	}
	return ErrorStyle.Render("✖ "+msg) + "\n\n" + InfoStyle.Render("n new search · q quit")
}

func (m Model) resultView() string {
	if m.Result == nil || m.Result.Report == nil {
		return ""
	}
	r := m.Result.Report
	var b strings.Builder

	// Gauges
	var gauges []string
	for _, l := range models.SentimentLabels() {
		pct := r.SentimentDistribution.Percent(l)
		gauges = append(gauges, fmt.Sprintf("%s\n%s %5.1f%%  (%d)",
			sentimentStyle(l).Render(string(l)),
			colorBar(l, pct, 20), pct, r.SentimentDistribution[l]))
	}
	b.WriteString(BoxStyle.Render(strings.Join(gauges, "\n\n")))
	b.WriteString("\n")
	b.WriteString(badgeStyle(r.DominantSentiment).Render(string(r.DominantSentiment)) + " " + r.Verdict)
	b.WriteString("\n\n")

	// Articles, a page at a time.
	end := min(len(r.Articles), m.Scroll+visibleItems)
	fmt.Fprintf(&b, "%s %d-%d of %d\n", LabelStyle.Render("Articles"), m.Scroll+1, end, len(r.Articles))
	for i := m.Scroll; i < end; i++ {
		a := r.Articles[i]
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, LabelStyle.Render(a.Title), badgeStyle(a.Sentiment.Label).Render(string(a.Sentiment.Label)))
		b.WriteString("   " + wrap(a.Summary, m.width-6, "   ") + "\n")
		if len(a.Topics) > 0 {
			b.WriteString(InfoStyle.Render("   topics: "+strings.Join(a.Topics, ", ")) + "\n")
		}
	}

	common := "none"
	if len(r.TopicOverlap.CommonTopics) > 0 {
		common = strings.Join(r.TopicOverlap.CommonTopics, ", ")
	}
	fmt.Fprintf(&b, "\n%s %s\n", LabelStyle.Render("Common topics:"), common)

	audio := "unavailable"
	if r.NarrationAvailable() {
		audio = r.NarrationReference
	}
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Narration:"), audio)
	b.WriteString(InfoStyle.Render(fmt.Sprintf("fetched %d · dropped %d · %s",
		m.Result.Fetched, m.Result.Dropped, utils.FormatElapsed(m.Result.Timings.Total))))
	b.WriteString("\n\n")
	b.WriteString(HighlightStyle.Render("↑/↓ scroll · n new search · q quit"))
	return b.String()
}

// ── Rendering helpers ──

func stageText(s pipeline.Stage) string {
	switch s {
	case pipeline.StageFetching:
		return "⏳ "
	case pipeline.StageAnnotating:
		return "📝 "
	case pipeline.StageAnalyzing:
		return "🔍 "
	case pipeline.StageComplete:
		return "✅ "
	}
	return ""
}

func progressBar(percent, width int) string {
	filled := max(0, min(width, percent*width/100))
	return HighlightStyle.UnsetPadding().Render(strings.Repeat(" ", filled)) +
		trackStyle.Render(strings.Repeat("░", width-filled))
}

func colorBar(l models.SentimentLabel, pct float64, width int) string {
	filled := max(0, min(width, int(pct*float64(width)/100+0.5)))
	return sentimentStyle(l).Render(strings.Repeat("█", filled)) + trackStyle.Render(strings.Repeat("░", width-filled))
}

func slider(n int) string {
	var b strings.Builder
	for i := MinArticles; i <= MaxArticles; i++ {
		if i == n {
			b.WriteString("●")
		} else {
			b.WriteString("─")
		}
	}
	return b.String()
}

// wrap breaks s into lines of at most width runes, indenting continuation
// lines.
func wrap(s string, width int, indent string) string {
	if width < 20 {
		width = 20
	}
	var lines []string
	var cur strings.Builder
	n := 0
	for _, w := range strings.Fields(s) {
		wl := len([]rune(w))
		if n > 0 && n+1+wl > width {
			lines = append(lines, cur.String())
			cur.Reset()
			n = 0
		}
		if n > 0 {
			cur.WriteString(" ")
			n++
		}
		cur.WriteString(w)
		n += wl
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n"+indent)
}
