package comparative

import (
	"fmt"
	"strings"

	"github.com/seenimoa/newspulse/pkg/models"
)

// FallbackSentiment is the dominant sentiment of an empty batch.
const FallbackSentiment = models.Neutral

var advisories = map[models.SentimentLabel]string{
	models.Positive: "Potential stock growth expected.",
	models.Negative: "Caution advised for investors.",
	models.Neutral:  "Mixed coverage; no strong sentiment trend.",
}

// Advisory returns the investor advisory for a label.
func Advisory(l models.SentimentLabel) string {
	return advisories[l]
}

// Verdict renders the final sentiment sentence for subject.
func Verdict(subject string, dominant models.SentimentLabel) string {
	return fmt.Sprintf("%s's latest news coverage is mostly %s. %s", subject, dominant, Advisory(dominant))
}

// Transcript is the text handed to the narration service: one line per
// article followed by a blank line and the verdict.
func Transcript(articles []models.ArticleAnnotation, verdict string) string {
	lines := make([]string, len(articles))
	for i, a := range articles {
		lines[i] = fmt.Sprintf("Title: %s. Summary: %s. Sentiment: %s.", a.Title, a.Summary, a.Sentiment.Label)
	}
	return strings.Join(lines, "\n") + "\n\nFinal Sentiment Analysis: " + verdict
}

func tally(articles []models.ArticleAnnotation) models.SentimentDistribution {
	d := models.NewSentimentDistribution()
	for _, a := range articles {
		d[a.Sentiment.Label]++
	}
	return d
}

// dominantSentiment picks the first label, in enumeration order, holding the
// maximum count.
func dominantSentiment(d models.SentimentDistribution, n int) models.SentimentLabel {
	if n == 0 {
		return FallbackSentiment
	}
	labels := models.SentimentLabels()
	best := labels[0]
	for _, l := range labels[1:] {
		if d[l] > d[best] {
			best = l
		}
	}
	return best
}
