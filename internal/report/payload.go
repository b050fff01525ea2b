package report

import "github.com/seenimoa/newspulse/pkg/models"

// Payload is the reference wire shape of a report, as returned by the
// analyze endpoint and `analyze --json`.
type Payload struct {
	Company     string           `json:"Company"`
	Articles    []PayloadArticle `json:"Articles"`
	Comparative PayloadScore     `json:"Comparative Sentiment Score"`
	Final       string           `json:"Final Sentiment Analysis"`
	Audio       string           `json:"Audio"`
	AudioError  string           `json:"Audio Error,omitempty"`
	GeneratedAt string           `json:"Generated At"`
}

// PayloadArticle is one annotated article.
type PayloadArticle struct {
	Title     string           `json:"Title"`
	Summary   string           `json:"Summary"`
	Sentiment models.Sentiment `json:"Sentiment"`
	URL       string           `json:"URL"`
	Topics    []string         `json:"Topics"`
}

// PayloadScore groups the comparative sections.
type PayloadScore struct {
	Distribution map[models.SentimentLabel]int `json:"Sentiment Distribution"`
	Differences  []PayloadComparison           `json:"Coverage Differences"`
	TopicOverlap PayloadOverlap                `json:"Topic Overlap"`
}

// PayloadComparison is one pairwise contrast.
type PayloadComparison struct {
	Comparison string `json:"Comparison"`
	Impact     string `json:"Impact"`
}

// PayloadOverlap is the topic overlap keyed by article title.
type PayloadOverlap struct {
	Common     []string            `json:"Common Topics"`
	PerArticle map[string][]string `json:"Unique Topics per Article"`
}

// NewPayload converts a report into the reference wire shape. Nil slices
// become empty arrays so clients never see null.
func NewPayload(r *models.ComparativeReport) Payload {
	p := Payload{
		Company:     r.Subject,
		Articles:    make([]PayloadArticle, 0, len(r.Articles)),
		Final:       r.Verdict,
		Audio:       r.NarrationReference,
		AudioError:  r.NarrationError,
		GeneratedAt: r.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, a := range r.Articles {
		p.Articles = append(p.Articles, PayloadArticle{
			Title:     a.Title,
			Summary:   a.Summary,
			Sentiment: a.Sentiment,
			URL:       a.URL,
			Topics:    nonNil(a.Topics),
		})
	}

	p.Comparative.Distribution = make(map[models.SentimentLabel]int, 3)
	for _, l := range models.SentimentLabels() {
		p.Comparative.Distribution[l] = r.SentimentDistribution[l]
	}
	p.Comparative.Differences = make([]PayloadComparison, 0, len(r.Comparisons))
	for _, c := range r.Comparisons {
		p.Comparative.Differences = append(p.Comparative.Differences, PayloadComparison{Comparison: c.Label, Impact: c.Impact})
	}
	p.Comparative.TopicOverlap.Common = nonNil(r.TopicOverlap.CommonTopics)
	p.Comparative.TopicOverlap.PerArticle = make(map[string][]string, len(r.TopicOverlap.UniqueTopicsByTitle))
	for title, topics := range r.TopicOverlap.UniqueTopicsByTitle {
		p.Comparative.TopicOverlap.PerArticle[title] = nonNil(topics)
	}
	return p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
