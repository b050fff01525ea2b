package models

import "time"

// NarrationUnavailable is stored as the narration reference when the
// narration service failed or is disabled.
const NarrationUnavailable = "unavailable"

// SentimentDistribution counts articles per sentiment label.
type SentimentDistribution map[SentimentLabel]int

// NewSentimentDistribution returns a distribution with every label present at 0.
func NewSentimentDistribution() SentimentDistribution {
	d := make(SentimentDistribution, 3)
	for _, l := range SentimentLabels() {
		d[l] = 0
	}
	return d
}

// Total returns the number of tallied articles.
func (d SentimentDistribution) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// Percent returns the share of label l in percent (0 when empty).
func (d SentimentDistribution) Percent(l SentimentLabel) float64 {
	total := d.Total()
	if total == 0 {
		return 0
	}
	return float64(d[l]) * 100 / float64(total)
}

// Comparison contrasts two articles of the batch.
type Comparison struct {
	Label  string `json:"comparison"`
	Impact string `json:"impact"`
}

// ArticleTopics holds the topics of one article that are not shared by all
// articles. Keyed by position so that duplicate titles never collide.
type ArticleTopics struct {
	Index  int      `json:"index"`
	Title  string   `json:"title"`
	URL    string   `json:"url,omitempty"`
	Topics []string `json:"topics"`
}

// TopicOverlap separates shared topics from per-article ones.
type TopicOverlap struct {
	CommonTopics []string `json:"common_topics"`
	// UniqueTopicsByTitle is last-write-wins on duplicate titles.
	UniqueTopicsByTitle map[string][]string `json:"unique_topics_by_title"`
	UniqueTopics        []ArticleTopics     `json:"unique_topics"`
}

// ComparativeReport is the aggregate produced for one subject.
type ComparativeReport struct {
	Subject               string                `json:"subject"`
	Articles              []ArticleAnnotation   `json:"articles"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
	Comparisons           []Comparison          `json:"comparisons"`
	TopicOverlap          TopicOverlap          `json:"topic_overlap"`
	DominantSentiment     SentimentLabel        `json:"dominant_sentiment"`
	Verdict               string                `json:"verdict"`
	Transcript            string                `json:"transcript"`
	NarrationReference    string                `json:"narration_reference"`
	NarrationError        string                `json:"narration_error,omitempty"`
	GeneratedAt           time.Time             `json:"generated_at"`
}

// NarrationAvailable reports whether audio was produced for this report.
func (r *ComparativeReport) NarrationAvailable() bool {
	return r.NarrationReference != "" && r.NarrationReference != NarrationUnavailable
}

// Clone returns a deep copy of r. Nil slices and maps stay nil.
func (r *ComparativeReport) Clone() *ComparativeReport {
	if r == nil {
		return nil
	}
	c := *r
	if r.Articles != nil {
		c.Articles = make([]ArticleAnnotation, len(r.Articles))
		for i, a := range r.Articles {
			a.Topics = cloneStrings(a.Topics)
			c.Articles[i] = a
		}
	}
	if r.SentimentDistribution != nil {
		c.SentimentDistribution = make(SentimentDistribution, len(r.SentimentDistribution))
		for l, n := range r.SentimentDistribution {
			c.SentimentDistribution[l] = n
		}
	}
	if r.Comparisons != nil {
		c.Comparisons = append([]Comparison(nil), r.Comparisons...)
	}
	c.TopicOverlap.CommonTopics = cloneStrings(r.TopicOverlap.CommonTopics)
	if r.TopicOverlap.UniqueTopicsByTitle != nil {
		c.TopicOverlap.UniqueTopicsByTitle = make(map[string][]string, len(r.TopicOverlap.UniqueTopicsByTitle))
		for t, topics := range r.TopicOverlap.UniqueTopicsByTitle {
			c.TopicOverlap.UniqueTopicsByTitle[t] = cloneStrings(topics)
		}
	}
	if r.TopicOverlap.UniqueTopics != nil {
		c.TopicOverlap.UniqueTopics = make([]ArticleTopics, len(r.TopicOverlap.UniqueTopics))
		for i, u := range r.TopicOverlap.UniqueTopics {
			u.Topics = cloneStrings(u.Topics)
			c.TopicOverlap.UniqueTopics[i] = u
		}
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
