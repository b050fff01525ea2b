package models

import (
	"fmt"
	"strings"
	"time"
)

// SentimentLabel is the closed set of sentiment classes an annotation may carry.
type SentimentLabel string

const (
	Positive SentimentLabel = "POSITIVE"
	Negative SentimentLabel = "NEGATIVE"
	Neutral  SentimentLabel = "NEUTRAL"
)

// SentimentLabels returns every label in the fixed enumeration order.
// Tie-breaks over labels must iterate in this order.
func SentimentLabels() []SentimentLabel {
	return []SentimentLabel{Positive, Negative, Neutral}
}

// Valid reports whether l is one of the three known labels.
func (l SentimentLabel) Valid() bool {
	switch l {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// ParseSentimentLabel converts a free-form label ("positive", "NEG"...) into
// a SentimentLabel. Only the three full names are accepted.
func ParseSentimentLabel(s string) (SentimentLabel, error) {
	l := SentimentLabel(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown sentiment label %q", s)
	}
	return l, nil
}

// Sentiment is a classified label with the classifier's confidence (0.0 to 1.0).
type Sentiment struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

// ArticleAnnotation is one article plus its derived summary, sentiment and topics.
type ArticleAnnotation struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment"`
	URL       string    `json:"url"`
	Topics    []string  `json:"topics"`
}

// RawArticle is an article as returned by a news source, before annotation.
type RawArticle struct {
	Title       string    `json:"title"`
	RawText     string    `json:"raw_text"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}
