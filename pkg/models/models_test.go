package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSentimentLabelsOrder(t *testing.T) {
	got := SentimentLabels()
	want := []SentimentLabel{Positive, Negative, Neutral}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("labels[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestParseSentimentLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    SentimentLabel
		wantErr bool
	}{
		{"POSITIVE", Positive, false},
		{"negative", Negative, false},
		{"  Neutral ", Neutral, false},
		{"NEG", "", true},
		{"", "", true},
		{"mixed", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSentimentLabel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSentimentLabel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSentimentLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSentimentDistribution(t *testing.T) {
	d := NewSentimentDistribution()
	for _, l := range SentimentLabels() {
		if c, ok := d[l]; !ok || c != 0 {
			t.Errorf("d[%s] = %d (present %v), want 0", l, c, ok)
		}
	}
	if d.Percent(Positive) != 0 {
		t.Error("empty distribution should give 0 percent")
	}

	d[Positive] = 3
	d[Negative] = 1
	if d.Total() != 4 {
		t.Errorf("Total = %d, want 4", d.Total())
	}
	if p := d.Percent(Positive); p != 75 {
		t.Errorf("Percent(POSITIVE) = %v, want 75", p)
	}
	if p := d.Percent(Neutral); p != 0 {
		t.Errorf("Percent(NEUTRAL) = %v, want 0", p)
	}
}

func TestNarrationAvailable(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"", false},
		{NarrationUnavailable, false},
		{"3f6c.mp3", true},
	}
	for _, tt := range tests {
		r := &ComparativeReport{NarrationReference: tt.ref}
		if got := r.NarrationAvailable(); got != tt.want {
			t.Errorf("NarrationAvailable(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestReportJSONKeys(t *testing.T) {
	r := ComparativeReport{
		Subject:               "Tesla",
		SentimentDistribution: NewSentimentDistribution(),
		DominantSentiment:     Neutral,
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(b)
	for _, key := range []string{`"subject"`, `"sentiment_distribution"`, `"POSITIVE":0`, `"dominant_sentiment":"NEUTRAL"`} {
		if !strings.Contains(s, key) {
			t.Errorf("JSON missing %s: %s", key, s)
		}
	}
	if strings.Contains(s, "narration_error") {
		t.Errorf("empty narration_error should be omitted: %s", s)
	}
}

func TestClone(t *testing.T) {
	var nilReport *ComparativeReport
	if nilReport.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}

	r := &ComparativeReport{
		Subject:               "Tesla",
		Articles:              []ArticleAnnotation{{Title: "A", Topics: []string{"ev"}}},
		SentimentDistribution: SentimentDistribution{Positive: 1},
		Comparisons:           []Comparison{{Label: "A vs B"}},
		TopicOverlap: TopicOverlap{
			CommonTopics:        []string{"ev"},
			UniqueTopicsByTitle: map[string][]string{"A": {"battery"}},
			UniqueTopics:        []ArticleTopics{{Index: 0, Title: "A", Topics: []string{"battery"}}},
		},
	}
	c := r.Clone()
	c.Articles[0].Topics[0] = "x"
	c.SentimentDistribution[Positive] = 5
	c.Comparisons[0].Label = "x"
	c.TopicOverlap.CommonTopics[0] = "x"
	c.TopicOverlap.UniqueTopicsByTitle["A"][0] = "x"
	c.TopicOverlap.UniqueTopics[0].Topics[0] = "x"

	if r.Articles[0].Topics[0] != "ev" || r.SentimentDistribution[Positive] != 1 ||
		r.Comparisons[0].Label != "A vs B" || r.TopicOverlap.CommonTopics[0] != "ev" ||
		r.TopicOverlap.UniqueTopicsByTitle["A"][0] != "battery" ||
		r.TopicOverlap.UniqueTopics[0].Topics[0] != "battery" {
		t.Errorf("Clone shares state with the original: %+v", r)
	}
}
