package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/llm"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ── Keyword ──

func TestScoreText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.SentimentLabel
	}{
		{"positive", "Shares surge as the company posts record high profit and strong growth.", models.Positive},
		{"negative", "Stock plunges after fraud investigation and lawsuit from regulators.", models.Negative},
		{"no signal", "The company held its annual meeting in Mumbai on Tuesday.", models.Neutral},
		{"balanced", "Strong quarter, but the stock fell on weak guidance.", models.Neutral},
		{"case insensitive", "BULLISH outlook, RALLY continues", models.Positive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreText(tt.text)
			if got.Label != tt.want {
				t.Errorf("ScoreText(%q) label = %s, want %s", tt.text, got.Label, tt.want)
			}
			if got.Score < 0 || got.Score > 1 {
				t.Errorf("score %f out of [0,1]", got.Score)
			}
		})
	}
}

func TestScoreText_NoSignalIsHalfConfidence(t *testing.T) {
	got := ScoreText("nothing to see here")
	if got.Label != models.Neutral || got.Score != 0.5 {
		t.Errorf("got %+v, want NEUTRAL 0.5", got)
	}
}

func TestScoreText_WordBoundaries(t *testing.T) {
	// "execute" contains "cut", "fallout" contains "fall"; neither is a match.
	got := ScoreText("Executives discuss fallout planning.")
	if got.Label != models.Neutral || got.Score != 0.5 {
		t.Errorf("substring matched: %+v", got)
	}
}

func TestCountPhrase(t *testing.T) {
	tokens := tokenize("beat beat, record high and another record high")
	if n := countPhrase(tokens, "beat"); n != 2 {
		t.Errorf("beat count = %d, want 2", n)
	}
	if n := countPhrase(tokens, "record high"); n != 2 {
		t.Errorf("record high count = %d, want 2", n)
	}
}

func TestSummarize(t *testing.T) {
	text := "First sentence here. Second one follows! Third? Fourth sentence is long enough."
	tests := []struct {
		name     string
		maxWords int
		want     string
	}{
		{"budget covers two", 6, "First sentence here. Second one follows!"},
		{"budget covers all", 100, "First sentence here. Second one follows! Third? Fourth sentence is long enough."},
		{"first sentence cut", 2, "First sentence..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(text, tt.maxWords); got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarize_Newlines(t *testing.T) {
	got := Summarize("Headline without stop\nBody text follows.", 50)
	if got != "Headline without stop Body text follows." {
		t.Errorf("got %q", got)
	}
}

func TestExtractTopics(t *testing.T) {
	text := "Electric vehicles drive Tesla sales. Electric vehicles face regulatory scrutiny. Tesla expands."
	got := ExtractTopics(text, 3)
	if len(got) != 3 {
		t.Fatalf("got %d topics %v, want 3", len(got), got)
	}
	if got[0] != "electric vehicles" {
		t.Errorf("top topic = %q, want %q", got[0], "electric vehicles")
	}
	for _, topic := range got {
		if topic == "electric" || topic == "vehicles" {
			t.Errorf("unigram %q already covered by bigram", topic)
		}
		if stopwords[topic] {
			t.Errorf("stopword %q returned", topic)
		}
	}
}

func TestExtractTopics_Deterministic(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta"
	first := ExtractTopics(text, 4)
	for i := 0; i < 20; i++ {
		got := ExtractTopics(text, 4)
		if strings.Join(got, "|") != strings.Join(first, "|") {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}

func TestExtractTopics_OnlyStopwords(t *testing.T) {
	if got := ExtractTopics("the and of it is", 5); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestKeyword_Annotate(t *testing.T) {
	k := NewKeyword(3, 20)
	ann, err := k.Annotate(context.Background(),
		"Tesla shares surge after record deliveries. Analysts upgrade the stock on strong demand. More text follows that is beyond the budget of twenty words for sure.")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if ann.Summary == "" || strings.Contains(ann.Summary, "beyond the budget") {
		t.Errorf("summary = %q", ann.Summary)
	}
	if ann.Sentiment.Label != models.Positive {
		t.Errorf("label = %s, want POSITIVE", ann.Sentiment.Label)
	}
	if len(ann.Topics) == 0 || len(ann.Topics) > 3 {
		t.Errorf("topics = %v", ann.Topics)
	}
}

func TestKeyword_EmptyText(t *testing.T) {
	_, err := NewKeyword(0, 0).Annotate(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
}

func TestKeyword_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewKeyword(0, 0).Annotate(ctx, "text"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// ── LLM ──

type fakeChat struct {
	content string
	err     error
	calls   atomic.Int32
	last    []llm.Message
}

func (f *fakeChat) Chat(_ context.Context, msgs []llm.Message, opts *llm.ChatOptions) (*llm.Response, error) {
	f.calls.Add(1)
	f.last = msgs
	if f.err != nil {
		return nil, f.err
	}
	if opts == nil || !opts.JSON {
		return nil, errors.New("expected JSON mode")
	}
	return &llm.Response{Content: f.content, Provider: "fake"}, nil
}

func TestLLM_Annotate(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantLabel models.SentimentLabel
		wantErr   error
	}{
		{
			name:      "plain JSON",
			content:   `{"summary":"Profits rose.","sentiment":"positive","score":0.9,"topics":["Profits","earnings"]}`,
			wantLabel: models.Positive,
		},
		{
			name:      "fenced",
			content:   "```json\n{\"summary\":\"Shares fell.\",\"sentiment\":\"NEGATIVE\",\"score\":0.7,\"topics\":[\"shares\"]}\n```",
			wantLabel: models.Negative,
		},
		{
			name:      "prose around object",
			content:   `Here you go: {"summary":"Flat quarter.","sentiment":"NEUTRAL","score":0.6,"topics":[]} hope it helps`,
			wantLabel: models.Neutral,
		},
		{
			name:    "invalid label",
			content: `{"summary":"x","sentiment":"MIXED","score":0.5,"topics":[]}`,
			wantErr: ErrBadResponse,
		},
		{
			name:    "no object",
			content: "I cannot help with that.",
			wantErr: ErrBadResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewLLM(&fakeChat{content: tt.content}, NewKeyword(3, 0))
			ann, err := a.Annotate(context.Background(), "Some article text about quarterly earnings.")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Annotate: %v", err)
			}
			if ann.Sentiment.Label != tt.wantLabel {
				t.Errorf("label = %s, want %s", ann.Sentiment.Label, tt.wantLabel)
			}
			if len(ann.Topics) == 0 {
				t.Error("expected topics (from model or keyword fallback)")
			}
			for _, topic := range ann.Topics {
				if topic != strings.ToLower(topic) {
					t.Errorf("topic %q not lowercased", topic)
				}
			}
		})
	}
}

func TestLLM_EmptySummaryIsNeutral(t *testing.T) {
	a := NewLLM(&fakeChat{content: `{"summary":"","sentiment":"POSITIVE","score":0.99}`}, nil)
	ann, err := a.Annotate(context.Background(), "text")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if ann.Sentiment.Label != models.Neutral || ann.Sentiment.Score != 0.5 {
		t.Errorf("got %+v, want NEUTRAL 0.5", ann.Sentiment)
	}
}

func TestLLM_ChatError(t *testing.T) {
	a := NewLLM(&fakeChat{err: llm.ErrRateLimit}, nil)
	_, err := a.Annotate(context.Background(), "text")
	if !errors.Is(err, llm.ErrRateLimit) {
		t.Errorf("err = %v, want wrapped ErrRateLimit", err)
	}
}

func TestLLM_TruncatesLongInput(t *testing.T) {
	chat := &fakeChat{content: `{"summary":"ok","sentiment":"NEUTRAL","score":0.5,"topics":["a"]}`}
	a := NewLLM(chat, nil)
	if _, err := a.Annotate(context.Background(), strings.Repeat("x", maxPromptChars*2)); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if got := len(chat.last[1].Content); got != maxPromptChars {
		t.Errorf("prompt length = %d, want %d", got, maxPromptChars)
	}
}

// ── HuggingFace ──

func newHFServer(t *testing.T, summary string, sentiment string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer hf_test" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		var req hfRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		switch r.URL.Path {
		case "/" + DefaultHFSummaryModel:
			if req.Parameters["max_length"] != float64(summaryMaxLength) || req.Parameters["min_length"] != float64(summaryMinLength) {
				t.Errorf("summary parameters = %v", req.Parameters)
			}
			w.Write([]byte(summary))
		case "/" + DefaultHFSentimentModel:
			w.Write([]byte(sentiment))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestHuggingFace_Annotate(t *testing.T) {
	tests := []struct {
		name      string
		sentiment string
		want      models.SentimentLabel
	}{
		{"nested response", `[[{"label":"NEGATIVE","score":0.02},{"label":"POSITIVE","score":0.98}]]`, models.Positive},
		{"flat response", `[{"label":"NEGATIVE","score":0.91},{"label":"POSITIVE","score":0.09}]`, models.Negative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newHFServer(t, `[{"summary_text":"Tesla delivered a record number of electric vehicles."}]`, tt.sentiment)
			h := NewHuggingFace("hf_test", NewKeyword(3, 0), WithHFBaseURL(srv.URL))
			ann, err := h.Annotate(context.Background(), "long article text")
			if err != nil {
				t.Fatalf("Annotate: %v", err)
			}
			if ann.Summary != "Tesla delivered a record number of electric vehicles." {
				t.Errorf("summary = %q", ann.Summary)
			}
			if ann.Sentiment.Label != tt.want {
				t.Errorf("label = %s, want %s", ann.Sentiment.Label, tt.want)
			}
			if len(ann.Topics) == 0 {
				t.Error("expected keyword topics")
			}
		})
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"टाटा", 4, "ट"}, // each rune is 3 bytes; byte 4 is mid-rune
		{"टाटा", 6, "टा"},
		{"héllo", 2, "h"},
	}
	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestHuggingFace_LongMultibyteInput(t *testing.T) {
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/"+DefaultHFSummaryModel {
			var req struct {
				Inputs string `json:"inputs"`
			}
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			sent = req.Inputs
			w.Write([]byte(`[{"summary_text":"सारांश"}]`))
			return
		}
		w.Write([]byte(`[{"label":"POSITIVE","score":0.9}]`))
	}))
	defer srv.Close()

	h := NewHuggingFace("hf_test", NewKeyword(3, 0), WithHFBaseURL(srv.URL))
	long := strings.Repeat("टाटा मोटर्स ", 500)
	if _, err := h.Annotate(context.Background(), long); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if len(sent) == 0 || len(sent) > maxHFInputChars {
		t.Fatalf("sent %d bytes", len(sent))
	}
	if !utf8.ValidString(sent) || strings.ContainsRune(sent, utf8.RuneError) {
		t.Error("input was cut inside a rune")
	}
}

func TestHuggingFace_EmptySummarySkipsClassifier(t *testing.T) {
	srv, calls := newHFServer(t, `[{"summary_text":"  "}]`, `[]`)
	h := NewHuggingFace("hf_test", nil, WithHFBaseURL(srv.URL))
	ann, err := h.Annotate(context.Background(), "text")
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if ann.Sentiment.Label != models.Neutral || ann.Sentiment.Score != 0.5 {
		t.Errorf("got %+v, want NEUTRAL 0.5", ann.Sentiment)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestHuggingFace_HTTPError(t *testing.T) {
	srv, _ := newHFServer(t, "", "")
	h := NewHuggingFace("wrong", nil, WithHFBaseURL(srv.URL))
	_, err := h.Annotate(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "Invalid credentials") {
		t.Errorf("err = %v, want API error message", err)
	}
}

func TestHuggingFace_UnknownLabel(t *testing.T) {
	srv, _ := newHFServer(t, `[{"summary_text":"ok"}]`, `[[{"label":"LABEL_1","score":0.9}]]`)
	h := NewHuggingFace("hf_test", nil, WithHFBaseURL(srv.URL))
	if _, err := h.Annotate(context.Background(), "text"); !errors.Is(err, ErrBadResponse) {
		t.Errorf("err = %v, want ErrBadResponse", err)
	}
}

// ── Factory ──

func TestNew(t *testing.T) {
	router := llm.NewRouter(llm.ProviderOllama)
	tests := []struct {
		provider string
		router   *llm.Router
		wantName string
		wantErr  bool
	}{
		{"", nil, ProviderKeyword, false},
		{"keyword", nil, ProviderKeyword, false},
		{"LLM", router, ProviderLLM, false},
		{"llm", nil, "", true},
		{"huggingface", nil, ProviderHuggingFace, false},
		{"bert", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			a, err := New(config.AnnotationConfig{Provider: tt.provider}, tt.router, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && a.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", a.Name(), tt.wantName)
			}
		})
	}
}
