package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Hosted Inference API defaults.
const (
	DefaultHFBaseURL        = "https://api-inference.huggingface.co/models"
	DefaultHFSummaryModel   = "sshleifer/distilbart-cnn-12-6"
	DefaultHFSentimentModel = "distilbert/distilbert-base-uncased-finetuned-sst-2-english"

	summaryMaxLength = 80
	summaryMinLength = 20

	// maxHFInputChars keeps inputs inside the summarisation model's window.
	maxHFInputChars = 3500
)

// HuggingFace annotates through the Inference API: abstractive summary,
// SST-2 sentiment on the summary and keyword topics.
type HuggingFace struct {
	apiKey         string
	baseURL        string
	summaryModel   string
	sentimentModel string
	client         *http.Client
	topics         *Keyword
}

// HFOption configures the HuggingFace annotator.
type HFOption func(*HuggingFace)

// WithHFBaseURL overrides the Inference API base URL.
func WithHFBaseURL(url string) HFOption {
	return func(h *HuggingFace) {
		if url != "" {
			h.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHFModels overrides the summary and sentiment models. Empty names keep
// the defaults.
func WithHFModels(summary, sentiment string) HFOption {
	return func(h *HuggingFace) {
		if summary != "" {
			h.summaryModel = summary
		}
		if sentiment != "" {
			h.sentimentModel = sentiment
		}
	}
}

// WithHFHTTPClient sets a custom HTTP client.
func WithHFHTTPClient(c *http.Client) HFOption {
	return func(h *HuggingFace) { h.client = c }
}

// NewHuggingFace creates the annotator. apiKey may be empty for anonymous,
// heavily rate-limited access.
func NewHuggingFace(apiKey string, kw *Keyword, opts ...HFOption) *HuggingFace {
	if kw == nil {
		kw = NewKeyword(0, 0)
	}
	h := &HuggingFace{
		apiKey:         apiKey,
		baseURL:        DefaultHFBaseURL,
		summaryModel:   DefaultHFSummaryModel,
		sentimentModel: DefaultHFSentimentModel,
		client:         &http.Client{Timeout: 60 * time.Second},
		topics:         kw,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HuggingFace) Name() string { return ProviderHuggingFace }

// Annotate implements Annotator.
func (h *HuggingFace) Annotate(ctx context.Context, rawText string) (Annotation, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return Annotation{}, ErrEmptyText
	}
	text = truncateUTF8(text, maxHFInputChars)

	summary, err := h.summarize(ctx, text)
	if err != nil {
		return Annotation{}, err
	}
	if summary == "" {
		return neutralEmpty(), nil
	}

	sentiment, err := h.classify(ctx, summary)
	if err != nil {
		return Annotation{}, err
	}
	return Annotation{
		Summary:   summary,
		Sentiment: sentiment,
		Topics:    h.topics.Topics(summary),
	}, nil
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ── Wire Types ──

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

type hfSummary struct {
	SummaryText string `json:"summary_text"`
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type hfError struct {
	Error string `json:"error"`
}

// ── Internal Helpers ──

func (h *HuggingFace) summarize(ctx context.Context, text string) (string, error) {
	body, err := h.post(ctx, h.summaryModel, hfRequest{
		Inputs: text,
		Parameters: map[string]any{
			"max_length": summaryMaxLength,
			"min_length": summaryMinLength,
			"do_sample":  false,
		},
		Options: map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return "", err
	}
	var out []hfSummary
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: summary: %v", ErrBadResponse, err)
	}
	if len(out) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out[0].SummaryText), nil
}

// classify returns the top label. The API answers either [[{...}]] or
// [{...}] depending on the pipeline version.
func (h *HuggingFace) classify(ctx context.Context, text string) (models.Sentiment, error) {
	body, err := h.post(ctx, h.sentimentModel, hfRequest{
		Inputs:  text,
		Options: map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return models.Sentiment{}, err
	}

	var scores []hfLabelScore
	var nested [][]hfLabelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		scores = nested[0]
	} else if err := json.Unmarshal(body, &scores); err != nil {
		return models.Sentiment{}, fmt.Errorf("%w: sentiment: %v", ErrBadResponse, err)
	}
	if len(scores) == 0 {
		return models.Sentiment{}, fmt.Errorf("%w: sentiment: no labels", ErrBadResponse)
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	label, err := models.ParseSentimentLabel(best.Label)
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return models.Sentiment{Label: label, Score: clamp01(best.Score)}, nil
}

func (h *HuggingFace) post(ctx context.Context, model string, payload hfRequest) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("annotate/huggingface: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/"+model, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("annotate/huggingface: %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("annotate/huggingface: read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("annotate/huggingface: %s: HTTP %d: %s", model, resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("annotate/huggingface: %s: HTTP %d", model, resp.StatusCode)
	}
	return body, nil
}
