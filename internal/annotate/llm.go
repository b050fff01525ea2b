package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seenimoa/newspulse/internal/llm"
	"github.com/seenimoa/newspulse/pkg/models"
)

// maxPromptChars caps the article text sent to the model.
const maxPromptChars = 12000

const annotatePrompt = `You annotate news articles for a market sentiment dashboard.
Read the article and reply with ONLY a JSON object of this shape:
{"summary": "<two or three sentences>", "sentiment": "POSITIVE|NEGATIVE|NEUTRAL", "score": <confidence 0.0-1.0>, "topics": ["<short keyphrase>", ...]}
Use at most %d topics, lowercase, one or two words each.`

// Chatter is the subset of the LLM router the annotator needs.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error)
}

// LLM annotates through a chat model.
type LLM struct {
	chat     Chatter
	fallback *Keyword
	logger   *slog.Logger
}

// LLMOption configures the LLM annotator.
type LLMOption func(*LLM)

// WithLLMLogger sets the logger.
func WithLLMLogger(l *slog.Logger) LLMOption {
	return func(a *LLM) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewLLM creates an LLM annotator. kw fills in topics when the model
// returns none.
func NewLLM(chat Chatter, kw *Keyword, opts ...LLMOption) *LLM {
	if kw == nil {
		kw = NewKeyword(0, 0)
	}
	a := &LLM{chat: chat, fallback: kw, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *LLM) Name() string { return ProviderLLM }

// Annotate implements Annotator.
func (a *LLM) Annotate(ctx context.Context, rawText string) (Annotation, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return Annotation{}, ErrEmptyText
	}
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	resp, err := a.chat.Chat(ctx, []llm.Message{
		llm.SystemMessage(fmt.Sprintf(annotatePrompt, a.fallback.maxTopics)),
		llm.UserMessage(text),
	}, &llm.ChatOptions{Temperature: 0.1, JSON: true})
	if err != nil {
		return Annotation{}, fmt.Errorf("annotate/llm: %w", err)
	}

	ann, err := parseLLMAnnotation(resp.Content)
	if err != nil {
		a.logger.Debug("unparseable annotation", "content", resp.String(), "error", err)
		return Annotation{}, err
	}
	if ann.Summary == "" {
		return neutralEmpty(), nil
	}
	if len(ann.Topics) == 0 {
		ann.Topics = a.fallback.Topics(ann.Summary)
	}
	if len(ann.Topics) > a.fallback.maxTopics {
		ann.Topics = ann.Topics[:a.fallback.maxTopics]
	}
	return ann, nil
}

type llmAnnotation struct {
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"`
	Score     float64  `json:"score"`
	Topics    []string `json:"topics"`
}

// parseLLMAnnotation extracts the first JSON object from the model output,
// tolerating code fences and surrounding prose.
func parseLLMAnnotation(content string) (Annotation, error) {
	content = llm.StripCodeFence(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Annotation{}, fmt.Errorf("%w: no JSON object", ErrBadResponse)
	}

	var raw llmAnnotation
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return Annotation{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		return Annotation{}, nil
	}
	label, err := models.ParseSentimentLabel(raw.Sentiment)
	if err != nil {
		return Annotation{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	topics := make([]string, 0, len(raw.Topics))
	seen := make(map[string]bool, len(raw.Topics))
	for _, t := range raw.Topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		topics = append(topics, t)
	}

	return Annotation{
		Summary:   summary,
		Sentiment: models.Sentiment{Label: label, Score: clamp01(raw.Score)},
		Topics:    topics,
	}, nil
}
