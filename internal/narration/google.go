package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Public endpoints used by the gtx translate client and gTTS.
const (
	DefaultTranslateURL = "https://translate.googleapis.com/translate_a/single"
	DefaultTTSURL       = "https://translate.google.com/translate_tts"

	// MaxTranslateChars is the largest chunk sent in one translate request.
	MaxTranslateChars = 4500
	// MaxTTSChars is the largest chunk the speech endpoint accepts.
	MaxTTSChars = 100

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// GoogleTranslator translates through the public translate_a endpoint,
// detecting the source language.
type GoogleTranslator struct {
	endpoint string
	client   *http.Client
}

// TranslateOption configures a GoogleTranslator.
type TranslateOption func(*GoogleTranslator)

// WithTranslateURL overrides the endpoint.
func WithTranslateURL(u string) TranslateOption {
	return func(g *GoogleTranslator) {
		if u != "" {
			g.endpoint = u
		}
	}
}

// WithTranslateTimeout sets the per-request timeout.
func WithTranslateTimeout(d time.Duration) TranslateOption {
	return func(g *GoogleTranslator) {
		if d > 0 {
			g.client.Timeout = d
		}
	}
}

// NewGoogleTranslator creates a translator.
func NewGoogleTranslator(opts ...TranslateOption) *GoogleTranslator {
	g := &GoogleTranslator{
		endpoint: DefaultTranslateURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Translate implements Translator. Long text is sent in chunks and the
// translated chunks are joined with a space.
func (g *GoogleTranslator) Translate(ctx context.Context, text, targetLocale string) (string, error) {
	chunks := chunkText(text, MaxTranslateChars)
	if len(chunks) == 0 {
		return "", ErrEmptyTranscript
	}
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		t, err := g.translateChunk(ctx, c, targetLocale)
		if err != nil {
			return "", err
		}
		out = append(out, t)
	}
	return strings.Join(out, " "), nil
}

func (g *GoogleTranslator) translateChunk(ctx context.Context, text, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	body, err := get(ctx, g.client, g.endpoint+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}

	// [[["translated","source",null,null,...],...],null,"en",...]
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return "", fmt.Errorf("translate: unexpected response")
	}
	var segments [][]any
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("translate: unexpected response: %w", err)
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("translate: empty translation")
	}
	return b.String(), nil
}

// GoogleTTS synthesises speech through the translate_tts endpoint that
// gTTS uses, one request per chunk of at most MaxTTSChars.
type GoogleTTS struct {
	endpoint string
	client   *http.Client
}

// TTSOption configures GoogleTTS.
type TTSOption func(*GoogleTTS)

// WithTTSURL overrides the endpoint.
func WithTTSURL(u string) TTSOption {
	return func(g *GoogleTTS) {
		if u != "" {
			g.endpoint = u
		}
	}
}

// WithTTSTimeout sets the per-request timeout.
func WithTTSTimeout(d time.Duration) TTSOption {
	return func(g *GoogleTTS) {
		if d > 0 {
			g.client.Timeout = d
		}
	}
}

// NewGoogleTTS creates a speech client.
func NewGoogleTTS(opts ...TTSOption) *GoogleTTS {
	g := &GoogleTTS{
		endpoint: DefaultTTSURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Speak implements Speaker. MP3 frames are self-delimiting, so the segments
// are concatenated into one playable stream.
func (g *GoogleTTS) Speak(ctx context.Context, text, locale string) ([]byte, error) {
	chunks := chunkText(text, MaxTTSChars)
	if len(chunks) == 0 {
		return nil, ErrEmptyTranscript
	}
	var audio bytes.Buffer
	for i, c := range chunks {
		q := url.Values{}
		q.Set("ie", "UTF-8")
		q.Set("client", "tw-ob")
		q.Set("tl", locale)
		q.Set("q", c)
		q.Set("total", strconv.Itoa(len(chunks)))
		q.Set("idx", strconv.Itoa(i))
		q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(c)))

		body, err := get(ctx, g.client, g.endpoint+"?"+q.Encode())
		if err != nil {
			return nil, fmt.Errorf("tts chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(body)
	}
	return audio.Bytes(), nil
}

// ── Internal Helpers ──

func get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}

// chunkText splits text into pieces of at most max runes, preferring
// boundaries after punctuation, then whitespace. Empty pieces are dropped.
func chunkText(text string, max int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, tok := range splitAfterPunct(text) {
		n := utf8.RuneCountInString(tok)
		if n > max {
			flush()
			chunks = append(chunks, splitLong(tok, max)...)
			continue
		}
		if curLen+n > max {
			flush()
		}
		cur.WriteString(tok)
		curLen += n
	}
	flush()
	return chunks
}

func isPunct(r rune) bool {
	switch r {
	case '.', '!', '?', ',', ';', ':', '\n', '।':
		return true
	}
	return false
}

func splitAfterPunct(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if isPunct(r) {
			end := i + utf8.RuneLen(r)
			out = append(out, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// splitLong breaks a punctuation-free run on whitespace, cutting words
// that are themselves longer than max.
func splitLong(s string, max int) []string {
	var out []string
	var cur []string
	curLen := 0
	for _, w := range strings.Fields(s) {
		for utf8.RuneCountInString(w) > max {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, " "))
				cur, curLen = nil, 0
			}
			r := []rune(w)
			out = append(out, string(r[:max]))
			w = string(r[max:])
		}
		n := utf8.RuneCountInString(w)
		if n == 0 {
			continue
		}
		extra := n
		if len(cur) > 0 {
			extra++
		}
		if curLen+extra > max {
			out = append(out, strings.Join(cur, " "))
			cur, curLen = nil, 0
			extra = n
		}
		cur = append(cur, w)
		curLen += extra
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}
