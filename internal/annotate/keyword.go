package annotate

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/seenimoa/newspulse/pkg/models"
)

// ------------------------------------------------------------------
// Keyword annotator (offline, no model needed).
// Extractive summary, lexicon-weighted sentiment and frequency ranked
// 1-2 gram topics. The LLM and HuggingFace annotators reuse its topic
// extractor.
// ------------------------------------------------------------------

// positive / negative lexicons (lowercase; multi-word entries match whole
// token runs).
var positiveWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "surges": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5, "beats": 0.5,
	"exceeds": 0.5, "beats estimate": 0.6, "expansion": 0.4,
	"profit": 0.3, "profits": 0.3, "dividend": 0.4, "accumulate": 0.5,
	"launch": 0.3, "launches": 0.3, "partnership": 0.4, "innovation": 0.4,
	"success": 0.5, "successful": 0.5, "wins": 0.5, "award": 0.4,
	"gain": 0.4, "gains": 0.4, "boost": 0.5, "soar": 0.7, "soars": 0.7,
	"milestone": 0.4, "approval": 0.4, "approved": 0.4, "deal": 0.3,
}

var negativeWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "plunges": 0.7, "slump": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "declines": 0.5, "loss": 0.4,
	"losses": 0.4, "selloff": 0.7, "fall": 0.4, "falls": 0.4, "correction": 0.5,
	"default": 0.7, "fraud": 0.8, "scam": 0.8, "investigation": 0.5,
	"cut": 0.3, "cuts": 0.3, "miss": 0.5, "misses": 0.5, "warning": 0.5,
	"concern": 0.3, "concerns": 0.3, "lawsuit": 0.6, "sued": 0.6,
	"recall": 0.5, "layoffs": 0.6, "probe": 0.5, "fine": 0.3, "fined": 0.5,
	"penalty": 0.5, "delay": 0.4, "delays": 0.4, "scrutiny": 0.4,
	"crisis": 0.7, "ban": 0.5, "banned": 0.5,
}

// sentimentThreshold separates NEUTRAL from a polar label on the net score.
const sentimentThreshold = 0.1

// Keyword is the offline annotator. It is stateless and safe for
// concurrent use.
type Keyword struct {
	maxTopics    int
	summaryWords int
}

// NewKeyword creates a keyword annotator. Non-positive arguments fall back
// to the defaults.
func NewKeyword(maxTopics, summaryWords int) *Keyword {
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}
	if summaryWords <= 0 {
		summaryWords = DefaultSummaryWords
	}
	return &Keyword{maxTopics: maxTopics, summaryWords: summaryWords}
}

func (k *Keyword) Name() string { return ProviderKeyword }

// Annotate implements Annotator.
func (k *Keyword) Annotate(ctx context.Context, rawText string) (Annotation, error) {
	if err := ctx.Err(); err != nil {
		return Annotation{}, err
	}
	text := strings.TrimSpace(rawText)
	if text == "" {
		return Annotation{}, ErrEmptyText
	}

	summary := Summarize(text, k.summaryWords)
	if summary == "" {
		return neutralEmpty(), nil
	}
	return Annotation{
		Summary:   summary,
		Sentiment: ScoreText(summary),
		Topics:    k.Topics(summary),
	}, nil
}

// Topics returns the top keyphrases of text. Annotators extract them from
// the summary, not the raw article.
func (k *Keyword) Topics(text string) []string {
	return ExtractTopics(text, k.maxTopics)
}

// ScoreText classifies text with the lexicon. The score is the confidence,
// which grows with the number of matched terms.
func ScoreText(text string) models.Sentiment {
	tokens := tokenize(text)

	pos, neg := 0.0, 0.0
	matches := 0
	for term, w := range positiveWords {
		if n := countPhrase(tokens, term); n > 0 {
			pos += w * float64(n)
			matches += n
		}
	}
	for term, w := range negativeWords {
		if n := countPhrase(tokens, term); n > 0 {
			neg += w * float64(n)
			matches += n
		}
	}

	if matches == 0 || pos+neg == 0 {
		return models.Sentiment{Label: models.Neutral, Score: 0.5}
	}

	net := (pos - neg) / (pos + neg)
	confidence := math.Min(float64(matches)*0.15+0.2, 0.85)

	switch {
	case net > sentimentThreshold:
		return models.Sentiment{Label: models.Positive, Score: confidence}
	case net < -sentimentThreshold:
		return models.Sentiment{Label: models.Negative, Score: confidence}
	default:
		return models.Sentiment{Label: models.Neutral, Score: confidence}
	}
}

// Summarize returns the leading sentences of text that fit in maxWords. A
// first sentence longer than the budget is cut and marked with "...".
func Summarize(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = DefaultSummaryWords
	}
	var out []string
	used := 0
	for _, s := range sentences(text) {
		words := strings.Fields(s)
		if len(words) == 0 {
			continue
		}
		if used+len(words) > maxWords {
			if used == 0 {
				out = append(out, strings.Join(words[:maxWords], " ")+"...")
			}
			break
		}
		out = append(out, strings.Join(words, " "))
		used += len(words)
	}
	return strings.Join(out, " ")
}

// ExtractTopics ranks unigrams and bigrams of non-stopwords by frequency.
// Bigrams weigh 1.5x a unigram; ties keep first-occurrence order. A unigram
// already covered by a selected bigram is skipped.
func ExtractTopics(text string, n int) []string {
	if n <= 0 {
		n = DefaultMaxTopics
	}
	type cand struct {
		phrase string
		score  float64
		first  int
	}
	cands := map[string]*cand{}
	add := func(phrase string, w float64, pos int) {
		c, ok := cands[phrase]
		if !ok {
			c = &cand{phrase: phrase, first: pos}
			cands[phrase] = c
		}
		c.score += w
	}

	tokens := tokenize(text)
	for i, t := range tokens {
		if !isKeyword(t) {
			continue
		}
		add(t, 1, i)
		if i+1 < len(tokens) && isKeyword(tokens[i+1]) {
			add(t+" "+tokens[i+1], 1.5, i)
		}
	}

	ranked := make([]*cand, 0, len(cands))
	for _, c := range cands {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].first != ranked[j].first {
			return ranked[i].first < ranked[j].first
		}
		return ranked[i].phrase < ranked[j].phrase
	})

	covered := map[string]bool{}
	topics := make([]string, 0, n)
	for _, c := range ranked {
		if len(topics) == n {
			break
		}
		if covered[c.phrase] {
			continue
		}
		topics = append(topics, c.phrase)
		for _, w := range strings.Fields(c.phrase) {
			covered[w] = true
		}
	}
	return topics
}

// ── Internal Helpers ──

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
}

// countPhrase counts the token runs equal to phrase.
func countPhrase(tokens []string, phrase string) int {
	words := strings.Fields(phrase)
	n := 0
outer:
	for i := 0; i+len(words) <= len(tokens); i++ {
		for j, w := range words {
			if tokens[i+j] != w {
				continue outer
			}
		}
		n++
	}
	return n
}

func isKeyword(t string) bool {
	t = strings.Trim(t, "-'")
	if len([]rune(t)) < 3 || stopwords[t] {
		return false
	}
	for _, r := range t {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// sentences splits on ., ! and ? followed by whitespace, and on newlines.
func sentences(text string) []string {
	var out []string
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
			continue
		}
		b.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			out = append(out, strings.TrimSpace(b.String()))
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

var stopwords = toSet(`a about above after again against all also am an and any are aren't as at
be because been before being below between both but by can can't cannot could couldn't
did didn't do does doesn't doing don't down during each few for from further had hadn't
has hasn't have haven't having he he'd he'll he's her here here's hers herself him himself
his how how's i i'd i'll i'm i've if in into is isn't it it's its itself just let's me
more most mustn't my myself new no nor not now of off on once one only or other ought our
ours ourselves out over own said same says she she'd she'll she's should shouldn't so some
such than that that's the their theirs them themselves then there there's these they
they'd they'll they're they've this those through to too under until up very was wasn't
we we'd we'll we're we've were weren't what what's when when's where where's which while
who who's whom why why's will with won't would wouldn't year years you you'd you'll
you're you've your yours yourself yourselves`)

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}
