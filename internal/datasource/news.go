package datasource

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/newspulse/pkg/models"
)

// QueryPlaceholder marks where the company name goes in a search feed URL.
const QueryPlaceholder = "{query}"

// GoogleNewsFeed is the Google News RSS search endpoint for Indian English news.
const GoogleNewsFeed = "https://news.google.com/rss/search?q={query}&hl=en-IN&gl=IN&ceid=IN:en"

// minBodyChars is the shortest extracted body preferred over the feed description.
const minBodyChars = 200

// News reads articles from RSS feeds. Feeds whose URL contains "{query}" are
// search feeds and are trusted to be about the company; plain feeds are
// filtered by company keywords. Each item's page is run through readability
// for its body text, falling back to the feed description.
type News struct {
	fetcher
	feeds  []string
	parser *gofeed.Parser
}

// NewNews creates an RSS source. With no feeds it searches Google News.
func NewNews(feeds []string, opts ...Option) *News {
	if len(feeds) == 0 {
		feeds = []string{GoogleNewsFeed}
	}
	return &News{
		fetcher: newFetcher(opts),
		feeds:   feeds,
		parser:  gofeed.NewParser(),
	}
}

// Name returns the source name.
func (n *News) Name() string { return "News RSS" }

// FetchArticles returns up to maxCount articles about company, newest first.
// Failing feeds are skipped.
func (n *News) FetchArticles(ctx context.Context, company string, maxCount int) ([]models.RawArticle, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}
	if maxCount <= 0 {
		return nil, nil
	}

	key := cacheKey("rss", company, maxCount)
	if cached, ok := n.cached(key); ok {
		return cached, nil
	}

	keywords := companyKeywords(company)
	var items []*gofeed.Item
	seen := make(map[string]bool)
	for _, feedURL := range n.feeds {
		search := strings.Contains(feedURL, QueryPlaceholder)
		feed, err := n.fetchFeed(ctx, strings.ReplaceAll(feedURL, QueryPlaceholder, url.QueryEscape(company)))
		if err != nil {
			n.logger.Warn("skipping feed", "feed", feedURL, "error", err)
			continue
		}
		for _, item := range feed.Items {
			if item.Link == "" || seen[item.Link] {
				continue
			}
			if !search && !matchesAny(item.Title+" "+item.Description, keywords) {
				continue
			}
			seen[item.Link] = true
			items = append(items, item)
		}
	}

	sortItemsByDate(items)
	if len(items) > maxCount {
		items = items[:maxCount]
	}

	articles := make([]models.RawArticle, 0, len(items))
	for _, item := range items {
		a := models.RawArticle{
			Title:  strings.TrimSpace(item.Title),
			URL:    item.Link,
			Source: n.Name(),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		a.RawText = n.articleText(ctx, item)
		if a.Title == "" || a.RawText == "" {
			continue
		}
		articles = append(articles, a)
	}

	n.store(key, articles)
	return articles, nil
}

func (n *News) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, err := n.doGet(ctx, feedURL, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := n.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", feedURL, err)
	}
	return feed, nil
}

// articleText extracts the readable body of the item's page. Short or failed
// extractions fall back to the cleaned feed description.
func (n *News) articleText(ctx context.Context, item *gofeed.Item) string {
	fallback := cleanHTML(item.Description)
	if fallback == "" {
		fallback = cleanHTML(item.Content)
	}

	pageURL, err := url.Parse(item.Link)
	if err != nil {
		return fallback
	}
	body, err := n.doGet(ctx, item.Link, nil)
	if err != nil {
		n.logger.Debug("article page unavailable", "url", item.Link, "error", err)
		return fallback
	}
	defer body.Close()

	extracted, err := readability.FromReader(body, pageURL)
	if err != nil {
		n.logger.Debug("readability extraction failed", "url", item.Link, "error", err)
		return fallback
	}
	text := strings.TrimSpace(extracted.TextContent)
	if len(text) < minBodyChars && len(fallback) > len(text) {
		return fallback
	}
	return text
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// groupPrefixes are leading words shared by many listed companies. Alone
// they would match coverage of sister firms ("Tata Steel" for "Tata Motors").
var groupPrefixes = map[string]bool{
	"tata": true, "adani": true, "bajaj": true, "birla": true, "aditya": true,
	"hdfc": true, "icici": true, "kotak": true, "axis": true, "jsw": true,
	"godrej": true, "mahindra": true, "hindustan": true, "bharat": true,
	"indian": true, "state": true, "bank": true, "general": true,
	"american": true, "united": true, "national": true, "first": true,
}

// companyKeywords returns lower-case match keywords for a company name:
// the full name and, for multi-word names, the first word when it is
// distinctive enough (longer than three letters and not a group prefix).
func companyKeywords(company string) []string {
	c := strings.Join(strings.Fields(strings.ToLower(company)), " ")
	keywords := []string{c}
	fields := strings.Fields(c)
	if len(fields) > 1 && len(fields[0]) > 3 && !groupPrefixes[fields[0]] {
		keywords = append(keywords, fields[0])
	}
	return keywords
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sortItemsByDate sorts items newest first; undated items go last.
func sortItemsByDate(items []*gofeed.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedParsed, items[j].PublishedParsed
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
}
