package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/newspulse/pkg/models"
)

// TimesOfIndiaBaseURL is the public site root.
const TimesOfIndiaBaseURL = "https://timesofindia.indiatimes.com"

// NoTitle is used when an article page has no <h1>.
const NoTitle = "No Title Found"

// TimesOfIndia scrapes the Times of India topic page for a company and then
// each linked article page.
type TimesOfIndia struct {
	fetcher
	baseURL string
}

// NewTimesOfIndia creates the scraper against the public site.
func NewTimesOfIndia(opts ...Option) *TimesOfIndia {
	return NewTimesOfIndiaWithBaseURL(TimesOfIndiaBaseURL, opts...)
}

// NewTimesOfIndiaWithBaseURL creates the scraper against another host, e.g. a
// test server.
func NewTimesOfIndiaWithBaseURL(baseURL string, opts ...Option) *TimesOfIndia {
	return &TimesOfIndia{
		fetcher: newFetcher(opts),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the source name.
func (t *TimesOfIndia) Name() string { return "Times of India" }

// FetchArticles returns up to maxCount articles from the company's topic page.
// Article pages that fail to load or have no body text are skipped.
func (t *TimesOfIndia) FetchArticles(ctx context.Context, company string, maxCount int) ([]models.RawArticle, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}
	if maxCount <= 0 {
		return nil, nil
	}

	key := cacheKey("toi", company, maxCount)
	if cached, ok := t.cached(key); ok {
		return cached, nil
	}

	t.logger.Info("fetching topic page", "source", t.Name(), "company", company, "max", maxCount)

	links, err := t.topicLinks(ctx, company, maxCount)
	if err != nil {
		return nil, err
	}

	articles := make([]models.RawArticle, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return articles, err
		}
		a, err := t.fetchArticle(ctx, link)
		if err != nil {
			t.logger.Warn("skipping article", "url", link, "error", err)
			continue
		}
		if a.RawText == "" {
			t.logger.Info("skipping article with no content", "title", a.Title, "url", link)
			continue
		}
		articles = append(articles, a)
	}

	t.store(key, articles)
	return articles, nil
}

// topicLinks returns the first maxCount article links on the topic page.
func (t *TimesOfIndia) topicLinks(ctx context.Context, company string, maxCount int) ([]string, error) {
	topicURL := fmt.Sprintf("%s/topic/%s", t.baseURL, url.PathEscape(company))
	body, err := t.doGet(ctx, topicURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch topic page: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse topic page: %w", err)
	}

	base, _ := url.Parse(t.baseURL + "/")
	var links []string
	doc.Find("div.uwU81").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxCount {
			return false
		}
		href, ok := s.Find("a").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		links = append(links, resolveURL(base, href))
		return true
	})
	return links, nil
}

// fetchArticle loads one article page: title from <h1>, body from the
// paragraphs of the story container.
func (t *TimesOfIndia) fetchArticle(ctx context.Context, link string) (models.RawArticle, error) {
	body, err := t.doGet(ctx, link, nil)
	if err != nil {
		return models.RawArticle{}, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return models.RawArticle{}, fmt.Errorf("parse article: %w", err)
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = NoTitle
	}

	return models.RawArticle{
		Title:   title,
		RawText: storyText(doc),
		URL:     link,
		Source:  t.Name(),
	}, nil
}

// storyText joins the paragraphs of the story container, or its whole text
// when it has no <p> children.
func storyText(doc *goquery.Document) string {
	content := doc.Find("div._s30J.clearfix").First()
	if content.Length() == 0 {
		return ""
	}
	paragraphs := content.Find("p")
	if paragraphs.Length() == 0 {
		return strings.TrimSpace(content.Text())
	}
	parts := make([]string, 0, paragraphs.Length())
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(p.Text()))
	})
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
