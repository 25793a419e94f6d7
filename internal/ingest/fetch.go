package ingest

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
	"github.com/secondbrainhq/secondbrain/internal/log"
)

// FetchConfig bounds the bookmark page fetcher.
type FetchConfig struct {
	// Parallelism is max concurrent requests per domain.
	Parallelism int
	// Delay is the pause between requests to the same domain.
	Delay time.Duration
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// MaxPageLength truncates extracted text to this many bytes.
	MaxPageLength int
}

// Fetcher downloads bookmark pages and extracts readable article text.
type Fetcher struct {
	cfg    FetchConfig
	logger log.Logger
}

// NewFetcher creates a page fetcher. Zero config fields get conservative
// defaults that keep the crawler polite.
func NewFetcher(cfg FetchConfig, logger log.Logger) *Fetcher {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 2
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxPageLength <= 0 {
		cfg.MaxPageLength = 50000
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Fetcher{cfg: cfg, logger: logger}
}

// FetchAll downloads every bookmark's page and returns a document per page
// that yielded extractable text. Unreachable pages and pages with no
// readable content are logged and skipped. Results keep the input order.
func (f *Fetcher) FetchAll(ctx context.Context, records []BookmarkRecord) []knowledge.Document {
	if len(records) == 0 {
		return nil
	}

	c := colly.NewCollector(colly.Async(true))
	c.SetRequestTimeout(f.cfg.Timeout)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: f.cfg.Parallelism,
		Delay:       f.cfg.Delay,
	}); err != nil {
		f.logger.Warn("setting crawl limits", "error", err)
	}

	var mu sync.Mutex
	texts := make(map[string]string, len(records))
	titles := make(map[string]string, len(records))

	c.OnResponse(func(r *colly.Response) {
		pageURL := r.Request.URL
		text, title := f.extract(r.Body, pageURL)
		if text == "" {
			f.logger.Warn("no readable content", "url", pageURL.String())
			return
		}
		mu.Lock()
		texts[pageURL.String()] = text
		titles[pageURL.String()] = title
		mu.Unlock()
	})
	c.OnError(func(r *colly.Response, err error) {
		f.logger.Warn("fetching bookmark page", "url", r.Request.URL.String(), "error", err)
	})

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if err := c.Visit(rec.URL); err != nil {
			f.logger.Warn("visiting bookmark", "url", rec.URL, "error", err)
		}
	}
	c.Wait()

	docs := make([]knowledge.Document, 0, len(texts))
	for _, rec := range records {
		text, ok := texts[rec.URL]
		if !ok {
			continue
		}
		title := rec.Title
		if title == rec.URL && titles[rec.URL] != "" {
			title = titles[rec.URL]
		}
		docs = append(docs, knowledge.Document{
			Content:    text,
			Source:     rec.URL,
			Title:      title,
			SourceType: knowledge.SourceTypeBookmark,
			URL:        rec.URL,
		})
	}
	return docs
}

// extract pulls readable article text from an HTML page. Readability
// handles article-style pages; goquery is the fallback for pages it cannot
// parse into an article.
func (f *Fetcher) extract(body []byte, pageURL *url.URL) (text, title string) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return f.truncate(strings.TrimSpace(article.TextContent)), article.Title
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}
	doc.Find("script, style, nav, header, footer").Remove()
	title = strings.TrimSpace(doc.Find("title").First().Text())
	text = strings.TrimSpace(doc.Find("body").Text())
	return f.truncate(text), title
}

func (f *Fetcher) truncate(s string) string {
	if len(s) > f.cfg.MaxPageLength {
		return s[:f.cfg.MaxPageLength]
	}
	return s
}
