// Package crawler fetches web pages recursively with cycle and budget
// protection.
//
// A crawl is bounded three ways: link depth, page budget, and the visited
// set. All three are mandatory; without them the crawl is unbounded on
// adversarial link graphs. Individual fetch failures (network errors,
// non-2xx, non-HTML content) are swallowed so one bad link never aborts the
// rest of the crawl.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/ragnova/ragnova/internal/log"
)

// ErrInvalidURL indicates a start URL the crawler refuses to fetch.
var ErrInvalidURL = errors.New("invalid crawl URL")

// Page is one fetched page in first-visited order.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Config bounds every crawl made by a Crawler.
type Config struct {
	// Timeout applies to each individual page fetch.
	Timeout time.Duration

	// RequestsPerSecond paces fetches across one crawl invocation.
	RequestsPerSecond float64

	// UserAgent is sent with every request.
	UserAgent string
}

// Crawler performs bounded recursive crawls. Safe for concurrent use; each
// Crawl invocation keeps its own visited set and page budget.
type Crawler struct {
	cfg    Config
	logger log.Logger
}

// New creates a Crawler.
func New(cfg Config, logger log.Logger) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ragnova-crawler/1.0"
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Crawler{cfg: cfg, logger: logger}
}

// Crawl fetches startURL and follows links up to maxDepth hops, stopping once
// maxPages pages have been fetched or no unvisited links remain. Pages come
// back in the order first visited. Fetch failures are logged and skipped; a
// crawl that gathers nothing returns an empty slice, not an error.
//
// Crawl is abortable: cancellation is checked before every fetch, and the
// pages gathered so far are returned alongside ctx.Err().
func (cr *Crawler) Crawl(ctx context.Context, startURL string, maxDepth, maxPages int) ([]Page, error) {
	start, err := url.Parse(strings.TrimSpace(startURL))
	if err != nil || (start.Scheme != "http" && start.Scheme != "https") || start.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, startURL)
	}
	if maxDepth < 1 {
		return nil, fmt.Errorf("%w: depth %d must be at least 1", ErrInvalidURL, maxDepth)
	}
	if maxPages < 1 {
		return nil, fmt.Errorf("%w: page budget %d must be at least 1", ErrInvalidURL, maxPages)
	}

	limiter := rate.NewLimiter(rate.Limit(cr.cfg.RequestsPerSecond), 1)

	c := colly.NewCollector(
		colly.MaxDepth(maxDepth),
		colly.UserAgent(cr.cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(cr.cfg.Timeout)

	// The budget counts fetched pages, not gathered ones: a non-HTML or
	// empty page still consumed a request, so it still consumes budget.
	var (
		mu      sync.Mutex
		fetched int
		pages   []Page
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		mu.Lock()
		full := fetched >= maxPages
		if !full {
			fetched++
		}
		mu.Unlock()
		if full {
			r.Abort()
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		contentType := strings.ToLower(r.Headers.Get("Content-Type"))
		if !strings.Contains(contentType, "html") {
			cr.logger.Debug("skipping non-html page",
				"url", r.Request.URL.String(), "content_type", contentType)
			return
		}

		title, text := extractPage(r.Request.URL, r.Body)
		if strings.TrimSpace(text) == "" {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		pages = append(pages, Page{
			URL:   r.Request.URL.String(),
			Title: title,
			Text:  text,
		})
	})

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		abs := e.Request.AbsoluteURL(href)
		if abs == "" {
			return
		}
		link, err := url.Parse(abs)
		if err != nil || (link.Scheme != "http" && link.Scheme != "https") {
			// Filters mailto:, javascript: and other non-fetchable schemes.
			return
		}
		// Already-visited and depth-exceeded links come back as errors here;
		// both are expected terminations, not failures.
		_ = e.Request.Visit(abs)
	})

	c.OnError(func(r *colly.Response, err error) {
		cr.logger.Debug("fetch failed, continuing crawl",
			"url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	if err := c.Visit(start.String()); err != nil {
		cr.logger.Debug("start page fetch failed", "url", start.String(), "error", err)
	}

	return pages, ctx.Err()
}

var whitespaceRuns = regexp.MustCompile(`[ \t]*\n[ \t\n]*`)

// extractPage pulls the readable text out of an HTML body. Readability
// handles article-like pages; anything it cannot parse falls back to a plain
// DOM text walk with scripts and styles stripped.
func extractPage(pageURL *url.URL, body []byte) (title, text string) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.Title, strings.TrimSpace(article.TextContent)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", ""
	}
	doc.Find("script, style, noscript").Remove()
	title = strings.TrimSpace(doc.Find("title").First().Text())
	text = strings.TrimSpace(doc.Find("body").Text())
	text = whitespaceRuns.ReplaceAllString(text, "\n")
	return title, text
}
