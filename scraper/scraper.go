// Package scraper crawls the book catalog and produces the dataset file.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bookscatalog/go-books-api/config"
	"github.com/bookscatalog/go-books-api/models"
	"github.com/bookscatalog/go-books-api/parser"
	"github.com/bookscatalog/go-books-api/pipeline"
	"github.com/gocolly/colly/v2"
)

// Scraper produces the catalog dataset by paginating the listing and
// resolving each item's category from its detail page. The crawl is
// idempotent: an existing dataset file or a recent enough cached run short
// circuits it.
type Scraper struct {
	cfg       *config.Config
	host      string
	transport http.RoundTripper
	Metrics   *Metrics

	requestCount int64
	pageCount    int64
	itemCount    int64
	errorCount   int64
}

// Stats is a snapshot of crawl counters.
type Stats struct {
	Requests int
	Pages    int
	Items    int
	Errors   int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.Scraper.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	return &Scraper{
		cfg:     cfg,
		host:    parsed.Host,
		Metrics: NewMetrics(),
		transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Scraper.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}, nil
}

// WithTransport replaces the HTTP transport used by the crawl. Tests use it
// to plug in a mock transport.
func (s *Scraper) WithTransport(rt http.RoundTripper) {
	s.transport = rt
}

// Stats returns a snapshot of the crawl counters.
func (s *Scraper) Stats() Stats {
	return Stats{
		Requests: int(atomic.LoadInt64(&s.requestCount)),
		Pages:    int(atomic.LoadInt64(&s.pageCount)),
		Items:    int(atomic.LoadInt64(&s.itemCount)),
		Errors:   int(atomic.LoadInt64(&s.errorCount)),
	}
}

// Run executes one complete crawl. Page and item failures are logged and
// skipped; only filesystem errors are returned.
func (s *Scraper) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	final := s.cfg.Scraper.OutputPath()
	if _, err := os.Stat(final); err == nil {
		slog.Info("dataset already present, skipping crawl", slog.String("path", final))
		return nil
	}

	if err := os.MkdirAll(s.cfg.Scraper.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if s.promoteCachedRun(final) {
		return nil
	}

	temp := filepath.Join(s.cfg.Scraper.DataDir,
		fmt.Sprintf("books_%s.csv", time.Now().Format("20060102150405")))
	writer, err := pipeline.NewCSVWriter(temp)
	if err != nil {
		return fmt.Errorf("create temp dataset: %w", err)
	}

	p := pipeline.NewPipeline(ctx, writer, s.cfg)
	p.Start(1)

	listing := s.newListingCollector(ctx, p)

	base := strings.TrimSuffix(s.cfg.Scraper.BaseURL, "/")
	for page := 1; page <= s.cfg.Scraper.MaxPages; page++ {
		if ctx.Err() != nil {
			slog.Info("crawl interrupted", slog.Int("page", page))
			break
		}
		pageURL := fmt.Sprintf("%s/catalogue/page-%d.html", base, page)
		if err := listing.Visit(pageURL); err != nil {
			atomic.AddInt64(&s.errorCount, 1)
			s.Metrics.IncPage("skipped")
			slog.Warn("skipping listing page",
				slog.Int("page", page),
				slog.Any("error", err),
			)
			continue
		}
		atomic.AddInt64(&s.pageCount, 1)
		s.Metrics.IncPage("ok")
	}
	listing.Wait()

	if err := p.Close(); err != nil {
		writer.Close()
		os.Remove(temp)
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := writer.Validate(); err != nil {
		slog.Warn("dataset has no data rows", slog.Any("error", err))
	}
	if err := writer.Close(); err != nil {
		os.Remove(temp)
		return fmt.Errorf("close temp dataset: %w", err)
	}

	if err := os.Rename(temp, final); err != nil {
		return fmt.Errorf("promote dataset: %w", err)
	}

	slog.Info("dataset written",
		slog.String("path", final),
		slog.Int64("pages", atomic.LoadInt64(&s.pageCount)),
		slog.Int64("items", atomic.LoadInt64(&s.itemCount)),
		slog.Int64("errors", atomic.LoadInt64(&s.errorCount)),
	)
	return nil
}

// promoteCachedRun reuses the newest temporary output when it is fresher
// than the cache window, renaming it to the final path.
func (s *Scraper) promoteCachedRun(final string) bool {
	if s.cfg.Scraper.CacheWindow <= 0 {
		return false
	}

	matches, err := filepath.Glob(filepath.Join(s.cfg.Scraper.DataDir, "books_*.csv"))
	if err != nil || len(matches) == 0 {
		return false
	}

	var newest string
	var newestMod time.Time
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newest = match
			newestMod = info.ModTime()
		}
	}
	if newest == "" || time.Since(newestMod) >= s.cfg.Scraper.CacheWindow {
		return false
	}

	if _, err := os.Stat(final); err == nil {
		return true
	}
	if err := os.Rename(newest, final); err != nil {
		slog.Warn("promoting cached run failed", slog.Any("error", err))
		return false
	}
	slog.Info("reusing cached crawl output", slog.String("path", final))
	return true
}

func (s *Scraper) newListingCollector(ctx context.Context, p *pipeline.Pipeline) *colly.Collector {
	listing := colly.NewCollector(
		colly.AllowedDomains(s.host),
		colly.UserAgent(s.cfg.Scraper.UserAgent),
	)
	listing.SetRequestTimeout(s.cfg.Scraper.Timeout)
	listing.WithTransport(s.transport)
	if s.cfg.Scraper.Delay > 0 {
		listing.Limit(&colly.LimitRule{
			DomainGlob: "*",
			Delay:      s.cfg.Scraper.Delay,
		})
	}

	detail := listing.Clone()

	listing.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		atomic.AddInt64(&s.requestCount, 1)
		s.Metrics.IncRequest("listing")
	})
	detail.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		atomic.AddInt64(&s.requestCount, 1)
		s.Metrics.IncRequest("detail")
	})

	observe := func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			s.Metrics.ObserveDuration(time.Since(start))
		}
	}
	listing.OnResponse(observe)
	detail.OnResponse(observe)

	onError := func(r *colly.Response, err error) {
		atomic.AddInt64(&s.errorCount, 1)
		statusCode := 0
		requestURL := ""
		if r != nil {
			statusCode = r.StatusCode
			if r.Request != nil && r.Request.URL != nil {
				requestURL = r.Request.URL.String()
			}
		}
		category := errorTypeLabel(classifyError(err, statusCode))
		s.Metrics.IncError(category)
		slog.Warn("request error",
			slog.String("url", requestURL),
			slog.String("category", category),
			slog.Any("error", err),
		)
	}
	listing.OnError(onError)
	detail.OnError(onError)

	listing.OnHTML("article.product_pod", func(e *colly.HTMLElement) {
		if ctx.Err() != nil {
			return
		}
		item := extractItem(e)
		if item == nil {
			s.Metrics.IncError("extract")
			return
		}

		rctx := colly.NewContext()
		rctx.Put("item", item)
		if err := detail.Request(http.MethodGet, item.URL, nil, rctx, nil); err != nil {
			// per-item policy: a failed detail fetch drops the item
			slog.Warn("skipping item, detail fetch failed",
				slog.String("title", item.Title),
				slog.Any("error", err),
			)
		}
	})

	detail.OnHTML("ul.breadcrumb", func(e *colly.HTMLElement) {
		item, ok := e.Request.Ctx.GetAny("item").(*models.ScrapedBook)
		if !ok {
			return
		}
		item.Category = parser.NormalizeCategory(breadcrumbCategory(e.DOM))

		atomic.AddInt64(&s.itemCount, 1)
		s.Metrics.IncItems()
		if err := p.Process(item); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
			slog.Error("pipeline process error", slog.Any("error", err))
		}
	})

	return listing
}

// breadcrumbCategory extracts the category from the detail-page breadcrumb
// (Home / Books / <category> / <title>).
func breadcrumbCategory(dom *goquery.Selection) string {
	anchors := dom.Find("a")
	if anchors.Length() < 3 {
		return ""
	}
	return anchors.Eq(2).Text()
}

func extractItem(e *colly.HTMLElement) *models.ScrapedBook {
	title := strings.TrimSpace(e.ChildAttr("h3 a", "title"))
	if title == "" {
		return nil
	}

	href := e.ChildAttr("h3 a", "href")
	if href == "" {
		return nil
	}

	price, err := parser.ParsePrice(e.ChildText("p.price_color"))
	if err != nil {
		slog.Warn("defaulting unparseable price",
			slog.String("title", title),
			slog.Any("error", err),
		)
		price = 0
	}

	ratingClass := e.ChildAttr("p.star-rating", "class")
	rating := 0
	if parts := strings.Fields(ratingClass); len(parts) > 1 {
		rating = parser.ParseRating(parts[1])
	}

	availability := strings.TrimSpace(e.ChildText("p.instock.availability"))
	if availability == "" {
		availability = strings.TrimSpace(e.ChildText("p.availability"))
	}

	return &models.ScrapedBook{
		Title:        title,
		Price:        price,
		Rating:       rating,
		Availability: availability,
		ImageURL:     e.Request.AbsoluteURL(e.ChildAttr("img", "src")),
		URL:          e.Request.AbsoluteURL(href),
		ScrapedAt:    time.Now(),
	}
}
