package scraper

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookscatalog/go-books-api/config"
	"github.com/jarcoal/httpmock"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scraper.BaseURL = "http://example.test"
	cfg.Scraper.MaxPages = 1
	cfg.Scraper.DataDir = t.TempDir()
	cfg.Scraper.BatchSize = 1
	return cfg
}

func listingPage(items ...string) string {
	page := "<html><body>"
	for _, item := range items {
		page += item
	}
	page += "</body></html>"
	return page
}

func productPod(slug, title, price, rating string) string {
	return fmt.Sprintf(`
		<article class="product_pod">
			<div class="image_container"><a href="%[1]s.html"><img src="../media/%[1]s.jpg"/></a></div>
			<p class="star-rating %[4]s"></p>
			<h3><a href="%[1]s.html" title="%[2]s">%[2]s</a></h3>
			<div class="product_price">
				<p class="price_color">%[3]s</p>
				<p class="instock availability">In stock</p>
			</div>
		</article>`, slug, title, price, rating)
}

func detailPage(category string) string {
	return fmt.Sprintf(`
		<html><body>
		<ul class="breadcrumb">
			<li><a href="/">Home</a></li>
			<li><a href="/books.html">Books</a></li>
			<li><a href="/category.html">%s</a></li>
			<li class="active">Some Book</li>
		</ul>
		</body></html>`, category)
}

func htmlResponder(body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusOK, body)
		resp.Header.Set("Content-Type", "text/html")
		resp.Request = req
		return resp, nil
	}
}

func readDataset(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	return records
}

func TestScraperRunProducesDataset(t *testing.T) {
	cfg := testConfig(t)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-1.html",
		htmlResponder(listingPage(
			productPod("book-1", "A Light in the Attic", "£51.77", "Three"),
			productPod("book-2", "Tipping the Velvet", "£53.74", "One"),
		)))
	transport.RegisterResponder("GET", "http://example.test/catalogue/book-1.html",
		htmlResponder(detailPage("Poetry")))
	transport.RegisterResponder("GET", "http://example.test/catalogue/book-2.html",
		htmlResponder(detailPage("Historical Fiction")))

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.WithTransport(transport)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records := readDataset(t, cfg.Scraper.OutputPath())
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2 rows", len(records))
	}
	row := records[1]
	if row[0] != "A Light in the Attic" {
		t.Errorf("title = %q", row[0])
	}
	if row[1] != "51.77" {
		t.Errorf("price = %q, want 51.77", row[1])
	}
	if row[2] != "3" {
		t.Errorf("rating = %q, want 3", row[2])
	}
	if row[4] != "Poetry" {
		t.Errorf("category = %q, want Poetry", row[4])
	}
	if records[2][4] != "Historical Fiction" {
		t.Errorf("category = %q, want Historical Fiction", records[2][4])
	}

	stats := s.Stats()
	if stats.Pages != 1 {
		t.Errorf("pages = %d, want 1", stats.Pages)
	}
	if stats.Items != 2 {
		t.Errorf("items = %d, want 2", stats.Items)
	}

	// no temporary file left behind
	matches, _ := filepath.Glob(filepath.Join(cfg.Scraper.DataDir, "books_*.csv"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestScraperRunSkipsFailedPages(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scraper.MaxPages = 2

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-1.html",
		htmlResponder(listingPage(productPod("book-1", "A Light in the Attic", "£51.77", "Three"))))
	transport.RegisterResponder("GET", "http://example.test/catalogue/book-1.html",
		htmlResponder(detailPage("Poetry")))
	// page-2 has no responder and fails

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.WithTransport(transport)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run should tolerate page failures: %v", err)
	}

	records := readDataset(t, cfg.Scraper.OutputPath())
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if s.Stats().Errors == 0 {
		t.Error("expected error counter for failed page")
	}
}

func TestScraperRunSkipsItemWithFailedDetail(t *testing.T) {
	cfg := testConfig(t)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-1.html",
		htmlResponder(listingPage(
			productPod("book-1", "A Light in the Attic", "£51.77", "Three"),
			productPod("book-2", "Tipping the Velvet", "£53.74", "One"),
		)))
	transport.RegisterResponder("GET", "http://example.test/catalogue/book-1.html",
		htmlResponder(detailPage("Poetry")))
	// book-2 detail page fails: the item is dropped, not the page

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.WithTransport(transport)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records := readDataset(t, cfg.Scraper.OutputPath())
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if records[1][0] != "A Light in the Attic" {
		t.Errorf("surviving row = %v", records[1])
	}
}

func TestScraperRunDefaultsBadPrice(t *testing.T) {
	cfg := testConfig(t)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-1.html",
		htmlResponder(listingPage(productPod("book-1", "Broken Price", "n/a", "Five"))))
	transport.RegisterResponder("GET", "http://example.test/catalogue/book-1.html",
		htmlResponder(detailPage("Poetry")))

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.WithTransport(transport)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records := readDataset(t, cfg.Scraper.OutputPath())
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if records[1][1] != "0.00" {
		t.Errorf("price = %q, want 0.00 default", records[1][1])
	}
}

func TestScraperRunNoopWhenDatasetExists(t *testing.T) {
	cfg := testConfig(t)

	final := cfg.Scraper.OutputPath()
	if err := os.WriteFile(final, []byte("title,price,rating,availability,category,image_url\n"), 0o644); err != nil {
		t.Fatalf("seed dataset: %v", err)
	}
	seeded, err := os.Stat(final)
	if err != nil {
		t.Fatalf("stat dataset: %v", err)
	}

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	// any network use would fail: no responders registered
	s.WithTransport(httpmock.NewMockTransport())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	after, err := os.Stat(final)
	if err != nil {
		t.Fatalf("stat dataset: %v", err)
	}
	if !after.ModTime().Equal(seeded.ModTime()) {
		t.Error("dataset was rewritten on no-op run")
	}
	if s.Stats().Requests != 0 {
		t.Errorf("requests = %d, want 0", s.Stats().Requests)
	}
}

func TestScraperRunPromotesRecentCache(t *testing.T) {
	cfg := testConfig(t)

	cached := filepath.Join(cfg.Scraper.DataDir, "books_20250101000000.csv")
	content := "title,price,rating,availability,category,image_url\nCached,10.00,4,In stock,Poetry,http://example.test/img.jpg\n"
	if err := os.WriteFile(cached, []byte(content), 0o644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.WithTransport(httpmock.NewMockTransport())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(cfg.Scraper.OutputPath())
	if err != nil {
		t.Fatalf("read promoted dataset: %v", err)
	}
	if string(data) != content {
		t.Error("promoted dataset does not match cache content")
	}
	if _, err := os.Stat(cached); !os.IsNotExist(err) {
		t.Error("cache file should have been renamed away")
	}
}

func TestScraperRunIgnoresStaleCache(t *testing.T) {
	cfg := testConfig(t)

	cached := filepath.Join(cfg.Scraper.DataDir, "books_20250101000000.csv")
	if err := os.WriteFile(cached, []byte("stale\n"), 0o644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(cached, old, old); err != nil {
		t.Fatalf("age cache: %v", err)
	}

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.test/catalogue/page-1.html",
		htmlResponder(listingPage(productPod("book-1", "Fresh Book", "£10.00", "Two"))))
	transport.RegisterResponder("GET", "http://example.test/catalogue/book-1.html",
		htmlResponder(detailPage("Poetry")))

	s, err := NewScraper(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	s.WithTransport(transport)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records := readDataset(t, cfg.Scraper.OutputPath())
	if len(records) != 2 || records[1][0] != "Fresh Book" {
		t.Fatalf("expected fresh crawl output, got %v", records)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected string
	}{
		{name: "deadline", err: context.DeadlineExceeded, expected: "timeout"},
		{name: "not found", status: http.StatusNotFound, expected: "not_found"},
		{name: "server error", status: http.StatusInternalServerError, expected: "http_status"},
		{name: "other", err: fmt.Errorf("boom"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorTypeLabel(classifyError(tt.err, tt.status))
			if got != tt.expected {
				t.Errorf("label = %q, want %q", got, tt.expected)
			}
		})
	}
}
