// Package catalog serves read-only queries over the dataset loaded in memory.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bookscatalog/go-books-api/models"
	"github.com/bookscatalog/go-books-api/parser"
)

var (
	// ErrNotFound signals an empty filtered result.
	ErrNotFound = errors.New("catalog: no matching books")
	// ErrInvalidRange signals a price filter where min is not below max.
	ErrInvalidRange = errors.New("catalog: min price must be lower than max price")
)

// Service holds the in-memory book table. The table is immutable between
// loads; Load replaces it wholesale under the write lock so readers never
// observe a partially updated table.
type Service struct {
	path string

	mu    sync.RWMutex
	books []models.Book
}

// NewService creates a service reading from the dataset at path. The table
// starts empty until Load is called.
func NewService(path string) *Service {
	return &Service{path: path}
}

// Load reads the dataset file, coerces each row into a Book, assigns
// sequential ids, and swaps in the new table. On error the current table is
// left untouched.
func (s *Service) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return fmt.Errorf("dataset %s is empty", s.path)
		}
		return fmt.Errorf("read dataset header: %w", err)
	}

	var books []models.Book
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read dataset row: %w", err)
		}
		if len(record) < 6 {
			slog.Warn("skipping malformed dataset row", slog.Int("line", line))
			continue
		}

		book := coerceRow(record)
		if book.Title == "" {
			slog.Warn("skipping dataset row without title", slog.Int("line", line))
			continue
		}
		book.ID = len(books) + 1
		books = append(books, book)
	}

	s.mu.Lock()
	s.books = books
	s.mu.Unlock()

	slog.Info("catalog loaded", slog.String("path", s.path), slog.Int("books", len(books)))
	return nil
}

func coerceRow(record []string) models.Book {
	price, err := parser.ParsePrice(record[1])
	if err != nil {
		slog.Debug("defaulting unparseable price", slog.String("raw", record[1]))
		price = 0
	}

	return models.Book{
		Title:        strings.TrimSpace(record[0]),
		Price:        price,
		Rating:       parser.ParseRating(record[2]),
		Availability: parser.NormalizeAvailability(record[3]),
		Category:     parser.NormalizeCategory(record[4]),
		ImageURL:     strings.TrimSpace(record[5]),
	}
}

// Loaded reports whether the table holds any records.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books) > 0
}

// Books returns the full table in load order.
func (s *Service) Books() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Search filters by case-insensitive title and category substrings. Both
// filters are optional; with neither set the full table is returned.
func (s *Service) Search(title, category string) ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if title == "" && category == "" {
		return s.snapshotLocked(), nil
	}

	titleNeedle := strings.ToLower(title)
	categoryNeedle := strings.ToLower(category)

	var results []models.Book
	for _, book := range s.books {
		if titleNeedle != "" && !strings.Contains(strings.ToLower(book.Title), titleNeedle) {
			continue
		}
		if categoryNeedle != "" && !strings.Contains(strings.ToLower(book.Category), categoryNeedle) {
			continue
		}
		results = append(results, book)
	}

	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

// Get returns the book with the given id.
func (s *Service) Get(id int) (models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 1 || id > len(s.books) {
		return models.Book{}, ErrNotFound
	}
	// ids are dense and 1-based, so the table is directly addressable
	return s.books[id-1], nil
}

// TopRated returns all five-star books.
func (s *Service) TopRated() ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []models.Book
	for _, book := range s.books {
		if book.Rating == 5 {
			results = append(results, book)
		}
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

// PriceRange returns books whose price lies in [min, max]. min must be
// strictly below max.
func (s *Service) PriceRange(min, max float64) ([]models.Book, error) {
	if min >= max {
		return nil, ErrInvalidRange
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []models.Book
	for _, book := range s.books {
		if book.Price >= min && book.Price <= max {
			results = append(results, book)
		}
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

// Overview aggregates count, mean price, and the rating histogram. The
// histogram always has five buckets, gap-filled with zero counts.
func (s *Service) Overview() models.OverviewStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	counts := make(map[int]int)
	for _, book := range s.books {
		total += book.Price
		counts[book.Rating]++
	}

	distribution := make([]models.RatingCount, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		distribution = append(distribution, models.RatingCount{
			Rating: rating,
			Count:  counts[rating],
		})
	}

	mean := 0.0
	if len(s.books) > 0 {
		mean = round2(total / float64(len(s.books)))
	}

	return models.OverviewStats{
		TotalBooks:         len(s.books),
		AveragePrice:       mean,
		RatingDistribution: distribution,
	}
}

// CategoryStats aggregates count and mean price per distinct category, one
// row per category sorted by name.
func (s *Service) CategoryStats() []models.CategoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	totals := make(map[string]float64)
	for _, book := range s.books {
		counts[book.Category]++
		totals[book.Category] += book.Price
	}

	stats := make([]models.CategoryStats, 0, len(counts))
	for category, count := range counts {
		stats = append(stats, models.CategoryStats{
			Category:     category,
			TotalBooks:   count,
			AveragePrice: round2(totals[category] / float64(count)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Category < stats[j].Category
	})
	return stats
}

// Categories returns the distinct category values, alphabetically sorted.
func (s *Service) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, book := range s.books {
		seen[book.Category] = struct{}{}
	}

	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

func (s *Service) snapshotLocked() []models.Book {
	out := make([]models.Book, len(s.books))
	copy(out, s.books)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
