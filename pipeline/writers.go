package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/bookscatalog/go-books-api/models"
)

// DatasetHeader is the fixed column layout of the catalog dataset.
var DatasetHeader = []string{"title", "price", "rating", "availability", "category", "image_url"}

// CSVWriter writes catalog rows in the dataset layout.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	rows   int
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(DatasetHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends books to the CSV output.
func (cw *CSVWriter) Write(books []*models.ScrapedBook) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, book := range books {
		record := []string{
			book.Title,
			strconv.FormatFloat(book.Price, 'f', 2, 64),
			strconv.Itoa(book.Rating),
			book.Availability,
			book.Category,
			book.ImageURL,
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
		cw.rows++
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.rows == 0 {
		return fmt.Errorf("csv file has no data rows")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
