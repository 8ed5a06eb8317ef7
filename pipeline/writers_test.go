package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookscatalog/go-books-api/models"
)

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "livros.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}

	book := &models.ScrapedBook{
		Title:        "Test Book",
		Price:        12.5,
		Rating:       3,
		Availability: "In stock",
		Category:     "Poetry",
		ImageURL:     "http://example.test/img.png",
		URL:          "http://example.test/book/1",
		ScrapedAt:    time.Date(2025, 11, 4, 13, 9, 13, 0, time.UTC),
	}

	if err := writer.Write([]*models.ScrapedBook{book}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	for i, col := range DatasetHeader {
		if records[0][i] != col {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	row := records[1]
	if row[0] != "Test Book" || row[1] != "12.50" || row[2] != "3" || row[4] != "Poetry" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestCSVWriterValidateEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livros.csv")
	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Validate(); err == nil {
		t.Fatal("expected validation error for header-only file")
	}
}

func TestCSVWriterCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "livros.csv")
	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}
