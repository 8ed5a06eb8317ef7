// Package parser normalizes the raw strings scraped from catalog markup.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bookscatalog/go-books-api/models"
)

// ValidateScraped ensures the crawl captured the required fields.
func ValidateScraped(b *models.ScrapedBook) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book missing title")
	}
	if strings.TrimSpace(b.URL) == "" {
		return fmt.Errorf("book missing detail URL for %s", b.Title)
	}
	return nil
}

// ParsePrice strips the currency symbol and parses the remainder as a
// decimal amount.
func ParsePrice(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "Â£", "")
	cleaned = strings.ReplaceAll(cleaned, "£", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative price %q", text)
	}
	return value, nil
}

// ParseRating converts a rating value to the 1..5 scale. It accepts both
// the numeric form written to the dataset and the textual CSS class found
// on the site; anything unrecognized maps to 0.
func ParseRating(text string) int {
	cleaned := strings.TrimSpace(text)
	if n, err := strconv.Atoi(cleaned); err == nil {
		if n >= 1 && n <= 5 {
			return n
		}
		return 0
	}
	switch cleaned {
	case "One":
		return 1
	case "Two":
		return 2
	case "Three":
		return 3
	case "Four":
		return 4
	case "Five":
		return 5
	default:
		return 0
	}
}

// NormalizeAvailability trims spacing from the stock status text and falls
// back to the placeholder when nothing was captured.
func NormalizeAvailability(text string) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return models.Undefined
	}
	return cleaned
}

// NormalizeCategory trims the breadcrumb label and falls back to the
// placeholder when the detail page gave nothing usable.
func NormalizeCategory(text string) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return models.Undefined
	}
	return cleaned
}
