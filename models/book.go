// Package models defines the data structures shared by the collector and the API.
package models

import "time"

// Undefined is the placeholder written to fields the crawl could not resolve.
const Undefined = "Indefinido"

// Book is one catalog record served by the API. IDs are assigned at load
// time and are only stable within a single process lifetime.
type Book struct {
	ID           int     `json:"id"`
	Title        string  `json:"titulo"`
	Price        float64 `json:"preco"`
	Rating       int     `json:"rating"`
	Availability string  `json:"disponibilidade"`
	Category     string  `json:"categoria"`
	ImageURL     string  `json:"url_imagem"`
}

// ScrapedBook is one item captured during a crawl, before it becomes a
// catalog row. URL is the item's detail page and doubles as the dedupe key;
// it is not persisted to the dataset.
type ScrapedBook struct {
	Title        string
	Price        float64
	Rating       int
	Availability string
	Category     string
	ImageURL     string
	URL          string
	ScrapedAt    time.Time
}

// RatingCount is one bucket of the rating histogram.
type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// OverviewStats summarises the loaded catalog.
type OverviewStats struct {
	TotalBooks         int           `json:"total_livros"`
	AveragePrice       float64       `json:"preco_medio"`
	RatingDistribution []RatingCount `json:"distribuicao_ratings"`
}

// CategoryStats holds per-category aggregates.
type CategoryStats struct {
	Category     string  `json:"categoria"`
	TotalBooks   int     `json:"total_livros"`
	AveragePrice float64 `json:"preco_medio"`
}

// HealthStatus reports API liveness and whether the dataset loaded.
type HealthStatus struct {
	Status     string `json:"status"`
	DataSource string `json:"data_source"`
}
