// Package pipeline validates, de-duplicates, and writes scraped catalog rows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bookscatalog/go-books-api/config"
	"github.com/bookscatalog/go-books-api/models"
	"github.com/bookscatalog/go-books-api/parser"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrPipelineClosed is returned when Process is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(books []*models.ScrapedBook) error
	Close() error
	Validate() error
}

// Pipeline coordinates validation, de-duplication, and output writing.
type Pipeline struct {
	writer    OutputWriter
	bookCh    chan *models.ScrapedBook
	batchSize int

	wg sync.WaitGroup

	seen   *lru.Cache[string, struct{}]
	seenMu sync.Mutex

	metrics metrics

	ctx context.Context

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline with a bounded buffer and dedupe cache
// sized from cfg.
func NewPipeline(ctx context.Context, writer OutputWriter, cfg *config.Config) *Pipeline {
	if ctx == nil {
		ctx = context.Background()
	}
	seen, err := lru.New[string, struct{}](cfg.Scraper.DedupeMaxSize)
	if err != nil {
		// only possible with a non-positive size, which Validate rejects
		seen, _ = lru.New[string, struct{}](1)
	}
	return &Pipeline{
		writer:    writer,
		bookCh:    make(chan *models.ScrapedBook, cfg.Scraper.BufferSize),
		batchSize: cfg.Scraper.BatchSize,
		seen:      seen,
		metrics:   newMetrics(),
		ctx:       ctx,
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues books for downstream processing.
func (p *Pipeline) Process(books ...*models.ScrapedBook) error {
	if len(books) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, book := range books {
		if book == nil {
			continue
		}
		if err := p.enqueue(book); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.bookCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.ScrapedBook, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for book := range p.bookCh {
		prepared := p.prepare(book)
		if prepared == nil {
			continue
		}
		batch = append(batch, prepared)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) prepare(book *models.ScrapedBook) *models.ScrapedBook {
	if err := parser.ValidateScraped(book); err != nil {
		p.metrics.addValidation("invalid_record")
		slog.Debug("dropping invalid record", slog.Any("error", err))
		return nil
	}

	p.seenMu.Lock()
	if p.seen.Contains(book.URL) {
		p.seenMu.Unlock()
		p.metrics.addValidation("duplicate_url")
		return nil
	}
	p.seen.Add(book.URL, struct{}{})
	p.seenMu.Unlock()

	book.Availability = parser.NormalizeAvailability(book.Availability)
	book.Category = parser.NormalizeCategory(book.Category)

	p.metrics.incrementProcessed()
	return book
}

func (p *Pipeline) enqueue(book *models.ScrapedBook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case <-p.ctx.Done():
		return ErrPipelineClosed
	case p.bookCh <- book:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.bookCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_books":   m.processed,
		"validation_errors": copyValidation,
	}
}
