// Package scrape owns the background crawl trigger and its status record.
package scrape

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrAlreadyRunning is returned when a crawl is already in flight.
	ErrAlreadyRunning = errors.New("scrape: task already running")
	// ErrUnavailable is returned when no collector was wired in.
	ErrUnavailable = errors.New("scrape: collector unavailable")
)

// Collector produces the catalog dataset file.
type Collector interface {
	Run(ctx context.Context) error
}

// Status is a point-in-time snapshot of the latest run. Success is nil
// before the first run finishes and while a run is in flight.
type Status struct {
	Running      bool    `json:"running"`
	Success      *bool   `json:"success"`
	LastRun      *string `json:"last_run"`
	ErrorMessage *string `json:"error_message"`
}

// Runner launches the collector on its own goroutine and owns the status
// record. The idle-to-running transition is check-and-set under the lock, so
// concurrent triggers admit exactly one run.
type Runner struct {
	collector Collector
	onSuccess func()

	mu      sync.Mutex
	running bool
	success *bool
	lastRun *time.Time
	errMsg  *string
}

// NewRunner wires the collector and an optional callback invoked after each
// successful run (the server uses it to reload the catalog).
func NewRunner(collector Collector, onSuccess func()) *Runner {
	return &Runner{
		collector: collector,
		onSuccess: onSuccess,
	}
}

// TryStart launches a crawl unless one is already in flight. It returns
// immediately; the crawl runs to completion on its own goroutine with no
// external cancellation.
func (r *Runner) TryStart() error {
	if r.collector == nil {
		return ErrUnavailable
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	now := time.Now()
	r.running = true
	r.success = nil
	r.errMsg = nil
	r.lastRun = &now
	r.mu.Unlock()

	go r.run()
	return nil
}

func (r *Runner) run() {
	slog.Info("scrape task started")
	err := r.collector.Run(context.Background())

	r.mu.Lock()
	r.running = false
	ok := err == nil
	r.success = &ok
	if err != nil {
		msg := err.Error()
		r.errMsg = &msg
	}
	r.mu.Unlock()

	if err != nil {
		slog.Error("scrape task failed", slog.Any("error", err))
		return
	}

	slog.Info("scrape task finished")
	if r.onSuccess != nil {
		r.onSuccess()
	}
}

// Status returns a snapshot of the latest run.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := Status{Running: r.running}
	if r.success != nil {
		ok := *r.success
		status.Success = &ok
	}
	if r.lastRun != nil {
		formatted := r.lastRun.Format(time.RFC3339)
		status.LastRun = &formatted
	}
	if r.errMsg != nil {
		msg := *r.errMsg
		status.ErrorMessage = &msg
	}
	return status
}
