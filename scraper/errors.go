package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus indicates a non-success response from the site.
type ErrHTTPStatus struct {
	StatusCode int
	Err        error
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Errorf("http status %d: %w", e.StatusCode, e.Err).Error()
}

func (e ErrHTTPStatus) Unwrap() error {
	return e.Err
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode >= http.StatusBadRequest {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		return ErrHTTPStatus{StatusCode: statusCode, Err: wrapped}
	}

	return err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		if status.StatusCode == http.StatusNotFound {
			return "not_found"
		}
		return "http_status"
	}
	return "other"
}
