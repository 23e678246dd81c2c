package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindTimeout      Kind = "timeout"
	KindAccessDenied Kind = "access_denied"
	KindNotFound     Kind = "not_found"
	KindServer       Kind = "server"
	KindHTTP         Kind = "http"
	KindNetwork      Kind = "network"
)

// Error describes a failed fetch. Its message carries the status code and the
// wording callers use to categorize failures.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("timeout fetching %s: %v", e.URL, e.Err)
	case KindAccessDenied:
		return fmt.Sprintf("access denied (HTTP %d) for %s", e.StatusCode, e.URL)
	case KindNotFound:
		return fmt.Sprintf("page not found (HTTP %d) for %s", e.StatusCode, e.URL)
	case KindServer:
		return fmt.Sprintf("server error (HTTP %d) for %s", e.StatusCode, e.URL)
	case KindNetwork:
		return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
	default:
		if e.StatusCode != 0 {
			return fmt.Sprintf("unexpected HTTP status %d for %s", e.StatusCode, e.URL)
		}
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindAccessDenied, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind of err, or "" when err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
