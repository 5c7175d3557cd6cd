package scrape

import (
	"context"
	"fmt"
	"time"
)

// Page is the raw result of fetching one URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Fetcher fetches a URL and returns the raw document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// StatusError reports a fetch that completed with a non-success status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}
