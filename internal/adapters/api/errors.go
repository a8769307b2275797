package api

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel kinds for fetch errors. These allow errors.Is/As from callers.
var (
	// ErrFetchFailed means every attempt failed and no cache fallback
	// was available.
	ErrFetchFailed = errors.New("fetch failed")
)

// rateLimitError signals an HTTP 429 carrying the wait the server asked
// for. It is handled inside the retry loop and never surfaced.
type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.retryAfter)
}
