package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/okian/runboard/internal/adapters/filecache"
	"github.com/okian/runboard/pkg/logger"
	"github.com/okian/runboard/pkg/metrics"
)

// defaultRetryAfter is slept when a 429 carries no parsable Retry-After.
const defaultRetryAfter = 1 * time.Second

// cacheIndent is the indentation of caches written by the fetch client.
const cacheIndent = "  "

// Fetch performs a GET against url with retries. On success it returns
// the payload's "data" field when present, else the whole body, and
// writes the result to cacheFile as a best-effort side effect when one
// is given. When every attempt fails it falls back to the cache file if
// present, and otherwise fails with ErrFetchFailed wrapping the last
// transport error.
//
// A 429 response sleeps for the server's Retry-After before the next
// attempt; any other failure sleeps backoff*(attempt+1). The growth is
// deliberately linear in the attempt index.
func (c *Client) Fetch(ctx context.Context, url, cacheFile string) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		metrics.RecordFetchAttempt()

		data, err := c.attempt(ctx, url)
		if err == nil {
			if cacheFile != "" && !isJSONNull(data) {
				if werr := writeCache(cacheFile, data); werr != nil {
					c.log.Warn(ctx, "failed to write API cache",
						logger.String("cache", cacheFile),
						logger.Error(werr),
					)
				}
			}
			return data, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		metrics.RecordFetchRetry()

		var rl *rateLimitError
		if errors.As(err, &rl) {
			c.log.Debug(ctx, "rate limited by API",
				logger.String("url", url),
				logger.Float64("retry_after_seconds", rl.retryAfter.Seconds()),
			)
			metrics.RecordRateLimitWait(rl.retryAfter.Seconds())
			c.sleep(rl.retryAfter)
		} else {
			c.sleep(time.Duration(attempt+1) * c.backoff)
		}
	}

	if cacheFile != "" {
		if data, err := readCache(cacheFile); err == nil {
			c.log.Warn(ctx, "fetch failed, falling back to cached data",
				logger.String("url", url),
				logger.String("cache", cacheFile),
				logger.Error(lastErr),
			)
			metrics.RecordCacheFallback()
			return data, nil
		} else if !os.IsNotExist(err) {
			c.log.Warn(ctx, "failed to read API cache",
				logger.String("cache", cacheFile),
				logger.Error(err),
			)
		}
	}

	metrics.RecordFetchFailure()
	return nil, fmt.Errorf("fetch %s: %w: %w", url, ErrFetchFailed, lastErr)
}

// attempt performs one GET and classifies the outcome.
func (c *Client) attempt(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &rateLimitError{retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return extractData(body)
}

// extractData pulls the "data" field out of an envelope payload, or
// returns the whole body when there is none.
func extractData(body []byte) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		if data, ok := envelope["data"]; ok {
			return data, nil
		}
	}
	if !json.Valid(body) {
		return nil, errors.New("response body is not valid JSON")
	}
	return json.RawMessage(body), nil
}

// parseRetryAfter reads a Retry-After header value in seconds,
// defaulting to one second when missing or unparsable.
func parseRetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func isJSONNull(data json.RawMessage) bool {
	return len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func writeCache(path string, data json.RawMessage) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", cacheIndent); err != nil {
		return fmt.Errorf("format cache payload: %w", err)
	}
	return filecache.WriteRaw(path, pretty.Bytes())
}

func readCache(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("cache %s holds invalid JSON", path)
	}
	return json.RawMessage(data), nil
}
