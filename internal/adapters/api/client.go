// Package api is the client for the remote leaderboard API. It provides
// a single resilient fetch primitive with retry, rate-limit respect and
// disk-cache fallback, plus endpoint helpers and a paginated collector
// built on top of it.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/runboard/internal/domain/model"
	"github.com/okian/runboard/pkg/logger"
)

// Default client configuration constants.
const (
	defaultBaseURL    = "https://www.speedrun.com/api/v1"
	defaultTimeout    = 10 * time.Second
	defaultPageSize   = 200
	defaultMaxRetries = 2
	defaultBackoff    = 2 * time.Second
)

// Client accesses the remote leaderboard API. All requests go through
// Fetch, so every endpoint inherits the same retry and cache-fallback
// behavior.
type Client struct {
	base       string
	timeout    time.Duration
	pageSize   int
	maxRetries int
	backoff    time.Duration
	httpc      *http.Client
	sleep      func(time.Duration)
	log        logger.Logger
}

// New creates a Client with default configuration, overridable through
// options.
func New(opts ...Option) *Client {
	c := &Client{
		base:       defaultBaseURL,
		timeout:    defaultTimeout,
		pageSize:   defaultPageSize,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		sleep:      time.Sleep,
		log:        logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.base = strings.TrimRight(c.base, "/")
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: c.timeout}
	}
	return c
}

// PageSize returns the configured default page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Runs fetches one page of runs for a game. A max of zero uses the
// client's default page size.
func (c *Client) Runs(ctx context.Context, gameID string, offset, max int, cacheFile string) ([]model.Run, error) {
	if max <= 0 {
		max = c.pageSize
	}
	url := fmt.Sprintf("%s/runs?game=%s&max=%d&offset=%d", c.base, gameID, max, offset)
	data, err := c.Fetch(ctx, url, cacheFile)
	if err != nil {
		return nil, err
	}

	var runs []model.Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("decode runs page: %w", err)
	}
	return runs, nil
}

// AllRuns pages through every run of a game and returns the
// concatenation in fetch order. maxPages of zero means no page limit;
// pageSize of zero uses the client default. All pages share cacheFile,
// so an intermediate failure can still degrade to cached content.
func (c *Client) AllRuns(ctx context.Context, gameID, cacheFile string, maxPages, pageSize int) ([]model.Run, error) {
	offset := 0
	pagesFetched := 0
	var all []model.Run

	for {
		page, err := c.Runs(ctx, gameID, offset, pageSize, cacheFile)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		pagesFetched++

		if maxPages > 0 && pagesFetched >= maxPages {
			break
		}

		// Advance by the page size actually requested, not by the
		// number of records returned.
		used := pageSize
		if used <= 0 {
			used = c.pageSize
		}
		offset += used
	}

	return all, nil
}

// Categories returns the category catalog for a game.
func (c *Client) Categories(ctx context.Context, gameID, cacheFile string) ([]model.CatalogEntry, error) {
	url := fmt.Sprintf("%s/games/%s/categories", c.base, gameID)
	return c.catalog(ctx, url, cacheFile)
}

// Levels returns the level catalog for a game.
func (c *Client) Levels(ctx context.Context, gameID, cacheFile string) ([]model.CatalogEntry, error) {
	url := fmt.Sprintf("%s/games/%s/levels", c.base, gameID)
	return c.catalog(ctx, url, cacheFile)
}

func (c *Client) catalog(ctx context.Context, url, cacheFile string) ([]model.CatalogEntry, error) {
	data, err := c.Fetch(ctx, url, cacheFile)
	if err != nil {
		return nil, err
	}

	var entries []model.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return entries, nil
}

// User resolves a user id to its display name, preferring the
// international name over the japanese one. An empty name with a nil
// error means the profile carries no usable name.
func (c *Client) User(ctx context.Context, userID string) (string, error) {
	url := fmt.Sprintf("%s/users/%s", c.base, userID)
	data, err := c.Fetch(ctx, url, "")
	if err != nil {
		return "", err
	}

	var user struct {
		Names map[string]string `json:"names"`
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return "", fmt.Errorf("decode user %s: %w", userID, err)
	}

	name := user.Names["international"]
	if name == "" {
		name = user.Names["japanese"]
	}
	return name, nil
}
