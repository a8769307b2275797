// Package repository reconciles freshly fetched runs with the local
// verified-run cache and owns that cache file.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/runboard/internal/adapters/filecache"
	"github.com/okian/runboard/internal/domain/model"
	"github.com/okian/runboard/pkg/logger"
	"github.com/okian/runboard/pkg/metrics"
)

// verifiedStatus is the accepted status value for a run.
const verifiedStatus = "verified"

// Collector fetches the complete run set for a game from the remote API.
type Collector interface {
	AllRuns(ctx context.Context, gameID, cacheFile string, maxPages, pageSize int) ([]model.Run, error)
}

// Repository merges fetched runs with the cached set, keeps only
// verified records, and maintains the cache file across refreshes.
type Repository struct {
	collector Collector
	gameID    string
	cachePath string
	maxPages  int
	pageSize  int
	log       logger.Logger
}

// New creates a Repository for one game backed by the cache at
// cachePath.
func New(collector Collector, gameID, cachePath string, opts ...Option) *Repository {
	r := &Repository{
		collector: collector,
		gameID:    gameID,
		cachePath: cachePath,
		log:       logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// FetchVerified returns the current verified run set.
//
// A fetch failure is recovered by falling back to cached records; the
// call fails with ErrNoVerifiedRuns only when both the fresh fetch and
// the existing cache yield nothing.
func (r *Repository) FetchVerified(ctx context.Context) ([]model.Run, error) {
	// Cache read errors never fail the operation; a missing or corrupt
	// cache just means an empty starting set.
	var existing []model.Run
	if err := filecache.Read(r.cachePath, &existing); err != nil {
		existing = nil
	}

	// Collect without a cache file for this call so unverified records
	// never reach the verified-run cache through the fetch layer.
	var lastErr error
	fetched, err := r.collector.AllRuns(ctx, r.gameID, "", r.maxPages, r.pageSize)
	if err != nil {
		lastErr = err
		r.log.Warn(ctx, "failed to fetch runs from API, falling back to cache",
			logger.Error(err),
		)
		fetched = nil
	}
	metrics.RecordRunsFetched(len(fetched))

	verified := mergeVerified(existing, fetched)
	metrics.UpdateVerifiedRuns(len(verified))

	// Unconditional write-back, even when empty: a record that became
	// unverified upstream must drop out of the cache.
	if err := filecache.Write(r.cachePath, verified); err != nil {
		r.log.Warn(ctx, "failed to write verified-run cache",
			logger.String("cache", r.cachePath),
			logger.Error(err),
		)
	}

	if len(verified) == 0 {
		if len(existing) > 0 {
			// Older known-good data beats an empty dashboard.
			return existing, nil
		}
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoVerifiedRuns, lastErr)
		}
		return nil, ErrNoVerifiedRuns
	}

	return verified, nil
}

// mergeVerified combines both sources into an identity-keyed set where
// fetched records override cached ones, then filters to verified
// status. First-seen order is preserved.
func mergeVerified(existing, fetched []model.Run) []model.Run {
	index := make(map[string]int, len(existing)+len(fetched))
	merged := make([]model.Run, 0, len(existing)+len(fetched))

	for _, run := range existing {
		if i, ok := index[run.ID]; ok {
			merged[i] = run
			continue
		}
		index[run.ID] = len(merged)
		merged = append(merged, run)
	}
	for _, run := range fetched {
		if i, ok := index[run.ID]; ok {
			merged[i] = run
			continue
		}
		index[run.ID] = len(merged)
		merged = append(merged, run)
	}

	verified := make([]model.Run, 0, len(merged))
	for _, run := range merged {
		if run.Status.Status == verifiedStatus {
			verified = append(verified, run)
		}
	}
	return verified
}
