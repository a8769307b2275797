package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	// ErrNoVerifiedRuns means both the fresh fetch and the existing
	// cache yielded zero verified records.
	ErrNoVerifiedRuns = errors.New("no verified runs available")
)
