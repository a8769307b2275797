package repository

import "github.com/okian/runboard/pkg/logger"

// Option applies a configuration option to the Repository.
type Option func(*Repository)

// WithMaxPages caps how many pages one collection may fetch. Zero means
// no cap.
func WithMaxPages(pages int) Option {
	return func(r *Repository) {
		if pages > 0 {
			r.maxPages = pages
		}
	}
}

// WithPageSize overrides the collector's page size for this repository.
func WithPageSize(size int) Option {
	return func(r *Repository) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

// WithLogger sets a custom logger for the repository.
func WithLogger(log logger.Logger) Option {
	return func(r *Repository) {
		if log != nil {
			r.log = log
		}
	}
}
