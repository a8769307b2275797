package process

import "errors"

// Sentinel kinds for processing errors.
var (
	// ErrCatalogUnavailable means the category or level catalog could
	// not be obtained. Ranking cannot proceed without readable group
	// labels, so this is fatal.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrMalformedRecord means a required field was absent from an
	// otherwise-verified record. This signals an upstream contract
	// break and is fatal.
	ErrMalformedRecord = errors.New("malformed record")
)
