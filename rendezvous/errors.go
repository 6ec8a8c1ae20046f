package rendezvous

import "errors"

// The three failure kinds a Channel can surface. Iterate and Select treat
// ErrReadCancelled (and, for Iterate, ErrClosed) as expected termination,
// not failure; callers that Read or Write directly see them as ordinary
// errors.
var (
	// ErrClosed is returned by any Read/Write against a closed Channel, and
	// by a Read/Write that was pending when Close was called.
	ErrClosed = errors.New(`rendezvous: channel closed`)

	// ErrReadCancelled is returned by Read when its context is done before
	// a value could be claimed, or when Select's at-most-one policy
	// declines this read in favour of a sibling.
	ErrReadCancelled = errors.New(`rendezvous: read cancelled`)

	// ErrWriteCancelled is returned by Write when its context is done
	// before a reader claimed the posted value.
	ErrWriteCancelled = errors.New(`rendezvous: write cancelled`)
)
