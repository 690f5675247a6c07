package rate

import "errors"

var (
	// ErrLimited is returned when a window's budget is exhausted.
	ErrLimited = errors.New("rate limited")
	// ErrStoreUnavailable wraps Redis failures. Callers must treat it as a
	// denial, never a bypass.
	ErrStoreUnavailable = errors.New("rate counter store unavailable")
)
