package tracker

import "errors"

var (
	// ErrInvalidState indicates a lifecycle operation was attempted from an
	// incompatible session state, such as pausing an already-paused session.
	ErrInvalidState = errors.New(
		"session is not in a valid state for this operation",
	)
)
