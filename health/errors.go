package health

import "errors"

// Errors attached to Result.Error by the Aggregator, or returned by Check.
var (
	// ErrCheckFailed marks a checker that panicked.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a checker still running when its deadline passed.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
