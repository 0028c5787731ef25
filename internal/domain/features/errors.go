package features

import "errors"

// Sentinel kinds for the feature pipeline. These allow errors.Is/As from
// callers.
var (
	// ErrNoObservations means the observation source yielded nothing to
	// build a training table from.
	ErrNoObservations = errors.New("no observations to process")

	// ErrUnseenLabel means a fitted encoder met a label that was not
	// present at fit time.
	ErrUnseenLabel = errors.New("label not seen at fit time")
)
