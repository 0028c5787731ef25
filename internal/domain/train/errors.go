package train

import "errors"

// Sentinel kinds for training. These allow errors.Is/As from callers.
var (
	// ErrInsufficientData means a variant's training precondition was not
	// met (for example, no location group reaches the sequence window
	// length). It is an expected result, not a failure.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrTrainingFailed wraps an unexpected error from a variant's fit.
	ErrTrainingFailed = errors.New("training failed")
)
