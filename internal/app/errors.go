package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrInvalidLocation    = errors.New("invalid location")
)
