package app

import "errors"

// Sentinel errors returned by the session and loop.
var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrLoopStopped     = errors.New("detection loop stopped")
	ErrLoopRunning     = errors.New("detection loop already running")
)
