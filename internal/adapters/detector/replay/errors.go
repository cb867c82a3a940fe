package replay

import "errors"

// Sentinel errors for trace loading.
var (
	ErrEmptyTrace   = errors.New("trace has no frames")
	ErrInvalidTrace = errors.New("invalid trace")
)
