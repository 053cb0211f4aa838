package history

import "errors"

// Domain errors for the history package.
var (
	// ErrInvalidTrackLoad is returned when a track load fails validation.
	ErrInvalidTrackLoad = errors.New("history: invalid track load")

	// ErrInvalidRetention is returned when a prune duration is not positive.
	ErrInvalidRetention = errors.New("history: retention must be positive")
)
