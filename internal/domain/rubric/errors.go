package rubric

import "errors"

// Sentinel kinds for rubric catalog errors.
var (
	ErrEmpty           = errors.New("rubric has no criteria")
	ErrMissingID       = errors.New("criterion id is required")
	ErrInvalidMaxScore = errors.New("criterion max score must be positive")
	ErrDuplicateID     = errors.New("duplicate criterion id")
)
