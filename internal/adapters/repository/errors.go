package repository

import "errors"

// Sentinel kinds for judging store errors.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrDuplicateSubmission = errors.New("submission already exists for this judge and team")
	ErrEventEnded          = errors.New("judging has ended")
	ErrPhaseConflict       = errors.New("event is not in the expected phase")
)
