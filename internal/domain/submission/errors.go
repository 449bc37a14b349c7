package submission

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of the validation error kind. The specific
// sentinels below wrap it, so callers can match the whole family with
// errors.Is(err, ErrValidation).
var ErrValidation = errors.New("invalid submission")

// Specific validation failures.
var (
	ErrMissingJudge     = fmt.Errorf("%w: judge identity is required", ErrValidation)
	ErrMissingCriterion = fmt.Errorf("%w: required criterion not covered", ErrValidation)
	ErrUnknownCriterion = fmt.Errorf("%w: unknown criterion", ErrValidation)
	ErrScoreOutOfRange  = fmt.Errorf("%w: score outside criterion bounds", ErrValidation)
)
