package app

import (
	"errors"
	"fmt"
)

// ErrPrecondition is the root kind for workflow precondition failures.
// These are deterministic and re-checkable: the caller may re-validate
// state and retry once conditions change, but the service never retries
// on its own. The specific sentinels wrap it.
var ErrPrecondition = errors.New("precondition failed")

var (
	ErrJudgingNotOpen = fmt.Errorf("%w: judging is not open for scoring", ErrPrecondition)
	ErrTeamsNotDone   = fmt.Errorf("%w: not all teams are completed", ErrPrecondition)
	ErrAlreadyEnded   = fmt.Errorf("%w: judging already ended", ErrPrecondition)
	ErrEventFrozen    = fmt.Errorf("%w: judging has ended; team status is frozen", ErrPrecondition)
	ErrBadTransition  = fmt.Errorf("%w: event is not in the required phase", ErrPrecondition)
)
