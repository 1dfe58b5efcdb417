package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig rejects an invalid roster or role distribution; the session is never created.
	ErrConfig = errors.New("config error")
	// ErrInvalidPhase is returned when an operation is attempted outside its phase.
	ErrInvalidPhase = errors.New("invalid phase")
	// ErrInvalidAction rejects an externally submitted command with an ineligible actor or target.
	ErrInvalidAction = errors.New("invalid action")
	// ErrValidation marks an agent decision that failed schema or constraint checks.
	ErrValidation = errors.New("validation failure")
	// ErrTimeout is returned when an agent does not answer within its decision budget.
	ErrTimeout = errors.New("agent timeout")
	// ErrProvider wraps failures of the external model capability.
	ErrProvider = errors.New("provider error")
	// ErrInternalConsistency signals a broken invariant. It indicates a bug.
	ErrInternalConsistency = errors.New("internal consistency error")
	// ErrUnknownSession is returned by the registry for ids it does not hold.
	ErrUnknownSession = errors.New("unknown session")
)

// InternalConsistencyError describes an invariant breach. It is returned wrapped
// by projection code and used as a panic value for programmer errors.
type InternalConsistencyError struct {
	Reason string
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInternalConsistency, e.Reason)
}

func (e *InternalConsistencyError) Unwrap() error { return ErrInternalConsistency }

// Inconsistent builds an InternalConsistencyError.
func Inconsistent(format string, args ...any) error {
	return &InternalConsistencyError{Reason: fmt.Sprintf(format, args...)}
}

// Assert panics with an InternalConsistencyError when cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(Inconsistent(format, args...))
	}
}
