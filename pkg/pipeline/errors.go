package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition is wrapped by every PreconditionError.
	ErrPrecondition = errors.New("precondition failed")
	// ErrResourceLimit is wrapped by every ResourceLimitError.
	ErrResourceLimit = errors.New("resource limit exceeded")
)

// PreconditionError reports a scene that cannot be rendered at all: the
// run stops before any geometry is processed.
type PreconditionError struct {
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrPrecondition, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrPrecondition, e.Reason)
}

func (e *PreconditionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPrecondition, e.Err}
	}
	return []error{ErrPrecondition}
}

// ResourceLimitError reports more raw edges than the configured ceiling.
type ResourceLimitError struct {
	Edges int
	Limit int
}

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("%v: %d edges, limit is %d; raise the edge limit or cull the scene", ErrResourceLimit, e.Edges, e.Limit)
}

func (e *ResourceLimitError) Unwrap() error { return ErrResourceLimit }
