package task

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a lifecycle operation is not
	// allowed from the task's current status.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("task not found")
)

// Reason is a stable, user-visible classification of a failed operation.
type Reason string

const (
	ReasonInvalidState Reason = "invalid-state"
	ReasonNotFound     Reason = "not-found"
	ReasonStoreError   Reason = "store-error"
)

// OpError describes a failed orchestrator operation on a task.
type OpError struct {
	Op     string
	TaskID string
	Reason Reason
	Err    error
}

func (e *OpError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.TaskID, e.Reason, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// WrapOp wraps err in an *OpError classified by ReasonOf. Returns nil when
// err is nil.
func WrapOp(op, taskID string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, TaskID: taskID, Reason: ReasonOf(err), Err: err}
}

// ReasonOf classifies err. Errors that are neither a transition nor a
// lookup failure are attributed to the store.
func ReasonOf(err error) Reason {
	var opErr *OpError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &opErr):
		return opErr.Reason
	case errors.Is(err, ErrInvalidTransition):
		return ReasonInvalidState
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	default:
		return ReasonStoreError
	}
}
