package orchestrator

import "fmt"

// The error taxonomy the control surface maps to responses. Capacity
// errors come from the node package's ledger and remote errors from
// the daemon package; the rest are defined here.

// ValidationError is malformed or out-of-range input. Surfaced before
// any side effect.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError is a referenced record that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ConflictError is a request that contradicts current state: an
// endpoint already bound, a transfer already running, a split of a
// child, an offline node.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// PartialFailure reports that a best-effort secondary step failed
// after the primary operation already committed. The caller's work
// succeeded; nothing was rolled back.
type PartialFailure struct {
	Op  string
	Err error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s failed after the primary operation succeeded: %v", e.Op, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }
