package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound means the session id is unknown or already closed
	ErrSessionNotFound = errors.New("session not found")

	// ErrGenerationTimeout means an AI call exceeded its allotted time.
	// It is scoped to that one operation; the session itself is unaffected.
	ErrGenerationTimeout = errors.New("generation timed out")
)

// ValidationError rejects malformed input to a submission or generation
// call. The call is never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SessionStateError marks an operation attempted against a session not in
// the expected status, e.g. submitting a session that is already scored.
type SessionStateError struct {
	SessionID string
	Status    SessionStatus
	Op        string
}

func (e *SessionStateError) Error() string {
	return fmt.Sprintf("session already completed: cannot %s session %s in status %s", e.Op, e.SessionID, e.Status)
}

// ContractViolationError means the external generator's output failed
// schema validation even after the built-in retry. Terminal for that one
// operation; the rest of the session stays valid.
type ContractViolationError struct {
	Op  string
	Err error
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("%s: generator output violated schema: %v", e.Op, e.Err)
}

func (e *ContractViolationError) Unwrap() error { return e.Err }
