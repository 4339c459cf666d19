package model

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable indicates the weather upstream could not be reached
// or timed out. Callers may retry or degrade to historical-only operation.
var ErrUpstreamUnavailable = errors.New("weather upstream unavailable")

// InputValidationError is fatal to the operation that received the input.
// It never aborts sibling units of a batch.
type InputValidationError struct {
	Op     string // operation that rejected the input
	Reason error
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("%s: invalid input: %v", e.Op, e.Reason)
}

func (e *InputValidationError) Unwrap() error { return e.Reason }

// NewInputValidationError wraps reason as a validation failure of op.
func NewInputValidationError(op string, reason error) *InputValidationError {
	return &InputValidationError{Op: op, Reason: reason}
}

// CoverageError indicates a simulation window with no usable weather at all,
// leaving nothing to gap-fill from.
type CoverageError struct {
	TerritoryID string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("territory %s: window contains no usable weather samples", e.TerritoryID)
}
