package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across package boundaries
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNumerical        = errors.New("numerical error")
)

// InsufficientDataError is returned when a series is too short for a
// computation, or when a contract lacks an input it cannot be priced without.
// Reason replaces the have/need counts in the message when set.
type InsufficientDataError struct {
	Field  string
	Have   int
	Need   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient data for %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("insufficient data for %s: have %d, need %d", e.Field, e.Have, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// InvalidInputError is returned for a malformed field. A contract carrying
// one is skipped; the rest of the chain is still scored.
type InvalidInputError struct {
	Field string
	Value string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NumericalError reports an arithmetic fault such as a non-finite intermediate
type NumericalError struct {
	Op string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical fault in %s", e.Op)
}

func (e *NumericalError) Is(target error) bool {
	return target == ErrNumerical
}
