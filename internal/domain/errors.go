package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorKindMissingField   ErrorKind = "missing_field"
	ErrorKindDivisionByZero ErrorKind = "division_by_zero"
	ErrorKindNotFound       ErrorKind = "not_found"
	ErrorKindInvalidInput   ErrorKind = "invalid_input"
	ErrorKindNonFinite      ErrorKind = "non_finite"
	ErrorKindFetch          ErrorKind = "fetch"
)

// MissingFieldError means a required snapshot field could not be populated.
type MissingFieldError struct {
	Ticker string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %s", e.Ticker, e.Field)
}

// DivisionByZeroError is raised instead of letting inf/NaN reach the ranking.
type DivisionByZeroError struct {
	Quantity    string
	Denominator string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("cannot compute %s: %s is zero", e.Quantity, e.Denominator)
}

type NotFoundError struct {
	Ticker string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ticker %s not found", e.Ticker)
}

type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

// NonFiniteError means a computed quantity overflowed to inf or NaN, usually
// from a horizon long enough that compounding leaves float64 range.
type NonFiniteError struct {
	Ticker   string
	Quantity string
	Value    float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: %s is not finite (%v)", e.Ticker, e.Quantity, e.Value)
}

// KindOf classifies an error chain. Anything unrecognised is treated as a
// fetch failure from the data provider.
func KindOf(err error) ErrorKind {
	var (
		missing  *MissingFieldError
		divZero  *DivisionByZeroError
		notFound *NotFoundError
		invalid  *InvalidInputError
		infinite *NonFiniteError
	)
	switch {
	case errors.As(err, &missing):
		return ErrorKindMissingField
	case errors.As(err, &divZero):
		return ErrorKindDivisionByZero
	case errors.As(err, &notFound):
		return ErrorKindNotFound
	case errors.As(err, &invalid):
		return ErrorKindInvalidInput
	case errors.As(err, &infinite):
		return ErrorKindNonFinite
	}
	return ErrorKindFetch
}
