package engine

import (
	"errors"
	"fmt"

	"github.com/iwvelando/household-tax/pkg/expense"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/iwvelando/household-tax/pkg/taxcalc"
)

// Kind classifies a per-request failure.
type Kind string

const (
	// InvalidAmount means revenue, expenses or an expense line was negative.
	InvalidAmount Kind = "INVALID_AMOUNT"
	// UnknownCategory means the business category is not in the active table.
	UnknownCategory Kind = "UNKNOWN_CATEGORY"
)

// Error is the only error type Calculate returns.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidAmount   = &Error{Kind: InvalidAmount}
	ErrUnknownCategory = &Error{Kind: UnknownCategory}
)

// ErrNoPolicy is returned by New when there is no table to serve from.
var ErrNoPolicy = errors.New("engine requires a loaded policy table")

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// translate maps a failure from the internal packages onto the external
// taxonomy. Anything unrecognized is returned as is.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, taxcalc.ErrInvalidAmount), errors.Is(err, expense.ErrInvalidAmount):
		return &Error{Kind: InvalidAmount, Message: err.Error(), err: err}
	case errors.Is(err, policy.ErrUnknownCategory):
		return &Error{Kind: UnknownCategory, Message: err.Error(), err: err}
	default:
		return err
	}
}
