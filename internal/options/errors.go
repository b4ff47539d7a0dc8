package options

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrExpired        = errors.New("option expired before calculation date")
	ErrBelowIntrinsic = errors.New("observed price below intrinsic value")
	ErrLattice        = errors.New("binomial lattice unstable")
)

// CalculationError is returned by every pricing routine. Reason is one of the
// Err* sentinels above so callers can use errors.Is.
type CalculationError struct {
	Op     string
	Reason error
	Detail string
}

func (e *CalculationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Reason, e.Detail)
}

func (e *CalculationError) Unwrap() error { return e.Reason }

func calcErr(op string, reason error, format string, args ...any) error {
	return &CalculationError{Op: op, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
