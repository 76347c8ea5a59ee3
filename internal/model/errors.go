package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain reports a tick or sqrt price outside protocol bounds.
	ErrDomain = errors.New("value outside protocol bounds")
	// ErrOutOfBounds reports a tick not covered by the given tick array.
	ErrOutOfBounds = errors.New("tick out of array bounds")
	// ErrArrayBoundaryExceeded reports an in-array search that ran off the array.
	ErrArrayBoundaryExceeded = errors.New("tick array boundary exceeded")
	// ErrInvalidRange reports a malformed [lower, upper] tick range.
	ErrInvalidRange = errors.New("invalid tick range")
	// ErrZeroSideRange reports a supplied token that is always zero for the range status.
	ErrZeroSideRange = errors.New("supplied token is zero-sided for range")
	// ErrArithmeticOverflow reports a fixed-width operation that does not fit.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	// ErrInsufficientLiquidity reports a swap that cannot find another initialized tick.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrLookupFailed reports a failure inside an injected accessor.
	ErrLookupFailed = errors.New("lookup failed")
	// ErrNotFound reports a missing account or snapshot record.
	ErrNotFound = errors.New("not found")

	ErrExceedsPositionLiquidity = errors.New("liquidity exceeds position liquidity")
	ErrInvalidSlippage          = errors.New("invalid slippage tolerance")
	ErrInconsistentSnapshot     = errors.New("inconsistent snapshot")
)

// BoundaryError carries the bounds of the tick array a search left.
type BoundaryError struct {
	Start int32
	End   int32 // exclusive
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%v: [%d, %d)", ErrArrayBoundaryExceeded, e.Start, e.End)
}

func (e *BoundaryError) Unwrap() error {
	return ErrArrayBoundaryExceeded
}

// LookupError wraps an error returned by an external tick or tick array accessor.
type LookupError struct {
	Op        string
	TickIndex int32
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %s %d: %v", ErrLookupFailed, e.Op, e.TickIndex, e.Err)
}

func (e *LookupError) Unwrap() []error {
	return []error{ErrLookupFailed, e.Err}
}
