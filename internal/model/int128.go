package model

import (
	"fmt"
	"strings"

	"lukechampine.com/uint128"
)

var int128Limit = uint128.New(0, 1<<63)

// Int128 is a signed 128-bit integer in sign-magnitude form.
// The zero value is 0 and zero is never negative.
type Int128 struct {
	Neg bool
	Abs uint128.Uint128
}

// NewInt128 converts v to an Int128.
func NewInt128(v int64) Int128 {
	if v < 0 {
		return Int128{Neg: true, Abs: uint128.From64(uint64(-(v + 1)) + 1)}
	}
	return Int128{Abs: uint128.From64(uint64(v))}
}

// ParseInt128 parses a base-10 signed integer.
func ParseInt128(s string) (Int128, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		return Int128{}, fmt.Errorf("parse int128 %q: invalid syntax", s)
	}
	abs, err := uint128.FromString(digits)
	if err != nil {
		return Int128{}, fmt.Errorf("parse int128 %q: %w", s, err)
	}
	return makeInt128(neg, abs)
}

// Int128FromBytes decodes a little-endian two's complement value.
func Int128FromBytes(b []byte) Int128 {
	raw := uint128.FromBytes(b)
	if raw.Hi>>63 == 0 {
		return Int128{Abs: raw}
	}
	return Int128{Neg: true, Abs: uint128.Zero.SubWrap(raw)}
}

// PutBytes encodes x as little-endian two's complement into b[:16].
func (x Int128) PutBytes(b []byte) {
	if x.Neg {
		uint128.Zero.SubWrap(x.Abs).PutBytes(b)
		return
	}
	x.Abs.PutBytes(b)
}

func makeInt128(neg bool, abs uint128.Uint128) (Int128, error) {
	if abs.IsZero() {
		return Int128{}, nil
	}
	cmp := abs.Cmp(int128Limit)
	if cmp > 0 || (cmp == 0 && !neg) {
		return Int128{}, fmt.Errorf("int128: %w", ErrArithmeticOverflow)
	}
	return Int128{Neg: neg, Abs: abs}, nil
}

func (x Int128) Sign() int {
	switch {
	case x.Abs.IsZero():
		return 0
	case x.Neg:
		return -1
	default:
		return 1
	}
}

func (x Int128) IsZero() bool {
	return x.Abs.IsZero()
}

// Negate returns -x. Negating the minimum value overflows.
func (x Int128) Negate() (Int128, error) {
	return makeInt128(!x.Neg, x.Abs)
}

// Add returns x + y, failing on overflow.
func (x Int128) Add(y Int128) (Int128, error) {
	if x.Neg == y.Neg {
		sum := x.Abs.AddWrap(y.Abs)
		if sum.Cmp(x.Abs) < 0 {
			return Int128{}, fmt.Errorf("int128 add: %w", ErrArithmeticOverflow)
		}
		return makeInt128(x.Neg, sum)
	}
	if x.Abs.Cmp(y.Abs) >= 0 {
		return makeInt128(x.Neg, x.Abs.Sub(y.Abs))
	}
	return makeInt128(y.Neg, y.Abs.Sub(x.Abs))
}

func (x Int128) String() string {
	if x.Neg {
		return "-" + x.Abs.String()
	}
	return x.Abs.String()
}

// ApplyLiquidityDelta adds a signed delta to an unsigned liquidity value.
func ApplyLiquidityDelta(liquidity uint128.Uint128, delta Int128) (uint128.Uint128, error) {
	if delta.Neg {
		if liquidity.Cmp(delta.Abs) < 0 {
			return uint128.Zero, fmt.Errorf("liquidity %s minus %s: %w", liquidity, delta.Abs, ErrArithmeticOverflow)
		}
		return liquidity.Sub(delta.Abs), nil
	}
	sum := liquidity.AddWrap(delta.Abs)
	if sum.Cmp(liquidity) < 0 {
		return uint128.Zero, fmt.Errorf("liquidity %s plus %s: %w", liquidity, delta.Abs, ErrArithmeticOverflow)
	}
	return sum, nil
}
