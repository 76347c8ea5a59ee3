// Package fixedpoint holds the checked 128/256-bit helpers shared by the
// price and liquidity math. Every overflow wraps model.ErrArithmeticOverflow.
package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

// Q64 is 2^64, the Q64.64 unit.
var Q64 = new(uint256.Int).Lsh(uint256.NewInt(1), 64)

// Widen lifts a 128-bit value into a 256-bit intermediate.
func Widen(v uint128.Uint128) *uint256.Int {
	return &uint256.Int{v.Lo, v.Hi, 0, 0}
}

// Narrow128 fails when v does not fit in 128 bits.
func Narrow128(v *uint256.Int) (uint128.Uint128, error) {
	if v[2] != 0 || v[3] != 0 {
		return uint128.Zero, fmt.Errorf("narrow %s to u128: %w", v.Dec(), model.ErrArithmeticOverflow)
	}
	return uint128.New(v[0], v[1]), nil
}

// Narrow64 fails when v does not fit in 64 bits.
func Narrow64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, fmt.Errorf("narrow %s to u64: %w", v.Dec(), model.ErrArithmeticOverflow)
	}
	return v.Uint64(), nil
}

func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("mul: %w", model.ErrArithmeticOverflow)
	}
	return z, nil
}

func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("add: %w", model.ErrArithmeticOverflow)
	}
	return z, nil
}

func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, fmt.Errorf("sub: %w", model.ErrArithmeticOverflow)
	}
	return z, nil
}

// Lsh shifts left, failing if any set bit would be lost.
func Lsh(x *uint256.Int, n uint) (*uint256.Int, error) {
	if !x.IsZero() && uint(x.BitLen())+n > 256 {
		return nil, fmt.Errorf("shift left %d: %w", n, model.ErrArithmeticOverflow)
	}
	return new(uint256.Int).Lsh(x, n), nil
}

// Div divides x by d, rounding up when roundUp is set.
func Div(x, d *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("divide by zero: %w", model.ErrArithmeticOverflow)
	}
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(x, d, r)
	if roundUp && !r.IsZero() {
		return Add(q, uint256.NewInt(1))
	}
	return q, nil
}

// MulDiv computes x*y/d with a 512-bit intermediate product.
func MulDiv(x, y, d *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("divide by zero: %w", model.ErrArithmeticOverflow)
	}
	q, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, fmt.Errorf("mul div: %w", model.ErrArithmeticOverflow)
	}
	if roundUp && !new(uint256.Int).MulMod(x, y, d).IsZero() {
		return Add(q, uint256.NewInt(1))
	}
	return q, nil
}
