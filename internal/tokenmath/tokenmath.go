// Package tokenmath relates token amounts, liquidity and sqrt prices on the
// constant-liquidity curve, rounding the way the on-chain program does.
package tokenmath

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/fixedpoint"
	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/tickmath"
)

func ordered(p0, p1 uint128.Uint128) (uint128.Uint128, uint128.Uint128) {
	if p0.Cmp(p1) > 0 {
		return p1, p0
	}
	return p0, p1
}

// AmountADelta is L * (1/lower - 1/upper) in token A base units.
func AmountADelta(sqrtPrice0, sqrtPrice1, liquidity uint128.Uint128, roundUp bool) (uint64, error) {
	lower, upper := ordered(sqrtPrice0, sqrtPrice1)
	num, err := fixedpoint.Mul(fixedpoint.Widen(liquidity), fixedpoint.Widen(upper.Sub(lower)))
	if err != nil {
		return 0, fmt.Errorf("amount a delta: %w", err)
	}
	if num, err = fixedpoint.Lsh(num, 64); err != nil {
		return 0, fmt.Errorf("amount a delta: %w", err)
	}
	den, err := fixedpoint.Mul(fixedpoint.Widen(upper), fixedpoint.Widen(lower))
	if err != nil {
		return 0, fmt.Errorf("amount a delta: %w", err)
	}
	q, err := fixedpoint.Div(num, den, roundUp)
	if err != nil {
		return 0, fmt.Errorf("amount a delta: %w", err)
	}
	amount, err := fixedpoint.Narrow64(q)
	if err != nil {
		return 0, fmt.Errorf("amount a delta: %w", err)
	}
	return amount, nil
}

// AmountBDelta is L * (upper - lower) in token B base units.
func AmountBDelta(sqrtPrice0, sqrtPrice1, liquidity uint128.Uint128, roundUp bool) (uint64, error) {
	lower, upper := ordered(sqrtPrice0, sqrtPrice1)
	diff := upper.Sub(lower)
	if liquidity.IsZero() || diff.IsZero() {
		return 0, nil
	}
	wide, err := fixedpoint.Mul(fixedpoint.Widen(liquidity), fixedpoint.Widen(diff))
	if err != nil {
		return 0, fmt.Errorf("amount b delta: %w", err)
	}
	product, err := fixedpoint.Narrow128(wide)
	if err != nil {
		return 0, fmt.Errorf("amount b delta: %w", err)
	}
	amount := product.Hi
	if roundUp && product.Lo != 0 {
		if amount == ^uint64(0) {
			return 0, fmt.Errorf("amount b delta round up: %w", model.ErrArithmeticOverflow)
		}
		amount++
	}
	return amount, nil
}

// NextSqrtPriceFromA moves the price by an amount of token A, rounding up.
// Adding A (input) lowers the price; removing A (output) raises it.
func NextSqrtPriceFromA(sqrtPrice, liquidity uint128.Uint128, amount uint64, isInput bool) (uint128.Uint128, error) {
	if amount == 0 {
		return sqrtPrice, nil
	}
	product := new(uint256.Int).Mul(fixedpoint.Widen(sqrtPrice), uint256.NewInt(amount))
	num, err := fixedpoint.Mul(fixedpoint.Widen(liquidity), fixedpoint.Widen(sqrtPrice))
	if err != nil {
		return uint128.Zero, fmt.Errorf("next sqrt price from a: %w", err)
	}
	if num, err = fixedpoint.Lsh(num, 64); err != nil {
		return uint128.Zero, fmt.Errorf("next sqrt price from a: %w", err)
	}
	shifted := new(uint256.Int).Lsh(fixedpoint.Widen(liquidity), 64)

	var den *uint256.Int
	if isInput {
		den, err = fixedpoint.Add(shifted, product)
	} else {
		if shifted.Cmp(product) <= 0 {
			return uint128.Zero, fmt.Errorf("next sqrt price from a: output exceeds reserves: %w", model.ErrArithmeticOverflow)
		}
		den, err = fixedpoint.Sub(shifted, product)
	}
	if err != nil {
		return uint128.Zero, fmt.Errorf("next sqrt price from a: %w", err)
	}
	q, err := fixedpoint.Div(num, den, true)
	if err != nil {
		return uint128.Zero, fmt.Errorf("next sqrt price from a: %w", err)
	}
	price, err := fixedpoint.Narrow128(q)
	if err != nil {
		return uint128.Zero, fmt.Errorf("next sqrt price from a: %w", err)
	}
	if price.Cmp(tickmath.MinSqrtPrice) < 0 || price.Cmp(tickmath.MaxSqrtPrice) > 0 {
		return uint128.Zero, fmt.Errorf("next sqrt price %s: %w", price, model.ErrDomain)
	}
	return price, nil
}

// NextSqrtPriceFromB moves the price by an amount of token B. Input rounds
// the delta down, output rounds it up.
func NextSqrtPriceFromB(sqrtPrice, liquidity uint128.Uint128, amount uint64, isInput bool) (uint128.Uint128, error) {
	shifted := new(uint256.Int).Lsh(uint256.NewInt(amount), 64)
	delta, err := fixedpoint.Div(shifted, fixedpoint.Widen(liquidity), !isInput)
	if err != nil {
		return uint128.Zero, fmt.Errorf("next sqrt price from b: %w", err)
	}
	var next *uint256.Int
	if isInput {
		next, err = fixedpoint.Add(fixedpoint.Widen(sqrtPrice), delta)
	} else {
		next, err = fixedpoint.Sub(fixedpoint.Widen(sqrtPrice), delta)
	}
	if err != nil {
		return uint128.Zero, fmt.Errorf("next sqrt price from b: %w", err)
	}
	price, err := fixedpoint.Narrow128(next)
	if err != nil {
		return uint128.Zero, fmt.Errorf("next sqrt price from b: %w", err)
	}
	return price, nil
}

// NextSqrtPrice picks the A or B formula from the swap mode.
func NextSqrtPrice(sqrtPrice, liquidity uint128.Uint128, amount uint64, isInput, aToB bool) (uint128.Uint128, error) {
	if isInput == aToB {
		return NextSqrtPriceFromA(sqrtPrice, liquidity, amount, isInput)
	}
	return NextSqrtPriceFromB(sqrtPrice, liquidity, amount, isInput)
}

// LiquidityFromTokenA is the liquidity that amount of A provides over
// [lower, upper], rounded down.
func LiquidityFromTokenA(amount uint64, sqrtPriceLower, sqrtPriceUpper uint128.Uint128) (uint128.Uint128, error) {
	lower, upper := ordered(sqrtPriceLower, sqrtPriceUpper)
	if lower == upper {
		return uint128.Zero, fmt.Errorf("liquidity from a: empty price range: %w", model.ErrInvalidRange)
	}
	num := new(uint256.Int).Mul(uint256.NewInt(amount), fixedpoint.Widen(lower))
	q, err := fixedpoint.MulDiv(num, fixedpoint.Widen(upper), fixedpoint.Widen(upper.Sub(lower)), false)
	if err != nil {
		return uint128.Zero, fmt.Errorf("liquidity from a: %w", err)
	}
	liquidity, err := fixedpoint.Narrow128(q.Rsh(q, 64))
	if err != nil {
		return uint128.Zero, fmt.Errorf("liquidity from a: %w", err)
	}
	return liquidity, nil
}

// LiquidityFromTokenB is the liquidity that amount of B provides over
// [lower, upper], rounded down.
func LiquidityFromTokenB(amount uint64, sqrtPriceLower, sqrtPriceUpper uint128.Uint128) (uint128.Uint128, error) {
	lower, upper := ordered(sqrtPriceLower, sqrtPriceUpper)
	if lower == upper {
		return uint128.Zero, fmt.Errorf("liquidity from b: empty price range: %w", model.ErrInvalidRange)
	}
	q, err := fixedpoint.Div(new(uint256.Int).Lsh(uint256.NewInt(amount), 64), fixedpoint.Widen(upper.Sub(lower)), false)
	if err != nil {
		return uint128.Zero, fmt.Errorf("liquidity from b: %w", err)
	}
	liquidity, err := fixedpoint.Narrow128(q)
	if err != nil {
		return uint128.Zero, fmt.Errorf("liquidity from b: %w", err)
	}
	return liquidity, nil
}

// MaxWithSlippage scales amount up by (1 + slippage), rounding up.
func MaxWithSlippage(amount uint64, slippage model.Percentage) (uint64, error) {
	if err := slippage.Validate(); err != nil {
		return 0, err
	}
	den := uint256.NewInt(slippage.Denominator)
	factor := new(uint256.Int).Add(den, uint256.NewInt(slippage.Numerator))
	q, err := fixedpoint.MulDiv(uint256.NewInt(amount), factor, den, true)
	if err != nil {
		return 0, fmt.Errorf("max with slippage: %w", err)
	}
	out, err := fixedpoint.Narrow64(q)
	if err != nil {
		return 0, fmt.Errorf("max with slippage: %w", err)
	}
	return out, nil
}

// MinWithSlippage scales amount down by (1 - slippage), rounding down.
func MinWithSlippage(amount uint64, slippage model.Percentage) (uint64, error) {
	if err := slippage.Validate(); err != nil {
		return 0, err
	}
	den := uint256.NewInt(slippage.Denominator)
	factor := uint256.NewInt(slippage.Denominator - slippage.Numerator)
	q, err := fixedpoint.MulDiv(uint256.NewInt(amount), factor, den, false)
	if err != nil {
		return 0, fmt.Errorf("min with slippage: %w", err)
	}
	return q.Uint64(), nil
}
