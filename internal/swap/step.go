package swap

import (
	"errors"
	"fmt"

	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/tokenmath"
)

type stepResult struct {
	amountIn  uint64
	amountOut uint64
	nextPrice uint128.Uint128
	feeAmount uint64
}

// computeSwapStep moves the price from current toward target at constant
// liquidity, consuming at most remaining of the specified token.
func computeSwapStep(remaining uint64, feeRate uint16, liquidity, current, target uint128.Uint128, isInput, aToB bool) (stepResult, error) {
	fixed, err := fixedDelta(current, target, liquidity, isInput, aToB)
	exceeds := false
	if err != nil {
		if !errors.Is(err, model.ErrArithmeticOverflow) {
			return stepResult{}, err
		}
		// The whole segment needs more than a u64 can hold, so the step
		// always ends inside it.
		exceeds = true
	}

	calculated := remaining
	if isInput {
		calculated = uint128.From64(remaining).Mul64(model.FeeRateDenominator - uint64(feeRate)).Div64(model.FeeRateDenominator).Lo
	}

	next := target
	if exceeds || calculated < fixed {
		if next, err = tokenmath.NextSqrtPrice(current, liquidity, calculated, isInput, aToB); err != nil {
			return stepResult{}, err
		}
	}
	isMax := next == target

	unfixed, err := unfixedDelta(current, next, liquidity, isInput, aToB)
	if err != nil {
		return stepResult{}, err
	}
	if !isMax || exceeds {
		if fixed, err = fixedDelta(current, next, liquidity, isInput, aToB); err != nil {
			return stepResult{}, err
		}
	}

	step := stepResult{nextPrice: next, amountIn: fixed, amountOut: unfixed}
	if !isInput {
		step.amountIn, step.amountOut = unfixed, fixed
		if step.amountOut > remaining {
			step.amountOut = remaining
		}
	}

	if isInput && !isMax {
		step.feeAmount = remaining - step.amountIn
		return step, nil
	}
	fee, err := feeOnTop(step.amountIn, feeRate)
	if err != nil {
		return stepResult{}, err
	}
	step.feeAmount = fee
	return step, nil
}

// feeOnTop is ceil(amount * rate / (1e6 - rate)).
func feeOnTop(amount uint64, feeRate uint16) (uint64, error) {
	den := uint64(model.FeeRateDenominator - uint32(feeRate))
	q, r := uint128.From64(amount).Mul64(uint64(feeRate)).QuoRem64(den)
	if r != 0 {
		q = q.Add64(1)
	}
	if q.Hi != 0 {
		return 0, fmt.Errorf("fee amount: %w", model.ErrArithmeticOverflow)
	}
	return q.Lo, nil
}

// fixedDelta is the amount of the specified token for the segment.
func fixedDelta(current, target, liquidity uint128.Uint128, isInput, aToB bool) (uint64, error) {
	if aToB == isInput {
		return tokenmath.AmountADelta(current, target, liquidity, isInput)
	}
	return tokenmath.AmountBDelta(current, target, liquidity, isInput)
}

// unfixedDelta is the amount of the other token, rounded against the trader.
func unfixedDelta(current, target, liquidity uint128.Uint128, isInput, aToB bool) (uint64, error) {
	if aToB == isInput {
		return tokenmath.AmountBDelta(current, target, liquidity, !isInput)
	}
	return tokenmath.AmountADelta(current, target, liquidity, !isInput)
}
