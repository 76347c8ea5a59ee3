// Package swap simulates the on-chain swap loop against a pool snapshot.
package swap

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/fixedpoint"
	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/tickmath"
)

// Lookups are the snapshot accessors a simulation may block on.
// tickarray.Traverser implements it.
type Lookups interface {
	FetchTickArray(ctx context.Context, tickIndex int32) (*model.TickArray, error)
	FetchTick(ctx context.Context, tickIndex int32) (*model.Tick, error)
	PrevInitializedTickIndex(ctx context.Context, from int32) (int32, error)
	NextInitializedTickIndex(ctx context.Context, from int32) (int32, error)
}

// Params is the starting state of a simulation.
type Params struct {
	Direction            model.Direction
	AmountSpecified      model.AmountSpecified
	Amount               uint64
	Slippage             model.Percentage
	FeeRate              uint16
	ProtocolFeeRate      uint16
	SqrtPrice            uint128.Uint128
	Liquidity            uint128.Uint128
	TickCurrentIndex     int32
	FeeGrowthGlobalInput uint128.Uint128
}

// ParamsFromPool fills the pool-derived fields of Params.
func ParamsFromPool(pool model.Pool, dir model.Direction, specified model.AmountSpecified, amount uint64, slippage model.Percentage) Params {
	growth := pool.FeeGrowthGlobalA
	if dir == model.BtoA {
		growth = pool.FeeGrowthGlobalB
	}
	return Params{
		Direction:            dir,
		AmountSpecified:      specified,
		Amount:               amount,
		Slippage:             slippage,
		FeeRate:              pool.FeeRate,
		ProtocolFeeRate:      pool.ProtocolFeeRate,
		SqrtPrice:            pool.SqrtPrice,
		Liquidity:            pool.Liquidity,
		TickCurrentIndex:     pool.TickCurrentIndex,
		FeeGrowthGlobalInput: growth,
	}
}

// SqrtPriceLimit shifts sqrtPrice against the trader by slippage in price
// terms: sqrt(P^2 * (1 -/+ slippage)), clamped to protocol bounds.
func SqrtPriceLimit(sqrtPrice uint128.Uint128, slippage model.Percentage, dir model.Direction) (uint128.Uint128, error) {
	if err := slippage.Validate(); err != nil {
		return uint128.Zero, err
	}
	wide := fixedpoint.Widen(sqrtPrice)
	squared, err := fixedpoint.Mul(wide, wide)
	if err != nil {
		return uint128.Zero, fmt.Errorf("sqrt price limit: %w", err)
	}
	den := uint256.NewInt(slippage.Denominator)
	factor := new(uint256.Int).Sub(den, uint256.NewInt(slippage.Numerator))
	if dir == model.BtoA {
		factor.Add(den, uint256.NewInt(slippage.Numerator))
	}
	scaled, err := fixedpoint.MulDiv(squared, factor, den, false)
	if err != nil {
		return uint128.Zero, fmt.Errorf("sqrt price limit: %w", err)
	}
	root := new(uint256.Int).Sqrt(scaled)
	if root.Cmp(fixedpoint.Widen(tickmath.MaxSqrtPrice)) > 0 {
		return tickmath.MaxSqrtPrice, nil
	}
	limit, err := fixedpoint.Narrow128(root)
	if err != nil {
		return uint128.Zero, fmt.Errorf("sqrt price limit: %w", err)
	}
	if limit.Cmp(tickmath.MinSqrtPrice) < 0 {
		return tickmath.MinSqrtPrice, nil
	}
	return limit, nil
}

// Simulate runs the swap loop until the amount is consumed or the price
// limit is reached. Cancelling ctx stops it between steps.
func Simulate(ctx context.Context, p Params, lookups Lookups) (model.SwapQuote, error) {
	aToB := p.Direction == model.AtoB
	isInput := p.AmountSpecified == model.Input

	if uint32(p.FeeRate) >= model.FeeRateDenominator || p.ProtocolFeeRate > model.ProtocolFeeRateDenominator {
		return model.SwapQuote{}, fmt.Errorf("fee rate %d / protocol fee rate %d out of range", p.FeeRate, p.ProtocolFeeRate)
	}
	limit, err := SqrtPriceLimit(p.SqrtPrice, p.Slippage, p.Direction)
	if err != nil {
		return model.SwapQuote{}, err
	}

	quote := model.SwapQuote{
		Direction:               p.Direction,
		AmountSpecifiedIsOutput: !isInput,
		SqrtPriceLimit:          limit,
		FeeGrowthGlobalInput:    p.FeeGrowthGlobalInput,
		EndSqrtPrice:            p.SqrtPrice,
		EndTickIndex:            p.TickCurrentIndex,
		EndLiquidity:            p.Liquidity,
	}
	if p.Amount == 0 {
		return quote, nil
	}

	if _, err := lookups.FetchTickArray(ctx, p.TickCurrentIndex); err != nil {
		return model.SwapQuote{}, lookupErr("fetch_tick_array", p.TickCurrentIndex, err)
	}

	var (
		remaining  = p.Amount
		calculated uint64
		price      = p.SqrtPrice
		liquidity  = p.Liquidity
		tick       = p.TickCurrentIndex
		growth     = p.FeeGrowthGlobalInput
	)

	for remaining > 0 && price != limit {
		if err := ctx.Err(); err != nil {
			return model.SwapQuote{}, err
		}

		var next int32
		if aToB {
			next, err = lookups.PrevInitializedTickIndex(ctx, tick+1)
		} else {
			next, err = lookups.NextInitializedTickIndex(ctx, tick)
		}
		if err != nil {
			return model.SwapQuote{}, lookupErr("find_initialized_tick", tick, err)
		}
		nextPrice, err := tickmath.SqrtPriceAtTick(next)
		if err != nil {
			return model.SwapQuote{}, err
		}

		target := nextPrice
		if (aToB && limit.Cmp(nextPrice) > 0) || (!aToB && limit.Cmp(nextPrice) < 0) {
			target = limit
		}

		step, err := computeSwapStep(remaining, p.FeeRate, liquidity, price, target, isInput, aToB)
		if err != nil {
			return model.SwapQuote{}, fmt.Errorf("swap step at tick %d: %w", tick, err)
		}

		var consumed, produced uint64
		if isInput {
			consumed, produced = step.amountIn, step.amountOut
			if consumed, err = addU64(consumed, step.feeAmount); err != nil {
				return model.SwapQuote{}, err
			}
		} else {
			consumed = step.amountOut
			if produced, err = addU64(step.amountIn, step.feeAmount); err != nil {
				return model.SwapQuote{}, err
			}
		}
		if consumed > remaining {
			return model.SwapQuote{}, fmt.Errorf("step consumed %d of %d remaining: %w", consumed, remaining, model.ErrArithmeticOverflow)
		}
		remaining -= consumed
		if calculated, err = addU64(calculated, produced); err != nil {
			return model.SwapQuote{}, err
		}

		protocolFee := uint128.From64(step.feeAmount).Mul64(uint64(p.ProtocolFeeRate)).Div64(model.ProtocolFeeRateDenominator).Lo
		quote.FeeAmount += step.feeAmount
		quote.ProtocolFee += protocolFee
		if !liquidity.IsZero() {
			lpFee := uint128.From64(step.feeAmount - protocolFee).Lsh(64)
			growth = growth.AddWrap(lpFee.Div(liquidity))
		}

		if step.nextPrice == nextPrice {
			crossed, err := lookups.FetchTick(ctx, next)
			if err != nil {
				return model.SwapQuote{}, lookupErr("fetch_tick", next, err)
			}
			net := crossed.LiquidityNet
			if aToB {
				if net, err = net.Negate(); err != nil {
					return model.SwapQuote{}, err
				}
			}
			if liquidity, err = model.ApplyLiquidityDelta(liquidity, net); err != nil {
				return model.SwapQuote{}, fmt.Errorf("cross tick %d: %w", next, err)
			}
			if aToB {
				tick = next - 1
			} else {
				tick = next
			}
			quote.TicksCrossed++
		} else if step.nextPrice != price {
			if tick, err = tickmath.TickAtSqrtPrice(step.nextPrice); err != nil {
				return model.SwapQuote{}, err
			}
		}
		price = step.nextPrice
	}

	amountA, amountB := p.Amount-remaining, calculated
	if aToB != isInput {
		amountA, amountB = calculated, p.Amount-remaining
	}
	if aToB {
		quote.AmountIn, quote.AmountOut = amountA, amountB
	} else {
		quote.AmountIn, quote.AmountOut = amountB, amountA
	}
	// A non-zero request must move tokens both ways; a pinned limit or an
	// input eaten by the fee cannot settle.
	if quote.AmountIn == 0 || quote.AmountOut == 0 {
		return model.SwapQuote{}, fmt.Errorf("swap of %d settles %d in, %d out: %w", p.Amount, quote.AmountIn, quote.AmountOut, model.ErrInsufficientLiquidity)
	}
	quote.SqrtPriceLimitReached = price == limit
	quote.EndSqrtPrice = price
	quote.EndTickIndex = tick
	quote.EndLiquidity = liquidity
	quote.FeeGrowthGlobalInput = growth
	return quote, nil
}

func addU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, fmt.Errorf("add %d + %d: %w", a, b, model.ErrArithmeticOverflow)
	}
	return sum, nil
}

// lookupErr keeps ErrInsufficientLiquidity and context errors visible and
// wraps anything else as a lookup failure.
func lookupErr(op string, tick int32, err error) error {
	if errors.Is(err, model.ErrInsufficientLiquidity) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &model.LookupError{Op: op, TickIndex: tick, Err: err}
}
