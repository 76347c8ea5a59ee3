// Package liquidity quotes adding and removing liquidity on a tick range.
package liquidity

import (
	"fmt"

	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/tickmath"
	"whirlpoolQuote/internal/tokenmath"
)

// AddParams sizes a deposit by one token.
type AddParams struct {
	TickLowerIndex int32
	TickUpperIndex int32
	Token          model.Token
	Amount         uint64
	Slippage       model.Percentage
}

// RemoveParams withdraws liquidity from a range.
type RemoveParams struct {
	TickLowerIndex int32
	TickUpperIndex int32
	Liquidity      uint128.Uint128
	Slippage       model.Percentage
}

type rangeState struct {
	status    model.PositionStatus
	sqrtLower uint128.Uint128
	sqrtUpper uint128.Uint128
}

func resolveRange(pool model.Pool, lower, upper int32) (rangeState, error) {
	status, err := model.ClassifyRange(pool.TickCurrentIndex, lower, upper)
	if err != nil {
		return rangeState{}, err
	}
	spacing := int32(pool.TickSpacing)
	if spacing <= 0 || lower%spacing != 0 || upper%spacing != 0 {
		return rangeState{}, fmt.Errorf("range [%d, %d) not aligned to spacing %d: %w", lower, upper, spacing, model.ErrInvalidRange)
	}
	sqrtLower, err := tickmath.SqrtPriceAtTick(lower)
	if err != nil {
		return rangeState{}, fmt.Errorf("lower tick: %w", err)
	}
	sqrtUpper, err := tickmath.SqrtPriceAtTick(upper)
	if err != nil {
		return rangeState{}, fmt.Errorf("upper tick: %w", err)
	}
	return rangeState{status: status, sqrtLower: sqrtLower, sqrtUpper: sqrtUpper}, nil
}

// QuoteAdd returns the liquidity a deposit of p.Amount buys and the exact and
// slippage-bounded amounts of both tokens it requires.
func QuoteAdd(pool model.Pool, p AddParams) (model.AddLiquidityQuote, error) {
	if err := p.Slippage.Validate(); err != nil {
		return model.AddLiquidityQuote{}, err
	}
	r, err := resolveRange(pool, p.TickLowerIndex, p.TickUpperIndex)
	if err != nil {
		return model.AddLiquidityQuote{}, err
	}

	quote := model.AddLiquidityQuote{
		Status:         r.status,
		TickLowerIndex: p.TickLowerIndex,
		TickUpperIndex: p.TickUpperIndex,
	}

	switch r.status {
	case model.BelowRange:
		if p.Token != model.TokenA {
			return model.AddLiquidityQuote{}, zeroSided(p.Token, r.status)
		}
		if quote.Liquidity, err = tokenmath.LiquidityFromTokenA(p.Amount, r.sqrtLower, r.sqrtUpper); err != nil {
			return model.AddLiquidityQuote{}, err
		}
	case model.AboveRange:
		if p.Token != model.TokenB {
			return model.AddLiquidityQuote{}, zeroSided(p.Token, r.status)
		}
		if quote.Liquidity, err = tokenmath.LiquidityFromTokenB(p.Amount, r.sqrtLower, r.sqrtUpper); err != nil {
			return model.AddLiquidityQuote{}, err
		}
	default:
		if p.Token == model.TokenA {
			quote.Liquidity, err = tokenmath.LiquidityFromTokenA(p.Amount, pool.SqrtPrice, r.sqrtUpper)
		} else {
			// The price sits on the lower bound: the range holds no B yet.
			if pool.SqrtPrice == r.sqrtLower {
				return model.AddLiquidityQuote{}, zeroSided(p.Token, r.status)
			}
			quote.Liquidity, err = tokenmath.LiquidityFromTokenB(p.Amount, r.sqrtLower, pool.SqrtPrice)
		}
		if err != nil {
			return model.AddLiquidityQuote{}, err
		}
	}

	if quote.TokenA, quote.TokenB, err = tokenAmounts(pool, r, quote.Liquidity, true); err != nil {
		return model.AddLiquidityQuote{}, err
	}
	if quote.MaxTokenA, err = tokenmath.MaxWithSlippage(quote.TokenA, p.Slippage); err != nil {
		return model.AddLiquidityQuote{}, err
	}
	if quote.MaxTokenB, err = tokenmath.MaxWithSlippage(quote.TokenB, p.Slippage); err != nil {
		return model.AddLiquidityQuote{}, err
	}
	return quote, nil
}

// QuoteRemove returns the exact and minimum token amounts for withdrawing
// p.Liquidity from the range.
func QuoteRemove(pool model.Pool, p RemoveParams) (model.RemoveLiquidityQuote, error) {
	if err := p.Slippage.Validate(); err != nil {
		return model.RemoveLiquidityQuote{}, err
	}
	r, err := resolveRange(pool, p.TickLowerIndex, p.TickUpperIndex)
	if err != nil {
		return model.RemoveLiquidityQuote{}, err
	}

	quote := model.RemoveLiquidityQuote{
		Status:         r.status,
		TickLowerIndex: p.TickLowerIndex,
		TickUpperIndex: p.TickUpperIndex,
		Liquidity:      p.Liquidity,
	}
	if quote.TokenA, quote.TokenB, err = tokenAmounts(pool, r, p.Liquidity, false); err != nil {
		return model.RemoveLiquidityQuote{}, err
	}
	if quote.MinTokenA, err = tokenmath.MinWithSlippage(quote.TokenA, p.Slippage); err != nil {
		return model.RemoveLiquidityQuote{}, err
	}
	if quote.MinTokenB, err = tokenmath.MinWithSlippage(quote.TokenB, p.Slippage); err != nil {
		return model.RemoveLiquidityQuote{}, err
	}
	return quote, nil
}

// QuoteRemovePosition withdraws liquidity from an existing position.
func QuoteRemovePosition(pool model.Pool, position model.Position, liquidity uint128.Uint128, slippage model.Percentage) (model.RemoveLiquidityQuote, error) {
	if position.Whirlpool != "" && pool.Address != "" && position.Whirlpool != pool.Address {
		return model.RemoveLiquidityQuote{}, fmt.Errorf("position %s belongs to pool %s, not %s: %w", position.Address, position.Whirlpool, pool.Address, model.ErrInconsistentSnapshot)
	}
	if liquidity.Cmp(position.Liquidity) > 0 {
		return model.RemoveLiquidityQuote{}, fmt.Errorf("remove %s from position holding %s: %w", liquidity, position.Liquidity, model.ErrExceedsPositionLiquidity)
	}
	return QuoteRemove(pool, RemoveParams{
		TickLowerIndex: position.TickLowerIndex,
		TickUpperIndex: position.TickUpperIndex,
		Liquidity:      liquidity,
		Slippage:       slippage,
	})
}

// tokenAmounts rounds up for deposits and down for withdrawals.
func tokenAmounts(pool model.Pool, r rangeState, liquidity uint128.Uint128, roundUp bool) (uint64, uint64, error) {
	var (
		amountA, amountB uint64
		err              error
	)
	switch r.status {
	case model.BelowRange:
		amountA, err = tokenmath.AmountADelta(r.sqrtLower, r.sqrtUpper, liquidity, roundUp)
	case model.AboveRange:
		amountB, err = tokenmath.AmountBDelta(r.sqrtLower, r.sqrtUpper, liquidity, roundUp)
	default:
		if amountA, err = tokenmath.AmountADelta(pool.SqrtPrice, r.sqrtUpper, liquidity, roundUp); err != nil {
			return 0, 0, err
		}
		amountB, err = tokenmath.AmountBDelta(r.sqrtLower, pool.SqrtPrice, liquidity, roundUp)
	}
	if err != nil {
		return 0, 0, err
	}
	return amountA, amountB, nil
}

func zeroSided(token model.Token, status model.PositionStatus) error {
	return fmt.Errorf("token %s for %s range: %w", token, status, model.ErrZeroSideRange)
}
