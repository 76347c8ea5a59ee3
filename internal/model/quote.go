package model

import (
	"lukechampine.com/uint128"
)

// Token selects one side of a pool.
type Token int

const (
	TokenA Token = iota
	TokenB
)

func (t Token) String() string {
	if t == TokenA {
		return "A"
	}
	return "B"
}

// Direction is the swap direction; AtoB moves the price down.
type Direction int

const (
	AtoB Direction = iota
	BtoA
)

func (d Direction) String() string {
	if d == AtoB {
		return "a_to_b"
	}
	return "b_to_a"
}

// AmountSpecified tells whether the swap amount is the input or the output.
type AmountSpecified int

const (
	Input AmountSpecified = iota
	Output
)

// SwapDirectionFor maps the token a trader names to a swap direction:
// spending A or receiving B sells A into the pool.
func SwapDirectionFor(token Token, specified AmountSpecified) Direction {
	if (token == TokenA) == (specified == Input) {
		return AtoB
	}
	return BtoA
}

// AddLiquidityQuote has the same shape for every position status.
type AddLiquidityQuote struct {
	Status         PositionStatus
	TickLowerIndex int32
	TickUpperIndex int32
	Liquidity      uint128.Uint128
	TokenA         uint64
	TokenB         uint64
	MaxTokenA      uint64
	MaxTokenB      uint64
}

// RemoveLiquidityQuote has the same shape for every position status.
type RemoveLiquidityQuote struct {
	Status         PositionStatus
	TickLowerIndex int32
	TickUpperIndex int32
	Liquidity      uint128.Uint128
	TokenA         uint64
	TokenB         uint64
	MinTokenA      uint64
	MinTokenB      uint64
}

// SwapQuote is the simulated outcome of a swap.
type SwapQuote struct {
	Direction               Direction
	AmountSpecifiedIsOutput bool
	AmountIn                uint64
	AmountOut               uint64
	SqrtPriceLimit          uint128.Uint128
	SqrtPriceLimitReached   bool
	FeeAmount               uint64
	ProtocolFee             uint64
	FeeGrowthGlobalInput    uint128.Uint128
	EndSqrtPrice            uint128.Uint128
	EndTickIndex            int32
	EndLiquidity            uint128.Uint128
	TicksCrossed            int
}
