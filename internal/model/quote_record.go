package model

import (
	"strconv"
	"time"
)

// QuoteRequest is one line of a batch request file.
type QuoteRequest struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Pool       string `json:"pool,omitempty"`
	Position   string `json:"position,omitempty"`
	Mint       string `json:"mint,omitempty"`
	Amount     string `json:"amount,omitempty"`
	IsOutput   bool   `json:"is_output,omitempty"`
	TickLower  *int32 `json:"tick_lower,omitempty"`
	TickUpper  *int32 `json:"tick_upper,omitempty"`
	PriceLower string `json:"price_lower,omitempty"`
	PriceUpper string `json:"price_upper,omitempty"`
	Liquidity  string `json:"liquidity,omitempty"`
	Slippage   string `json:"slippage"`
}

// Quote kinds.
const (
	KindSwap            = "swap"
	KindAddLiquidity    = "add_liquidity"
	KindRemoveLiquidity = "remove_liquidity"
	KindOpenPosition    = "open_position"
	KindClosePosition   = "close_position"
)

// QuoteRecord is the flat, storage-friendly form of any quote.
type QuoteRecord struct {
	RequestID string    `json:"request_id,omitempty"`
	Kind      string    `json:"kind"`
	Pool      string    `json:"pool,omitempty"`
	Position  string    `json:"position,omitempty"`
	Slippage  string    `json:"slippage,omitempty"`
	QuotedAt  time.Time `json:"quoted_at"`
	Error     string    `json:"error,omitempty"`

	Direction               string `json:"direction,omitempty"`
	AmountSpecifiedIsOutput bool   `json:"amount_specified_is_output,omitempty"`
	AmountIn                string `json:"amount_in,omitempty"`
	AmountOut               string `json:"amount_out,omitempty"`
	SqrtPriceLimit          string `json:"sqrt_price_limit,omitempty"`
	SqrtPriceLimitReached   bool   `json:"sqrt_price_limit_reached,omitempty"`
	FeeAmount               string `json:"fee_amount,omitempty"`
	ProtocolFee             string `json:"protocol_fee,omitempty"`
	EndSqrtPrice            string `json:"end_sqrt_price,omitempty"`
	EndTickIndex            *int32 `json:"end_tick_index,omitempty"`
	TicksCrossed            int    `json:"ticks_crossed,omitempty"`

	Status         string `json:"status,omitempty"`
	TickLowerIndex *int32 `json:"tick_lower_index,omitempty"`
	TickUpperIndex *int32 `json:"tick_upper_index,omitempty"`
	Liquidity      string `json:"liquidity,omitempty"`
	TokenA         string `json:"token_a,omitempty"`
	TokenB         string `json:"token_b,omitempty"`
	MaxTokenA      string `json:"max_token_a,omitempty"`
	MaxTokenB      string `json:"max_token_b,omitempty"`
	MinTokenA      string `json:"min_token_a,omitempty"`
	MinTokenB      string `json:"min_token_b,omitempty"`
}

// Record flattens a swap quote.
func (q SwapQuote) Record() QuoteRecord {
	end := q.EndTickIndex
	return QuoteRecord{
		Kind:                    KindSwap,
		Direction:               q.Direction.String(),
		AmountSpecifiedIsOutput: q.AmountSpecifiedIsOutput,
		AmountIn:                formatUint(q.AmountIn),
		AmountOut:               formatUint(q.AmountOut),
		SqrtPriceLimit:          q.SqrtPriceLimit.String(),
		SqrtPriceLimitReached:   q.SqrtPriceLimitReached,
		FeeAmount:               formatUint(q.FeeAmount),
		ProtocolFee:             formatUint(q.ProtocolFee),
		EndSqrtPrice:            q.EndSqrtPrice.String(),
		EndTickIndex:            &end,
		TicksCrossed:            q.TicksCrossed,
	}
}

// Record flattens an add-liquidity quote.
func (q AddLiquidityQuote) Record() QuoteRecord {
	lower, upper := q.TickLowerIndex, q.TickUpperIndex
	return QuoteRecord{
		Kind:           KindAddLiquidity,
		Status:         q.Status.String(),
		TickLowerIndex: &lower,
		TickUpperIndex: &upper,
		Liquidity:      q.Liquidity.String(),
		TokenA:         formatUint(q.TokenA),
		TokenB:         formatUint(q.TokenB),
		MaxTokenA:      formatUint(q.MaxTokenA),
		MaxTokenB:      formatUint(q.MaxTokenB),
	}
}

// Record flattens a remove-liquidity quote.
func (q RemoveLiquidityQuote) Record() QuoteRecord {
	lower, upper := q.TickLowerIndex, q.TickUpperIndex
	return QuoteRecord{
		Kind:           KindRemoveLiquidity,
		Status:         q.Status.String(),
		TickLowerIndex: &lower,
		TickUpperIndex: &upper,
		Liquidity:      q.Liquidity.String(),
		TokenA:         formatUint(q.TokenA),
		TokenB:         formatUint(q.TokenB),
		MinTokenA:      formatUint(q.MinTokenA),
		MinTokenB:      formatUint(q.MinTokenB),
	}
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
