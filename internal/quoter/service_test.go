package quoter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/snapshot"
)

const (
	poolAddress     = "HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"
	positionAddress = "75NqraLLofiLUpNQg2wUPG6CJpxcaGEZUwuNrnAgvcTP"
	mintSOL         = "So11111111111111111111111111111111111111112"
	mintUSDC        = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

var (
	onePercent = model.Percentage{Numerator: 1, Denominator: 100}
	tenPercent = model.Percentage{Numerator: 1, Denominator: 10}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := snapshot.Load(filepath.Join("..", "snapshot", "testdata", "synthetic_pool.json"))
	require.NoError(t, err)
	return New(snapshot.NewMemory(s), nil)
}

func TestSwapByMint(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		mint      string
		isOutput  bool
		dir       model.Direction
		amountIn  uint64
		amountOut uint64
	}{
		{name: "sell a", mint: mintSOL, dir: model.AtoB, amountIn: 400_000, amountOut: 397_099},
		{name: "sell b", mint: mintUSDC, dir: model.BtoA, amountIn: 400_000, amountOut: 396_340},
		{name: "buy b", mint: mintUSDC, isOutput: true, dir: model.AtoB, amountIn: 402_938, amountOut: 400_000},
		{name: "buy a", mint: mintSOL, isOutput: true, dir: model.BtoA, amountIn: 403_712, amountOut: 400_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := svc.Swap(ctx, SwapRequest{Pool: poolAddress, Mint: tc.mint, Amount: 400_000, IsOutput: tc.isOutput, Slippage: tenPercent})
			require.NoError(t, err)
			assert.Equal(t, tc.dir, quote.Direction)
			assert.Equal(t, tc.amountIn, quote.AmountIn)
			assert.Equal(t, tc.amountOut, quote.AmountOut)
		})
	}
}

func TestSwapMultiCrossing(t *testing.T) {
	svc := newTestService(t)
	quote, err := svc.Swap(context.Background(), SwapRequest{
		Pool:     poolAddress,
		Mint:     mintUSDC,
		Amount:   7_051_000,
		Slippage: model.Percentage{Numerator: 25, Denominator: 1000},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(705_434), quote.AmountIn)
	assert.Equal(t, uint64(695_596), quote.AmountOut)
	assert.Equal(t, 2, quote.TicksCrossed)
	assert.True(t, quote.SqrtPriceLimitReached)
}

func TestSwapErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Swap(ctx, SwapRequest{Pool: poolAddress, Mint: "unknown", Amount: 1, Slippage: onePercent})
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.Swap(ctx, SwapRequest{Pool: "missing", Mint: mintSOL, Amount: 1, Slippage: onePercent})
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.Swap(ctx, SwapRequest{Pool: poolAddress, Mint: mintSOL, Amount: 1 << 40, Slippage: model.Percentage{Numerator: 1, Denominator: 1}})
	require.ErrorIs(t, err, model.ErrInsufficientLiquidity)
}

func TestAddLiquidity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	quote, err := svc.AddLiquidity(ctx, AddLiquidityRequest{Pool: poolAddress, TickLowerIndex: 64, TickUpperIndex: 1280, Mint: mintSOL, Amount: 1_000_000, Slippage: onePercent})
	require.NoError(t, err)
	assert.Equal(t, model.BelowRange, quote.Status)
	assert.Equal(t, uint128.From64(17_007_591), quote.Liquidity)
	assert.Equal(t, uint64(1_010_000), quote.MaxTokenA)
	assert.Zero(t, quote.TokenB)

	quote, err = svc.AddLiquidity(ctx, AddLiquidityRequest{Position: positionAddress, Mint: mintUSDC, Amount: 2_000_000, Slippage: onePercent})
	require.NoError(t, err)
	assert.Equal(t, int32(-640), quote.TickLowerIndex)
	assert.Equal(t, uint128.From64(62_483_123), quote.Liquidity)
	assert.Equal(t, uint64(1_935_438), quote.TokenA)
	assert.Equal(t, uint64(1_954_793), quote.MaxTokenA)
	assert.Equal(t, uint64(2_020_000), quote.MaxTokenB)

	_, err = svc.AddLiquidity(ctx, AddLiquidityRequest{Pool: poolAddress, TickLowerIndex: 64, TickUpperIndex: 1280, Mint: mintUSDC, Amount: 1, Slippage: onePercent})
	require.ErrorIs(t, err, model.ErrZeroSideRange)
}

func TestOpenPosition(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	quote, err := svc.OpenPosition(ctx, OpenPositionRequest{
		Pool:       poolAddress,
		PriceLower: decimal.RequireFromString("990"),
		PriceUpper: decimal.RequireFromString("1010"),
		Mint:       mintSOL,
		Amount:     1_000_000,
		Slippage:   onePercent,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AddLiquidityQuote{
		Status: model.InRange, TickLowerIndex: -128, TickUpperIndex: 128,
		Liquidity: uint128.From64(170568768),
		TokenA:    1_000_000, TokenB: 1_176_246,
		MaxTokenA: 1_010_000, MaxTokenB: 1_188_009,
	}, quote)

	_, err = svc.OpenPosition(ctx, OpenPositionRequest{
		Pool:       poolAddress,
		PriceLower: decimal.RequireFromString("1000"),
		PriceUpper: decimal.RequireFromString("1000.5"),
		Mint:       mintSOL,
		Amount:     1,
		Slippage:   onePercent,
	})
	require.ErrorIs(t, err, model.ErrInvalidRange)

	_, err = svc.OpenPosition(ctx, OpenPositionRequest{
		Pool:       poolAddress,
		PriceLower: decimal.RequireFromString("1010"),
		PriceUpper: decimal.RequireFromString("990"),
		Mint:       mintSOL,
		Amount:     1,
		Slippage:   onePercent,
	})
	require.ErrorIs(t, err, model.ErrInvalidRange)
}

func TestRemoveAndClosePosition(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	closed, err := svc.ClosePosition(ctx, positionAddress, onePercent)
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(20_000_000), closed.Liquidity)
	assert.Equal(t, uint64(619_507), closed.TokenA)
	assert.Equal(t, uint64(640_172), closed.TokenB)
	assert.Equal(t, uint64(613_311), closed.MinTokenA)
	assert.Equal(t, uint64(633_770), closed.MinTokenB)

	partial, err := svc.RemoveLiquidity(ctx, RemoveLiquidityRequest{Position: positionAddress, Liquidity: uint128.From64(5_000_000), Slippage: model.Percentage{Numerator: 5, Denominator: 1000}})
	require.NoError(t, err)
	assert.Equal(t, uint64(154_876), partial.TokenA)
	assert.Equal(t, uint64(160_043), partial.TokenB)
	assert.Equal(t, uint64(154_101), partial.MinTokenA)
	assert.Equal(t, uint64(159_242), partial.MinTokenB)

	_, err = svc.RemoveLiquidity(ctx, RemoveLiquidityRequest{Position: positionAddress, Liquidity: uint128.From64(20_000_001), Slippage: onePercent})
	require.ErrorIs(t, err, model.ErrExceedsPositionLiquidity)

	bare, err := svc.RemoveLiquidity(ctx, RemoveLiquidityRequest{Pool: poolAddress, TickLowerIndex: -640, TickUpperIndex: 640, Liquidity: uint128.From64(20_000_000), Slippage: onePercent})
	require.NoError(t, err)
	assert.Equal(t, closed, bare)

	_, err = svc.ClosePosition(ctx, "missing", onePercent)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestPoolSummary(t *testing.T) {
	svc := newTestService(t)
	summary, err := svc.PoolSummary(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, poolAddress, summary.Address)
	assert.Equal(t, "1001.033816", summary.Price.StringFixed(6))
	assert.Equal(t, "0.003", summary.FeeRate.String())
	assert.Equal(t, "0.03", summary.ProtocolFeeRate.String())
	assert.Equal(t, "1.5", summary.VaultAmountA.String())
	assert.Equal(t, "3", summary.VaultAmountB.String())
	assert.Equal(t, "75000000", summary.Liquidity)
}
