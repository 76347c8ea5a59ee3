package liquidity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

var (
	onePercent = model.Percentage{Numerator: 1, Denominator: 100}
	noSlippage = model.Percentage{Numerator: 0, Denominator: 1}
	testPool   = model.Pool{
		Address:          "pool",
		TickSpacing:      64,
		FeeRate:          3000,
		ProtocolFeeRate:  300,
		Liquidity:        uint128.From64(75_000_000),
		SqrtPrice:        uint128.New(9532808694312836, 1), // 18456276882403864452
		TickCurrentIndex: 10,
	}
)

func TestQuoteAddInRange(t *testing.T) {
	cases := []struct {
		name   string
		token  model.Token
		amount uint64
		want   model.AddLiquidityQuote
	}{
		{
			name: "token a", token: model.TokenA, amount: 1_000_000,
			want: model.AddLiquidityQuote{
				Status: model.InRange, TickLowerIndex: -128, TickUpperIndex: 128,
				Liquidity: uint128.From64(170568768),
				TokenA:    1_000_000, TokenB: 1_176_246,
				MaxTokenA: 1_010_000, MaxTokenB: 1_188_009,
			},
		},
		{
			name: "token b", token: model.TokenB, amount: 1_000_000,
			want: model.AddLiquidityQuote{
				Status: model.InRange, TickLowerIndex: -128, TickUpperIndex: 128,
				Liquidity: uint128.From64(145011174),
				TokenA:    850_163, TokenB: 1_000_000,
				MaxTokenA: 858_665, MaxTokenB: 1_010_000,
			},
		},
	}
	for _, tc := range cases {
		got, err := QuoteAdd(testPool, AddParams{
			TickLowerIndex: -128, TickUpperIndex: 128,
			Token: tc.token, Amount: tc.amount, Slippage: onePercent,
		})
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestQuoteAddSingleSided(t *testing.T) {
	below, err := QuoteAdd(testPool, AddParams{
		TickLowerIndex: 64, TickUpperIndex: 1280,
		Token: model.TokenA, Amount: 1_000_000, Slippage: onePercent,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BelowRange, below.Status)
	assert.Equal(t, uint128.From64(17007591), below.Liquidity)
	assert.Equal(t, uint64(1_000_000), below.TokenA)
	assert.Equal(t, uint64(1_010_000), below.MaxTokenA)
	assert.Zero(t, below.TokenB)
	assert.Zero(t, below.MaxTokenB)

	above, err := QuoteAdd(testPool, AddParams{
		TickLowerIndex: -1280, TickUpperIndex: -640,
		Token: model.TokenB, Amount: 2_000_000, Slippage: onePercent,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AboveRange, above.Status)
	assert.Equal(t, uint128.From64(65573489), above.Liquidity)
	assert.Equal(t, uint64(2_000_000), above.TokenB)
	assert.Equal(t, uint64(2_020_000), above.MaxTokenB)
	assert.Zero(t, above.TokenA)
	assert.Zero(t, above.MaxTokenA)
}

func TestQuoteAddErrors(t *testing.T) {
	_, err := QuoteAdd(testPool, AddParams{TickLowerIndex: 64, TickUpperIndex: 1280, Token: model.TokenB, Amount: 1, Slippage: onePercent})
	assert.ErrorIs(t, err, model.ErrZeroSideRange)

	_, err = QuoteAdd(testPool, AddParams{TickLowerIndex: -1280, TickUpperIndex: -640, Token: model.TokenA, Amount: 1, Slippage: onePercent})
	assert.ErrorIs(t, err, model.ErrZeroSideRange)

	_, err = QuoteAdd(testPool, AddParams{TickLowerIndex: 128, TickUpperIndex: -128, Token: model.TokenA, Amount: 1, Slippage: onePercent})
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	_, err = QuoteAdd(testPool, AddParams{TickLowerIndex: -100, TickUpperIndex: 128, Token: model.TokenA, Amount: 1, Slippage: onePercent})
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	_, err = QuoteAdd(testPool, AddParams{TickLowerIndex: -128, TickUpperIndex: 128, Token: model.TokenA, Amount: 1})
	assert.ErrorIs(t, err, model.ErrInvalidSlippage)

	onLower := testPool
	onLower.TickCurrentIndex = -128
	onLower.SqrtPrice = uint128.From64(18329067761203520168)
	_, err = QuoteAdd(onLower, AddParams{TickLowerIndex: -128, TickUpperIndex: 128, Token: model.TokenB, Amount: 1, Slippage: onePercent})
	assert.ErrorIs(t, err, model.ErrZeroSideRange)
}

func TestQuoteOverflow(t *testing.T) {
	const fullLower, fullUpper = -443584, 443584

	_, err := QuoteAdd(testPool, AddParams{TickLowerIndex: fullLower, TickUpperIndex: fullUpper, Token: model.TokenA, Amount: math.MaxUint64, Slippage: onePercent})
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow, "complement token b")

	_, err = QuoteAdd(testPool, AddParams{TickLowerIndex: 64, TickUpperIndex: 1280, Token: model.TokenA, Amount: math.MaxUint64, Slippage: onePercent})
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow, "max token a")

	_, err = QuoteRemove(testPool, RemoveParams{TickLowerIndex: fullLower, TickUpperIndex: fullUpper, Liquidity: uint128.Max, Slippage: onePercent})
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow, "remove token a")
}

func TestQuoteRemove(t *testing.T) {
	cases := []struct {
		name                 string
		lower, upper         int32
		liquidity            uint64
		tokenA, tokenB       uint64
		minTokenA, minTokenB uint64
		status               model.PositionStatus
	}{
		{name: "in range a", lower: -128, upper: 128, liquidity: 170568768, tokenA: 999_999, tokenB: 1_176_245, minTokenA: 989_999, minTokenB: 1_164_482, status: model.InRange},
		{name: "in range b", lower: -128, upper: 128, liquidity: 145011174, tokenA: 850_162, tokenB: 999_999, minTokenA: 841_660, minTokenB: 989_999, status: model.InRange},
		{name: "below", lower: 64, upper: 1280, liquidity: 17007591, tokenA: 999_999, minTokenA: 989_999, status: model.BelowRange},
		{name: "above", lower: -1280, upper: -640, liquidity: 65573489, tokenB: 1_999_999, minTokenB: 1_979_999, status: model.AboveRange},
	}
	for _, tc := range cases {
		got, err := QuoteRemove(testPool, RemoveParams{
			TickLowerIndex: tc.lower, TickUpperIndex: tc.upper,
			Liquidity: uint128.From64(tc.liquidity), Slippage: onePercent,
		})
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.status, got.Status, tc.name)
		assert.Equal(t, tc.tokenA, got.TokenA, tc.name)
		assert.Equal(t, tc.tokenB, got.TokenB, tc.name)
		assert.Equal(t, tc.minTokenA, got.MinTokenA, tc.name)
		assert.Equal(t, tc.minTokenB, got.MinTokenB, tc.name)
	}
}

func TestQuoteRemoveZeroLiquidity(t *testing.T) {
	got, err := QuoteRemove(testPool, RemoveParams{TickLowerIndex: -128, TickUpperIndex: 128, Slippage: onePercent})
	require.NoError(t, err)
	assert.Zero(t, got.TokenA)
	assert.Zero(t, got.TokenB)
	assert.Zero(t, got.MinTokenA)
	assert.Zero(t, got.MinTokenB)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	ranges := [][2]int32{{-128, 128}, {-640, 640}, {64, 1280}, {-1280, -640}, {-6400, 6400}}
	for _, r := range ranges {
		for _, token := range []model.Token{model.TokenA, model.TokenB} {
			add, err := QuoteAdd(testPool, AddParams{TickLowerIndex: r[0], TickUpperIndex: r[1], Token: token, Amount: 5_000_000, Slippage: noSlippage})
			if err != nil {
				require.ErrorIs(t, err, model.ErrZeroSideRange)
				continue
			}
			assert.Equal(t, add.TokenA, add.MaxTokenA)
			assert.Equal(t, add.TokenB, add.MaxTokenB)

			remove, err := QuoteRemove(testPool, RemoveParams{TickLowerIndex: r[0], TickUpperIndex: r[1], Liquidity: add.Liquidity, Slippage: noSlippage})
			require.NoError(t, err)
			assert.Equal(t, remove.TokenA, remove.MinTokenA)
			assert.Equal(t, remove.TokenB, remove.MinTokenB)
			assert.LessOrEqual(t, remove.TokenA, add.TokenA)
			assert.LessOrEqual(t, remove.TokenB, add.TokenB)
			assert.LessOrEqual(t, add.TokenA-remove.TokenA, uint64(1))
			assert.LessOrEqual(t, add.TokenB-remove.TokenB, uint64(1))
		}
	}
}

func TestQuoteRemovePosition(t *testing.T) {
	position := model.Position{
		Address:        "position",
		Whirlpool:      "pool",
		Liquidity:      uint128.From64(170568768),
		TickLowerIndex: -128,
		TickUpperIndex: 128,
	}
	got, err := QuoteRemovePosition(testPool, position, position.Liquidity, onePercent)
	require.NoError(t, err)
	assert.Equal(t, uint64(999_999), got.TokenA)

	_, err = QuoteRemovePosition(testPool, position, position.Liquidity.Add64(1), onePercent)
	assert.ErrorIs(t, err, model.ErrExceedsPositionLiquidity)

	position.Whirlpool = "other"
	_, err = QuoteRemovePosition(testPool, position, position.Liquidity, onePercent)
	assert.ErrorIs(t, err, model.ErrInconsistentSnapshot)
}
