package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

func TestNarrow(t *testing.T) {
	v := uint128.New(7, 9)
	got, err := Narrow128(Widen(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Narrow128(new(uint256.Int).Lsh(uint256.NewInt(1), 128))
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)

	_, err = Narrow64(Q64)
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)

	small, err := Narrow64(uint256.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), small)
}

func TestCheckedOps(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	_, err := Add(max, uint256.NewInt(1))
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)

	_, err = Sub(uint256.NewInt(1), uint256.NewInt(2))
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)

	_, err = Mul(max, uint256.NewInt(2))
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)

	_, err = Lsh(new(uint256.Int).Lsh(uint256.NewInt(1), 200), 64)
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)

	shifted, err := Lsh(uint256.NewInt(1), 64)
	require.NoError(t, err)
	assert.Equal(t, Q64, shifted)

	zero, err := Lsh(new(uint256.Int), 255)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestDivRounding(t *testing.T) {
	down, err := Div(uint256.NewInt(7), uint256.NewInt(2), false)
	require.NoError(t, err)
	up, err := Div(uint256.NewInt(7), uint256.NewInt(2), true)
	require.NoError(t, err)
	exact, err := Div(uint256.NewInt(8), uint256.NewInt(2), true)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), down.Uint64())
	assert.Equal(t, uint64(4), up.Uint64())
	assert.Equal(t, uint64(4), exact.Uint64())

	_, err = Div(uint256.NewInt(1), new(uint256.Int), false)
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)
}

func TestMulDiv(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	// max*max/max needs the 512-bit product.
	got, err := MulDiv(max, max, max, true)
	require.NoError(t, err)
	assert.Equal(t, max, got)

	up, err := MulDiv(uint256.NewInt(10), uint256.NewInt(10), uint256.NewInt(3), true)
	require.NoError(t, err)
	assert.Equal(t, uint64(34), up.Uint64())

	_, err = MulDiv(max, max, uint256.NewInt(1), false)
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)

	_, err = MulDiv(max, max, new(uint256.Int), false)
	assert.ErrorIs(t, err, model.ErrArithmeticOverflow)
}
