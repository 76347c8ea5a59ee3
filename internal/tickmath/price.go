package tickmath

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

var q128 = decimal.NewFromBigInt(new(uint256.Int).Lsh(uint256.NewInt(1), 128).ToBig(), 0)

// pricePrecision is the number of decimal places kept by SqrtPriceToPrice.
const pricePrecision = 24

// SqrtPriceToPrice returns the price of token A in token B, adjusted for
// mint decimals.
func SqrtPriceToPrice(sqrtPrice uint128.Uint128, decimalsA, decimalsB uint8) decimal.Decimal {
	sp := decimal.NewFromBigInt(sqrtPrice.Big(), 0)
	return sp.Mul(sp).Shift(int32(decimalsA)-int32(decimalsB)).DivRound(q128, pricePrecision)
}

// PriceToSqrtPrice inverts SqrtPriceToPrice, rounding down.
func PriceToSqrtPrice(price decimal.Decimal, decimalsA, decimalsB uint8) (uint128.Uint128, error) {
	if !price.IsPositive() {
		return uint128.Zero, fmt.Errorf("price %s must be positive: %w", price, model.ErrDomain)
	}
	scaled := price.Shift(int32(decimalsB) - int32(decimalsA)).Mul(q128).Floor().BigInt()
	radicand, overflow := uint256.FromBig(scaled)
	if overflow {
		return uint128.Zero, fmt.Errorf("price %s: %w", price, model.ErrDomain)
	}
	root := new(uint256.Int).Sqrt(radicand)
	if root[2] != 0 || root[3] != 0 {
		return uint128.Zero, fmt.Errorf("price %s: %w", price, model.ErrDomain)
	}
	sp := uint128.New(root[0], root[1])
	if sp.Cmp(MinSqrtPrice) < 0 || sp.Cmp(MaxSqrtPrice) > 0 {
		return uint128.Zero, fmt.Errorf("price %s: %w", price, model.ErrDomain)
	}
	return sp, nil
}

// PriceToInitializableTick maps a decimal price to the nearest usable tick.
func PriceToInitializableTick(price decimal.Decimal, decimalsA, decimalsB uint8, spacing uint16) (int32, error) {
	sp, err := PriceToSqrtPrice(price, decimalsA, decimalsB)
	if err != nil {
		return 0, err
	}
	tick, err := TickAtSqrtPrice(sp)
	if err != nil {
		return 0, err
	}
	return InitializableTick(tick, spacing), nil
}
