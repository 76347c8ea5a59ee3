package model

import (
	"fmt"

	"lukechampine.com/uint128"
)

const (
	// TickArraySize is the number of tick slots in one tick array account.
	TickArraySize = 88
	// NumRewards is the number of reward slots tracked per pool, tick and position.
	NumRewards = 3
)

// Tick is one slot of a tick array.
type Tick struct {
	Initialized          bool
	LiquidityNet         Int128
	LiquidityGross       uint128.Uint128
	FeeGrowthOutsideA    uint128.Uint128
	FeeGrowthOutsideB    uint128.Uint128
	RewardGrowthsOutside [NumRewards]uint128.Uint128
}

// TickArray is a fixed block of ticks starting at StartTickIndex.
type TickArray struct {
	Whirlpool      string
	StartTickIndex int32
	Ticks          [TickArraySize]Tick
}

// CheckLiquidityNet verifies that liquidityNet sums to zero over every
// initialized tick of a complete set of tick arrays.
func CheckLiquidityNet(arrays []*TickArray) error {
	var sum Int128
	for _, array := range arrays {
		if array == nil {
			continue
		}
		for i := range array.Ticks {
			tick := &array.Ticks[i]
			if !tick.Initialized {
				continue
			}
			next, err := sum.Add(tick.LiquidityNet)
			if err != nil {
				return fmt.Errorf("sum liquidity net: %w", err)
			}
			sum = next
		}
	}
	if !sum.IsZero() {
		return fmt.Errorf("liquidity net sums to %s: %w", sum, ErrInconsistentSnapshot)
	}
	return nil
}
