package model

import (
	"fmt"

	"lukechampine.com/uint128"
)

// PositionStatus classifies a tick range against the current tick.
type PositionStatus int

const (
	BelowRange PositionStatus = iota
	InRange
	AboveRange
)

func (s PositionStatus) String() string {
	switch s {
	case BelowRange:
		return "below_range"
	case InRange:
		return "in_range"
	case AboveRange:
		return "above_range"
	default:
		return fmt.Sprintf("position_status(%d)", int(s))
	}
}

// ClassifyRange reports where tickCurrent lies relative to [lower, upper).
func ClassifyRange(tickCurrent, lower, upper int32) (PositionStatus, error) {
	if lower >= upper {
		return 0, fmt.Errorf("range [%d, %d): %w", lower, upper, ErrInvalidRange)
	}
	switch {
	case tickCurrent < lower:
		return BelowRange, nil
	case tickCurrent < upper:
		return InRange, nil
	default:
		return AboveRange, nil
	}
}

// PositionRewardInfo is one reward slot of a position.
type PositionRewardInfo struct {
	GrowthInsideCheckpoint uint128.Uint128
	AmountOwed             uint64
}

// Position is a read-only snapshot of a position account.
type Position struct {
	Address              string
	Whirlpool            string
	PositionMint         string
	Liquidity            uint128.Uint128
	TickLowerIndex       int32
	TickUpperIndex       int32
	FeeGrowthCheckpointA uint128.Uint128
	FeeOwedA             uint64
	FeeGrowthCheckpointB uint128.Uint128
	FeeOwedB             uint64
	RewardInfos          [NumRewards]PositionRewardInfo
}
