package model

import (
	"errors"
	"testing"
)

func TestCheckLiquidityNet(t *testing.T) {
	lower := &TickArray{StartTickIndex: -5632}
	upper := &TickArray{StartTickIndex: 0}
	lower.Ticks[86] = Tick{Initialized: true, LiquidityNet: NewInt128(5_000_000)}
	upper.Ticks[2] = Tick{Initialized: true, LiquidityNet: NewInt128(-5_000_000)}

	if err := CheckLiquidityNet([]*TickArray{lower, nil, upper}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	upper.Ticks[2].Initialized = false
	if err := CheckLiquidityNet([]*TickArray{lower, upper}); !errors.Is(err, ErrInconsistentSnapshot) {
		t.Fatalf("expected inconsistent snapshot, got %v", err)
	}
}
