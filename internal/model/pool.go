package model

import (
	"fmt"

	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"
)

const (
	// FeeRateDenominator scales Pool.FeeRate (hundredths of a basis point).
	FeeRateDenominator = 1_000_000
	// ProtocolFeeRateDenominator scales Pool.ProtocolFeeRate (basis points of the fee).
	ProtocolFeeRateDenominator = 10_000
)

// RewardInfo is one reward slot of a pool.
type RewardInfo struct {
	Mint                  string
	Vault                 string
	Authority             string
	EmissionsPerSecondX64 uint128.Uint128
	GrowthGlobalX64       uint128.Uint128
}

// Pool is a read-only snapshot of a whirlpool account.
type Pool struct {
	Address                    string
	WhirlpoolsConfig           string
	TickSpacing                uint16
	FeeRate                    uint16
	ProtocolFeeRate            uint16
	Liquidity                  uint128.Uint128
	SqrtPrice                  uint128.Uint128
	TickCurrentIndex           int32
	ProtocolFeeOwedA           uint64
	ProtocolFeeOwedB           uint64
	TokenMintA                 string
	TokenVaultA                string
	FeeGrowthGlobalA           uint128.Uint128
	TokenMintB                 string
	TokenVaultB                string
	FeeGrowthGlobalB           uint128.Uint128
	RewardLastUpdatedTimestamp uint64
	RewardInfos                [NumRewards]RewardInfo
}

// Validate checks the fields every quote depends on.
func (p Pool) Validate() error {
	if p.TickSpacing == 0 {
		return fmt.Errorf("pool %s: tick spacing must be greater than zero", p.Address)
	}
	if uint32(p.FeeRate) >= FeeRateDenominator {
		return fmt.Errorf("pool %s: fee rate %d out of range", p.Address, p.FeeRate)
	}
	if p.ProtocolFeeRate > ProtocolFeeRateDenominator {
		return fmt.Errorf("pool %s: protocol fee rate %d out of range", p.Address, p.ProtocolFeeRate)
	}
	return nil
}

// Token reports which side of the pool a mint is on.
func (p Pool) Token(mint string) (Token, error) {
	switch mint {
	case p.TokenMintA:
		return TokenA, nil
	case p.TokenMintB:
		return TokenB, nil
	default:
		return 0, fmt.Errorf("mint %s is not in pool %s: %w", mint, p.Address, ErrNotFound)
	}
}

func (p Pool) FeeRateDecimal() decimal.Decimal {
	return decimal.New(int64(p.FeeRate), 0).Div(decimal.New(FeeRateDenominator, 0))
}

func (p Pool) ProtocolFeeRateDecimal() decimal.Decimal {
	return decimal.New(int64(p.ProtocolFeeRate), 0).Div(decimal.New(ProtocolFeeRateDenominator, 0))
}

// PoolSummary is a display-oriented view of a pool.
type PoolSummary struct {
	Address          string          `json:"address"`
	TokenMintA       string          `json:"token_mint_a"`
	TokenMintB       string          `json:"token_mint_b"`
	TickSpacing      uint16          `json:"tick_spacing"`
	TickCurrentIndex int32           `json:"tick_current_index"`
	SqrtPrice        string          `json:"sqrt_price"`
	Liquidity        string          `json:"liquidity"`
	Price            decimal.Decimal `json:"price"`
	FeeRate          decimal.Decimal `json:"fee_rate"`
	ProtocolFeeRate  decimal.Decimal `json:"protocol_fee_rate"`
	VaultAmountA     decimal.Decimal `json:"vault_amount_a"`
	VaultAmountB     decimal.Decimal `json:"vault_amount_b"`
	ProtocolFeeOwedA decimal.Decimal `json:"protocol_fee_owed_a"`
	ProtocolFeeOwedB decimal.Decimal `json:"protocol_fee_owed_b"`
}

// UIAmount converts base units into a decimal token amount.
func UIAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(uint128.From64(amount).Big(), -int32(decimals))
}
