package snapshot

import (
	"fmt"
	"time"

	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

// File is the on-disk JSON form of a Snapshot. 128-bit words are decimal
// strings and tick arrays list only initialized ticks.
type File struct {
	Slot          uint64               `json:"slot,omitempty"`
	FetchedAt     time.Time            `json:"fetched_at"`
	Complete      bool                 `json:"complete,omitempty"`
	Pool          PoolRecord           `json:"pool"`
	TickArrays    []TickArrayRecord    `json:"tick_arrays"`
	Positions     []PositionRecord     `json:"positions,omitempty"`
	Mints         []MintRecord         `json:"mints,omitempty"`
	TokenAccounts []TokenAccountRecord `json:"token_accounts,omitempty"`
}

type RewardRecord struct {
	Mint                  string `json:"mint"`
	Vault                 string `json:"vault"`
	Authority             string `json:"authority"`
	EmissionsPerSecondX64 string `json:"emissions_per_second_x64"`
	GrowthGlobalX64       string `json:"growth_global_x64"`
}

type PoolRecord struct {
	Address                    string         `json:"address"`
	WhirlpoolsConfig           string         `json:"whirlpools_config,omitempty"`
	TickSpacing                uint16         `json:"tick_spacing"`
	FeeRate                    uint16         `json:"fee_rate"`
	ProtocolFeeRate            uint16         `json:"protocol_fee_rate"`
	Liquidity                  string         `json:"liquidity"`
	SqrtPrice                  string         `json:"sqrt_price"`
	TickCurrentIndex           int32          `json:"tick_current_index"`
	ProtocolFeeOwedA           uint64         `json:"protocol_fee_owed_a,omitempty"`
	ProtocolFeeOwedB           uint64         `json:"protocol_fee_owed_b,omitempty"`
	TokenMintA                 string         `json:"token_mint_a"`
	TokenVaultA                string         `json:"token_vault_a,omitempty"`
	FeeGrowthGlobalA           string         `json:"fee_growth_global_a,omitempty"`
	TokenMintB                 string         `json:"token_mint_b"`
	TokenVaultB                string         `json:"token_vault_b,omitempty"`
	FeeGrowthGlobalB           string         `json:"fee_growth_global_b,omitempty"`
	RewardLastUpdatedTimestamp uint64         `json:"reward_last_updated_timestamp,omitempty"`
	RewardInfos                []RewardRecord `json:"reward_infos,omitempty"`
}

type TickRecord struct {
	Index                int32    `json:"index"`
	LiquidityNet         string   `json:"liquidity_net"`
	LiquidityGross       string   `json:"liquidity_gross"`
	FeeGrowthOutsideA    string   `json:"fee_growth_outside_a,omitempty"`
	FeeGrowthOutsideB    string   `json:"fee_growth_outside_b,omitempty"`
	RewardGrowthsOutside []string `json:"reward_growths_outside,omitempty"`
}

type TickArrayRecord struct {
	Address        string       `json:"address,omitempty"`
	StartTickIndex int32        `json:"start_tick_index"`
	Ticks          []TickRecord `json:"ticks"`
}

type PositionRecord struct {
	Address              string   `json:"address"`
	Whirlpool            string   `json:"whirlpool"`
	PositionMint         string   `json:"position_mint,omitempty"`
	Liquidity            string   `json:"liquidity"`
	TickLowerIndex       int32    `json:"tick_lower_index"`
	TickUpperIndex       int32    `json:"tick_upper_index"`
	FeeGrowthCheckpointA string   `json:"fee_growth_checkpoint_a,omitempty"`
	FeeOwedA             uint64   `json:"fee_owed_a,omitempty"`
	FeeGrowthCheckpointB string   `json:"fee_growth_checkpoint_b,omitempty"`
	FeeOwedB             uint64   `json:"fee_owed_b,omitempty"`
	RewardCheckpoints    []string `json:"reward_checkpoints,omitempty"`
	RewardsOwed          []uint64 `json:"rewards_owed,omitempty"`
}

type MintRecord struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

type TokenAccountRecord struct {
	Address string `json:"address"`
	Mint    string `json:"mint,omitempty"`
	Amount  uint64 `json:"amount"`
}

// parseU128 treats an empty string as zero.
func parseU128(field, s string) (uint128.Uint128, error) {
	if s == "" {
		return uint128.Zero, nil
	}
	v, err := uint128.FromString(s)
	if err != nil {
		return uint128.Zero, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}

func formatU128(v uint128.Uint128) string {
	if v.IsZero() {
		return ""
	}
	return v.String()
}

// Model converts the record into a model.Pool.
func (r PoolRecord) Model() (model.Pool, error) {
	pool := model.Pool{
		Address:                    r.Address,
		WhirlpoolsConfig:           r.WhirlpoolsConfig,
		TickSpacing:                r.TickSpacing,
		FeeRate:                    r.FeeRate,
		ProtocolFeeRate:            r.ProtocolFeeRate,
		TickCurrentIndex:           r.TickCurrentIndex,
		ProtocolFeeOwedA:           r.ProtocolFeeOwedA,
		ProtocolFeeOwedB:           r.ProtocolFeeOwedB,
		TokenMintA:                 r.TokenMintA,
		TokenVaultA:                r.TokenVaultA,
		TokenMintB:                 r.TokenMintB,
		TokenVaultB:                r.TokenVaultB,
		RewardLastUpdatedTimestamp: r.RewardLastUpdatedTimestamp,
	}
	var err error
	if pool.Liquidity, err = parseU128("liquidity", r.Liquidity); err != nil {
		return model.Pool{}, err
	}
	if pool.SqrtPrice, err = parseU128("sqrt_price", r.SqrtPrice); err != nil {
		return model.Pool{}, err
	}
	if pool.FeeGrowthGlobalA, err = parseU128("fee_growth_global_a", r.FeeGrowthGlobalA); err != nil {
		return model.Pool{}, err
	}
	if pool.FeeGrowthGlobalB, err = parseU128("fee_growth_global_b", r.FeeGrowthGlobalB); err != nil {
		return model.Pool{}, err
	}
	if len(r.RewardInfos) > model.NumRewards {
		return model.Pool{}, fmt.Errorf("pool %s has %d reward infos", r.Address, len(r.RewardInfos))
	}
	for i, reward := range r.RewardInfos {
		info := model.RewardInfo{Mint: reward.Mint, Vault: reward.Vault, Authority: reward.Authority}
		if info.EmissionsPerSecondX64, err = parseU128("emissions_per_second_x64", reward.EmissionsPerSecondX64); err != nil {
			return model.Pool{}, err
		}
		if info.GrowthGlobalX64, err = parseU128("growth_global_x64", reward.GrowthGlobalX64); err != nil {
			return model.Pool{}, err
		}
		pool.RewardInfos[i] = info
	}
	return pool, nil
}

func NewPoolRecord(pool model.Pool) PoolRecord {
	r := PoolRecord{
		Address:                    pool.Address,
		WhirlpoolsConfig:           pool.WhirlpoolsConfig,
		TickSpacing:                pool.TickSpacing,
		FeeRate:                    pool.FeeRate,
		ProtocolFeeRate:            pool.ProtocolFeeRate,
		Liquidity:                  pool.Liquidity.String(),
		SqrtPrice:                  pool.SqrtPrice.String(),
		TickCurrentIndex:           pool.TickCurrentIndex,
		ProtocolFeeOwedA:           pool.ProtocolFeeOwedA,
		ProtocolFeeOwedB:           pool.ProtocolFeeOwedB,
		TokenMintA:                 pool.TokenMintA,
		TokenVaultA:                pool.TokenVaultA,
		FeeGrowthGlobalA:           formatU128(pool.FeeGrowthGlobalA),
		TokenMintB:                 pool.TokenMintB,
		TokenVaultB:                pool.TokenVaultB,
		FeeGrowthGlobalB:           formatU128(pool.FeeGrowthGlobalB),
		RewardLastUpdatedTimestamp: pool.RewardLastUpdatedTimestamp,
	}
	for _, info := range pool.RewardInfos {
		if info.Mint == "" {
			continue
		}
		r.RewardInfos = append(r.RewardInfos, RewardRecord{
			Mint:                  info.Mint,
			Vault:                 info.Vault,
			Authority:             info.Authority,
			EmissionsPerSecondX64: info.EmissionsPerSecondX64.String(),
			GrowthGlobalX64:       info.GrowthGlobalX64.String(),
		})
	}
	return r
}

// Model rebuilds the dense tick array, rejecting ticks that are misaligned
// or outside the array.
func (r TickArrayRecord) Model(whirlpool string, spacing uint16) (*model.TickArray, error) {
	array := &model.TickArray{Whirlpool: whirlpool, StartTickIndex: r.StartTickIndex}
	s := int32(spacing)
	span := s * model.TickArraySize
	if s <= 0 || r.StartTickIndex%span != 0 {
		return nil, fmt.Errorf("tick array start %d not aligned to %d: %w", r.StartTickIndex, span, model.ErrInconsistentSnapshot)
	}
	for _, t := range r.Ticks {
		offset := t.Index - r.StartTickIndex
		if offset < 0 || offset >= span || offset%s != 0 {
			return nil, fmt.Errorf("tick %d outside array %d: %w", t.Index, r.StartTickIndex, model.ErrInconsistentSnapshot)
		}
		tick := model.Tick{Initialized: true}
		var err error
		if tick.LiquidityNet, err = model.ParseInt128(t.LiquidityNet); err != nil {
			return nil, fmt.Errorf("tick %d liquidity_net: %w", t.Index, err)
		}
		if tick.LiquidityGross, err = parseU128("liquidity_gross", t.LiquidityGross); err != nil {
			return nil, err
		}
		if tick.FeeGrowthOutsideA, err = parseU128("fee_growth_outside_a", t.FeeGrowthOutsideA); err != nil {
			return nil, err
		}
		if tick.FeeGrowthOutsideB, err = parseU128("fee_growth_outside_b", t.FeeGrowthOutsideB); err != nil {
			return nil, err
		}
		if len(t.RewardGrowthsOutside) > model.NumRewards {
			return nil, fmt.Errorf("tick %d has %d reward growths", t.Index, len(t.RewardGrowthsOutside))
		}
		for i, g := range t.RewardGrowthsOutside {
			if tick.RewardGrowthsOutside[i], err = parseU128("reward_growth_outside", g); err != nil {
				return nil, err
			}
		}
		array.Ticks[offset/s] = tick
	}
	return array, nil
}

// NewTickArrayRecord keeps only initialized ticks.
func NewTickArrayRecord(address string, array *model.TickArray, spacing uint16) TickArrayRecord {
	r := TickArrayRecord{Address: address, StartTickIndex: array.StartTickIndex, Ticks: make([]TickRecord, 0)}
	for i, tick := range array.Ticks {
		if !tick.Initialized {
			continue
		}
		rec := TickRecord{
			Index:             array.StartTickIndex + int32(i)*int32(spacing),
			LiquidityNet:      tick.LiquidityNet.String(),
			LiquidityGross:    tick.LiquidityGross.String(),
			FeeGrowthOutsideA: formatU128(tick.FeeGrowthOutsideA),
			FeeGrowthOutsideB: formatU128(tick.FeeGrowthOutsideB),
		}
		if tick.RewardGrowthsOutside != [model.NumRewards]uint128.Uint128{} {
			for _, g := range tick.RewardGrowthsOutside {
				rec.RewardGrowthsOutside = append(rec.RewardGrowthsOutside, g.String())
			}
		}
		r.Ticks = append(r.Ticks, rec)
	}
	return r
}

func (r PositionRecord) Model() (model.Position, error) {
	position := model.Position{
		Address:        r.Address,
		Whirlpool:      r.Whirlpool,
		PositionMint:   r.PositionMint,
		TickLowerIndex: r.TickLowerIndex,
		TickUpperIndex: r.TickUpperIndex,
		FeeOwedA:       r.FeeOwedA,
		FeeOwedB:       r.FeeOwedB,
	}
	var err error
	if position.Liquidity, err = parseU128("liquidity", r.Liquidity); err != nil {
		return model.Position{}, err
	}
	if position.FeeGrowthCheckpointA, err = parseU128("fee_growth_checkpoint_a", r.FeeGrowthCheckpointA); err != nil {
		return model.Position{}, err
	}
	if position.FeeGrowthCheckpointB, err = parseU128("fee_growth_checkpoint_b", r.FeeGrowthCheckpointB); err != nil {
		return model.Position{}, err
	}
	if len(r.RewardCheckpoints) > model.NumRewards || len(r.RewardsOwed) > model.NumRewards {
		return model.Position{}, fmt.Errorf("position %s has too many reward slots", r.Address)
	}
	for i, c := range r.RewardCheckpoints {
		if position.RewardInfos[i].GrowthInsideCheckpoint, err = parseU128("reward_checkpoint", c); err != nil {
			return model.Position{}, err
		}
	}
	for i, owed := range r.RewardsOwed {
		position.RewardInfos[i].AmountOwed = owed
	}
	return position, nil
}

func NewPositionRecord(p model.Position) PositionRecord {
	r := PositionRecord{
		Address:              p.Address,
		Whirlpool:            p.Whirlpool,
		PositionMint:         p.PositionMint,
		Liquidity:            p.Liquidity.String(),
		TickLowerIndex:       p.TickLowerIndex,
		TickUpperIndex:       p.TickUpperIndex,
		FeeGrowthCheckpointA: formatU128(p.FeeGrowthCheckpointA),
		FeeOwedA:             p.FeeOwedA,
		FeeGrowthCheckpointB: formatU128(p.FeeGrowthCheckpointB),
		FeeOwedB:             p.FeeOwedB,
	}
	for _, info := range p.RewardInfos {
		r.RewardCheckpoints = append(r.RewardCheckpoints, info.GrowthInsideCheckpoint.String())
		r.RewardsOwed = append(r.RewardsOwed, info.AmountOwed)
	}
	return r
}
