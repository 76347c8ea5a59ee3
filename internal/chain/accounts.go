package chain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

// Account sizes of the Whirlpool program and SPL token program.
const (
	WhirlpoolSize    = 653
	TickArraySize    = 9988
	PositionSize     = 216
	MintSize         = 82
	TokenAccountSize = 165

	tickSize           = 113
	rewardInfoSize     = 128
	positionRewardSize = 24
)

var (
	whirlpoolDiscriminator = discriminator("Whirlpool")
	tickArrayDiscriminator = discriminator("TickArray")
	positionDiscriminator  = discriminator("Position")
)

func discriminator(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}

func checkAccount(kind string, data, disc []byte, size int) error {
	if len(data) < size {
		return fmt.Errorf("%s account has %d bytes, want %d", kind, len(data), size)
	}
	if disc != nil && !bytes.Equal(data[:8], disc) {
		return fmt.Errorf("%s account discriminator %x mismatch", kind, data[:8])
	}
	return nil
}

func u128At(data []byte, offset int) uint128.Uint128 {
	return uint128.FromBytes(data[offset : offset+16])
}

func u64At(data []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(data[offset:])
}

func u16At(data []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(data[offset:])
}

func i32At(data []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(data[offset:]))
}

// DecodeWhirlpool decodes a Whirlpool account.
func DecodeWhirlpool(address PublicKey, data []byte) (model.Pool, error) {
	if err := checkAccount("whirlpool", data, whirlpoolDiscriminator, WhirlpoolSize); err != nil {
		return model.Pool{}, err
	}
	pool := model.Pool{
		Address:                    address.String(),
		WhirlpoolsConfig:           publicKeyAt(data, 8).String(),
		TickSpacing:                u16At(data, 41),
		FeeRate:                    u16At(data, 45),
		ProtocolFeeRate:            u16At(data, 47),
		Liquidity:                  u128At(data, 49),
		SqrtPrice:                  u128At(data, 65),
		TickCurrentIndex:           i32At(data, 81),
		ProtocolFeeOwedA:           u64At(data, 85),
		ProtocolFeeOwedB:           u64At(data, 93),
		TokenMintA:                 publicKeyAt(data, 101).String(),
		TokenVaultA:                publicKeyAt(data, 133).String(),
		FeeGrowthGlobalA:           u128At(data, 165),
		TokenMintB:                 publicKeyAt(data, 181).String(),
		TokenVaultB:                publicKeyAt(data, 213).String(),
		FeeGrowthGlobalB:           u128At(data, 245),
		RewardLastUpdatedTimestamp: u64At(data, 261),
	}
	for i := range pool.RewardInfos {
		offset := 269 + i*rewardInfoSize
		mint := publicKeyAt(data, offset)
		if mint.IsZero() {
			continue
		}
		pool.RewardInfos[i] = model.RewardInfo{
			Mint:                  mint.String(),
			Vault:                 publicKeyAt(data, offset+32).String(),
			Authority:             publicKeyAt(data, offset+64).String(),
			EmissionsPerSecondX64: u128At(data, offset+96),
			GrowthGlobalX64:       u128At(data, offset+112),
		}
	}
	return pool, nil
}

// DecodeTickArray decodes a TickArray account.
func DecodeTickArray(data []byte) (*model.TickArray, error) {
	if err := checkAccount("tick array", data, tickArrayDiscriminator, TickArraySize); err != nil {
		return nil, err
	}
	array := &model.TickArray{
		StartTickIndex: i32At(data, 8),
		Whirlpool:      publicKeyAt(data, 12+model.TickArraySize*tickSize).String(),
	}
	for i := range array.Ticks {
		offset := 12 + i*tickSize
		if data[offset] == 0 {
			continue
		}
		tick := &array.Ticks[i]
		tick.Initialized = true
		tick.LiquidityNet = model.Int128FromBytes(data[offset+1 : offset+17])
		tick.LiquidityGross = u128At(data, offset+17)
		tick.FeeGrowthOutsideA = u128At(data, offset+33)
		tick.FeeGrowthOutsideB = u128At(data, offset+49)
		for r := range tick.RewardGrowthsOutside {
			tick.RewardGrowthsOutside[r] = u128At(data, offset+65+r*16)
		}
	}
	return array, nil
}

// DecodePosition decodes a Position account.
func DecodePosition(address PublicKey, data []byte) (model.Position, error) {
	if err := checkAccount("position", data, positionDiscriminator, PositionSize); err != nil {
		return model.Position{}, err
	}
	position := model.Position{
		Address:              address.String(),
		Whirlpool:            publicKeyAt(data, 8).String(),
		PositionMint:         publicKeyAt(data, 40).String(),
		Liquidity:            u128At(data, 72),
		TickLowerIndex:       i32At(data, 88),
		TickUpperIndex:       i32At(data, 92),
		FeeGrowthCheckpointA: u128At(data, 96),
		FeeOwedA:             u64At(data, 112),
		FeeGrowthCheckpointB: u128At(data, 120),
		FeeOwedB:             u64At(data, 136),
	}
	for i := range position.RewardInfos {
		offset := 144 + i*positionRewardSize
		position.RewardInfos[i] = model.PositionRewardInfo{
			GrowthInsideCheckpoint: u128At(data, offset),
			AmountOwed:             u64At(data, offset+16),
		}
	}
	return position, nil
}

// DecodeMintDecimals reads the decimals of an SPL mint.
func DecodeMintDecimals(data []byte) (uint8, error) {
	if err := checkAccount("mint", data, nil, MintSize); err != nil {
		return 0, err
	}
	return data[44], nil
}

// DecodeTokenAmount reads the mint and amount of an SPL token account.
func DecodeTokenAmount(data []byte) (PublicKey, uint64, error) {
	if err := checkAccount("token", data, nil, TokenAccountSize); err != nil {
		return PublicKey{}, 0, err
	}
	return publicKeyAt(data, 0), u64At(data, 64), nil
}
