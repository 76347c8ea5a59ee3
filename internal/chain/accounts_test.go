package chain

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

func putKey(b []byte, offset int, address string) {
	key := MustPublicKey(address)
	copy(b[offset:], key[:])
}

func encodeWhirlpool(pool model.Pool) []byte {
	b := make([]byte, WhirlpoolSize)
	copy(b, whirlpoolDiscriminator)
	putKey(b, 8, pool.WhirlpoolsConfig)
	b[40] = 255
	binary.LittleEndian.PutUint16(b[41:], pool.TickSpacing)
	binary.LittleEndian.PutUint16(b[43:], pool.TickSpacing)
	binary.LittleEndian.PutUint16(b[45:], pool.FeeRate)
	binary.LittleEndian.PutUint16(b[47:], pool.ProtocolFeeRate)
	pool.Liquidity.PutBytes(b[49:])
	pool.SqrtPrice.PutBytes(b[65:])
	binary.LittleEndian.PutUint32(b[81:], uint32(pool.TickCurrentIndex))
	binary.LittleEndian.PutUint64(b[85:], pool.ProtocolFeeOwedA)
	binary.LittleEndian.PutUint64(b[93:], pool.ProtocolFeeOwedB)
	putKey(b, 101, pool.TokenMintA)
	putKey(b, 133, pool.TokenVaultA)
	pool.FeeGrowthGlobalA.PutBytes(b[165:])
	putKey(b, 181, pool.TokenMintB)
	putKey(b, 213, pool.TokenVaultB)
	pool.FeeGrowthGlobalB.PutBytes(b[245:])
	binary.LittleEndian.PutUint64(b[261:], pool.RewardLastUpdatedTimestamp)
	for i, info := range pool.RewardInfos {
		if info.Mint == "" {
			continue
		}
		offset := 269 + i*rewardInfoSize
		putKey(b, offset, info.Mint)
		putKey(b, offset+32, info.Vault)
		putKey(b, offset+64, info.Authority)
		info.EmissionsPerSecondX64.PutBytes(b[offset+96:])
		info.GrowthGlobalX64.PutBytes(b[offset+112:])
	}
	return b
}

func encodeTickArray(array *model.TickArray) []byte {
	b := make([]byte, TickArraySize)
	copy(b, tickArrayDiscriminator)
	binary.LittleEndian.PutUint32(b[8:], uint32(array.StartTickIndex))
	for i, tick := range array.Ticks {
		if !tick.Initialized {
			continue
		}
		offset := 12 + i*tickSize
		b[offset] = 1
		tick.LiquidityNet.PutBytes(b[offset+1:])
		tick.LiquidityGross.PutBytes(b[offset+17:])
		tick.FeeGrowthOutsideA.PutBytes(b[offset+33:])
		tick.FeeGrowthOutsideB.PutBytes(b[offset+49:])
		for r, g := range tick.RewardGrowthsOutside {
			g.PutBytes(b[offset+65+r*16:])
		}
	}
	putKey(b, 12+model.TickArraySize*tickSize, array.Whirlpool)
	return b
}

func encodePosition(p model.Position) []byte {
	b := make([]byte, PositionSize)
	copy(b, positionDiscriminator)
	putKey(b, 8, p.Whirlpool)
	putKey(b, 40, p.PositionMint)
	p.Liquidity.PutBytes(b[72:])
	binary.LittleEndian.PutUint32(b[88:], uint32(p.TickLowerIndex))
	binary.LittleEndian.PutUint32(b[92:], uint32(p.TickUpperIndex))
	p.FeeGrowthCheckpointA.PutBytes(b[96:])
	binary.LittleEndian.PutUint64(b[112:], p.FeeOwedA)
	p.FeeGrowthCheckpointB.PutBytes(b[120:])
	binary.LittleEndian.PutUint64(b[136:], p.FeeOwedB)
	for i, info := range p.RewardInfos {
		offset := 144 + i*positionRewardSize
		info.GrowthInsideCheckpoint.PutBytes(b[offset:])
		binary.LittleEndian.PutUint64(b[offset+16:], info.AmountOwed)
	}
	return b
}

func encodeMint(decimals uint8) []byte {
	b := make([]byte, MintSize)
	b[44] = decimals
	b[45] = 1
	return b
}

func encodeTokenAccount(mint string, amount uint64) []byte {
	b := make([]byte, TokenAccountSize)
	putKey(b, 0, mint)
	binary.LittleEndian.PutUint64(b[64:], amount)
	return b
}

func testPool() model.Pool {
	pool := model.Pool{
		Address:          testWhirlpool,
		WhirlpoolsConfig: testConfig,
		TickSpacing:      64,
		FeeRate:          3000,
		ProtocolFeeRate:  300,
		Liquidity:        uint128.From64(75_000_000),
		SqrtPrice:        uint128.New(9532808694312836, 1), // 18456276882403864452
		TickCurrentIndex: 10,
		ProtocolFeeOwedA: 12,
		ProtocolFeeOwedB: 34,
		TokenMintA:       testMintSOL,
		TokenVaultA:      "9Thb12137LBA7XVsgh5mq29kwpDPq9bHwXYUcCi9jQdL",
		FeeGrowthGlobalA: uint128.New(5, 1),
		TokenMintB:       testMintUSDC,
		TokenVaultB:      "EKSbRhWbPhxYGbS8UqPjRJzETqjLsLnD5zz1RjQ8k29M",
		FeeGrowthGlobalB: uint128.From64(99),
	}
	pool.RewardLastUpdatedTimestamp = 1_700_000_000
	pool.RewardInfos[0] = model.RewardInfo{
		Mint:                  testMintUSDC,
		Vault:                 testConfig,
		Authority:             testConfig,
		EmissionsPerSecondX64: uint128.From64(1 << 40),
		GrowthGlobalX64:       uint128.From64(7),
	}
	return pool
}

func testTickArray(start int32, nets map[int32]int64) *model.TickArray {
	array := &model.TickArray{Whirlpool: testWhirlpool, StartTickIndex: start}
	for index, net := range nets {
		tick := &array.Ticks[(index-start)/64]
		tick.Initialized = true
		tick.LiquidityNet = model.NewInt128(net)
		if net < 0 {
			net = -net
		}
		tick.LiquidityGross = uint128.From64(uint64(net))
	}
	return array
}

func TestDecodeWhirlpool(t *testing.T) {
	pool := testPool()
	got, err := DecodeWhirlpool(MustPublicKey(testWhirlpool), encodeWhirlpool(pool))
	require.NoError(t, err)
	assert.Equal(t, pool, got)
}

func TestDecodeWhirlpoolRejects(t *testing.T) {
	data := encodeWhirlpool(testPool())
	_, err := DecodeWhirlpool(MustPublicKey(testWhirlpool), data[:WhirlpoolSize-1])
	require.Error(t, err)

	data[0] ^= 0xff
	_, err = DecodeWhirlpool(MustPublicKey(testWhirlpool), data)
	require.ErrorContains(t, err, "discriminator")
}

func TestDecodeTickArray(t *testing.T) {
	array := testTickArray(0, map[int32]int64{64: 10_000_000, 128: -50_000_000, 5568: -1})
	array.Ticks[1].FeeGrowthOutsideA = uint128.New(1, 2)
	array.Ticks[1].RewardGrowthsOutside[2] = uint128.From64(3)

	got, err := DecodeTickArray(encodeTickArray(array))
	require.NoError(t, err)
	assert.Equal(t, array, got)
	assert.Equal(t, "-50000000", got.Ticks[2].LiquidityNet.String())
	assert.True(t, got.Ticks[87].Initialized)
}

func TestDecodeTickArrayWrongAccount(t *testing.T) {
	_, err := DecodeTickArray(encodeWhirlpool(testPool()))
	require.Error(t, err)
}

func TestDecodePosition(t *testing.T) {
	position := model.Position{
		Address:              "DYkMpbhCBQYQByCEbaqqbYsEGjzrsYfYqNtE6HmH4RKy",
		Whirlpool:            testWhirlpool,
		PositionMint:         "7kVajw5oFePNbTCsALyKjCSz4GpSCKEjjhZbfpjk44FR",
		Liquidity:            uint128.From64(20_000_000),
		TickLowerIndex:       -640,
		TickUpperIndex:       640,
		FeeGrowthCheckpointA: uint128.From64(1),
		FeeOwedA:             2,
		FeeGrowthCheckpointB: uint128.From64(3),
		FeeOwedB:             4,
	}
	position.RewardInfos[1] = model.PositionRewardInfo{GrowthInsideCheckpoint: uint128.From64(5), AmountOwed: 6}

	got, err := DecodePosition(MustPublicKey(position.Address), encodePosition(position))
	require.NoError(t, err)
	assert.Equal(t, position, got)
}

func TestDecodeTokenAccounts(t *testing.T) {
	decimals, err := DecodeMintDecimals(encodeMint(6))
	require.NoError(t, err)
	assert.Equal(t, uint8(6), decimals)

	_, err = DecodeMintDecimals(make([]byte, 10))
	require.Error(t, err)

	mint, amount, err := DecodeTokenAmount(encodeTokenAccount(testMintUSDC, 3_000_000))
	require.NoError(t, err)
	assert.Equal(t, testMintUSDC, mint.String())
	assert.Equal(t, uint64(3_000_000), amount)
}
