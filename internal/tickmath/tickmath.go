// Package tickmath converts between tick indexes and Q64.64 sqrt prices.
package tickmath

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

const (
	MinTick int32 = -443636
	MaxTick int32 = 443636
)

var (
	MinSqrtPrice = uint128.From64(4295048016)
	MaxSqrtPrice = uint128.New(0x35bb7f32a81b33af, 0xfffec4b1) // 79226673515401279992447579055
)

// Bit i of |tick| (starting at bit 1) selects multiplier i.
var (
	posOdd         = uint256.MustFromDecimal("79232123823359799118286999567")
	posMultipliers = decimals(
		"79236085330515764027303304731",
		"79244008939048815603706035061",
		"79259858533276714757314932305",
		"79291567232598584799939703904",
		"79355022692464371645785046466",
		"79482085999252804386437311141",
		"79736823300114093921829183326",
		"80248749790819932309965073892",
		"81282483887344747381513967011",
		"83390072131320151908154831281",
		"87770609709833776024991924138",
		"97234110755111693312479820773",
		"119332217159966728226237229890",
		"179736315981702064433883588727",
		"407748233172238350107850275304",
		"2098478828474011932436660412517",
		"55581415166113811149459800483533",
		"38992368544603139932233054999993551",
	)
	negOdd         = uint256.MustFromDecimal("18445821805675392311")
	negMultipliers = decimals(
		"18444899583751176498",
		"18443055278223354162",
		"18439367220385604838",
		"18431993317065449817",
		"18417254355718160513",
		"18387811781193591352",
		"18329067761203520168",
		"18212142134806087854",
		"17980523815641551639",
		"17526086738831147013",
		"16651378430235024244",
		"15030750278693429944",
		"12247334978882834399",
		"8131365268884726200",
		"3584323654723342297",
		"696457651847595233",
		"26294789957452057",
		"37481735321082",
	)
)

const (
	logB2X32        = 59543866431248
	logBPErrMarginL = 184467440737095516
	logBPErrMarginU = 15793534762490258745
)

func decimals(values ...string) []*uint256.Int {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		out[i] = uint256.MustFromDecimal(v)
	}
	return out
}

// SqrtPriceAtTick returns sqrt(1.0001^tick) in Q64.64.
func SqrtPriceAtTick(tick int32) (uint128.Uint128, error) {
	if tick < MinTick || tick > MaxTick {
		return uint128.Zero, fmt.Errorf("tick %d: %w", tick, model.ErrDomain)
	}
	if tick >= 0 {
		return sqrtPricePositive(uint32(tick)), nil
	}
	return sqrtPriceNegative(uint32(-tick)), nil
}

// MustSqrtPriceAtTick is SqrtPriceAtTick for ticks already known to be in range.
func MustSqrtPriceAtTick(tick int32) uint128.Uint128 {
	p, err := SqrtPriceAtTick(tick)
	if err != nil {
		panic(err)
	}
	return p
}

// Positive ticks run in Q32.96 and drop 32 bits at the end.
func sqrtPricePositive(tick uint32) uint128.Uint128 {
	r := new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	if tick&1 != 0 {
		r.Set(posOdd)
	}
	for i, m := range posMultipliers {
		if tick&(2<<i) != 0 {
			r.Mul(r, m)
			r.Rsh(r, 96)
		}
	}
	r.Rsh(r, 32)
	return uint128.New(r[0], r[1])
}

func sqrtPriceNegative(tick uint32) uint128.Uint128 {
	r := new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	if tick&1 != 0 {
		r.Set(negOdd)
	}
	for i, m := range negMultipliers {
		if tick&(2<<i) != 0 {
			r.Mul(r, m)
			r.Rsh(r, 64)
		}
	}
	return uint128.New(r[0], r[1])
}

// TickAtSqrtPrice returns the greatest tick whose sqrt price is <= sqrtPrice.
func TickAtSqrtPrice(sqrtPrice uint128.Uint128) (int32, error) {
	if sqrtPrice.Cmp(MinSqrtPrice) < 0 || sqrtPrice.Cmp(MaxSqrtPrice) > 0 {
		return 0, fmt.Errorf("sqrt price %s: %w", sqrtPrice, model.ErrDomain)
	}

	msb := sqrtPrice.Len() - 1
	log2Int := int64(msb-64) << 32

	var r uint64
	if msb >= 64 {
		r = sqrtPrice.Rsh(uint(msb - 63)).Lo
	} else {
		r = sqrtPrice.Lsh(uint(63 - msb)).Lo
	}

	// 14 bits of log2 fraction by repeated squaring.
	var frac uint64
	bit := uint64(1) << 63
	for i := 0; i < 14; i++ {
		sq := uint128.From64(r).Mul64(r)
		more := uint(sq.Hi >> 63)
		r = sq.Rsh(63 + more).Lo
		frac += bit * uint64(more)
		bit >>= 1
	}
	log2X32 := log2Int + int64(frac>>32)

	logBP := signed256(log2X32)
	logBP.Mul(logBP, uint256.NewInt(logB2X32))

	lo := new(uint256.Int).Sub(logBP, uint256.NewInt(logBPErrMarginL))
	hi := new(uint256.Int).Add(logBP, uint256.NewInt(logBPErrMarginU))
	tickLow := int32(int64(lo.SRsh(lo, 64)[0]))
	tickHigh := int32(int64(hi.SRsh(hi, 64)[0]))

	if tickLow == tickHigh {
		return tickLow, nil
	}
	if p, err := SqrtPriceAtTick(tickHigh); err == nil && p.Cmp(sqrtPrice) <= 0 {
		return tickHigh, nil
	}
	return tickLow, nil
}

// signed256 encodes v as 256-bit two's complement.
func signed256(v int64) *uint256.Int {
	if v < 0 {
		return new(uint256.Int).Neg(uint256.NewInt(uint64(-v)))
	}
	return uint256.NewInt(uint64(v))
}

// NearestUsableTick rounds tick down to a multiple of spacing and clamps
// it into the usable bounds.
func NearestUsableTick(tick int32, spacing uint16) int32 {
	s := int32(spacing)
	if s <= 0 {
		return tick
	}
	out := floorDiv(tick, s) * s
	minUsable, maxUsable := UsableTickBounds(spacing)
	switch {
	case out < minUsable:
		return minUsable
	case out > maxUsable:
		return maxUsable
	}
	return out
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// InitializableTick rounds tick to the nearest multiple of spacing, half away
// from zero, and keeps it inside the usable bounds.
func InitializableTick(tick int32, spacing uint16) int32 {
	s := int32(spacing)
	if s <= 0 {
		return tick
	}
	rem := tick % s
	out := tick - rem
	if 2*abs32(rem) >= s {
		if rem < 0 {
			out -= s
		} else {
			out += s
		}
	}
	minUsable, maxUsable := UsableTickBounds(spacing)
	switch {
	case out < minUsable:
		return minUsable
	case out > maxUsable:
		return maxUsable
	}
	return out
}

// UsableTickBounds returns the outermost ticks that are multiples of spacing.
func UsableTickBounds(spacing uint16) (int32, int32) {
	s := int32(spacing)
	if s <= 0 {
		return MinTick, MaxTick
	}
	return -(-MinTick / s * s), MaxTick / s * s
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
