package chain

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// DefaultProgramID is the Orca Whirlpool program on mainnet and devnet.
const DefaultProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"

const maxSeedLength = 32

var errNoViableBump = errors.New("no viable bump seed")

// PublicKey is a 32-byte Solana account address.
type PublicKey [32]byte

// ParsePublicKey decodes a base58 address.
func ParsePublicKey(s string) (PublicKey, error) {
	var key PublicKey
	decoded, err := base58.Decode(s)
	if err != nil {
		return key, fmt.Errorf("decode public key %q: %w", s, err)
	}
	if len(decoded) != len(key) {
		return key, fmt.Errorf("public key %q has %d bytes", s, len(decoded))
	}
	copy(key[:], decoded)
	return key, nil
}

func MustPublicKey(s string) PublicKey {
	key, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return key
}

func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

func publicKeyAt(data []byte, offset int) PublicKey {
	var key PublicKey
	copy(key[:], data[offset:offset+32])
	return key
}

// isOnCurve reports whether b decodes to an ed25519 point.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// FindProgramAddress derives the off-curve address for seeds under program,
// trying bumps from 255 down to 0.
func FindProgramAddress(seeds [][]byte, program PublicKey) (PublicKey, uint8, error) {
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return PublicKey{}, 0, fmt.Errorf("seed of %d bytes exceeds %d", len(seed), maxSeedLength)
		}
	}
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, seed := range seeds {
			h.Write(seed)
		}
		h.Write([]byte{byte(bump)})
		h.Write(program[:])
		h.Write([]byte("ProgramDerivedAddress"))
		sum := h.Sum(nil)
		if !isOnCurve(sum) {
			var key PublicKey
			copy(key[:], sum)
			return key, uint8(bump), nil
		}
	}
	return PublicKey{}, 0, errNoViableBump
}

// WhirlpoolAddress derives the pool address for a config, mint pair and tick spacing.
func WhirlpoolAddress(program, config, mintA, mintB PublicKey, tickSpacing uint16) (PublicKey, error) {
	spacing := make([]byte, 2)
	binary.LittleEndian.PutUint16(spacing, tickSpacing)
	key, _, err := FindProgramAddress([][]byte{[]byte("whirlpool"), config[:], mintA[:], mintB[:], spacing}, program)
	return key, err
}

// TickArrayAddress derives the tick array address; the start index seed is
// its decimal string.
func TickArrayAddress(program, whirlpool PublicKey, startTickIndex int32) (PublicKey, error) {
	start := strconv.FormatInt(int64(startTickIndex), 10)
	key, _, err := FindProgramAddress([][]byte{[]byte("tick_array"), whirlpool[:], []byte(start)}, program)
	return key, err
}

// PositionAddress derives the position account of a position mint.
func PositionAddress(program, positionMint PublicKey) (PublicKey, error) {
	key, _, err := FindProgramAddress([][]byte{[]byte("position"), positionMint[:]}, program)
	return key, err
}
