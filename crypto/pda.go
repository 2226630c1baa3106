package crypto

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
	"github.com/tos-network/veilpay/common"
)

const (
	// MaxSeedLength is the maximum length of a single derivation seed.
	MaxSeedLength = 32
	// MaxSeeds is the maximum number of seeds, bump included.
	MaxSeeds = 16

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("crypto: derivation seed too long")
	ErrTooManySeeds          = errors.New("crypto: too many derivation seeds")
	ErrAddressOnCurve        = errors.New("crypto: derived address lies on the ed25519 curve")
	ErrNoViableBump          = errors.New("crypto: no viable bump seed")
)

// CreateProgramAddress derives a record address from seeds and a program id.
// The result must not be a valid ed25519 point so that no private key can
// ever sign for it.
func CreateProgramAddress(seeds [][]byte, programID common.Address) (common.Address, error) {
	if len(seeds) > MaxSeeds {
		return common.Address{}, ErrTooManySeeds
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return common.Address{}, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var addr common.Address
	copy(addr[:], h.Sum(nil))
	if IsOnCurve(addr[:]) {
		return common.Address{}, ErrAddressOnCurve
	}
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 downwards and returns the
// first derived address that is off the curve together with its bump.
func FindProgramAddress(seeds [][]byte, programID common.Address) (common.Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return common.Address{}, 0, ErrTooManySeeds
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrAddressOnCurve) {
			return common.Address{}, 0, err
		}
	}
	return common.Address{}, 0, ErrNoViableBump
}

// IsOnCurve reports whether b is the compressed encoding of an ed25519 point.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
