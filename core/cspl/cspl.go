// Package cspl implements the additive ciphertext group used for confidential
// balances.
//
// Ciphertexts combine byte-wise with wrapping arithmetic on each 32 byte half,
// so the group laws (commutativity, associativity, zero identity and
// Sub as the inverse of Add) hold exactly. The value extractor is a
// digest-derived pseudo-value, not a decryption.
package cspl

import (
	"encoding/binary"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/crypto"
)

var (
	tagC1 = []byte("c1")
	tagC2 = []byte("c2")

	// sentinelDigest is the digest checked against zero after every
	// operation.
	sentinelDigest = Digest
)

// Digest returns H(C1, C2).
func Digest(ct types.Ciphertext) common.Hash {
	return crypto.Keccak256Hash(ct.C1(), ct.C2())
}

// Value returns the pseudo-plaintext of ct: the first eight bytes of its
// digest read as a little-endian integer.
func Value(ct types.Ciphertext) uint64 {
	d := Digest(ct)
	return binary.LittleEndian.Uint64(d[:8])
}

func checkDigest(ct types.Ciphertext) error {
	if sentinelDigest(ct).IsZero() {
		return types.ErrInvalidEncryption
	}
	return nil
}

// Add returns a + b.
func Add(a, b types.Ciphertext) (types.Ciphertext, error) {
	var out types.Ciphertext
	for i := range out {
		out[i] = a[i] + b[i]
	}
	if err := checkDigest(out); err != nil {
		return types.Ciphertext{}, err
	}
	return out, nil
}

// Sub returns a - b.
func Sub(a, b types.Ciphertext) (types.Ciphertext, error) {
	var out types.Ciphertext
	for i := range out {
		out[i] = a[i] - b[i]
	}
	if err := checkDigest(out); err != nil {
		return types.Ciphertext{}, err
	}
	return out, nil
}

// AssertGE is the range check guarding every debit. It fails with
// ErrInsufficientBalance when the value of balance is below the value of
// amount, and with ErrInvalidEncryption when balance has a zero digest.
func AssertGE(balance, amount types.Ciphertext) error {
	if Value(balance) < Value(amount) {
		return types.ErrInsufficientBalance
	}
	return checkDigest(balance)
}

// EncryptAmount deterministically encodes a plaintext amount. It is a
// testing utility with no secrecy.
func EncryptAmount(amount uint64) types.Ciphertext {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], amount)

	var out types.Ciphertext
	copy(out[:32], crypto.Keccak256(le[:], tagC1))
	copy(out[32:], crypto.Keccak256(le[:], tagC2))
	return out
}
