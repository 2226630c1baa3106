package crypto

import (
	"crypto/ed25519"
	"errors"
	"io"

	"github.com/tos-network/veilpay/common"
)

// SignatureLength is the size of an ed25519 signature.
const SignatureLength = ed25519.SignatureSize

var errInvalidSeed = errors.New("crypto: invalid ed25519 seed length")

// GenerateKey creates a fresh ed25519 signing key from rand.
func GenerateKey(rand io.Reader) (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand)
	return priv, err
}

// ToEd25519 rebuilds a private key from its 32 byte seed.
func ToEd25519(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errInvalidSeed
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// PubkeyToAddress returns the identity of a signing key.
func PubkeyToAddress(priv ed25519.PrivateKey) common.Address {
	return common.BytesToAddress(priv.Public().(ed25519.PublicKey))
}

// Sign signs digest with priv.
func Sign(digest []byte, priv ed25519.PrivateKey) []byte {
	return ed25519.Sign(priv, digest)
}

// VerifySignature checks that sig is a signature of digest by the identity
// signer.
func VerifySignature(signer common.Address, digest, sig []byte) bool {
	if len(sig) != SignatureLength {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(signer[:]), digest, sig)
}
