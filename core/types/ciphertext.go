package types

import (
	"encoding/hex"
	"fmt"

	"github.com/tos-network/veilpay/params"
)

// Ciphertext is a 64 byte pair (C1, C2) of 32 byte group elements.
// The canonical encryption of zero is 64 zero bytes.
type Ciphertext [params.CiphertextSize]byte

// BytesToCiphertext copies b into a ciphertext. b must be exactly 64 bytes.
func BytesToCiphertext(b []byte) (Ciphertext, error) {
	var ct Ciphertext
	if len(b) != params.CiphertextSize {
		return ct, fmt.Errorf("%w: ciphertext is %d bytes", ErrInvalidRecord, len(b))
	}
	copy(ct[:], b)
	return ct, nil
}

// C1 returns the first group element.
func (c *Ciphertext) C1() []byte { return c[:params.ElgamalC1Size] }

// C2 returns the second group element.
func (c *Ciphertext) C2() []byte { return c[params.ElgamalC1Size:] }

// IsZero reports whether c is the canonical zero ciphertext.
func (c Ciphertext) IsZero() bool { return c == Ciphertext{} }

// Hex returns the 0x-prefixed hex encoding of c.
func (c Ciphertext) Hex() string { return "0x" + hex.EncodeToString(c[:]) }

// TerminalString implements log.TerminalStringer.
func (c Ciphertext) TerminalString() string {
	return fmt.Sprintf("%x..%x", c[:3], c[61:])
}

// MarshalText returns the hex representation of c.
func (c Ciphertext) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText parses a ciphertext in hex syntax.
func (c *Ciphertext) UnmarshalText(input []byte) error {
	return decodeHexFixed(input, c[:])
}

// CSPLConfig is the opaque system-wide parameter blob held by a mint.
type CSPLConfig [params.CSPLConfigSize]byte

// MarshalText returns the hex representation of c.
func (c CSPLConfig) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(c[:])), nil
}

// UnmarshalText parses a config blob in hex syntax.
func (c *CSPLConfig) UnmarshalText(input []byte) error {
	return decodeHexFixed(input, c[:])
}

func decodeHexFixed(input []byte, out []byte) error {
	s := string(input)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != 2*len(out) {
		return fmt.Errorf("%w: have %d hex chars, want %d", ErrInvalidRecord, len(s), 2*len(out))
	}
	_, err := hex.Decode(out, []byte(s))
	return err
}
