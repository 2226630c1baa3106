package types

import (
	"encoding/binary"
	"fmt"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/params"
)

// Mint holds the program-wide parameters created by InitializeMint.
//
// Layout (97 bytes):
//
//	[0:32]  authority
//	[32:96] cspl_config
//	[96]    bump
type Mint struct {
	Authority  common.Address
	CSPLConfig CSPLConfig
	Bump       uint8
}

// MarshalBinary encodes the mint in its fixed record layout.
func (m *Mint) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, params.MintRecordSize)
	out = append(out, m.Authority[:]...)
	out = append(out, m.CSPLConfig[:]...)
	out = append(out, m.Bump)
	return out, nil
}

// UnmarshalBinary decodes a fixed record layout into m.
func (m *Mint) UnmarshalBinary(data []byte) error {
	if len(data) != params.MintRecordSize {
		return fmt.Errorf("%w: mint is %d bytes, want %d", ErrInvalidRecord, len(data), params.MintRecordSize)
	}
	copy(m.Authority[:], data[0:32])
	copy(m.CSPLConfig[:], data[32:96])
	m.Bump = data[96]
	return nil
}

// ConfidentialBalance is the per-owner encrypted balance record.
//
// Layout (105 bytes):
//
//	[0:32]   owner_commitment
//	[32:96]  encrypted_balance (C1 ‖ C2)
//	[96:104] nonce, little-endian
//	[104]    bump
type ConfidentialBalance struct {
	OwnerCommitment  common.Hash
	EncryptedBalance Ciphertext
	Nonce            uint64
	Bump             uint8
}

// MarshalBinary encodes the balance in its fixed record layout.
func (b *ConfidentialBalance) MarshalBinary() ([]byte, error) {
	out := make([]byte, params.BalanceRecordSize)
	copy(out[0:32], b.OwnerCommitment[:])
	copy(out[32:96], b.EncryptedBalance[:])
	binary.LittleEndian.PutUint64(out[96:104], b.Nonce)
	out[104] = b.Bump
	return out, nil
}

// UnmarshalBinary decodes a fixed record layout into b.
func (b *ConfidentialBalance) UnmarshalBinary(data []byte) error {
	if len(data) != params.BalanceRecordSize {
		return fmt.Errorf("%w: balance is %d bytes, want %d", ErrInvalidRecord, len(data), params.BalanceRecordSize)
	}
	copy(b.OwnerCommitment[:], data[0:32])
	copy(b.EncryptedBalance[:], data[32:96])
	b.Nonce = binary.LittleEndian.Uint64(data[96:104])
	b.Bump = data[104]
	return nil
}

// Copy returns a deep copy of the record.
func (b *ConfidentialBalance) Copy() *ConfidentialBalance {
	cpy := *b
	return &cpy
}
