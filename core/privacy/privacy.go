// Package privacy holds the one-way derivations that let a ledger bind
// balances to owners and let recipients recognize transfers without
// revealing identities or amounts.
package privacy

import (
	"crypto/subtle"
	"encoding/binary"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/crypto"
)

// OwnerCommitment binds a balance record to its owner.
func OwnerCommitment(owner common.Address) common.Hash {
	return crypto.Keccak256Hash(owner[:])
}

// EncryptedTag lets a recipient holding secret recognize a transfer.
func EncryptedTag(recipient common.Address, secret common.Hash) common.Hash {
	return crypto.Keccak256Hash(recipient[:], secret[:])
}

// CommitmentHash binds an encrypted amount to a nonce and a recipient.
func CommitmentHash(amount types.Ciphertext, nonce uint64, recipient common.Address) common.Hash {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], nonce)
	return crypto.Keccak256Hash(amount[:], le[:], recipient[:])
}

// StealthAddress derives a one-time receive identifier.
func StealthAddress(recipient common.Address, secret common.Hash) common.Hash {
	tag := EncryptedTag(recipient, secret)
	return crypto.Keccak256Hash(recipient[:], tag[:])
}

// VerifyCommitmentHash recomputes a commitment hash and compares it with the
// claimed one in constant time.
func VerifyCommitmentHash(claimed common.Hash, amount types.Ciphertext, nonce uint64, recipient common.Address) bool {
	want := CommitmentHash(amount, nonce, recipient)
	return subtle.ConstantTimeCompare(claimed[:], want[:]) == 1
}

// VerifyEncryptedTag recomputes a tag and compares it with the claimed one in
// constant time.
func VerifyEncryptedTag(claimed common.Hash, recipient common.Address, secret common.Hash) bool {
	want := EncryptedTag(recipient, secret)
	return subtle.ConstantTimeCompare(claimed[:], want[:]) == 1
}

// Match is a transfer event recognized by a recipient scan.
type Match struct {
	Index  uint64
	Event  *types.PrivateTransferEvent
	Secret common.Hash
}

// ScanTransfers returns the transfer events whose tag was produced for
// recipient under one of the candidate secrets, in log order.
func ScanTransfers(events []types.IndexedEvent, recipient common.Address, secrets []common.Hash) []Match {
	if len(secrets) == 0 {
		return nil
	}
	tags := make([]common.Hash, len(secrets))
	for i, s := range secrets {
		tags[i] = EncryptedTag(recipient, s)
	}
	var matches []Match
	for _, ie := range events {
		ev, ok := ie.Event.(*types.PrivateTransferEvent)
		if !ok {
			continue
		}
		for i, tag := range tags {
			if subtle.ConstantTimeCompare(ev.EncryptedTag[:], tag[:]) == 1 {
				matches = append(matches, Match{Index: ie.Index, Event: ev, Secret: secrets[i]})
				break
			}
		}
	}
	return matches
}
