// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package core

import (
	"errors"
	"math"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/cspl"
	"github.com/tos-network/veilpay/core/privacy"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/params"
)

var (
	// ErrAliasedBalance is returned when a transfer names the same balance
	// record as sender and receiver.
	ErrAliasedBalance = errors.New("sender and receiver balance are the same record")

	// ErrNonceOverflow is returned when a balance nonce cannot be advanced.
	ErrNonceOverflow = errors.New("balance nonce overflow")
)

// Timestamp is the ledger time observed by a transition.
type Timestamp struct {
	Slot        uint64
	UnixSeconds int64
}

// Clock supplies the time stamped into events.
type Clock interface {
	Now() Timestamp
}

// EventSink receives the events emitted by successful transitions.
type EventSink interface {
	Emit(ev types.Event)
}

// EventBuffer is an EventSink collecting events in emission order.
type EventBuffer []types.Event

func (b *EventBuffer) Emit(ev types.Event) { *b = append(*b, ev) }

// TransitionContext carries the environment of a single transition.
type TransitionContext struct {
	Clock  Clock
	Events EventSink
}

func (ctx *TransitionContext) emit(ev types.Event) {
	if ctx.Events != nil {
		ctx.Events.Emit(ev)
	}
}

// InitializeMint creates the program-wide mint record. The authority must
// have authorized the call; bump is the one found by address derivation.
func InitializeMint(authority common.Address, config types.CSPLConfig, bump uint8) *types.Mint {
	return &types.Mint{
		Authority:  authority,
		CSPLConfig: config,
		Bump:       bump,
	}
}

// InitBalance creates the empty balance record of owner and emits a
// BalanceInitializedEvent.
func InitBalance(ctx *TransitionContext, owner common.Address, bump uint8) *types.ConfidentialBalance {
	bal := &types.ConfidentialBalance{
		OwnerCommitment: privacy.OwnerCommitment(owner),
		Bump:            bump,
	}
	now := ctx.Clock.Now()
	ctx.emit(&types.BalanceInitializedEvent{
		OwnerCommitment: bal.OwnerCommitment,
		Slot:            now.Slot,
		UnixSeconds:     now.UnixSeconds,
	})
	return bal
}

// PrivateTransfer moves an encrypted amount from senderBal to receiverBal.
//
// All checks and ciphertext arithmetic run before the first write, so a
// failed transfer leaves both records untouched and emits nothing.
func PrivateTransfer(ctx *TransitionContext, sender common.Address, senderBal, receiverBal *types.ConfidentialBalance, args types.TransferArgs) error {
	if senderBal == nil || receiverBal == nil {
		return types.ErrAccountNotFound
	}
	if senderBal == receiverBal {
		return ErrAliasedBalance
	}
	if senderBal.OwnerCommitment != privacy.OwnerCommitment(sender) {
		return types.ErrUnauthorizedAccess
	}
	if senderBal.Nonce != args.ExpectedNonce {
		return types.ErrInvalidNonce
	}
	if err := cspl.AssertGE(senderBal.EncryptedBalance, args.EncryptedAmount); err != nil {
		return err
	}
	nextSender, err := cspl.Sub(senderBal.EncryptedBalance, args.EncryptedAmount)
	if err != nil {
		return err
	}
	nextReceiver, err := cspl.Add(receiverBal.EncryptedBalance, args.EncryptedAmount)
	if err != nil {
		return err
	}
	if senderBal.Nonce == math.MaxUint64 || receiverBal.Nonce == math.MaxUint64 {
		return ErrNonceOverflow
	}
	now := ctx.Clock.Now()

	senderBal.EncryptedBalance = nextSender
	receiverBal.EncryptedBalance = nextReceiver
	senderBal.Nonce++
	receiverBal.Nonce++

	ctx.emit(&types.PrivateTransferEvent{
		CommitmentHash: args.CommitmentHash,
		EncryptedTag:   args.EncryptedTag,
		Slot:           now.Slot,
		UnixSeconds:    now.UnixSeconds,
		EventType:      params.EventTypeTransfer,
		SenderBump:     senderBal.Bump,
	})
	return nil
}
