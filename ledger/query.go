package ledger

import (
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/privacy"
	"github.com/tos-network/veilpay/core/types"
)

// Mint returns the mint owned by authority, or ErrAccountNotFound.
func (l *Ledger) Mint(authority common.Address) (*types.Mint, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}
	addr, err := l.MintAddress(authority)
	if err != nil {
		return nil, err
	}
	mint, err := l.db.Mint(addr)
	if err != nil {
		return nil, err
	}
	if mint == nil {
		return nil, types.ErrAccountNotFound
	}
	return mint, nil
}

// BalanceOf returns the balance record of owner, or ErrAccountNotFound.
func (l *Ledger) BalanceOf(owner common.Address) (*types.ConfidentialBalance, error) {
	addr, err := l.BalanceAddress(owner)
	if err != nil {
		return nil, err
	}
	return l.Balance(addr)
}

// Balance returns the balance record stored at addr, or ErrAccountNotFound.
func (l *Ledger) Balance(addr common.Address) (*types.ConfidentialBalance, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}
	bal, err := l.db.Balance(addr)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return nil, types.ErrAccountNotFound
	}
	return bal, nil
}

// EventCount returns the number of events in the log.
func (l *Ledger) EventCount() uint64 {
	return l.db.EventCount()
}

// Events returns up to limit events starting at index from. A zero limit
// reads to the end of the log.
func (l *Ledger) Events(from uint64, limit int) ([]types.IndexedEvent, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}
	return l.db.Events(from, limit)
}

// Scan returns the transfers addressed to recipient under any of the given
// shared secrets among up to limit events starting at index from.
func (l *Ledger) Scan(recipient common.Address, secrets []common.Hash, from uint64, limit int) ([]privacy.Match, error) {
	events, err := l.Events(from, limit)
	if err != nil {
		return nil, err
	}
	return privacy.ScanTransfers(events, recipient, secrets), nil
}
