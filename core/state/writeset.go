package state

import (
	"time"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/types"
)

// WriteSet stages the records and events produced by one instruction. It
// implements core.EventSink.
type WriteSet struct {
	mints        map[common.Address]*types.Mint
	mintOrder    []common.Address
	balances     map[common.Address]*types.ConfidentialBalance
	balanceOrder []common.Address
	events       []types.Event
	genesis      *time.Time
}

// NewWriteSet creates an empty write set.
func NewWriteSet() *WriteSet {
	return &WriteSet{
		mints:    make(map[common.Address]*types.Mint),
		balances: make(map[common.Address]*types.ConfidentialBalance),
	}
}

// SetMint stages a mint record at addr.
func (ws *WriteSet) SetMint(addr common.Address, mint *types.Mint) {
	if _, ok := ws.mints[addr]; !ok {
		ws.mintOrder = append(ws.mintOrder, addr)
	}
	ws.mints[addr] = mint
}

// SetBalance stages a balance record at addr.
func (ws *WriteSet) SetBalance(addr common.Address, bal *types.ConfidentialBalance) {
	if _, ok := ws.balances[addr]; !ok {
		ws.balanceOrder = append(ws.balanceOrder, addr)
	}
	ws.balances[addr] = bal
}

// Emit stages an event.
func (ws *WriteSet) Emit(ev types.Event) {
	ws.events = append(ws.events, ev)
}

// SetGenesis stages the origin of slot numbering.
func (ws *WriteSet) SetGenesis(genesis time.Time) {
	ws.genesis = &genesis
}

// Events returns the staged events in emission order.
func (ws *WriteSet) Events() []types.Event {
	return ws.events
}

// Empty reports whether nothing is staged.
func (ws *WriteSet) Empty() bool {
	return len(ws.mintOrder) == 0 && len(ws.balanceOrder) == 0 && len(ws.events) == 0 && ws.genesis == nil
}
