// Package ledger hosts the confidential balance state machine: it
// authenticates signed instructions, derives record addresses, serializes
// access to records, executes the state transitions and persists their
// results.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core"
	"github.com/tos-network/veilpay/core/parallel"
	"github.com/tos-network/veilpay/core/state"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/log"
	"github.com/tos-network/veilpay/params"
	"github.com/tos-network/veilpay/tosdb"
	"github.com/tos-network/veilpay/tosdb/leveldb"
	"github.com/tos-network/veilpay/tosdb/memorydb"
)

var (
	// ErrAccountExists is returned when an instruction would create a record
	// at an address that is already taken.
	ErrAccountExists = errors.New("account already exists")

	// ErrClosed is returned when the ledger is used after Close.
	ErrClosed = errors.New("ledger closed")
)

// Receipt is the outcome of one instruction.
type Receipt struct {
	TxHash common.Hash
	Action uint8
	Signer common.Address
	Record common.Address       // Record created, or debited by a transfer
	Events []types.IndexedEvent // Events appended to the log, in order
	Err    error                // Rejection reason; nil if applied
}

// Succeeded reports whether the instruction was applied.
func (r *Receipt) Succeeded() bool { return r.Err == nil }

// Ledger is a confidential balance ledger backed by a key-value store.
type Ledger struct {
	config Config
	db     *state.Database
	clock  core.Clock
	locks  lockTable
	addrs  *addressCache
	log    log.Logger
	closed int32
}

// Open opens the ledger stored in config.DataDir, or an in-memory ledger if
// no directory is configured.
func Open(config *Config) (*Ledger, error) {
	var (
		disk tosdb.Database
		err  error
	)
	if config.DataDir == "" {
		disk = memorydb.New()
	} else {
		disk, err = leveldb.New(config.DataDir, config.DatabaseCache, config.DatabaseHandles, false)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
	}
	l, err := New(disk, config, nil)
	if err != nil {
		disk.Close()
		return nil, err
	}
	return l, nil
}

// New creates a ledger on top of disk. A nil clock numbers slots from the
// genesis time recorded in disk.
func New(disk tosdb.Database, config *Config, clock core.Clock) (*Ledger, error) {
	cfg := config.sanitize()
	addrs, err := newAddressCache(cfg.AddressCacheSize)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = NewSlotClock(disk, cfg.SlotDuration)
	}
	l := &Ledger{
		config: cfg,
		db:     state.NewDatabase(disk, cfg.RecordCacheBytes),
		clock:  clock,
		addrs:  addrs,
		log:    log.New("program", params.ProgramID),
	}
	l.log.Debug("Opened ledger", "events", l.db.EventCount(), "parallel", cfg.Parallel, "maxbatch", cfg.MaxBatchSize)
	return l, nil
}

// Close flushes nothing and releases the backing store.
func (l *Ledger) Close() error {
	if !atomic.CompareAndSwapInt32(&l.closed, 0, 1) {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) isClosed() bool { return atomic.LoadInt32(&l.closed) == 1 }

// MintAddress returns the record address of the mint owned by authority.
func (l *Ledger) MintAddress(authority common.Address) (common.Address, error) {
	addr, _, err := l.addrs.derive(params.MintSeed, authority)
	return addr, err
}

// BalanceAddress returns the record address of owner's balance.
func (l *Ledger) BalanceAddress(owner common.Address) (common.Address, error) {
	addr, _, err := l.addrs.derive(params.BalanceSeed, owner)
	return addr, err
}

// Apply authenticates and executes a single instruction. A rejected
// instruction yields its receipt together with the rejection error; a nil
// receipt means the ledger itself failed.
func (l *Ledger) Apply(ctx context.Context, tx *types.SignedInstruction) (*Receipt, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	access := parallel.AnalyzeInstruction(tx, l)
	unlock := l.locks.lock(access.Addresses())
	defer unlock()

	ws, receipt, err := l.execute(tx)
	if err != nil {
		return nil, err
	}
	if receipt.Err != nil {
		return receipt, receipt.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.stageGenesis(ws)
	first, err := l.db.Commit(ws)
	if err != nil {
		return nil, err
	}
	l.genesisCommitted()
	receipt.Events = indexEvents(first[0], ws.Events())
	return receipt, nil
}

// ApplyBatch executes txs as one unit of scheduling. Non-conflicting
// instructions run concurrently; results are committed level by level in
// submission order. Rejections are reported per receipt, only ledger
// failures abort the batch.
func (l *Ledger) ApplyBatch(ctx context.Context, txs []*types.SignedInstruction) ([]*Receipt, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}
	if len(txs) > l.config.MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d, limit %d", types.ErrTransactionLimitExceeded, len(txs), l.config.MaxBatchSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		sets     = make([]parallel.AccessSet, len(txs))
		union    = parallel.NewAccessSet()
		writes   = make([]*state.WriteSet, len(txs))
		receipts = make([]*Receipt, len(txs))
	)
	for i, tx := range txs {
		sets[i] = parallel.AnalyzeInstruction(tx, l)
		union.Merge(&sets[i])
	}
	unlock := l.locks.lock(union.Addresses())
	defer unlock()

	exec := func(ctx context.Context, idx int) error {
		ws, receipt, err := l.execute(txs[idx])
		if err != nil {
			return fmt.Errorf("instruction %d [%x]: %w", idx, txs[idx].Hash(), err)
		}
		writes[idx], receipts[idx] = ws, receipt
		return nil
	}
	commit := func(level []int) error {
		var (
			applied []int
			pending []*state.WriteSet
		)
		for _, idx := range level {
			if receipts[idx].Err == nil {
				applied = append(applied, idx)
				pending = append(pending, writes[idx])
			}
		}
		if len(pending) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		l.stageGenesis(pending[0])
		first, err := l.db.Commit(pending...)
		if err != nil {
			return err
		}
		l.genesisCommitted()
		for i, idx := range applied {
			receipts[idx].Events = indexEvents(first[i], writes[idx].Events())
		}
		return nil
	}
	if err := parallel.ExecuteLevels(ctx, sets, l.config.Parallel, exec, commit); err != nil {
		return nil, err
	}
	l.log.Debug("Applied instruction batch", "size", len(txs))
	return receipts, nil
}

// stageGenesis attaches a not yet persisted genesis time to ws.
func (l *Ledger) stageGenesis(ws *state.WriteSet) {
	if sc, ok := l.clock.(*SlotClock); ok {
		if genesis, pending := sc.pendingGenesis(); pending {
			ws.SetGenesis(genesis)
		}
	}
}

func (l *Ledger) genesisCommitted() {
	if sc, ok := l.clock.(*SlotClock); ok {
		sc.markRecorded()
	}
}

func indexEvents(first uint64, events []types.Event) []types.IndexedEvent {
	out := make([]types.IndexedEvent, len(events))
	for i, ev := range events {
		out[i] = types.IndexedEvent{Index: first + uint64(i), Event: ev}
	}
	return out
}

// execute runs one instruction against committed state without writing it.
// The returned error is reserved for ledger failures; rejections are carried
// in the receipt.
func (l *Ledger) execute(tx *types.SignedInstruction) (*state.WriteSet, *Receipt, error) {
	ws := state.NewWriteSet()
	receipt := &Receipt{TxHash: tx.Hash(), Signer: tx.Signer}

	reject := func(err error) (*state.WriteSet, *Receipt, error) {
		receipt.Err = err
		code, _ := types.CodeOf(err)
		l.log.Debug("Rejected instruction", "hash", receipt.TxHash, "action", types.ActionName(receipt.Action), "code", code, "err", err)
		return ws, receipt, nil
	}
	if err := tx.Verify(); err != nil {
		return reject(err)
	}
	env, err := types.DecodeEnvelope(tx.Data)
	if err != nil {
		return reject(err)
	}
	receipt.Action = env.Action
	tctx := &core.TransitionContext{Clock: l.clock, Events: ws}

	switch env.Action {
	case types.ActionInitializeMint:
		payload, err := types.DecodeInitializeMintPayload(env.Body)
		if err != nil {
			return reject(err)
		}
		addr, bump, err := l.addrs.derive(params.MintSeed, tx.Signer)
		if err != nil {
			return reject(err)
		}
		existing, err := l.db.Mint(addr)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			return reject(ErrAccountExists)
		}
		ws.SetMint(addr, core.InitializeMint(tx.Signer, payload.CSPLConfig, bump))
		receipt.Record = addr

	case types.ActionInitBalance:
		if len(env.Body) != 0 {
			return reject(types.ErrInvalidInstruction)
		}
		addr, bump, err := l.addrs.derive(params.BalanceSeed, tx.Signer)
		if err != nil {
			return reject(err)
		}
		existing, err := l.db.Balance(addr)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			return reject(ErrAccountExists)
		}
		ws.SetBalance(addr, core.InitBalance(tctx, tx.Signer, bump))
		receipt.Record = addr

	case types.ActionPrivateTransfer:
		payload, err := types.DecodePrivateTransferPayload(env.Body)
		if err != nil {
			return reject(err)
		}
		receipt.Record = payload.SenderBalance
		if payload.SenderBalance == payload.ReceiverBalance {
			return reject(core.ErrAliasedBalance)
		}
		sender, err := l.db.Balance(payload.SenderBalance)
		if err != nil {
			return nil, nil, err
		}
		receiver, err := l.db.Balance(payload.ReceiverBalance)
		if err != nil {
			return nil, nil, err
		}
		if sender == nil || receiver == nil {
			return reject(types.ErrAccountNotFound)
		}
		if err := core.PrivateTransfer(tctx, tx.Signer, sender, receiver, payload.TransferArgs); err != nil {
			return reject(err)
		}
		ws.SetBalance(payload.SenderBalance, sender)
		ws.SetBalance(payload.ReceiverBalance, receiver)

	default:
		return reject(types.ErrInvalidTransactionType)
	}
	l.log.Trace("Executed instruction", "hash", receipt.TxHash, "action", types.ActionName(env.Action), "record", receipt.Record)
	return ws, receipt, nil
}
