package ledger

import (
	"context"
	"crypto/ed25519"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core"
	"github.com/tos-network/veilpay/core/cspl"
	"github.com/tos-network/veilpay/core/privacy"
	"github.com/tos-network/veilpay/core/rawdb"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/crypto"
	"github.com/tos-network/veilpay/params"
	"github.com/tos-network/veilpay/tosdb/memorydb"
)

type testClock struct {
	mu  sync.Mutex
	now core.Timestamp
}

func (c *testClock) Now() core.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func newTestLedger(t *testing.T) (*Ledger, *testClock) {
	t.Helper()
	clock := &testClock{now: core.Timestamp{Slot: 10, UnixSeconds: 1_700_000_000}}
	cfg := Defaults
	cfg.Parallel = 4
	l, err := New(memorydb.New(), &cfg, clock)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, clock
}

func newKey(t *testing.T, seed byte) (ed25519.PrivateKey, common.Address) {
	t.Helper()
	s := make([]byte, ed25519.SeedSize)
	s[0], s[31] = seed, 0x5a
	priv, err := crypto.ToEd25519(s)
	require.NoError(t, err)
	return priv, crypto.PubkeyToAddress(priv)
}

func mustApply(t *testing.T, l *Ledger, tx *types.SignedInstruction) *Receipt {
	t.Helper()
	receipt, err := l.Apply(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())
	return receipt
}

func transfer(t *testing.T, l *Ledger, key ed25519.PrivateKey, from, to common.Address, amount types.Ciphertext, nonce uint64) *types.SignedInstruction {
	t.Helper()
	sendAddr, err := l.BalanceAddress(from)
	require.NoError(t, err)
	recvAddr, err := l.BalanceAddress(to)
	require.NoError(t, err)
	return types.SignInstruction(types.NewPrivateTransfer(types.PrivateTransferPayload{
		SenderBalance:   sendAddr,
		ReceiverBalance: recvAddr,
		TransferArgs: types.TransferArgs{
			EncryptedAmount: amount,
			ExpectedNonce:   nonce,
			CommitmentHash:  privacy.CommitmentHash(amount, nonce, to),
			EncryptedTag:    privacy.EncryptedTag(to, common.Hash{0x5e}),
		},
	}), key)
}

func TestInitializeMint(t *testing.T) {
	l, _ := newTestLedger(t)
	key, authority := newKey(t, 1)

	var cfg types.CSPLConfig
	cfg[0] = 0xC0
	receipt := mustApply(t, l, types.SignInstruction(types.NewInitializeMint(cfg), key))
	assert.Empty(t, receipt.Events)

	mint, err := l.Mint(authority)
	require.NoError(t, err)
	assert.Equal(t, authority, mint.Authority)
	assert.Equal(t, cfg, mint.CSPLConfig)

	addr, bump, err := crypto.FindProgramAddress([][]byte{[]byte(params.MintSeed), authority[:]}, params.ProgramID)
	require.NoError(t, err)
	assert.Equal(t, addr, receipt.Record)
	assert.Equal(t, bump, mint.Bump)

	receipt, err = l.Apply(context.Background(), types.SignInstruction(types.NewInitializeMint(cfg), key))
	assert.ErrorIs(t, err, ErrAccountExists)
	assert.False(t, receipt.Succeeded())
}

func TestInitBalance(t *testing.T) {
	l, _ := newTestLedger(t)
	key, owner := newKey(t, 1)

	receipt := mustApply(t, l, types.SignInstruction(types.NewInitBalance(), key))
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, uint64(0), receipt.Events[0].Index)
	assert.Equal(t, &types.BalanceInitializedEvent{
		OwnerCommitment: privacy.OwnerCommitment(owner),
		Slot:            10,
		UnixSeconds:     1_700_000_000,
	}, receipt.Events[0].Event)

	bal, err := l.BalanceOf(owner)
	require.NoError(t, err)
	assert.True(t, bal.EncryptedBalance.IsZero())
	assert.Equal(t, uint64(0), bal.Nonce)

	_, err = l.Apply(context.Background(), types.SignInstruction(types.NewInitBalance(), key))
	assert.ErrorIs(t, err, ErrAccountExists)
	assert.Equal(t, uint64(1), l.EventCount())
}

func TestUnauthorizedSender(t *testing.T) {
	l, _ := newTestLedger(t)
	key, _ := newKey(t, 1)
	_, other := newKey(t, 2)

	tx := types.SignInstruction(types.NewInitBalance(), key)
	tx.Signer = other
	receipt, err := l.Apply(context.Background(), tx)
	assert.ErrorIs(t, err, types.ErrUnauthorizedSender)
	code, ok := types.CodeOf(receipt.Err)
	assert.True(t, ok)
	assert.Equal(t, types.CodeUnauthorizedSender, code)

	_, err = l.BalanceOf(other)
	assert.ErrorIs(t, err, types.ErrAccountNotFound)
}

func TestUnknownAction(t *testing.T) {
	l, _ := newTestLedger(t)
	key, _ := newKey(t, 1)
	data := append([]byte(params.InstructionPrefix), 0x42)
	_, err := l.Apply(context.Background(), types.SignInstruction(data, key))
	assert.ErrorIs(t, err, types.ErrInvalidTransactionType)
}

func TestPrivateTransferEndToEnd(t *testing.T) {
	l, clock := newTestLedger(t)
	keyA, ownerA := newKey(t, 1)
	keyB, ownerB := newKey(t, 2)
	mustApply(t, l, types.SignInstruction(types.NewInitBalance(), keyA))
	mustApply(t, l, types.SignInstruction(types.NewInitBalance(), keyB))

	clock.now = core.Timestamp{Slot: 11, UnixSeconds: 1_700_000_001}
	amount := cspl.EncryptAmount(100)
	tx := transfer(t, l, keyA, ownerA, ownerB, amount, 0)
	receipt := mustApply(t, l, tx)

	require.Len(t, receipt.Events, 1)
	assert.Equal(t, uint64(2), receipt.Events[0].Index)
	ev := receipt.Events[0].Event.(*types.PrivateTransferEvent)
	assert.Equal(t, uint64(11), ev.Slot)
	assert.Equal(t, params.EventTypeTransfer, ev.EventType)

	balA, err := l.BalanceOf(ownerA)
	require.NoError(t, err)
	balB, err := l.BalanceOf(ownerB)
	require.NoError(t, err)
	wantA, _ := cspl.Sub(types.Ciphertext{}, amount)
	assert.Equal(t, wantA, balA.EncryptedBalance)
	assert.Equal(t, amount, balB.EncryptedBalance)
	assert.Equal(t, uint64(1), balA.Nonce)
	assert.Equal(t, uint64(1), balB.Nonce)
	assert.Equal(t, balA.Bump, ev.SenderBump)

	// Replays fail on the nonce and leave state alone.
	_, err = l.Apply(context.Background(), tx)
	assert.ErrorIs(t, err, types.ErrInvalidNonce)
	again, _ := l.BalanceOf(ownerA)
	assert.Equal(t, balA, again)

	// B cannot spend from A's balance.
	_, err = l.Apply(context.Background(), transfer(t, l, keyB, ownerA, ownerB, amount, 1))
	assert.ErrorIs(t, err, types.ErrUnauthorizedAccess)

	// The recipient finds the transfer by scanning.
	matches, err := l.Scan(ownerB, []common.Hash{{0x01}, {0x5e}}, 0, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(2), matches[0].Index)
	assert.True(t, privacy.VerifyCommitmentHash(matches[0].Event.CommitmentHash, amount, 0, ownerB))
}

func TestPrivateTransferRejections(t *testing.T) {
	l, _ := newTestLedger(t)
	keyA, ownerA := newKey(t, 1)
	_, ownerB := newKey(t, 2)
	mustApply(t, l, types.SignInstruction(types.NewInitBalance(), keyA))

	_, err := l.Apply(context.Background(), transfer(t, l, keyA, ownerA, ownerB, cspl.EncryptAmount(100), 0))
	assert.ErrorIs(t, err, types.ErrAccountNotFound)

	_, err = l.Apply(context.Background(), transfer(t, l, keyA, ownerA, ownerA, cspl.EncryptAmount(100), 0))
	assert.ErrorIs(t, err, core.ErrAliasedBalance)

	bal, _ := l.BalanceOf(ownerA)
	assert.Equal(t, uint64(0), bal.Nonce)
	assert.Equal(t, uint64(1), l.EventCount())
}

func TestApplyBatch(t *testing.T) {
	l, _ := newTestLedger(t)
	var (
		keys   []ed25519.PrivateKey
		owners []common.Address
		inits  []*types.SignedInstruction
	)
	for i := byte(1); i <= 8; i++ {
		key, owner := newKey(t, i)
		keys, owners = append(keys, key), append(owners, owner)
		inits = append(inits, types.SignInstruction(types.NewInitBalance(), key))
	}
	// A duplicate initialization lands in a later level and is rejected.
	inits = append(inits, types.SignInstruction(types.NewInitBalance(), keys[0]))

	receipts, err := l.ApplyBatch(context.Background(), inits)
	require.NoError(t, err)
	require.Len(t, receipts, 9)
	for i := 0; i < 8; i++ {
		require.True(t, receipts[i].Succeeded(), "receipt %d: %v", i, receipts[i].Err)
		assert.Equal(t, uint64(i), receipts[i].Events[0].Index)
	}
	assert.ErrorIs(t, receipts[8].Err, ErrAccountExists)

	// Pairwise transfers touch disjoint records and a chained one follows.
	amount := cspl.EncryptAmount(100)
	txs := []*types.SignedInstruction{
		transfer(t, l, keys[0], owners[0], owners[1], amount, 0),
		transfer(t, l, keys[2], owners[2], owners[3], amount, 0),
		transfer(t, l, keys[4], owners[4], owners[5], amount, 0),
		transfer(t, l, keys[1], owners[1], owners[6], amount, 1),
		transfer(t, l, keys[7], owners[7], owners[6], amount, 5),
	}
	receipts, err = l.ApplyBatch(context.Background(), txs)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		require.True(t, receipts[i].Succeeded(), "receipt %d: %v", i, receipts[i].Err)
	}
	assert.ErrorIs(t, receipts[4].Err, types.ErrInvalidNonce)

	for i := 0; i < 4; i++ {
		assert.Equal(t, uint64(8+i), receipts[i].Events[0].Index)
	}
	bal, err := l.BalanceOf(owners[1])
	require.NoError(t, err)
	assert.Equal(t, uint64(2), bal.Nonce)
	bal, err = l.BalanceOf(owners[6])
	require.NoError(t, err)
	assert.Equal(t, uint64(1), bal.Nonce)
	assert.Equal(t, amount, bal.EncryptedBalance)
	assert.Equal(t, uint64(12), l.EventCount())
}

func TestApplyBatchLimit(t *testing.T) {
	cfg := Defaults
	cfg.MaxBatchSize = 2
	l, err := New(memorydb.New(), &cfg, &testClock{})
	require.NoError(t, err)
	defer l.Close()

	key, _ := newKey(t, 1)
	tx := types.SignInstruction(types.NewInitBalance(), key)
	_, err = l.ApplyBatch(context.Background(), []*types.SignedInstruction{tx, tx, tx})
	assert.ErrorIs(t, err, types.ErrTransactionLimitExceeded)
	assert.Equal(t, uint64(0), l.EventCount())
}

func TestConcurrentTransfersSerialize(t *testing.T) {
	l, _ := newTestLedger(t)
	keyA, ownerA := newKey(t, 1)
	keyB, ownerB := newKey(t, 2)
	mustApply(t, l, types.SignInstruction(types.NewInitBalance(), keyA))
	mustApply(t, l, types.SignInstruction(types.NewInitBalance(), keyB))

	// Every caller races for nonce 0; exactly one may win.
	var (
		tx      = transfer(t, l, keyA, ownerA, ownerB, cspl.EncryptAmount(100), 0)
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		stale   int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Apply(context.Background(), tx)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, types.ErrInvalidNonce):
				stale++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
	assert.Equal(t, 15, stale)
}

func TestClosedLedger(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.Close())
	key, owner := newKey(t, 1)
	_, err := l.Apply(context.Background(), types.SignInstruction(types.NewInitBalance(), key))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = l.BalanceOf(owner)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCancelledContext(t *testing.T) {
	l, _ := newTestLedger(t)
	key, _ := newKey(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Apply(ctx, types.SignInstruction(types.NewInitBalance(), key))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), l.EventCount())
}

func TestSlotClock(t *testing.T) {
	db := memorydb.New()
	genesis := time.Unix(1_700_000_000, 0)
	rawdb.WriteGenesisTime(db, genesis)

	clock := NewSlotClock(db, time.Second)
	assert.True(t, genesis.Equal(clock.Genesis()))
	_, pending := clock.pendingGenesis()
	assert.False(t, pending)

	clock.now = func() time.Time { return genesis.Add(2500 * time.Millisecond) }
	now := clock.Now()
	assert.Equal(t, uint64(2), now.Slot)
	assert.Equal(t, genesis.Add(2500*time.Millisecond).Unix(), now.UnixSeconds)

	clock.now = func() time.Time { return genesis.Add(-time.Hour) }
	assert.Equal(t, uint64(0), clock.Now().Slot)
}

func TestGenesisWrittenWithFirstTransition(t *testing.T) {
	db := memorydb.New()
	cfg := Defaults
	l, err := New(db, &cfg, nil)
	require.NoError(t, err)
	defer l.Close()
	clock := l.clock.(*SlotClock)

	// Queries and rejected instructions leave the genesis unset.
	key, owner := newKey(t, 9)
	_, err = l.BalanceOf(owner)
	assert.ErrorIs(t, err, types.ErrAccountNotFound)
	_, err = l.Events(0, 0)
	require.NoError(t, err)
	_, err = l.Apply(context.Background(), types.SignInstruction([]byte("bogus"), key))
	require.Error(t, err)
	_, ok := rawdb.ReadGenesisTime(db)
	assert.False(t, ok)

	// The in-memory origin is the one persisted.
	mustApply(t, l, types.SignInstruction(types.NewInitBalance(), key))
	stored, ok := rawdb.ReadGenesisTime(db)
	require.True(t, ok)
	assert.True(t, clock.Genesis().Equal(stored))
	_, pending := clock.pendingGenesis()
	assert.False(t, pending)

	reopened := NewSlotClock(db, time.Second)
	assert.True(t, stored.Equal(reopened.Genesis()))
}

func TestGenesisWrittenByBatch(t *testing.T) {
	db := memorydb.New()
	cfg := Defaults
	l, err := New(db, &cfg, nil)
	require.NoError(t, err)
	defer l.Close()

	key, _ := newKey(t, 10)
	receipts, err := l.ApplyBatch(context.Background(), []*types.SignedInstruction{
		types.SignInstruction(types.NewInitBalance(), key),
	})
	require.NoError(t, err)
	require.True(t, receipts[0].Succeeded())
	stored, ok := rawdb.ReadGenesisTime(db)
	require.True(t, ok)
	assert.True(t, l.clock.(*SlotClock).Genesis().Equal(stored))
}

func TestLockTableStripes(t *testing.T) {
	var table lockTable
	a, b := common.Address{1}, common.Address{2}
	unlock := table.lock([]common.Address{a, b, a})
	done := make(chan struct{})
	go func() {
		release := table.lock([]common.Address{b})
		release()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("second locker acquired a held stripe")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-done
}
