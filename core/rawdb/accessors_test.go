package rawdb

import (
	"testing"
	"time"

	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/tosdb/memorydb"
)

func TestRecordStorage(t *testing.T) {
	db := memorydb.New()
	addr := common.Address{0x01}

	if ReadMint(db, addr) != nil || HasMint(db, addr) {
		t.Fatal("non-existent mint returned")
	}
	mint := &types.Mint{Authority: common.Address{0xAA}, Bump: 250}
	WriteMint(db, addr, mint)
	if got := ReadMint(db, addr); got == nil || *got != *mint {
		t.Fatalf("mint mismatch: %v", got)
	}
	if !HasMint(db, addr) {
		t.Fatal("mint not found")
	}

	if ReadBalance(db, addr) != nil || HasBalance(db, addr) {
		t.Fatal("non-existent balance returned")
	}
	bal := &types.ConfidentialBalance{OwnerCommitment: common.Hash{0x02}, Nonce: 3, Bump: 9}
	WriteBalance(db, addr, bal)
	if got := ReadBalance(db, addr); got == nil || *got != *bal {
		t.Fatalf("balance mismatch: %v", got)
	}

	// Mints and balances live in separate namespaces.
	if len(ReadMintBytes(db, addr)) != 97 || len(ReadBalanceBytes(db, addr)) != 105 {
		t.Fatal("records overlap")
	}

	WriteBalanceBytes(db, common.Address{0x03}, []byte{1, 2, 3})
	if ReadBalance(db, common.Address{0x03}) != nil {
		t.Fatal("corrupt balance decoded")
	}
}

func TestEventStorage(t *testing.T) {
	db := memorydb.New()
	if ReadEventSequence(db) != 0 {
		t.Fatal("fresh database has events")
	}
	for i := uint64(0); i < 300; i++ {
		var ev types.Event
		if i%2 == 0 {
			ev = &types.BalanceInitializedEvent{Slot: i}
		} else {
			ev = &types.PrivateTransferEvent{Slot: i}
		}
		WriteEvent(db, i, ev)
	}
	WriteEventSequence(db, 300)
	if ReadEventSequence(db) != 300 {
		t.Fatalf("sequence = %d", ReadEventSequence(db))
	}
	if ev, ok := ReadEvent(db, 7).(*types.PrivateTransferEvent); !ok || ev.Slot != 7 {
		t.Fatalf("event 7 = %v", ReadEvent(db, 7))
	}
	if ReadEvent(db, 300) != nil {
		t.Fatal("event past the end returned")
	}

	// Foreign keys sharing the prefix are skipped.
	if err := db.Put(append(append([]byte{}, eventPrefix...), "xyz"...), []byte{1}); err != nil {
		t.Fatal(err)
	}
	all := ReadEvents(db, 0, 0)
	if len(all) != 300 {
		t.Fatalf("have %d events, want 300", len(all))
	}
	for i, ie := range all {
		if ie.Index != uint64(i) {
			t.Fatalf("event %d out of order: index %d", i, ie.Index)
		}
	}
	page := ReadEvents(db, 255, 10)
	if len(page) != 10 || page[0].Index != 255 || page[9].Index != 264 {
		t.Fatalf("unexpected page: %d events starting at %d", len(page), page[0].Index)
	}
}

func TestGenesisTime(t *testing.T) {
	db := memorydb.New()
	if _, ok := ReadGenesisTime(db); ok {
		t.Fatal("fresh database has a genesis time")
	}
	genesis := time.Unix(1_700_000_000, 123)
	WriteGenesisTime(db, genesis)
	got, ok := ReadGenesisTime(db)
	if !ok || !got.Equal(genesis) {
		t.Fatalf("genesis time = %v, want %v", got, genesis)
	}
}
