// Package state provides the cached record store the ledger executes against.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/rawdb"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/log"
	"github.com/tos-network/veilpay/tosdb"
)

// ErrClosed is returned when the database is used after Close.
var ErrClosed = errors.New("state database closed")

var (
	cacheMintPrefix    = []byte("m")
	cacheBalancePrefix = []byte("b")
)

// Database is the ledger's record store: mints, balances and the event log
// on top of a key-value store, with a fastcache layer holding encoded
// records. Writes are only applied through Commit.
type Database struct {
	disk  tosdb.Database
	cache *fastcache.Cache

	lock   sync.RWMutex // Guards seq and commits against concurrent readers
	seq    uint64       // Number of events in the log
	closed bool
}

// NewDatabase wraps disk with a record cache of cacheBytes bytes.
func NewDatabase(disk tosdb.Database, cacheBytes int) *Database {
	return &Database{
		disk:  disk,
		cache: fastcache.New(cacheBytes),
		seq:   rawdb.ReadEventSequence(disk),
	}
}

// Disk returns the backing key-value store.
func (db *Database) Disk() tosdb.Database {
	return db.disk
}

func cacheKey(prefix []byte, addr common.Address) []byte {
	return append(append(make([]byte, 0, len(prefix)+common.AddressLength), prefix...), addr[:]...)
}

func (db *Database) readRecord(prefix []byte, addr common.Address, read func(tosdb.KeyValueReader, common.Address) []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}
	key := cacheKey(prefix, addr)
	if blob, found := db.cache.HasGet(nil, key); found {
		return blob, nil
	}
	blob := read(db.disk, addr)
	if len(blob) != 0 {
		db.cache.Set(key, blob)
	}
	return blob, nil
}

// Mint returns the mint record at addr, or nil if none exists.
func (db *Database) Mint(addr common.Address) (*types.Mint, error) {
	blob, err := db.readRecord(cacheMintPrefix, addr, rawdb.ReadMintBytes)
	if err != nil || len(blob) == 0 {
		return nil, err
	}
	mint := new(types.Mint)
	if err := mint.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("mint %x: %w", addr, err)
	}
	return mint, nil
}

// Balance returns a private copy of the balance record at addr, or nil if
// none exists.
func (db *Database) Balance(addr common.Address) (*types.ConfidentialBalance, error) {
	blob, err := db.readRecord(cacheBalancePrefix, addr, rawdb.ReadBalanceBytes)
	if err != nil || len(blob) == 0 {
		return nil, err
	}
	bal := new(types.ConfidentialBalance)
	if err := bal.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("balance %x: %w", addr, err)
	}
	return bal, nil
}

// EventCount returns the number of events in the log.
func (db *Database) EventCount() uint64 {
	db.lock.RLock()
	defer db.lock.RUnlock()

	return db.seq
}

// Events returns up to limit events starting at index from.
func (db *Database) Events(from uint64, limit int) ([]types.IndexedEvent, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, ErrClosed
	}
	return rawdb.ReadEvents(db.disk, from, limit), nil
}

// Commit atomically writes the given write sets, in order, through a single
// batch. It returns the log index assigned to the first event of each set.
func (db *Database) Commit(sets ...*WriteSet) ([]uint64, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return nil, ErrClosed
	}
	var (
		batch = db.disk.NewBatch()
		seq   = db.seq
		first = make([]uint64, len(sets))
		dirty = make(map[string][]byte)
	)
	for i, ws := range sets {
		first[i] = seq
		if ws.genesis != nil {
			rawdb.WriteGenesisTime(batch, *ws.genesis)
		}
		for _, addr := range ws.mintOrder {
			blob, err := ws.mints[addr].MarshalBinary()
			if err != nil {
				return nil, err
			}
			rawdb.WriteMintBytes(batch, addr, blob)
			dirty[string(cacheKey(cacheMintPrefix, addr))] = blob
		}
		for _, addr := range ws.balanceOrder {
			blob, err := ws.balances[addr].MarshalBinary()
			if err != nil {
				return nil, err
			}
			rawdb.WriteBalanceBytes(batch, addr, blob)
			dirty[string(cacheKey(cacheBalancePrefix, addr))] = blob
		}
		for _, ev := range ws.events {
			rawdb.WriteEvent(batch, seq, ev)
			seq++
		}
	}
	if seq != db.seq {
		rawdb.WriteEventSequence(batch, seq)
	}
	if err := batch.Write(); err != nil {
		log.Error("Failed to commit write sets", "sets", len(sets), "err", err)
		return nil, fmt.Errorf("commit: %w", err)
	}
	for key, blob := range dirty {
		db.cache.Set([]byte(key), blob)
	}
	db.seq = seq
	return first, nil
}

// Close releases the cache and closes the backing store.
func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true
	db.cache.Reset()
	return db.disk.Close()
}
