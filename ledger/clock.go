package ledger

import (
	"sync/atomic"
	"time"

	"github.com/tos-network/veilpay/core"
	"github.com/tos-network/veilpay/core/rawdb"
	"github.com/tos-network/veilpay/log"
	"github.com/tos-network/veilpay/tosdb"
)

// SlotClock numbers slots from a genesis time persisted in the database.
type SlotClock struct {
	genesis  time.Time
	duration time.Duration
	now      func() time.Time
	recorded int32 // 1 once genesis is known to be on disk
}

// NewSlotClock loads the genesis time from db. On a fresh database the
// current time is used as genesis but only written together with the first
// committed transition, so opening the ledger for queries leaves it unset.
func NewSlotClock(db tosdb.KeyValueReader, duration time.Duration) *SlotClock {
	c := &SlotClock{duration: duration, now: time.Now}
	if genesis, ok := rawdb.ReadGenesisTime(db); ok {
		c.genesis, c.recorded = genesis, 1
	} else {
		c.genesis = c.now()
	}
	return c
}

// Genesis returns the origin of slot numbering.
func (c *SlotClock) Genesis() time.Time { return c.genesis }

// Now implements core.Clock.
func (c *SlotClock) Now() core.Timestamp {
	now := c.now()
	var slot uint64
	if elapsed := now.Sub(c.genesis); elapsed > 0 && c.duration > 0 {
		slot = uint64(elapsed / c.duration)
	}
	return core.Timestamp{Slot: slot, UnixSeconds: now.Unix()}
}

// pendingGenesis returns the genesis time and whether it still has to be
// persisted.
func (c *SlotClock) pendingGenesis() (time.Time, bool) {
	return c.genesis, atomic.LoadInt32(&c.recorded) == 0
}

func (c *SlotClock) markRecorded() {
	if atomic.CompareAndSwapInt32(&c.recorded, 0, 1) {
		log.Info("Recorded ledger genesis", "time", c.genesis.UTC().Format(time.RFC3339))
	}
}
