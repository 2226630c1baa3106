package rawdb

import (
	"encoding/binary"

	"github.com/tos-network/veilpay/tosdb"
)

// eventIterator walks the event log in index order, skipping any key under
// the event prefix that is not a well-formed event key.
type eventIterator struct {
	tosdb.Iterator
	number uint64
}

func newEventIterator(db tosdb.Iteratee, from uint64) *eventIterator {
	return &eventIterator{Iterator: db.NewIterator(eventPrefix, encodeEventNumber(from))}
}

func (it *eventIterator) Next() bool {
	for it.Iterator.Next() {
		key := it.Iterator.Key()
		if len(key) != eventKeyLength {
			continue
		}
		it.number = binary.BigEndian.Uint64(key[len(eventPrefix):])
		return true
	}
	return false
}

// Number returns the log index of the current event.
func (it *eventIterator) Number() uint64 { return it.number }
