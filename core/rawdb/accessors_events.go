package rawdb

import (
	"encoding/binary"

	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/log"
	"github.com/tos-network/veilpay/tosdb"
)

// ReadEventSequence retrieves the number of events in the log.
func ReadEventSequence(db tosdb.KeyValueReader) uint64 {
	data, _ := db.Get(eventSequenceKey)
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

// WriteEventSequence stores the number of events in the log.
func WriteEventSequence(db tosdb.KeyValueWriter, seq uint64) {
	if err := db.Put(eventSequenceKey, encodeEventNumber(seq)); err != nil {
		log.Crit("Failed to store event sequence", "err", err)
	}
}

// WriteEvent stores ev at position number of the log.
func WriteEvent(db tosdb.KeyValueWriter, number uint64, ev types.Event) {
	data, err := ev.MarshalBinary()
	if err != nil {
		log.Crit("Failed to encode event", "err", err)
	}
	enc := make([]byte, 0, 1+len(data))
	enc = append(enc, byte(ev.Kind()))
	enc = append(enc, data...)
	if err := db.Put(eventKey(number), enc); err != nil {
		log.Crit("Failed to store event", "number", number, "err", err)
	}
}

// ReadEvent retrieves the event at position number, or nil if none.
func ReadEvent(db tosdb.KeyValueReader, number uint64) types.Event {
	data, _ := db.Get(eventKey(number))
	if len(data) == 0 {
		return nil
	}
	return decodeStoredEvent(number, data)
}

func decodeStoredEvent(number uint64, data []byte) types.Event {
	if len(data) < 1 {
		return nil
	}
	ev, err := types.DecodeEvent(types.EventKind(data[0]), data[1:])
	if err != nil {
		log.Error("Invalid event record", "number", number, "err", err)
		return nil
	}
	return ev
}

// ReadEvents retrieves up to limit events starting at position from, in log
// order. A zero limit reads to the end of the log.
func ReadEvents(db tosdb.Iteratee, from uint64, limit int) []types.IndexedEvent {
	it := newEventIterator(db, from)
	defer it.Release()

	var events []types.IndexedEvent
	for it.Next() {
		if limit > 0 && len(events) >= limit {
			break
		}
		number := it.Number()
		ev := decodeStoredEvent(number, it.Value())
		if ev == nil {
			continue
		}
		events = append(events, types.IndexedEvent{Index: number, Event: ev})
	}
	return events
}
