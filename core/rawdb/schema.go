package rawdb

import (
	"encoding/binary"

	"github.com/tos-network/veilpay/common"
)

// The fields below define the low level database schema prefixing.
var (
	// genesisTimeKey tracks the wall-clock origin of slot numbering.
	genesisTimeKey = []byte("GenesisTime")

	// eventSequenceKey tracks the number of events appended to the log.
	eventSequenceKey = []byte("EventSequence")

	mintPrefix    = []byte("m") // mintPrefix + address -> mint record
	balancePrefix = []byte("b") // balancePrefix + address -> balance record
	eventPrefix   = []byte("e") // eventPrefix + num (uint64 big endian) -> kind + event
)

const (
	// eventKeyLength is the length of an event log key.
	eventKeyLength = 1 + 8
)

// encodeEventNumber encodes an event index as big endian uint64
func encodeEventNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// mintKey = mintPrefix + address
func mintKey(addr common.Address) []byte {
	return append(append([]byte{}, mintPrefix...), addr.Bytes()...)
}

// balanceKey = balancePrefix + address
func balanceKey(addr common.Address) []byte {
	return append(append([]byte{}, balancePrefix...), addr.Bytes()...)
}

// eventKey = eventPrefix + num (uint64 big endian)
func eventKey(number uint64) []byte {
	return append(append([]byte{}, eventPrefix...), encodeEventNumber(number)...)
}
