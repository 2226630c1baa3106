package rawdb

import (
	"encoding/binary"
	"time"

	"github.com/tos-network/veilpay/log"
	"github.com/tos-network/veilpay/tosdb"
)

// ReadGenesisTime retrieves the origin of slot numbering, if it was recorded.
func ReadGenesisTime(db tosdb.KeyValueReader) (time.Time, bool) {
	data, _ := db.Get(genesisTimeKey)
	if len(data) != 8 {
		return time.Time{}, false
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(data))), true
}

// WriteGenesisTime records the origin of slot numbering.
func WriteGenesisTime(db tosdb.KeyValueWriter, genesis time.Time) {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, uint64(genesis.UnixNano()))
	if err := db.Put(genesisTimeKey, enc); err != nil {
		log.Crit("Failed to store genesis time", "err", err)
	}
}
