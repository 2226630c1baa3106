package rawdb

import (
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/core/types"
	"github.com/tos-network/veilpay/log"
	"github.com/tos-network/veilpay/tosdb"
)

// ReadMintBytes retrieves the encoded mint record stored at addr.
func ReadMintBytes(db tosdb.KeyValueReader, addr common.Address) []byte {
	data, _ := db.Get(mintKey(addr))
	return data
}

// ReadMint retrieves the mint record stored at addr, or nil if none.
func ReadMint(db tosdb.KeyValueReader, addr common.Address) *types.Mint {
	data := ReadMintBytes(db, addr)
	if len(data) == 0 {
		return nil
	}
	mint := new(types.Mint)
	if err := mint.UnmarshalBinary(data); err != nil {
		log.Error("Invalid mint record", "address", addr, "err", err)
		return nil
	}
	return mint
}

// HasMint checks if a mint record is present at addr.
func HasMint(db tosdb.KeyValueReader, addr common.Address) bool {
	ok, _ := db.Has(mintKey(addr))
	return ok
}

// WriteMint stores a mint record at addr.
func WriteMint(db tosdb.KeyValueWriter, addr common.Address, mint *types.Mint) {
	data, err := mint.MarshalBinary()
	if err != nil {
		log.Crit("Failed to encode mint", "err", err)
	}
	WriteMintBytes(db, addr, data)
}

// WriteMintBytes stores an encoded mint record at addr.
func WriteMintBytes(db tosdb.KeyValueWriter, addr common.Address, data []byte) {
	if err := db.Put(mintKey(addr), data); err != nil {
		log.Crit("Failed to store mint", "err", err)
	}
}

// ReadBalanceBytes retrieves the encoded balance record stored at addr.
func ReadBalanceBytes(db tosdb.KeyValueReader, addr common.Address) []byte {
	data, _ := db.Get(balanceKey(addr))
	return data
}

// ReadBalance retrieves the balance record stored at addr, or nil if none.
func ReadBalance(db tosdb.KeyValueReader, addr common.Address) *types.ConfidentialBalance {
	data := ReadBalanceBytes(db, addr)
	if len(data) == 0 {
		return nil
	}
	bal := new(types.ConfidentialBalance)
	if err := bal.UnmarshalBinary(data); err != nil {
		log.Error("Invalid balance record", "address", addr, "err", err)
		return nil
	}
	return bal
}

// HasBalance checks if a balance record is present at addr.
func HasBalance(db tosdb.KeyValueReader, addr common.Address) bool {
	ok, _ := db.Has(balanceKey(addr))
	return ok
}

// WriteBalance stores a balance record at addr.
func WriteBalance(db tosdb.KeyValueWriter, addr common.Address, bal *types.ConfidentialBalance) {
	data, err := bal.MarshalBinary()
	if err != nil {
		log.Crit("Failed to encode balance", "err", err)
	}
	WriteBalanceBytes(db, addr, data)
}

// WriteBalanceBytes stores an encoded balance record at addr.
func WriteBalanceBytes(db tosdb.KeyValueWriter, addr common.Address, data []byte) {
	if err := db.Put(balanceKey(addr), data); err != nil {
		log.Crit("Failed to store balance", "err", err)
	}
}
