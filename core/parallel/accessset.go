package parallel

import (
	"bytes"
	"sort"

	"github.com/tos-network/veilpay/common"
)

// AccessSet describes the record addresses an instruction reads and writes.
type AccessSet struct {
	ReadAddrs  map[common.Address]struct{}
	WriteAddrs map[common.Address]struct{}
}

// NewAccessSet creates an empty access set.
func NewAccessSet() AccessSet {
	return AccessSet{
		ReadAddrs:  make(map[common.Address]struct{}),
		WriteAddrs: make(map[common.Address]struct{}),
	}
}

// AddRead records a read of addr.
func (a *AccessSet) AddRead(addr common.Address) { a.ReadAddrs[addr] = struct{}{} }

// AddWrite records a write of addr.
func (a *AccessSet) AddWrite(addr common.Address) { a.WriteAddrs[addr] = struct{}{} }

// Conflicts returns true if a's writes overlap b's reads or writes (or vice versa).
func (a *AccessSet) Conflicts(b *AccessSet) bool {
	for addr := range a.WriteAddrs {
		if _, ok := b.ReadAddrs[addr]; ok {
			return true
		}
		if _, ok := b.WriteAddrs[addr]; ok {
			return true
		}
	}
	for addr := range b.WriteAddrs {
		if _, ok := a.ReadAddrs[addr]; ok {
			return true
		}
	}
	return false
}

// Merge adds every address of b to a.
func (a *AccessSet) Merge(b *AccessSet) {
	for addr := range b.ReadAddrs {
		a.ReadAddrs[addr] = struct{}{}
	}
	for addr := range b.WriteAddrs {
		a.WriteAddrs[addr] = struct{}{}
	}
}

// Addresses returns every address in the set in ascending byte order, the
// order in which record locks must be taken.
func (a *AccessSet) Addresses() []common.Address {
	seen := make(map[common.Address]struct{}, len(a.ReadAddrs)+len(a.WriteAddrs))
	out := make([]common.Address, 0, len(a.ReadAddrs)+len(a.WriteAddrs))
	for _, m := range []map[common.Address]struct{}{a.ReadAddrs, a.WriteAddrs} {
		for addr := range m {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
