package ledger

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/tos-network/veilpay/common"
)

const lockStripes = 256

// lockTable serializes instructions touching the same records. Addresses
// hash onto a fixed set of mutexes, taken in ascending stripe order so that
// concurrent callers never deadlock.
type lockTable struct {
	stripes [lockStripes]sync.Mutex
}

func stripeOf(addr common.Address) int {
	return int(xxhash.Sum64(addr[:]) % lockStripes)
}

// lock acquires every stripe covering addrs and returns the release function.
func (t *lockTable) lock(addrs []common.Address) func() {
	idx := make([]int, 0, len(addrs))
	seen := make(map[int]struct{}, len(addrs))
	for _, addr := range addrs {
		s := stripeOf(addr)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		idx = append(idx, s)
	}
	sort.Ints(idx)
	for _, s := range idx {
		t.stripes[s].Lock()
	}
	return func() {
		for i := len(idx) - 1; i >= 0; i-- {
			t.stripes[idx[i]].Unlock()
		}
	}
}
