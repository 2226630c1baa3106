package ledger

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/tos-network/veilpay/common"
	"github.com/tos-network/veilpay/crypto"
	"github.com/tos-network/veilpay/params"
)

type derivationKey struct {
	seed     string
	identity common.Address
}

type derivation struct {
	addr common.Address
	bump uint8
}

// addressCache memoizes record address derivations, which cost up to 256
// hash and curve checks each.
type addressCache struct {
	cache *lru.Cache
}

func newAddressCache(size int) (*addressCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &addressCache{cache: cache}, nil
}

func (c *addressCache) derive(seed string, identity common.Address) (common.Address, uint8, error) {
	key := derivationKey{seed: seed, identity: identity}
	if v, ok := c.cache.Get(key); ok {
		d := v.(derivation)
		return d.addr, d.bump, nil
	}
	addr, bump, err := crypto.FindProgramAddress([][]byte{[]byte(seed), identity[:]}, params.ProgramID)
	if err != nil {
		return common.Address{}, 0, err
	}
	c.cache.Add(key, derivation{addr: addr, bump: bump})
	return addr, bump, nil
}
