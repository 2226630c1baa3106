package ledger

import (
	"runtime"
	"time"

	"github.com/tos-network/veilpay/params"
)

// Defaults contains default settings for a local ledger.
var Defaults = Config{
	DatabaseCache:    64,
	DatabaseHandles:  256,
	RecordCacheBytes: 32 * 1024 * 1024,
	AddressCacheSize: 4096,
	SlotDuration:     params.DefaultSlotDuration,
	MaxBatchSize:     params.DefaultMaxBatchSize,
	Parallel:         runtime.NumCPU(),
}

// Config contains the configuration options of a ledger.
type Config struct {
	// DataDir is the leveldb directory. An empty value keeps all state in
	// memory.
	DataDir string `toml:",omitempty"`

	// Database options
	DatabaseCache   int // Megabytes of leveldb block cache and write buffer
	DatabaseHandles int `toml:"-"`

	RecordCacheBytes int // Size of the encoded record cache
	AddressCacheSize int // Number of memoized address derivations

	SlotDuration time.Duration // Wall-clock length of one slot
	MaxBatchSize int           // Largest batch ApplyBatch accepts
	Parallel     int           // Concurrent instructions per batch level
}

// sanitize replaces unusable values with their defaults.
func (c *Config) sanitize() Config {
	cfg := *c
	if cfg.RecordCacheBytes <= 0 {
		cfg.RecordCacheBytes = Defaults.RecordCacheBytes
	}
	if cfg.AddressCacheSize <= 0 {
		cfg.AddressCacheSize = Defaults.AddressCacheSize
	}
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = Defaults.SlotDuration
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = Defaults.MaxBatchSize
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 1
	}
	return cfg
}
