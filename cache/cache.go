// Package cache implements the set-associative hit/miss oracle used by the
// pipeline core to stall IF and MEM on cache misses.
//
// This is a behavioral model only: it tracks tag/valid/LRU state but holds
// no data and does not model write-back or coherence. Op is informational
// — hit/miss is independent of read vs write.
package cache

import (
	"fmt"
	"math/bits"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Op is the informational access kind passed to Access.
type Op uint8

const (
	Read Op = iota
	Write
)

// Config describes a cache's geometry. CacheSize must be a multiple of
// BlockSize*Ways; BlockSize/4 (words per block) and the derived number of
// sets must be powers of two, so BlockSize is at least 4. Addresses are
// word-addressed (2-bit byte offset).
type Config struct {
	CacheSize   int `json:"cacheSize"`
	BlockSize   int `json:"blockSize"`
	Ways        int `json:"ways"`
	MissLatency int `json:"missLatency"`
}

// Validate checks the geometry constraints this cache requires. A
// malformed Config is a programming error.
func (c Config) Validate() error {
	if c.CacheSize <= 0 || c.BlockSize <= 0 || c.Ways <= 0 || c.MissLatency <= 0 {
		return fmt.Errorf("cache: config fields must all be positive: %+v", c)
	}
	denom := c.BlockSize * c.Ways
	if denom == 0 || c.CacheSize%denom != 0 {
		return fmt.Errorf("cache: cacheSize must be a multiple of blockSize*ways: %+v", c)
	}
	if !isPowerOfTwo(c.BlockSize / 4) {
		return fmt.Errorf("cache: blockSize/4 must be a power of two: %+v", c)
	}
	numSets := c.CacheSize / denom
	if !isPowerOfTwo(numSets) {
		return fmt.Errorf("cache: numSets must be a power of two: %+v", c)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func (c Config) numSets() int {
	return c.CacheSize / (c.BlockSize * c.Ways)
}

func (c Config) blockOffsetBits() uint {
	return uint(bits.Len(uint(c.BlockSize/4)) - 1)
}

func (c Config) indexBits() uint {
	return uint(bits.Len(uint(c.numSets())) - 1)
}

// Cache is a set-associative hit/miss oracle.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	hits      uint64
	misses    uint64
}

// New allocates a Cache with every way initialized to invalid. Validity
// and LRU-rank bootstrapping are delegated to the akita LRU directory,
// which starts every set with a deterministic initial rank order.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			config.numSets(),
			config.Ways,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Config returns the cache's geometry.
func (c *Cache) Config() Config {
	return c.config
}

// Hits returns the number of hits observed so far.
func (c *Cache) Hits() uint64 {
	return c.hits
}

// Misses returns the number of misses observed so far.
func (c *Cache) Misses() uint64 {
	return c.misses
}

// Accesses returns hits+misses.
func (c *Cache) Accesses() uint64 {
	return c.hits + c.misses
}

// blockAddr rounds address down to its containing block's base address,
// which akita's directory uses as the lookup/tag key.
func (c *Cache) blockAddr(address uint32) uint64 {
	blockSize := uint64(c.config.BlockSize)
	return (uint64(address) / blockSize) * blockSize
}

// Access performs one cache lookup, returning true on hit. On miss, the
// least-recently-used way in the addressed set is evicted and refilled
// with the new tag.
func (c *Cache) Access(address uint32, _ Op) bool {
	blockAddr := c.blockAddr(address)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.hits++
		c.directory.Visit(block)
		return true
	}

	c.misses++
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		panic("cache: no LRU-0 way found for set; directory invariant violated")
	}
	victim.Tag = blockAddr
	victim.IsValid = true
	c.directory.Visit(victim)
	return false
}
