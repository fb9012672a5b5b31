// Package bufpool provides a tiered buffer pool for row-sized byte slices.
//
// Every observation in a transport file is read into a fresh buffer of exactly
// the record length, decoded, and dropped. Row lengths are fixed for the
// lifetime of a dataset, so the same few size classes are requested over and
// over; pooling them keeps long dumps and exports from churning the GC.
//
// # Size classes
//
//   - Small (default 1KB): most datasets, a few dozen numeric columns
//   - Medium (default 16KB): wide datasets with long character columns
//   - Large (default 256KB): very wide datasets
//
// Requests above the large class are allocated directly and never pooled.
//
// # Usage
//
//	buf := bufpool.Get(recordLength)
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
)

// Default size classes.
const (
	DefaultSmallSize  = 1 << 10
	DefaultMediumSize = 16 << 10
	DefaultLargeSize  = 256 << 10
)

// Config holds the size classes of a Pool. Zero values fall back to defaults.
type Config struct {
	SmallSize  int
	MediumSize int
	LargeSize  int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		SmallSize:  DefaultSmallSize,
		MediumSize: DefaultMediumSize,
		LargeSize:  DefaultLargeSize,
	}
}

// tier is one size class backed by its own sync.Pool.
type tier struct {
	size int
	pool sync.Pool
}

// Pool hands out byte slices from the smallest tier that fits a request.
// Safe for concurrent use.
type Pool struct {
	tiers []*tier
}

// NewPool creates a pool. A nil config uses DefaultConfig.
func NewPool(cfg *Config) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.SmallSize > 0 {
			c.SmallSize = cfg.SmallSize
		}
		if cfg.MediumSize > 0 {
			c.MediumSize = cfg.MediumSize
		}
		if cfg.LargeSize > 0 {
			c.LargeSize = cfg.LargeSize
		}
	}

	p := &Pool{}
	for _, size := range []int{c.SmallSize, c.MediumSize, c.LargeSize} {
		t := &tier{size: size}
		t.pool.New = func() any {
			buf := make([]byte, t.size)
			return &buf
		}
		p.tiers = append(p.tiers, t)
	}
	return p
}

// Get returns a slice of length size. Its capacity is the tier size, so callers
// must not rely on cap(). Sizes above the largest tier are allocated directly.
func (p *Pool) Get(size int) []byte {
	for _, t := range p.tiers {
		if size <= t.size {
			buf := *(t.pool.Get().(*[]byte))
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a slice obtained from Get. Slices whose capacity does not match
// a tier (including direct allocations) are left to the GC.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for _, t := range p.tiers {
		if cap(buf) == t.size {
			full := buf[:cap(buf)]
			t.pool.Put(&full)
			return
		}
	}
}

// Largest returns the size of the largest pooled class.
func (p *Pool) Largest() int {
	return p.tiers[len(p.tiers)-1].size
}

var globalPool = NewPool(nil)

// Get returns a buffer of the given length from the package-level pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the package-level pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
