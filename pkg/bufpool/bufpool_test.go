package bufpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Size Class Tests
// ============================================================================

func TestGetSizeClasses(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantCap int
	}{
		{"Zero", 0, DefaultSmallSize},
		{"TypicalRecord", 120, DefaultSmallSize},
		{"SmallBoundary", DefaultSmallSize, DefaultSmallSize},
		{"JustAboveSmall", DefaultSmallSize + 1, DefaultMediumSize},
		{"MediumBoundary", DefaultMediumSize, DefaultMediumSize},
		{"JustAboveMedium", DefaultMediumSize + 1, DefaultLargeSize},
		{"LargeBoundary", DefaultLargeSize, DefaultLargeSize},
		{"Oversized", DefaultLargeSize + 1, DefaultLargeSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Get(tt.size)
			defer Put(buf)

			assert.Equal(t, tt.size, len(buf))
			assert.Equal(t, tt.wantCap, cap(buf))
		})
	}
}

// ============================================================================
// Put and Reuse Tests
// ============================================================================

func TestPut(t *testing.T) {
	t.Run("ReturnedBufferKeepsTierCapacity", func(t *testing.T) {
		buf1 := Get(300)
		Put(buf1)

		buf2 := Get(700)
		defer Put(buf2)

		assert.Equal(t, 700, len(buf2))
		assert.Equal(t, DefaultSmallSize, cap(buf2))
	})

	t.Run("NilAndEmpty", func(t *testing.T) {
		require.NotPanics(t, func() {
			Put(nil)
			Put([]byte{})
		})
	})

	t.Run("ForeignSliceIgnored", func(t *testing.T) {
		require.NotPanics(t, func() {
			Put(make([]byte, 100))
			Put(make([]byte, DefaultSmallSize))
		})
	})

	t.Run("OversizedNotPooled", func(t *testing.T) {
		buf := Get(DefaultLargeSize * 2)
		Put(buf)

		again := Get(DefaultLargeSize * 2)
		assert.Equal(t, len(again), cap(again))
	})
}

// ============================================================================
// Custom Pool Tests
// ============================================================================

func TestNewPool(t *testing.T) {
	t.Run("CustomSizes", func(t *testing.T) {
		pool := NewPool(&Config{SmallSize: 64, MediumSize: 512, LargeSize: 4096})

		assert.Equal(t, 64, cap(pool.Get(27)))
		assert.Equal(t, 512, cap(pool.Get(100)))
		assert.Equal(t, 4096, cap(pool.Get(1000)))
		assert.Equal(t, 4096, pool.Largest())
	})

	t.Run("PartialConfigKeepsDefaults", func(t *testing.T) {
		pool := NewPool(&Config{SmallSize: 128})

		assert.Equal(t, 128, cap(pool.Get(27)))
		assert.Equal(t, DefaultMediumSize, cap(pool.Get(1000)))
		assert.Equal(t, DefaultLargeSize, pool.Largest())
	})

	t.Run("NilConfig", func(t *testing.T) {
		pool := NewPool(nil)
		assert.Equal(t, DefaultSmallSize, cap(pool.Get(10)))
	})
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestConcurrentGetPut(t *testing.T) {
	pool := NewPool(&Config{SmallSize: 64, MediumSize: 512, LargeSize: 4096})

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				size := (id*37 + j*13) % 5000
				buf := pool.Get(size)
				assert.Len(t, buf, size)
				for k := range buf {
					buf[k] = byte(id)
				}
				pool.Put(buf)
			}
		}(i)
	}

	wg.Wait()
}

func BenchmarkGetPut(b *testing.B) {
	b.Run("Record", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Put(Get(240))
		}
	})

	b.Run("WideRecord", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Put(Get(12 << 10))
		}
	})
}
