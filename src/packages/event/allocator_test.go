package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetAllocator(t *testing.T) {
	t.Run("should account bytes right", func(t *testing.T) {
		a := NewBudgetAllocator(64)

		b1, err := a.Alloc(40)
		require.NoError(t, err)
		assert.Len(t, b1, 40)
		assert.Equal(t, int64(40), a.InUse())

		_, err = a.Alloc(30)
		assert.ErrorIs(t, err, ErrAllocation)
		assert.Equal(t, int64(40), a.InUse())

		b2, err := a.Alloc(24)
		require.NoError(t, err)
		assert.Equal(t, int64(64), a.InUse())

		a.Free(b1)
		a.Free(b2)
		a.Free(nil)
		assert.Equal(t, int64(0), a.InUse())
	})

	t.Run("should not limit zero budget", func(t *testing.T) {
		a := NewBudgetAllocator(0)

		b, err := a.Alloc(1 << 20)
		require.NoError(t, err)
		a.Free(b)
		assert.Equal(t, int64(0), a.InUse())
	})

	t.Run("should ignore foreign and double free", func(t *testing.T) {
		a := NewBudgetAllocator(16)

		b, err := a.Alloc(10)
		require.NoError(t, err)

		a.Free(make([]byte, 10))
		assert.Equal(t, int64(10), a.InUse())

		// resliced from the start is still the same buffer
		a.Free(b[:4])
		assert.Equal(t, int64(0), a.InUse())

		a.Free(b)
		assert.Equal(t, int64(0), a.InUse())

		_, err = a.Alloc(17)
		assert.ErrorIs(t, err, ErrAllocation)
	})

	t.Run("should refuse negative size", func(t *testing.T) {
		a := NewBudgetAllocator(0)

		_, err := a.Alloc(-1)
		assert.ErrorIs(t, err, ErrAllocation)
	})
}
