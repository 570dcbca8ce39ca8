package event

import (
	"errors"
	"sync"
)

// ErrAllocation is returned when a record buffer cannot be obtained.
var ErrAllocation = errors.New("event allocation failure")

// Allocator hands out the buffers owned by records.
//
// Free must accept nil and must be safe to call from any goroutine.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

// BudgetAllocator draws buffers from a fixed byte budget.
//
// limit 0 means unlimited, in that case only the accounting is kept.
// Only buffers handed out by Alloc are given back by Free, any other slice
// and a second Free of the same buffer are ignored.
type BudgetAllocator struct {
	limit int64

	inUse   int64
	owned   map[*byte]int64
	ownedMu sync.Mutex
}

func NewBudgetAllocator(limit int64) *BudgetAllocator {
	return &BudgetAllocator{
		limit: limit,
		owned: make(map[*byte]int64),
	}
}

// first element of the backing array, b may be resliced from the start
func bufferKey(b []byte) *byte {
	if cap(b) == 0 {
		return nil
	}
	return &b[:1][0]
}

func (a *BudgetAllocator) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrAllocation
	}

	a.ownedMu.Lock()
	defer a.ownedMu.Unlock()

	size := int64(n)
	if a.limit > 0 && a.inUse+size > a.limit {
		return nil, ErrAllocation
	}

	b := make([]byte, n)
	if key := bufferKey(b); key != nil {
		a.owned[key] = size
		a.inUse += size
	}

	return b, nil
}

func (a *BudgetAllocator) Free(b []byte) {
	key := bufferKey(b)
	if key == nil {
		return
	}

	a.ownedMu.Lock()
	defer a.ownedMu.Unlock()

	size, ok := a.owned[key]
	if !ok {
		return
	}
	delete(a.owned, key)
	a.inUse -= size
}

// InUse returns the number of bytes currently handed out.
func (a *BudgetAllocator) InUse() int64 {
	a.ownedMu.Lock()
	defer a.ownedMu.Unlock()

	return a.inUse
}

func (a *BudgetAllocator) Limit() int64 {
	return a.limit
}
