/*
 * Copyright 2026 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package alloc

import (
	"math"
	"math/bits"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/bytedance/gopkg/lang/mcache"

	"github.com/cloudwego/rtcore/errorx"
)

// MaxHeapBlockSize is the largest block a heap allocator hands out.
const MaxHeapBlockSize = 1 << 40

var (
	errHeapTooLarge  = errorx.New(errorx.AllocationFailure, "alloc: heap block too large")
	errHeapExhausted = errorx.New(errorx.AllocationFailure, "alloc: heap limit exceeded")
)

// HeapOption configures a HeapAllocator.
type HeapOption struct {
	// Limit caps the bytes held by live blocks, DefaultHeapLimit() if <= 0.
	Limit int64
}

// HeapAllocator is an Allocator backed by the Go heap.
// Blocks are recycled through size-classed pools, their contents are not zeroed.
//
// Requests are charged against a byte budget and fail with
// errorx.AllocationFailure once it's spent, instead of letting the runtime
// abort the process. A HeapAllocator is safe for concurrent use.
type HeapAllocator struct {
	limit int64
	inuse atomic.Int64
}

var _ Allocator = &HeapAllocator{}

var (
	heapOnce sync.Once
	heap     *HeapAllocator
)

// Heap returns the shared HeapAllocator used wherever no allocator is given.
// Its budget is DefaultHeapLimit().
func Heap() Allocator {
	heapOnce.Do(func() {
		heap = NewHeap(nil)
	})
	return heap
}

// NewHeap returns a HeapAllocator with its own budget.
// A nil o means a budget of DefaultHeapLimit().
func NewHeap(o *HeapOption) *HeapAllocator {
	limit := int64(0)
	if o != nil {
		limit = o.Limit
	}
	if limit <= 0 {
		limit = DefaultHeapLimit()
	}
	return &HeapAllocator{limit: limit}
}

// DefaultHeapLimit returns the smallest of the Go soft memory limit
// (debug.SetMemoryLimit), the address space limit of the process and the
// physical memory of the machine, whichever are known.
func DefaultHeapLimit() int64 {
	limit := debug.SetMemoryLimit(-1)
	if sys := sysMemoryLimit(); sys > 0 && sys < limit {
		limit = sys
	}
	return limit
}

// Limit returns the budget of h in bytes.
func (h *HeapAllocator) Limit() int64 { return h.limit }

// InUse returns the bytes charged for live blocks, pool rounding included.
func (h *HeapAllocator) InUse() int64 { return h.inuse.Load() }

// pooledSize is the capacity mcache returns for a request of n bytes.
func pooledSize(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func (h *HeapAllocator) charge(n int64) bool {
	for {
		cur := h.inuse.Load()
		if n > h.limit-cur {
			return false
		}
		if h.inuse.CompareAndSwap(cur, cur+n) {
			return true
		}
	}
}

func (h *HeapAllocator) Allocate(size, align int) (Block, error) {
	if err := checkLayout(size, align); err != nil {
		return Block{}, err
	}
	if size == 0 {
		return Block{}, nil
	}
	if size > MaxHeapBlockSize-align {
		return Block{}, errHeapTooLarge
	}
	need := pooledSize(size + align - 1)
	if !h.charge(int64(need)) {
		return Block{}, errHeapExhausted
	}
	raw := mcache.Malloc(size + align - 1)
	return newBlock(raw[:cap(raw)], size, align), nil
}

func (h *HeapAllocator) Deallocate(b Block) {
	if b.raw != nil {
		h.inuse.Add(-int64(cap(b.raw)))
		mcache.Free(b.raw)
	}
}

func (h *HeapAllocator) Grow(b Block, newSize int) (Block, error) {
	if err := checkGrow(b, newSize); err != nil {
		return b, err
	}
	if b.raw == nil {
		return h.Allocate(newSize, b.align)
	}
	if newSize <= cap(b.buf) {
		return b.resized(newSize), nil
	}
	return growByMove(h, b, newSize)
}

func (h *HeapAllocator) Shrink(b Block, newSize int) (Block, error) {
	if err := checkShrink(b, newSize); err != nil {
		return b, err
	}
	return b.resized(newSize), nil
}

func clampLimit(n uint64) int64 {
	if n == 0 || n > math.MaxInt64 {
		return 0
	}
	return int64(n)
}
