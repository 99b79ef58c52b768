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
	"math/bits"
	"unsafe"

	"github.com/cloudwego/rtcore/errorx"
)

const (
	// arenaHeaderSize is the size of the header in front of each block.
	arenaHeaderSize = 8

	// arenaMagic is checked to detect double-free/invalid blocks.
	arenaMagic uint32 = 0xA7E4A000

	// DefaultArenaMinBlockSize is the default minimum block size (64B).
	DefaultArenaMinBlockSize = 64

	// DefaultArenaMaxBlockSize is the default maximum block size (64KB).
	DefaultArenaMaxBlockSize = 64 * 1024
)

// Arena is a buddy system allocator over a caller-provided region.
// It needs no allocator of its own, blocks are carved out of the region.
//
// Each block is prefixed by a header: [4 bytes magic][4 bytes order].
type Arena struct {
	// arena is the memory region we are managing.
	arena []byte

	// arenaStart is a cached pointer to the start of the arena.
	arenaStart unsafe.Pointer

	// freeLists[order] holds offsets of free blocks of minBlockSize<<order bytes.
	freeLists [][]int

	// needsCoalesce is a hint that adjacent free blocks may exist that can be merged.
	needsCoalesce bool

	minBlockSize  int
	minBlockShift int
	maxBlockSize  int
	maxBlockOrder int
}

var _ Allocator = &Arena{}

// NewArena creates an arena allocator with default block sizes (64B min, 64KB max).
// The region's size MUST be a multiple of the max block size.
func NewArena(region []byte) (*Arena, error) {
	return NewArenaWithBlockSize(region, DefaultArenaMinBlockSize, DefaultArenaMaxBlockSize)
}

// NewArenaWithBlockSize creates an arena allocator with custom block sizes.
// Both minBlock and maxBlock must be powers of two, and minBlock <= maxBlock.
// The region's size MUST be a multiple of maxBlock and its start 8 bytes aligned.
func NewArenaWithBlockSize(region []byte, minBlock, maxBlock int) (*Arena, error) {
	if !IsPowerOfTwo(minBlock) {
		return nil, errorx.Newf(errorx.InvalidInput, "alloc: minBlockSize must be a power of two, got %d", minBlock)
	}
	if !IsPowerOfTwo(maxBlock) {
		return nil, errorx.Newf(errorx.InvalidInput, "alloc: maxBlockSize must be a power of two, got %d", maxBlock)
	}
	if minBlock > maxBlock {
		return nil, errorx.Newf(errorx.InvalidInput, "alloc: minBlockSize (%d) must be <= maxBlockSize (%d)", minBlock, maxBlock)
	}
	if minBlock <= arenaHeaderSize {
		return nil, errorx.Newf(errorx.InvalidInput, "alloc: minBlockSize must be > headerSize (%d), got %d", arenaHeaderSize, minBlock)
	}
	totalSize := len(region)
	if totalSize < maxBlock || totalSize%maxBlock != 0 {
		return nil, errorx.Newf(errorx.InvalidInput, "alloc: region size must be a multiple of %d bytes and >= %d, got %d",
			maxBlock, maxBlock, totalSize)
	}
	start := unsafe.Pointer(&region[0])
	if uintptr(start)%arenaHeaderSize != 0 {
		return nil, errorx.Newf(errorx.InvalidInput, "alloc: region must be %d bytes aligned", arenaHeaderSize)
	}

	minShift := bits.TrailingZeros(uint(minBlock))
	maxOrder := bits.TrailingZeros(uint(maxBlock)) - minShift
	a := &Arena{
		arena:         region,
		arenaStart:    start,
		minBlockSize:  minBlock,
		minBlockShift: minShift,
		maxBlockSize:  maxBlock,
		maxBlockOrder: maxOrder,
		freeLists:     make([][]int, maxOrder+1),
	}
	// Lower orders can hold more blocks, capped at 64 to avoid over-allocation.
	for i := 0; i < maxOrder; i++ {
		capacity := 1 << (maxOrder - i)
		if capacity > 64 {
			capacity = 64
		}
		a.freeLists[i] = make([]int, 0, capacity)
	}
	a.freeLists[maxOrder] = make([]int, 0, totalSize/maxBlock)
	a.Reset()
	return a, nil
}

// Allocate implements Allocator.
func (a *Arena) Allocate(size, align int) (Block, error) {
	if err := checkLayout(size, align); err != nil {
		return Block{}, err
	}
	if size == 0 {
		return Block{}, nil
	}
	need := size + align - 1 + arenaHeaderSize
	if need > a.maxBlockSize || need < size {
		return Block{}, errorx.Newf(errorx.AllocationFailure,
			"alloc: %d bytes exceeds arena max block size %d", size, a.maxBlockSize)
	}
	order := a.getOrderForSize(need)
	offset, ok := a.alloc(order)
	if !ok {
		return Block{}, errorx.Newf(errorx.AllocationFailure, "alloc: arena has no free block for %d bytes", size)
	}

	ptr := unsafe.Add(a.arenaStart, offset)
	*(*uint32)(ptr) = arenaMagic
	*(*uint32)(unsafe.Add(ptr, 4)) = uint32(order)

	blockSize := a.minBlockSize << order
	raw := unsafe.Slice((*byte)(unsafe.Add(ptr, arenaHeaderSize)), blockSize-arenaHeaderSize)
	return newBlock(raw, size, align), nil
}

// alloc pops a free block of the given order, splitting a larger one if needed.
func (a *Arena) alloc(order int) (offset int, ok bool) {
	// fast path: exact order match
	if freeList := a.freeLists[order]; len(freeList) > 0 {
		n := len(freeList) - 1
		offset = freeList[n]
		a.freeLists[order] = freeList[:n]
		return offset, true
	}

	foundOrder := -1
	for o := order + 1; o <= a.maxBlockOrder; o++ {
		if len(a.freeLists[o]) > 0 {
			foundOrder = o
			break
		}
	}
	if foundOrder == -1 {
		if !a.needsCoalesce {
			return 0, false
		}
		foundOrder = a.CoalesceUntil(order)
		if foundOrder == -1 {
			a.needsCoalesce = false
			return 0, false
		}
	}

	freeList := a.freeLists[foundOrder]
	n := len(freeList) - 1
	offset = freeList[n]
	a.freeLists[foundOrder] = freeList[:n]

	// The left half keeps the offset, the right half goes to the lower order free list.
	for foundOrder > order {
		foundOrder--
		right := offset + (a.minBlockSize << foundOrder)
		a.freeLists[foundOrder] = append(a.freeLists[foundOrder], right)
	}
	return offset, true
}

// Deallocate implements Allocator.
// Panics if the block doesn't belong to this arena or was already freed.
func (a *Arena) Deallocate(b Block) {
	if b.raw == nil {
		return
	}
	dataPtr := uintptr(unsafe.Pointer(unsafe.SliceData(b.raw)))
	offset := int(dataPtr-uintptr(a.arenaStart)) - arenaHeaderSize
	if offset < 0 || offset >= len(a.arena) {
		panic("arena: block not in arena")
	}

	headerPtr := unsafe.Add(a.arenaStart, offset)
	magicPtr := (*uint32)(headerPtr)
	if *magicPtr != arenaMagic {
		panic("arena: double free or invalid block")
	}
	order := int(*(*uint32)(unsafe.Add(headerPtr, 4)))
	if order > a.maxBlockOrder || len(b.raw) != (a.minBlockSize<<order)-arenaHeaderSize {
		panic("arena: corrupted block header")
	}
	// buddy blocks of size 2^N must start at an offset that is a multiple of 2^N.
	if offset&((a.minBlockSize<<order)-1) != 0 {
		panic("arena: misaligned block")
	}

	*magicPtr = 0
	a.freeLists[order] = append(a.freeLists[order], offset)
	if order < a.maxBlockOrder {
		a.needsCoalesce = true
	}
}

// Grow implements Allocator. It grows in place when the block has room.
func (a *Arena) Grow(b Block, newSize int) (Block, error) {
	if err := checkGrow(b, newSize); err != nil {
		return b, err
	}
	if b.raw == nil {
		return a.Allocate(newSize, b.align)
	}
	if newSize <= cap(b.buf) {
		return b.resized(newSize), nil
	}
	return growByMove(a, b, newSize)
}

// Shrink implements Allocator. Blocks are never split, shrinking is always in place.
func (a *Arena) Shrink(b Block, newSize int) (Block, error) {
	if err := checkShrink(b, newSize); err != nil {
		return b, err
	}
	return b.resized(newSize), nil
}

// Available returns the total free bytes available for allocation.
func (a *Arena) Available() int {
	total := 0
	for order, freeList := range a.freeLists {
		blockSize := a.minBlockSize << order
		total += len(freeList) * (blockSize - arenaHeaderSize)
	}
	return total
}

// MaxAllocSize returns the largest size a single Allocate with the given alignment may succeed for.
func (a *Arena) MaxAllocSize(align int) int {
	return a.maxBlockSize - arenaHeaderSize - (align - 1)
}

// CoalesceUntil merges adjacent free buddy blocks until we have a block >= targetOrder.
// Returns the order of a suitable block found, or -1 if none available.
func (a *Arena) CoalesceUntil(targetOrder int) int {
	for o := targetOrder; o <= a.maxBlockOrder; o++ {
		if len(a.freeLists[o]) > 0 {
			return o
		}
	}

	a.coalesce(targetOrder)

	for o := targetOrder; o <= a.maxBlockOrder; o++ {
		if len(a.freeLists[o]) > 0 {
			return o
		}
	}
	return -1
}

// Compact merges every pair of free buddies.
func (a *Arena) Compact() {
	a.coalesce(a.maxBlockOrder)
	a.needsCoalesce = false
}

// coalesce merges free buddies from order 0 up to targetOrder-1.
// Merging at lower orders creates blocks that can be merged at higher orders.
func (a *Arena) coalesce(targetOrder int) {
	for order := 0; order < targetOrder; order++ {
		freeList := a.freeLists[order]
		listLen := len(freeList)
		if listLen < 2 {
			continue
		}
		// insertion sort, free lists are small and mostly sorted
		for i := 1; i < listLen; i++ {
			for j := i; j > 0 && freeList[j] < freeList[j-1]; j-- {
				freeList[j], freeList[j-1] = freeList[j-1], freeList[j]
			}
		}

		blockSize := a.minBlockSize << order
		n := 0
		for i := 0; i < listLen; {
			offset := freeList[i]
			if i+1 < listLen && freeList[i+1] == offset^blockSize {
				a.freeLists[order+1] = append(a.freeLists[order+1], offset&^blockSize)
				i += 2
			} else {
				freeList[n] = offset
				n++
				i++
			}
		}
		a.freeLists[order] = freeList[:n]
	}
}

// Reset drops all allocations and returns the arena to its initial state.
// Blocks handed out before Reset must not be used or freed afterwards.
func (a *Arena) Reset() {
	for i := 0; i < a.maxBlockOrder; i++ {
		a.freeLists[i] = a.freeLists[i][:0]
	}
	roots := a.freeLists[a.maxBlockOrder][:0]
	for off := 0; off < len(a.arena); off += a.maxBlockSize {
		*(*uint32)(unsafe.Add(a.arenaStart, off)) = 0
		roots = append(roots, off)
	}
	a.freeLists[a.maxBlockOrder] = roots
	a.needsCoalesce = false
}

// getOrderForSize calculates the smallest order that can fit the given size.
func (a *Arena) getOrderForSize(size int) int {
	if size <= a.minBlockSize {
		return 0
	}
	return bits.Len(uint(size-1)) - a.minBlockShift
}
