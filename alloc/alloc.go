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

// Package alloc defines the raw memory provider consumed by vec.
//
// An Allocator hands out Blocks of bytes with a requested alignment.
// All operations are fallible: running out of memory is reported as
// errorx.AllocationFailure and never panics. Panics are reserved for misuse,
// such as freeing a block twice.
package alloc

import (
	"unsafe"

	"github.com/cloudwego/rtcore/errorx"
)

// Allocator is a fallible raw memory provider.
//
// Grow and Shrink preserve the first min(old, new) bytes of the block.
// When they fail, the block passed in is left untouched and still owned by
// the caller.
type Allocator interface {
	// Allocate returns a block of exactly size bytes aligned to align.
	// align must be a power of two.
	Allocate(size, align int) (Block, error)

	// Deallocate returns b to the allocator. b must not be used afterwards.
	Deallocate(b Block)

	// Grow returns a block of newSize bytes (newSize >= b.Len()) holding the contents of b.
	Grow(b Block, newSize int) (Block, error)

	// Shrink returns a block of newSize bytes (newSize <= b.Len()) holding the prefix of b.
	Shrink(b Block, newSize int) (Block, error)
}

// Block is a region of memory obtained from an Allocator.
// The zero value is the empty block, which owns nothing.
type Block struct {
	buf   []byte // aligned view, len(buf) is the requested size
	raw   []byte // region owned by the allocator, contains buf
	align int
}

// Bytes returns the block's memory.
func (b Block) Bytes() []byte { return b.buf }

// Len returns the size of the block in bytes.
func (b Block) Len() int { return len(b.buf) }

// Cap returns how far the block can grow in place.
func (b Block) Cap() int { return cap(b.buf) }

// Align returns the alignment the block was allocated with.
func (b Block) Align() int { return b.align }

// IsZero reports whether b is the empty block.
func (b Block) IsZero() bool { return b.raw == nil }

// Addr returns the address of the first byte of the block, 0 for the empty block.
func (b Block) Addr() uintptr {
	if cap(b.buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b.buf)))
}

// Pointer returns the address of the first byte of the block, nil for the empty block.
func (b Block) Pointer() unsafe.Pointer {
	if cap(b.buf) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b.buf))
}

// resized returns b with its length changed to n, n must be <= cap(b.buf).
func (b Block) resized(n int) Block {
	b.buf = b.buf[:n]
	return b
}

// newBlock carves an aligned view of size bytes out of raw.
// raw must have at least size+align-1 bytes.
func newBlock(raw []byte, size, align int) Block {
	pad := alignPad(uintptr(unsafe.Pointer(unsafe.SliceData(raw))), align)
	return Block{buf: raw[pad : pad+size : len(raw)], raw: raw, align: align}
}

func alignPad(addr uintptr, align int) int {
	return int(-addr & uintptr(align-1))
}

// IsPowerOfTwo ...
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func checkLayout(size, align int) error {
	if size < 0 {
		return errorx.Newf(errorx.InvalidInput, "alloc: negative size %d", size)
	}
	if !IsPowerOfTwo(align) {
		return errorx.Newf(errorx.InvalidInput, "alloc: alignment %d is not a power of two", align)
	}
	return nil
}

func checkGrow(b Block, newSize int) error {
	if newSize < len(b.buf) {
		return errorx.Newf(errorx.InvalidInput, "alloc: grow to %d smaller than block size %d", newSize, len(b.buf))
	}
	return nil
}

func checkShrink(b Block, newSize int) error {
	if newSize < 0 || newSize > len(b.buf) {
		return errorx.Newf(errorx.InvalidInput, "alloc: shrink to %d outside block size %d", newSize, len(b.buf))
	}
	return nil
}

// growByMove implements Grow for allocators which can't extend a block in place.
func growByMove(a Allocator, b Block, newSize int) (Block, error) {
	nb, err := a.Allocate(newSize, b.align)
	if err != nil {
		return b, err
	}
	copy(nb.buf, b.buf)
	a.Deallocate(b)
	return nb, nil
}
