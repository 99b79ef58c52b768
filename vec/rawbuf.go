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

package vec

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"github.com/cloudwego/rtcore/alloc"
	"github.com/cloudwego/rtcore/errorx"
)

type bufState uint8

const (
	stateLive bufState = iota
	stateReleased
	stateMoved
)

// zstBase is the address every zero-sized element lives at.
var zstBase uintptr

var errCapacityOverflow = errorx.New(errorx.CapacityOverflow, "vec: capacity overflow")

// RawBuf owns a single block of memory sized for cap elements of T.
// It doesn't know which elements are initialized, that is the job of Vec.
//
// T must not contain Go pointers: the memory comes from an alloc.Allocator
// and is not scanned by the GC. Zero-sized T never touches the allocator.
//
// A RawBuf has a single owner. After Release or Take, any use panics.
type RawBuf[T any] struct {
	a     alloc.Allocator
	block alloc.Block
	cap   int
	state bufState
}

// NewRawBuf returns an empty buffer which allocates from a, alloc.Heap() if a is nil.
func NewRawBuf[T any](a alloc.Allocator) *RawBuf[T] {
	b := &RawBuf[T]{a: a}
	b.checkElem()
	return b
}

// RawBufWithCapacity returns a buffer sized for exactly n elements.
func RawBufWithCapacity[T any](a alloc.Allocator, n int) (*RawBuf[T], error) {
	b := NewRawBuf[T](a)
	if err := b.Grow(n); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *RawBuf[T]) elemSize() int {
	var z T
	return int(unsafe.Sizeof(z))
}

func (b *RawBuf[T]) elemAlign() int {
	var z T
	return int(unsafe.Alignof(z))
}

func (b *RawBuf[T]) zst() bool {
	return b.elemSize() == 0
}

func (b *RawBuf[T]) allocator() alloc.Allocator {
	if b.a == nil {
		b.a = alloc.Heap()
	}
	return b.a
}

func (b *RawBuf[T]) checkElem() {
	var z T
	if unsafe.Sizeof(z) == 0 {
		return
	}
	if t := reflect.TypeOf(&z).Elem(); hasPointers(t) {
		panic(fmt.Sprintf("vec: element type %v contains pointers", t))
	}
}

func (b *RawBuf[T]) checkLive() {
	switch b.state {
	case stateReleased:
		panic("vec: use of released buffer")
	case stateMoved:
		panic("vec: use of moved buffer")
	}
}

// Cap returns the number of elements the buffer can hold.
func (b *RawBuf[T]) Cap() int {
	b.checkLive()
	if b.zst() {
		return math.MaxInt
	}
	return b.cap
}

// Allocator returns the allocator backing the buffer.
func (b *RawBuf[T]) Allocator() alloc.Allocator {
	return b.allocator()
}

// Slice returns the whole capacity as a slice.
// Elements which were never written hold arbitrary bytes.
// The slice is invalidated by any call which reallocates the buffer.
func (b *RawBuf[T]) Slice() []T {
	b.checkLive()
	return b.slice()
}

func (b *RawBuf[T]) slice() []T {
	if b.zst() {
		return unsafe.Slice((*T)(unsafe.Pointer(&zstBase)), math.MaxInt)
	}
	if b.cap == 0 {
		return nil
	}
	return unsafe.Slice((*T)(b.block.Pointer()), b.cap)
}

// Grow reallocates the buffer to hold exactly newCap elements, keeping the
// existing contents. It does nothing if the buffer is already large enough.
// On failure the buffer is left unchanged.
func (b *RawBuf[T]) Grow(newCap int) error {
	b.checkLive()
	if b.zst() || newCap <= b.cap {
		return nil
	}
	size := b.elemSize()
	if newCap > math.MaxInt/size {
		return errCapacityOverflow
	}
	var (
		nb  alloc.Block
		err error
	)
	if b.block.IsZero() {
		b.checkElem()
		nb, err = b.allocator().Allocate(newCap*size, b.elemAlign())
	} else {
		nb, err = b.allocator().Grow(b.block, newCap*size)
	}
	if err != nil {
		return err
	}
	b.block = nb
	b.cap = newCap
	return nil
}

// Reserve makes room for at least additional elements past length,
// over-allocating to keep repeated pushes amortized O(1).
func (b *RawBuf[T]) Reserve(length, additional int) error {
	b.checkLive()
	if b.zst() {
		if additional > math.MaxInt-length {
			return errCapacityOverflow
		}
		return nil
	}
	if additional <= b.cap-length {
		return nil
	}
	if additional > math.MaxInt-length {
		return errCapacityOverflow
	}
	required := length + additional
	newCap := b.cap * 2
	if newCap < b.cap { // overflow
		newCap = math.MaxInt
	}
	if newCap < required {
		newCap = required
	}
	if m := minNonZeroCap(b.elemSize()); newCap < m {
		newCap = m
	}
	return b.Grow(newCap)
}

// ReserveExact makes room for exactly additional elements past length.
func (b *RawBuf[T]) ReserveExact(length, additional int) error {
	b.checkLive()
	if b.zst() {
		if additional > math.MaxInt-length {
			return errCapacityOverflow
		}
		return nil
	}
	if additional <= b.cap-length {
		return nil
	}
	if additional > math.MaxInt-length {
		return errCapacityOverflow
	}
	return b.Grow(length + additional)
}

// ShrinkTo reduces the capacity to newCap elements, freeing the block when newCap is 0.
// It does nothing if the capacity is already smaller.
func (b *RawBuf[T]) ShrinkTo(newCap int) error {
	b.checkLive()
	if b.zst() || newCap >= b.cap {
		return nil
	}
	if newCap <= 0 {
		b.allocator().Deallocate(b.block)
		b.block = alloc.Block{}
		b.cap = 0
		return nil
	}
	nb, err := b.allocator().Shrink(b.block, newCap*b.elemSize())
	if err != nil {
		return err
	}
	b.block = nb
	b.cap = newCap
	return nil
}

// Release returns the memory to the allocator. It must be called exactly once.
func (b *RawBuf[T]) Release() {
	b.checkLive()
	if !b.block.IsZero() {
		b.allocator().Deallocate(b.block)
	}
	b.block = alloc.Block{}
	b.cap = 0
	b.state = stateReleased
}

// Take moves the buffer's memory into a new RawBuf. b becomes unusable.
func (b *RawBuf[T]) Take() *RawBuf[T] {
	nb := b.take()
	return &nb
}

func (b *RawBuf[T]) take() RawBuf[T] {
	b.checkLive()
	nb := *b
	*b = RawBuf[T]{a: b.a, state: stateMoved}
	return nb
}

// minNonZeroCap is the capacity of the first allocation made by Reserve.
// Tiny elements start larger since allocations are rounded up anyway.
func minNonZeroCap(elemSize int) int {
	switch {
	case elemSize == 1:
		return 8
	case elemSize <= 1024:
		return 4
	}
	return 1
}

// hasPointers reports whether values of t hold memory the GC has to trace.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	}
	return true
}
