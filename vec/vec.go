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

// Package vec implements growable sequences over an alloc.Allocator.
//
// Vec keeps its elements in memory obtained from an injected allocator instead
// of the Go heap, which makes allocation failures observable: every operation
// which may allocate returns an error of kind errorx.AllocationFailure and
// leaves the vector as it was.
//
// Element types must not contain Go pointers (no strings, slices, maps,
// interfaces or pointers), since that memory is invisible to the GC. Violations
// panic when the vector is created.
//
// None of the types in this package are safe for concurrent use.
package vec

import (
	"iter"

	"github.com/cloudwego/rtcore/alloc"
	"github.com/cloudwego/rtcore/errorx"
)

// Vec is a contiguous growable sequence.
// Elements in [0, Len()) are initialized, the rest of the capacity is not.
//
// The zero value is an empty Vec allocating from alloc.Heap().
type Vec[T any] struct {
	buf RawBuf[T]
	len int
}

var _ Sequence[int] = &Vec[int]{}

// New returns an empty Vec which allocates from a, alloc.Heap() if a is nil.
// It doesn't allocate until the first element is added.
func New[T any](a alloc.Allocator) *Vec[T] {
	v := &Vec[T]{buf: RawBuf[T]{a: a}}
	v.buf.checkElem()
	return v
}

// WithCapacity returns an empty Vec able to hold at least n elements without reallocating.
func WithCapacity[T any](a alloc.Allocator, n int) (*Vec[T], error) {
	v := New[T](a)
	if err := v.buf.Reserve(0, n); err != nil {
		return nil, err
	}
	return v, nil
}

// WithExactCapacity returns an empty Vec with a capacity of exactly n elements.
func WithExactCapacity[T any](a alloc.Allocator, n int) (*Vec[T], error) {
	v := New[T](a)
	if err := v.buf.Grow(n); err != nil {
		return nil, err
	}
	return v, nil
}

// From returns a Vec holding a copy of vals.
func From[T any](a alloc.Allocator, vals ...T) (*Vec[T], error) {
	v, err := WithExactCapacity[T](a, len(vals))
	if err != nil {
		return nil, err
	}
	copy(v.buf.slice(), vals)
	v.len = len(vals)
	return v, nil
}

// Len returns the number of elements.
func (v *Vec[T]) Len() int {
	v.buf.checkLive()
	return v.len
}

// Cap returns the number of elements the Vec can hold without reallocating.
func (v *Vec[T]) Cap() int {
	return v.buf.Cap()
}

// IsEmpty ...
func (v *Vec[T]) IsEmpty() bool {
	return v.Len() == 0
}

// Allocator returns the allocator the Vec allocates from.
func (v *Vec[T]) Allocator() alloc.Allocator {
	return v.buf.allocator()
}

// Push appends value, growing the buffer first if it is full.
// If growing fails, the error is returned and the Vec is unchanged; the caller
// still holds value.
func (v *Vec[T]) Push(value T) error {
	v.buf.checkLive()
	if v.len == v.buf.cap || v.buf.zst() {
		if err := v.buf.Reserve(v.len, 1); err != nil {
			return err
		}
	}
	v.buf.slice()[v.len] = value
	v.len++
	return nil
}

// Pop removes and returns the last element, false if the Vec is empty.
func (v *Vec[T]) Pop() (value T, ok bool) {
	v.buf.checkLive()
	if v.len == 0 {
		return value, false
	}
	v.len--
	s := v.buf.slice()
	value = s[v.len]
	clear(s[v.len : v.len+1])
	return value, true
}

// Last returns the last element, false if the Vec is empty.
func (v *Vec[T]) Last() (value T, ok bool) {
	v.buf.checkLive()
	if v.len == 0 {
		return value, false
	}
	return v.buf.slice()[v.len-1], true
}

// Get returns the element at index i, or errorx.OutOfBounds if i >= Len().
func (v *Vec[T]) Get(i int) (value T, err error) {
	v.buf.checkLive()
	if uint(i) >= uint(v.len) {
		return value, errorx.OutOfBounds
	}
	return v.buf.slice()[i], nil
}

// GetMut returns a pointer to the element at index i, or errorx.OutOfBounds if i >= Len().
// The pointer is invalidated by any call which reallocates or releases the Vec.
func (v *Vec[T]) GetMut(i int) (*T, error) {
	v.buf.checkLive()
	if uint(i) >= uint(v.len) {
		return nil, errorx.OutOfBounds
	}
	return &v.buf.slice()[i], nil
}

// Set replaces the element at index i.
func (v *Vec[T]) Set(i int, value T) error {
	v.buf.checkLive()
	if uint(i) >= uint(v.len) {
		return errorx.OutOfBounds
	}
	v.buf.slice()[i] = value
	return nil
}

// Insert inserts value at index i, shifting [i, Len()) one position to the right.
// i must be <= Len().
func (v *Vec[T]) Insert(i int, value T) error {
	v.buf.checkLive()
	if uint(i) > uint(v.len) {
		return errorx.OutOfBounds
	}
	if v.len == v.buf.cap || v.buf.zst() {
		if err := v.buf.Reserve(v.len, 1); err != nil {
			return err
		}
	}
	v.len = insertAt(v.buf.slice(), v.len, i, value)
	return nil
}

// Remove removes and returns the element at index i, shifting the following
// elements one position to the left.
func (v *Vec[T]) Remove(i int) (value T, err error) {
	v.buf.checkLive()
	if uint(i) >= uint(v.len) {
		return value, errorx.OutOfBounds
	}
	value, v.len = removeAt(v.buf.slice(), v.len, i)
	return value, nil
}

// SwapRemove removes and returns the element at index i, replacing it with the last element.
// It's O(1) but doesn't preserve ordering.
func (v *Vec[T]) SwapRemove(i int) (value T, err error) {
	v.buf.checkLive()
	if uint(i) >= uint(v.len) {
		return value, errorx.OutOfBounds
	}
	value, v.len = swapRemoveAt(v.buf.slice(), v.len, i)
	return value, nil
}

// Truncate keeps the first n elements and drops the rest.
// It does nothing if n >= Len().
func (v *Vec[T]) Truncate(n int) {
	v.buf.checkLive()
	if n < 0 {
		n = 0
	}
	if n < v.len {
		clear(v.buf.slice()[n:v.len])
		v.len = n
	}
}

// Clear drops all elements. The capacity is unchanged.
func (v *Vec[T]) Clear() {
	v.Truncate(0)
}

// Reserve makes room for at least additional more elements.
// It may reserve more to keep repeated pushes amortized O(1).
func (v *Vec[T]) Reserve(additional int) error {
	v.buf.checkLive()
	return v.buf.Reserve(v.len, additional)
}

// ReserveExact makes room for exactly additional more elements.
func (v *Vec[T]) ReserveExact(additional int) error {
	v.buf.checkLive()
	return v.buf.ReserveExact(v.len, additional)
}

// ShrinkToFit reduces the capacity to the length.
func (v *Vec[T]) ShrinkToFit() error {
	return v.ShrinkTo(0)
}

// ShrinkTo reduces the capacity to max(n, Len()).
func (v *Vec[T]) ShrinkTo(n int) error {
	v.buf.checkLive()
	if n < v.len {
		n = v.len
	}
	return v.buf.ShrinkTo(n)
}

// Append moves all elements of other to the end of v, leaving other empty.
// On failure both vectors are unchanged.
func (v *Vec[T]) Append(other *Vec[T]) error {
	if other == v {
		panic("vec: append to itself")
	}
	v.buf.checkLive()
	if err := v.buf.Reserve(v.len, other.Len()); err != nil {
		return err
	}
	src := other.buf.slice()
	copy(v.buf.slice()[v.len:], src[:other.len])
	clear(src[:other.len])
	v.len += other.len
	other.len = 0
	return nil
}

// Extend appends vals. On failure nothing is appended.
func (v *Vec[T]) Extend(vals ...T) error {
	v.buf.checkLive()
	if len(vals) == 0 {
		return nil
	}
	if err := v.buf.Reserve(v.len, len(vals)); err != nil {
		return err
	}
	copy(v.buf.slice()[v.len:], vals)
	v.len += len(vals)
	return nil
}

// Retain keeps only the elements for which keep returns true, preserving order.
func (v *Vec[T]) Retain(keep func(*T) bool) {
	v.buf.checkLive()
	v.len = retain(v.buf.slice(), v.len, keep)
}

// DedupFunc removes consecutive elements for which same(cur, prev) returns true,
// keeping the first of each run.
func (v *Vec[T]) DedupFunc(same func(cur, prev *T) bool) {
	v.buf.checkLive()
	v.len = dedup(v.buf.slice(), v.len, same)
}

// ResizeWith resizes the Vec to n elements, filling new slots with values returned by f.
func (v *Vec[T]) ResizeWith(n int, f func() T) error {
	v.buf.checkLive()
	if n <= v.len {
		v.Truncate(n)
		return nil
	}
	if err := v.buf.Reserve(v.len, n-v.len); err != nil {
		return err
	}
	s := v.buf.slice()
	for ; v.len < n; v.len++ {
		s[v.len] = f()
	}
	return nil
}

// SpareCapacity returns the uninitialized tail [Len(), Cap()) of the buffer.
// Write into it, then publish the elements with SetLen.
// It's empty for zero-sized element types.
func (v *Vec[T]) SpareCapacity() []T {
	v.buf.checkLive()
	if v.buf.zst() {
		return nil
	}
	return v.buf.slice()[v.len:v.buf.cap]
}

// SetLen sets the length to n. Elements in [old length, n) must have been
// initialized through SpareCapacity. Panics if n is outside [0, Cap()].
func (v *Vec[T]) SetLen(n int) {
	v.buf.checkLive()
	if n < 0 || n > v.buf.Cap() {
		panic("vec: SetLen out of range")
	}
	v.len = n
}

// Slice returns the elements as a slice sharing the Vec's memory.
// The slice is invalidated by any call which reallocates or releases the Vec.
func (v *Vec[T]) Slice() []T {
	v.buf.checkLive()
	if v.buf.zst() {
		return make([]T, v.len)
	}
	return v.buf.slice()[:v.len:v.len]
}

// All returns an iterator over index-value pairs in index order.
// The Vec must not be modified while iterating.
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.Len(); i++ {
			if !yield(i, v.buf.slice()[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over the elements in index order.
// The Vec must not be modified while iterating.
func (v *Vec[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < v.Len(); i++ {
			if !yield(v.buf.slice()[i]) {
				return
			}
		}
	}
}

// Iter returns a lazy iterator positioned before the first element.
func (v *Vec[T]) Iter() *Iter[T] {
	return &Iter[T]{v: v}
}

// Clone returns a copy of v using the same allocator.
func (v *Vec[T]) Clone() (*Vec[T], error) {
	v.buf.checkLive()
	c, err := WithExactCapacity[T](v.buf.a, v.len)
	if err != nil {
		return nil, err
	}
	if !v.buf.zst() {
		copy(c.buf.slice(), v.buf.slice()[:v.len])
	}
	c.len = v.len
	return c, nil
}

// Take moves the contents of v into a new Vec. v becomes unusable.
func (v *Vec[T]) Take() *Vec[T] {
	nv := &Vec[T]{buf: v.buf.take(), len: v.len}
	v.len = 0
	return nv
}

// Release drops all elements and returns the memory to the allocator.
// The Vec must not be used afterwards.
func (v *Vec[T]) Release() {
	v.buf.checkLive()
	v.len = 0
	v.buf.Release()
}

// Iter walks a Vec one element at a time.
// It observes the Vec's length at every step.
type Iter[T any] struct {
	v *Vec[T]
	i int
}

// Next returns the next element, false once the end is reached.
func (it *Iter[T]) Next() (value T, ok bool) {
	if it.i >= it.v.Len() {
		return value, false
	}
	value = it.v.buf.slice()[it.i]
	it.i++
	return value, true
}

// Index returns the index of the element Next will return.
func (it *Iter[T]) Index() int {
	return it.i
}
