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
	"iter"

	"github.com/cloudwego/rtcore/errorx"
)

var errStaticFull = errorx.New(errorx.CapacityOverflow, "vec: static capacity exceeded")

// Static is a fixed-capacity vector over caller-provided storage.
// It never allocates: operations which would exceed the capacity fail with
// errorx.CapacityOverflow. Unlike Vec, T may contain pointers.
type Static[T any] struct {
	items []T
	len   int
}

var _ Sequence[int] = &Static[int]{}

// NewStatic returns an empty Static using storage[:cap(storage)] as its buffer.
// Storage contents are ignored and cleared as elements are removed.
func NewStatic[T any](storage []T) *Static[T] {
	return &Static[T]{items: storage[:cap(storage)]}
}

// Len ...
func (s *Static[T]) Len() int { return s.len }

// Cap ...
func (s *Static[T]) Cap() int { return len(s.items) }

// IsEmpty ...
func (s *Static[T]) IsEmpty() bool { return s.len == 0 }

// Push appends value, or fails with errorx.CapacityOverflow if the Static is full.
func (s *Static[T]) Push(value T) error {
	if s.len == len(s.items) {
		return errStaticFull
	}
	s.items[s.len] = value
	s.len++
	return nil
}

// Pop removes and returns the last element, false if the Static is empty.
func (s *Static[T]) Pop() (value T, ok bool) {
	if s.len == 0 {
		return value, false
	}
	s.len--
	value = s.items[s.len]
	clear(s.items[s.len : s.len+1])
	return value, true
}

// Last returns the last element, false if the Static is empty.
func (s *Static[T]) Last() (value T, ok bool) {
	if s.len == 0 {
		return value, false
	}
	return s.items[s.len-1], true
}

// Get returns the element at index i, or errorx.OutOfBounds if i >= Len().
func (s *Static[T]) Get(i int) (value T, err error) {
	if uint(i) >= uint(s.len) {
		return value, errorx.OutOfBounds
	}
	return s.items[i], nil
}

// GetMut returns a pointer to the element at index i.
func (s *Static[T]) GetMut(i int) (*T, error) {
	if uint(i) >= uint(s.len) {
		return nil, errorx.OutOfBounds
	}
	return &s.items[i], nil
}

// Set replaces the element at index i.
func (s *Static[T]) Set(i int, value T) error {
	if uint(i) >= uint(s.len) {
		return errorx.OutOfBounds
	}
	s.items[i] = value
	return nil
}

// Insert inserts value at index i, shifting the following elements right.
func (s *Static[T]) Insert(i int, value T) error {
	if uint(i) > uint(s.len) {
		return errorx.OutOfBounds
	}
	if s.len == len(s.items) {
		return errStaticFull
	}
	s.len = insertAt(s.items, s.len, i, value)
	return nil
}

// Remove removes and returns the element at index i, shifting the following elements left.
func (s *Static[T]) Remove(i int) (value T, err error) {
	if uint(i) >= uint(s.len) {
		return value, errorx.OutOfBounds
	}
	value, s.len = removeAt(s.items, s.len, i)
	return value, nil
}

// SwapRemove removes and returns the element at index i, replacing it with the last element.
func (s *Static[T]) SwapRemove(i int) (value T, err error) {
	if uint(i) >= uint(s.len) {
		return value, errorx.OutOfBounds
	}
	value, s.len = swapRemoveAt(s.items, s.len, i)
	return value, nil
}

// Truncate keeps the first n elements.
func (s *Static[T]) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < s.len {
		clear(s.items[n:s.len])
		s.len = n
	}
}

// Clear ...
func (s *Static[T]) Clear() { s.Truncate(0) }

// Reserve fails with errorx.CapacityOverflow if additional more elements don't fit.
func (s *Static[T]) Reserve(additional int) error {
	if additional > len(s.items)-s.len {
		return errStaticFull
	}
	return nil
}

// Extend appends vals, or appends nothing if they don't all fit.
func (s *Static[T]) Extend(vals ...T) error {
	if err := s.Reserve(len(vals)); err != nil {
		return err
	}
	s.len += copy(s.items[s.len:], vals)
	return nil
}

// Retain keeps only the elements for which keep returns true.
func (s *Static[T]) Retain(keep func(*T) bool) {
	s.len = retain(s.items, s.len, keep)
}

// DedupFunc removes consecutive elements for which same(cur, prev) returns true.
func (s *Static[T]) DedupFunc(same func(cur, prev *T) bool) {
	s.len = dedup(s.items, s.len, same)
}

// SpareCapacity returns the unused tail of the storage.
func (s *Static[T]) SpareCapacity() []T {
	return s.items[s.len:]
}

// SetLen sets the length to n. Panics if n is outside [0, Cap()].
func (s *Static[T]) SetLen(n int) {
	if n < 0 || n > len(s.items) {
		panic("vec: SetLen out of range")
	}
	s.len = n
}

// Slice returns the elements as a slice sharing the storage.
func (s *Static[T]) Slice() []T {
	return s.items[:s.len:s.len]
}

// All returns an iterator over index-value pairs in index order.
func (s *Static[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.len; i++ {
			if !yield(i, s.items[i]) {
				return
			}
		}
	}
}
