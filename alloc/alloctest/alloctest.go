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

// Package alloctest provides an instrumented alloc.Allocator for tests.
package alloctest

import (
	"github.com/cloudwego/rtcore/alloc"
	"github.com/cloudwego/rtcore/errorx"
)

// ErrInjected is returned by Allocate and Grow once failures are injected.
var ErrInjected = errorx.New(errorx.AllocationFailure, "alloctest: injected allocation failure")

// Allocator wraps another allocator, counts calls, tracks live blocks and
// fails on demand. It panics on double free or on freeing a foreign block.
type Allocator struct {
	base alloc.Allocator

	// failAfter is the number of successful Allocate/Grow calls left before
	// injecting failures, -1 for never.
	failAfter int

	Allocs   int // successful Allocate calls
	Grows    int // successful Grow calls
	Shrinks  int // successful Shrink calls
	Deallocs int // Deallocate calls
	Failures int // injected failures

	live map[uintptr]int
}

var _ alloc.Allocator = &Allocator{}

// New returns an Allocator wrapping base, alloc.Heap() if base is nil.
func New(base alloc.Allocator) *Allocator {
	if base == nil {
		base = alloc.Heap()
	}
	return &Allocator{base: base, failAfter: -1, live: make(map[uintptr]int)}
}

// FailAfter makes Allocate and Grow fail once n more calls have succeeded.
// n < 0 disables failure injection.
func (a *Allocator) FailAfter(n int) {
	a.failAfter = n
}

// Calls returns the number of Allocate, Grow and Shrink calls which reached the base allocator.
func (a *Allocator) Calls() int {
	return a.Allocs + a.Grows + a.Shrinks
}

// Live returns the number of blocks allocated and not yet freed.
func (a *Allocator) Live() int {
	return len(a.live)
}

// LiveBytes returns the total size of live blocks.
func (a *Allocator) LiveBytes() int {
	n := 0
	for _, sz := range a.live {
		n += sz
	}
	return n
}

func (a *Allocator) shouldFail() bool {
	if a.failAfter < 0 {
		return false
	}
	if a.failAfter == 0 {
		a.Failures++
		return true
	}
	a.failAfter--
	return false
}

func (a *Allocator) track(b alloc.Block) {
	if !b.IsZero() {
		a.live[b.Addr()] = b.Len()
	}
}

func (a *Allocator) untrack(b alloc.Block) {
	if b.IsZero() {
		return
	}
	if _, ok := a.live[b.Addr()]; !ok {
		panic("alloctest: double free or foreign block")
	}
	delete(a.live, b.Addr())
}

// Allocate implements alloc.Allocator.
func (a *Allocator) Allocate(size, align int) (alloc.Block, error) {
	if a.shouldFail() {
		return alloc.Block{}, ErrInjected
	}
	b, err := a.base.Allocate(size, align)
	if err != nil {
		return b, err
	}
	a.Allocs++
	a.track(b)
	return b, nil
}

// Deallocate implements alloc.Allocator.
func (a *Allocator) Deallocate(b alloc.Block) {
	a.untrack(b)
	a.Deallocs++
	a.base.Deallocate(b)
}

// Grow implements alloc.Allocator.
func (a *Allocator) Grow(b alloc.Block, newSize int) (alloc.Block, error) {
	if a.shouldFail() {
		return b, ErrInjected
	}
	nb, err := a.base.Grow(b, newSize)
	if err != nil {
		return b, err
	}
	a.Grows++
	if !b.IsZero() {
		a.untrack(b)
	}
	a.track(nb)
	return nb, nil
}

// Shrink implements alloc.Allocator.
func (a *Allocator) Shrink(b alloc.Block, newSize int) (alloc.Block, error) {
	nb, err := a.base.Shrink(b, newSize)
	if err != nil {
		return b, err
	}
	a.Shrinks++
	a.untrack(b)
	a.track(nb)
	return nb, nil
}
