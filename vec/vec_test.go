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
	"errors"
	"math"
	"math/bits"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/rtcore/alloc"
	"github.com/cloudwego/rtcore/alloc/alloctest"
	"github.com/cloudwego/rtcore/errorx"
)

type point struct {
	X, Y int32
}

func TestVecPushPop(t *testing.T) {
	a := alloctest.New(nil)
	v := New[int](a)
	assert.True(t, v.IsEmpty())
	assert.Equal(t, 0, v.Cap())
	assert.Equal(t, 0, a.Calls()) // lazy

	_, ok := v.Pop()
	assert.False(t, ok)
	_, ok = v.Last()
	assert.False(t, ok)

	for i := 0; i < 100; i++ {
		require.NoError(t, v.Push(i))
		assert.Equal(t, i+1, v.Len())
		assert.GreaterOrEqual(t, v.Cap(), v.Len())
		last, ok := v.Last()
		assert.True(t, ok)
		assert.Equal(t, i, last)
	}
	for i := 99; i >= 0; i-- {
		x, ok := v.Pop()
		assert.True(t, ok)
		assert.Equal(t, i, x)
	}
	assert.True(t, v.IsEmpty())

	v.Release()
	assert.Equal(t, 0, a.Live())
}

func TestVecFirstAllocation(t *testing.T) {
	b := New[byte](nil)
	require.NoError(t, b.Push(1))
	assert.Equal(t, 8, b.Cap())
	b.Release()

	p := New[point](nil)
	require.NoError(t, p.Push(point{1, 2}))
	assert.Equal(t, 4, p.Cap())
	p.Release()

	big := New[[2048]byte](nil)
	require.NoError(t, big.Push([2048]byte{}))
	assert.Equal(t, 1, big.Cap())
	big.Release()
}

func TestVecAmortizedGrowth(t *testing.T) {
	const n = 10000
	a := alloctest.New(nil)
	v := New[uint64](a)
	for i := 0; i < n; i++ {
		require.NoError(t, v.Push(uint64(i)))
	}
	assert.Equal(t, n, v.Len())
	assert.GreaterOrEqual(t, v.Cap(), n)
	assert.LessOrEqual(t, a.Allocs+a.Grows, bits.Len(n)+1)
	for i := 0; i < n; i++ {
		x, err := v.Get(i)
		require.NoError(t, err)
		require.Equal(t, uint64(i), x)
	}
	v.Release()
	assert.Equal(t, 0, a.Live())
}

func assertOutOfBounds(t *testing.T, v *Vec[int]) {
	t.Helper()
	want := slices.Clone(v.Slice())
	n := v.Len()
	for _, i := range []int{-1, n, n + 1, n + 100, math.MaxInt} {
		_, err := v.Get(i)
		assert.True(t, errors.Is(err, errorx.OutOfBounds), "len=%d i=%d", n, i)
		_, err = v.GetMut(i)
		assert.True(t, errors.Is(err, errorx.OutOfBounds), "len=%d i=%d", n, i)
		assert.True(t, errors.Is(v.Set(i, 0), errorx.OutOfBounds), "len=%d i=%d", n, i)
		_, err = v.Remove(i)
		assert.True(t, errors.Is(err, errorx.OutOfBounds), "len=%d i=%d", n, i)
		_, err = v.SwapRemove(i)
		assert.True(t, errors.Is(err, errorx.OutOfBounds), "len=%d i=%d", n, i)
	}
	assert.True(t, errors.Is(v.Insert(n+1, 0), errorx.OutOfBounds), "len=%d", n)
	assert.True(t, errors.Is(v.Insert(-1, 0), errorx.OutOfBounds), "len=%d", n)
	assert.True(t, slices.Equal(want, v.Slice()), "len=%d", n)
}

func TestVecOutOfBounds(t *testing.T) {
	v := New[int](nil)
	defer v.Release()
	assertOutOfBounds(t, v) // empty, never allocated

	require.NoError(t, v.Extend(1, 2, 3))
	assertOutOfBounds(t, v)

	for i := 0; i < 100; i++ {
		require.NoError(t, v.Push(i))
	}
	assertOutOfBounds(t, v) // after growth
	assert.Greater(t, v.Cap(), v.Len())
	_, err := v.Get(v.Len()) // within capacity, past length
	assert.True(t, errors.Is(err, errorx.OutOfBounds))

	v.Truncate(10)
	assertOutOfBounds(t, v)

	v.Clear()
	assertOutOfBounds(t, v)

	_, ok := v.Pop()
	assert.False(t, ok)
	require.NoError(t, v.Push(7))
	_, _ = v.Pop()
	assertOutOfBounds(t, v)
}

func TestVecGetSet(t *testing.T) {
	v, err := From[point](nil, point{1, 1}, point{2, 2})
	require.NoError(t, err)
	defer v.Release()

	require.NoError(t, v.Set(0, point{5, 5}))
	p, err := v.GetMut(1)
	require.NoError(t, err)
	p.Y = 9

	x, err := v.Get(0)
	require.NoError(t, err)
	assert.Equal(t, point{5, 5}, x)
	x, err = v.Get(1)
	require.NoError(t, err)
	assert.Equal(t, point{2, 9}, x)
}

func TestVecInsertRemove(t *testing.T) {
	v := New[int](nil)
	defer v.Release()

	require.NoError(t, v.Insert(0, 1))
	require.NoError(t, v.Insert(0, 0))
	require.NoError(t, v.Insert(2, 3))
	require.NoError(t, v.Insert(2, 2))
	assert.Equal(t, []int{0, 1, 2, 3}, v.Slice())

	for i := 0; i <= v.Len(); i++ {
		before := slices.Clone(v.Slice())
		require.NoError(t, v.Insert(i, 42))
		x, err := v.Remove(i)
		require.NoError(t, err)
		assert.Equal(t, 42, x)
		assert.Equal(t, before, v.Slice())
	}

	x, err := v.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, 1, x)
	assert.Equal(t, []int{0, 2, 3}, v.Slice())

	x, err = v.SwapRemove(0)
	require.NoError(t, err)
	assert.Equal(t, 0, x)
	assert.Equal(t, []int{3, 2}, v.Slice())
}

func TestVecTruncateClear(t *testing.T) {
	v, err := From[int](nil, 1, 2, 3, 4, 5)
	require.NoError(t, err)
	defer v.Release()
	c := v.Cap()

	v.Truncate(10)
	assert.Equal(t, 5, v.Len())
	v.Truncate(2)
	assert.Equal(t, []int{1, 2}, v.Slice())
	v.Truncate(-1)
	assert.True(t, v.IsEmpty())

	require.NoError(t, v.Extend(7, 8))
	v.Clear()
	assert.Equal(t, 0, v.Len())
	assert.Equal(t, c, v.Cap())
}

func TestVecReserveShrink(t *testing.T) {
	a := alloctest.New(nil)
	v := New[int32](a)
	defer v.Release()

	require.NoError(t, v.ReserveExact(10))
	assert.Equal(t, 10, v.Cap())
	require.NoError(t, v.Reserve(5))
	assert.Equal(t, 10, v.Cap())
	require.NoError(t, v.Reserve(11))
	assert.Equal(t, 20, v.Cap())

	require.NoError(t, v.Extend(1, 2, 3))
	require.NoError(t, v.ShrinkTo(8))
	assert.Equal(t, 8, v.Cap())
	require.NoError(t, v.ShrinkTo(1))
	assert.Equal(t, 3, v.Cap())
	assert.Equal(t, []int32{1, 2, 3}, v.Slice())

	v.Clear()
	require.NoError(t, v.ShrinkToFit())
	assert.Equal(t, 0, v.Cap())
	assert.Equal(t, 0, a.Live())

	err := v.Reserve(math.MaxInt)
	assert.True(t, errors.Is(err, errorx.CapacityOverflow))
	assert.Equal(t, 0, v.Cap())
}

func TestVecCapacityConstructors(t *testing.T) {
	v, err := WithCapacity[int](nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cap())
	v.Release()

	v, err = WithCapacity[int](nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Cap())
	v.Release()

	v, err = WithExactCapacity[int](nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Cap())
	v.Release()

	_, err = WithExactCapacity[int](nil, math.MaxInt/2)
	assert.True(t, errors.Is(err, errorx.CapacityOverflow))
}

func TestVecStrongGuarantee(t *testing.T) {
	a := alloctest.New(nil)
	v, err := From[int](a, 1, 2, 3, 4)
	require.NoError(t, err)
	defer v.Release()
	require.Equal(t, 4, v.Cap())

	a.FailAfter(0)
	err = v.Push(5)
	assert.True(t, errors.Is(err, errorx.AllocationFailure))
	assert.Equal(t, 4, v.Len())
	assert.Equal(t, 4, v.Cap())
	assert.Equal(t, []int{1, 2, 3, 4}, v.Slice())

	assert.Error(t, v.Insert(0, 0))
	assert.Error(t, v.Extend(5, 6))
	assert.Error(t, v.ResizeWith(10, func() int { return 0 }))
	assert.Equal(t, []int{1, 2, 3, 4}, v.Slice())
	assert.Equal(t, 4, a.Failures)

	a.FailAfter(-1)
	require.NoError(t, v.Push(5))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, v.Slice())
}

func TestVecPushGrowsIterates(t *testing.T) {
	a := alloctest.New(nil)
	v, err := WithCapacity[int](a, 4)
	require.NoError(t, err)
	defer v.Release()

	for i := 1; i <= 5; i++ {
		require.NoError(t, v.Push(i))
	}
	assert.GreaterOrEqual(t, v.Cap(), 5)

	var got []int
	for i, x := range v.All() {
		assert.Equal(t, i+1, x)
		got = append(got, x)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.Equal(t, got, slices.Collect(v.Values()))

	it := v.Iter()
	got = got[:0]
	for x, ok := it.Next(); ok; x, ok = it.Next() {
		got = append(got, x)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	assert.Equal(t, 5, it.Index())

	// early stop
	n := 0
	for range v.Values() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestVecZeroSized(t *testing.T) {
	a := alloctest.New(nil)
	v := New[struct{}](a)
	assert.Equal(t, math.MaxInt, v.Cap())

	for i := 0; i < 10000; i++ {
		require.NoError(t, v.Push(struct{}{}))
	}
	require.NoError(t, v.Insert(5, struct{}{}))
	_, err := v.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, 10000, v.Len())
	assert.Len(t, v.Slice(), 10000)
	assert.Empty(t, v.SpareCapacity())

	for i := 0; i < 10000; i++ {
		_, ok := v.Pop()
		require.True(t, ok)
	}
	_, ok := v.Pop()
	assert.False(t, ok)
	require.NoError(t, v.ShrinkToFit())
	v.Release()

	assert.Equal(t, 0, a.Calls())
	assert.Equal(t, 0, a.Deallocs)
}

func TestVecRetainDedup(t *testing.T) {
	v, err := From[int](nil, 1, 1, 2, 3, 3, 3, 4, 5, 5, 6)
	require.NoError(t, err)
	defer v.Release()

	v.DedupFunc(func(cur, prev *int) bool { return *cur == *prev })
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, v.Slice())

	v.Retain(func(x *int) bool { return *x%2 == 0 })
	assert.Equal(t, []int{2, 4, 6}, v.Slice())

	v.Retain(func(*int) bool { return false })
	assert.True(t, v.IsEmpty())
	v.DedupFunc(func(cur, prev *int) bool { return true })
	assert.True(t, v.IsEmpty())
}

func TestVecResizeWith(t *testing.T) {
	v := New[int](nil)
	defer v.Release()

	n := 0
	next := func() int { n++; return n }
	require.NoError(t, v.ResizeWith(3, next))
	assert.Equal(t, []int{1, 2, 3}, v.Slice())
	require.NoError(t, v.ResizeWith(1, next))
	assert.Equal(t, []int{1}, v.Slice())
	require.NoError(t, v.ResizeWith(2, next))
	assert.Equal(t, []int{1, 4}, v.Slice())
}

func TestVecAppend(t *testing.T) {
	a := alloctest.New(nil)
	v, err := From[int](a, 1, 2)
	require.NoError(t, err)
	w, err := From[int](a, 3, 4, 5)
	require.NoError(t, err)

	require.NoError(t, v.Append(w))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, v.Slice())
	assert.True(t, w.IsEmpty())
	assert.Equal(t, 3, w.Cap())

	assert.Panics(t, func() { _ = v.Append(v) })

	require.NoError(t, w.Push(6))
	a.FailAfter(0)
	c := v.Cap()
	for v.Len() < c {
		require.NoError(t, v.Push(0))
	}
	assert.Error(t, v.Append(w))
	assert.Equal(t, 1, w.Len())

	v.Release()
	w.Release()
	assert.Equal(t, 0, a.Live())
}

func TestVecSpareCapacity(t *testing.T) {
	v, err := WithExactCapacity[byte](nil, 16)
	require.NoError(t, err)
	defer v.Release()

	require.NoError(t, v.Extend('a', 'b'))
	spare := v.SpareCapacity()
	assert.Len(t, spare, 14)
	n := copy(spare, "cdef")
	v.SetLen(v.Len() + n)
	assert.Equal(t, "abcdef", string(v.Slice()))

	assert.Panics(t, func() { v.SetLen(17) })
	assert.Panics(t, func() { v.SetLen(-1) })
}

func TestVecCloneTake(t *testing.T) {
	a := alloctest.New(nil)
	v, err := From[int](a, 1, 2, 3)
	require.NoError(t, err)

	c, err := v.Clone()
	require.NoError(t, err)
	require.NoError(t, c.Set(0, 9))
	assert.Equal(t, []int{1, 2, 3}, v.Slice())
	assert.Equal(t, []int{9, 2, 3}, c.Slice())
	assert.Same(t, v.Allocator(), c.Allocator())

	m := v.Take()
	assert.Equal(t, []int{1, 2, 3}, m.Slice())
	assert.Panics(t, func() { v.Len() })
	assert.Panics(t, func() { _ = v.Push(1) })
	assert.Panics(t, func() { v.Take() })

	m.Release()
	c.Release()
	assert.Panics(t, func() { m.Release() })
	assert.Panics(t, func() { _, _ = m.Get(0) })
	assert.Equal(t, 0, a.Live())
}

func TestVecPointerElements(t *testing.T) {
	assert.Panics(t, func() { New[*int](nil) })
	assert.Panics(t, func() { New[string](nil) })
	assert.Panics(t, func() { New[[]byte](nil) })
	assert.Panics(t, func() { New[struct{ m map[int]int }](nil) })
	assert.Panics(t, func() { New[[2]any](nil) })
	assert.NotPanics(t, func() { New[[4]point](nil).Release() })
	assert.NotPanics(t, func() { New[[0]*int](nil).Release() })
}

func TestVecHeapLimit(t *testing.T) {
	h := alloc.NewHeap(&alloc.HeapOption{Limit: 1 << 20})

	_, err := WithExactCapacity[byte](h, 1<<36)
	assert.True(t, errors.Is(err, errorx.AllocationFailure))
	assert.Equal(t, int64(0), h.InUse())

	v := New[uint64](h)
	err = nil
	for err == nil {
		err = v.Push(uint64(v.Len()))
	}
	assert.True(t, errors.Is(err, errorx.AllocationFailure))
	n := v.Len()
	assert.Greater(t, n, 0)
	for i, x := range v.All() {
		require.Equal(t, uint64(i), x)
	}
	assert.Equal(t, n, v.Len())
	v.Release()
	assert.Equal(t, int64(0), h.InUse())
}

func TestVecZeroValue(t *testing.T) {
	var v Vec[int]
	require.NoError(t, v.Push(1))
	assert.Equal(t, alloc.Heap(), v.Allocator())
	v.Release()
}

func TestVecArenaBacked(t *testing.T) {
	arena, err := alloc.NewArena(make([]byte, 64*1024))
	require.NoError(t, err)
	initial := arena.Available()

	v := New[uint64](arena)
	for i := 0; i < 1000; i++ {
		require.NoError(t, v.Push(uint64(i)*3))
	}
	for i := 0; i < 1000; i++ {
		x, err := v.Get(i)
		require.NoError(t, err)
		require.Equal(t, uint64(i)*3, x)
	}

	// larger than the arena
	err = v.Reserve(16 * 1024)
	assert.True(t, errors.Is(err, errorx.AllocationFailure))
	assert.Equal(t, 1000, v.Len())

	v.Release()
	arena.Compact()
	assert.Equal(t, initial, arena.Available())
}

func TestVecRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := alloctest.New(nil)
	v := New[int](a)
	var model []int

	for i := 0; i < 5000; i++ {
		switch rng.Intn(6) {
		case 0, 1:
			x := rng.Int()
			require.NoError(t, v.Push(x))
			model = append(model, x)
		case 2:
			x, ok := v.Pop()
			if len(model) == 0 {
				require.False(t, ok)
				continue
			}
			require.True(t, ok)
			require.Equal(t, model[len(model)-1], x)
			model = model[:len(model)-1]
		case 3:
			j := rng.Intn(len(model) + 1)
			x := rng.Int()
			require.NoError(t, v.Insert(j, x))
			model = slices.Insert(model, j, x)
		case 4:
			if len(model) == 0 {
				continue
			}
			j := rng.Intn(len(model))
			x, err := v.Remove(j)
			require.NoError(t, err)
			require.Equal(t, model[j], x)
			model = slices.Delete(model, j, j+1)
		case 5:
			if rng.Intn(10) == 0 {
				require.NoError(t, v.ShrinkToFit())
			}
		}
		require.Equal(t, len(model), v.Len())
	}
	assert.True(t, slices.Equal(model, v.Slice()))
	v.Release()
	assert.Equal(t, 0, a.Live())
}
