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

package alloctest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/rtcore/errorx"
)

func TestAllocator(t *testing.T) {
	a := New(nil)

	b1, err := a.Allocate(100, 8)
	require.NoError(t, err)
	b2, err := a.Allocate(200, 8)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Live())
	assert.Equal(t, 300, a.LiveBytes())

	b1, err = a.Grow(b1, 10000)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Live())
	assert.Equal(t, 10200, a.LiveBytes())

	b2, err = a.Shrink(b2, 50)
	require.NoError(t, err)
	assert.Equal(t, 10050, a.LiveBytes())

	a.Deallocate(b1)
	a.Deallocate(b2)
	assert.Equal(t, 0, a.Live())
	assert.Equal(t, 2, a.Allocs)
	assert.Equal(t, 1, a.Grows)
	assert.Equal(t, 1, a.Shrinks)
	assert.Equal(t, 2, a.Deallocs)
	assert.Equal(t, 4, a.Calls())

	assert.Panics(t, func() { a.Deallocate(b1) })
}

func TestAllocatorFailAfter(t *testing.T) {
	a := New(nil)
	a.FailAfter(2)

	b1, err := a.Allocate(8, 8)
	require.NoError(t, err)
	b1, err = a.Grow(b1, 100000)
	require.NoError(t, err)

	_, err = a.Allocate(8, 8)
	assert.True(t, errors.Is(err, errorx.AllocationFailure))
	assert.Equal(t, ErrInjected, err)

	nb, err := a.Grow(b1, 200000)
	assert.True(t, errors.Is(err, errorx.AllocationFailure))
	assert.Equal(t, b1.Addr(), nb.Addr())
	assert.Equal(t, 2, a.Failures)
	assert.Equal(t, 1, a.Live())

	a.FailAfter(-1)
	b2, err := a.Allocate(8, 8)
	require.NoError(t, err)
	a.Deallocate(b1)
	a.Deallocate(b2)
	assert.Equal(t, 0, a.Live())
}
