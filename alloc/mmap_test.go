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

//go:build linux || darwin

package alloc

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/rtcore/errorx"
)

func TestMmap(t *testing.T) {
	m := NewMmap(&MmapOption{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ps := m.PageSize()

	b, err := m.Allocate(100, 64)
	require.NoError(t, err)
	assert.Equal(t, 100, b.Len())
	assert.Equal(t, ps, b.Cap())
	assert.Zero(t, b.Addr()%uintptr(ps))
	for i := range b.Bytes() {
		b.Bytes()[i] = byte(i)
	}

	// in place within the page
	addr := b.Addr()
	b, err = m.Grow(b, ps)
	require.NoError(t, err)
	assert.Equal(t, addr, b.Addr())

	b, err = m.Grow(b, 3*ps+1)
	require.NoError(t, err)
	assert.Equal(t, 3*ps+1, b.Len())
	for i := 0; i < 100; i++ {
		assert.Equal(t, byte(i), b.Bytes()[i])
	}

	b, err = m.Shrink(b, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Len())
	m.Deallocate(b)

	_, err = m.Allocate(10, 2*ps)
	assert.True(t, errors.Is(err, errorx.InvalidInput))

	b, err = m.Allocate(0, 8)
	require.NoError(t, err)
	assert.True(t, b.IsZero())
}

func TestMmapDefaultOption(t *testing.T) {
	m := NewMmap(nil)
	assert.NotNil(t, m.logger)
	m = NewMmap(&MmapOption{})
	assert.NotNil(t, m.logger)
}
