// Copyright 2026 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bufiox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/rtcore/vec"
)

func TestVecReader(t *testing.T) {
	v, err := vec.From[byte](nil, []byte("hello, world")...)
	require.NoError(t, err)
	defer v.Release()
	r := NewVecReader(v)

	buf, err := r.Peek(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
	assert.Equal(t, 0, r.ReadLen())

	buf, err = r.Next(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
	assert.Equal(t, 5, cap(buf))
	require.NoError(t, r.Skip(2))
	assert.Equal(t, 7, r.ReadLen())

	_, err = r.Next(6)
	assert.Equal(t, errNoRemainingData, err)
	assert.Equal(t, errNoRemainingData, r.Skip(6))
	_, err = r.Peek(-1)
	assert.Equal(t, errNegativeCount, err)
	assert.Equal(t, errNegativeCount, r.Skip(-1))

	p := make([]byte, 6)
	n, err := r.ReadBinary(p)
	assert.Equal(t, errNoRemainingData, err)
	assert.Equal(t, 0, n)
	n, err = r.ReadBinary(p[:3])
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "wor", string(p[:n]))

	require.NoError(t, r.Release(nil))
	assert.Equal(t, "ld", string(v.Slice()))
	assert.Equal(t, 0, r.ReadLen())

	require.NoError(t, v.Extend('!'))
	buf, err = r.Next(3)
	require.NoError(t, err)
	assert.Equal(t, "ld!", string(buf))
	require.NoError(t, r.Release(nil))
	assert.True(t, v.IsEmpty())
	require.NoError(t, r.Release(nil))
}
