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
	"github.com/cloudwego/rtcore/errorx"
	"github.com/cloudwego/rtcore/vec"
)

var errNoRemainingData error = errorx.New(errorx.StreamExhausted, "bufiox: no remaining data left")

var _ Reader = &VecReader{}

// VecReader implements Reader over bytes already held in a Vec.
// Release drops the consumed prefix from the Vec.
type VecReader struct {
	v  *vec.Vec[byte] // v[ri:] is unread
	ri int
}

// NewVecReader returns a VecReader consuming v. It doesn't own v.
func NewVecReader(v *vec.Vec[byte]) *VecReader {
	return &VecReader{v: v}
}

func (r *VecReader) remaining() int {
	return r.v.Len() - r.ri
}

func (r *VecReader) Next(n int) (buf []byte, err error) {
	if buf, err = r.Peek(n); err == nil {
		r.ri += n
	}
	return
}

func (r *VecReader) Peek(n int) (buf []byte, err error) {
	if n < 0 {
		err = errNegativeCount
		return
	}
	if n > r.remaining() {
		err = errNoRemainingData
		return
	}
	// nocopy read
	buf = r.v.Slice()[r.ri : r.ri+n : r.ri+n]
	return
}

func (r *VecReader) Skip(n int) (err error) {
	if n < 0 {
		return errNegativeCount
	}
	if n > r.remaining() {
		return errNoRemainingData
	}
	r.ri += n
	return nil
}

func (r *VecReader) ReadLen() (n int) {
	return r.ri
}

// ReadBinary copies len(bs) bytes into bs. It copies nothing if fewer are left.
func (r *VecReader) ReadBinary(bs []byte) (n int, err error) {
	if len(bs) > r.remaining() {
		err = errNoRemainingData
		return
	}
	n = copy(bs, r.v.Slice()[r.ri:])
	r.ri += n
	return
}

// Release removes the consumed bytes from the front of the Vec.
func (r *VecReader) Release(e error) error {
	if r.ri == 0 {
		return nil
	}
	s := r.v.Slice()
	n := copy(s, s[r.ri:])
	r.v.Truncate(n)
	r.ri = 0
	return nil
}
