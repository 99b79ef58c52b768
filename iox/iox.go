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

// Package iox defines the byte stream contracts used across this module and
// helpers which normalise the behaviour of arbitrary readers and writers.
//
// Raw handles may return short transfers, interrupted calls and, for readers,
// (0, nil). The helpers here retry interrupted calls transparently, report a
// zero-length read of a non-empty buffer as io.EOF and loop over short writes,
// so callers composed on top of them only see progress, io.EOF or a terminal
// failure.
package iox

import (
	"io"
	"math"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/lang/mcache"

	"github.com/cloudwego/rtcore/errorx"
	"github.com/cloudwego/rtcore/vec"
)

type (
	// Reader is a byte source. See Read for the normalised contract.
	Reader = io.Reader
	// Writer is a byte sink. A short write is not an error by itself.
	Writer = io.Writer
	// Seeker ...
	Seeker = io.Seeker
)

// Flusher is implemented by writers which stage data before it reaches the sink.
// A no-op Flush is valid for unbuffered writers.
type Flusher interface {
	Flush() error
}

// ReadWriteSeeker ...
type ReadWriteSeeker interface {
	Reader
	Writer
	Seeker
}

const (
	copyBufSize = 32 * 1024
	minReadSize = 512
)

var errShortWrite = errorx.Wrap(errorx.StreamFailure, io.ErrShortWrite)

// Read reads up to len(p) bytes from r into p.
//
// Interrupted reads are retried. A read of a non-empty p which returns
// (0, nil) is reported as io.EOF. Reading into an empty p returns (0, nil).
func Read(r Reader, p []byte) (int, error) {
	for {
		n, err := r.Read(p)
		if err != nil {
			if errorx.IsInterrupted(err) {
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err
		}
		if n == 0 && len(p) > 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write writes p to w once, retrying interrupted calls. It may write fewer than len(p) bytes.
func Write(w Writer, p []byte) (int, error) {
	for {
		n, err := w.Write(p)
		if err != nil && errorx.IsInterrupted(err) {
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// ReadFull reads exactly len(p) bytes from r.
// It returns io.EOF if nothing was read, io.ErrUnexpectedEOF if the stream
// ended after a partial read.
func ReadFull(r Reader, p []byte) (n int, err error) {
	for n < len(p) {
		var m int
		m, err = Read(r, p[n:])
		n += m
		if err != nil {
			if err == io.EOF && n > 0 {
				err = io.ErrUnexpectedEOF
			}
			return n, err
		}
	}
	return n, nil
}

// WriteAll writes the whole p to w, looping over short writes.
// A write which makes no progress fails with errorx.StreamFailure.
func WriteAll(w Writer, p []byte) (n int, err error) {
	for n < len(p) {
		var m int
		m, err = Write(w, p[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, errShortWrite
		}
	}
	return n, nil
}

// Copy copies from src to dst until src is exhausted.
// Reaching the end of src is not an error.
func Copy(dst Writer, src Reader) (written int64, err error) {
	buf := mcache.Malloc(copyBufSize)
	defer mcache.Free(buf)
	for {
		n, rerr := Read(src, buf)
		if n > 0 {
			m, werr := WriteAll(dst, buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// ReadToEnd appends everything left in r to v and returns the number of bytes appended.
// Bytes read before a failure stay in v.
func ReadToEnd(r Reader, v *vec.Vec[byte]) (int, error) {
	total := 0
	for {
		if len(v.SpareCapacity()) < minReadSize {
			if err := v.Reserve(minReadSize); err != nil {
				return total, err
			}
		}
		n, err := Read(r, v.SpareCapacity())
		v.SetLen(v.Len() + n)
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// ReadAll reads r until io.EOF and returns the data on the Go heap.
func ReadAll(r Reader) ([]byte, error) {
	v := vec.New[byte](nil)
	defer v.Release()
	n, err := ReadToEnd(r, v)
	b := dirtmake.Bytes(n, n)
	copy(b, v.Slice())
	return b, err
}

// Cursor is an in-memory stream over a byte Vec.
//
// Writes past the end extend the Vec, filling any gap left by a previous Seek
// with zeros. The Cursor doesn't own the Vec.
type Cursor struct {
	buf *vec.Vec[byte]
	pos int64
}

var (
	_ ReadWriteSeeker = &Cursor{}
	_ Flusher         = &Cursor{}
	_ io.ByteReader   = &Cursor{}
)

var (
	errNegativePosition = errorx.New(errorx.InvalidInput, "iox: negative position")
	errInvalidWhence    = errorx.New(errorx.InvalidInput, "iox: invalid whence")
	errPositionOverflow = errorx.New(errorx.CapacityOverflow, "iox: position overflow")
)

// NewCursor returns a Cursor positioned at the start of buf.
func NewCursor(buf *vec.Vec[byte]) *Cursor {
	return &Cursor{buf: buf}
}

// Vec returns the underlying Vec.
func (c *Cursor) Vec() *vec.Vec[byte] { return c.buf }

// Position ...
func (c *Cursor) Position() int64 { return c.pos }

// SetPosition moves the cursor to pos, which may lie past the end.
func (c *Cursor) SetPosition(pos int64) error {
	if pos < 0 {
		return errNegativePosition
	}
	c.pos = pos
	return nil
}

// Remaining returns the number of bytes between the position and the end.
func (c *Cursor) Remaining() int {
	if n := int64(c.buf.Len()) - c.pos; n > 0 {
		return int(n)
	}
	return 0
}

// Read implements io.Reader.
func (c *Cursor) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if c.Remaining() == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.buf.Slice()[c.pos:])
	c.pos += int64(n)
	return n, nil
}

// ReadByte implements io.ByteReader.
func (c *Cursor) ReadByte() (byte, error) {
	if c.Remaining() == 0 {
		return 0, io.EOF
	}
	b := c.buf.Slice()[c.pos]
	c.pos++
	return b, nil
}

// Write implements io.Writer. It either writes all of p or nothing.
func (c *Cursor) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if c.pos > int64(math.MaxInt-len(p)) {
		return 0, errPositionOverflow
	}
	pos := int(c.pos)
	end := pos + len(p)
	if n := c.buf.Len(); end > n {
		if err := c.buf.Reserve(end - n); err != nil {
			return 0, err
		}
		if pos > n {
			clear(c.buf.SpareCapacity()[:pos-n])
		}
		c.buf.SetLen(end)
	}
	copy(c.buf.Slice()[pos:], p)
	c.pos = int64(end)
	return len(p), nil
}

// Seek implements io.Seeker. Seeking past the end is allowed.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = c.pos
	case io.SeekEnd:
		base = int64(c.buf.Len())
	default:
		return c.pos, errInvalidWhence
	}
	if offset > 0 && base > math.MaxInt64-offset {
		return c.pos, errPositionOverflow
	}
	if base+offset < 0 {
		return c.pos, errNegativePosition
	}
	c.pos = base + offset
	return c.pos, nil
}

// Flush is a no-op.
func (c *Cursor) Flush() error { return nil }

// Bytes returns a copy of the whole content on the Go heap.
func (c *Cursor) Bytes() []byte {
	n := c.buf.Len()
	b := dirtmake.Bytes(n, n)
	copy(b, c.buf.Slice())
	return b
}
