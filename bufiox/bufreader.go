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
	"io"

	"github.com/cloudwego/rtcore/iox"
	"github.com/cloudwego/rtcore/vec"
)

// Reader is a buffered byte source with zero-copy access to its stage.
type Reader interface {
	// Next returns the next n bytes and advances past them, or an error if
	// fewer than n bytes can be read. The returned slice points into the
	// stage: it must not be modified and is valid until Release.
	Next(n int) (p []byte, err error)

	// ReadBinary copies len(bs) bytes into bs. It returns an error if fewer
	// bytes were available; n reports how many were copied anyway.
	// bs stays valid after Release.
	ReadBinary(bs []byte) (n int, err error)

	// Peek behaves like Next without advancing.
	Peek(n int) (buf []byte, err error)

	// Skip advances past the next n bytes.
	Skip(n int) (err error)

	// ReadLen returns the number of bytes consumed by Next, ReadBinary and
	// Skip since the last Release.
	ReadLen() (n int)

	// Release invalidates every slice returned by Next and Peek, frees the
	// memory that was kept alive for them and resets ReadLen.
	// e is the error which ended the current use of the reader, if any.
	Release(e error) (err error)
}

// BufferedReader reads from a raw iox.Reader through a staging Vec.
//
// Reads are served from the stage first. When it runs dry the reader issues a
// single raw read of Option.ChunkSize bytes (more when Next or Peek ask for
// more) into the stage. Interrupted raw reads are retried and a raw read
// returning (0, nil) ends the stream with io.EOF.
//
// Errors from the raw reader are sticky: they are returned once the bytes
// staged before the failure have been consumed.
type BufferedReader struct {
	rd  iox.Reader
	opt Option

	stage  *vec.Vec[byte] // stage[ri:] is unread
	ri     int
	pinned bool // stage is referenced by slices returned from Next/Peek
	toFree []*vec.Vec[byte]

	rn  int // read len
	err error

	maxSizeStats maxSizeStats
}

var (
	_ Reader        = &BufferedReader{}
	_ io.Reader     = &BufferedReader{}
	_ io.ByteReader = &BufferedReader{}
)

// NewBufferedReader returns a BufferedReader reading from rd.
// A nil o means DefaultOption().
func NewBufferedReader(rd iox.Reader, o *Option) *BufferedReader {
	opt := normalize(o)
	return &BufferedReader{rd: rd, opt: opt, stage: vec.New[byte](opt.Allocator)}
}

// Buffered returns the number of bytes which can be read without touching the raw reader.
func (r *BufferedReader) Buffered() int {
	return r.stage.Len() - r.ri
}

func (r *BufferedReader) unread() []byte {
	return r.stage.Slice()[r.ri:]
}

// makeRoom ensures the stage has space for a raw read of at least a chunk,
// or of the bytes missing to reach want unread bytes.
func (r *BufferedReader) makeRoom(want int) error {
	unread := r.Buffered()
	target := unread + max(r.opt.ChunkSize, want-unread)
	if r.stage.Cap()-r.ri >= target {
		return nil
	}
	if r.pinned {
		// the old stage must stay where it is until Release
		nv, err := vec.WithCapacity[byte](r.opt.Allocator, target)
		if err != nil {
			return err
		}
		nv.SetLen(copy(nv.SpareCapacity(), r.unread()))
		r.toFree = append(r.toFree, r.stage)
		r.stage = nv
		r.ri = 0
		r.pinned = false
		return nil
	}
	if r.ri > 0 {
		n := copy(r.stage.Slice(), r.unread())
		r.stage.SetLen(n)
		r.ri = 0
	}
	return r.stage.Reserve(target - unread)
}

func (r *BufferedReader) fill(want int) {
	spare := r.stage.SpareCapacity()
	if limit := max(r.opt.ChunkSize, want); len(spare) > limit {
		spare = spare[:limit]
	}
	n, err := iox.Read(r.rd, spare)
	r.stage.SetLen(r.stage.Len() + n)
	if err != nil {
		r.err = err
	}
}

func (r *BufferedReader) acquireSlow(n int) (int, error) {
	for r.Buffered() < n {
		if r.err != nil {
			return r.Buffered(), r.err
		}
		if err := r.makeRoom(n); err != nil {
			return r.Buffered(), err
		}
		r.fill(n - r.Buffered())
	}
	return n, nil
}

// acquire makes n bytes available in the stage, or as many as possible and an error.
func (r *BufferedReader) acquire(n int) (int, error) {
	// fast path, for inline
	if n <= r.Buffered() {
		return n, nil
	}
	return r.acquireSlow(n)
}

func (r *BufferedReader) Next(n int) (buf []byte, err error) {
	if n < 0 {
		err = errNegativeCount
		return
	}
	if _, err = r.acquire(n); err != nil {
		return
	}
	// nocopy read
	buf = r.unread()[:n:n]
	r.ri += n
	r.rn += n
	r.pinned = r.pinned || n > 0
	return
}

func (r *BufferedReader) Peek(n int) (buf []byte, err error) {
	if n < 0 {
		err = errNegativeCount
		return
	}
	if _, err = r.acquire(n); err != nil {
		return
	}
	buf = r.unread()[:n:n]
	r.pinned = r.pinned || n > 0
	return
}

// Skip advances past n bytes. On failure the bytes skipped so far stay consumed.
func (r *BufferedReader) Skip(n int) (err error) {
	if n < 0 {
		return errNegativeCount
	}
	for {
		k := min(n, r.Buffered())
		r.ri += k
		r.rn += k
		n -= k
		if n == 0 {
			return nil
		}
		if _, err = r.acquireSlow(1); err != nil {
			return err
		}
	}
}

func (r *BufferedReader) ReadLen() (n int) {
	return r.rn
}

func (r *BufferedReader) ReadBinary(bs []byte) (n int, err error) {
	for {
		k := copy(bs[n:], r.unread())
		r.ri += k
		r.rn += k
		n += k
		if n == len(bs) {
			return n, nil
		}
		if _, err = r.acquireSlow(1); err != nil {
			return n, err
		}
	}
}

// Read implements io.Reader. It returns the staged bytes if there are any,
// and refills the stage with a single raw read otherwise.
func (r *BufferedReader) Read(bs []byte) (n int, err error) {
	if len(bs) == 0 {
		return 0, nil
	}
	if _, err = r.acquire(1); err != nil {
		return 0, err
	}
	n = copy(bs, r.unread())
	r.ri += n
	r.rn += n
	return n, nil
}

// ReadByte implements io.ByteReader.
func (r *BufferedReader) ReadByte() (byte, error) {
	if _, err := r.acquire(1); err != nil {
		return 0, err
	}
	c := r.unread()[0]
	r.ri++
	r.rn++
	return c, nil
}

func (r *BufferedReader) Release(e error) error {
	for i, v := range r.toFree {
		v.Release()
		r.toFree[i] = nil
	}
	r.toFree = r.toFree[:0]
	r.pinned = false
	if r.Buffered() == 0 {
		r.maxSizeStats.update(r.rn)
		r.stage.Clear()
		r.ri = 0
		// give back a stage which grew far beyond recent needs
		if limit := max(r.maxSizeStats.maxSize(), r.opt.ChunkSize); r.stage.Cap() > 2*limit {
			_ = r.stage.ShrinkToFit()
		}
	}
	r.rn = 0
	return nil
}

// Reset drops all staged data and the sticky error, and reads from rd from now on.
func (r *BufferedReader) Reset(rd iox.Reader) {
	_ = r.Release(nil)
	r.stage.Clear()
	r.ri = 0
	r.rd = rd
	r.err = nil
}

// Close returns all staging memory to the allocator. It doesn't close the raw reader.
// The BufferedReader must not be used afterwards.
func (r *BufferedReader) Close() error {
	_ = r.Release(nil)
	r.stage.Release()
	return nil
}

const statsBucketNum = 10

// maxSizeStats remembers the read sizes of the last statsBucketNum uses.
type maxSizeStats struct {
	buckets   [statsBucketNum]int
	bucketIdx int
}

func (s *maxSizeStats) update(size int) {
	s.buckets[s.bucketIdx] = size
	s.bucketIdx = (s.bucketIdx + 1) % statsBucketNum
}

func (s *maxSizeStats) maxSize() int {
	var maxSize int
	for _, size := range s.buckets {
		if maxSize < size {
			maxSize = size
		}
	}
	return maxSize
}
