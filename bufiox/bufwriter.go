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
	"unsafe"

	"github.com/cloudwego/rtcore/iox"
	"github.com/cloudwego/rtcore/vec"
)

// Writer is a buffered byte sink which can hand out parts of its stage.
type Writer interface {
	// Malloc reserves n bytes in the stage and returns them for the caller
	// to fill. They are written out by the next Flush and must not be
	// touched afterwards.
	Malloc(n int) (buf []byte, err error)

	// WriteBinary stages bs, or writes it out directly. n < len(bs) comes
	// with an error.
	WriteBinary(bs []byte) (n int, err error)

	// WrittenLen returns the number of bytes accepted by Malloc and
	// WriteBinary since the last Flush.
	WrittenLen() (length int)

	// Flush writes out everything staged and resets WrittenLen.
	Flush() (err error)
}

// BufferedWriter writes to a raw iox.Writer through a staging Vec.
//
// Writes accumulate in the stage until it holds Option.HighWaterMark bytes,
// which triggers a flush. A write of at least HighWaterMark bytes with an
// empty stage goes straight to the raw writer. Short raw writes are retried
// until done or until the raw writer fails.
//
// A failed flush is returned to the caller of the write which triggered it.
// The bytes the raw writer didn't take stay staged, and the next Flush picks
// up where the failed one stopped.
//
// Once Malloc has been called the writer stops flushing on its own until the
// next Flush, since the caller may still be filling the returned buffers.
type BufferedWriter struct {
	wd  iox.Writer
	opt Option

	stage  *vec.Vec[byte]
	sealed []*vec.Vec[byte] // full stages waiting for Flush, oldest first
	off    int              // bytes of the oldest pending stage already written
	pinned bool             // Malloc'd bytes are pending: stages must not move or flush on their own

	wl  int // written len
	one [1]byte
}

var (
	_ Writer          = &BufferedWriter{}
	_ io.Writer       = &BufferedWriter{}
	_ io.ByteWriter   = &BufferedWriter{}
	_ io.StringWriter = &BufferedWriter{}
	_ iox.Flusher     = &BufferedWriter{}
)

// NewBufferedWriter returns a BufferedWriter writing to wd.
// A nil o means DefaultOption().
func NewBufferedWriter(wd iox.Writer, o *Option) *BufferedWriter {
	opt := normalize(o)
	return &BufferedWriter{wd: wd, opt: opt, stage: vec.New[byte](opt.Allocator)}
}

// Buffered returns the number of staged bytes not yet written out.
func (w *BufferedWriter) Buffered() int {
	n := w.stage.Len()
	for _, v := range w.sealed {
		n += v.Len()
	}
	return n - w.off
}

// Available returns how many bytes can be staged before reaching the high-water mark.
func (w *BufferedWriter) Available() int {
	return max(0, w.opt.HighWaterMark-w.Buffered())
}

func (w *BufferedWriter) acquire(n int) error {
	// fast path, for inline
	if n <= len(w.stage.SpareCapacity()) {
		return nil
	}
	return w.acquireSlow(n)
}

func (w *BufferedWriter) acquireSlow(n int) error {
	if !w.pinned {
		return w.stage.Reserve(max(n, w.opt.ChunkSize))
	}
	// Malloc'd bytes can't move, start a new stage
	nv, err := vec.WithCapacity[byte](w.opt.Allocator, max(n, w.opt.ChunkSize))
	if err != nil {
		return err
	}
	w.sealed = append(w.sealed, w.stage)
	w.stage = nv
	return nil
}

func (w *BufferedWriter) Malloc(n int) (buf []byte, err error) {
	if n < 0 {
		err = errNegativeCount
		return
	}
	if err = w.acquire(n); err != nil {
		return
	}
	l := w.stage.Len()
	w.stage.SetLen(l + n)
	buf = w.stage.Slice()[l : l+n : l+n]
	w.pinned = w.pinned || n > 0
	w.wl += n
	return
}

// Write implements io.Writer.
// If a flush triggered by the high-water mark fails after p was staged,
// Write returns len(p) together with the error; the bytes stay staged.
func (w *BufferedWriter) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		buffered := w.Buffered()
		if buffered == 0 && len(p) >= w.opt.HighWaterMark {
			var m int
			m, err = iox.WriteAll(w.wd, p)
			w.wl += m
			return n + m, err
		}
		k := len(p)
		if !w.pinned {
			if buffered >= w.opt.HighWaterMark {
				if err = w.flush(); err != nil {
					return n, err
				}
				continue
			}
			k = min(k, w.opt.HighWaterMark-buffered)
		}
		if err = w.acquire(k); err != nil {
			return n, err
		}
		w.stage.SetLen(w.stage.Len() + copy(w.stage.SpareCapacity(), p[:k]))
		n += k
		w.wl += k
		p = p[k:]
		if !w.pinned && w.Buffered() >= w.opt.HighWaterMark {
			if err = w.flush(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (w *BufferedWriter) WriteBinary(bs []byte) (n int, err error) {
	return w.Write(bs)
}

// WriteString implements io.StringWriter.
func (w *BufferedWriter) WriteString(s string) (int, error) {
	return w.Write(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// WriteByte implements io.ByteWriter.
func (w *BufferedWriter) WriteByte(c byte) error {
	w.one[0] = c
	_, err := w.Write(w.one[:])
	return err
}

func (w *BufferedWriter) WrittenLen() int {
	return w.wl
}

// writeOut writes the unwritten part of v, the oldest pending stage.
func (w *BufferedWriter) writeOut(v *vec.Vec[byte]) error {
	n, err := iox.WriteAll(w.wd, v.Slice()[w.off:])
	w.off += n
	if err != nil {
		return err
	}
	w.off = 0
	return nil
}

func (w *BufferedWriter) flush() error {
	for len(w.sealed) > 0 {
		if err := w.writeOut(w.sealed[0]); err != nil {
			return err
		}
		w.sealed[0].Release()
		w.sealed[0] = nil
		w.sealed = w.sealed[1:]
	}
	if err := w.writeOut(w.stage); err != nil {
		return err
	}
	w.stage.Clear()
	w.pinned = false
	return nil
}

// Flush writes out all staged bytes, then flushes the raw writer if it is an iox.Flusher.
func (w *BufferedWriter) Flush() (err error) {
	if err = w.flush(); err != nil {
		return err
	}
	w.wl = 0
	if f, ok := w.wd.(iox.Flusher); ok {
		return f.Flush()
	}
	return nil
}

func (w *BufferedWriter) dropSealed() {
	for i, v := range w.sealed {
		v.Release()
		w.sealed[i] = nil
	}
	w.sealed = nil
}

// Reset discards all staged bytes and writes to wd from now on.
func (w *BufferedWriter) Reset(wd iox.Writer) {
	w.dropSealed()
	w.stage.Clear()
	w.off = 0
	w.pinned = false
	w.wl = 0
	w.wd = wd
}

// Close flushes the writer and returns all staging memory to the allocator,
// even if the flush failed. It doesn't close the raw writer.
// The BufferedWriter must not be used afterwards.
func (w *BufferedWriter) Close() error {
	err := w.Flush()
	w.dropSealed()
	w.stage.Release()
	return err
}
