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

// Package ioxtest provides misbehaving readers and writers for tests.
package ioxtest

import (
	"io"

	"github.com/cloudwego/rtcore/errorx"
)

var (
	// ErrInterrupted is returned by InterruptReader and InterruptWriter.
	ErrInterrupted = errorx.New(errorx.StreamInterrupted, "ioxtest: interrupted")
	// ErrFailed is the default error of FailReader and FailWriter.
	ErrFailed = errorx.New(errorx.StreamFailure, "ioxtest: injected failure")
)

// ChunkReader returns Data at most Chunk bytes per call.
// Once Data is consumed it returns (0, nil) if ZeroAtEOF is set, io.EOF otherwise.
type ChunkReader struct {
	Data      []byte
	Chunk     int
	ZeroAtEOF bool

	Calls int
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	r.Calls++
	if len(r.Data) == 0 {
		if r.ZeroAtEOF {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := len(p)
	if r.Chunk > 0 && n > r.Chunk {
		n = r.Chunk
	}
	n = copy(p[:n], r.Data)
	r.Data = r.Data[n:]
	return n, nil
}

// InterruptReader fails N times with ErrInterrupted before every call it passes to R.
type InterruptReader struct {
	R io.Reader
	N int

	Interrupts int
	pending    int
}

func (r *InterruptReader) Read(p []byte) (int, error) {
	if r.pending < r.N {
		r.pending++
		r.Interrupts++
		return 0, ErrInterrupted
	}
	r.pending = 0
	return r.R.Read(p)
}

// InterruptWriter fails N times with ErrInterrupted before every call it passes to W.
type InterruptWriter struct {
	W io.Writer
	N int

	Interrupts int
	pending    int
}

func (w *InterruptWriter) Write(p []byte) (int, error) {
	if w.pending < w.N {
		w.pending++
		w.Interrupts++
		return 0, ErrInterrupted
	}
	w.pending = 0
	return w.W.Write(p)
}

// ShortWriter passes at most Max bytes per call to W. Max == 0 makes every
// call write nothing and report no error.
type ShortWriter struct {
	W   io.Writer
	Max int

	Calls int
}

func (w *ShortWriter) Write(p []byte) (int, error) {
	w.Calls++
	if len(p) > w.Max {
		p = p[:w.Max]
	}
	if len(p) == 0 {
		return 0, nil
	}
	return w.W.Write(p)
}

// FailReader passes the first After bytes of R through, then fails with Err,
// ErrFailed if Err is nil.
type FailReader struct {
	R     io.Reader
	After int
	Err   error

	read int
}

func (r *FailReader) Read(p []byte) (int, error) {
	left := r.After - r.read
	if left <= 0 {
		return 0, errOr(r.Err)
	}
	if len(p) > left {
		p = p[:left]
	}
	n, err := r.R.Read(p)
	r.read += n
	return n, err
}

// FailWriter accepts the first After bytes into W, then fails with Err,
// ErrFailed if Err is nil. A write crossing the limit is partially applied.
// After may be raised between calls.
type FailWriter struct {
	W     io.Writer
	After int
	Err   error

	written int
}

func (w *FailWriter) Write(p []byte) (int, error) {
	left := w.After - w.written
	if left <= 0 {
		return 0, errOr(w.Err)
	}
	short := len(p) > left
	if short {
		p = p[:left]
	}
	n, err := w.W.Write(p)
	w.written += n
	if err == nil && short {
		err = errOr(w.Err)
	}
	return n, err
}

// Written returns the number of bytes passed to W.
func (w *FailWriter) Written() int { return w.written }

// ZeroReader always returns (0, nil).
type ZeroReader struct {
	Calls int
}

func (r *ZeroReader) Read(p []byte) (int, error) {
	r.Calls++
	return 0, nil
}

func errOr(err error) error {
	if err != nil {
		return err
	}
	return ErrFailed
}
