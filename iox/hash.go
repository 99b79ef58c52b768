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

package iox

import (
	"encoding/binary"
	"hash"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// sum64 returns the 64-bit digest of h, the first 8 bytes of its sum for
// hashes which don't provide one.
func sum64(h hash.Hash) uint64 {
	if h64, ok := h.(hash.Hash64); ok {
		return h64.Sum64()
	}
	var b [32]byte
	return binary.BigEndian.Uint64(h.Sum(b[:0]))
}

// HashWriter passes writes through to a Writer and digests the bytes the
// Writer accepted.
type HashWriter struct {
	w Writer
	h hash.Hash
	n int64
}

var (
	_ Writer  = &HashWriter{}
	_ Flusher = &HashWriter{}
)

// NewHashWriter returns a HashWriter digesting with xxhash64.
func NewHashWriter(w Writer) *HashWriter {
	return NewHashWriterWith(w, xxhash.New())
}

// NewBlake3Writer returns a HashWriter digesting with BLAKE3-256.
func NewBlake3Writer(w Writer) *HashWriter {
	return NewHashWriterWith(w, blake3.New())
}

// NewHashWriterWith returns a HashWriter digesting with h.
func NewHashWriterWith(w Writer, h hash.Hash) *HashWriter {
	return &HashWriter{w: w, h: h}
}

// Write implements io.Writer.
func (hw *HashWriter) Write(p []byte) (int, error) {
	n, err := hw.w.Write(p)
	if n > 0 {
		_, _ = hw.h.Write(p[:n])
		hw.n += int64(n)
	}
	return n, err
}

// Flush flushes the underlying Writer if it's a Flusher.
func (hw *HashWriter) Flush() error {
	if f, ok := hw.w.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Sum appends the digest of everything written so far to b.
func (hw *HashWriter) Sum(b []byte) []byte { return hw.h.Sum(b) }

// Sum64 returns the digest as a uint64.
func (hw *HashWriter) Sum64() uint64 { return sum64(hw.h) }

// Written returns the number of bytes digested.
func (hw *HashWriter) Written() int64 { return hw.n }

// Reset clears the digest and the byte count.
func (hw *HashWriter) Reset() {
	hw.h.Reset()
	hw.n = 0
}

// HashReader passes reads through to a Reader and digests the bytes returned.
type HashReader struct {
	r Reader
	h hash.Hash
	n int64
}

var _ Reader = &HashReader{}

// NewHashReader returns a HashReader digesting with xxhash64.
func NewHashReader(r Reader) *HashReader {
	return NewHashReaderWith(r, xxhash.New())
}

// NewBlake3Reader returns a HashReader digesting with BLAKE3-256.
func NewBlake3Reader(r Reader) *HashReader {
	return NewHashReaderWith(r, blake3.New())
}

// NewHashReaderWith returns a HashReader digesting with h.
func NewHashReaderWith(r Reader, h hash.Hash) *HashReader {
	return &HashReader{r: r, h: h}
}

// Read implements io.Reader.
func (hr *HashReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		_, _ = hr.h.Write(p[:n])
		hr.n += int64(n)
	}
	return n, err
}

// Sum appends the digest of everything read so far to b.
func (hr *HashReader) Sum(b []byte) []byte { return hr.h.Sum(b) }

// Sum64 returns the digest as a uint64.
func (hr *HashReader) Sum64() uint64 { return sum64(hr.h) }

// Count returns the number of bytes digested.
func (hr *HashReader) Count() int64 { return hr.n }

// Reset clears the digest and the byte count.
func (hr *HashReader) Reset() {
	hr.h.Reset()
	hr.n = 0
}
