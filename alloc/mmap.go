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
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/cloudwego/rtcore/errorx"
)

// MmapOption ...
type MmapOption struct {
	// Logger receives munmap failures, which can't be returned to the caller.
	// slog.Default() is used if nil.
	Logger *slog.Logger
}

// DefaultMmapOption returns the default values of MmapOption.
func DefaultMmapOption() *MmapOption {
	return &MmapOption{Logger: slog.Default()}
}

// Mmap allocates every block as its own anonymous private mapping.
// The memory lives outside the Go heap and is never scanned by the GC.
type Mmap struct {
	logger   *slog.Logger
	pageSize int
}

var _ Allocator = &Mmap{}

// NewMmap creates an Mmap allocator. opt may be nil.
func NewMmap(opt *MmapOption) *Mmap {
	if opt == nil {
		opt = DefaultMmapOption()
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Mmap{logger: logger, pageSize: unix.Getpagesize()}
}

// PageSize returns the mapping granularity, which is also the largest alignment supported.
func (m *Mmap) PageSize() int {
	return m.pageSize
}

func (m *Mmap) roundUp(n int) int {
	return (n + m.pageSize - 1) &^ (m.pageSize - 1)
}

// Allocate implements Allocator.
func (m *Mmap) Allocate(size, align int) (Block, error) {
	if err := checkLayout(size, align); err != nil {
		return Block{}, err
	}
	if align > m.pageSize {
		return Block{}, errorx.Newf(errorx.InvalidInput, "alloc: alignment %d exceeds page size %d", align, m.pageSize)
	}
	if size == 0 {
		return Block{}, nil
	}
	length := m.roundUp(size)
	if length < size {
		return Block{}, errorx.Newf(errorx.AllocationFailure, "alloc: mmap size %d overflows", size)
	}
	data, err := unix.Mmap(-1, 0, length,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return Block{}, errorx.Wrapf(errorx.AllocationFailure, err, "alloc: mmap %d bytes", length)
	}
	// mappings are page aligned, no padding needed
	return Block{buf: data[:size], raw: data, align: align}, nil
}

// Deallocate implements Allocator.
func (m *Mmap) Deallocate(b Block) {
	if b.raw == nil {
		return
	}
	if err := unix.Munmap(b.raw); err != nil {
		m.logger.Error("failed to unmap block", "size", len(b.raw), "error", err)
	}
}

// Grow implements Allocator. Growth within the last mapped page is done in place.
func (m *Mmap) Grow(b Block, newSize int) (Block, error) {
	if err := checkGrow(b, newSize); err != nil {
		return b, err
	}
	if b.raw == nil {
		return m.Allocate(newSize, b.align)
	}
	if newSize <= cap(b.buf) {
		return b.resized(newSize), nil
	}
	return growByMove(m, b, newSize)
}

// Shrink implements Allocator. Mappings are released as a whole, so shrinking
// only changes the block's length.
func (m *Mmap) Shrink(b Block, newSize int) (Block, error) {
	if err := checkShrink(b, newSize); err != nil {
		return b, err
	}
	return b.resized(newSize), nil
}
