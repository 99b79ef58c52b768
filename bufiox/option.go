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
	"github.com/cloudwego/rtcore/alloc"
	"github.com/cloudwego/rtcore/errorx"
)

const defaultChunkSize = 8 * 1024

var errNegativeCount error = errorx.New(errorx.InvalidInput, "bufiox: negative count")

// Option configures a BufferedReader or BufferedWriter.
type Option struct {
	// ChunkSize is the size of a single raw read issued to refill the stage.
	ChunkSize int

	// HighWaterMark is the number of staged bytes which makes a
	// BufferedWriter flush. Larger writes bypass the stage when it is empty.
	// It defaults to ChunkSize.
	HighWaterMark int

	// Allocator provides the staging memory, alloc.Heap() if nil.
	Allocator alloc.Allocator
}

// DefaultOption returns the default values of Option.
func DefaultOption() *Option {
	return &Option{
		ChunkSize:     defaultChunkSize,
		HighWaterMark: defaultChunkSize,
		Allocator:     alloc.Heap(),
	}
}

func normalize(o *Option) Option {
	if o == nil {
		o = DefaultOption()
	}
	opt := *o
	if opt.ChunkSize <= 0 {
		opt.ChunkSize = defaultChunkSize
	}
	if opt.HighWaterMark <= 0 {
		opt.HighWaterMark = opt.ChunkSize
	}
	if opt.Allocator == nil {
		opt.Allocator = alloc.Heap()
	}
	return opt
}
