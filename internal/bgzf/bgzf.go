// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bgzf provides support for addressing and reading chunks of BGZF
// files.
//
// Virtual offsets are kept as (compressed block offset, offset inside the
// uncompressed block) pairs throughout; they are never flattened into a
// single integer.
package bgzf

import (
	"fmt"
	"io"
	"sort"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
)

// MaximumBlockSize is the maximum BGZF block size.
const MaximumBlockSize = 65536

// Offset is a BGZF virtual offset: File is the offset of a compressed block
// and Block is the offset of the data inside the uncompressed block.
type Offset = bgzf.Offset

// Chunk specifies a region from Begin to End inside a BGZF file.
type Chunk = bgzf.Chunk

// Less reports whether a addresses data before b.
func Less(a, b Offset) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	return a.Block < b.Block
}

// FormatOffset returns a human readable description of v.
func FormatOffset(v Offset) string {
	return fmt.Sprintf("%d:%d", v.File, v.Block)
}

// Format returns a human readable description of c.
func Format(c Chunk) string {
	return fmt.Sprintf("[%s-%s]", FormatOffset(c.Begin), FormatOffset(c.End))
}

// ByteRange returns the inclusive range of compressed bytes that must be
// fetched to decode every record in c.  The end offset of a chunk addresses
// the start of its final block, so the range extends by the largest possible
// block to cover that block whole.
func ByteRange(c Chunk) (from, to uint64) {
	return uint64(c.Begin.File), uint64(c.End.File) + MaximumBlockSize - 1
}

// Sort orders chunks by their start offset.  The relative order of chunks
// with equal starts is preserved.
func Sort(chunks []Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return Less(chunks[i].Begin, chunks[j].Begin)
	})
}

// Merge attempts to merge any intersecting chunks in input, which must be
// sorted.  Merge will not join two chunks if their combined size could exceed
// sizeLimit.  A zero sizeLimit disables merging.
func Merge(input []Chunk, sizeLimit uint64) []Chunk {
	if len(input) == 0 || sizeLimit == 0 {
		return input
	}

	merged := []Chunk{input[0]}
	for i := 1; i < len(input); i++ {
		output := &merged[len(merged)-1]

		var size uint64
		if input[i].End.File == output.Begin.File {
			size = uint64(input[i].End.Block) - uint64(output.Begin.Block)
		} else {
			// Estimate using the maximum size for the last block.
			size = uint64(input[i].End.File-output.Begin.File) + MaximumBlockSize
		}

		if !Less(output.End, input[i].Begin) && size <= sizeLimit {
			if Less(output.End, input[i].End) {
				output.End = input[i].End
			}
		} else {
			merged = append(merged, input[i])
		}
	}
	return merged
}

// NewReader returns a reader of the decompressed contents of r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	bg, err := bgzf.NewReader(r, 1)
	if err != nil {
		return nil, fmt.Errorf("initializing bgzf reader: %w", err)
	}
	return bg, nil
}

// NewChunkReader returns a reader of the decompressed data of chunk.  It
// seeks r to the start of the chunk and reports io.EOF at its end offset.
// Closing the returned reader does not close r.
func NewChunkReader(r io.ReadSeeker, chunk Chunk) (io.ReadCloser, error) {
	bg, err := bgzf.NewReader(r, 1)
	if err != nil {
		return nil, fmt.Errorf("initializing bgzf reader: %w", err)
	}
	cr, err := index.NewChunkReader(bg, []bgzf.Chunk{chunk})
	if err != nil {
		bg.Close()
		return nil, fmt.Errorf("seeking to %s: %w", FormatOffset(chunk.Begin), err)
	}
	return &chunkReader{cr, bg}, nil
}

type chunkReader struct {
	*index.ChunkReader
	bg *bgzf.Reader
}

func (r *chunkReader) Close() error {
	r.ChunkReader.Close()
	return r.bg.Close()
}
