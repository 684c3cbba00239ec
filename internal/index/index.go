// Copyright 2018 Google Inc.
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

// Package index reads the binning indexes of block-compressed VCF files and
// resolves genomic intervals to the chunks of the data file that contain
// overlapping records.
package index

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/googlegenomics/phenics/internal/bgzf"
	"github.com/googlegenomics/phenics/internal/failure"
)

const (
	tabixMagic = "TBI\x01"
	csiMagic   = "CSI\x01"
)

// ErrNoReference is returned by Index.Chunks for a reference sequence that
// the index does not contain.
var ErrNoReference = errors.New("no such reference in index")

// Index maps reference sequences and intervals to chunks of a data file.
type Index interface {
	// Names returns the names of the indexed reference sequences in index
	// order.
	Names() []string
	// Chunks returns the chunks that may contain records overlapping the
	// 0-based half-open interval [beg, end) of the named reference.  It
	// returns ErrNoReference if name is not indexed, and no chunks when
	// nothing overlaps.
	Chunks(name string, beg, end int) ([]bgzf.Chunk, error)
}

// Read reads a tabix or CSI index from r, which must hold the compressed
// index file.  CSI indexes that do not carry their reference names take them
// from contigs, the reference names declared by the data file header.
func Read(r io.Reader, contigs []string) (Index, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, failure.Wrap(failure.Decode, "initializing gzip reader", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, failure.Wrap(failure.Decode, "decompressing index", err)
	}

	switch {
	case bytes.HasPrefix(data, []byte(tabixMagic)):
		return readTabix(bytes.NewReader(data))
	case bytes.HasPrefix(data, []byte(csiMagic)):
		return readCSI(data, contigs)
	}
	magic := data
	if len(magic) > 4 {
		magic = magic[:4]
	}
	return nil, failure.Newf(failure.Decode, "unrecognized index magic %q", magic)
}

// Describe returns a summary of idx suitable for logging.
func Describe(idx Index) string {
	names := idx.Names()
	switch idx.(type) {
	case *tabixIndex:
		return fmt.Sprintf("tabix index of %d references", len(names))
	case *csiIndex:
		return fmt.Sprintf("CSI index of %d references", len(names))
	}
	return fmt.Sprintf("index of %d references", len(names))
}
