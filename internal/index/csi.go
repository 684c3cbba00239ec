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

package index

import (
	"bytes"
	"io"
	"math"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/csi"

	"github.com/googlegenomics/phenics/internal/binary"
	"github.com/googlegenomics/phenics/internal/failure"
)

type csiIndex struct {
	idx     *csi.Index
	names   []string
	ids     map[string]int
	ceiling int
}

// csiHeader is the fixed part of a CSI index.
type csiHeader struct {
	MinimumShift   int32
	Depth          int32
	AuxiliaryBytes int32
}

// tabixAuxiliary is the fixed part of the auxiliary data written for
// tab-delimited files, followed by a block of reference names.
type tabixAuxiliary struct {
	Format, NameColumn, BeginColumn, EndColumn, Meta, Skip int32
	NamesBytes                                             int32
}

func readCSI(data []byte, contigs []string) (*csiIndex, error) {
	r := bytes.NewReader(data)
	if err := binary.ExpectBytes(r, []byte(csiMagic)); err != nil {
		return nil, failure.Wrap(failure.Decode, "reading CSI magic", err)
	}
	var header csiHeader
	if err := binary.Read(r, &header); err != nil {
		return nil, failure.Wrap(failure.Decode, "reading CSI header", err)
	}
	if header.AuxiliaryBytes < 0 || int(header.AuxiliaryBytes) > r.Len() {
		return nil, failure.Newf(failure.Decode, "invalid CSI auxiliary length %d", header.AuxiliaryBytes)
	}
	aux := make([]byte, header.AuxiliaryBytes)
	if _, err := io.ReadFull(r, aux); err != nil {
		return nil, failure.Wrap(failure.Decode, "reading CSI auxiliary data", err)
	}

	idx, err := csi.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, failure.Wrap(failure.Decode, "reading CSI index", err)
	}

	names := auxiliaryNames(aux)
	if names == nil {
		names = contigs
	}
	if len(names) < idx.NumRefs() {
		return nil, failure.Newf(failure.Decode, "CSI index has %d references but only %d names are known", idx.NumRefs(), len(names))
	}
	names = names[:idx.NumRefs()]

	ceiling := math.MaxInt
	if shift := header.MinimumShift + 3*header.Depth; shift >= 0 && shift < 62 {
		ceiling = 1 << uint(shift)
	}

	ids := make(map[string]int, len(names))
	for i, name := range names {
		ids[name] = i
	}
	return &csiIndex{
		idx:     idx,
		names:   names,
		ids:     ids,
		ceiling: ceiling,
	}, nil
}

// auxiliaryNames returns the reference names stored in the auxiliary data of
// an index over a tab-delimited file, or nil if there are none.
func auxiliaryNames(aux []byte) []string {
	r := bytes.NewReader(aux)
	var fixed tabixAuxiliary
	if err := binary.Read(r, &fixed); err != nil {
		return nil
	}
	if fixed.NamesBytes <= 0 || int(fixed.NamesBytes) > r.Len() {
		return nil
	}
	block := make([]byte, fixed.NamesBytes)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil
	}
	return binary.Names(block)
}

func (c *csiIndex) Names() []string {
	return c.names
}

func (c *csiIndex) Chunks(name string, beg, end int) ([]bgzf.Chunk, error) {
	id, ok := c.ids[name]
	if !ok {
		return nil, ErrNoReference
	}
	if end > c.ceiling {
		end = c.ceiling
	}
	if beg >= end {
		return nil, nil
	}
	return c.idx.Chunks(id, beg, end), nil
}
