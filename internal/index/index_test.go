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
	"encoding/binary"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/phenics/internal/failure"
)

// firstLeafBin is the level 5 bin covering [0, 16384).
const firstLeafBin = 4681

var testChunks = map[string]bgzf.Chunk{
	"chr1": {Begin: bgzf.Offset{File: 1024, Block: 17}, End: bgzf.Offset{File: 4096, Block: 3}},
	"chr2": {Begin: bgzf.Offset{File: 9000, Block: 0}, End: bgzf.Offset{File: 12000, Block: 90}},
}

func virtualOffset(o bgzf.Offset) uint64 {
	return uint64(o.File)<<16 | uint64(o.Block)
}

type indexWriter struct {
	bytes.Buffer
}

func (w *indexWriter) put(values ...interface{}) {
	for _, v := range values {
		binary.Write(&w.Buffer, binary.LittleEndian, v)
	}
}

func (w *indexWriter) putNames(names []string) {
	var block bytes.Buffer
	for _, name := range names {
		block.WriteString(name)
		block.WriteByte(0)
	}
	w.put(int32(block.Len()))
	w.Write(block.Bytes())
}

// tabixAux writes the VCF preset header fields shared by tabix and CSI.
func (w *indexWriter) tabixAux(names []string) {
	w.put(int32(2), int32(1), int32(2), int32(0), int32('#'), int32(0))
	w.putNames(names)
}

func compress(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func buildTabix(t *testing.T, names []string) []byte {
	var w indexWriter
	w.WriteString(tabixMagic)
	w.put(int32(len(names)))
	w.tabixAux(names)
	for _, name := range names {
		c := testChunks[name]
		w.put(int32(1))                                     // n_bin
		w.put(uint32(firstLeafBin), int32(1))               // bin, n_chunk
		w.put(virtualOffset(c.Begin), virtualOffset(c.End)) // chunk
		w.put(int32(1), virtualOffset(c.Begin))             // n_intv, ioff
	}
	w.put(uint64(0)) // n_no_coor
	return compress(t, w.Bytes())
}

func buildCSI(t *testing.T, names []string, withNames bool) []byte {
	var aux indexWriter
	if withNames {
		aux.tabixAux(names)
	}

	var w indexWriter
	w.WriteString(csiMagic)
	w.put(int32(14), int32(5), int32(aux.Len()))
	w.Write(aux.Bytes())
	w.put(int32(len(names)))
	for _, name := range names {
		c := testChunks[name]
		w.put(int32(1))                                               // n_bin
		w.put(uint32(firstLeafBin), virtualOffset(c.Begin), int32(1)) // bin, loffset, n_chunk
		w.put(virtualOffset(c.Begin), virtualOffset(c.End))           // chunk
	}
	w.put(uint64(0)) // n_no_coor
	return compress(t, w.Bytes())
}

func TestRead(t *testing.T) {
	names := []string{"chr1", "chr2"}
	testCases := []struct {
		name    string
		data    []byte
		contigs []string
	}{
		{"tabix", buildTabix(t, names), nil},
		{"csi with names", buildCSI(t, names, true), []string{"ignored", "also ignored"}},
		{"csi with header contigs", buildCSI(t, names, false), names},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := Read(bytes.NewReader(tc.data), tc.contigs)
			require.NoError(t, err)
			assert.Equal(t, names, idx.Names())

			for _, name := range names {
				chunks, err := idx.Chunks(name, 0, 1000)
				require.NoError(t, err)
				assert.Equal(t, []bgzf.Chunk{testChunks[name]}, chunks, "chunks for %s", name)
			}

			_, err = idx.Chunks("chrX", 0, 1000)
			assert.Equal(t, ErrNoReference, err)
		})
	}
}

func TestTabix_BeyondLastRecord(t *testing.T) {
	idx, err := Read(bytes.NewReader(buildTabix(t, []string{"chr1"})), nil)
	require.NoError(t, err)

	chunks, err := idx.Chunks("chr1", 1<<20, 1<<21)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = idx.Chunks("chr1", 1<<30, 1<<31)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRead_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		data    []byte
		contigs []string
	}{
		{"not gzip", []byte("TBI\x01 plain"), nil},
		{"unknown magic", compress(t, []byte("BAI\x01\x00\x00\x00\x00")), nil},
		{"empty", compress(t, nil), nil},
		{"csi without names", buildCSI(t, []string{"chr1", "chr2"}, false), []string{"chr1"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tc.data), tc.contigs)
			require.Error(t, err)
			assert.True(t, failure.Is(err, failure.Decode), "got %v", err)
		})
	}
}
