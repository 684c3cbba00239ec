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

// Package vcftest provides block-compressed VCF fixtures and an HTTP server
// for tests that read them remotely.
package vcftest

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// Header is a VCF header declaring chr1 and a single sample S1.
const Header = "##fileformat=VCFv4.2\n" +
	"##contig=<ID=chr1,length=100000>\n" +
	"##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n"

// Record returns a chr1 VCF line at pos with genotype gt.
func Record(pos int, gt string) string {
	return "chr1\t" + strconv.Itoa(pos) + "\t.\tA\tG\t50\tPASS\t.\tGT\t" + gt + "\n"
}

// File is a BGZF file written one block per entry of its source.
type File struct {
	Data []byte
	// Starts holds the offset of each block.
	Starts []int64
	// End is the offset of the end-of-file marker block.
	End int64
}

// Compress writes each of blocks as a separate BGZF block.
func Compress(t testing.TB, blocks ...string) *File {
	var (
		buf bytes.Buffer
		f   File
	)
	w := bgzf.NewWriter(&buf, 1)
	for _, block := range blocks {
		f.Starts = append(f.Starts, int64(buf.Len()))
		_, err := w.Write([]byte(block))
		require.NoError(t, err)
		require.NoError(t, w.Flush())
	}
	f.End = int64(buf.Len())
	require.NoError(t, w.Close())
	f.Data = buf.Bytes()
	return &f
}

// Chunk returns the chunk from the start of block first to the end of the
// file.
func (f *File) Chunk(first int) bgzf.Chunk {
	return bgzf.Chunk{Begin: bgzf.Offset{File: f.Starts[first]}, End: bgzf.Offset{File: f.End}}
}

// Tabix returns a gzipped tabix index in which chromosome name is covered by
// the single chunk.
func Tabix(t testing.TB, name string, chunk bgzf.Chunk) []byte {
	var w bytes.Buffer
	put := func(values ...interface{}) {
		for _, v := range values {
			require.NoError(t, binary.Write(&w, binary.LittleEndian, v))
		}
	}
	voff := func(o bgzf.Offset) uint64 {
		return uint64(o.File)<<16 | uint64(o.Block)
	}
	names := name + "\x00"

	w.WriteString("TBI\x01")
	put(int32(1))                                                     // n_ref
	put(int32(2), int32(1), int32(2), int32(0), int32('#'), int32(0)) // VCF preset
	put(int32(len(names)))                                            // l_nm
	w.WriteString(names)
	put(int32(1), uint32(4681), int32(1), voff(chunk.Begin), voff(chunk.End)) // one leaf bin, one chunk
	put(int32(1), voff(chunk.Begin))                                          // linear index
	put(uint64(0))                                                            // n_no_coor

	var out bytes.Buffer
	gz := gzip.NewWriter(&out)
	_, err := gz.Write(w.Bytes())
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return out.Bytes()
}

// Server serves named objects with Range support and records the Range
// header of every request.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	ranges map[string][]string
}

// NewServer starts a Server for objects, keyed by URL path.  It is closed
// when the test ends.
func NewServer(t testing.TB, objects map[string][]byte) *Server {
	s := &Server{ranges: make(map[string][]string)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, ok := objects[req.URL.Path]
		if !ok {
			http.NotFound(w, req)
			return
		}
		s.mu.Lock()
		s.ranges[req.URL.Path] = append(s.ranges[req.URL.Path], req.Header.Get("Range"))
		s.mu.Unlock()
		http.ServeContent(w, req, req.URL.Path, time.Now(), bytes.NewReader(data))
	}))
	t.Cleanup(s.Close)
	return s
}

// Ranges returns the Range headers sent for path, in request order.
func (s *Server) Ranges(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges[path]...)
}
