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
	"errors"
	"io"

	"github.com/biogo/hts/bgzf"
	biogo "github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/tabix"

	"github.com/googlegenomics/phenics/internal/failure"
)

// tabixCeiling is the largest coordinate addressable by the tabix binning
// scheme.
const tabixCeiling = 1 << 29

type tabixIndex struct {
	idx *tabix.Index
}

func readTabix(r io.Reader) (*tabixIndex, error) {
	idx, err := tabix.ReadFrom(r)
	if err != nil {
		return nil, failure.Wrap(failure.Decode, "reading tabix index", err)
	}
	return &tabixIndex{idx}, nil
}

func (t *tabixIndex) Names() []string {
	return t.idx.Names()
}

func (t *tabixIndex) Chunks(name string, beg, end int) ([]bgzf.Chunk, error) {
	if end > tabixCeiling {
		end = tabixCeiling
	}
	if beg >= end {
		for _, n := range t.idx.Names() {
			if n == name {
				return nil, nil
			}
		}
		return nil, ErrNoReference
	}

	chunks, err := t.idx.Chunks(name, beg, end)
	switch {
	case err == nil:
		return chunks, nil
	case errors.Is(err, biogo.ErrNoReference):
		return nil, ErrNoReference
	case errors.Is(err, biogo.ErrInvalid):
		// The interval starts beyond the last indexed record.
		return nil, nil
	}
	return nil, failure.Wrap(failure.Decode, "querying tabix index", err)
}

// location is a tabix.Record naming a query interval.
type location struct {
	name       string
	start, end int
}

func (l location) RefName() string { return l.name }
func (l location) Start() int      { return l.start }
func (l location) End() int        { return l.end }
