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

// Package regions generates randomly spaced intervals for sampling a
// chromosome.
package regions

import (
	"math"
	"math/rand"

	"github.com/googlegenomics/phenics/internal/failure"
	"github.com/googlegenomics/phenics/internal/genomics"
)

// MaxPosition is the default ceiling on generated coordinates.
const MaxPosition = 1 << 32

// Factory holds the settings shared by the iterators of one sampling run.
type Factory struct {
	// RegionSize is the length of each interval.
	RegionSize uint64
	// StepSizeMax bounds the random gap before each interval: the gap is
	// drawn uniformly from [0, StepSizeMax).  Zero means no gap.
	StepSizeMax uint64
	// Ceiling is the coordinate the end of an interval must stay below.  Zero
	// means MaxPosition.
	Ceiling uint64
	// Rand is the source of gaps.  If nil, a source seeded from the global
	// generator is used.
	Rand *rand.Rand
}

// Validate reports settings that cannot produce a sequence of intervals.
func (f Factory) Validate() error {
	if f.RegionSize == 0 {
		return failure.New(failure.InvalidInput, "region size must be positive")
	}
	if f.StepSizeMax > math.MaxInt64 {
		return failure.Newf(failure.InvalidInput, "maximum step size %d exceeds %d", f.StepSizeMax, int64(math.MaxInt64))
	}
	return nil
}

// NewIterator returns an iterator over intervals of chromosome.
func (f Factory) NewIterator(chromosome string) *Iterator {
	ceiling := f.Ceiling
	if ceiling == 0 {
		ceiling = MaxPosition
	}
	rng := f.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Iterator{
		chromosome:  chromosome,
		cursor:      1,
		regionSize:  f.RegionSize,
		stepSizeMax: f.StepSizeMax,
		ceiling:     ceiling,
		rand:        rng,
	}
}

// Iterator yields increasing, non-overlapping intervals of one chromosome,
// separated by random gaps.  It cannot be rewound.
type Iterator struct {
	chromosome  string
	cursor      uint64
	regionSize  uint64
	stepSizeMax uint64
	ceiling     uint64
	rand        *rand.Rand
	done        bool
}

// Next returns the next interval.  Once the end of an interval would reach
// the ceiling, Next returns false and keeps doing so.  An iterator with a
// zero region size is always exhausted.
func (it *Iterator) Next() (genomics.Interval, bool) {
	if it.done || it.regionSize == 0 {
		it.done = true
		return genomics.Interval{}, false
	}
	if it.stepSizeMax > 0 {
		it.cursor += uint64(it.rand.Int63n(int64(min(it.stepSizeMax, math.MaxInt64))))
	}
	start := it.cursor
	it.cursor += it.regionSize
	if it.cursor >= it.ceiling || it.cursor <= start {
		it.done = true
		return genomics.Interval{}, false
	}
	// The interval covers [start, cursor) in 1-based coordinates.
	return genomics.NewInterval(it.chromosome, genomics.Position(start), genomics.Position(it.cursor-1)), true
}
