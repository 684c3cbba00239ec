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

package regions

import (
	"math"
	"math/rand"
	"testing"

	"github.com/googlegenomics/phenics/internal/failure"
	"github.com/googlegenomics/phenics/internal/genomics"
)

func TestIterator_Deterministic(t *testing.T) {
	f := Factory{RegionSize: 1000, StepSizeMax: 1, Ceiling: 2500}
	it := f.NewIterator("chr1")

	want := []genomics.Interval{
		{Chromosome: "chr1", Start: 1, End: 1000},
		{Chromosome: "chr1", Start: 1001, End: 2000},
	}
	var got []genomics.Interval
	for iv, ok := it.Next(); ok; iv, ok = it.Next() {
		got = append(got, iv)
	}
	if len(got) != len(want) {
		t.Fatalf("Wrong number of intervals: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Interval %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if _, ok := it.Next(); ok {
		t.Error("Exhausted iterator produced another interval")
	}
}

func TestIterator_RandomSteps(t *testing.T) {
	const (
		size    = 500
		maxStep = 300
	)
	f := Factory{
		RegionSize:  size,
		StepSizeMax: maxStep,
		Ceiling:     1 << 20,
		Rand:        rand.New(rand.NewSource(42)),
	}
	it := f.NewIterator("2")

	var (
		previous genomics.Interval
		count    int
	)
	for iv, ok := it.Next(); ok; iv, ok = it.Next() {
		if got := iv.End - iv.Start + 1; got != size {
			t.Fatalf("Interval %v has length %d, want %d", iv, got, size)
		}
		if uint64(iv.End) >= f.Ceiling {
			t.Fatalf("Interval %v reaches the ceiling %d", iv, f.Ceiling)
		}
		if count > 0 {
			gap := iv.Start - previous.End - 1
			if iv.Start <= previous.End || gap >= maxStep {
				t.Fatalf("Interval %v does not follow %v with a gap in [0, %d)", iv, previous, maxStep)
			}
		}
		previous = iv
		count++
	}
	if min := (1 << 20) / (size + maxStep); count < min {
		t.Errorf("Too few intervals: got %d, want at least %d", count, min)
	}
}

func TestIterator_NoStep(t *testing.T) {
	it := Factory{RegionSize: 10, Ceiling: 35}.NewIterator("X")
	var starts []genomics.Position
	for iv, ok := it.Next(); ok; iv, ok = it.Next() {
		starts = append(starts, iv.Start)
	}
	want := []genomics.Position{1, 11, 21}
	if len(starts) != len(want) {
		t.Fatalf("Wrong starts: got %v, want %v", starts, want)
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("Start %d: got %d, want %d", i, starts[i], want[i])
		}
	}
}

func TestFactory_DefaultCeiling(t *testing.T) {
	it := Factory{RegionSize: MaxPosition / 2}.NewIterator("1")
	if _, ok := it.Next(); !ok {
		t.Fatal("First interval missing")
	}
	if _, ok := it.Next(); ok {
		t.Error("Second interval should reach the default ceiling")
	}
}

func TestFactory_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		factory Factory
		valid   bool
	}{
		{"defaults", Factory{RegionSize: 1000, StepSizeMax: 1000000}, true},
		{"no step", Factory{RegionSize: 1}, true},
		{"largest step", Factory{RegionSize: 1, StepSizeMax: math.MaxInt64}, true},
		{"empty regions", Factory{RegionSize: 0, StepSizeMax: 10}, false},
		{"step too large", Factory{RegionSize: 10, StepSizeMax: 1 << 63}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.factory.Validate()
			if tc.valid && err != nil {
				t.Errorf("Validate() returned unexpected error: %v", err)
			}
			if !tc.valid && !failure.Is(err, failure.InvalidInput) {
				t.Errorf("Validate(): got %v, want an InvalidInput error", err)
			}
		})
	}
}

func TestIterator_DegenerateSettings(t *testing.T) {
	it := Factory{RegionSize: 0, Ceiling: 100}.NewIterator("chr1")
	for i := 0; i < 3; i++ {
		if iv, ok := it.Next(); ok {
			t.Fatalf("Next() with a zero region size returned %v", iv)
		}
	}

	it = Factory{RegionSize: 10, StepSizeMax: 1 << 63, Rand: rand.New(rand.NewSource(1))}.NewIterator("chr1")
	for iv, ok := it.Next(); ok; iv, ok = it.Next() {
		if iv.End < iv.Start || !iv.Bounded() {
			t.Fatalf("Next() returned malformed interval %+v", iv)
		}
	}
}
