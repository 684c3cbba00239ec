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

package records

import (
	"fmt"

	"github.com/brentp/vcfgo"

	"github.com/googlegenomics/phenics/internal/failure"
	"github.com/googlegenomics/phenics/internal/tally"
)

// Tally counts the genotypes of every processed record per sample.
type Tally struct {
	table *tally.Table
}

// NewTally returns a Tally over the samples declared by header.
func NewTally(header *vcfgo.Header) *Tally {
	return &Tally{table: tally.NewTable(header.SampleNames)}
}

// Process adds the genotypes of v to the tally.
func (t *Tally) Process(v *vcfgo.Variant) error {
	genotypes := make([][]int, len(v.Samples))
	for i, s := range v.Samples {
		if s != nil {
			genotypes[i] = s.GT
		}
	}
	if err := t.table.Add(fmt.Sprintf("%s:%d", v.Chromosome, v.Pos), genotypes); err != nil {
		return failure.Wrap(failure.InvalidInput, "counting genotypes", err)
	}
	return nil
}

// Table returns the accumulated counts.
func (t *Tally) Table() *tally.Table {
	return t.table
}
