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

// Package tally accumulates per-sample genotype counts over the records of a
// query and writes them as TSV or Parquet tables.
package tally

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Sample holds the counts of one sample.
type Sample struct {
	ID string `parquet:"id"`
	// NoGenotype counts records where the sample has no genotype call.
	NoGenotype uint64 `parquet:"n_no_gt"`
	// NoAllele counts alleles reported as unknown ('.').
	NoAllele uint64 `parquet:"n_no_alt"`
	// AltDosage counts alleles other than the reference.
	AltDosage uint64 `parquet:"n_alt"`
}

// Table holds the counts of every sample of a file, in header order.
type Table struct {
	Samples []Sample
	Records uint64
}

// NewTable returns an empty table for the samples named by ids.
func NewTable(ids []string) *Table {
	t := &Table{Samples: make([]Sample, len(ids))}
	for i, id := range ids {
		t.Samples[i].ID = id
	}
	return t
}

// Add counts the genotypes of one record.  Each genotype lists allele indexes
// with -1 marking an unknown allele; an empty genotype is a missing call.
// locus identifies the record in errors.
func (t *Table) Add(locus string, genotypes [][]int) error {
	if len(genotypes) != len(t.Samples) {
		return fmt.Errorf("at %s, got %d genotypes, but have %d samples", locus, len(genotypes), len(t.Samples))
	}
	for i, gt := range genotypes {
		s := &t.Samples[i]
		if len(gt) == 0 {
			s.NoGenotype++
			continue
		}
		for _, allele := range gt {
			switch {
			case allele < 0:
				s.NoAllele++
			case allele > 0:
				s.AltDosage++
			}
		}
	}
	t.Records++
	return nil
}

// Summary describes the size of the table.
func (t *Table) Summary() string {
	return fmt.Sprintf("%d samples, %d records", len(t.Samples), t.Records)
}

// WriteTSV writes the table as tab separated text with a '##' preamble.
func (t *Table) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "##n_records=%d\n", t.Records)
	fmt.Fprintf(bw, "##n_samples=%d\n", len(t.Samples))
	fmt.Fprintln(bw, "#id\tn_no_gt\tn_no_alt\tn_alt")
	for _, s := range t.Samples {
		fmt.Fprintf(bw, "%s\t%d\t%d\t%d\n", s.ID, s.NoGenotype, s.NoAllele, s.AltDosage)
	}
	return bw.Flush()
}

// WriteParquet writes one row per sample in Parquet format.
func (t *Table) WriteParquet(w io.Writer) error {
	pw := parquet.NewGenericWriter[Sample](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(t.Samples); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return pw.Close()
}

// IsParquet reports whether path names a Parquet file.
func IsParquet(path string) bool {
	return strings.HasSuffix(path, ".parquet")
}

// WriteFile writes the table to path, choosing the format from its
// extension.  The path "-" denotes standard output and always gets TSV.
func (t *Table) WriteFile(path string) error {
	if path == "-" || path == "" {
		return t.WriteTSV(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	write := t.WriteTSV
	if IsParquet(path) {
		write = t.WriteParquet
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
