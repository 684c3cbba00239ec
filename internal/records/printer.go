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

// Package records contains the processors that consume the records matched
// by a query.
package records

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brentp/vcfgo"
	jsoniter "github.com/json-iterator/go"

	"github.com/googlegenomics/phenics/internal/failure"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format selects the encoding used by a Printer.
type Format string

const (
	// VCF prints a VCF header followed by one text line per record.
	VCF Format = "vcf"
	// JSON prints one JSON object per record.
	JSON Format = "json"
)

// ParseFormat returns the Format named by s.  An empty s selects VCF.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return VCF, nil
	case VCF, JSON:
		return f, nil
	}
	return "", failure.Newf(failure.InvalidInput, "unsupported format %q", s)
}

// ContentType returns the MIME type of output in format f.
func (f Format) ContentType() string {
	if f == JSON {
		return "application/x-ndjson"
	}
	return "text/x-vcf"
}

// Printer writes every record it processes to an output stream.
type Printer struct {
	w       *bufio.Writer
	format  Format
	samples []string
	wrote   bool
	header  *vcfgo.Header
}

// NewPrinter returns a Printer writing records of a file with the given
// header to w.  Output is buffered until Flush.
func NewPrinter(w io.Writer, format Format, header *vcfgo.Header) *Printer {
	p := &Printer{w: bufio.NewWriter(w), format: format, header: header}
	if header != nil {
		p.samples = header.SampleNames
	}
	return p
}

// Process writes v.
func (p *Printer) Process(v *vcfgo.Variant) error {
	if !p.wrote {
		p.wrote = true
		if err := p.writeHeader(); err != nil {
			return err
		}
	}
	if p.format == JSON {
		return p.writeJSON(v)
	}
	_, err := fmt.Fprintln(p.w, v)
	return err
}

func (p *Printer) writeHeader() error {
	if p.format != VCF || p.header == nil {
		return nil
	}
	if _, err := vcfgo.NewWriter(p.w, p.header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// Flush writes any buffered output, including the VCF header if no record
// was processed.
func (p *Printer) Flush() error {
	if !p.wrote {
		p.wrote = true
		if err := p.writeHeader(); err != nil {
			return err
		}
	}
	return p.w.Flush()
}

type jsonRecord struct {
	Chromosome string            `json:"chromosome"`
	Position   uint64            `json:"position"`
	ID         string            `json:"id,omitempty"`
	Reference  string            `json:"reference"`
	Alternate  []string          `json:"alternate"`
	Quality    float32           `json:"quality"`
	Filter     string            `json:"filter,omitempty"`
	Genotypes  map[string]string `json:"genotypes,omitempty"`
}

func (p *Printer) writeJSON(v *vcfgo.Variant) error {
	record := jsonRecord{
		Chromosome: v.Chromosome,
		Position:   v.Pos,
		ID:         v.Id(),
		Reference:  v.Reference,
		Alternate:  v.Alternate,
		Quality:    v.Quality,
		Filter:     v.Filter,
	}
	if len(v.Samples) > 0 {
		record.Genotypes = make(map[string]string, len(v.Samples))
		for i, s := range v.Samples {
			name := strconv.Itoa(i)
			if i < len(p.samples) {
				name = p.samples[i]
			}
			record.Genotypes[name] = FormatGenotype(s)
		}
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record at %s:%d: %w", v.Chromosome, v.Pos, err)
	}
	data = append(data, '\n')
	_, err = p.w.Write(data)
	return err
}

// FormatGenotype renders the GT field of s the way it appears in VCF text.
func FormatGenotype(s *vcfgo.SampleGenotype) string {
	if s == nil || len(s.GT) == 0 {
		return "."
	}
	sep := "/"
	if s.Phased {
		sep = "|"
	}
	alleles := make([]string, len(s.GT))
	for i, a := range s.GT {
		if a < 0 {
			alleles[i] = "."
		} else {
			alleles[i] = strconv.Itoa(a)
		}
	}
	return strings.Join(alleles, sep)
}
