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

// Package vcf decodes VCF headers and records through vcfgo.
package vcf

import (
	"io"

	"github.com/brentp/vcfgo"

	"github.com/googlegenomics/phenics/internal/failure"
)

// ReadHeader reads a VCF header from the uncompressed stream r.
func ReadHeader(r io.Reader) (*vcfgo.Header, error) {
	src := &errorRecorder{r: r}
	rd, err := vcfgo.NewReader(src, false)
	if src.err != nil {
		return nil, failure.Wrap(failure.Decode, "reading header", src.err)
	}
	if err != nil {
		return nil, failure.Wrap(failure.Decode, "parsing header", err)
	}
	return rd.Header, nil
}

// Contigs returns the IDs of the contigs declared by header, in order.
func Contigs(header *vcfgo.Header) []string {
	var names []string
	for _, contig := range header.Contigs {
		if id := contig["ID"]; id != "" {
			names = append(names, id)
		}
	}
	return names
}

// Decoder reads VCF records that follow a previously read header.
type Decoder struct {
	rd  *vcfgo.Reader
	src *errorRecorder
}

// NewDecoder returns a Decoder of the records in r, which must begin at a
// record boundary.
func NewDecoder(r io.Reader, header *vcfgo.Header) (*Decoder, error) {
	src := &errorRecorder{r: r}
	rd, err := vcfgo.NewWithHeader(src, header, false)
	if err != nil {
		return nil, failure.Wrap(failure.Decode, "initializing record reader", err)
	}
	return &Decoder{rd: rd, src: src}, nil
}

// Next returns the next record, or io.EOF after the last one.
func (d *Decoder) Next() (*vcfgo.Variant, error) {
	v := d.rd.Read()
	if d.src.err != nil {
		return nil, failure.Wrap(failure.Decode, "reading records", d.src.err)
	}
	if err := d.rd.Error(); err != nil {
		return nil, failure.Wrap(failure.Decode, "parsing record", err)
	}
	if v == nil {
		return nil, io.EOF
	}
	return v, nil
}

// errorRecorder keeps the first error other than io.EOF returned by r, which
// vcfgo would otherwise treat as the end of the input.
type errorRecorder struct {
	r   io.Reader
	err error
}

func (e *errorRecorder) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF && e.err == nil {
		e.err = err
	}
	return n, err
}
