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

// Package query runs targeted and sampling queries over remote, indexed VCF
// files, streaming the matching records to a Processor.
package query

import (
	"io"

	"github.com/brentp/vcfgo"

	"github.com/googlegenomics/phenics/internal/vcf"
)

// Processor receives the records matched by a query.
type Processor interface {
	Process(*vcfgo.Variant) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(*vcfgo.Variant) error

// Process calls f(v).
func (f ProcessorFunc) Process(v *vcfgo.Variant) error {
	return f(v)
}

// Decoder yields the records of one chunk, returning io.EOF after the last.
type Decoder interface {
	Next() (*vcfgo.Variant, error)
}

// DecoderFunc creates a Decoder of the records in r.
type DecoderFunc func(r io.Reader, header *vcfgo.Header) (Decoder, error)

// NewVCFDecoder is the DecoderFunc for VCF text.
func NewVCFDecoder(r io.Reader, header *vcfgo.Header) (Decoder, error) {
	d, err := vcf.NewDecoder(r, header)
	if err != nil {
		return nil, err
	}
	return d, nil
}
