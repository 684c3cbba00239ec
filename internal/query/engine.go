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

package query

import (
	"context"
	"fmt"
	"io"

	"github.com/brentp/vcfgo"
	"github.com/sirupsen/logrus"

	"github.com/googlegenomics/phenics/internal/bgzf"
	"github.com/googlegenomics/phenics/internal/genomics"
	"github.com/googlegenomics/phenics/internal/index"
	"github.com/googlegenomics/phenics/internal/regions"
	"github.com/googlegenomics/phenics/internal/remote"
	"github.com/googlegenomics/phenics/internal/vcf"
)

// Engine opens remote datasets through a Connector.
type Engine struct {
	Connector *remote.Connector
	// MergeLimit is passed on to the datasets opened by the engine.
	MergeLimit uint64
	Log        *logrus.Entry
}

// Open reads the header of the block-compressed VCF file at dataURL and its
// index at indexURL, each over its own connection.
func (e *Engine) Open(ctx context.Context, dataURL, indexURL string) (*Dataset, error) {
	log := e.logger().WithField("data", dataURL)

	src, err := e.Connector.Connect(ctx, dataURL, remote.Everything())
	if err != nil {
		return nil, fmt.Errorf("opening data: %w", err)
	}
	header, err := readHeader(src)
	src.Close()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", dataURL, err)
	}
	log.WithField("samples", len(header.SampleNames)).Debug("Read header")

	src, err = e.Connector.Connect(ctx, indexURL, remote.Everything())
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	idx, err := index.Read(src, vcf.Contigs(header))
	src.Close()
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", indexURL, err)
	}
	log.Debug(index.Describe(idx))

	return &Dataset{
		Index:      idx,
		Header:     header,
		OpenChunk:  e.chunkOpener(dataURL),
		NewDecoder: NewVCFDecoder,
		MergeLimit: e.MergeLimit,
		Log:        log,
	}, nil
}

func readHeader(src io.Reader) (*vcfgo.Header, error) {
	r, err := bgzf.NewReader(src)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return vcf.ReadHeader(r)
}

// chunkOpener returns a ChunkOpener that fetches the compressed bytes of each
// chunk of dataURL over a new connection.
func (e *Engine) chunkOpener(dataURL string) ChunkOpener {
	return func(ctx context.Context, chunk bgzf.Chunk) (io.ReadCloser, error) {
		from, to := bgzf.ByteRange(chunk)
		src, err := e.Connector.Connect(ctx, dataURL, remote.Between(from, to))
		if err != nil {
			return nil, err
		}
		r, err := bgzf.NewChunkReader(src, chunk)
		if err != nil {
			src.Close()
			return nil, err
		}
		return &chunkReader{r, src}, nil
	}
}

type chunkReader struct {
	io.ReadCloser
	src *remote.Source
}

func (r *chunkReader) Close() error {
	r.ReadCloser.Close()
	return r.src.Close()
}

// Query opens the dataset and runs Dataset.Query.
func (e *Engine) Query(ctx context.Context, dataURL, indexURL string, iv genomics.Interval, p Processor) (int, error) {
	d, err := e.Open(ctx, dataURL, indexURL)
	if err != nil {
		return 0, err
	}
	return d.Query(ctx, iv, p)
}

// Sample opens the dataset and runs Dataset.Sample.
func (e *Engine) Sample(ctx context.Context, dataURL, indexURL string, f regions.Factory, p Processor) (int, error) {
	d, err := e.Open(ctx, dataURL, indexURL)
	if err != nil {
		return 0, err
	}
	return d.Sample(ctx, f, p)
}

func (e *Engine) logger() *logrus.Entry {
	if e.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return e.Log
}
