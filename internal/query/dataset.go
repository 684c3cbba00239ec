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
	"errors"
	"fmt"
	"io"

	"github.com/brentp/vcfgo"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/googlegenomics/phenics/internal/bgzf"
	"github.com/googlegenomics/phenics/internal/failure"
	"github.com/googlegenomics/phenics/internal/genomics"
	"github.com/googlegenomics/phenics/internal/index"
	"github.com/googlegenomics/phenics/internal/regions"
	"github.com/googlegenomics/phenics/internal/status"
)

// ChunkOpener returns a reader of the decompressed bytes of chunk, starting
// at its first record and ending at its end offset.
type ChunkOpener func(ctx context.Context, chunk bgzf.Chunk) (io.ReadCloser, error)

// Dataset is an indexed VCF file ready to be queried.
type Dataset struct {
	Index     index.Index
	Header    *vcfgo.Header
	OpenChunk ChunkOpener
	// NewDecoder defaults to NewVCFDecoder.
	NewDecoder DecoderFunc
	// MergeLimit, if non-zero, joins overlapping chunks whose combined size
	// stays within the limit so they are fetched together.
	MergeLimit uint64
	Log        *logrus.Entry
}

// Query streams every record of the dataset that lies in iv to p and returns
// the number of records passed to p.  A chromosome missing from the index
// matches nothing.
func (d *Dataset) Query(ctx context.Context, iv genomics.Interval, p Processor) (int, error) {
	log := d.logger().WithFields(logrus.Fields{
		"query":    uuid.NewString(),
		"interval": iv,
	})

	beg, end := iv.HalfOpen(regions.MaxPosition)
	chunks, err := d.Index.Chunks(iv.Chromosome, beg, end)
	if errors.Is(err, index.ErrNoReference) {
		log.Debug("Chromosome is not indexed")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying index for %s: %w", iv, err)
	}

	bgzf.Sort(chunks)
	chunks = bgzf.Merge(chunks, d.MergeLimit)
	log.WithField("chunks", len(chunks)).Debug("Resolved interval")

	var matched int
	for _, chunk := range chunks {
		n, err := d.scan(ctx, log.WithField("chunk", bgzf.Format(chunk)), chunk, iv, p)
		matched += n
		if err != nil {
			return matched, fmt.Errorf("reading chunk %s: %w", bgzf.Format(chunk), err)
		}
	}
	return matched, nil
}

// scan passes the records of chunk that lie in iv to p.  Records are assumed
// to be sorted by chromosome and position, so the scan stops at the first
// record past the end of iv or on the next chromosome.
func (d *Dataset) scan(ctx context.Context, log *logrus.Entry, chunk bgzf.Chunk, iv genomics.Interval, p Processor) (int, error) {
	r, err := d.OpenChunk(ctx, chunk)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	newDecoder := d.NewDecoder
	if newDecoder == nil {
		newDecoder = NewVCFDecoder
	}
	dec, err := newDecoder(r, d.Header)
	if err != nil {
		return 0, err
	}

	reporter := status.NewReporter(log)
	var (
		matched int
		seen    bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return matched, err
		}
		v, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return matched, err
		}
		reporter.CountRecord()
		reporter.ReportMaybe()

		if v.Chromosome != iv.Chromosome {
			if seen {
				log.WithField("chromosome", v.Chromosome).Debug("Passed end of chromosome")
				break
			}
			continue
		}
		seen = true
		pos := genomics.Position(v.Pos)
		if iv.After(pos) {
			log.WithField("position", pos).Debug("Passed end of interval")
			break
		}
		if !iv.Contains(pos) {
			continue
		}
		if err := p.Process(v); err != nil {
			return matched, failure.Wrap(failure.Processor, fmt.Sprintf("processing record at %s:%d", v.Chromosome, v.Pos), err)
		}
		matched++
	}
	return matched, nil
}

// Sample queries a random walk of intervals over every indexed chromosome, in
// index order, and returns the total number of records passed to p.  The
// first error ends the run.
func (d *Dataset) Sample(ctx context.Context, f regions.Factory, p Processor) (int, error) {
	var total int
	for _, name := range d.Index.Names() {
		it := f.NewIterator(name)
		var intervals, matched int
		for iv, ok := it.Next(); ok; iv, ok = it.Next() {
			n, err := d.Query(ctx, iv, p)
			total += n
			matched += n
			intervals++
			if err != nil {
				return total, fmt.Errorf("sampling %s: %w", iv, err)
			}
		}
		d.logger().WithFields(logrus.Fields{
			"chromosome": name,
			"intervals":  intervals,
			"records":    matched,
		}).Info("Sampled chromosome")
	}
	return total, nil
}

func (d *Dataset) logger() *logrus.Entry {
	if d.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return d.Log
}
