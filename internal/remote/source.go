// Copyright 2017 Google Inc.
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

package remote

import (
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/googlegenomics/phenics/internal/failure"
)

// Stream is an open response body for a byte range of an object.
type Stream struct {
	Body io.ReadCloser
	// Size is the total size of the object, or -1 if it is unknown.
	Size int64
}

// Opener starts the transfer of a byte range of target.  The body of the
// returned stream must begin at the first byte of r.
type Opener interface {
	Open(ctx context.Context, target string, r Range) (*Stream, error)
}

// Source is an io.ReadSeeker over a byte range of a remote object.  Every
// seek closes the current response and opens a new one starting at the
// target offset and ending at the original upper bound.
//
// A Source is not safe for concurrent use.
type Source struct {
	// The context is kept for the reconnects caused by Seek, which has no
	// context parameter of its own.
	ctx    context.Context
	opener Opener
	target string
	rng    Range
	log    *logrus.Entry

	in     *intake
	size   int64
	closed bool
}

func open(ctx context.Context, log *logrus.Entry, opener Opener, target string, r Range) (*Source, error) {
	s := &Source{
		ctx:    ctx,
		opener: opener,
		target: target,
		rng:    r,
		log:    log,
		size:   -1,
	}
	if err := s.connect(r); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) connect(r Range) error {
	stream, err := s.opener.Open(s.ctx, s.target, r)
	if err != nil {
		return err
	}
	if stream.Size >= 0 {
		s.size = stream.Size
	}
	s.in = newIntake(stream, r.Start())
	return nil
}

// Read implements io.Reader.
func (s *Source) Read(p []byte) (int, error) {
	if s.closed {
		return 0, failure.New(failure.Transport, "read from closed source")
	}
	return s.in.read(p)
}

// Seek implements io.Seeker.  Seeking relative to the end fails with
// failure.SeekUnsupported when the size of the object is unknown.
func (s *Source) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, failure.New(failure.Transport, "seek on closed source")
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.Position())
	case io.SeekEnd:
		if s.size < 0 {
			return 0, failure.New(failure.SeekUnsupported, "cannot seek from end: object size is unknown")
		}
		base = s.size
	default:
		return 0, failure.Newf(failure.SeekUnsupported, "invalid whence %d", whence)
	}

	target := base + offset
	if target < 0 {
		return 0, failure.Newf(failure.SeekUnsupported, "cannot seek to negative offset %d", target)
	}

	s.log.WithFields(logrus.Fields{
		"from": s.Position(),
		"to":   target,
	}).Debug("Reconnecting")

	s.in.close()
	if s.pastEnd(target) {
		// Nothing remains to be read, and servers reject unsatisfiable ranges.
		s.in = newIntake(&Stream{Body: http.NoBody, Size: s.size}, uint64(target))
		return target, nil
	}
	if err := s.connect(s.rng.WithFrom(uint64(target))); err != nil {
		s.closed = true
		return 0, err
	}
	return target, nil
}

func (s *Source) pastEnd(offset int64) bool {
	if s.size >= 0 && offset >= s.size {
		return true
	}
	return s.rng.To != nil && uint64(offset) > *s.rng.To
}

// Position returns the absolute offset of the next byte Read will return.
func (s *Source) Position() uint64 {
	return s.in.position
}

// Size returns the total size of the object, or -1 if it is unknown.
func (s *Source) Size() int64 {
	return s.size
}

// Close releases the current response.  Closing twice is a no-op.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.in.close()
}
