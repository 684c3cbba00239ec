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
	"io"

	"github.com/googlegenomics/phenics/internal/failure"
)

// windowSize is the most data pulled from a response body per refill.
const windowSize = 64 * 1024

// intake holds the live state of one response: the body, the window of
// fetched but unconsumed bytes and the absolute offset of the next byte.
type intake struct {
	body     io.ReadCloser
	buf      []byte
	window   []byte
	position uint64
	size     int64
	done     bool
}

func newIntake(stream *Stream, position uint64) *intake {
	return &intake{
		body:     stream.Body,
		buf:      make([]byte, windowSize),
		position: position,
		size:     stream.Size,
	}
}

// read copies buffered bytes into p, refilling the window from the body only
// when it is empty.  It returns io.EOF only once the body is exhausted.
func (in *intake) read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(in.window) == 0 {
		if in.done {
			return 0, io.EOF
		}
		n, err := in.body.Read(in.buf)
		in.window = in.buf[:n]
		if err == io.EOF {
			in.done = true
		} else if err != nil {
			return 0, failure.Wrap(failure.Transport, "reading response body", err)
		}
	}
	n := copy(p, in.window)
	in.window = in.window[n:]
	in.position += uint64(n)
	return n, nil
}

func (in *intake) close() error {
	in.window = nil
	return in.body.Close()
}
