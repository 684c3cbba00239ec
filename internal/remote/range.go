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

// Package remote provides seekable readers over byte ranges of remote objects
// served over HTTP(S), Google Cloud Storage and S3.
package remote

import (
	"fmt"
	"strconv"
)

// Range is an inclusive byte interval within a remote object.  A nil From
// means the start of the object and a nil To means its end.  Ranges are
// values: the constructors copy their arguments.
type Range struct {
	From, To *uint64
}

// Everything returns the Range covering the whole object.
func Everything() Range {
	return Range{}
}

// From returns the Range from offset to the end of the object.
func From(offset uint64) Range {
	return Range{From: &offset}
}

// Between returns the Range [from, to], both ends inclusive.
func Between(from, to uint64) Range {
	return Range{From: &from, To: &to}
}

// IsEverything reports whether r has neither bound.
func (r Range) IsEverything() bool {
	return r.From == nil && r.To == nil
}

// Start returns the first offset covered by r.
func (r Range) Start() uint64 {
	if r.From == nil {
		return 0
	}
	return *r.From
}

// WithFrom returns a copy of r starting at offset, keeping its upper bound.
func (r Range) WithFrom(offset uint64) Range {
	out := Range{From: &offset}
	if r.To != nil {
		to := *r.To
		out.To = &to
	}
	return out
}

// Length returns the number of bytes covered by r, or -1 when r has no upper
// bound.
func (r Range) Length() int64 {
	if r.To == nil {
		return -1
	}
	if *r.To < r.Start() {
		return 0
	}
	return int64(*r.To-r.Start()) + 1
}

// Header returns the value of the HTTP Range header selecting r.
func (r Range) Header() string {
	to := ""
	if r.To != nil {
		to = strconv.FormatUint(*r.To, 10)
	}
	return fmt.Sprintf("bytes=%d-%s", r.Start(), to)
}

func (r Range) String() string {
	if r.IsEverything() {
		return "everything"
	}
	return r.Header()
}
