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

package binary

import (
	"bytes"
	"reflect"
	"testing"
)

func TestExpectBytes(t *testing.T) {
	testCases := []struct {
		want  []byte
		input []byte
		match bool
	}{
		{[]byte("TBI\x01"), []byte("TBI\x01"), true},
		{[]byte("TBI\x01"), []byte("TBI\x01EXTRA"), true},
		{[]byte("CSI\x01"), []byte("CSI\x02"), false},
		{[]byte("CSI\x01"), []byte("CSI"), false},
		{[]byte("CSI\x01"), []byte(""), false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.input), func(t *testing.T) {
			err := ExpectBytes(bytes.NewReader(tc.input), tc.want)
			if err != nil && tc.match {
				t.Fatalf("ExpectBytes returned unexpected error: %v", err)
			} else if err == nil && !tc.match {
				t.Fatalf("ExpectBytes accepted mismatched input %q", tc.input)
			}
		})
	}
}

func TestRead(t *testing.T) {
	var header struct {
		MinShift, Depth int32
	}
	input := []byte{14, 0, 0, 0, 5, 0, 0, 0}
	if err := Read(bytes.NewReader(input), &header); err != nil {
		t.Fatalf("Read returned unexpected error: %v", err)
	}
	if header.MinShift != 14 || header.Depth != 5 {
		t.Errorf("Wrong values: got %+v, want {14 5}", header)
	}
}

func TestNames(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"one", "chr1\x00", []string{"chr1"}},
		{"several", "chr1\x00chr2\x00chrX\x00", []string{"chr1", "chr2", "chrX"}},
		{"unterminated", "chr1\x00chr2", []string{"chr1", "chr2"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Names([]byte(tc.input)); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Names(%q): got %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
