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

package failure

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", io.EOF, Unknown},
		{"direct", New(Auth, "no token"), Auth},
		{"wrapped with context", fmt.Errorf("opening index: %w", New(Decode, "bad magic")), Decode},
		{"fetch error", NewFetchError(404, "https://example.com/x", ""), RemoteFetch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(): got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIs_NestedKinds(t *testing.T) {
	inner := New(Transport, "connection reset")
	outer := Wrap(Decode, "reading records", inner)

	if !Is(outer, Decode) {
		t.Error("Is(Decode) = false, want true")
	}
	if !Is(outer, Transport) {
		t.Error("Is(Transport) = false, want true")
	}
	if Is(outer, Auth) {
		t.Error("Is(Auth) = true, want false")
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(Transport, "reading", nil); err != nil {
		t.Errorf("Wrap(nil): got %v, want nil", err)
	}
}

func TestError_Chain(t *testing.T) {
	err := Wrap(Transport, "reading body", io.ErrUnexpectedEOF)
	if got, want := err.Error(), "Transport: reading body: unexpected EOF"; got != want {
		t.Errorf("Error(): got %q, want %q", got, want)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is did not find the cause")
	}
}

func TestStatusCode(t *testing.T) {
	err := fmt.Errorf("connecting: %w", NewFetchError(403, "https://example.com/o", "denied"))
	if got, want := StatusCode(err), 403; got != want {
		t.Errorf("StatusCode(): got %d, want %d", got, want)
	}
	if got := StatusCode(io.EOF); got != 0 {
		t.Errorf("StatusCode(io.EOF): got %d, want 0", got)
	}
}
