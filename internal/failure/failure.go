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

// Package failure defines the error kinds reported by remote reads, index
// queries and record decoding.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// Unknown is the kind of errors that did not originate in this module.
	Unknown Kind = iota
	// Transport is a network or connection failure.
	Transport
	// RemoteFetch is a non-success HTTP status.
	RemoteFetch
	// HeaderParse is a malformed Content-Range or size header.
	HeaderParse
	// NumericParse is a malformed number in a header or locator.
	NumericParse
	// Auth is a credential acquisition failure.
	Auth
	// SeekUnsupported is a seek that cannot be resolved to an offset.
	SeekUnsupported
	// Decode is a record, header or index decoding failure.
	Decode
	// Processor is an error returned by a record sink.
	Processor
	// InvalidInput is a malformed locator, region or argument.
	InvalidInput
)

var kindNames = map[Kind]string{
	Unknown:         "Unknown",
	Transport:       "Transport",
	RemoteFetch:     "RemoteFetch",
	HeaderParse:     "HeaderParse",
	NumericParse:    "NumericParse",
	Auth:            "Auth",
	SeekUnsupported: "SeekUnsupported",
	Decode:          "Decode",
	Processor:       "Processor",
	InvalidInput:    "InvalidInput",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a classified error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns an Error of the given kind.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf is like New but formats the message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind caused by err.  Wrap returns nil if
// err is nil.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost Error in the chain of err, or
// Unknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err has an Error of the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// FetchError is a RemoteFetch failure carrying the response status.
type FetchError struct {
	StatusCode int
	URL        string
	// Body holds the start of the response body, if it could be read.
	Body string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s)", e.StatusCode, e.URL)
}

// NewFetchError returns a RemoteFetch Error wrapping a FetchError.
func NewFetchError(code int, url, body string) error {
	return &Error{
		Kind:    RemoteFetch,
		Message: "fetching object",
		Err:     &FetchError{StatusCode: code, URL: url, Body: body},
	}
}

// StatusCode returns the HTTP status carried by a RemoteFetch error in the
// chain of err, or zero.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
