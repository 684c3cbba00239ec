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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/googlegenomics/phenics/internal/failure"
)

// maxErrorBody is the most of an error response body kept for diagnostics.
const maxErrorBody = 4 * 1024

// HTTPOpener fetches byte ranges with HTTP GET requests.
type HTTPOpener struct {
	Client *http.Client
	// Tokens, if set, provides the bearer token sent with each request.
	Tokens oauth2.TokenSource
	Log    *logrus.Entry
}

// NewHTTPClient returns an HTTP client that trusts the certificate authorities
// in the bundle named by CURL_CA_BUNDLE in addition to the system pool.
func NewHTTPClient() (*http.Client, error) {
	// For compatibility with other tools, read the standard cURL certificate
	// authority override from the environment.
	bundle := os.Getenv("CURL_CA_BUNDLE")
	if bundle == "" {
		return http.DefaultClient, nil
	}
	pem, err := os.ReadFile(bundle)
	if err != nil {
		return nil, fmt.Errorf("reading CA override file %q: %w", bundle, err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("initializing system certificate pool: %w", err)
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("adding certificates from bundle %q", bundle)
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				RootCAs: pool,
			}},
	}, nil
}

// Open issues a GET for r of target.  No Range header is sent when r is
// Everything.  A server that ignores the Range header and replies with the
// whole object has its reply trimmed to r.
func (o *HTTPOpener) Open(ctx context.Context, target string, r Range) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, failure.Wrap(failure.InvalidInput, "creating request", err)
	}
	if !r.IsEverything() {
		req.Header.Set("Range", r.Header())
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if err := authorize(req, o.Tokens); err != nil {
		return nil, err
	}

	log := o.logger().WithFields(logrus.Fields{
		"url":        target,
		"range":      r,
		"request_id": req.Header.Get("X-Request-Id"),
	})
	log.Debug("Sending request")

	resp, err := o.client().Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.Transport, "sending request", err)
	}
	log = log.WithFields(logrus.Fields{
		"status":         resp.StatusCode,
		"content_range":  resp.Header.Get("Content-Range"),
		"content_length": resp.Header.Get("Content-Length"),
	})
	log.Debug("Received response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			log.WithError(err).Warn("Failed to read error response body")
		} else {
			log.WithField("body", string(body)).Warn("Request failed")
		}
		return nil, failure.NewFetchError(resp.StatusCode, target, string(body))
	}

	size, err := objectSize(resp.Header)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	stream := &Stream{Body: resp.Body, Size: size}
	if resp.StatusCode == http.StatusOK && !r.IsEverything() {
		if err := trim(stream, r); err != nil {
			resp.Body.Close()
			return nil, err
		}
	}
	return stream, nil
}

func (o *HTTPOpener) client() *http.Client {
	if o.Client == nil {
		return http.DefaultClient
	}
	return o.Client
}

func (o *HTTPOpener) logger() *logrus.Entry {
	if o.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return o.Log
}

// trim discards the bytes of a full-object body that precede r and limits
// it to the length of r.
func trim(stream *Stream, r Range) error {
	if start := r.Start(); start > 0 {
		if _, err := io.CopyN(io.Discard, stream.Body, int64(start)); err != nil && err != io.EOF {
			return failure.Wrap(failure.Transport, "skipping to range start", err)
		}
	}
	if n := r.Length(); n >= 0 {
		stream.Body = &limitedBody{io.LimitReader(stream.Body, n), stream.Body}
	}
	return nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}

// objectSize returns the total object size declared by a response: the value
// after the slash in Content-Range, or Content-Length when there is no
// Content-Range.  It returns -1 when the size is not declared.
func objectSize(h http.Header) (int64, error) {
	if v := h.Get("Content-Range"); v != "" {
		return parseContentRange(v)
	}
	if v := h.Get("Content-Length"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, failure.Wrap(failure.NumericParse, "parsing Content-Length", err)
		}
		return n, nil
	}
	return -1, nil
}

// parseContentRange returns the complete length from a Content-Range value of
// the form "bytes <first>-<last>/<length>", or -1 if the length is "*".
func parseContentRange(v string) (int64, error) {
	unit, spec, ok := strings.Cut(strings.TrimSpace(v), " ")
	if !ok || unit != "bytes" {
		return 0, failure.Newf(failure.HeaderParse, "malformed Content-Range %q", v)
	}
	_, length, ok := strings.Cut(spec, "/")
	if !ok {
		return 0, failure.Newf(failure.HeaderParse, "malformed Content-Range %q", v)
	}
	if length == "*" {
		return -1, nil
	}
	n, err := strconv.ParseInt(length, 10, 64)
	if err != nil {
		return 0, failure.Wrap(failure.NumericParse, fmt.Sprintf("parsing length in Content-Range %q", v), err)
	}
	return n, nil
}
