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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/phenics/internal/failure"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(log)
}

func TestResolveLocator(t *testing.T) {
	testCases := []struct {
		input, want string
	}{
		{"https://example.com/data.vcf.gz", "https://example.com/data.vcf.gz"},
		{"http://localhost:8080/x", "http://localhost:8080/x"},
		{"gs://bucket/object.vcf.gz", "https://storage.googleapis.com/storage/v1/b/bucket/o/object.vcf.gz?alt=media"},
		{"gs://bucket/dir/sub/object.vcf.gz.tbi", "https://storage.googleapis.com/storage/v1/b/bucket/o/dir%2Fsub%2Fobject.vcf.gz.tbi?alt=media"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ResolveLocator(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConnector_Resolve(t *testing.T) {
	http, gcs, s3 := &HTTPOpener{}, &GCSOpener{}, &S3Opener{}

	testCases := []struct {
		name      string
		connector *Connector
		locator   string
		opener    Opener
		target    string
	}{
		{"https", &Connector{HTTP: http}, "https://h/o", http, "https://h/o"},
		{"gs over https", &Connector{HTTP: http}, "gs://b/o", http, "https://storage.googleapis.com/storage/v1/b/b/o/o?alt=media"},
		{"gs over sdk", &Connector{HTTP: http, GCS: gcs}, "gs://b/o", gcs, "gs://b/o"},
		{"s3", &Connector{HTTP: http, S3: s3}, "s3://b/k", s3, "s3://b/k"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opener, target, err := tc.connector.resolve(tc.locator)
			require.NoError(t, err)
			assert.Same(t, tc.opener, opener)
			assert.Equal(t, tc.target, target)
		})
	}
}

func TestConnector_ResolveErrors(t *testing.T) {
	testCases := []struct {
		name      string
		connector *Connector
		locator   string
	}{
		{"no scheme", &Connector{HTTP: &HTTPOpener{}}, "/local/file.vcf.gz"},
		{"unknown scheme", &Connector{HTTP: &HTTPOpener{}}, "ftp://host/file"},
		{"s3 not configured", &Connector{HTTP: &HTTPOpener{}}, "s3://bucket/key"},
		{"gs without object", &Connector{HTTP: &HTTPOpener{}}, "gs://bucket"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := tc.connector.resolve(tc.locator)
			assert.Equal(t, failure.InvalidInput, failure.KindOf(err))
		})
	}
}

// redirectTransport sends every request to the server at target.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme, req.URL.Host = rt.target.Scheme, rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestConnector_StorageTokens(t *testing.T) {
	var auth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		auth = append(auth, req.Header.Get("Authorization"))
		http.ServeContent(w, req, "object", time.Now(), strings.NewReader("data"))
	}))
	defer server.Close()
	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	c := &Connector{
		HTTP:          &HTTPOpener{Client: &http.Client{Transport: redirectTransport{target}}},
		StorageTokens: StaticTokenSource("storage"),
	}
	ctx := context.Background()
	for _, locator := range []string{"gs://bucket/object", "https://example.com/object"} {
		src, err := c.Connect(ctx, locator, Everything())
		require.NoError(t, err, locator)
		got, err := io.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, "data", string(got))
		src.Close()
	}
	assert.Equal(t, []string{"Bearer storage", ""}, auth)
	assert.Nil(t, c.HTTP.(*HTTPOpener).Tokens)
}

func TestLazyDefaultTokenSource(t *testing.T) {
	var lookups int
	ts := &lazyTokenSource{
		ctx: context.Background(),
		lookup: func(context.Context) (oauth2.TokenSource, error) {
			lookups++
			return StaticTokenSource("adc"), nil
		},
	}
	for i := 0; i < 2; i++ {
		token, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "adc", token.AccessToken)
	}
	assert.Equal(t, 1, lookups)

	failing := &lazyTokenSource{
		ctx: context.Background(),
		lookup: func(ctx context.Context) (oauth2.TokenSource, error) {
			return nil, failure.Wrap(failure.Auth, "finding default credentials", errors.New("none"))
		},
	}
	_, err := failing.Token()
	assert.Equal(t, failure.Auth, failure.KindOf(err))
}
