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
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/googlegenomics/phenics/internal/failure"
)

func newTestGCSOpener(t *testing.T, transport http.RoundTripper) *GCSOpener {
	client, err := storage.NewClient(context.Background(), option.WithHTTPClient(&http.Client{Transport: transport}))
	require.NoError(t, err)
	return &GCSOpener{Client: GCSClient{client}}
}

func TestGCSOpener_Range(t *testing.T) {
	data := testObject()
	opener := newTestGCSOpener(t, &fakeGCS{objects: map[string][]byte{"sample.vcf.gz": data}})

	src, err := open(context.Background(), testLog(), opener, "gs://bucket/sample.vcf.gz", Between(5000, 7000))
	require.NoError(t, err)
	defer src.Close()

	got, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, data[5000:7001], got)
	assert.Equal(t, int64(testObjectSize), src.Size())
}

func TestGCSOpener_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		transport  http.RoundTripper
		statusCode int
	}{
		{"unauthorized", fixedStatus(http.StatusUnauthorized), http.StatusUnauthorized},
		{"forbidden", fixedStatus(http.StatusForbidden), http.StatusForbidden},
		{"not found", fixedStatus(http.StatusNotFound), http.StatusNotFound},
		{"missing object", &fakeGCS{}, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opener := newTestGCSOpener(t, tc.transport)
			_, err := opener.Open(context.Background(), "gs://bucket/object", Everything())
			require.Error(t, err)
			assert.Equal(t, failure.RemoteFetch, failure.KindOf(err))
			assert.Equal(t, tc.statusCode, failure.StatusCode(err))
		})
	}
}

func TestGCSOpener_InvalidLocator(t *testing.T) {
	opener := newTestGCSOpener(t, &fakeGCS{})
	_, err := opener.Open(context.Background(), "gs://bucket-only", Everything())
	assert.Equal(t, failure.InvalidInput, failure.KindOf(err))
}

type fixedStatus int

func (code fixedStatus) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		Status:     http.StatusText(int(code)),
		StatusCode: int(code),
		Header:     make(http.Header),
		Body:       http.NoBody,
	}, nil
}

type fakeGCS struct {
	objects map[string][]byte
}

func (fake *fakeGCS) RoundTrip(req *http.Request) (*http.Response, error) {
	name := path.Base(req.URL.Path)

	content, ok := fake.objects[name]
	if !ok {
		response := httptest.NewRecorder()
		http.Error(response, "object not found", http.StatusNotFound)
		return response.Result(), nil
	}

	w := httptest.NewRecorder()
	http.ServeContent(w, req, name, time.Now(), bytes.NewReader(content))
	return w.Result(), nil
}
