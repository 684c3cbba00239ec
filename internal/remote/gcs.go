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
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/googlegenomics/phenics/internal/failure"
)

// Client is an interface to the storage engine.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in the storage
	// engine.
	NewObjectHandle(bucket, object string) ObjectHandle
}

// ObjectHandle is an interface to the actual storage engine in use.
type ObjectHandle interface {
	// NewRangeReader returns a reader that reads from a specified range and
	// the total size of the object.  Length of -1 means to capture everything
	// until the end.
	NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, int64, error)
}

// GCSClient is Client for accessing Google Cloud Storage.
type GCSClient struct {
	*storage.Client
}

// NewGCSClient returns a storage client authorized by ts, or an anonymous
// client that can only read publicly-readable objects when ts is nil.
func NewGCSClient(ctx context.Context, ts oauth2.TokenSource) (GCSClient, error) {
	opts := []option.ClientOption{option.WithoutAuthentication()}
	if ts != nil {
		opts = []option.ClientOption{option.WithTokenSource(ts)}
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return GCSClient{}, fmt.Errorf("creating storage client: %w", err)
	}
	return GCSClient{client}, nil
}

// NewObjectHandle returns a handle to a specified object in the storage
// engine.
func (c GCSClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return gcsObjectHandle{c.Bucket(bucket).Object(object)}
}

type gcsObjectHandle struct {
	*storage.ObjectHandle
}

func (h gcsObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, int64, error) {
	r, err := h.ObjectHandle.NewRangeReader(ctx, offset, length)
	if err != nil {
		return nil, 0, err
	}
	return r, r.Attrs.Size, nil
}

// GCSOpener reads gs://bucket/object locators through a storage Client.
type GCSOpener struct {
	Client Client
}

// Open implements Opener.
func (o *GCSOpener) Open(ctx context.Context, target string, r Range) (*Stream, error) {
	bucket, object, err := splitLocator(target, "gs")
	if err != nil {
		return nil, err
	}
	body, size, err := o.Client.NewObjectHandle(bucket, object).NewRangeReader(ctx, int64(r.Start()), r.Length())
	if err != nil {
		return nil, newStorageError(target, err)
	}
	return &Stream{Body: body, Size: size}, nil
}

// newStorageError classifies an error returned by the storage client.
func newStorageError(target string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return failure.NewFetchError(http.StatusNotFound, target, err.Error())
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return failure.NewFetchError(apiErr.Code, target, apiErr.Message)
	}
	return failure.Wrap(failure.Transport, "opening object reader", err)
}
