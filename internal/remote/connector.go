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
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/googlegenomics/phenics/internal/failure"
)

const gcsJSONEndpoint = "https://storage.googleapis.com/storage/v1"

// Connector opens Sources, choosing an Opener by the scheme of the locator.
type Connector struct {
	// HTTP serves http:// and https:// locators, and gs:// locators when GCS
	// is nil.
	HTTP Opener
	// GCS, if set, serves gs:// locators through the Cloud Storage client.
	GCS Opener
	// S3, if set, serves s3:// locators.
	S3 Opener
	// StorageTokens, if set, authorizes gs:// locators read through HTTP.
	// It is never sent to any other host.
	StorageTokens oauth2.TokenSource

	Log *logrus.Entry
}

// Connect opens a Source over r of the object named by locator.  Locators of
// the form gs://bucket/object are resolved to the Cloud Storage JSON API
// unless a GCS opener is configured.
func (c *Connector) Connect(ctx context.Context, locator string, r Range) (*Source, error) {
	opener, target, err := c.resolve(locator)
	if err != nil {
		return nil, err
	}

	log := c.logger().WithField("object", target)
	log.WithField("range", r).Debug("Connecting")

	s, err := open(ctx, log, opener, target, r)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", locator, err)
	}
	return s, nil
}

func (c *Connector) resolve(locator string) (Opener, string, error) {
	scheme, _, ok := strings.Cut(locator, "://")
	if !ok {
		return nil, "", failure.Newf(failure.InvalidInput, "locator %q has no scheme", locator)
	}
	switch scheme {
	case "http", "https":
		if c.HTTP != nil {
			return c.HTTP, locator, nil
		}
	case "gs":
		if c.GCS != nil {
			return c.GCS, locator, nil
		}
		if c.HTTP != nil {
			target, err := ResolveLocator(locator)
			return c.storageOpener(), target, err
		}
	case "s3":
		if c.S3 != nil {
			return c.S3, locator, nil
		}
	default:
		return nil, "", failure.Newf(failure.InvalidInput, "unsupported scheme %q in %q", scheme, locator)
	}
	return nil, "", failure.Newf(failure.InvalidInput, "no opener configured for %q", locator)
}

// storageOpener returns the HTTP opener with StorageTokens in place of its
// own token source.
func (c *Connector) storageOpener() Opener {
	h, ok := c.HTTP.(*HTTPOpener)
	if !ok || c.StorageTokens == nil {
		return c.HTTP
	}
	scoped := *h
	scoped.Tokens = c.StorageTokens
	return &scoped
}

func (c *Connector) logger() *logrus.Entry {
	if c.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return c.Log
}

// ResolveLocator returns the HTTPS URL of the object named by locator.
// Cloud Storage locators are mapped to the JSON API media download URL and
// every other locator is returned unchanged.
func ResolveLocator(locator string) (string, error) {
	if !strings.HasPrefix(locator, "gs://") {
		return locator, nil
	}
	bucket, object, err := splitLocator(locator, "gs")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/b/%s/o/%s?alt=media", gcsJSONEndpoint, bucket, url.PathEscape(object)), nil
}

// splitLocator parses <scheme>://<bucket>/<object>.
func splitLocator(locator, scheme string) (string, string, error) {
	path := strings.TrimPrefix(locator, scheme+"://")
	if path == locator {
		return "", "", failure.Newf(failure.InvalidInput, "%q is not a %s:// locator", locator, scheme)
	}
	if parts := strings.SplitN(path, "/", 2); len(parts) == 2 {
		if parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], nil
		}
	}
	return "", "", failure.Newf(failure.InvalidInput, "%q does not name a bucket and object", locator)
}
