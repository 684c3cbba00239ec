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

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/googlegenomics/phenics/internal/query"
	"github.com/googlegenomics/phenics/internal/remote"
)

// SharedEngine returns a NewEngineFunc that serves every request with e.
func SharedEngine(e *query.Engine) NewEngineFunc {
	return func(*http.Request) (Opener, error) {
		return e, nil
	}
}

// EngineFromBearerToken returns a NewEngineFunc that reads data with the
// OAuth2 bearer token found in each request.  Every other setting is taken
// from base.
func EngineFromBearerToken(base *query.Engine) NewEngineFunc {
	return func(req *http.Request) (Opener, error) {
		fields := strings.Split(req.Header.Get("Authorization"), " ")
		if len(fields) != 2 || fields[0] != "Bearer" || fields[1] == "" {
			return nil, errMissingOrInvalidToken
		}
		ts := remote.StaticTokenSource(fields[1])

		connector := *base.Connector
		opener := &remote.HTTPOpener{Log: base.Log}
		if h, ok := base.Connector.HTTP.(*remote.HTTPOpener); ok {
			copied := *h
			opener = &copied
		}
		opener.Tokens = ts
		connector.HTTP = opener
		connector.StorageTokens = ts

		if connector.GCS != nil {
			client, err := remote.NewGCSClient(req.Context(), ts)
			if err != nil {
				return nil, fmt.Errorf("creating client with token source: %w", err)
			}
			connector.GCS = &remote.GCSOpener{Client: client}
		}

		return &query.Engine{
			Connector:  &connector,
			MergeLimit: base.MergeLimit,
			Log:        base.Log,
		}, nil
	}
}
