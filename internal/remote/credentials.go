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
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/googlegenomics/phenics/internal/failure"
)

// ReadOnlyScope is the OAuth2 scope requested for object reads.
const ReadOnlyScope = "https://www.googleapis.com/auth/devstorage.read_only"

// DefaultTokenSource returns a token source backed by the application default
// credentials.
func DefaultTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	ts, err := google.DefaultTokenSource(ctx, ReadOnlyScope)
	if err != nil {
		return nil, failure.Wrap(failure.Auth, "finding default credentials", err)
	}
	return ts, nil
}

// LazyDefaultTokenSource returns a token source that looks up the
// application default credentials when the first token is requested.  A
// failed lookup is reported by every call to Token.
func LazyDefaultTokenSource(ctx context.Context) oauth2.TokenSource {
	return &lazyTokenSource{ctx: ctx, lookup: DefaultTokenSource}
}

type lazyTokenSource struct {
	ctx    context.Context
	lookup func(context.Context) (oauth2.TokenSource, error)

	once sync.Once
	ts   oauth2.TokenSource
	err  error
}

func (l *lazyTokenSource) Token() (*oauth2.Token, error) {
	l.once.Do(func() {
		l.ts, l.err = l.lookup(l.ctx)
	})
	if l.err != nil {
		return nil, l.err
	}
	return l.ts.Token()
}

// StaticTokenSource returns a token source that always produces the bearer
// token accessToken.
func StaticTokenSource(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		TokenType:   "Bearer",
		AccessToken: accessToken,
	})
}

// authorize sets the Authorization header of req from ts.  A nil ts leaves
// the request anonymous.
func authorize(req *http.Request, ts oauth2.TokenSource) error {
	if ts == nil {
		return nil
	}
	token, err := ts.Token()
	if err != nil {
		return failure.Wrap(failure.Auth, "acquiring token", err)
	}
	token.SetAuthHeader(req)
	return nil
}
