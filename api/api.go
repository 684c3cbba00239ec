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

// Package api implements an HTTP endpoint that streams the variant records of
// a remote, indexed VCF file that overlap a genomic region.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/googlegenomics/phenics/internal/failure"
	"github.com/googlegenomics/phenics/internal/genomics"
	"github.com/googlegenomics/phenics/internal/query"
	"github.com/googlegenomics/phenics/internal/records"
)

const variantsPath = "/variants"

var (
	errMissingData           = errors.New("no data locator specified")
	errMissingReferenceName  = errors.New("no reference name specified")
	errMissingOrInvalidToken = errors.New("missing or invalid token")
	errStartAfterEnd         = errors.New("start > end")
)

// Opener opens a dataset from the locators of a data file and its index.
type Opener interface {
	Open(ctx context.Context, dataURL, indexURL string) (*query.Dataset, error)
}

// NewEngineFunc is the type of function that constructs the Opener used to
// satisfy the incoming request.
type NewEngineFunc func(*http.Request) (Opener, error)

// Server provides the variants endpoint.  Must be created with NewServer.
type Server struct {
	newEngine NewEngineFunc
	whitelist map[string]bool
	log       *logrus.Entry
}

// NewServer returns a new Server that calls newEngine on each request to
// determine how to read data.
func NewServer(newEngine NewEngineFunc, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{newEngine, make(map[string]bool), log}
}

// Whitelist adds buckets to the set of buckets which the server is allowed to
// access.  If Whitelist is never called for a given Server then reads from
// any bucket or URL are allowed.  Once it is called, only gs:// and s3://
// locators naming a listed bucket are accepted.
func (server *Server) Whitelist(buckets []string) {
	for _, bucket := range buckets {
		server.whitelist[bucket] = true
	}
}

// Export registers the variants endpoint with router.
func (server *Server) Export(router gin.IRouter) {
	router.GET(variantsPath, forwardOrigin, server.serveVariants)
}

func (server *Server) serveVariants(c *gin.Context) {
	ctx := c.Request.Context()
	log := server.log.WithField("request", c.GetString(requestIDKey))

	format, err := records.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, newUnsupportedFormatError(err))
		return
	}

	dataURL, indexURL, err := parseLocators(c.Request.URL.Query())
	if err != nil {
		writeError(c, newInvalidInputError("parsing locators", err))
		return
	}
	for _, locator := range []string{dataURL, indexURL} {
		if err := server.checkWhitelist(locator); err != nil {
			writeError(c, newPermissionDeniedError("checking whitelist", err))
			return
		}
	}

	iv, err := parseInterval(c.Request.URL.Query())
	if err != nil {
		if errors.Is(err, errStartAfterEnd) {
			writeError(c, newInvalidRangeError(err))
			return
		}
		writeError(c, newInvalidInputError("parsing region", err))
		return
	}

	engine, err := server.newEngine(c.Request)
	if err != nil {
		writeError(c, newEngineError("creating engine", err))
		return
	}

	dataset, err := engine.Open(ctx, dataURL, indexURL)
	if err != nil {
		writeError(c, newEngineError("opening dataset", err))
		return
	}

	c.Header("Content-Type", format.ContentType())
	printer := records.NewPrinter(c.Writer, format, dataset.Header)
	n, err := dataset.Query(ctx, iv, printer)
	if err == nil {
		err = printer.Flush()
	}
	if err != nil {
		if !c.Writer.Written() {
			writeError(c, newEngineError("querying "+iv.String(), err))
			return
		}
		log.WithError(err).Error("Failed to stream records")
		return
	}
	log.WithFields(logrus.Fields{"interval": iv, "records": n}).Info("Served records")
}

func (server *Server) checkWhitelist(locator string) error {
	if len(server.whitelist) == 0 {
		return nil
	}
	u, err := url.Parse(locator)
	if err != nil || (u.Scheme != "gs" && u.Scheme != "s3") || !server.whitelist[u.Host] {
		return fmt.Errorf("access to %s is not allowed", locator)
	}
	return nil
}

// parseLocators returns the data and index locators of query.  The index
// defaults to the data locator with a .tbi suffix.
func parseLocators(query url.Values) (string, string, error) {
	data := query.Get("data")
	if data == "" {
		return "", "", errMissingData
	}
	index := query.Get("index")
	if index == "" {
		index = data + ".tbi"
	}
	return data, index, nil
}

func parseInterval(query url.Values) (genomics.Interval, error) {
	var (
		name  = query.Get("referenceName")
		start = query.Get("start")
		end   = query.Get("end")
	)
	if name == "" {
		return genomics.Interval{}, errMissingReferenceName
	}

	iv := genomics.Interval{Chromosome: name, Start: 1}

	if start != "" {
		n, err := strconv.ParseUint(start, 10, 64)
		if err != nil {
			return genomics.Interval{}, failure.Wrap(failure.NumericParse, "parsing start", err)
		}
		iv.Start = genomics.Position(n)
	}

	if end != "" {
		n, err := strconv.ParseUint(end, 10, 64)
		if err != nil {
			return genomics.Interval{}, failure.Wrap(failure.NumericParse, "parsing end", err)
		}
		iv.End = genomics.Position(n)
	}

	if iv.Start == 0 {
		return genomics.Interval{}, failure.New(failure.InvalidInput, "start: positions are 1-based")
	}
	if iv.Bounded() && iv.Start > iv.End {
		return genomics.Interval{}, fmt.Errorf("%s: %w", iv, errStartAfterEnd)
	}
	return iv, nil
}

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *apiError) Unwrap() error {
	return err.cause
}

func newAPIError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %w", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newAPIError("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newInvalidInputError(context string, err error) error {
	return newAPIError("InvalidInput", http.StatusBadRequest, context, err)
}

func newInvalidRangeError(err error) error {
	return &apiError{"InvalidRange", http.StatusBadRequest, err}
}

func newPermissionDeniedError(context string, err error) error {
	return newAPIError("PermissionDenied", http.StatusForbidden, context, err)
}

func newUnsupportedFormatError(err error) error {
	return &apiError{"UnsupportedFormat", http.StatusBadRequest, err}
}

func newNotFoundError(context string, err error) error {
	return newAPIError("NotFound", http.StatusNotFound, context, err)
}

// newEngineError classifies an error returned while opening or querying a
// dataset.  Errors with no defined API counterpart are returned unchanged.
func newEngineError(context string, err error) error {
	if errors.Is(err, errMissingOrInvalidToken) {
		return newInvalidAuthenticationError(context, err)
	}
	switch failure.KindOf(err) {
	case failure.InvalidInput, failure.NumericParse:
		return newInvalidInputError(context, err)
	case failure.Auth:
		return newInvalidAuthenticationError(context, err)
	case failure.RemoteFetch:
		switch failure.StatusCode(err) {
		case http.StatusNotFound:
			return newNotFoundError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		}
	}
	return fmt.Errorf("%s: %w", context, err)
}

// writeError writes either a JSON object or bare HTTP error describing err.
// A JSON object is written only when the error has a name and code defined by
// the API.
func writeError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.code, gin.H{
			"error":   apiErr.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(apiErr.code), apiErr.cause),
		})
		return
	}
	c.String(http.StatusInternalServerError, "%s: %v", http.StatusText(http.StatusInternalServerError), err)
}

func forwardOrigin(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
	c.Next()
}

const requestIDKey = "requestID"

// RequestLogger returns middleware that tags each request with an id and logs
// its outcome to log.
func RequestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(requestIDKey, id)
		c.Header("X-Request-Id", id)

		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"request": id,
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Info("Handled request")
	}
}
