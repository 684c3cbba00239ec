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
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/googlegenomics/phenics/internal/failure"
)

// S3API is the subset of the S3 client used to read objects.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds the settings of the S3 client.
type S3Config struct {
	Region string
	// Endpoint, if set, replaces the AWS endpoint, for example to reach an
	// S3-compatible store.
	Endpoint     string
	UsePathStyle bool
	// AccessKeyID and SecretAccessKey, if both set, replace the default
	// credential chain.
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client returns an S3 client configured from cfg and the default AWS
// configuration sources.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, failure.Wrap(failure.Auth, "loading AWS configuration", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// S3Opener reads s3://bucket/key locators.
type S3Opener struct {
	Client S3API
}

// Open implements Opener.
func (o *S3Opener) Open(ctx context.Context, target string, r Range) (*Stream, error) {
	bucket, key, err := splitLocator(target, "s3")
	if err != nil {
		return nil, err
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if !r.IsEverything() {
		input.Range = aws.String(r.Header())
	}

	out, err := o.Client.GetObject(ctx, input)
	if err != nil {
		return nil, newS3Error(target, err)
	}

	size := int64(-1)
	if v := aws.ToString(out.ContentRange); v != "" {
		if size, err = parseContentRange(v); err != nil {
			out.Body.Close()
			return nil, err
		}
	} else if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return &Stream{Body: out.Body, Size: size}, nil
}

// newS3Error classifies an error returned by the S3 client, keeping the HTTP
// status of failed responses.
func newS3Error(target string, err error) error {
	var re interface{ HTTPStatusCode() int }
	if errors.As(err, &re) {
		message := err.Error()
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			message = fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return failure.NewFetchError(re.HTTPStatusCode(), target, message)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
		return failure.NewFetchError(http.StatusNotFound, target, apiErr.ErrorMessage())
	}
	return failure.Wrap(failure.Transport, "getting object", err)
}
