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

// This binary queries remote, tabix or CSI indexed VCF files over HTTP(S),
// Google Cloud Storage and S3, reading only the blocks a query needs.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/phenics/internal/failure"
	"github.com/googlegenomics/phenics/internal/query"
	"github.com/googlegenomics/phenics/internal/remote"
)

// options holds the flags shared by every subcommand.
type options struct {
	token      string
	gcsSDK     bool
	s3         remote.S3Config
	mergeLimit uint64
	verbose    bool
	cpuProfile string

	log *logrus.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := &options{log: logrus.New()}
	if err := newRootCommand(opts).ExecuteContext(ctx); err != nil {
		opts.log.WithField("kind", failure.KindOf(err)).Fatal(err)
	}
}

func newRootCommand(opts *options) *cobra.Command {
	var stopProfile func()
	root := &cobra.Command{
		Use:           "phenics",
		Short:         "Query remote indexed VCF files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				opts.log.SetLevel(logrus.DebugLevel)
			}
			if opts.cpuProfile != "" {
				stopProfile = profile.Start(profile.CPUProfile, profile.ProfilePath(opts.cpuProfile), profile.Quiet).Stop
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if stopProfile != nil {
				stopProfile()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.token, "token", os.Getenv("PHENICS_TOKEN"), "OAuth2 bearer token sent with every request (default $PHENICS_TOKEN)")
	flags.BoolVar(&opts.gcsSDK, "gcs-sdk", false, "read gs:// locators with the Cloud Storage client instead of the JSON API")
	flags.StringVar(&opts.s3.Region, "s3-region", "", "AWS region of s3:// locators")
	flags.StringVar(&opts.s3.Endpoint, "s3-endpoint", "", "custom S3 endpoint, e.g. for MinIO")
	flags.BoolVar(&opts.s3.UsePathStyle, "s3-path-style", false, "address S3 buckets by path instead of virtual host")
	flags.StringVar(&opts.s3.AccessKeyID, "s3-access-key-id", "", "static S3 access key id")
	flags.StringVar(&opts.s3.SecretAccessKey, "s3-secret-access-key", "", "static S3 secret access key")
	flags.Uint64Var(&opts.mergeLimit, "merge-limit", 0, "join overlapping index chunks up to this many bytes (0 disables)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "write a CPU profile to this directory")

	root.AddCommand(
		newQueryCommand(opts),
		newSampleCommand(opts),
		newServeCommand(opts),
	)
	return root
}

func (opts *options) logger() *logrus.Entry {
	return logrus.NewEntry(opts.log)
}

// newEngine builds a query engine from the connection flags.  An explicit
// token authorizes HTTP requests.  Cloud Storage reads fall back to the
// application default credentials, which are never sent to other hosts.
func (opts *options) newEngine(ctx context.Context) (*query.Engine, error) {
	log := opts.logger()

	client, err := remote.NewHTTPClient()
	if err != nil {
		return nil, err
	}
	httpOpener := &remote.HTTPOpener{Client: client, Log: log}
	if opts.token != "" {
		httpOpener.Tokens = remote.StaticTokenSource(opts.token)
	}

	s3, err := remote.NewS3Client(ctx, opts.s3)
	if err != nil {
		return nil, err
	}

	connector := &remote.Connector{
		HTTP:          httpOpener,
		S3:            &remote.S3Opener{Client: s3},
		StorageTokens: httpOpener.Tokens,
		Log:           log,
	}
	if connector.StorageTokens == nil {
		connector.StorageTokens = remote.LazyDefaultTokenSource(ctx)
	}

	if opts.gcsSDK {
		ts := httpOpener.Tokens
		if ts == nil {
			if ts, err = remote.DefaultTokenSource(ctx); err != nil {
				log.WithError(err).Warn("Reading Cloud Storage anonymously")
			}
		}
		gcs, err := remote.NewGCSClient(ctx, ts)
		if err != nil {
			return nil, err
		}
		connector.GCS = &remote.GCSOpener{Client: gcs}
	}

	return &query.Engine{Connector: connector, MergeLimit: opts.mergeLimit, Log: log}, nil
}

// dataFlags holds the locators of the file a subcommand reads.
type dataFlags struct {
	data, index string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.data, "data", "", "locator of the block-compressed VCF (http(s)://, gs:// or s3://)")
	cmd.Flags().StringVar(&f.index, "index", "", "locator of the tabix or CSI index (default: data locator + .tbi)")
	cmd.MarkFlagRequired("data")
}

func (f *dataFlags) indexLocator() string {
	if f.index == "" {
		return f.data + ".tbi"
	}
	return f.index
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// openOutput opens path for writing.  An empty path or "-" denotes standard
// output.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, nil
}
