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

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/phenics/internal/genomics"
	"github.com/googlegenomics/phenics/internal/query"
	"github.com/googlegenomics/phenics/internal/records"
)

func newQueryCommand(opts *options) *cobra.Command {
	var (
		files  dataFlags
		region string
		format string
		output string
		tally  bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print or tally the records overlapping a region",
		Long: `Print or tally the records of a remote VCF that overlap a region.

The region format is <chrom>:<start>-<end> with 1-based, inclusive
coordinates.  <chrom> alone or <chrom>:<start> select open-ended regions.

Examples:
  phenics query --data gs://bucket/calls.vcf.gz --region chr1:10000-20000
  phenics query --data https://host/calls.vcf.gz --region 20 --tally -o counts.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := genomics.ParseInterval(region)
			if err != nil {
				return fmt.Errorf("invalid region: %w", err)
			}
			f, err := records.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			engine, err := opts.newEngine(ctx)
			if err != nil {
				return err
			}
			dataset, err := engine.Open(ctx, files.data, files.indexLocator())
			if err != nil {
				return err
			}

			if tally {
				t := records.NewTally(dataset.Header)
				n, err := dataset.Query(ctx, iv, t)
				if err != nil {
					return err
				}
				opts.logger().WithFields(logrus.Fields{"interval": iv, "records": n}).Info("Query complete")
				return t.Table().WriteFile(output)
			}

			w, err := openOutput(output)
			if err != nil {
				return err
			}
			printer := records.NewPrinter(w, f, dataset.Header)
			n, err := dataset.Query(ctx, iv, printer)
			if err == nil {
				err = printer.Flush()
			}
			if cerr := w.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			opts.logger().WithFields(logrus.Fields{"interval": iv, "records": n}).Info("Query complete")
			return nil
		},
	}
	files.register(cmd)
	cmd.Flags().StringVarP(&region, "region", "r", "", "region to query, e.g. chr1:10000-20000")
	cmd.Flags().StringVar(&format, "format", string(records.VCF), "record output format: vcf or json")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file; tallies ending in .parquet are written as Parquet")
	cmd.Flags().BoolVar(&tally, "tally", false, "write per-sample genotype counts instead of records")
	cmd.MarkFlagRequired("region")
	return cmd
}

// Ensure the processors used above satisfy the engine's interface.
var (
	_ query.Processor = (*records.Printer)(nil)
	_ query.Processor = (*records.Tally)(nil)
)
