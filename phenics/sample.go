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
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/phenics/internal/records"
	"github.com/googlegenomics/phenics/internal/regions"
)

func newSampleCommand(opts *options) *cobra.Command {
	var (
		files   dataFlags
		factory regions.Factory
		seed    int64
		output  string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Tally genotypes over randomly spaced regions of every chromosome",
		Long: `Tally per-sample genotype counts over randomly spaced regions.

For every chromosome in the index, regions of --region-size positions are
queried, each preceded by a random gap of less than --step-size-max
positions.  The counts are written as TSV, or as Parquet when the output
file name ends in .parquet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := factory.Validate(); err != nil {
				return err
			}
			if seed != 0 {
				factory.Rand = rand.New(rand.NewSource(seed))
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

			t := records.NewTally(dataset.Header)
			n, err := dataset.Sample(ctx, factory, t)
			if err != nil {
				return err
			}
			opts.logger().WithFields(logrus.Fields{
				"records": n,
				"summary": t.Table().Summary(),
			}).Info("Sampling complete")
			return t.Table().WriteFile(output)
		},
	}
	files.register(cmd)
	cmd.Flags().Uint64Var(&factory.RegionSize, "region-size", 1000, "number of positions in each sampled region")
	cmd.Flags().Uint64Var(&factory.StepSizeMax, "step-size-max", 1000000, "upper bound of the random gap before each region")
	cmd.Flags().Uint64Var(&factory.Ceiling, "ceiling", 0, "position sampled regions must end below (0 means 2^32)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the region gaps (0 picks a random seed)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file; names ending in .parquet are written as Parquet")
	return cmd
}
