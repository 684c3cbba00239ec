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
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/phenics/api"
)

func newServeCommand(opts *options) *cobra.Command {
	var (
		port      int
		buckets   string
		secure    bool
		httpsCert string
		httpsKey  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve region queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secure && (httpsCert == "" || httpsKey == "") {
				return fmt.Errorf("you must specify both --https-cert and --https-key in secure mode")
			}

			engine, err := opts.newEngine(cmd.Context())
			if err != nil {
				return err
			}
			newEngine := api.SharedEngine(engine)
			if secure {
				newEngine = api.EngineFromBearerToken(engine)
			}

			log := opts.logger()
			server := api.NewServer(newEngine, log)
			if buckets != "" {
				server.Whitelist(strings.Split(buckets, ","))
			}

			if !opts.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(gin.Recovery(), api.RequestLogger(log))
			server.Export(router)

			address := fmt.Sprintf(":%d", port)
			log.WithField("address", address).Info("Serving")
			if secure {
				err = http.ListenAndServeTLS(address, httpsCert, httpsKey, router)
			} else {
				err = http.ListenAndServe(address, router)
			}
			return fmt.Errorf("server returned an error: %w", err)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP service port")
	cmd.Flags().StringVar(&buckets, "buckets", "", "if set, restricts reads to a comma-separated list of gs:// or s3:// buckets")
	cmd.Flags().BoolVar(&secure, "secure", false, "serve in HTTPS-only mode and forward client bearer tokens")
	cmd.Flags().StringVar(&httpsCert, "https-cert", "", "HTTPS certificate file")
	cmd.Flags().StringVar(&httpsKey, "https-key", "", "HTTPS key file")
	return cmd
}
