// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/googlecloudplatform/gcsstream/cfg"
	"github.com/googlecloudplatform/gcsstream/common"
	"github.com/googlecloudplatform/gcsstream/internal/util"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// uploadFn runs the uploads described by the parsed configuration.
type uploadFn func(c *cfg.Config, destination string, sources []string) error

// newRootCmd returns the gcsstream command. Flags are bound into a viper
// instance so that values from --config-file apply unless overridden on the
// command line.
func newRootCmd(upload uploadFn) (*cobra.Command, error) {
	var (
		configObj cfg.Config
		cfgFile   string
		v         = viper.New()
	)

	rootCmd := &cobra.Command{
		Use:   "gcsstream [flags] destination [source...]",
		Short: "Stream data into Cloud Storage objects through resumable uploads",
		Long: `gcsstream uploads standard input, or a list of local files, to Google
Cloud Storage using the resumable upload protocol. Data is sent in chunks
as it is read, so the size of the upload need not be known in advance.

With no source, or "-", standard input is uploaded to the object named by
destination (gs://bucket/object). With sources, each file is uploaded under
destination, which is then a bucket or a prefix ending in "/" when there
are several.`,
		Version:      common.GetVersion(),
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				resolved, err := util.GetResolvedPath(cfgFile)
				if err != nil {
					return fmt.Errorf("error while resolving the config file path: %w", err)
				}
				v.SetConfigFile(resolved)
				v.SetConfigType("yaml")
				if err = v.ReadInConfig(); err != nil {
					return fmt.Errorf("error while reading the config file: %w", err)
				}
			}
			err := v.Unmarshal(&configObj, viper.DecodeHook(cfg.DecodeHook()), func(decoderConfig *mapstructure.DecoderConfig) {
				decoderConfig.TagName = "yaml"
			})
			if err != nil {
				return fmt.Errorf("error while unmarshaling the config: %w", err)
			}
			if err = cfg.Rationalize(v, &configObj); err != nil {
				return fmt.Errorf("error while rationalizing the config: %w", err)
			}
			if err = cfg.ValidateConfig(&configObj); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return upload(&configObj, args[0], args[1:])
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "The path to the config file where all gcsstream related config needs to be specified.")
	if err := cfg.BindFlags(v, rootCmd.PersistentFlags()); err != nil {
		return nil, fmt.Errorf("error while binding flags: %w", err)
	}
	return rootCmd, nil
}

// Execute runs the gcsstream command and exits with a non-zero status on
// failure.
func Execute() {
	rootCmd, err := newRootCmd(runUploads)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err = rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
