/*
 * Copyright 2025 The Kernel Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := viper.GetString("output")
			if err := validateOutput(output); err != nil {
				return err
			}

			detail := versionDetail()
			switch output {
			case "":
				cmd.Printf("Kernel: %s\n", detail.KernelVersion)
				if detail.GitCommit != "" {
					cmd.Printf("Git Commit: %s\n", detail.GitCommit)
				}
				cmd.Printf("Go: %s\n", detail.GoVersion)
				cmd.Printf("Build Date: %s\n", detail.BuildDate)
			case "yaml":
				marshalled, err := yaml.Marshal(detail)
				if err != nil {
					return errors.New("failed to marshal YAML")
				}
				cmd.Println(string(marshalled))
			case "json":
				marshalled, err := json.MarshalIndent(detail, "", "  ")
				if err != nil {
					return errors.New("failed to marshal JSON")
				}
				cmd.Println(string(marshalled))
			}

			return nil
		},
	}
}

func validateOutput(output string) error {
	if output != "" && output != "yaml" && output != "json" {
		return fmt.Errorf("--output must be 'yaml' or 'json', given %q", output)
	}

	return nil
}

func versionDetail() *types.VersionDetail {
	return &types.VersionDetail{
		KernelVersion: version.Version,
		GitCommit:     version.GitCommit,
		GoVersion:     runtime.Version(),
		BuildDate:     version.BuildDate,
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
