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
	"context"

	"github.com/spf13/cobra"
)

var (
	indexesMongoURI      string
	indexesMongoDatabase string
)

func newCreateIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-indexes",
		Short: "Create the indexes of the kernel collections in MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := dialMongo(indexesMongoURI, indexesMongoDatabase)
			if err != nil {
				return err
			}
			defer func() {
				_ = cli.Close()
			}()

			if err := cli.EnsureIndexes(context.Background()); err != nil {
				return err
			}

			cmd.Println("indexes created")
			return nil
		},
	}
}

func init() {
	cmd := newCreateIndexesCmd()
	addMongoFlags(cmd, &indexesMongoURI, &indexesMongoDatabase)
	rootCmd.AddCommand(cmd)
}
