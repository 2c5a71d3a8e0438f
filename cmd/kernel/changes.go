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
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/scieloorg/kernel/server/backend/database"
)

var (
	changesMongoURI      string
	changesMongoDatabase string
	changesSince         string
	changesLimit         int
)

// changeRow is a change log entry as printed by the changes command.
type changeRow struct {
	ID        string `json:"id" yaml:"id"`
	Entity    string `json:"entity" yaml:"entity"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Deleted   bool   `json:"deleted" yaml:"deleted"`
}

func newChangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changes",
		Short: "List the entries of the change log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := dialMongo(changesMongoURI, changesMongoDatabase)
			if err != nil {
				return err
			}
			defer func() {
				_ = cli.Close()
			}()

			infos, err := cli.FindChanges(context.Background(), changesSince, changesLimit)
			if err != nil {
				return err
			}

			return printChanges(cmd, viper.GetString("output"), infos)
		},
	}
}

func printChanges(cmd *cobra.Command, output string, infos []*database.ChangeInfo) error {
	rows := make([]changeRow, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, changeRow{
			ID:        info.ID,
			Entity:    info.Entity.Path(info.EntityID),
			Timestamp: info.Timestamp,
			Deleted:   info.Deleted,
		})
	}

	switch output {
	case "":
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateFooter = false
		tw.Style().Options.SeparateHeader = false
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{
			"ID",
			"ENTITY",
			"TIMESTAMP",
			"DELETED",
		})
		for _, row := range rows {
			tw.AppendRow(table.Row{
				row.ID,
				row.Entity,
				row.Timestamp,
				row.Deleted,
			})
		}
		cmd.Printf("%s\n", tw.Render())
	case "json":
		jsonOutput, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(jsonOutput))
	case "yaml":
		yamlOutput, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Println(string(yamlOutput))
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	return nil
}

func init() {
	cmd := newChangesCmd()
	addMongoFlags(cmd, &changesMongoURI, &changesMongoDatabase)
	cmd.Flags().StringVar(
		&changesSince,
		"since",
		"",
		"Timestamp of the change the listing starts after",
	)
	cmd.Flags().IntVar(
		&changesLimit,
		"limit",
		20,
		"The number of changes to output",
	)
	rootCmd.AddCommand(cmd)
}
