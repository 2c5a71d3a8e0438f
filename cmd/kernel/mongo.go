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
	"errors"

	"github.com/spf13/cobra"

	"github.com/scieloorg/kernel/internal/settings"
	"github.com/scieloorg/kernel/server"
	"github.com/scieloorg/kernel/server/backend/database/mongo"
)

var (
	// ErrMongoRequired is returned when a maintenance command has no MongoDB
	// to run against.
	ErrMongoRequired = errors.New("MongoDB connection URI is required")
)

// addMongoFlags adds the flags of the MongoDB used by maintenance commands.
func addMongoFlags(cmd *cobra.Command, uri, database *string) {
	cmd.Flags().StringVar(
		uri,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI, or KERNEL_APP_MONGODB_DSN",
	)
	cmd.Flags().StringVar(
		database,
		"mongo-database",
		server.DefaultMongoDatabase,
		"Kernel's database name in MongoDB, or KERNEL_APP_MONGODB_DBNAME",
	)
}

// dialMongo dials the MongoDB given by the flags or the environment.
func dialMongo(uri, database string) (*mongo.Client, error) {
	values, err := settings.Parse(map[string]string{
		server.SettingMongoDSN:    uri,
		server.SettingMongoDBName: database,
	}, server.Settings)
	if err != nil {
		return nil, err
	}

	dsn := values.String(server.SettingMongoDSN)
	if dsn == "" {
		return nil, ErrMongoRequired
	}

	return mongo.Dial(&mongo.Config{
		ConnectionURI:     dsn,
		ConnectionTimeout: server.DefaultMongoConnectionTimeout.String(),
		Database:          values.String(server.SettingMongoDBName),
		PingTimeout:       server.DefaultMongoPingTimeout.String(),
	})
}
