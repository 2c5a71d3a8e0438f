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

package mongo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/scieloorg/kernel/server/backend/database"
)

// ColChanges represents the change log collection in the database.
const ColChanges = "changes"

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

// Below are names and indexes information of the collections that store
// kernel data. Records are looked up by _id only.
var collectionInfos = []collectionInfo{{
	name: ColChanges,
	indexes: []mongo.IndexModel{{
		// Entries may share a timestamp; ties are ordered by _id.
		Keys: bson.D{
			{Key: "timestamp", Value: int32(1)},
			{Key: "_id", Value: int32(1)},
		},
	}},
}}

// Collections returns the names of every collection in the database.
func Collections() []string {
	names := []string{ColChanges}
	for _, col := range database.Collections() {
		names = append(names, string(col))
	}
	return names
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, info := range collectionInfos {
		if _, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
