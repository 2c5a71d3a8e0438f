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

package memory

import (
	"github.com/hashicorp/go-memdb"

	"github.com/scieloorg/kernel/server/backend/database"
)

var tblChanges = "changes"

func recordTable(col database.Collection) *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: string(col),
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:    "id",
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "ID"},
			},
		},
	}
}

func newSchema() *memdb.DBSchema {
	tables := map[string]*memdb.TableSchema{
		tblChanges: {
			Name: tblChanges,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"timestamp_seq": {
					Name:   "timestamp_seq",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Timestamp"},
							&memdb.IntFieldIndex{Field: "Seq"},
						},
					},
				},
			},
		},
	}

	for _, col := range database.Collections() {
		tables[string(col)] = recordTable(col)
	}

	return &memdb.DBSchema{Tables: tables}
}
