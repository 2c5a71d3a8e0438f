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

// Package memory implements the database interface in memory with go-memdb.
// It is used in tests and when no MongoDB is configured.
package memory

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/scieloorg/kernel/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB

	// seq is the last insertion sequence of the change log. It is only
	// touched within write transactions, which memdb serializes.
	seq int64
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(newSchema())
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// InsertRecord stores a new record.
func (d *DB) InsertRecord(
	_ context.Context,
	col database.Collection,
	record *database.Record,
) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(string(col), "id", record.ID)
	if err != nil {
		return fmt.Errorf("find %s %s: %w", col, record.ID, err)
	}
	if raw != nil {
		return fmt.Errorf("%s %s: %w", col, record.ID, database.ErrRecordAlreadyExists)
	}

	stored := record.DeepCopy()
	stored.Revision = database.InitialRevision
	if err := txn.Insert(string(col), stored); err != nil {
		return fmt.Errorf("insert %s %s: %w", col, record.ID, err)
	}
	txn.Commit()

	record.Revision = stored.Revision
	return nil
}

// FindRecord returns the record of the given id.
func (d *DB) FindRecord(
	_ context.Context,
	col database.Collection,
	id string,
) (*database.Record, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(string(col), "id", id)
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", col, id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s %s: %w", col, id, database.ErrRecordNotFound)
	}

	// NOTE: go-memdb returns the stored object itself.
	return raw.(*database.Record).DeepCopy(), nil
}

// ReplaceRecord replaces the stored record if it is still at the given
// revision.
func (d *DB) ReplaceRecord(
	_ context.Context,
	col database.Collection,
	record *database.Record,
	revision int64,
) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(string(col), "id", record.ID)
	if err != nil {
		return fmt.Errorf("find %s %s: %w", col, record.ID, err)
	}
	if raw == nil {
		return fmt.Errorf("%s %s: %w", col, record.ID, database.ErrRecordNotFound)
	}
	if raw.(*database.Record).Revision != revision {
		return fmt.Errorf("%s %s at revision %d: %w", col, record.ID, revision, database.ErrConflictOnUpdate)
	}

	stored := record.DeepCopy()
	stored.Revision = revision + 1
	if err := txn.Insert(string(col), stored); err != nil {
		return fmt.Errorf("replace %s %s: %w", col, record.ID, err)
	}
	txn.Commit()

	record.Revision = stored.Revision
	return nil
}

// AppendChange appends an entry to the change log.
func (d *DB) AppendChange(_ context.Context, info *database.ChangeInfo) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	stored := info.DeepCopy()
	stored.ID = newID()
	stored.Seq = d.seq + 1
	if err := txn.Insert(tblChanges, stored); err != nil {
		return fmt.Errorf("append change of %s: %w", info.EntityID, err)
	}
	d.seq = stored.Seq
	txn.Commit()

	info.ID = stored.ID
	info.Seq = stored.Seq
	return nil
}

// FindChanges returns the entries of the change log after the entry carrying
// the given timestamp.
func (d *DB) FindChanges(
	_ context.Context,
	since string,
	limit int,
) ([]*database.ChangeInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	if limit <= 0 {
		return nil, nil
	}

	var iterator memdb.ResultIterator
	var err error
	if since == "" {
		iterator, err = txn.Get(tblChanges, "timestamp_seq")
	} else {
		iterator, err = txn.LowerBound(tblChanges, "timestamp_seq", since, int64(0))
	}
	if err != nil {
		return nil, fmt.Errorf("find changes since %q: %w", since, err)
	}

	if since != "" {
		raw := iterator.Next()
		if raw == nil || raw.(*database.ChangeInfo).Timestamp != since {
			return nil, nil
		}
	}

	var infos []*database.ChangeInfo
	for raw := iterator.Next(); raw != nil && len(infos) < limit; raw = iterator.Next() {
		infos = append(infos, raw.(*database.ChangeInfo).DeepCopy())
	}
	return infos, nil
}

// FindChangeInfo returns the change log entry of the given id.
func (d *DB) FindChangeInfo(_ context.Context, id string) (*database.ChangeInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblChanges, "id", id)
	if err != nil {
		return nil, fmt.Errorf("find change %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, database.ErrChangeNotFound)
	}

	return raw.(*database.ChangeInfo).DeepCopy(), nil
}

func newID() string {
	return primitive.NewObjectID().Hex()
}
