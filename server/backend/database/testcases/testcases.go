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

// Package testcases contains testcases for database. It is used by database
// implementations to test their own implementations with the same testcases.
package testcases

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/server/backend/database"
)

// RunRecordTest runs the record tests for the given db.
func RunRecordTest(t *testing.T, db database.Database) {
	t.Run("insert and find record test", func(t *testing.T) {
		ctx := context.Background()
		id := fmt.Sprintf("%s-doc", t.Name())

		_, err := db.FindRecord(ctx, database.ColDocuments, id)
		assert.ErrorIs(t, err, database.ErrRecordNotFound)

		record := &database.Record{ID: id, Body: []byte("first")}
		assert.NoError(t, db.InsertRecord(ctx, database.ColDocuments, record))
		assert.Equal(t, database.InitialRevision, record.Revision)

		found, err := db.FindRecord(ctx, database.ColDocuments, id)
		assert.NoError(t, err)
		assert.Equal(t, id, found.ID)
		assert.Equal(t, database.InitialRevision, found.Revision)
		assert.Equal(t, []byte("first"), found.Body)

		err = db.InsertRecord(ctx, database.ColDocuments, &database.Record{ID: id, Body: []byte("again")})
		assert.ErrorIs(t, err, database.ErrRecordAlreadyExists)

		// collections do not share ids
		assert.NoError(t, db.InsertRecord(ctx, database.ColJournals, &database.Record{ID: id}))
		_, err = db.FindRecord(ctx, database.ColDocumentsBundles, id)
		assert.ErrorIs(t, err, database.ErrRecordNotFound)
	})

	t.Run("replace record test", func(t *testing.T) {
		ctx := context.Background()
		id := fmt.Sprintf("%s-bundle", t.Name())

		err := db.ReplaceRecord(ctx, database.ColDocumentsBundles, &database.Record{ID: id}, database.InitialRevision)
		assert.ErrorIs(t, err, database.ErrRecordNotFound)

		record := &database.Record{ID: id, Body: []byte("first")}
		assert.NoError(t, db.InsertRecord(ctx, database.ColDocumentsBundles, record))

		record.Body = []byte("second")
		assert.NoError(t, db.ReplaceRecord(ctx, database.ColDocumentsBundles, record, database.InitialRevision))
		assert.Equal(t, database.InitialRevision+1, record.Revision)

		stale := &database.Record{ID: id, Body: []byte("stale")}
		err = db.ReplaceRecord(ctx, database.ColDocumentsBundles, stale, database.InitialRevision)
		assert.ErrorIs(t, err, database.ErrConflictOnUpdate)

		found, err := db.FindRecord(ctx, database.ColDocumentsBundles, id)
		assert.NoError(t, err)
		assert.Equal(t, []byte("second"), found.Body)
		assert.Equal(t, database.InitialRevision+1, found.Revision)
	})

	t.Run("concurrent replace record test", func(t *testing.T) {
		ctx := context.Background()
		id := fmt.Sprintf("%s-journal", t.Name())
		assert.NoError(t, db.InsertRecord(ctx, database.ColJournals, &database.Record{ID: id}))

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				record := &database.Record{ID: id, Body: []byte(fmt.Sprintf("%d", i))}
				errs[i] = db.ReplaceRecord(ctx, database.ColJournals, record, database.InitialRevision)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, database.ErrConflictOnUpdate)
		}
		assert.Equal(t, 1, succeeded)
	})
}

// RunChangeLogTest runs the change log tests for the given db. The given db
// must not hold entries at or after 2030.
func RunChangeLogTest(t *testing.T, db database.Database) {
	const (
		ts1 = "2030-01-01T00:00:00.000001Z"
		ts2 = "2030-01-01T00:00:00.000002Z"
		ts3 = "2030-01-01T00:00:00.000003Z"
	)

	ctx := context.Background()
	entries := []*database.ChangeInfo{
		{Entity: types.EntityDocument, EntityID: "a", Timestamp: ts1},
		{Entity: types.EntityBundle, EntityID: "b", Timestamp: ts2},
		{Entity: types.EntityJournal, EntityID: "c", Timestamp: ts2},
		{Entity: types.EntityDocument, EntityID: "a", Timestamp: ts3, Deleted: true},
	}
	for _, entry := range entries {
		assert.NoError(t, db.AppendChange(ctx, entry))
		assert.NotEmpty(t, entry.ID)
	}

	entityIDs := func(infos []*database.ChangeInfo) []string {
		var ids []string
		for _, info := range infos {
			ids = append(ids, info.EntityID)
		}
		return ids
	}

	t.Run("find changes from the start test", func(t *testing.T) {
		infos, err := db.FindChanges(ctx, "", 10000)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, len(infos), len(entries))

		tail := infos[len(infos)-len(entries):]
		assert.Equal(t, []string{"a", "b", "c", "a"}, entityIDs(tail))
		assert.True(t, tail[3].Deleted)
		assert.Equal(t, types.Change{ID: "/documents/a", Timestamp: ts3, Deleted: true}, tail[3].ToChange())
	})

	t.Run("find changes since test", func(t *testing.T) {
		infos, err := db.FindChanges(ctx, ts1, 10)
		assert.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, entityIDs(infos))

		// entries sharing the timestamp of since are kept after its first one
		infos, err = db.FindChanges(ctx, ts2, 10)
		assert.NoError(t, err)
		assert.Equal(t, []string{"c", "a"}, entityIDs(infos))

		infos, err = db.FindChanges(ctx, ts3, 10)
		assert.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("find changes with limit test", func(t *testing.T) {
		infos, err := db.FindChanges(ctx, ts1, 1)
		assert.NoError(t, err)
		assert.Equal(t, []string{"b"}, entityIDs(infos))

		infos, err = db.FindChanges(ctx, ts1, 0)
		assert.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("find changes since unknown timestamp test", func(t *testing.T) {
		infos, err := db.FindChanges(ctx, "2030-01-01T00:00:00.000004Z", 10)
		assert.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run("find change info test", func(t *testing.T) {
		info, err := db.FindChangeInfo(ctx, entries[1].ID)
		assert.NoError(t, err)
		assert.Equal(t, types.EntityBundle, info.Entity)
		assert.Equal(t, "b", info.EntityID)
		assert.Equal(t, ts2, info.Timestamp)

		_, err = db.FindChangeInfo(ctx, "000000000000000000000000")
		assert.ErrorIs(t, err, database.ErrChangeNotFound)
	})
}
