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

package commands_test

import (
	"context"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/kernel/api/types"
	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/pkg/bundle"
	"github.com/scieloorg/kernel/pkg/document"
	"github.com/scieloorg/kernel/pkg/journal"
	"github.com/scieloorg/kernel/pkg/metadata"
	"github.com/scieloorg/kernel/server/backend"
	"github.com/scieloorg/kernel/server/backend/database"
	"github.com/scieloorg/kernel/server/commands"
	"github.com/scieloorg/kernel/server/session"
	"github.com/scieloorg/kernel/test/helper"
)

type notification struct {
	event   events.Type
	payload session.Payload
}

// recorder collects the notified events.
type recorder struct {
	mu            gosync.Mutex
	notifications []notification
}

func (r *recorder) subscribers() []session.Subscriber {
	return session.ForAll("recorder", func(_ context.Context, event events.Type, payload session.Payload) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.notifications = append(r.notifications, notification{event: event, payload: payload})
		return nil
	})
}

func (r *recorder) events() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []events.Type
	for _, n := range r.notifications {
		result = append(result, n.event)
	}
	return result
}

func (r *recorder) last() notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifications[len(r.notifications)-1]
}

// conflictingDB reports a concurrent update for the first replacements.
type conflictingDB struct {
	database.Database
	conflicts int32
}

func (d *conflictingDB) ReplaceRecord(
	ctx context.Context,
	col database.Collection,
	record *database.Record,
	revision int64,
) error {
	if atomic.AddInt32(&d.conflicts, -1) >= 0 {
		return database.ErrConflictOnUpdate
	}
	return d.Database.ReplaceRecord(ctx, col, record, revision)
}

func newHandlers(t *testing.T) (*commands.Handlers, *recorder, *backend.Backend) {
	be := helper.TestBackend(t, helper.TestClock())
	rec := &recorder{}
	return commands.New(be, rec.subscribers()), rec, be
}

func TestDocumentCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("register document test", func(t *testing.T) {
		h, rec, _ := newHandlers(t)

		assert.NoError(t, h.RegisterDocument(ctx, "doc-1", "http://data/v1.xml", nil))
		assert.ErrorIs(t, h.RegisterDocument(ctx, "doc-1", "http://data/v1.xml", nil), types.ErrAlreadyExists)
		assert.NoError(t, h.RegisterDocumentVersion(ctx, "doc-1", "http://data/v2.xml", nil))

		manifest, err := h.FetchDocumentManifest(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Len(t, manifest.Versions, 2)
		assert.Equal(t, "http://data/v2.xml", manifest.Versions[len(manifest.Versions)-1].DataURL)

		assert.Equal(t, []events.Type{events.DocumentRegistered, events.DocumentVersionRegistered}, rec.events())
		assert.Equal(t, "http://data/v2.xml", rec.last().payload["data_url"])
		committed, ok := rec.last().payload[session.DocumentKey].(document.Manifest)
		require.True(t, ok)
		require.Len(t, committed.Versions, 2)
		assert.Equal(t, "http://data/v2.xml", committed.Versions[1].DataURL)

		_, err = h.FetchDocumentManifest(ctx, "missing")
		assert.ErrorIs(t, err, types.ErrDoesNotExist)

		assert.ErrorIs(t, h.RegisterDocumentVersion(ctx, "missing", "http://data/v1.xml", nil), types.ErrDoesNotExist)
		assert.ErrorIs(t, h.RegisterDocument(ctx, "bad id", "http://data/v1.xml", nil), types.ErrInvalidArgument)
	})

	t.Run("register assets test", func(t *testing.T) {
		h, _, _ := newHandlers(t)

		assets := []commands.Asset{
			{ID: "fig-1.gif", URL: "http://assets/fig-1.gif"},
			{ID: "fig-2.gif", URL: "http://assets/fig-2.gif"},
		}
		assert.NoError(t, h.RegisterDocument(ctx, "doc-1", "http://data/v1.xml", assets))
		assert.NoError(t, h.RegisterDocumentVersion(ctx, "doc-1", "http://data/v2.xml", assets))

		view, err := h.FetchAssetsList(ctx, "doc-1", document.Latest())
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{
			"fig-1.gif": "http://assets/fig-1.gif",
			"fig-2.gif": "http://assets/fig-2.gif",
		}, view.Assets)

		err = h.RegisterAssetVersion(ctx, "doc-1", "fig-1.gif", "http://assets/fig-1.gif")
		assert.ErrorIs(t, err, types.ErrVersionAlreadySet)

		assert.NoError(t, h.RegisterAssetVersion(ctx, "doc-1", "fig-1.gif", "http://assets/fig-1-v2.gif"))
		view, err = h.FetchAssetsList(ctx, "doc-1", document.Latest())
		assert.NoError(t, err)
		assert.Equal(t, "http://assets/fig-1-v2.gif", view.Assets["fig-1.gif"])

		err = h.RegisterAssetVersion(ctx, "doc-1", "undeclared.gif", "http://assets/undeclared.gif")
		assert.ErrorIs(t, err, types.ErrDoesNotExist)
	})

	t.Run("fetch document data test", func(t *testing.T) {
		h, _, _ := newHandlers(t)
		_, url := helper.DataServer(t, map[string]string{
			"/v1.xml": "<article>v1</article>",
			"/v2.xml": "<article>v2</article>",
		})

		assert.NoError(t, h.RegisterDocument(ctx, "doc-1", url("/v1.xml"), nil))
		assert.NoError(t, h.RegisterDocumentVersion(ctx, "doc-1", url("/v2.xml"), nil))

		data, err := h.FetchDocumentData(ctx, "doc-1", document.Latest())
		assert.NoError(t, err)
		assert.Equal(t, "<article>v2</article>", string(data))

		data, err = h.FetchDocumentData(ctx, "doc-1", document.Selector{Index: 0})
		assert.NoError(t, err)
		assert.Equal(t, "<article>v1</article>", string(data))

		data, err = h.FetchDocumentData(ctx, "doc-1", document.At("2100-01-01"))
		assert.NoError(t, err)
		assert.Equal(t, "<article>v2</article>", string(data))

		_, err = h.FetchDocumentData(ctx, "doc-1", document.At("1900-01-01"))
		assert.ErrorIs(t, err, types.ErrDoesNotExist)

		_, err = h.FetchDocumentData(ctx, "doc-1", document.At("yesterday"))
		assert.ErrorIs(t, err, types.ErrInvalidArgument)

		assert.NoError(t, h.RegisterDocumentVersion(ctx, "doc-1", url("/missing.xml"), nil))
		_, err = h.FetchDocumentData(ctx, "doc-1", document.Latest())
		assert.ErrorIs(t, err, types.ErrDoesNotExist)
	})

	t.Run("diff document versions test", func(t *testing.T) {
		h, _, _ := newHandlers(t)
		_, url := helper.DataServer(t, map[string]string{
			"/v1.xml": "<article>\n<p>one</p>\n</article>\n",
			"/v2.xml": "<article>\n<p>two</p>\n</article>\n",
		})

		assert.NoError(t, h.RegisterDocument(ctx, "doc-1", url("/v1.xml"), nil))
		assert.NoError(t, h.RegisterDocumentVersion(ctx, "doc-1", url("/v2.xml"), nil))

		diff, err := h.DiffDocumentVersions(ctx, "doc-1", "2030-01-01", "")
		assert.NoError(t, err)
		assert.Contains(t, diff, "-<p>one</p>")
		assert.Contains(t, diff, "+<p>two</p>")
	})

	t.Run("renditions test", func(t *testing.T) {
		h, _, be := newHandlers(t)

		assert.NoError(t, h.RegisterDocument(ctx, "doc-1", "http://data/v1.xml", nil))
		pdf := commands.Rendition{
			Filename:  "doc-1.pdf",
			DataURL:   "http://renditions/doc-1.pdf",
			MimeType:  "application/pdf",
			Lang:      "en",
			SizeBytes: 1024,
		}
		assert.NoError(t, h.RegisterRenditionVersion(ctx, "doc-1", pdf))

		before, err := be.Changes.Filter(ctx, "", 100)
		require.NoError(t, err)
		assert.ErrorIs(t, h.RegisterRenditionVersion(ctx, "doc-1", pdf), types.ErrVersionAlreadySet)
		after, err := be.Changes.Filter(ctx, "", 100)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		renditions, err := h.FetchDocumentRenditions(ctx, "doc-1", document.Latest())
		assert.NoError(t, err)
		require.Len(t, renditions, 1)
		assert.Equal(t, "http://renditions/doc-1.pdf", renditions[0].DataURL)
	})

	t.Run("delete document test", func(t *testing.T) {
		h, rec, be := newHandlers(t)

		assert.NoError(t, h.RegisterDocument(ctx, "doc-1", "http://data/v1.xml", nil))
		assert.NoError(t, h.DeleteDocument(ctx, "doc-1"))
		assert.Equal(t, events.DocumentDeleted, rec.last().event)
		committed, ok := rec.last().payload[session.DocumentKey].(document.Manifest)
		require.True(t, ok)
		require.Len(t, committed.Versions, 2)
		assert.True(t, committed.Versions[1].Deleted)

		_, err := h.FetchDocumentData(ctx, "doc-1", document.Latest())
		assert.ErrorIs(t, err, types.ErrDoesNotExist)

		err = h.DeleteDocument(ctx, "doc-1")
		assert.ErrorIs(t, err, types.ErrVersionAlreadySet)
		assert.ErrorIs(t, err, document.ErrDocumentAlreadyDeleted)

		assert.ErrorIs(t, h.RegisterDocumentVersion(ctx, "doc-1", "http://data/v2.xml", nil), types.ErrDoesNotExist)

		manifest, err := h.FetchDocumentManifest(ctx, "doc-1")
		assert.NoError(t, err)
		assert.True(t, manifest.Versions[len(manifest.Versions)-1].Deleted)

		changes, err := be.Changes.Filter(ctx, "", 100)
		assert.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, types.Change{
			ID:        "/documents/doc-1",
			Timestamp: changes[1].Timestamp,
			Deleted:   true,
		}, changes[1])

		assert.ErrorIs(t, h.DeleteDocument(ctx, "missing"), types.ErrDoesNotExist)
	})
}

func TestBundleCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("bundle items test", func(t *testing.T) {
		h, rec, _ := newHandlers(t)

		assert.NoError(t, h.CreateDocumentsBundle(ctx, "b1", []string{"d1"}, nil))
		assert.ErrorIs(t, h.CreateDocumentsBundle(ctx, "b1", nil, nil), types.ErrAlreadyExists)

		assert.NoError(t, h.AddDocumentToDocumentsBundle(ctx, "b1", "d2"))
		assert.ErrorIs(t, h.AddDocumentToDocumentsBundle(ctx, "b1", "d2"), types.ErrAlreadyExists)
		assert.NoError(t, h.InsertDocumentToDocumentsBundle(ctx, "b1", 0, "d0"))

		manifest, err := h.FetchDocumentsBundle(ctx, "b1")
		assert.NoError(t, err)
		assert.Equal(t, []string{"d0", "d1", "d2"}, manifest.Items)
		last := rec.last().payload
		assert.Equal(t, map[string]interface{}{"id": "b1", "index": 0, "doc": "d0"}, last.Arguments())
		committed, ok := last[session.BundleKey].(bundle.Manifest)
		require.True(t, ok)
		assert.Equal(t, "b1", committed.ID)
		assert.Equal(t, manifest.Items, committed.Items)
		assert.Equal(t, manifest.Updated, committed.Updated)
		assert.Len(t, last, 4)

		err = h.UpdateDocumentsInDocumentsBundle(ctx, "b1", []string{"d1", "d1"})
		assert.ErrorIs(t, err, types.ErrAlreadyExists)
		manifest, err = h.FetchDocumentsBundle(ctx, "b1")
		assert.NoError(t, err)
		assert.Equal(t, []string{"d0", "d1", "d2"}, manifest.Items)

		assert.NoError(t, h.UpdateDocumentsInDocumentsBundle(ctx, "b1", []string{"d2", "d1"}))
		manifest, err = h.FetchDocumentsBundle(ctx, "b1")
		assert.NoError(t, err)
		assert.Equal(t, []string{"d2", "d1"}, manifest.Items)

		assert.ErrorIs(t, h.AddDocumentToDocumentsBundle(ctx, "missing", "d1"), types.ErrDoesNotExist)
	})

	t.Run("bundle metadata test", func(t *testing.T) {
		h, rec, _ := newHandlers(t)

		assert.NoError(t, h.CreateDocumentsBundle(ctx, "b1", nil, map[string]metadata.Value{
			"publication_year": metadata.Number(2018),
			"unknown":          metadata.String("ignored"),
		}))
		assert.NoError(t, h.UpdateDocumentsBundleMetadata(ctx, "b1", map[string]metadata.Value{
			"volume": metadata.String("48"),
		}))
		assert.Equal(t, events.DocumentsBundleMetadataUpdated, rec.last().event)

		manifest, err := h.FetchDocumentsBundle(ctx, "b1")
		assert.NoError(t, err)
		assert.Equal(t, "2018", manifest.Metadata["publication_year"].Str())
		assert.Equal(t, "48", manifest.Metadata["volume"].Str())
		_, ok := manifest.Metadata["unknown"]
		assert.False(t, ok)

		err = h.UpdateDocumentsBundleMetadata(ctx, "b1", map[string]metadata.Value{
			"publication_months": metadata.String("march"),
		})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("concurrent additions are serialized test", func(t *testing.T) {
		h, _, _ := newHandlers(t)
		assert.NoError(t, h.CreateDocumentsBundle(ctx, "b1", nil, nil))

		const count = 20
		var wg gosync.WaitGroup
		for i := 0; i < count; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, h.AddDocumentToDocumentsBundle(ctx, "b1", fmt.Sprintf("d%d", i)))
			}(i)
		}
		wg.Wait()

		manifest, err := h.FetchDocumentsBundle(ctx, "b1")
		assert.NoError(t, err)
		assert.Len(t, manifest.Items, count)
	})
}

func TestJournalCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("journal issues test", func(t *testing.T) {
		h, rec, _ := newHandlers(t)

		assert.NoError(t, h.CreateJournal(ctx, "j1", map[string]metadata.Value{
			"title": metadata.String("Revista de Saúde Pública"),
		}))
		assert.NoError(t, h.AddIssueToJournal(ctx, "j1", "i1"))
		before, err := h.FetchJournal(ctx, "j1")
		assert.NoError(t, err)

		last := rec.last().payload
		assert.Equal(t, map[string]interface{}{"id": "j1", "issue": "i1"}, last.Arguments())
		committed, ok := last[session.JournalKey].(journal.Manifest)
		require.True(t, ok)
		assert.Equal(t, []string{"i1"}, committed.Issues)
		assert.Equal(t, before.Updated, committed.Updated)
		assert.Equal(t, "Revista de Saúde Pública", committed.Metadata["title"].Str())
		assert.Len(t, last, 3)

		assert.NoError(t, h.AddIssueToJournal(ctx, "j1", "i2"))
		assert.NoError(t, h.RemoveIssueFromJournal(ctx, "j1", "i2"))
		after, err := h.FetchJournal(ctx, "j1")
		assert.NoError(t, err)
		assert.Equal(t, before.Issues, after.Issues)

		assert.NoError(t, h.InsertIssueToJournal(ctx, "j1", 0, "i0"))
		assert.ErrorIs(t, h.AddIssueToJournal(ctx, "j1", "i0"), types.ErrAlreadyExists)
		assert.ErrorIs(t, h.RemoveIssueFromJournal(ctx, "j1", "i9"), types.ErrDoesNotExist)

		assert.ErrorIs(t, h.UpdateIssuesInJournal(ctx, "j1", []string{"i1", "i1"}), types.ErrAlreadyExists)
		assert.NoError(t, h.UpdateIssuesInJournal(ctx, "j1", []string{"i1", "i0"}))

		manifest, err := h.FetchJournal(ctx, "j1")
		assert.NoError(t, err)
		assert.Equal(t, []string{"i1", "i0"}, manifest.Issues)
		assert.Equal(t, "Revista de Saúde Pública", manifest.Metadata["title"].Str())

		assert.NoError(t, h.UpdateJournalMetadata(ctx, "j1", map[string]metadata.Value{
			"acronym": metadata.String("rsp"),
		}))
		assert.Equal(t, events.JournalMetadataUpdated, rec.last().event)
	})

	t.Run("ahead of print test", func(t *testing.T) {
		h, rec, _ := newHandlers(t)

		assert.NoError(t, h.CreateJournal(ctx, "j1", nil))
		assert.NoError(t, h.AddIssueToJournal(ctx, "j1", "i1"))

		assert.ErrorIs(t, h.SetAheadOfPrintBundleInJournal(ctx, "j1", "i1"), journal.ErrAheadOfPrintIsIssue)
		assert.NoError(t, h.SetAheadOfPrintBundleInJournal(ctx, "j1", "aop"))
		assert.Equal(t, events.AheadOfPrintBundleSet, rec.last().event)
		assert.ErrorIs(t, h.SetAheadOfPrintBundleInJournal(ctx, "j1", "aop"), journal.ErrAheadOfPrintAlreadySet)
		assert.ErrorIs(t, h.AddIssueToJournal(ctx, "j1", "aop"), journal.ErrIssueIsAheadOfPrint)

		assert.NoError(t, h.RemoveAheadOfPrintBundleFromJournal(ctx, "j1"))
		assert.Equal(t, events.AheadOfPrintBundleRemoved, rec.last().event)
		assert.ErrorIs(t, h.RemoveAheadOfPrintBundleFromJournal(ctx, "j1"), types.ErrDoesNotExist)
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("retry after concurrent update test", func(t *testing.T) {
		be := helper.TestBackend(t, helper.TestClock())
		db := &conflictingDB{Database: be.DB}
		be.DB = db
		rec := &recorder{}
		h := commands.New(be, rec.subscribers())

		assert.NoError(t, h.CreateJournal(ctx, "j1", nil))

		atomic.StoreInt32(&db.conflicts, int32(helper.RetryLimit))
		assert.NoError(t, h.AddIssueToJournal(ctx, "j1", "i1"))
		assert.Equal(t, []events.Type{events.JournalCreated, events.IssueAddedToJournal}, rec.events())

		atomic.StoreInt32(&db.conflicts, int32(helper.RetryLimit+1))
		assert.ErrorIs(t, h.AddIssueToJournal(ctx, "j1", "i2"), types.ErrRetryable)
		assert.Len(t, rec.events(), 2)

		manifest, err := h.FetchJournal(ctx, "j1")
		assert.NoError(t, err)
		assert.Equal(t, []string{"i1"}, manifest.Issues)
	})

	t.Run("subscribers run after the lock is released test", func(t *testing.T) {
		be := helper.TestBackend(t, helper.TestClock())

		var h *commands.Handlers
		var followUpErr error
		followUp := session.Subscriber{
			Event: events.IssueAddedToJournal,
			Name:  "follow-up",
			Callback: func(ctx context.Context, _ events.Type, payload session.Payload) error {
				ctx, cancel := context.WithTimeout(ctx, gotime.Second)
				defer cancel()
				followUpErr = h.SetAheadOfPrintBundleInJournal(ctx, payload.ID(), "aop")
				return followUpErr
			},
		}
		h = commands.New(be, []session.Subscriber{followUp})

		assert.NoError(t, h.CreateJournal(ctx, "j1", nil))
		assert.NoError(t, h.AddIssueToJournal(ctx, "j1", "i1"))
		assert.NoError(t, followUpErr)

		manifest, err := h.FetchJournal(ctx, "j1")
		assert.NoError(t, err)
		assert.Equal(t, "aop", manifest.AOP)
	})

	t.Run("cancelled context test", func(t *testing.T) {
		h, rec, _ := newHandlers(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, h.CreateJournal(cancelled, "j1", nil), context.Canceled)
		assert.Empty(t, rec.events())
	})
}

func TestChangeCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch changes test", func(t *testing.T) {
		h, _, be := newHandlers(t)

		for i := 0; i < 10; i++ {
			assert.NoError(t, h.RegisterDocument(ctx, fmt.Sprintf("doc-%d", i), "http://data/v1.xml", nil))
		}

		changes, err := h.FetchChanges(ctx, "", h.ChangesLimit())
		assert.NoError(t, err)
		require.Len(t, changes, 10)
		for i, change := range changes {
			assert.Equal(t, fmt.Sprintf("/documents/doc-%d", i), change.ID)
		}

		changes, err = h.FetchChanges(ctx, changes[4].Timestamp, 500)
		assert.NoError(t, err)
		assert.Len(t, changes, 5)

		changes, err = h.FetchChanges(ctx, "xxx", 500)
		assert.NoError(t, err)
		assert.Empty(t, changes)

		_, err = h.FetchChanges(ctx, "", -1)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)

		infos, err := be.DB.FindChanges(ctx, "", 1)
		require.NoError(t, err)
		change, err := h.FetchChange(ctx, infos[0].ID)
		assert.NoError(t, err)
		assert.Equal(t, "/documents/doc-0", change.ID)
	})
}
