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

package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/pkg/document"
	"github.com/scieloorg/kernel/server/session"
	"github.com/scieloorg/kernel/test/helper"
)

func TestSession(t *testing.T) {
	t.Run("notify in registration order test", func(t *testing.T) {
		be := helper.TestBackend(t, helper.TestClock())

		var calls []string
		record := func(name string) session.Callback {
			return func(ctx context.Context, event events.Type, payload session.Payload) error {
				calls = append(calls, name+":"+payload.ID())
				return nil
			}
		}

		factory := session.NewFactory(be, []session.Subscriber{
			{Event: events.DocumentRegistered, Name: "first", Callback: record("first")},
			{Event: events.DocumentDeleted, Name: "other", Callback: record("other")},
			{Event: events.DocumentRegistered, Name: "second", Callback: record("second")},
		})

		factory.New().Notify(context.Background(), events.DocumentRegistered, session.Payload{"id": "doc-1"})
		assert.Equal(t, []string{"first:doc-1", "second:doc-1"}, calls)
	})

	t.Run("failing subscribers are isolated test", func(t *testing.T) {
		be := helper.TestBackend(t, helper.TestClock())

		called := false
		factory := session.NewFactory(be, []session.Subscriber{
			{Event: events.JournalCreated, Name: "failing", Callback: func(context.Context, events.Type, session.Payload) error {
				return errors.New("unreachable")
			}},
			{Event: events.JournalCreated, Name: "panicking", Callback: func(context.Context, events.Type, session.Payload) error {
				panic("boom")
			}},
			{Event: events.JournalCreated, Name: "last", Callback: func(context.Context, events.Type, session.Payload) error {
				called = true
				return nil
			}},
		})

		assert.NotPanics(t, func() {
			factory.New().Notify(context.Background(), events.JournalCreated, session.Payload{"id": "j-1"})
		})
		assert.True(t, called)

		count, err := testutil.GatherAndCount(be.Metrics.Registry(), "kernel_events_subscriber_failures_total")
		assert.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("session in callback context test", func(t *testing.T) {
		be := helper.TestBackend(t, helper.TestClock())

		var seen string
		factory := session.NewFactory(be, session.ForAll("probe", func(ctx context.Context, _ events.Type, _ session.Payload) error {
			seen = session.From(ctx).ID()
			return nil
		}))

		sess := factory.New()
		sess.Notify(context.Background(), events.AheadOfPrintBundleRemoved, session.Payload{"id": "j-1"})
		assert.Equal(t, sess.ID(), seen)
		assert.NotEqual(t, sess.ID(), factory.New().ID())
	})

	t.Run("repositories share the backend test", func(t *testing.T) {
		be := helper.TestBackend(t, helper.TestClock())
		factory := session.NewFactory(be, nil)
		ctx := context.Background()

		sess := factory.New()
		doc := document.New("doc-1", sess.Clock)
		assert.NoError(t, doc.NewVersion("http://data/1.xml"))
		assert.NoError(t, sess.Documents.Add(ctx, doc))

		fetched, err := factory.New().Documents.Fetch(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Equal(t, doc.Manifest(), fetched.Manifest())

		changes, err := sess.Changes.Filter(ctx, "", 10)
		assert.NoError(t, err)
		assert.Len(t, changes, 1)
	})
}

func TestPayload(t *testing.T) {
	t.Run("with copies the payload test", func(t *testing.T) {
		args := session.Payload{"id": "j1", "issue": "i1"}
		payload := args.With(session.JournalKey, "manifest")

		assert.Equal(t, "j1", payload.ID())
		assert.Equal(t, "manifest", payload[session.JournalKey])
		_, ok := args[session.JournalKey]
		assert.False(t, ok)
	})

	t.Run("arguments omit the aggregate test", func(t *testing.T) {
		payload := session.Payload{
			"id":                "doc-1",
			"data_url":          "http://data/v1.xml",
			session.DocumentKey: document.Manifest{ID: "doc-1"},
		}
		assert.Equal(t, map[string]interface{}{
			"id":       "doc-1",
			"data_url": "http://data/v1.xml",
		}, payload.Arguments())
	})
}
