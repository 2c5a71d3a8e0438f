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

package watch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/server/backend/watch"
)

func TestHub(t *testing.T) {
	t.Run("publish to watchers test", func(t *testing.T) {
		hub := watch.New(4)
		w1 := hub.Watch()
		w2 := hub.Watch()
		assert.NotEqual(t, w1.ID(), w2.ID())
		assert.Equal(t, 2, hub.Len())

		event := watch.Event{Type: events.JournalCreated, EntityID: "0034-8910-rsp"}
		assert.Equal(t, 2, hub.Publish(event))
		assert.Equal(t, event, <-w1.Events())
		assert.Equal(t, event, <-w2.Events())
	})

	t.Run("unwatch test", func(t *testing.T) {
		hub := watch.New(4)
		w := hub.Watch()
		hub.Unwatch(w)
		assert.Equal(t, 0, hub.Len())

		_, ok := <-w.Events()
		assert.False(t, ok)
		assert.Equal(t, 0, hub.Publish(watch.Event{Type: events.JournalCreated}))

		// unwatching twice is harmless
		hub.Unwatch(w)
	})

	t.Run("drop slow watcher test", func(t *testing.T) {
		hub := watch.New(1)
		w := hub.Watch()

		assert.Equal(t, 1, hub.Publish(watch.Event{Type: events.DocumentRegistered}))
		assert.Equal(t, 0, hub.Publish(watch.Event{Type: events.DocumentDeleted}))
		assert.Equal(t, 0, hub.Len())

		event, ok := <-w.Events()
		assert.True(t, ok)
		assert.Equal(t, events.DocumentRegistered, event.Type)
		_, ok = <-w.Events()
		assert.False(t, ok)
	})

	t.Run("close test", func(t *testing.T) {
		hub := watch.New(1)
		w := hub.Watch()
		hub.Close()

		_, ok := <-w.Events()
		assert.False(t, ok)
		assert.Equal(t, 0, hub.Len())
	})
}
