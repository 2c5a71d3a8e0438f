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

// Package watch fans the events of the kernel out to live watchers, such as
// the websocket connections of the change stream.
package watch

import (
	"sync"
	gotime "time"

	"github.com/rs/xid"

	"github.com/scieloorg/kernel/api/types/events"
)

// publishTimeout is the time a publish waits on a full watcher.
const publishTimeout = 100 * gotime.Millisecond

// Event is the message delivered to watchers.
type Event struct {
	Type      events.Type            `json:"event"`
	EntityID  string                 `json:"entity_id"`
	SessionID string                 `json:"session_id"`
	Timestamp string                 `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Watcher receives the events published after it started watching.
type Watcher struct {
	id     string
	mu     sync.Mutex
	closed bool
	events chan Event
}

func newWatcher(bufSize int) *Watcher {
	return &Watcher{
		id:     xid.New().String(),
		events: make(chan Event, bufSize),
	}
}

// ID returns the id of this watcher.
func (w *Watcher) ID() string {
	return w.id
}

// Events returns the event channel of this watcher. It is closed when the
// watcher is unwatched or dropped for being too slow.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.closed = true
		close(w.events)
	}
}

func (w *Watcher) publish(event Event) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}

	select {
	case w.events <- event:
		return true
	case <-gotime.After(publishTimeout):
		return false
	}
}

// Hub is the set of current watchers.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]*Watcher
	bufSize  int
}

// New creates a new instance of Hub whose watchers buffer up to bufSize
// events.
func New(bufSize int) *Hub {
	return &Hub{
		watchers: make(map[string]*Watcher),
		bufSize:  bufSize,
	}
}

// Watch registers a new watcher.
func (h *Hub) Watch() *Watcher {
	w := newWatcher(h.bufSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.watchers[w.id] = w

	return w
}

// Unwatch removes the given watcher and closes its channel.
func (h *Hub) Unwatch(w *Watcher) {
	h.mu.Lock()
	delete(h.watchers, w.id)
	h.mu.Unlock()

	w.close()
}

// Publish delivers the given event to every watcher. Watchers that cannot
// keep up are dropped. It returns the number of watchers reached.
func (h *Hub) Publish(event Event) int {
	h.mu.RLock()
	watchers := make([]*Watcher, 0, len(h.watchers))
	for _, w := range h.watchers {
		watchers = append(watchers, w)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, w := range watchers {
		if w.publish(event) {
			delivered++
			continue
		}
		h.Unwatch(w)
	}
	return delivered
}

// Len returns the number of watchers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.watchers)
}

// Close drops every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	watchers := h.watchers
	h.watchers = make(map[string]*Watcher)
	h.mu.Unlock()

	for _, w := range watchers {
		w.close()
	}
}
