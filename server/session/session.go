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

// Package session provides the unit of work of a command: the repositories
// it reads and writes through, and the table of subscribers notified once
// its changes are committed.
package session

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/pkg/bundle"
	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/pkg/document"
	"github.com/scieloorg/kernel/pkg/journal"
	"github.com/scieloorg/kernel/server/backend"
	"github.com/scieloorg/kernel/server/changes"
	"github.com/scieloorg/kernel/server/logging"
	"github.com/scieloorg/kernel/server/profiling/prometheus"
	"github.com/scieloorg/kernel/server/repository"
)

// Payload carries the id of the aggregate an event is about, the manifest
// of the aggregate as committed and the arguments of the command that caused
// it.
type Payload map[string]interface{}

// Below are the keys holding the committed aggregate in a payload.
const (
	DocumentKey = "document"
	BundleKey   = "bundle"
	JournalKey  = "journal"
)

// ID returns the id of the aggregate the payload is about.
func (p Payload) ID() string {
	id, _ := p["id"].(string)
	return id
}

// With returns a copy of the payload with the given value set under key.
func (p Payload) With(key string, value interface{}) Payload {
	result := make(Payload, len(p)+1)
	for k, v := range p {
		result[k] = v
	}
	result[key] = value
	return result
}

// Arguments returns the payload without the committed aggregate.
func (p Payload) Arguments() map[string]interface{} {
	result := make(map[string]interface{}, len(p))
	for k, v := range p {
		switch k {
		case DocumentKey, BundleKey, JournalKey:
			continue
		}
		result[k] = v
	}
	return result
}

// Callback is called for each notified event.
type Callback func(ctx context.Context, event events.Type, payload Payload) error

// Subscriber is a callback registered for an event.
type Subscriber struct {
	Event    events.Type
	Name     string
	Callback Callback
}

// ForAll returns a subscriber of the given name for every event type.
func ForAll(name string, callback Callback) []Subscriber {
	var subscribers []Subscriber
	for _, event := range events.All() {
		subscribers = append(subscribers, Subscriber{
			Event:    event,
			Name:     name,
			Callback: callback,
		})
	}
	return subscribers
}

// Session is the unit of work of a single command.
type Session struct {
	id     xid.ID
	logger logging.Logger

	Documents *repository.Repository[*document.Document]
	Bundles   *repository.Repository[*bundle.Bundle]
	Journals  *repository.Repository[*journal.Journal]
	Changes   *changes.Log
	Clock     clock.Clock

	subscribers map[events.Type][]Subscriber
	metrics     *prometheus.Metrics
}

// ID returns the id of this session.
func (s *Session) ID() string {
	return s.id.String()
}

// Logger returns the logger of this session.
func (s *Session) Logger() logging.Logger {
	return s.logger
}

// Notify calls the subscribers of the given event in the order they were
// registered. Failing subscribers are logged and never interrupt the others.
func (s *Session) Notify(ctx context.Context, event events.Type, payload Payload) {
	ctx = With(logging.With(ctx, s.logger), s)
	if s.metrics != nil {
		s.metrics.AddEventNotified(event.String())
	}

	for _, subscriber := range s.subscribers[event] {
		if err := call(ctx, subscriber, event, payload); err != nil {
			s.logger.Errorf("subscriber %s of %s: %v", subscriber.Name, event, err)
			if s.metrics != nil {
				s.metrics.AddSubscriberFailure(event.String(), subscriber.Name)
			}
		}
	}
}

func call(ctx context.Context, subscriber Subscriber, event events.Type, payload Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return subscriber.Callback(ctx, event, payload)
}

// Factory creates the sessions of commands.
type Factory struct {
	be          *backend.Backend
	subscribers map[events.Type][]Subscriber
}

// NewFactory creates a new instance of Factory. The subscribers of each
// event are notified in the order they are given.
func NewFactory(be *backend.Backend, subscribers []Subscriber) *Factory {
	table := make(map[events.Type][]Subscriber)
	for _, subscriber := range subscribers {
		table[subscriber.Event] = append(table[subscriber.Event], subscriber)
	}

	return &Factory{
		be:          be,
		subscribers: table,
	}
}

// New creates a new session.
func (f *Factory) New() *Session {
	id := xid.New()

	return &Session{
		id:     id,
		logger: logging.New("session", logging.NewField("session", id.String())),

		Documents: repository.NewDocuments(f.be.DB, f.be.Changes, f.be.Clock),
		Bundles:   repository.NewBundles(f.be.DB, f.be.Changes, f.be.Clock),
		Journals:  repository.NewJournals(f.be.DB, f.be.Changes, f.be.Clock),
		Changes:   f.be.Changes,
		Clock:     f.be.Clock,

		subscribers: f.subscribers,
		metrics:     f.be.Metrics,
	}
}
