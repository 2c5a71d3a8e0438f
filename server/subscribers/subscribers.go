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

// Package subscribers provides the built-in subscribers notified after a
// command committed its changes.
package subscribers

import (
	"context"
	gotime "time"

	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/pkg/clock"
	"github.com/scieloorg/kernel/server/backend"
	"github.com/scieloorg/kernel/server/backend/messagebroker"
	"github.com/scieloorg/kernel/server/backend/watch"
	"github.com/scieloorg/kernel/server/logging"
	"github.com/scieloorg/kernel/server/session"
)

// Below are the names of the built-in subscribers.
const (
	AuditName  = "audit"
	BrokerName = "broker"
	WatchName  = "watch"
)

// Default returns the built-in subscribers of every event: the audit log,
// the message broker and the change stream, in this order.
func Default(be *backend.Backend) []session.Subscriber {
	var subscribers []session.Subscriber
	subscribers = append(subscribers, session.ForAll(AuditName, Audit)...)
	subscribers = append(subscribers, session.ForAll(BrokerName, Broker(be.MsgBroker))...)
	subscribers = append(subscribers, session.ForAll(WatchName, Watch(be.Watch))...)
	return subscribers
}

// Audit logs the event and the command arguments with the logger of the
// notifying session.
func Audit(ctx context.Context, event events.Type, payload session.Payload) error {
	logging.From(ctx).Infof("%s: %s %v", event, payload.ID(), payload.Arguments())
	return nil
}

// Broker returns a callback that produces the event to the given broker.
func Broker(broker messagebroker.Broker) session.Callback {
	return func(ctx context.Context, event events.Type, payload session.Payload) error {
		return broker.Produce(ctx, messagebroker.EventMessage{
			EventType: event,
			EntityID:  payload.ID(),
			SessionID: sessionID(ctx),
			Timestamp: now(),
			Payload:   payload,
		})
	}
}

// Watch returns a callback that publishes the event to the watchers of the
// given hub.
func Watch(hub *watch.Hub) session.Callback {
	return func(ctx context.Context, event events.Type, payload session.Payload) error {
		delivered := hub.Publish(watch.Event{
			Type:      event,
			EntityID:  payload.ID(),
			SessionID: sessionID(ctx),
			Timestamp: now(),
			Payload:   payload,
		})
		if delivered > 0 {
			logging.From(ctx).Debugf("%s delivered to %d watchers", event, delivered)
		}
		return nil
	}
}

func sessionID(ctx context.Context) string {
	if s := session.From(ctx); s != nil {
		return s.ID()
	}
	return ""
}

// now returns the wall time of the notification. The clock of the session
// is left alone so that it only stamps versions and changes.
func now() string {
	return clock.Format(gotime.Now())
}
