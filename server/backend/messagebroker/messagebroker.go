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

// Package messagebroker publishes the events of the kernel to external
// consumers such as search indexers.
package messagebroker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scieloorg/kernel/api/types/events"
	"github.com/scieloorg/kernel/server/logging"
)

// Message represents a message that can be sent to the message broker.
type Message interface {
	// Key returns the partitioning key of the message.
	Key() string

	Marshal() ([]byte, error)
}

// EventMessage represents a message for an event notified by a session.
type EventMessage struct {
	EventType events.Type            `json:"event_type"`
	EntityID  string                 `json:"entity_id"`
	SessionID string                 `json:"session_id"`
	Timestamp string                 `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Key returns the id of the aggregate the event is about.
func (m EventMessage) Key() string {
	return m.EntityID
}

// Marshal marshals the event message to JSON.
func (m EventMessage) Marshal() ([]byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	return encoded, nil
}

// Broker is an interface for the message broker.
type Broker interface {
	Produce(ctx context.Context, msg Message) error
	Close() error
}

// Ensure creates a message broker based on the given configuration. When no
// broker is configured or the configuration is invalid, it returns a
// DummyBroker so that callers can produce without nil checks.
func Ensure(conf *Config) Broker {
	if !conf.Enabled() {
		return &DummyBroker{}
	}

	if err := conf.Validate(); err != nil {
		logging.DefaultLogger().Warnf("invalid kafka configuration: %v", err)
		return &DummyBroker{}
	}

	logging.DefaultLogger().Infof(
		"connecting to kafka: %s, topic: %s",
		conf.Addresses,
		conf.Topic,
	)

	return newKafkaBroker(conf)
}
